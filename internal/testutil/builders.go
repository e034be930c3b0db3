// Package testutil provides database, Redis and fixture helpers for the forum tests.
package testutil

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/target/forum-api/internal/domain/model"
)

// DefaultTestPassword satisfies the registration password rules.
const DefaultTestPassword = "correct-horse-battery"

// UniqueName returns prefix followed by eight random hex characters, short enough for a username.
func UniqueName(prefix string) string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%s_%08x", prefix, uint32(time.Now().UnixNano()))
	}
	return prefix + "_" + hex.EncodeToString(b)
}

// RegisterRequestBuilder provides a fluent interface for building RegisterRequest objects for testing.
type RegisterRequestBuilder struct {
	req *model.RegisterRequest
}

// NewRegisterRequest creates a builder with a unique username and a valid password.
func NewRegisterRequest() *RegisterRequestBuilder {
	return &RegisterRequestBuilder{
		req: &model.RegisterRequest{
			Username: UniqueName("user"),
			Password: DefaultTestPassword,
		},
	}
}

// WithUsername sets the username.
func (b *RegisterRequestBuilder) WithUsername(username string) *RegisterRequestBuilder {
	b.req.Username = username
	return b
}

// WithPassword sets the password.
func (b *RegisterRequestBuilder) WithPassword(password string) *RegisterRequestBuilder {
	b.req.Password = password
	return b
}

// WithEmail sets the email.
func (b *RegisterRequestBuilder) WithEmail(email string) *RegisterRequestBuilder {
	b.req.Email = &email
	return b
}

// Build returns the built request.
func (b *RegisterRequestBuilder) Build() *model.RegisterRequest {
	return b.req
}

// PostRequestBuilder provides a fluent interface for building CreatePostRequest objects for testing.
type PostRequestBuilder struct {
	req *model.CreatePostRequest
}

// NewPostRequest creates a builder with a unique title and a short body.
func NewPostRequest() *PostRequestBuilder {
	return &PostRequestBuilder{
		req: &model.CreatePostRequest{
			Title: UniqueName("post"),
			Body:  "Lorem ipsum dolor sit amet.",
		},
	}
}

// WithTitle sets the title.
func (b *PostRequestBuilder) WithTitle(title string) *PostRequestBuilder {
	b.req.Title = title
	return b
}

// WithBody sets the body.
func (b *PostRequestBuilder) WithBody(body string) *PostRequestBuilder {
	b.req.Body = body
	return b
}

// Build returns the built request.
func (b *PostRequestBuilder) Build() *model.CreatePostRequest {
	return b.req
}
