package auth

// FailureReason classifies why an authentication step did not succeed.
type FailureReason string

const (
	// ReasonBadCredentials covers both unknown users and wrong passwords.
	ReasonBadCredentials FailureReason = "bad_credentials"
	// ReasonNotLoggedIn is a logout (or similar) attempted without an active session.
	ReasonNotLoggedIn FailureReason = "not_logged_in"
	// ReasonAuthRequired is an unauthenticated request reaching a protected resource.
	ReasonAuthRequired FailureReason = "auth_required"
	// ReasonOther is any other authentication failure.
	ReasonOther FailureReason = "other"
)

// Outcome is the result of a single authentication step: either Success with an
// identity or Failure with a reason. Err carries the underlying cause for failures.
type Outcome struct {
	Identity Identity
	Reason   FailureReason
	Err      error
}

// Success builds a successful outcome.
func Success(id Identity) Outcome {
	return Outcome{Identity: id}
}

// Failure builds a failed outcome.
func Failure(reason FailureReason, err error) Outcome {
	if reason == "" {
		reason = ReasonOther
	}
	return Outcome{Reason: reason, Err: err}
}

// OK reports whether the outcome is a success.
func (o Outcome) OK() bool { return o.Reason == "" }
