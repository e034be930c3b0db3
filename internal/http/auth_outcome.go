package httpx

import (
	"net/http"

	domainauth "github.com/target/forum-api/internal/domain/auth"
	apperrors "github.com/target/forum-api/internal/errors"
)

// Response messages for authentication outcomes.
const (
	msgLoginSuccessful  = "Login successful"
	msgLogoutSuccessful = "Logout successful"
	msgBadCredentials   = "Invalid username or password"
	msgAuthFailed       = "Authentication failed"
	msgAuthRequired     = "Authentication required"
	msgNotLoggedIn      = "Authentication is required"
)

// authStep names the step an Outcome belongs to; it only affects the success message.
type authStep int

const (
	stepLogin authStep = iota
	stepLogout
	stepEntry
)

// outcomeFromError classifies an auth service error into a failure Outcome.
func outcomeFromError(err error) domainauth.Outcome {
	switch {
	case apperrors.IsBadCredentials(err):
		return domainauth.Failure(domainauth.ReasonBadCredentials, err)
	case apperrors.IsNotLoggedIn(err):
		return domainauth.Failure(domainauth.ReasonNotLoggedIn, err)
	default:
		return domainauth.Failure(domainauth.ReasonOther, err)
	}
}

// writeAuthOutcome is the single writer for authentication results.
func writeAuthOutcome(w http.ResponseWriter, step authStep, o domainauth.Outcome) {
	if o.OK() {
		switch step {
		case stepLogout:
			WriteSuccess(w, http.StatusOK, msgLogoutSuccessful, nil)
		default:
			WriteSuccess(w, http.StatusOK, msgLoginSuccessful, o.Identity)
		}
		return
	}

	switch o.Reason {
	case domainauth.ReasonBadCredentials:
		WriteFailure(w, http.StatusUnauthorized, msgBadCredentials)
	case domainauth.ReasonNotLoggedIn:
		WriteFailure(w, http.StatusUnauthorized, msgNotLoggedIn)
	case domainauth.ReasonAuthRequired:
		WriteFailure(w, http.StatusUnauthorized, msgAuthRequired)
	default:
		status := http.StatusUnauthorized
		if apperrors.IsUnauthorized(o.Err) {
			status = http.StatusForbidden
		}
		WriteFailure(w, status, msgAuthFailed)
	}
}
