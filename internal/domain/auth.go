package domain

import "fmt"

// AuthReason identifies why an identity operation failed.
type AuthReason string

const (
	ReasonInvalidEmail      AuthReason = "auth/invalid-email"
	ReasonUserDisabled      AuthReason = "auth/user-disabled"
	ReasonMissingPassword   AuthReason = "auth/missing-password"
	ReasonUserNotFound      AuthReason = "auth/user-not-found"
	ReasonInvalidCredential AuthReason = "auth/invalid-credential"
	ReasonEmailAlreadyInUse AuthReason = "auth/email-already-in-use"
	ReasonWeakPassword      AuthReason = "auth/weak-password"
	ReasonUnknown           AuthReason = "auth/unknown"
)

// MinPasswordLength is the shortest password accepted on registration.
const MinPasswordLength = 6

// Message returns the user-facing text for the reason.
func (r AuthReason) Message() string {
	switch r {
	case ReasonInvalidEmail:
		return "Invalid email address format."
	case ReasonUserDisabled:
		return "This account has been disabled."
	case ReasonMissingPassword:
		return "Missing password field"
	case ReasonUserNotFound:
		return "No account found with this email."
	case ReasonInvalidCredential:
		return "Invalid credentials. Please check your email and password."
	case ReasonEmailAlreadyInUse:
		return "This email is already in use."
	case ReasonWeakPassword:
		return fmt.Sprintf("Password should be at least %d characters.", MinPasswordLength)
	default:
		return "An unknown error occurred. Please try again."
	}
}

// AuthError is returned by every failed identity operation.
type AuthError struct {
	Reason AuthReason
	Err    error // underlying cause, set for ReasonUnknown
}

// NewAuthError creates an AuthError for reason.
func NewAuthError(reason AuthReason) *AuthError {
	return &AuthError{Reason: reason}
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return string(e.Reason)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Is matches any AuthError with the same reason.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	return ok && t.Reason == e.Reason
}
