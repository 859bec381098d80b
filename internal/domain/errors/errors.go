package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("resource not found")
	ErrConflict = errors.New("resource already exists")

	// ErrStateInvalid means the OAuth callback state failed signature or
	// parse checks. Nothing from the payload may be trusted.
	ErrStateInvalid = errors.New("invalid oauth state")

	// ErrPersonaRequired means a link attempt arrived without a persona
	// reference. Tokens are always persona-scoped.
	ErrPersonaRequired = errors.New("persona_required")

	// ErrAuthRequired means no usable token exists for the scope, or the
	// remote API reported its auth-exception code. The caller must redo
	// OAuth; it is never auto-retried.
	ErrAuthRequired = errors.New("persona_oauth_required")

	// ErrLinkageMissing means the persona has no Instagram mapping. This is
	// a different user action from ErrAuthRequired.
	ErrLinkageMissing = errors.New("persona_instagram_not_linked")
)

// The Graph API signals an invalid or expired credential with this code in
// the error body, independent of HTTP status.
const GraphAuthErrorCode = 190

// RemoteError carries the status and structured error body of a failed
// Graph call. Transient covers network failures, timeouts and 5xx; anything
// else surfaces status and body for diagnostics.
type RemoteError struct {
	StatusCode int
	Code       int
	Subcode    int
	Body       string
}

func (e *RemoteError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("graph api error: status=%d code=%d subcode=%d", e.StatusCode, e.Code, e.Subcode)
	}
	return fmt.Sprintf("graph api error: status=%d body=%s", e.StatusCode, e.Body)
}

// Transient reports whether the failure is worth logging and skipping
// rather than surfacing to the user. Retry policy belongs to the caller.
func (e *RemoteError) Transient() bool {
	return e.StatusCode == 0 || e.StatusCode >= 500
}

// IsAuthRequired matches both the local no-token condition and a remote
// auth-exception mapped onto it.
func IsAuthRequired(err error) bool {
	return errors.Is(err, ErrAuthRequired)
}

// IsRemoteTransient reports whether err is a transient remote failure.
func IsRemoteTransient(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Transient()
}
