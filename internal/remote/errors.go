package remote

import (
	"errors"
	"fmt"
)

// FailureClass drives the sync engine's recovery policy.
type FailureClass string

const (
	// FailureNetwork covers transport errors and 5xx responses. The
	// mutation is recovered locally by queueing to the outbox.
	FailureNetwork FailureClass = "network"

	// FailureAuth covers 401/expired tokens. Surfaced once per session;
	// automatic retry is suspended until re-authentication.
	FailureAuth FailureClass = "auth"

	// FailureValidation covers 4xx rejections of the payload. Logged and
	// dropped - retrying an invalid payload cannot succeed.
	FailureValidation FailureClass = "validation"
)

// RequestError wraps a failed remote call with its failure class.
type RequestError struct {
	Class  FailureClass
	Op     string
	Status int // HTTP status, 0 for transport failures
	Err    error
}

func (e *RequestError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s failed with status %d", e.Class, e.Op, e.Status)
	}
	return fmt.Sprintf("%s: %s failed: %v", e.Class, e.Op, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// ClassOf extracts the failure class; unknown errors count as network
// failures so nothing mutating is ever silently lost.
func ClassOf(err error) FailureClass {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Class
	}
	return FailureNetwork
}

func IsAuth(err error) bool       { return ClassOf(err) == FailureAuth }
func IsNetwork(err error) bool    { return ClassOf(err) == FailureNetwork }
func IsValidation(err error) bool { return ClassOf(err) == FailureValidation }

// classifyStatus maps an HTTP response status to a failure class.
func classifyStatus(status int) FailureClass {
	switch {
	case status == 401 || status == 403:
		return FailureAuth
	case status >= 400 && status < 500:
		return FailureValidation
	default:
		return FailureNetwork
	}
}
