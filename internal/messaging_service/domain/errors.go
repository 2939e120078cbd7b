package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrBadRequest marks caller input that can never succeed as sent.
	ErrBadRequest = errors.New("bad request")
	// ErrNotFound marks a referenced entity that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConfiguration marks a deployment problem, such as missing carrier credentials.
	ErrConfiguration = errors.New("configuration error")
	// ErrDatastore marks a failure talking to the relational store.
	ErrDatastore = errors.New("datastore error")

	ErrPhoneNumberNotFound = fmt.Errorf("phone number %w", ErrNotFound)
	ErrMessageNotFound     = fmt.Errorf("message %w", ErrNotFound)
	ErrPatientNotFound     = fmt.Errorf("patient %w", ErrNotFound)
	ErrNoActiveNumbers     = fmt.Errorf("no active phone numbers configured: %w", ErrBadRequest)
	ErrMissingCredentials  = fmt.Errorf("no carrier credentials for sending number: %w", ErrConfiguration)

	// ErrSendingNumberUnavailable is an explicitly requested sending number
	// that is unknown or inactive. It is caller input, not a missing resource.
	ErrSendingNumberUnavailable = fmt.Errorf("requested phone number is unknown or inactive: %w", ErrBadRequest)
)

// BadRequestf builds an ErrBadRequest with a caller-facing message.
func BadRequestf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrBadRequest)
}

// DatastoreError wraps a storage failure as ErrDatastore while keeping the cause.
func DatastoreError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrDatastore, err)
}

// ProviderError is a rejection or transport failure from the carrier.
// StatusCode is zero when no HTTP response was received.
type ProviderError struct {
	Message    string
	Code       string
	StatusCode int
	Raw        string
	Err        error
}

func (e *ProviderError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Code != "":
		return fmt.Sprintf("carrier rejected message (status %d, code %s): %s", e.StatusCode, e.Code, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("carrier rejected message (status %d): %s", e.StatusCode, e.Message)
	default:
		return "carrier request failed: " + e.Message
	}
}

func (e *ProviderError) Unwrap() error { return e.Err }
