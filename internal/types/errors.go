package types

import (
	"errors"
	"fmt"
)

var (
	// ErrNetwork is matched by every failure to retrieve a listing page
	ErrNetwork = errors.New("network error")
	// ErrDecode is matched when expected review markup is missing or malformed
	ErrDecode = errors.New("decode error")
	// ErrInvalidArgument is returned before any request is made
	ErrInvalidArgument = errors.New("invalid argument")
)

// FetchError describes a page that could not be retrieved
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status code: %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrNetwork}
	}
	return []error{ErrNetwork, e.Err}
}

// DecodeError describes a review fragment missing an expected element or value
type DecodeError struct {
	Field    string
	Selector string
	Reason   string
}

func (e *DecodeError) Error() string {
	if e.Selector == "" {
		return fmt.Sprintf("decode %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("decode %s (%s): %s", e.Field, e.Selector, e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return ErrDecode
}
