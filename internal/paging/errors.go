package paging

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is matched by every argument validation failure.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrFetchFailed is matched by every page fetch failure.
	ErrFetchFailed = errors.New("fetch failed")
)

// ArgumentError reports a rejected argument before any I/O happened.
type ArgumentError struct {
	Name   string
	Reason string
}

// InvalidArgument builds an ArgumentError for name.
func InvalidArgument(name, reason string) error {
	return &ArgumentError{Name: name, Reason: reason}
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %s: %s", e.Name, e.Reason)
}

func (e *ArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// FetchError reports a single page that could not be fetched or decoded.
// Status is the HTTP or envelope status when one was received, 0 otherwise.
type FetchError struct {
	Service  string
	Offset   int
	PageSize int
	Status   int
	Err      error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("fetch %s page offset=%d size=%d", e.Service, e.Offset, e.PageSize)
	if e.Status != 0 {
		msg += fmt.Sprintf(" status=%d", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func (e *FetchError) Is(target error) bool {
	return target == ErrFetchFailed
}
