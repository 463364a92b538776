package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingMandatory is returned when the gist id or token is not configured.
	ErrMissingMandatory = errors.New("mandatory settings missing")

	// ErrBusy is returned when another backup, restore or fork is running.
	ErrBusy = errors.New("another sync operation is in progress")

	// ErrInvalidDocument is returned when the remote store answers with a
	// document lacking the fields the operation needs.
	ErrInvalidDocument = errors.New("could not interpret remote document")
)

// ParseError reports a fetched file that is not valid structured data.
type ParseError struct {
	Filename string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Filename, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
