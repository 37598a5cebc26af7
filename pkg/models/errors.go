package models

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrTimeout      = errors.New("Timeout reached")
	ErrNoExperiment = errors.New("no active experiment")
	ErrEmptyNodes   = errors.New("empty nodes list")
)

// ArgumentError reports invalid user input. The command line prints usage
// along with it and exits with status 2.
type ArgumentError struct {
	Msg string
	Err error
}

func (e *ArgumentError) Error() string {
	return e.Msg
}

func (e *ArgumentError) Unwrap() error {
	return e.Err
}

// Argumentf builds an ArgumentError.
func Argumentf(format string, a ...interface{}) error {
	return &ArgumentError{Msg: fmt.Sprintf(format, a...)}
}

// StateError is returned when an experiment is not, and will never be, in
// the state a caller waits for.
type StateError struct {
	Msg string
}

func (e *StateError) Error() string {
	return e.Msg
}

// HTTPError is a non 2xx answer from the REST API.
type HTTPError struct {
	Code   int
	Status string
	Body   []byte
}

func (e *HTTPError) Error() string {
	status := e.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", e.Code, http.StatusText(e.Code))
	}
	if len(e.Body) == 0 {
		return "HTTP Error " + status
	}
	return fmt.Sprintf("HTTP Error %s\n%s", status, e.Body)
}

// IsUnauthorized tells if err is an HTTP 401.
func IsUnauthorized(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.Code == http.StatusUnauthorized
}
