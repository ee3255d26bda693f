package portal

import "fmt"

// ErrorKind classifies fetch failures.
type ErrorKind string

const (
	KindNetwork  ErrorKind = "network"
	KindServer   ErrorKind = "server"
	KindEnvelope ErrorKind = "envelope"
)

// FetchError is returned for every failed queue fetch. Callers keep their last
// good snapshot and try again on the next tick.
type FetchError struct {
	Kind       ErrorKind
	Op         string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Kind, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
