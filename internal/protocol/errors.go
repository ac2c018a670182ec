package protocol

import "fmt"

// ConnectionError indicates the UDP exchange could not be established.
// The underlying dial or write error is preserved for diagnostics.
type ConnectionError struct {
	Err  error
	Addr string
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("query %s: %v", e.Addr, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// IncompleteResponseError indicates the read deadline elapsed (or the server
// went silent) before the response terminator was observed. Received holds
// how many bytes were collected before giving up.
type IncompleteResponseError struct {
	Err      error
	Addr     string
	Received int
}

func (e *IncompleteResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("incomplete response from %s (%d bytes received): %v", e.Addr, e.Received, e.Err)
	}

	return fmt.Sprintf("incomplete response from %s (%d bytes received)", e.Addr, e.Received)
}

// Unwrap returns the underlying read error, if any.
func (e *IncompleteResponseError) Unwrap() error {
	return e.Err
}

// MalformedResponseError indicates the token stream cannot be paired into
// key/value fields. Usually means the wrong port or a foreign responder.
type MalformedResponseError struct {
	Tokens int
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response: %d tokens leave an unpaired trailing key", e.Tokens)
}

// MissingFieldError indicates a player field implied by numplayers is absent
// from the decoded mapping. Key names the field that was expected.
type MissingFieldError struct {
	Key string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing player field %q", e.Key)
}
