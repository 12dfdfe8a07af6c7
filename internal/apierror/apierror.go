// Package apierror classifies list API responses into a fixed set of error
// kinds. Classification is pure: the same status and body always produce
// the same result.
package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type Kind int

const (
	Unknown Kind = iota
	Unauthorized
	NotFound
	MethodNotAllowed
	Unprocessable
	ServerError
	MalformedResponse
)

var kindNames = map[Kind]string{
	Unknown:           "unknown",
	Unauthorized:      "unauthorized",
	NotFound:          "not_found",
	MethodNotAllowed:  "method_not_allowed",
	Unprocessable:     "unprocessable",
	ServerError:       "server_error",
	MalformedResponse: "malformed_response",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a classified API failure. Messages is only populated for
// Unprocessable.
type Error struct {
	Kind       Kind
	StatusCode int
	Messages   []string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case len(e.Messages) > 0:
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.StatusCode, strings.Join(e.Messages, "; "))
	case e.Err != nil:
		return fmt.Sprintf("%s (%d): %v", e.Kind, e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("%s (%d)", e.Kind, e.StatusCode)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by kind so callers can write
// errors.Is(err, &apierror.Error{Kind: apierror.NotFound}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or Unknown.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return Unknown
}

type errorBody struct {
	Errors json.RawMessage `json:"errors"`
}

// Classify maps a non-2xx response to an error kind. A 422 whose body has
// no "errors" array is reported as MalformedResponse.
func Classify(statusCode int, body []byte) *Error {
	switch {
	case statusCode == http.StatusUnauthorized:
		return &Error{Kind: Unauthorized, StatusCode: statusCode}
	case statusCode == http.StatusNotFound:
		return &Error{Kind: NotFound, StatusCode: statusCode}
	case statusCode == http.StatusMethodNotAllowed:
		return &Error{Kind: MethodNotAllowed, StatusCode: statusCode}
	case statusCode == http.StatusUnprocessableEntity:
		messages, err := extractMessages(body)
		if err != nil {
			return Malformed(statusCode, err)
		}
		return &Error{Kind: Unprocessable, StatusCode: statusCode, Messages: messages}
	case statusCode >= 500 && statusCode <= 599:
		return &Error{Kind: ServerError, StatusCode: statusCode}
	default:
		return &Error{Kind: Unknown, StatusCode: statusCode}
	}
}

func extractMessages(body []byte) ([]string, error) {
	if len(body) == 0 {
		return nil, errors.New("empty body")
	}

	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode error body: %w", err)
	}

	var messages []string
	if len(parsed.Errors) == 0 || json.Unmarshal(parsed.Errors, &messages) != nil || messages == nil {
		return nil, errors.New(`"errors" is not an array of strings`)
	}

	return messages, nil
}

// Transport wraps a connection-level failure. These are reported as
// ServerError with a zero status code.
func Transport(err error) *Error {
	return &Error{Kind: ServerError, Err: err}
}

// Malformed reports a response whose body violates the expected shape.
func Malformed(statusCode int, err error) *Error {
	return &Error{Kind: MalformedResponse, StatusCode: statusCode, Err: err}
}
