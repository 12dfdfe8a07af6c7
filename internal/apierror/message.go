package apierror

import (
	"errors"
	"fmt"
)

const (
	notFoundMessage   = "Oops! We couldn't find the %s you're looking for. Please refresh and try again."
	unexpectedMessage = "Oops! Something unexpected went wrong. We're sorry! Please try again later."
)

// Flash is the user-facing summary of an error. Rendering it is up to the
// view layer.
type Flash struct {
	Header  string
	Message []string
}

// Message builds the flash text for err, where noun names the record the
// user was saving ("game", "shopping list", ...).
func Message(err error, noun string) Flash {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return Flash{Message: []string{unexpectedMessage}}
	}

	switch apiErr.Kind {
	case Unprocessable:
		return Flash{
			Header:  fmt.Sprintf("%d error(s) prevented your %s from being saved:", len(apiErr.Messages), noun),
			Message: apiErr.Messages,
		}
	case NotFound:
		return Flash{Message: []string{fmt.Sprintf(notFoundMessage, noun)}}
	default:
		return Flash{Message: []string{unexpectedMessage}}
	}
}
