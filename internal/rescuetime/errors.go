package rescuetime

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// invalidKeyMarker is matched case-sensitively against the API's error
// message. The API has no structured error code; this substring is what it
// reports for unknown and revoked keys.
const invalidKeyMarker = "key not"

// ErrorKind classifies request failures.
type ErrorKind string

const (
	// ErrorKindInvalidKey means the key must be re-entered.
	ErrorKindInvalidKey ErrorKind = "invalid_key"

	// ErrorKindTransient covers everything else; the request is retried.
	ErrorKindTransient ErrorKind = "transient"
)

// RequestError describes a failed summary request.
type RequestError struct {
	// StatusCode is the HTTP status, zero when no response arrived.
	StatusCode int

	// Message is the API-reported error message, if any.
	Message string

	// Body is the raw response body (truncated).
	Body []byte

	// Err is the underlying transport or decode error, if any.
	Err error
}

func (e *RequestError) Error() string {
	var b strings.Builder
	b.WriteString("rescuetime request failed")
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Kind classifies the failure from the message alone; the status code is not consulted.
func (e *RequestError) Kind() ErrorKind {
	if strings.Contains(e.Message, invalidKeyMarker) {
		return ErrorKindInvalidKey
	}
	return ErrorKindTransient
}

// IsInvalidKey reports whether err is a RequestError caused by a bad key.
func IsInvalidKey(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr) && reqErr.Kind() == ErrorKindInvalidKey
}

// errorMessage digs the error message out of an API error body. Both
// {"error": "..."} and {"error": {"error": "..."}} are accepted.
func errorMessage(body []byte) string {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return ""
	}
	field := gjson.GetBytes(body, "error")
	switch {
	case field.Type == gjson.String:
		return field.String()
	case field.IsObject():
		if nested := field.Get("error"); nested.Type == gjson.String {
			return nested.String()
		}
		if nested := field.Get("message"); nested.Type == gjson.String {
			return nested.String()
		}
	}
	return ""
}
