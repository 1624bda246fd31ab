package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error is returned by every failed backend call. Status is zero when the
// request never produced an HTTP response (network failure, cancelled
// context).
type Error struct {
	Status  int
	Code    string
	Message string
	Details string
	Hint    string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("remote: ")
	if e.Status != 0 {
		fmt.Fprintf(&b, "%d ", e.Status)
	}
	if e.Code != "" {
		fmt.Fprintf(&b, "[%s] ", e.Code)
	}
	b.WriteString(e.Message)
	if e.Err != nil && e.Err.Error() != e.Message {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Unauthorized reports whether the backend rejected the caller's token.
// A 403 is a permission failure on a valid token and does not count.
func (e *Error) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// AsError unwraps err into a *Error if one is in the chain.
func AsError(err error) (*Error, bool) {
	var re *Error
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// Message returns the text an admin should see for err: the backend-provided
// message for remote failures, the error text otherwise.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if re, ok := AsError(err); ok {
		if re.Message != "" {
			return re.Message
		}
		if re.Err != nil {
			return re.Err.Error()
		}
	}
	return err.Error()
}

// errorBody covers both the PostgREST and the identity service error shapes.
type errorBody struct {
	Message          string          `json:"message"`
	Code             json.RawMessage `json:"code"`
	ErrorCode        string          `json:"error_code"`
	Details          string          `json:"details"`
	Hint             string          `json:"hint"`
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
	Msg              string          `json:"msg"`
}

func decodeError(status int, data []byte) *Error {
	re := &Error{Status: status}
	var body errorBody
	if len(data) > 0 && json.Unmarshal(data, &body) == nil {
		re.Code = strings.Trim(string(body.Code), `"`)
		if re.Code == "" {
			re.Code = body.ErrorCode
		}
		re.Details = body.Details
		re.Hint = body.Hint
		switch {
		case body.Message != "":
			re.Message = body.Message
		case body.ErrorDescription != "":
			re.Message = body.ErrorDescription
		case body.Msg != "":
			re.Message = body.Msg
		case body.Error != "":
			re.Message = body.Error
		}
	}
	if re.Message == "" {
		re.Message = http.StatusText(status)
	}
	return re
}
