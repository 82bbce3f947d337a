package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
)

// TransportError means the request never produced an HTTP response.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "transport: " + e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }

// APIError is a non-2xx response. Message is the server's error text as
// sent, suitable for showing to the user unchanged. It is empty when the
// response carried no text.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error %d: %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsUnauthorized reports a 401 or 403.
func (e *APIError) IsUnauthorized() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// IsUnauthorized reports whether err carries a 401 or 403 response.
func IsUnauthorized(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.IsUnauthorized()
}

// IsNotFound reports whether err carries a 404 response.
func IsNotFound(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == http.StatusNotFound
}

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// errorBody covers the problem+json documents the API sends as well as the
// {success,message} envelopes of the auth endpoints.
type errorBody struct {
	Title   string `json:"title"`
	Detail  string `json:"detail"`
	Message string `json:"message"`
	Errors  []struct {
		Message  string `json:"message"`
		Location string `json:"location"`
	} `json:"errors"`
}

func newAPIError(resp *resty.Response) error {
	e := &APIError{Status: resp.StatusCode()}
	raw := strings.TrimSpace(string(resp.Body()))
	var body errorBody
	if raw != "" && json.Unmarshal([]byte(raw), &body) == nil {
		switch {
		case body.Detail != "":
			e.Message = body.Detail
		case body.Message != "":
			e.Message = body.Message
		case body.Title != "":
			e.Message = body.Title
		}
		if len(body.Errors) > 0 && body.Errors[0].Message != "" && e.Message != body.Errors[0].Message {
			e.Message = strings.TrimSpace(e.Message + ": " + body.Errors[0].Message)
		}
	} else if raw != "" {
		e.Message = raw
	}
	return e
}
