// Package notify carries user-facing status messages from list views, forms
// and the session gate to whatever displays them.
package notify

import (
	"context"
	"errors"
	"net/http"

	"github.com/jlvsolutions/WorldCities-sub000/sdk/client"
)

// Type selects how a message is displayed.
type Type string

const (
	None    Type = "none"
	Info    Type = "info"
	Error   Type = "error"
	Spinner Type = "spinner"
)

// Message is one status update.
type Message struct {
	Type Type   `json:"type"`
	Text string `json:"text"`
}

// Texts shown for failures that carry no server payload.
const (
	TransportText      = "Sorry, there was a problem on our end. Please try again later."
	SessionExpiredText = "Your session has expired. Please log in again."
)

// Reporter displays messages. Implementations must be safe for concurrent use.
type Reporter interface {
	Report(ctx context.Context, m Message)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, m Message)

func (f ReporterFunc) Report(ctx context.Context, m Message) { f(ctx, m) }

// Nop discards every message.
var Nop Reporter = ReporterFunc(func(context.Context, Message) {})

// FromError maps a failed call onto the message shown to the user. Server
// error text is kept verbatim, 401 included; a 401 without text reads as an
// expired session. Transport failures get a generic text.
// Cancelled calls yield a None message.
func FromError(err error) Message {
	switch {
	case err == nil:
		return Message{Type: None}
	case errors.Is(err, context.Canceled):
		return Message{Type: None}
	case client.IsTransport(err):
		return Message{Type: Error, Text: TransportText}
	}
	var ae *client.APIError
	if errors.As(err, &ae) {
		switch {
		case ae.Message != "":
			return Message{Type: Error, Text: ae.Message}
		case ae.Status == http.StatusUnauthorized:
			return Message{Type: Error, Text: SessionExpiredText}
		}
		return Message{Type: Error, Text: http.StatusText(ae.Status)}
	}
	return Message{Type: Error, Text: err.Error()}
}

// Multi fans a message out to every reporter in order.
type Multi []Reporter

func (m Multi) Report(ctx context.Context, msg Message) {
	for _, r := range m {
		if r != nil {
			r.Report(ctx, msg)
		}
	}
}
