package backend

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
)

const messageBase = "/api/Message/"

// ErrMessageUnavailable is the user-facing failure of the message service.
var ErrMessageUnavailable = errors.New("Something bad happened; please try again later.") //nolint:staticcheck // shown to users verbatim

// MessageError wraps a message service failure. Its text is the generic
// user-facing message; the cause is kept for errors.Is/As and logging.
type MessageError struct {
	Op    string
	Cause error
}

func (e *MessageError) Error() string { return ErrMessageUnavailable.Error() }

// Unwrap returns both the sentinel and the cause.
func (e *MessageError) Unwrap() []error { return []error{ErrMessageUnavailable, e.Cause} }

// MessageService reads message templates and the current user name.
type MessageService struct {
	c *Client
}

// NewMessageService returns the facade over c.
func NewMessageService(c *Client) *MessageService { return &MessageService{c: c} }

type messageText struct {
	MessageText string `json:"MessageText"`
}

// GetMessage returns the template of msgID. ok is false when the catalogue
// has no such message.
func (s *MessageService) GetMessage(ctx context.Context, msgID int) (text string, ok bool, err error) {
	var rows []messageText
	q := url.Values{"msgID": {strconv.Itoa(msgID)}}
	if err := s.c.get(ctx, "GetMessage", messageBase+"GetMessage", q, &rows); err != nil {
		return "", false, &MessageError{Op: "GetMessage", Cause: err}
	}
	if len(rows) == 0 {
		return "", false, nil
	}
	return strings.TrimSpace(rows[0].MessageText), true, nil
}

// GetUserName returns the logged in user's name.
func (s *MessageService) GetUserName(ctx context.Context) (string, error) {
	var name string
	if err := s.c.get(ctx, "GetUserName", messageBase+"GetUserName", nil, &name); err != nil {
		return "", &MessageError{Op: "GetUserName", Cause: err}
	}
	return strings.TrimSpace(name), nil
}
