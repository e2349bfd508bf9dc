package client

import (
	"context"
	"errors"
	"strings"
)

// Envelope is the uniform result of an entity call. Transport, HTTP and
// decode failures all surface as Success=false with a message.
type Envelope[T any] struct {
	Success    bool
	Data       T
	Message    string
	StatusCode int
}

// Err returns nil for a successful envelope.
func (e Envelope[T]) Err() error {
	if e.Success {
		return nil
	}
	if e.StatusCode > 0 {
		return &APIError{StatusCode: e.StatusCode, Message: e.message()}
	}
	return errors.New(e.message())
}

func (e Envelope[T]) message() string {
	if msg := strings.TrimSpace(e.Message); msg != "" {
		return msg
	}
	return "request failed"
}

func ok[T any](data T, status int) Envelope[T] {
	return Envelope[T]{Success: true, Data: data, StatusCode: status}
}

func fail[T any](err error) Envelope[T] {
	env := Envelope[T]{Message: errorText(err)}
	if apiErr := asAPIError(err); apiErr != nil {
		env.StatusCode = apiErr.StatusCode
		env.Message = apiErr.Message
	}
	return env
}

func errorText(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return "request canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	}
	return err.Error()
}
