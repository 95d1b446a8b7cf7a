package model

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
)

// ValidationError reports data that can't be mapped or stored as-is.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ExternalServiceError wraps a failed Discord call.
type ExternalServiceError struct {
	Op      string // list, create, update
	EventID string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	if e.EventID == "" {
		return fmt.Sprintf("discord %s: %s", e.Op, e.Err)
	}
	return fmt.Sprintf("discord %s %s: %s", e.Op, e.EventID, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// StatusCode is the HTTP status of the failed call, 0 for transport errors.
func (e *ExternalServiceError) StatusCode() int {
	var restErr *discordgo.RESTError
	if errors.As(e.Err, &restErr) && restErr.Response != nil {
		return restErr.Response.StatusCode
	}
	return 0
}

func (e *ExternalServiceError) IsAuth() bool {
	code := e.StatusCode()
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}

// LocalStoreError is fatal to a sync run.
type LocalStoreError struct {
	Op  string // load, flush
	Err error
}

func (e *LocalStoreError) Error() string {
	return fmt.Sprintf("local store %s: %s", e.Op, e.Err)
}

func (e *LocalStoreError) Unwrap() error {
	return e.Err
}
