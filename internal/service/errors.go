package service

import "errors"

// Sentinel errors returned by the service layer. Handlers map these to HTTP
// status codes; anything else is treated as an internal failure.
var (
	ErrAgentNotFound = errors.New("agent not found")
	ErrTaskNotFound  = errors.New("task not found")
)
