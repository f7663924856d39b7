package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is wrapped by every client-side rejection (HTTP 400)
	ErrInvalidInput = errors.New("invalid input")

	ErrSpamDetected   = fmt.Errorf("%w: honeypot field is filled", ErrInvalidInput)
	ErrMissingFields  = fmt.Errorf("%w: name, phone and message are required", ErrInvalidInput)
	ErrInvalidName    = fmt.Errorf("%w: name length out of range", ErrInvalidInput)
	ErrInvalidPhone   = fmt.Errorf("%w: phone does not match the required format", ErrInvalidInput)
	ErrInvalidMessage = fmt.Errorf("%w: message length out of range", ErrInvalidInput)

	ErrRateLimited    = errors.New("rate limit exceeded")
	ErrNotConfigured  = errors.New("lead delivery is not configured")
	ErrDeliveryFailed = errors.New("lead delivery failed")
)
