package generation

import "errors"

// Common errors returned by the generation package
var (
	// ErrUnknownStatus is returned when a provider reports a status string
	// outside its documented vocabulary.
	ErrUnknownStatus = errors.New("unknown provider status")

	// ErrInvalidResponse is returned when a provider response cannot be parsed or is malformed
	ErrInvalidResponse = errors.New("invalid response from video provider")

	// ErrInvalidConfig is returned when the provider configuration is invalid
	ErrInvalidConfig = errors.New("invalid provider configuration")

	// ErrInvalidPrompt is returned when a prompt cannot be built for the given parameters
	ErrInvalidPrompt = errors.New("invalid prompt parameters")
)
