// Package domain contains the video generation task entity, its lifecycle
// states, submission validation, and the error taxonomy shared by every layer.
// It performs no I/O.
package domain
