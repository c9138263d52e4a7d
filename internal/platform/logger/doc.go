// Package logger builds the service's slog JSON logger from server config
// and carries a request-scoped logger through context.Context.
package logger
