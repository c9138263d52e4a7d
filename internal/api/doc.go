// Package api holds the HTTP handlers for video submission, status polling
// and provider webhooks, plus the central mapping from internal errors to
// status codes and client-safe messages.
package api
