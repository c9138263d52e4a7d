// Package store defines the errors and transaction helpers shared by the
// persistence implementations of generation tasks.
package store
