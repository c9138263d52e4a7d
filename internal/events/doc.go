// Package events announces finished generation tasks.
//
// The video service emits a TaskEvent when a merge moves a task into a
// terminal state. Handlers registered with an InMemoryEventEmitter receive
// it synchronously; LoggingHandler is the one the server installs.
package events
