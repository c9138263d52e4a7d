// Package generation defines the boundary between the application core and
// external AI video-generation providers. The Provider interface hides the
// provider's API, while Normalize translates its status vocabulary into the
// closed domain.TaskStatus set so raw provider strings never reach the rest
// of the application.
//
// The package also owns prompt construction for each video style and the
// verification of signed webhook notifications.
package generation
