// Package runway implements generation.Provider against the Runway
// image-to-video REST API.
package runway
