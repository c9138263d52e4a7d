// Package veo implements generation.Provider on Google's Veo video models
// through the google.golang.org/genai SDK. A submission becomes a long-running
// generate-videos operation whose name serves as the task id.
package veo
