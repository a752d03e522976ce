// Package models provides the core data structures shared by the ytscribe
// pipeline stages.
package models

import (
	"fmt"
	"strings"
)

// videoIDAlphabet is the URL-safe base64 alphabet YouTube ids are drawn from.
const videoIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

// VideoID is the opaque identifier YouTube assigns to a video.
type VideoID string

// NewVideoID validates raw and returns it as a VideoID.
//
// Returns an error if raw is empty or has a character outside
// [A-Za-z0-9_-]. The id ends up in file names and query strings, so path
// separators, dots and query syntax are never accepted.
func NewVideoID(raw string) (VideoID, error) {
	if raw == "" {
		return "", fmt.Errorf("video id cannot be empty")
	}
	for _, r := range raw {
		if !strings.ContainsRune(videoIDAlphabet, r) {
			return "", fmt.Errorf("video id has invalid character %q: %q", r, raw)
		}
	}
	return VideoID(raw), nil
}

// String implements fmt.Stringer.
func (v VideoID) String() string {
	return string(v)
}
