// Package videoid extracts YouTube video identifiers from URLs.
package videoid

import (
	"errors"
	"net/url"
	"strings"

	"ytscribe/models"
)

// ErrNotFound is returned when a URL does not carry a recognizable video id.
var ErrNotFound = errors.New("no YouTube video id in url")

const (
	hostShort = "youtu.be"
	watchPath = "/watch"
)

var watchHosts = map[string]bool{
	"www.youtube.com": true,
	"youtube.com":     true,
}

// Extract returns the video id carried by rawURL.
//
// Two forms are recognized:
//
//	https://www.youtube.com/watch?v=<id>   (also youtube.com)
//	https://youtu.be/<id>
//
// Anything else yields ErrNotFound. Extract never touches the network.
func Extract(rawURL string) (models.VideoID, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", ErrNotFound
	}

	host := strings.ToLower(u.Hostname())
	switch {
	case host == hostShort:
		id := strings.TrimPrefix(u.Path, "/")
		if id == "" {
			return "", ErrNotFound
		}
		return toID(id)
	case watchHosts[host] && u.Path == watchPath:
		id := u.Query().Get("v")
		if id == "" {
			return "", ErrNotFound
		}
		return toID(id)
	}

	return "", ErrNotFound
}

func toID(raw string) (models.VideoID, error) {
	id, err := models.NewVideoID(raw)
	if err != nil {
		return "", ErrNotFound
	}
	return id, nil
}

// WatchURL returns the canonical watch page URL for id.
func WatchURL(id models.VideoID) string {
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(string(id))
}
