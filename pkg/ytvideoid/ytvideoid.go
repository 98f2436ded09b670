// Package ytvideoid extracts a YouTube video id from the forms users paste:
// watch urls, short urls, embed urls, or a bare 11-character id.
package ytvideoid

import (
	"errors"
	"regexp"
)

var ErrInvalidVideoId = errors.New("invalid video id")

var patterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/)([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`^([a-zA-Z0-9_-]{11})$`),
}

func Extract(raw string) (string, error) {
	for _, pattern := range patterns {
		if match := pattern.FindStringSubmatch(raw); match != nil {
			return match[1], nil
		}
	}

	return "", ErrInvalidVideoId
}
