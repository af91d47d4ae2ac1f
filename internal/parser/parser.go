// Package parser normalizes free-form user input into a canonical YouTube
// video identifier. Parsing is pure and instant so callers can re-run it on
// every keystroke to gate submission.
package parser

import (
	"net/url"
	"strings"
)

// VideoReference is a validated, immutable canonical video identifier.
type VideoReference struct {
	id string
}

// ID returns the canonical video identifier.
func (v VideoReference) ID() string {
	return v.id
}

// URL returns the canonical watch URL for the reference.
func (v VideoReference) URL() string {
	return "https://www.youtube.com/watch?v=" + v.id
}

// ParseError describes why an input was rejected. It is a user-facing
// validation message, never a fatal condition.
type ParseError struct {
	Input   string
	Message string
}

func (e *ParseError) Error() string {
	return e.Message
}

// acceptedHosts are the video-sharing domains a canonical-form URL may use.
var acceptedHosts = map[string]bool{
	"youtube.com":     true,
	"www.youtube.com": true,
	"m.youtube.com":   true,
}

const shortLinkHost = "youtu.be"

// Parse extracts the canonical video identifier from a user-supplied URL.
//
// Accepted shapes:
//   - short links: youtu.be/<id> (trailing query ignored)
//   - canonical: youtube.com/watch?v=<id> on the standard or mobile hosts
//   - embed and shorts paths: youtube.com/embed/<id>, youtube.com/shorts/<id>
//
// A missing scheme is assumed to be https. Anything else is rejected with a
// *ParseError.
func Parse(input string) (VideoReference, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return VideoReference{}, &ParseError{Input: input, Message: "please enter a YouTube URL"}
	}

	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" {
		return VideoReference{}, &ParseError{Input: input, Message: "that doesn't look like a valid URL"}
	}

	host := strings.ToLower(parsed.Hostname())

	if host == shortLinkHost {
		id := strings.Trim(parsed.Path, "/")
		if !validVideoID(id) {
			return VideoReference{}, &ParseError{Input: input, Message: "the short link doesn't contain a valid video id"}
		}
		return VideoReference{id: id}, nil
	}

	if !acceptedHosts[host] {
		return VideoReference{}, &ParseError{Input: input, Message: "only youtube.com and youtu.be links are supported"}
	}

	if parsed.Path == "/watch" {
		id := parsed.Query().Get("v")
		if !validVideoID(id) {
			return VideoReference{}, &ParseError{Input: input, Message: "the watch URL doesn't contain a valid video id"}
		}
		return VideoReference{id: id}, nil
	}

	for _, prefix := range []string{"/embed/", "/shorts/"} {
		if strings.HasPrefix(parsed.Path, prefix) {
			id := strings.TrimPrefix(parsed.Path, prefix)
			if i := strings.IndexByte(id, '/'); i >= 0 {
				id = id[:i]
			}
			if !validVideoID(id) {
				return VideoReference{}, &ParseError{Input: input, Message: "the link doesn't contain a valid video id"}
			}
			return VideoReference{id: id}, nil
		}
	}

	return VideoReference{}, &ParseError{Input: input, Message: "couldn't find a video id in that URL"}
}

// validVideoID reports whether id matches the canonical identifier grammar:
// a non-empty run of [A-Za-z0-9_-]. Standard identifiers are 11 characters,
// but shorter test identifiers are accepted as long as the charset holds.
func validVideoID(id string) bool {
	if id == "" || len(id) > 20 {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_':
		default:
			return false
		}
	}
	return true
}
