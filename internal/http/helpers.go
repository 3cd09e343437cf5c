package http

import (
	"strings"
)

// sanitizeInput removes control characters except tab, newline and
// carriage return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// withID sets the path id on a save request so that POST /{entity}/{id}
// and a body id behave the same.
func withID(bodyID, pathID string) string {
	if pathID != "" {
		return pathID
	}
	return strings.TrimSpace(bodyID)
}
