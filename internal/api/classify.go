package api

import (
	"net/http"
	"strings"
)

// DefaultInvalidationMessage is the reason reported when an invalidating
// failure carried no message of its own.
const DefaultInvalidationMessage = "Your session is no longer valid. Please sign in again."

// ForbiddenKeywords turn a 403 into an invalidating failure.
var ForbiddenKeywords = []string{"token", "credentials", "authorization"}

// ExpiredTokenKeywords invalidate the session regardless of status code.
var ExpiredTokenKeywords = []string{"invalid token", "token has expired", "token is expired"}

// Classify reports whether a failure means the current credential no longer
// works. Bootstrap calls never invalidate. Otherwise a 401 always does, a 403
// does when the text mentions a ForbiddenKeyword, and any status does when the
// text mentions an ExpiredTokenKeyword. The text searched is serverMessage
// followed by transportText, lower-cased.
func Classify(status int, serverMessage, transportText string, bootstrap bool) bool {
	if bootstrap {
		return false
	}
	text := strings.ToLower(serverMessage + " " + transportText)

	switch {
	case status == http.StatusUnauthorized:
		return true
	case status == http.StatusForbidden && containsAny(text, ForbiddenKeywords):
		return true
	default:
		return containsAny(text, ExpiredTokenKeywords)
	}
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
