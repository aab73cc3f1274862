package api

import (
	"bytes"
	"encoding/json"
	"strings"
)

// MessageExtractor pulls a human-readable message out of a response body. It
// returns "" when the body does not carry one and never fails.
type MessageExtractor func(body []byte) string

// MessageExtractors are tried in order by ServerMessage; the first non-empty
// result wins.
var MessageExtractors = []MessageExtractor{
	bareStringMessage,
	fieldMessage("detail"),
	fieldMessage("message"),
	fieldMessage("error"),
}

// ServerMessage returns the message the backend put in body, or "".
func ServerMessage(body []byte) string {
	for _, extract := range MessageExtractors {
		if msg := strings.TrimSpace(extract(body)); msg != "" {
			return msg
		}
	}
	return ""
}

// Message returns the best human-readable description of err: the server
// message when the response carried one, else the transport text.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if msg := ServerMessage(responseBody(err)); msg != "" {
		return msg
	}
	return strings.TrimSpace(TransportText(err))
}

// bareStringMessage handles bodies that are plain text or a JSON string.
func bareStringMessage(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}
	switch trimmed[0] {
	case '{', '[':
		if json.Valid(trimmed) {
			return ""
		}
		return string(trimmed)
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
		return string(trimmed)
	}
	if json.Valid(trimmed) {
		// numbers, booleans and null are not messages
		return ""
	}
	return string(trimmed)
}

func fieldMessage(name string) MessageExtractor {
	return func(body []byte) string {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(bytes.TrimSpace(body), &obj); err != nil {
			return ""
		}
		raw, ok := obj[name]
		if !ok {
			return ""
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
		var list []string
		if err := json.Unmarshal(raw, &list); err == nil {
			return strings.Join(list, "; ")
		}
		return ""
	}
}
