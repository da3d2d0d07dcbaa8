package llm

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Message represents a single conversation turn.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Client defines the interface for reply-generation providers.
//
// GenerateReply never fails: implementations degrade to EchoReply when the
// upstream model is unavailable or returns garbage, so a flush always has
// a reply to speak.
type Client interface {
	GenerateReply(ctx context.Context, transcript string, history []Message) string
}

// EchoReply is the degraded response used when no model is reachable.
func EchoReply(transcript string) string {
	return fmt.Sprintf("Echoing your words: %s", transcript)
}

var (
	starSpansRe    = regexp.MustCompile(`\*[^*]*\*`)
	bracketSpansRe = regexp.MustCompile(`\[[^\]]*\]`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
)

// sanitizeReply strips stage directions and markup that a chat model tends
// to emit but that would be read aloud verbatim by the synthesizer:
// *emphasis* spans, [bracketed] directions, and surrounding quotes.
func sanitizeReply(reply string) string {
	reply = starSpansRe.ReplaceAllString(reply, "")
	reply = bracketSpansRe.ReplaceAllString(reply, "")
	reply = strings.ReplaceAll(reply, `"`, "")
	reply = whitespaceRe.ReplaceAllString(reply, " ")
	return strings.TrimSpace(reply)
}
