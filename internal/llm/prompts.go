package llm

import (
	"fmt"
	"os"
	"strings"
)

// DefaultSystemPrompt is used when no prompt file is configured.
const DefaultSystemPrompt = `You are a voice assistant speaking with a user over a low-latency audio channel.

RULES:
- Keep replies short: 1-2 sentences. The reply is spoken aloud, so long answers feel like a lecture.
- Answer plainly. No markdown, no emphasis markers, no stage directions.
- Ask at most one question per turn.
- If the transcript is unclear, ask the user to repeat rather than guessing.`

// LoadSystemPrompt reads a system prompt from path, falling back to the
// default when path is empty. A configured path that cannot be read is an
// error rather than a silent fallback.
func LoadSystemPrompt(path string) (string, error) {
	if path == "" {
		return DefaultSystemPrompt, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read system prompt %s: %w", path, err)
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", fmt.Errorf("system prompt file %s is empty", path)
	}
	return prompt, nil
}
