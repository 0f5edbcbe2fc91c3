package scriptgen

import (
	"fmt"
	"strings"
)

// systemPrompt instructs the model to return the episode plan as strict JSON.
const systemPrompt = `You are a podcast script writer producing a conversational episode for two hosts.

Respond with JSON only, matching this schema exactly:
{
  "title": "episode title",
  "description": "one-paragraph episode description",
  "sections": [
    {"kind": "dialogue", "text": "PRIMARY: line\nSECONDARY: line\n..."},
    {"kind": "monologue", "text": "plain narration without speaker tags"}
  ]
}

Rules:
- In dialogue sections, every spoken turn starts on its own line with the
  speaker tag followed by a colon. Use only the two tags you are given.
- Alternate naturally between the hosts; keep turns short and conversational.
- Monologue sections contain no speaker tags.
- Do not include markdown, code fences, or commentary outside the JSON.`

// Request carries everything needed to draft one episode script.
type Request struct {
	Material      string
	Topic         string
	PrimaryHost   string
	SecondaryHost string
	SegmentCount  int
}

func buildUserPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Speaker tags: %s (primary) and %s (secondary).\n", req.PrimaryHost, req.SecondaryHost)
	segments := req.SegmentCount
	if segments <= 0 {
		segments = 3
	}
	fmt.Fprintf(&b, "Produce an intro dialogue, %d content segments, and an outro dialogue.\n", segments)
	if topic := strings.TrimSpace(req.Topic); topic != "" {
		fmt.Fprintf(&b, "Episode topic: %s\n", topic)
	}
	b.WriteString("\nSource material:\n")
	b.WriteString(strings.TrimSpace(req.Material))
	return b.String()
}
