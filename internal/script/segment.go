// Package script turns raw two-host dialogue text into ordered utterances.
//
// Scripts mark speaker turns with a tag at the start of a line, either
// "TAG:" or "TAG>". Tags may arrive wrapped in markdown decoration such as
// "**HOST1:**"; the decoration is stripped before matching. The configured
// display names and the fixed HOST1/HOST2 tokens are both recognized.
package script

import "strings"

// Speaker identifies which of the two hosts owns an utterance.
type Speaker string

const (
	SpeakerPrimary   Speaker = "primary"
	SpeakerSecondary Speaker = "secondary"
)

// Fallback tag tokens recognized regardless of the configured host names.
const (
	FallbackPrimaryTag   = "HOST1"
	FallbackSecondaryTag = "HOST2"
)

// Utterance is one host's contiguous turn. Ordinal records the turn's
// position in the original script so per-speaker batches can be re-interleaved
// later.
type Utterance struct {
	Speaker Speaker
	Text    string
	Ordinal int
}

// Tags carries the configured display names for the two hosts.
type Tags struct {
	Primary   string
	Secondary string
}

// Segment splits scriptText into utterances in script order. Ordinals are
// contiguous from zero. Text before the first recognized tag has no speaker
// and is dropped. A script with no recognized tags yields no utterances.
func Segment(scriptText string, tags Tags) []Utterance {
	var (
		utterances []Utterance
		current    Speaker
		buffer     []string
		open       bool
	)

	flush := func() {
		if !open {
			return
		}
		text := strings.Join(buffer, " ")
		if text != "" {
			utterances = append(utterances, Utterance{
				Speaker: current,
				Text:    text,
				Ordinal: len(utterances),
			})
		}
		buffer = buffer[:0]
	}

	for _, line := range strings.Split(scriptText, "\n") {
		speaker, rest, ok := matchTag(line, tags)
		if ok {
			flush()
			current = speaker
			open = true
			buffer = buffer[:0]
			if rest != "" {
				buffer = append(buffer, rest)
			}
			continue
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || !open {
			continue
		}
		buffer = append(buffer, trimmed)
	}
	flush()

	return utterances
}

// matchTag reports whether the line opens a new turn, and returns the owner
// plus any dialogue following the separator on the same line.
func matchTag(line string, tags Tags) (Speaker, string, bool) {
	stripped := strings.TrimLeft(strings.TrimSpace(line), "*< \t")

	candidates := []struct {
		tag     string
		speaker Speaker
	}{
		{tags.Primary, SpeakerPrimary},
		{FallbackPrimaryTag, SpeakerPrimary},
		{tags.Secondary, SpeakerSecondary},
		{FallbackSecondaryTag, SpeakerSecondary},
	}
	for _, candidate := range candidates {
		if candidate.tag == "" {
			continue
		}
		rest, ok := strings.CutPrefix(stripped, candidate.tag)
		if !ok || rest == "" {
			continue
		}
		if rest[0] != ':' && rest[0] != '>' {
			continue
		}
		rest = strings.TrimLeft(rest[1:], "* \t")
		return candidate.speaker, strings.TrimSpace(rest), true
	}
	return "", "", false
}
