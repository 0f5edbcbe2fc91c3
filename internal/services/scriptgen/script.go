package scriptgen

import "strings"

// SectionKind distinguishes how a section's text is rendered to audio.
type SectionKind string

const (
	// KindDialogue text carries speaker tags and is split into turns.
	KindDialogue SectionKind = "dialogue"
	// KindMonologue text is read by the primary host as a single block.
	KindMonologue SectionKind = "monologue"
)

// Section is one editorial unit of a generated script.
type Section struct {
	Kind SectionKind `json:"kind"`
	Text string      `json:"text"`
}

// Script is the model's episode plan: metadata plus ordered sections.
type Script struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Sections    []Section `json:"sections"`
}

// Normalize trims whitespace, defaults unknown section kinds to dialogue, and
// drops empty sections.
func (s *Script) Normalize() {
	s.Title = strings.TrimSpace(s.Title)
	s.Description = strings.TrimSpace(s.Description)
	kept := s.Sections[:0]
	for _, section := range s.Sections {
		section.Text = strings.TrimSpace(section.Text)
		if section.Text == "" {
			continue
		}
		switch section.Kind {
		case KindDialogue, KindMonologue:
		default:
			section.Kind = KindDialogue
		}
		kept = append(kept, section)
	}
	s.Sections = kept
}

// Empty reports whether the script has no usable sections.
func (s *Script) Empty() bool {
	return len(s.Sections) == 0
}
