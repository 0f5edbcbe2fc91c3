package script_test

import (
	"testing"

	"podforge/internal/script"
)

var hostTags = script.Tags{Primary: "ALEX", Secondary: "JORDAN"}

func TestSegmentInterleavesTurnsWithContiguousOrdinals(t *testing.T) {
	text := `ALEX: Welcome back to the show.
JORDAN: Glad to be here.
ALEX: Let's dig in.
JORDAN: Absolutely.`

	utterances := script.Segment(text, hostTags)
	if len(utterances) != 4 {
		t.Fatalf("expected 4 utterances, got %d", len(utterances))
	}
	wantSpeakers := []script.Speaker{
		script.SpeakerPrimary, script.SpeakerSecondary,
		script.SpeakerPrimary, script.SpeakerSecondary,
	}
	for i, u := range utterances {
		if u.Ordinal != i {
			t.Fatalf("utterance %d has ordinal %d", i, u.Ordinal)
		}
		if u.Speaker != wantSpeakers[i] {
			t.Fatalf("utterance %d has speaker %q", i, u.Speaker)
		}
	}
	if utterances[0].Text != "Welcome back to the show." {
		t.Fatalf("unexpected text: %q", utterances[0].Text)
	}
}

func TestSegmentJoinsContinuationLines(t *testing.T) {
	text := `ALEX: This thought runs
over several
lines.

JORDAN: Short reply.`

	utterances := script.Segment(text, hostTags)
	if len(utterances) != 2 {
		t.Fatalf("expected 2 utterances, got %d", len(utterances))
	}
	if utterances[0].Text != "This thought runs over several lines." {
		t.Fatalf("unexpected joined text: %q", utterances[0].Text)
	}
}

func TestSegmentStripsDecoration(t *testing.T) {
	plain := script.Segment("HOST1: hello\nHOST2: hi", hostTags)
	decorated := script.Segment("**HOST1:** hello\n**HOST2:** hi", hostTags)

	if len(plain) != 2 || len(decorated) != 2 {
		t.Fatalf("expected 2 utterances each, got %d and %d", len(plain), len(decorated))
	}
	for i := range plain {
		if plain[i] != decorated[i] {
			t.Fatalf("decorated output diverges at %d: %+v vs %+v", i, plain[i], decorated[i])
		}
	}
}

func TestSegmentAcceptsAngleSeparator(t *testing.T) {
	utterances := script.Segment("ALEX> Hello there.", hostTags)
	if len(utterances) != 1 {
		t.Fatalf("expected 1 utterance, got %d", len(utterances))
	}
	if utterances[0].Speaker != script.SpeakerPrimary || utterances[0].Text != "Hello there." {
		t.Fatalf("unexpected utterance: %+v", utterances[0])
	}
}

func TestSegmentRecognizesFallbackTokens(t *testing.T) {
	utterances := script.Segment("HOST2: Fallback speaker.", hostTags)
	if len(utterances) != 1 {
		t.Fatalf("expected 1 utterance, got %d", len(utterances))
	}
	if utterances[0].Speaker != script.SpeakerSecondary {
		t.Fatalf("unexpected speaker: %q", utterances[0].Speaker)
	}
}

func TestSegmentDropsTextBeforeFirstTag(t *testing.T) {
	text := `Here is a stage direction nobody should speak.
ALEX: Actual dialogue.`

	utterances := script.Segment(text, hostTags)
	if len(utterances) != 1 {
		t.Fatalf("expected 1 utterance, got %d", len(utterances))
	}
	if utterances[0].Text != "Actual dialogue." {
		t.Fatalf("unexpected text: %q", utterances[0].Text)
	}
}

func TestSegmentZeroTagsYieldsNoUtterances(t *testing.T) {
	utterances := script.Segment("Just prose.\nNo speakers anywhere.", hostTags)
	if len(utterances) != 0 {
		t.Fatalf("expected no utterances, got %d", len(utterances))
	}
}

func TestSegmentTagMatchingIsCaseExact(t *testing.T) {
	utterances := script.Segment("alex: lowercase tag is prose.", hostTags)
	if len(utterances) != 0 {
		t.Fatalf("expected no utterances for lowercase tag, got %d", len(utterances))
	}
}

func TestSegmentConsecutiveTagsForSameSpeaker(t *testing.T) {
	text := `ALEX: First turn.
ALEX: Second turn.`

	utterances := script.Segment(text, hostTags)
	if len(utterances) != 2 {
		t.Fatalf("expected 2 utterances, got %d", len(utterances))
	}
	if utterances[0].Text != "First turn." || utterances[1].Text != "Second turn." {
		t.Fatalf("unexpected utterances: %+v", utterances)
	}
	if utterances[0].Ordinal != 0 || utterances[1].Ordinal != 1 {
		t.Fatalf("expected contiguous ordinals, got %+v", utterances)
	}
}
