package jobs

// Milestone names a pipeline checkpoint. Progress percentages come from a
// fixed table rather than wall-clock simulation, so the mapping is
// deterministic and testable.
type Milestone string

const (
	MilestoneQueued      Milestone = "queued"
	MilestoneScript      Milestone = "script"
	MilestoneSegmenting  Milestone = "segmenting"
	MilestoneSynthesis   Milestone = "synthesis"
	MilestoneAssembly    Milestone = "assembly"
	MilestoneMixing      Milestone = "mixing"
	MilestoneExport      Milestone = "export"
	MilestonePublishing  Milestone = "publishing"
	MilestoneDone        Milestone = "done"
)

// Synthesis occupies the widest progress band; per-utterance updates
// interpolate inside it.
const (
	synthesisStart = 30
	synthesisEnd   = 70
)

type milestoneInfo struct {
	percent int
	message string
}

var milestones = map[Milestone]milestoneInfo{
	MilestoneQueued:     {0, "Waiting to start"},
	MilestoneScript:     {10, "Generating script"},
	MilestoneSegmenting: {25, "Splitting dialogue"},
	MilestoneSynthesis:  {synthesisStart, "Synthesizing speech"},
	MilestoneAssembly:   {synthesisEnd, "Assembling audio"},
	MilestoneMixing:     {80, "Mixing background bed"},
	MilestoneExport:     {90, "Exporting episode"},
	MilestonePublishing: {95, "Updating feed"},
	MilestoneDone:       {100, "Episode ready"},
}

// ProgressFor maps a milestone to its percentage and status message. Unknown
// milestones map to zero so a bad caller can never move progress backwards.
func ProgressFor(m Milestone) (int, string) {
	info, ok := milestones[m]
	if !ok {
		return 0, ""
	}
	return info.percent, info.message
}

// SynthesisProgress interpolates within the synthesis band for done of total
// utterances rendered.
func SynthesisProgress(done, total int) int {
	if total <= 0 {
		return synthesisStart
	}
	if done < 0 {
		done = 0
	}
	if done > total {
		done = total
	}
	return synthesisStart + (synthesisEnd-synthesisStart)*done/total
}
