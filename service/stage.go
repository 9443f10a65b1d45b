package service

// Stage is one step of the fixed project-processing sequence. The order of
// the constants is the execution order.
type Stage int

const (
	StageTextScrapped Stage = iota
	StageTextTranslated
	StageSpeechGenerated
	StageSubtitlesCreated
	StageThumbnailCreated
	StageMasterComposition
)

// StageCancelled is a side-channel terminal value stored in the same column
// as the stage name; it is not part of the forward sequence.
const StageCancelled = "Cancelled"

var stageNames = [...]string{
	"Text Scrapped",
	"Text Translated",
	"Speech Generated",
	"Subtitles Created",
	"Thumbnail Created",
	"Master Composition",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "Unknown"
	}
	return stageNames[s]
}

func ParseStage(name string) (Stage, bool) {
	for i, n := range stageNames {
		if n == name {
			return Stage(i), true
		}
	}
	return 0, false
}

// Next returns the stage that follows s. The second return is false when s is
// the terminal stage.
func (s Stage) Next() (Stage, bool) {
	if int(s) >= len(stageNames)-1 {
		return s, false
	}
	return s + 1, true
}

// NextStageName implements the advance lookup over the raw column value: an
// unknown or terminal stage yields ok=false, which callers report as
// "completed" rather than as an error.
func NextStageName(current string) (string, bool) {
	s, known := ParseStage(current)
	if !known {
		return "", false
	}
	next, ok := s.Next()
	if !ok {
		return "", false
	}
	return next.String(), true
}

func StageNames() []string {
	out := make([]string, len(stageNames))
	copy(out, stageNames[:])
	return out
}
