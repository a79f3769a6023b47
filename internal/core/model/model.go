package model

// Entry is one journaling submission: the raw thought, the structured mirror
// response the user received, and their mood word. Entries are read-only
// input to the pipeline. CreatedAt stays an ISO 8601 string because period
// membership is decided by date-prefix comparison, never time of day.
type Entry struct {
	RawText        string `json:"raw_text"`
	MirrorResponse string `json:"mirror_response"`
	MoodWord       string `json:"mood_word"`
	CreatedAt      string `json:"created_at"`
}

// Situation is one discrete event extracted from entries: what happened, how
// it felt, what they did, and any self-doubt about the reaction. Ephemeral;
// never persisted.
type Situation struct {
	Situation    string `json:"situation"`
	Emotion      string `json:"emotion"`
	Behavior     string `json:"behavior"`
	SelfJudgment string `json:"self_judgment"`
}

// Depth is the quality tier of a generated letter.
type Depth string

const (
	// DepthDeep means the full three-stage analysis succeeded.
	DepthDeep Depth = "deep"
	// DepthShallow means a stage underperformed and the single-shot
	// summary path produced the letter instead.
	DepthShallow Depth = "shallow"
	// DepthInsufficient means there was too little data to analyze at all.
	DepthInsufficient Depth = "insufficient"
)

// AnalysisResult is what one pipeline run returns. CorePattern is empty and
// Situations nil unless the run reached DepthDeep.
type AnalysisResult struct {
	Letter      string      `json:"letter"`
	CorePattern string      `json:"core_pattern"`
	Situations  []Situation `json:"situations"`
	Depth       Depth       `json:"analysis_depth"`
}
