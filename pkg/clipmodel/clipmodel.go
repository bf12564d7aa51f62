// Package clipmodel defines the data types shared across the clip engine's
// pipeline stages: sources, transcripts, candidate segments, score reports,
// and the per-source pipeline state persisted by the checkpoint store.
package clipmodel

import "time"

// Stage identifies a pipeline stage boundary for checkpoint bookkeeping.
type Stage string

const (
	StageNone         Stage = "none"
	StageAudio        Stage = "audio"
	StageTranscript   Stage = "transcript"
	StageSegmentation Stage = "segmentation"
	StageScoring      Stage = "scoring"
)

// Verdict is the coarse classification assigned to a scored segment.
type Verdict string

const (
	VerdictViral Verdict = "viral"
	VerdictMaybe Verdict = "maybe"
	VerdictSkip  Verdict = "skip"
)

// Source is a read-only handle to a source media file. Identity is a
// fingerprint derived from the absolute path and byte length.
type Source struct {
	Path string
	Size int64
}

// Fingerprint returns the stable, cheap-to-compute identifier for the
// source. Two distinct files sharing (path, size) collide by design — see
// the fingerprint-collision open question.
func (s Source) Fingerprint() Fingerprint {
	return Fingerprint{Path: s.Path, Size: s.Size}
}

// Fingerprint is the serialisable identity of a [Source]. It is a struct
// rather than a single hash so that a future content-hash upgrade is
// additive rather than breaking.
type Fingerprint struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// Matches reports whether a previously-recorded fingerprint still
// identifies the current source.
func (f Fingerprint) Matches(other Fingerprint) bool {
	return f.Path == other.Path && f.Size == other.Size
}

// WordTiming is the per-word timing annotation optionally attached to a
// TranscriptSegment.
type WordTiming struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// TranscriptSegment is one element of an ordered, non-overlapping
// transcript: a span of speech with its text and boundaries in seconds.
type TranscriptSegment struct {
	Start float64      `json:"start"`
	End   float64      `json:"end"`
	Text  string       `json:"text"`
	Words []WordTiming `json:"words,omitempty"`
}

// Duration returns End - Start.
func (s TranscriptSegment) Duration() float64 { return s.End - s.Start }

// Transcript is an ordered, finite sequence of TranscriptSegment values,
// non-overlapping and monotonically non-decreasing in start time.
type Transcript struct {
	Segments []TranscriptSegment `json:"segments"`
}

// SegmentKind distinguishes the two candidate-generation strategies.
type SegmentKind string

const (
	SegmentKindSentenceWindow SegmentKind = "sentence_window"
	SegmentKindPauseWindow    SegmentKind = "pause_window"
)

// Features holds the cheap, locally-derived signals used by the heuristic
// pre-filter.
type Features struct {
	SentenceCount          int `json:"sentence_count"`
	PauseCount             int `json:"pause_count"`
	EmotionalKeywordCount  int `json:"emotional_keyword_count"`
}

// CandidateSegment is a time window over a Transcript considered for
// scoring.
type CandidateSegment struct {
	ID       int         `json:"id"`
	Kind     SegmentKind `json:"kind"`
	Start    float64     `json:"start"`
	End      float64     `json:"end"`
	Text     string      `json:"text"`
	Features Features    `json:"features"`
}

// Duration returns End - Start.
func (c CandidateSegment) Duration() float64 { return c.End - c.Start }

// ScoreReport is the remote model's (or fallback's) assessment of a
// candidate segment.
type ScoreReport struct {
	HookScore         float64 `json:"hook_score"`
	RetentionScore    float64 `json:"retention_score"`
	EmotionScore      float64 `json:"emotion_score"`
	RelatabilityScore float64 `json:"relatability_score"`
	CompletionScore   float64 `json:"completion_score"`
	PlatformFitScore  float64 `json:"platform_fit_score"`
	FinalScore        float64 `json:"final_score"`
	Verdict           Verdict `json:"verdict"`

	Strengths       []string `json:"strengths,omitempty"`
	Weaknesses      []string `json:"weaknesses,omitempty"`
	FirstThreeWords string   `json:"first_three_seconds_quote,omitempty"`
	PrimaryEmotion  string   `json:"primary_emotion,omitempty"`
	OptimalPlatform string   `json:"optimal_platform,omitempty"`
}

// Weights for the final_score fallback computation, applied when the
// remote scorer omits final_score. These are the sole authoritative
// weights (§3/§9): hook 0.35, retention 0.25, emotion 0.20, completion
// 0.10, platform_fit 0.05, relatability 0.05.
const (
	WeightHook         = 0.35
	WeightRetention    = 0.25
	WeightEmotion      = 0.20
	WeightCompletion   = 0.10
	WeightPlatformFit  = 0.05
	WeightRelatability = 0.05
)

// ComputeFinalScore derives final_score from the six component scores using
// the authoritative weights, scaled to [0,100].
func (s ScoreReport) ComputeFinalScore() float64 {
	weighted := s.HookScore*WeightHook +
		s.RetentionScore*WeightRetention +
		s.EmotionScore*WeightEmotion +
		s.CompletionScore*WeightCompletion +
		s.PlatformFitScore*WeightPlatformFit +
		s.RelatabilityScore*WeightRelatability
	return weighted * 10
}

// ScoredSegment is a CandidateSegment extended with its ScoreReport.
type ScoredSegment struct {
	CandidateSegment
	Score ScoreReport `json:"score"`
}

// FallbackScoredSegment builds a zero-scored segment with the given
// weaknesses, used both by the pre-flight validator (§4.8) and by the
// scoring engine when a segment receives no usable result (§4.4 step 6).
func FallbackScoredSegment(c CandidateSegment, weaknesses ...string) ScoredSegment {
	return ScoredSegment{
		CandidateSegment: c,
		Score: ScoreReport{
			Verdict:    VerdictSkip,
			Weaknesses: weaknesses,
		},
	}
}

// StageArtifact records the path of any file artifact a completed stage
// references, so that has_completed_stage can verify it still exists.
type StageArtifact struct {
	Completed bool   `json:"completed"`
	Path      string `json:"path,omitempty"`
}

// AudioExtractionState is the checkpoint payload for the audio stage.
type AudioExtractionState struct {
	StageArtifact
	AudioPath string `json:"audio_path"`
}

// TranscriptionState is the checkpoint payload for the transcription stage.
type TranscriptionState struct {
	StageArtifact
	TranscriptPath string `json:"transcript_path"`
	SegmentCount   int    `json:"segment_count"`
}

// SegmentationState is the checkpoint payload for the segmentation stage.
type SegmentationState struct {
	StageArtifact
	Candidates     []CandidateSegment `json:"candidates"`
	SentenceCount  int                `json:"sentence_count"`
	PauseCount     int                `json:"pause_count"`
}

// ScoringState is the checkpoint payload for the scoring stage.
type ScoringState struct {
	StageArtifact
	ScoredSegments   []ScoredSegment `json:"scored_segments"`
	HighQualityCount int             `json:"high_quality_count"`
}

// PipelineState is the per-source, versioned checkpoint record.
type PipelineState struct {
	LastStage   Stage       `json:"last_stage"`
	LastUpdated time.Time   `json:"last_updated"`
	SourcePath  string      `json:"video_path"`
	SourceSize  int64       `json:"source_size"`

	AudioExtraction *AudioExtractionState `json:"audio_extraction,omitempty"`
	Transcription   *TranscriptionState   `json:"transcription,omitempty"`
	Segmentation    *SegmentationState    `json:"segmentation,omitempty"`
	AIScoring       *ScoringState         `json:"ai_scoring,omitempty"`
}

// Fingerprint returns the Fingerprint recorded in this state.
func (p PipelineState) Fingerprint() Fingerprint {
	return Fingerprint{Path: p.SourcePath, Size: p.SourceSize}
}

// SpillRecord is written by the State-Spill Writer when the remote
// scorer's cooldown hint exceeds the configured threshold.
type SpillRecord struct {
	Timestamp         int64           `json:"timestamp"`
	ScoredSegments    []ScoredSegment `json:"scored_segments"`
	RemainingSegments []CandidateSegment `json:"remaining_segments"`
	Reason            string          `json:"reason"`
}

// ReasonRateLimitExceeded is the sole spill reason code defined by the
// spec; the field exists so future reasons are additive.
const ReasonRateLimitExceeded = "rate_limit_exceeded"

// RunStats is the {batches, retries, spills, p50, p95} contract returned
// alongside run()'s scored/validated output.
type RunStats struct {
	Batches   int64         `json:"batches"`
	Retries   int64         `json:"retries"`
	Spills    int64         `json:"spills"`
	Errors    int64         `json:"errors"`
	LatencyP50 time.Duration `json:"latency_p50"`
	LatencyP95 time.Duration `json:"latency_p95"`
}

// RunResult is the output of the core run() entry point.
type RunResult struct {
	ScoredSegments  []ScoredSegment `json:"scored_segments"`
	ValidatedClips  []ScoredSegment `json:"validated_clips"`
	Stats           RunStats        `json:"stats"`
}
