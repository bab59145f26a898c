package models

// GenerationKind selects the kind of study aid the AI produces
type GenerationKind string

const (
	GenerationPlan    GenerationKind = "plan"
	GenerationQuiz    GenerationKind = "quiz"
	GenerationSummary GenerationKind = "summary"
)

// Valid reports whether the kind is one of the supported generation modes
func (k GenerationKind) Valid() bool {
	switch k {
	case GenerationPlan, GenerationQuiz, GenerationSummary:
		return true
	}
	return false
}

// EnrichmentStatus represents the lifecycle of an AI generation request
type EnrichmentStatus string

const (
	EnrichmentIdle       EnrichmentStatus = "idle"
	EnrichmentRequesting EnrichmentStatus = "requesting"
	EnrichmentReady      EnrichmentStatus = "ready"
	EnrichmentFailed     EnrichmentStatus = "failed"
)

// EnrichmentState is the tagged state of the enrichment coordinator.
// RecordID names the session the request was issued for; readers treat
// the state as idle once it no longer matches the active session.
type EnrichmentState struct {
	Status   EnrichmentStatus `json:"status"`
	RecordID string           `json:"record_id,omitempty"`
	Kind     GenerationKind   `json:"kind,omitempty"`
	Output   string           `json:"output,omitempty"`
	Error    string           `json:"error,omitempty"`
}
