package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Industry is the target industry a resume is scored against.
type Industry string

const (
	IndustryTech          Industry = "tech"
	IndustryFinance       Industry = "finance"
	IndustryHealthcare    Industry = "healthcare"
	IndustryMarketing     Industry = "marketing"
	IndustrySales         Industry = "sales"
	IndustryEducation     Industry = "education"
	IndustryManufacturing Industry = "manufacturing"
	IndustryConsulting    Industry = "consulting"
	IndustryGeneral       Industry = "general"
)

var supportedIndustries = map[Industry]bool{
	IndustryTech:          true,
	IndustryFinance:       true,
	IndustryHealthcare:    true,
	IndustryMarketing:     true,
	IndustrySales:         true,
	IndustryEducation:     true,
	IndustryManufacturing: true,
	IndustryConsulting:    true,
	IndustryGeneral:       true,
}

// ParseIndustry validates a client-supplied industry string.
func ParseIndustry(s string) (Industry, error) {
	ind := Industry(s)
	if !supportedIndustries[ind] {
		return "", fmt.Errorf("unsupported industry: %q", s)
	}
	return ind, nil
}

type AgentKind string

const (
	AgentStructure AgentKind = "structure"
	AgentAppeal    AgentKind = "appeal"
)

// SchemaVersion discriminates the historical response shapes an agent's
// raw payload can follow. It is a property of the instruction template in
// use, never inferred from content.
type SchemaVersion string

const (
	SchemaV1 SchemaVersion = "v1"
	SchemaV2 SchemaVersion = "v2"
)

// AnalysisRequest is the immutable description of one analysis job.
type AnalysisRequest struct {
	ID          uuid.UUID
	ResumeRef   string
	Industry    Industry
	RequestedAt time.Time
}

// FeedbackItem is one targeted piece of feedback from the v2 schema.
type FeedbackItem struct {
	Category   string `json:"category"`
	TargetText string `json:"targetText,omitempty"`
	Issue      string `json:"issue"`
	Suggestion string `json:"suggestion"`
}

// CanonicalFeedback is the normalized feedback model both schema shapes
// are mapped into. Collections are never nil, only empty.
type CanonicalFeedback struct {
	Strengths        []string       `json:"strengths"`
	ImprovementAreas []string       `json:"improvementAreas"`
	SpecificFeedback []FeedbackItem `json:"specificFeedback"`
}

// EmptyFeedback returns a CanonicalFeedback with all collections present
// but empty, the degraded form used when a payload cannot be parsed.
func EmptyFeedback() CanonicalFeedback {
	return CanonicalFeedback{
		Strengths:        []string{},
		ImprovementAreas: []string{},
		SpecificFeedback: []FeedbackItem{},
	}
}

// AgentOutcome is one agent's contribution to an analysis, immutable once
// the orchestrator has assembled it.
type AgentOutcome struct {
	AgentKind     AgentKind
	RawPayload    string
	SchemaVersion SchemaVersion
	Scores        map[string]float64
	Feedback      CanonicalFeedback
}

// MeanScore is the arithmetic mean of the outcome's sub-dimension scores.
func (o *AgentOutcome) MeanScore() float64 {
	if len(o.Scores) == 0 {
		return 0
	}
	var sum float64
	for _, v := range o.Scores {
		sum += v
	}
	return sum / float64(len(o.Scores))
}

// DimensionDetail nests one agent's sub-scores and normalized feedback in
// the wire result.
type DimensionDetail struct {
	Scores   map[string]float64 `json:"scores"`
	Feedback CanonicalFeedback  `json:"feedback"`
}

type DetailedScores struct {
	Structure DimensionDetail `json:"structure"`
	Appeal    DimensionDetail `json:"appeal"`
}

// AnalysisResult is created exactly once, on successful completion, and
// never mutated afterward. Its JSON form is the wire `result` object.
type AnalysisResult struct {
	RequestID        uuid.UUID      `json:"requestId"`
	OverallScore     float64        `json:"overallScore"`
	StructureScore   float64        `json:"structureScore"`
	AppealScore      float64        `json:"appealScore"`
	MarketTier       string         `json:"marketTier"`
	ExecutiveSummary string         `json:"executiveSummary"`
	DetailedScores   DetailedScores `json:"detailedScores"`
	BackendModelUsed string         `json:"backendModelUsed"`
	ProcessingTimeMs int64          `json:"processingTimeMs"`
	CompletedAt      time.Time      `json:"completedAt"`
}
