package services

import (
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"resumelens/resume-analyzer/internal/models"
)

// Normalizer turns raw agent payloads into the canonical feedback model.
// Parsing never fails a request: anything unrecognized degrades to empty
// collections with a warning for operators.
type Normalizer struct {
	logger *zap.Logger
}

func NewNormalizer(logger *zap.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// v1 is the legacy flat-list shape. Structure and appeal templates used
// different key names, so the superset is decoded and merged; keys absent
// from a given payload simply stay empty.
type v1Payload struct {
	Strengths              []string `json:"strengths"`
	Issues                 []string `json:"issues"`
	Recommendations        []string `json:"recommendations"`
	RelevantAchievements   []string `json:"relevant_achievements"`
	MissingSkills          []string `json:"missing_skills"`
	ImprovementSuggestions []string `json:"improvement_suggestions"`
}

// v2 is the current shape with explicit per-finding feedback.
type v2Payload struct {
	Strengths        []string `json:"strengths"`
	ImprovementAreas []string `json:"improvement_areas"`
	SpecificFeedback []struct {
		Category   string `json:"category"`
		TargetText string `json:"target_text"`
		Issue      string `json:"issue"`
		Suggestion string `json:"suggestion"`
	} `json:"specific_feedback"`
}

type scoresEnvelope struct {
	Scores map[string]float64 `json:"scores"`
}

// Parse dispatches on the schema version tag. The returned feedback always
// has non-nil collections.
func (n *Normalizer) Parse(rawPayload string, version models.SchemaVersion) models.CanonicalFeedback {
	jsonStr := extractJSON(rawPayload)

	switch version {
	case models.SchemaV1:
		return n.parseV1(jsonStr)
	case models.SchemaV2:
		return n.parseV2(jsonStr)
	default:
		n.logger.Warn("unknown feedback schema version, degrading to empty feedback",
			zap.String("schema_version", string(version)))
		return models.EmptyFeedback()
	}
}

// ParseScores extracts the sub-dimension score map; both schema shapes
// carry it under the same key.
func (n *Normalizer) ParseScores(rawPayload string) map[string]float64 {
	var env scoresEnvelope
	if err := json.Unmarshal([]byte(extractJSON(rawPayload)), &env); err != nil || env.Scores == nil {
		n.logger.Warn("agent payload carries no parseable scores", zap.Error(err))
		return map[string]float64{}
	}
	return env.Scores
}

func (n *Normalizer) parseV1(jsonStr string) models.CanonicalFeedback {
	var payload v1Payload
	if err := json.Unmarshal([]byte(jsonStr), &payload); err != nil {
		n.logger.Warn("unparseable v1 agent payload, degrading to empty feedback", zap.Error(err))
		return models.EmptyFeedback()
	}

	fb := models.EmptyFeedback()
	fb.Strengths = append(fb.Strengths, payload.Strengths...)
	fb.Strengths = append(fb.Strengths, payload.RelevantAchievements...)
	fb.ImprovementAreas = append(fb.ImprovementAreas, payload.Issues...)
	fb.ImprovementAreas = append(fb.ImprovementAreas, payload.Recommendations...)
	fb.ImprovementAreas = append(fb.ImprovementAreas, payload.MissingSkills...)
	fb.ImprovementAreas = append(fb.ImprovementAreas, payload.ImprovementSuggestions...)
	return fb
}

func (n *Normalizer) parseV2(jsonStr string) models.CanonicalFeedback {
	var payload v2Payload
	if err := json.Unmarshal([]byte(jsonStr), &payload); err != nil {
		n.logger.Warn("unparseable v2 agent payload, degrading to empty feedback", zap.Error(err))
		return models.EmptyFeedback()
	}

	fb := models.EmptyFeedback()
	fb.Strengths = append(fb.Strengths, payload.Strengths...)
	fb.ImprovementAreas = append(fb.ImprovementAreas, payload.ImprovementAreas...)
	for _, item := range payload.SpecificFeedback {
		fb.SpecificFeedback = append(fb.SpecificFeedback, models.FeedbackItem{
			Category:   item.Category,
			TargetText: item.TargetText,
			Issue:      item.Issue,
			Suggestion: item.Suggestion,
		})
	}
	return fb
}

// extractJSON strips markdown fences and surrounding prose from LLM
// output, keeping the outermost JSON object or array.
func extractJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	startObj := strings.Index(text, "{")
	startArr := strings.Index(text, "[")
	endObj := strings.LastIndex(text, "}")
	endArr := strings.LastIndex(text, "]")

	if startObj != -1 && endObj != -1 && endObj > startObj {
		return text[startObj : endObj+1]
	} else if startArr != -1 && endArr != -1 && endArr > startArr {
		return text[startArr : endArr+1]
	}

	return text
}
