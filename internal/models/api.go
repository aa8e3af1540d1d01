package models

import (
	"encoding/json"
	"time"
)

type SubmitRequest struct {
	ResumeRef string `json:"resumeRef"`
	Industry  string `json:"industry"`
	// RequestID lets the admission collaborator re-submit under a known id;
	// a non-terminal job with the same id is refused with a conflict.
	RequestID string `json:"requestId,omitempty"`
}

type SubmitResponse struct {
	AnalysisID string `json:"analysisId"`
	Status     string `json:"status"`
}

// PollResponse is the GET /analyses/{id} body. Result carries the stored
// result bytes untouched so repeated polls return identical payloads.
type PollResponse struct {
	AnalysisID  string          `json:"analysisId"`
	Status      string          `json:"status"`
	RequestedAt time.Time       `json:"requestedAt"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
	ErrorReason *string         `json:"errorReason,omitempty"`
}
