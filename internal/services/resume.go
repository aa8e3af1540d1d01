package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"resumelens/resume-analyzer/internal/config"
)

// ErrResumeNotFound is returned when the resume store has no text under
// the given reference.
var ErrResumeNotFound = errors.New("resume text not found")

// ResumeStore looks up already-extracted resume text by its opaque
// reference. Extraction itself happens upstream.
type ResumeStore interface {
	FetchText(ctx context.Context, resumeRef string) (string, error)
}

type httpResumeStore struct {
	baseURL string
	client  *http.Client
}

func NewResumeStore(cfg config.ResumeStoreConfig) ResumeStore {
	return &httpResumeStore{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

func (s *httpResumeStore) FetchText(ctx context.Context, resumeRef string) (string, error) {
	endpoint := fmt.Sprintf("%s/resumes/%s/text", s.baseURL, url.PathEscape(resumeRef))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build resume store request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach resume store: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("%w: %s", ErrResumeNotFound, resumeRef)
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("resume store returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read resume text: %w", err)
	}
	if len(body) == 0 {
		return "", fmt.Errorf("%w: empty text for %s", ErrResumeNotFound, resumeRef)
	}

	return string(body), nil
}
