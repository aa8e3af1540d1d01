package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/datatypes"

	"resumelens/resume-analyzer/internal/models"
	"resumelens/resume-analyzer/internal/repositories"
)

type stubRepo struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*models.AnalysisJob
}

func newStubRepo() *stubRepo {
	return &stubRepo{jobs: make(map[uuid.UUID]*models.AnalysisJob)}
}

func (r *stubRepo) Create(job *models.AnalysisJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *job
	r.jobs[job.ID] = &copied
	return nil
}

func (r *stubRepo) FindByID(id uuid.UUID) (*models.AnalysisJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *job
	return &copied, nil
}

func (r *stubRepo) MarkProcessing(id uuid.UUID) error { return nil }

func (r *stubRepo) Complete(id uuid.UUID, result datatypes.JSON, completedAt time.Time) error {
	return nil
}

func (r *stubRepo) Fail(id uuid.UUID, reason string, completedAt time.Time) error { return nil }

func (r *stubRepo) FindPendingJobs(limit int) ([]models.AnalysisJob, error) { return nil, nil }

func (r *stubRepo) FailStalled(olderThan time.Duration, reason string) (int64, error) {
	return 0, nil
}

type stubWorker struct {
	mu       sync.Mutex
	enqueued []uuid.UUID
}

func (w *stubWorker) Start(ctx context.Context) {}
func (w *stubWorker) Stop()                     {}

func (w *stubWorker) EnqueueJob(jobID uuid.UUID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.enqueued = append(w.enqueued, jobID)
}

func (w *stubWorker) enqueuedIDs() []uuid.UUID {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]uuid.UUID{}, w.enqueued...)
}

func newTestApp(t *testing.T) (*fiber.App, *stubRepo, *stubWorker) {
	t.Helper()
	repo := newStubRepo()
	worker := &stubWorker{}
	h := NewAnalysisHandler(repo, worker, zaptest.NewLogger(t))

	app := fiber.New()
	app.Post("/api/v1/analyses", h.HandleSubmit)
	app.Get("/api/v1/analyses/:id", h.HandlePoll)
	return app, repo, worker
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestSubmitCreatesPendingJob(t *testing.T) {
	app, repo, worker := newTestApp(t)

	resp := postJSON(t, app, "/api/v1/analyses", models.SubmitRequest{
		ResumeRef: "ref-1",
		Industry:  "tech",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var out models.SubmitResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "pending", out.Status)

	jobID, err := uuid.Parse(out.AnalysisID)
	require.NoError(t, err)

	job, err := repo.FindByID(jobID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, job.Status)
	assert.Equal(t, models.IndustryTech, job.Industry)
	assert.Contains(t, worker.enqueuedIDs(), jobID)
}

func TestSubmitRejectsMissingResumeRef(t *testing.T) {
	app, _, worker := newTestApp(t)

	resp := postJSON(t, app, "/api/v1/analyses", models.SubmitRequest{Industry: "tech"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	// Validation failures never enter the job state machine.
	assert.Empty(t, worker.enqueuedIDs())
}

func TestSubmitRejectsUnknownIndustry(t *testing.T) {
	app, _, worker := newTestApp(t)

	resp := postJSON(t, app, "/api/v1/analyses", models.SubmitRequest{
		ResumeRef: "ref-1",
		Industry:  "astrology",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, worker.enqueuedIDs())
}

func TestSubmitConflictsOnNonTerminalResubmission(t *testing.T) {
	app, repo, _ := newTestApp(t)

	jobID := uuid.New()
	require.NoError(t, repo.Create(&models.AnalysisJob{
		ID:        jobID,
		ResumeRef: "ref-1",
		Industry:  models.IndustryTech,
		Status:    models.StatusProcessing,
		CreatedAt: time.Now().UTC(),
	}))

	resp := postJSON(t, app, "/api/v1/analyses", models.SubmitRequest{
		ResumeRef: "ref-1",
		Industry:  "tech",
		RequestID: jobID.String(),
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestSubmitAllowsResubmissionAfterTerminalState(t *testing.T) {
	app, repo, _ := newTestApp(t)

	jobID := uuid.New()
	reason := "analysis backend unavailable"
	require.NoError(t, repo.Create(&models.AnalysisJob{
		ID:          jobID,
		ResumeRef:   "ref-1",
		Industry:    models.IndustryTech,
		Status:      models.StatusError,
		ErrorReason: &reason,
		CreatedAt:   time.Now().UTC(),
	}))

	resp := postJSON(t, app, "/api/v1/analyses", models.SubmitRequest{
		ResumeRef: "ref-1",
		Industry:  "tech",
		RequestID: jobID.String(),
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var out models.SubmitResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	// Errored jobs are never retried in place; a fresh job is issued.
	assert.NotEqual(t, jobID.String(), out.AnalysisID)
}

func TestPollUnknownIDReturnsNotFound(t *testing.T) {
	app, _, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analyses/"+uuid.NewString(), nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPollInvalidIDReturnsBadRequest(t *testing.T) {
	app, _, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analyses/nonexistent", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPollCompletedJobIsIdempotent(t *testing.T) {
	app, repo, _ := newTestApp(t)

	result := []byte(`{"overallScore":63,"marketTier":"competitive"}`)
	completedAt := time.Now().UTC()
	jobID := uuid.New()
	require.NoError(t, repo.Create(&models.AnalysisJob{
		ID:          jobID,
		ResumeRef:   "ref-1",
		Industry:    models.IndustryTech,
		Status:      models.StatusCompleted,
		Result:      result,
		CreatedAt:   completedAt.Add(-time.Minute),
		CompletedAt: &completedAt,
	}))

	read := func() []byte {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/analyses/"+jobID.String(), nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return body
	}

	first := read()
	second := read()
	assert.Equal(t, first, second)

	var out models.PollResponse
	require.NoError(t, json.Unmarshal(first, &out))
	assert.Equal(t, "completed", out.Status)
	assert.JSONEq(t, string(result), string(out.Result))
	require.NotNil(t, out.CompletedAt)
}

func TestPollErroredJobCarriesReasonOnly(t *testing.T) {
	app, repo, _ := newTestApp(t)

	reason := "analysis backend unavailable"
	completedAt := time.Now().UTC()
	jobID := uuid.New()
	require.NoError(t, repo.Create(&models.AnalysisJob{
		ID:          jobID,
		ResumeRef:   "ref-1",
		Industry:    models.IndustryFinance,
		Status:      models.StatusError,
		ErrorReason: &reason,
		CreatedAt:   completedAt.Add(-time.Minute),
		CompletedAt: &completedAt,
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analyses/"+jobID.String(), nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out models.PollResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "error", out.Status)
	require.NotNil(t, out.ErrorReason)
	assert.Equal(t, reason, *out.ErrorReason)
	assert.Nil(t, out.Result)
}
