package handlers

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"resumelens/resume-analyzer/internal/models"
	"resumelens/resume-analyzer/internal/repositories"
	"resumelens/resume-analyzer/internal/services"
)

type AnalysisHandler struct {
	repo   repositories.AnalysisRepository
	worker services.Worker
	logger *zap.Logger
}

func NewAnalysisHandler(
	repo repositories.AnalysisRepository,
	worker services.Worker,
	logger *zap.Logger,
) *AnalysisHandler {
	return &AnalysisHandler{
		repo:   repo,
		worker: worker,
		logger: logger,
	}
}

// HandleSubmit handles POST /analyses. Validation failures are rejected
// here synchronously and never enter the job state machine.
func (h *AnalysisHandler) HandleSubmit(c *fiber.Ctx) error {
	var req models.SubmitRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request payload",
		})
	}

	if req.ResumeRef == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "resumeRef is required",
		})
	}

	industry, err := models.ParseIndustry(req.Industry)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unknown industry",
		})
	}

	jobID := uuid.New()
	if req.RequestID != "" {
		// Re-submission under a known id: refuse while the earlier job is
		// still in flight.
		known, err := uuid.Parse(req.RequestID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid requestId format",
			})
		}
		existing, err := h.repo.FindByID(known)
		if err == nil && !existing.Status.Terminal() {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "an analysis with this id is already in progress",
			})
		}
		if err == nil && existing.Status.Terminal() {
			jobID = uuid.New()
		} else {
			jobID = known
		}
	}

	job := &models.AnalysisJob{
		ID:        jobID,
		ResumeRef: req.ResumeRef,
		Industry:  industry,
		Status:    models.StatusPending,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := h.repo.Create(job); err != nil {
		h.logger.Error("failed to create analysis job", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create analysis job",
		})
	}

	h.worker.EnqueueJob(job.ID)

	return c.Status(fiber.StatusCreated).JSON(models.SubmitResponse{
		AnalysisID: job.ID.String(),
		Status:     string(models.StatusPending),
	})
}

// HandlePoll handles GET /analyses/:id. It is a pure read: repeated calls
// after completion return identical payloads.
func (h *AnalysisHandler) HandlePoll(c *fiber.Ctx) error {
	jobID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid analysis id format",
		})
	}

	job, err := h.repo.FindByID(jobID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "analysis not found",
			})
		}
		h.logger.Error("failed to load analysis job", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load analysis",
		})
	}

	resp := models.PollResponse{
		AnalysisID:  job.ID.String(),
		Status:      string(job.Status),
		RequestedAt: job.CreatedAt,
		CompletedAt: job.CompletedAt,
	}

	if job.Status == models.StatusCompleted && len(job.Result) > 0 {
		resp.Result = json.RawMessage(job.Result)
	}
	if job.Status == models.StatusError {
		resp.ErrorReason = job.ErrorReason
	}

	return c.JSON(resp)
}
