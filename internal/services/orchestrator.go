package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"resumelens/resume-analyzer/internal/config"
	"resumelens/resume-analyzer/internal/models"
	"resumelens/resume-analyzer/internal/repositories"
)

// Client-facing failure reasons. Backend error detail never leaves the
// orchestrator; these short strings are all a poller ever sees.
const (
	reasonConfig   = "scoring configuration unavailable"
	reasonResume   = "resume text unavailable"
	reasonBackend  = "analysis backend unavailable"
	reasonTimeout  = "analysis timed out"
	reasonInternal = "internal analysis error"
)

// OrchestratorService drives a submitted job through both analyses to a
// terminal state. It is the only writer of terminal job state.
type OrchestratorService interface {
	ProcessJob(ctx context.Context, jobID uuid.UUID) error
	RunAnalysis(ctx context.Context, request models.AnalysisRequest) (*models.AnalysisResult, error)
}

type orchestratorService struct {
	repo        repositories.AnalysisRepository
	resumeStore ResumeStore
	structure   Agent
	appeal      Agent
	normalizer  *Normalizer
	scoring     config.ScoringProvider
	backend     TextGenerator
	logger      *zap.Logger
}

func NewOrchestratorService(
	repo repositories.AnalysisRepository,
	resumeStore ResumeStore,
	structure Agent,
	appeal Agent,
	normalizer *Normalizer,
	scoring config.ScoringProvider,
	backend TextGenerator,
	logger *zap.Logger,
) OrchestratorService {
	return &orchestratorService{
		repo:        repo,
		resumeStore: resumeStore,
		structure:   structure,
		appeal:      appeal,
		normalizer:  normalizer,
		scoring:     scoring,
		backend:     backend,
		logger:      logger,
	}
}

// ProcessJob is the orchestration completion handler: it moves the job to
// processing, runs the analysis, and performs the single terminal write.
func (o *orchestratorService) ProcessJob(ctx context.Context, jobID uuid.UUID) error {
	log := o.logger.With(zap.String("job_id", jobID.String()))

	if err := o.repo.MarkProcessing(jobID); err != nil {
		if errors.Is(err, repositories.ErrInvalidTransition) {
			// Already picked up or already terminal; nothing to do.
			log.Debug("job not in pending state, skipping")
			return nil
		}
		return fmt.Errorf("failed to mark job processing: %w", err)
	}

	job, err := o.repo.FindByID(jobID)
	if err != nil {
		o.failJob(jobID, reasonInternal, log)
		return fmt.Errorf("failed to load job: %w", err)
	}

	result, err := o.RunAnalysis(ctx, job.Request())
	if err != nil {
		log.Error("analysis failed", zap.Error(err))
		o.failJob(jobID, failureReason(err), log)
		return err
	}

	payload, err := json.Marshal(result)
	if err != nil {
		o.failJob(jobID, reasonInternal, log)
		return fmt.Errorf("failed to encode analysis result: %w", err)
	}

	if err := o.repo.Complete(jobID, datatypes.JSON(payload), result.CompletedAt); err != nil {
		if errors.Is(err, repositories.ErrInvalidTransition) {
			// The stalled-job reaper got there first; its verdict stands.
			log.Warn("job already terminal, discarding late result")
			return nil
		}
		return fmt.Errorf("failed to complete job: %w", err)
	}

	log.Info("analysis completed",
		zap.Float64("overall_score", result.OverallScore),
		zap.String("market_tier", result.MarketTier),
		zap.Int64("processing_time_ms", result.ProcessingTimeMs),
	)
	return nil
}

func (o *orchestratorService) failJob(jobID uuid.UUID, reason string, log *zap.Logger) {
	if err := o.repo.Fail(jobID, reason, time.Now().UTC()); err != nil &&
		!errors.Is(err, repositories.ErrInvalidTransition) {
		log.Error("failed to record job failure", zap.Error(err))
	}
}

// failureReason maps internal errors to the short, non-leaking reasons
// surfaced to pollers.
func failureReason(err error) string {
	switch {
	case errors.Is(err, config.ErrInvalidConfig):
		return reasonConfig
	case errors.Is(err, ErrResumeNotFound):
		return reasonResume
	case errors.Is(err, ErrAgentFailure):
		return reasonBackend
	case errors.Is(err, context.DeadlineExceeded):
		return reasonTimeout
	default:
		return reasonInternal
	}
}

// RunAnalysis executes the scoring pipeline: config, resume text, both
// agents concurrently, normalization, aggregation, tier lookup.
func (o *orchestratorService) RunAnalysis(ctx context.Context, request models.AnalysisRequest) (*models.AnalysisResult, error) {
	scoring, err := o.scoring.Scoring()
	if err != nil {
		return nil, err
	}

	resumeText, err := o.resumeStore.FetchText(ctx, request.ResumeRef)
	if err != nil {
		return nil, err
	}

	started := time.Now()

	var structureReply, appealReply *AgentReply
	g, agentCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		structureReply, err = o.structure.Invoke(agentCtx, resumeText, request.Industry)
		return err
	})
	g.Go(func() error {
		var err error
		appealReply, err = o.appeal.Invoke(agentCtx, resumeText, request.Industry)
		return err
	})
	if err := g.Wait(); err != nil {
		// Both dimensions are mandatory; one permanent agent failure fails
		// the whole request.
		return nil, err
	}

	structureOutcome := o.buildOutcome(structureReply)
	appealOutcome := o.buildOutcome(appealReply)

	structureScore := structureOutcome.MeanScore()
	appealScore := appealOutcome.MeanScore()
	overall := scoring.Weights.Structure*structureScore + scoring.Weights.Appeal*appealScore
	tier := scoring.TierFor(overall)

	elapsed := time.Since(started)

	result := &models.AnalysisResult{
		RequestID:        request.ID,
		OverallScore:     round1(overall),
		StructureScore:   round1(structureScore),
		AppealScore:      round1(appealScore),
		MarketTier:       tier,
		ExecutiveSummary: buildExecutiveSummary(tier, structureOutcome, appealOutcome),
		DetailedScores: models.DetailedScores{
			Structure: models.DimensionDetail{
				Scores:   structureOutcome.Scores,
				Feedback: structureOutcome.Feedback,
			},
			Appeal: models.DimensionDetail{
				Scores:   appealOutcome.Scores,
				Feedback: appealOutcome.Feedback,
			},
		},
		BackendModelUsed: o.backend.ModelName(),
		ProcessingTimeMs: elapsed.Milliseconds(),
		CompletedAt:      time.Now().UTC(),
	}

	return result, nil
}

// buildOutcome assembles the immutable AgentOutcome from a raw reply; the
// orchestrator exclusively owns this construction.
func (o *orchestratorService) buildOutcome(reply *AgentReply) *models.AgentOutcome {
	return &models.AgentOutcome{
		AgentKind:     reply.Kind,
		RawPayload:    reply.RawPayload,
		SchemaVersion: reply.SchemaVersion,
		Scores:        o.normalizer.ParseScores(reply.RawPayload),
		Feedback:      o.normalizer.Parse(reply.RawPayload, reply.SchemaVersion),
	}
}

func buildExecutiveSummary(tier string, structure, appeal *models.AgentOutcome) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("This resume currently sits in the %q market tier.",
		strings.ReplaceAll(tier, "_", " ")))

	strengths := append([]string{}, structure.Feedback.Strengths...)
	strengths = append(strengths, appeal.Feedback.Strengths...)
	if len(strengths) > 0 {
		sb.WriteString(" Key strength: " + strengths[0])
	}

	improvements := append([]string{}, structure.Feedback.ImprovementAreas...)
	improvements = append(improvements, appeal.Feedback.ImprovementAreas...)
	if len(improvements) > 0 {
		sb.WriteString(" Top improvement area: " + improvements[0])
	}

	return sb.String()
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
