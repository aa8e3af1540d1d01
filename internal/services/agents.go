package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"resumelens/resume-analyzer/internal/config"
	"resumelens/resume-analyzer/internal/models"
)

// ErrAgentFailure marks an agent whose retries are exhausted. The wrapped
// backend detail stays inside the orchestrator boundary and is never
// surfaced to clients.
var ErrAgentFailure = errors.New("agent invocation failed")

// AgentReply is an agent's raw, uninterpreted output. The orchestrator
// owns turning it into an AgentOutcome; agents only tag the schema version
// their instruction template was written against.
type AgentReply struct {
	Kind          models.AgentKind
	RawPayload    string
	SchemaVersion models.SchemaVersion
}

// Agent renders an instruction for the text-generation backend and
// returns its raw output.
type Agent interface {
	Kind() models.AgentKind
	Invoke(ctx context.Context, resumeText string, industry models.Industry) (*AgentReply, error)
}

type baseAgent struct {
	backend TextGenerator
	cfg     config.AgentConfig
	logger  *zap.Logger
}

// callBackend runs one bounded backend call per attempt, retrying
// transient failures with exponential backoff until attempts run out.
func (b *baseAgent) callBackend(ctx context.Context, kind models.AgentKind, prompt string) (string, error) {
	var lastErr error
	delay := b.cfg.RetryInitialDelay

	for attempt := 0; attempt <= b.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			b.logger.Warn("retrying agent invocation",
				zap.String("agent", string(kind)),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", delay),
				zap.Error(lastErr),
			)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %w", ErrAgentFailure, ctx.Err())
			}
			delay *= 2
		}

		callCtx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
		text, err := b.backend.GenerateText(callCtx, prompt, 0.3)
		cancel()

		if err == nil {
			return text, nil
		}
		lastErr = err

		if ctx.Err() != nil || !isTransientBackendErr(err) {
			break
		}
	}

	return "", fmt.Errorf("%w: %w", ErrAgentFailure, lastErr)
}

type structureAgent struct {
	baseAgent
	prompts *PromptBuilder
}

// NewStructureAgent builds the agent scoring industry-independent
// structural quality.
func NewStructureAgent(backend TextGenerator, cfg config.AgentConfig, logger *zap.Logger) Agent {
	return &structureAgent{
		baseAgent: baseAgent{backend: backend, cfg: cfg, logger: logger},
		prompts:   NewPromptBuilder(),
	}
}

func (a *structureAgent) Kind() models.AgentKind {
	return models.AgentStructure
}

func (a *structureAgent) Invoke(ctx context.Context, resumeText string, _ models.Industry) (*AgentReply, error) {
	prompt := a.prompts.BuildStructurePrompt(resumeText)

	payload, err := a.callBackend(ctx, models.AgentStructure, prompt)
	if err != nil {
		return nil, err
	}

	return &AgentReply{
		Kind:          models.AgentStructure,
		RawPayload:    payload,
		SchemaVersion: instructionTemplateVersion,
	}, nil
}

type appealAgent struct {
	baseAgent
	prompts *PromptBuilder
}

// NewAppealAgent builds the agent scoring industry appeal.
func NewAppealAgent(backend TextGenerator, cfg config.AgentConfig, logger *zap.Logger) Agent {
	return &appealAgent{
		baseAgent: baseAgent{backend: backend, cfg: cfg, logger: logger},
		prompts:   NewPromptBuilder(),
	}
}

func (a *appealAgent) Kind() models.AgentKind {
	return models.AgentAppeal
}

func (a *appealAgent) Invoke(ctx context.Context, resumeText string, industry models.Industry) (*AgentReply, error) {
	prompt := a.prompts.BuildAppealPrompt(resumeText, industry)

	payload, err := a.callBackend(ctx, models.AgentAppeal, prompt)
	if err != nil {
		return nil, err
	}

	return &AgentReply{
		Kind:          models.AgentAppeal,
		RawPayload:    payload,
		SchemaVersion: instructionTemplateVersion,
	}, nil
}
