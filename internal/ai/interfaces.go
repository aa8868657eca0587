package ai

import (
	"context"

	"resumetrack/internal/types"
)

// AIProvider interface for different AI implementations
// ScoreResume returns token usage information - callers can ignore it if not needed
type AIProvider interface {
	ScoreResume(ctx context.Context, input types.ScoreResumeInput) (types.ScoreResumeOutput, *TokenUsage, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}
