package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"resumetrack/internal/ai"
	resumetrackErrors "resumetrack/internal/errors"
	"resumetrack/internal/ledger"
	"resumetrack/internal/observability"
	"resumetrack/internal/types"

	"go.opentelemetry.io/otel/attribute"
)

// requireUserID extracts the calling user from the X-User-ID header.
// Every /api endpoint is scoped to one user.
func (s *Server) requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := strings.TrimSpace(r.Header.Get("X-User-ID"))
	if userID == "" {
		writeErrorResponse(w, "Missing user ID", "X-User-ID header is required", http.StatusBadRequest)
		return "", false
	}
	return userID, true
}

// writeAppError maps application errors to HTTP status codes
func (s *Server) writeAppError(w http.ResponseWriter, err error, title string) {
	status := http.StatusInternalServerError
	switch resumetrackErrors.TypeOf(err) {
	case resumetrackErrors.ErrorTypeValidation, resumetrackErrors.ErrorTypeIO:
		status = http.StatusBadRequest
	case resumetrackErrors.ErrorTypeNotFound:
		status = http.StatusNotFound
	case resumetrackErrors.ErrorTypeConflict:
		status = http.StatusConflict
	case resumetrackErrors.ErrorTypeQuota:
		status = http.StatusTooManyRequests
	case resumetrackErrors.ErrorTypeAI, resumetrackErrors.ErrorTypeNetwork:
		status = http.StatusBadGateway
	}

	resp := ErrorResponse{Error: title, Message: err.Error()}
	var appErr *resumetrackErrors.AppError
	if stderrors.As(err, &appErr) {
		resp.Message = appErr.Message
		resp.Code = appErr.Code
	}

	if status >= http.StatusInternalServerError {
		s.Logger.LogError(err, title)
	}

	writeJSONResponse(w, status, resp)
}

// getOwnedAnalysis loads an analysis and verifies the caller owns it.
// A foreign analysis is indistinguishable from a missing one.
func (s *Server) getOwnedAnalysis(ctx context.Context, analysisID, userID string) (*ledger.Analysis, error) {
	a, err := s.Ledger.Get(ctx, analysisID)
	if err != nil {
		return nil, err
	}
	if a.UserID != userID {
		return nil, resumetrackErrors.NewNotFoundError(resumetrackErrors.ErrCodeAnalysisNotFound,
			fmt.Sprintf("Analysis not found: %s", analysisID), nil)
	}
	return a, nil
}

// CreateAnalysisResponse carries the persisted analysis plus the scorer
// narrative that is not stored in the ledger.
type CreateAnalysisResponse struct {
	Analysis   *ledger.Analysis `json:"analysis"`
	Strengths  string           `json:"strengths"`
	Weaknesses string           `json:"weaknesses"`
}

// createAnalysisHandler scores a resume and opens a new analysis record
func (s *Server) createAnalysisHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("resumetrack.api")
		ctx, span := tracer.Start(ctx, "api.create_analysis")
		defer span.End()

		userID, ok := s.requireUserID(w, r)
		if !ok {
			return
		}
		span.SetAttributes(attribute.String("user.id", userID))

		var req CreateAnalysisRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		if strings.TrimSpace(req.ResumeText) == "" {
			err := fmt.Errorf("missing resume text")
			span.RecordError(err)
			writeErrorResponse(w, "Missing resume text", "resumeText field is required", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.JobDescription) == "" {
			err := fmt.Errorf("missing job description")
			span.RecordError(err)
			writeErrorResponse(w, "Missing job description", "jobDescription field is required", http.StatusBadRequest)
			return
		}

		// Size validation
		if s.MaxRequestSize > 0 && len(req.ResumeText) > int(s.MaxRequestSize/2) {
			err := fmt.Errorf("resume text too large: %d chars", len(req.ResumeText))
			span.RecordError(err)
			writeErrorResponse(w, "Resume text too large", fmt.Sprintf("resumeText exceeds recommended size limit of %d characters", s.MaxRequestSize/2), http.StatusBadRequest)
			return
		}
		if s.MaxRequestSize > 0 && len(req.JobDescription) > int(s.MaxRequestSize/2) {
			err := fmt.Errorf("job description too large: %d chars", len(req.JobDescription))
			span.RecordError(err)
			writeErrorResponse(w, "Job description too large", fmt.Sprintf("jobDescription exceeds recommended size limit of %d characters", s.MaxRequestSize/2), http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.Int("request.resume_length", len(req.ResumeText)),
			attribute.Int("request.job_length", len(req.JobDescription)),
			attribute.String("operation", "score"),
		)

		metrics := om.GetMetrics()

		// Cheap admission check before paying for an AI call. The
		// authoritative, locking check happens in Admit below.
		canCreate, err := s.Quota.CanCreate(ctx, userID)
		if err != nil {
			span.RecordError(err)
			s.writeAppError(w, err, "Failed to check quota")
			return
		}
		if !canCreate {
			span.SetAttributes(attribute.String("error.type", "quota"))
			metrics.RecordBusinessMetric(ctx, "quota_denied", true, om,
				attribute.String("user.id", userID))
			s.writeAppError(w, resumetrackErrors.NewQuotaError(resumetrackErrors.ErrCodeQuotaExceeded,
				"Weekly analysis limit reached", nil), "Quota exceeded")
			return
		}

		// Create AI service for the score operation
		scoreConfig := s.AppConfig.GetScoreConfig()
		aiService, err := ai.NewService(&scoreConfig, "score", s.Logger)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "service_creation"))
			writeErrorResponse(w, "Failed to create AI service", err.Error(), http.StatusInternalServerError)
			return
		}

		input := types.ScoreResumeInput{
			ResumeText:     req.ResumeText,
			JobDescription: req.JobDescription,
		}

		var result types.ScoreResumeOutput
		err = metrics.TrackAIOperationWithTokens(ctx, "score", func(ctx context.Context) *observability.AIOperationResult {
			output, tokenUsage, aiErr := aiService.Provider.ScoreResume(ctx, input)
			result = output
			return &observability.AIOperationResult{
				Error:      aiErr,
				TokenUsage: (*observability.TokenUsage)(tokenUsage),
			}
		}, om)

		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "ai_processing"))
			metrics.RecordBusinessMetric(ctx, "analysis_created", false, om,
				attribute.String("error", err.Error()))
			s.writeAppError(w, err, "Failed to score resume")
			return
		}

		// Consume the quota slot. Concurrent creates by the same user
		// serialize here, so this can still reject.
		if err := s.Quota.Admit(ctx, userID); err != nil {
			span.RecordError(err)
			if resumetrackErrors.IsType(err, resumetrackErrors.ErrorTypeQuota) {
				metrics.RecordBusinessMetric(ctx, "quota_denied", true, om,
					attribute.String("user.id", userID))
			}
			s.writeAppError(w, err, "Quota exceeded")
			return
		}

		suggestions := make([]ledger.SuggestionInput, 0, len(result.Suggestions))
		for _, sg := range result.Suggestions {
			suggestions = append(suggestions, ledger.SuggestionInput{
				Category: sg.Category,
				Priority: sg.Priority,
				Text:     sg.Text,
			})
		}

		analysis, err := s.Ledger.Create(ctx, ledger.CreateInput{
			UserID:         userID,
			JobTitle:       result.JobTitle,
			JobDescription: req.JobDescription,
			ResumeText:     req.ResumeText,
			Score:          result.Score,
			Suggestions:    suggestions,
		})
		if err != nil {
			span.RecordError(err)
			metrics.RecordBusinessMetric(ctx, "analysis_created", false, om)
			s.writeAppError(w, err, "Failed to create analysis")
			return
		}

		successAttrs := []attribute.KeyValue{
			attribute.Int("suggestions_count", len(analysis.Suggestions)),
		}
		if s.AppConfig.Observability.CustomMetrics.BusinessMetrics.TrackScores {
			successAttrs = append(successAttrs, attribute.Int("ats.score", analysis.Score))
		}
		metrics.RecordBusinessMetric(ctx, "analysis_created", true, om, successAttrs...)

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.String("analysis.id", analysis.ID),
			attribute.Int("ats.score", analysis.Score),
		)

		writeJSONResponse(w, http.StatusCreated, CreateAnalysisResponse{
			Analysis:   analysis,
			Strengths:  result.Strengths,
			Weaknesses: result.Weaknesses,
		})
	}
}

// analysisListItem is the compact per-row shape for the list endpoint.
// Versions and suggestions are not loaded for lists.
type analysisListItem struct {
	ID          string        `json:"id"`
	JobTitle    string        `json:"jobTitle"`
	Score       int           `json:"score"`
	Status      ledger.Status `json:"status"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
	CompletedAt *time.Time    `json:"completedAt,omitempty"`
}

// listAnalysesHandler returns one page of the caller's analyses
func (s *Server) listAnalysesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	page, pageSize, err := s.parsePagination(r)
	if err != nil {
		writeErrorResponse(w, "Invalid pagination", err.Error(), http.StatusBadRequest)
		return
	}

	analyses, pagination, err := s.Ledger.ListForUser(r.Context(), userID, page, pageSize)
	if err != nil {
		s.writeAppError(w, err, "Failed to list analyses")
		return
	}

	items := make([]analysisListItem, 0, len(analyses))
	for _, a := range analyses {
		items = append(items, analysisListItem{
			ID:          a.ID,
			JobTitle:    a.JobTitle,
			Score:       a.Score,
			Status:      a.Status,
			CreatedAt:   a.CreatedAt,
			UpdatedAt:   a.UpdatedAt,
			CompletedAt: a.CompletedAt,
		})
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"analyses":   items,
		"pagination": pagination,
	})
}

// parsePagination reads page/pageSize query params, applying configured bounds
func (s *Server) parsePagination(r *http.Request) (page, pageSize int, err error) {
	page = 1
	pageSize = s.AppConfig.Server.DefaultPageSize

	if raw := r.URL.Query().Get("page"); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			return 0, 0, fmt.Errorf("page must be a positive integer")
		}
	}
	if raw := r.URL.Query().Get("pageSize"); raw != "" {
		pageSize, err = strconv.Atoi(raw)
		if err != nil || pageSize < 1 {
			return 0, 0, fmt.Errorf("pageSize must be a positive integer")
		}
	}
	if max := s.AppConfig.Server.MaxPageSize; max > 0 && pageSize > max {
		pageSize = max
	}

	return page, pageSize, nil
}

// getAnalysisHandler returns a full analysis with versions and suggestions
func (s *Server) getAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	analysis, err := s.getOwnedAnalysis(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		s.writeAppError(w, err, "Failed to fetch analysis")
		return
	}

	writeJSONResponse(w, http.StatusOK, analysis)
}

// deleteAnalysisHandler removes an analysis and everything under it
func (s *Server) deleteAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	analysis, err := s.getOwnedAnalysis(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		s.writeAppError(w, err, "Failed to delete analysis")
		return
	}

	if err := s.Ledger.Delete(r.Context(), analysis.ID); err != nil {
		s.writeAppError(w, err, "Failed to delete analysis")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// analysisSummaryHandler returns the condensed view of one analysis
func (s *Server) analysisSummaryHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	analysis, err := s.getOwnedAnalysis(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		s.writeAppError(w, err, "Failed to fetch analysis summary")
		return
	}

	writeJSONResponse(w, http.StatusOK, ledger.BuildSummary(analysis))
}

// addVersionHandler appends a revised resume to an analysis
func (s *Server) addVersionHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("resumetrack.api")
		ctx, span := tracer.Start(ctx, "api.add_version")
		defer span.End()

		userID, ok := s.requireUserID(w, r)
		if !ok {
			return
		}

		var req AddVersionRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.ResumeText) == "" {
			err := fmt.Errorf("missing resume text")
			span.RecordError(err)
			writeErrorResponse(w, "Missing resume text", "resumeText field is required", http.StatusBadRequest)
			return
		}

		analysis, err := s.getOwnedAnalysis(ctx, r.PathValue("id"), userID)
		if err != nil {
			span.RecordError(err)
			s.writeAppError(w, err, "Failed to add version")
			return
		}

		span.SetAttributes(
			attribute.String("analysis.id", analysis.ID),
			attribute.Int("request.resume_length", len(req.ResumeText)),
			attribute.String("operation", "score"),
		)

		// Re-score the revised resume against the original job description
		scoreConfig := s.AppConfig.GetScoreConfig()
		aiService, err := ai.NewService(&scoreConfig, "score", s.Logger)
		if err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Failed to create AI service", err.Error(), http.StatusInternalServerError)
			return
		}

		input := types.ScoreResumeInput{
			ResumeText:     req.ResumeText,
			JobDescription: analysis.JobDescription,
		}

		metrics := om.GetMetrics()
		var result types.ScoreResumeOutput
		err = metrics.TrackAIOperationWithTokens(ctx, "score", func(ctx context.Context) *observability.AIOperationResult {
			output, tokenUsage, aiErr := aiService.Provider.ScoreResume(ctx, input)
			result = output
			return &observability.AIOperationResult{
				Error:      aiErr,
				TokenUsage: (*observability.TokenUsage)(tokenUsage),
			}
		}, om)
		if err != nil {
			span.RecordError(err)
			metrics.RecordBusinessMetric(ctx, "version_added", false, om)
			s.writeAppError(w, err, "Failed to score resume")
			return
		}

		version, err := s.Ledger.AddVersion(ctx, analysis.ID, req.ResumeText, result.Score, req.Notes)
		if err != nil {
			span.RecordError(err)
			metrics.RecordBusinessMetric(ctx, "version_added", false, om)
			s.writeAppError(w, err, "Failed to add version")
			return
		}

		metrics.RecordBusinessMetric(ctx, "version_added", true, om,
			attribute.Int("version.number", version.Number))

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("version.number", version.Number),
			attribute.Int("ats.score", version.Score),
		)

		writeJSONResponse(w, http.StatusCreated, version)
	}
}

// completeAnalysisHandler marks an analysis as completed
func (s *Server) completeAnalysisHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, ok := s.requireUserID(w, r)
		if !ok {
			return
		}

		analysis, err := s.getOwnedAnalysis(ctx, r.PathValue("id"), userID)
		if err != nil {
			s.writeAppError(w, err, "Failed to complete analysis")
			return
		}

		if err := s.Ledger.Complete(ctx, analysis.ID); err != nil {
			s.writeAppError(w, err, "Failed to complete analysis")
			return
		}

		metrics := om.GetMetrics()
		metrics.RecordBusinessMetric(ctx, "analysis_completed", true, om)

		analysis, err = s.Ledger.Get(ctx, analysis.ID)
		if err != nil {
			s.writeAppError(w, err, "Failed to fetch analysis")
			return
		}
		writeJSONResponse(w, http.StatusOK, analysis)
	}
}

// implementSuggestionHandler marks one suggestion as implemented
func (s *Server) implementSuggestionHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, ok := s.requireUserID(w, r)
		if !ok {
			return
		}

		analysis, err := s.getOwnedAnalysis(ctx, r.PathValue("id"), userID)
		if err != nil {
			s.writeAppError(w, err, "Failed to implement suggestion")
			return
		}

		suggestion, err := s.Ledger.ImplementSuggestion(ctx, analysis.ID, r.PathValue("sid"))
		if err != nil {
			s.writeAppError(w, err, "Failed to implement suggestion")
			return
		}

		metrics := om.GetMetrics()
		metrics.RecordBusinessMetric(ctx, "suggestion_implemented", true, om,
			attribute.String("suggestion.category", string(suggestion.Category)))

		writeJSONResponse(w, http.StatusOK, suggestion)
	}
}

// highPrioritySuggestionsHandler returns pending high-priority suggestions
func (s *Server) highPrioritySuggestionsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	analysis, err := s.getOwnedAnalysis(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		s.writeAppError(w, err, "Failed to fetch suggestions")
		return
	}

	suggestions, err := s.Ledger.HighPrioritySuggestions(r.Context(), analysis.ID)
	if err != nil {
		s.writeAppError(w, err, "Failed to fetch suggestions")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"suggestions": suggestions,
	})
}

// usageHandler returns the caller's current quota status
func (s *Server) usageHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	status, err := s.Quota.Status(r.Context(), userID)
	if err != nil {
		s.writeAppError(w, err, "Failed to fetch quota status")
		return
	}

	writeJSONResponse(w, http.StatusOK, status)
}

// analyticsHandler returns aggregate statistics across the caller's analyses
func (s *Server) analyticsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	summary, err := s.Ledger.Analytics(r.Context(), userID)
	if err != nil {
		s.writeAppError(w, err, "Failed to compute analytics")
		return
	}

	writeJSONResponse(w, http.StatusOK, summary)
}

// createRateLimitMiddleware adds observability to rate limiting
func (s *Server) createRateLimitMiddleware(om *observability.ObservabilityManager) func(http.HandlerFunc) http.HandlerFunc {
	originalMiddleware := s.rateLimitMiddleware()

	return func(next http.HandlerFunc) http.HandlerFunc {
		return originalMiddleware(func(w http.ResponseWriter, r *http.Request) {
			// Check if this request was rate limited by examining the response
			// We'll wrap the ResponseWriter to detect rate limit responses
			wrapper := &responseWrapper{ResponseWriter: w, statusCode: 200}

			next(wrapper, r)

			// If rate limited, record metric
			if wrapper.statusCode == http.StatusTooManyRequests {
				metrics := om.GetMetrics()
				metrics.RecordBusinessMetric(r.Context(), "rate_limit_hit", true, om,
					attribute.String("endpoint", r.URL.Path),
					attribute.String("method", r.Method))
			}
		})
	}
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
