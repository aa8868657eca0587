package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"resumetrack/internal/errors"
	"resumetrack/internal/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// initialVersionNotes is stamped on the version created with the record.
	initialVersionNotes = "Initial analysis"

	// defaultJobTitle fills in when the caller (or scorer) supplies none.
	defaultJobTitle = "Untitled Position"
)

// Service creates and evolves analysis records. It is stateless over the
// database handle: every operation fetches, mutates, and writes back inside
// its own transaction, with row locks where two writers could race.
type Service struct {
	DB    *gorm.DB
	Now   func() time.Time
	NewID func() string
}

// NewService creates a ledger service over the given database handle.
func NewService(db *gorm.DB) *Service {
	return &Service{DB: db, Now: time.Now, NewID: uuid.NewString}
}

// SuggestionInput is one suggestion supplied at creation time.
type SuggestionInput struct {
	Category types.SuggestionCategory
	Priority types.SuggestionPriority
	Text     string
}

// CreateInput carries everything needed to open a new analysis record.
// Score and Suggestions come from the external scorer; the ledger never
// computes them.
type CreateInput struct {
	UserID         string
	JobTitle       string
	JobDescription string
	ResumeText     string
	Score          int
	Suggestions    []SuggestionInput
}

func validateScore(score int) error {
	if score < 0 || score > 100 {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("score must be within [0,100], got %d", score), nil)
	}
	return nil
}

func (in *CreateInput) validate() error {
	if strings.TrimSpace(in.UserID) == "" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"user id is required", nil)
	}
	if strings.TrimSpace(in.JobDescription) == "" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"job description is required", nil)
	}
	if strings.TrimSpace(in.ResumeText) == "" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"resume text is required", nil)
	}
	if err := validateScore(in.Score); err != nil {
		return err
	}
	for i, s := range in.Suggestions {
		if !types.ValidCategory(s.Category) {
			return errors.NewValidationError(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("suggestion %d has unknown category %q", i, s.Category), nil)
		}
		if s.Priority != "" && !types.ValidPriority(s.Priority) {
			return errors.NewValidationError(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("suggestion %d has unknown priority %q", i, s.Priority), nil)
		}
		if strings.TrimSpace(s.Text) == "" {
			return errors.NewValidationError(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("suggestion %d has empty text", i), nil)
		}
	}
	return nil
}

// Create opens a new analysis record. The record, its first version, and its
// suggestions commit in one transaction, so no reader can ever observe an
// analysis with an empty version list.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Analysis, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := s.Now()
	jobTitle := strings.TrimSpace(in.JobTitle)
	if jobTitle == "" {
		jobTitle = defaultJobTitle
	}

	a := &Analysis{
		ID:             s.NewID(),
		UserID:         in.UserID,
		JobTitle:       jobTitle,
		JobDescription: strings.TrimSpace(in.JobDescription),
		ResumeText:     in.ResumeText,
		Score:          in.Score,
		Status:         StatusInProgress,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	a.Versions = []Version{{
		ID:         s.NewID(),
		AnalysisID: a.ID,
		Number:     1,
		ResumeText: in.ResumeText,
		Score:      in.Score,
		Timestamp:  now,
		Notes:      initialVersionNotes,
	}}

	for _, sg := range in.Suggestions {
		priority := sg.Priority
		if priority == "" {
			priority = types.PriorityMedium
		}
		a.Suggestions = append(a.Suggestions, Suggestion{
			ID:         s.NewID(),
			AnalysisID: a.ID,
			Category:   sg.Category,
			Priority:   priority,
			Text:       strings.TrimSpace(sg.Text),
			CreatedAt:  now,
		})
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(a).Error
	})
	if err != nil {
		return nil, wrapStorageErr(err, "analysis create failed")
	}
	return a, nil
}

// AddVersion appends a new snapshot to the analysis's lineage and mirrors
// the new text and score onto the record. The analysis row is locked for the
// duration so concurrent appends serialize and version numbers stay dense.
func (s *Service) AddVersion(ctx context.Context, analysisID, resumeText string, score int, notes string) (*Version, error) {
	if strings.TrimSpace(resumeText) == "" {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"resume text is required", nil)
	}
	if err := validateScore(score); err != nil {
		return nil, err
	}

	now := s.Now()
	var created Version

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := lockAnalysis(tx, analysisID)
		if err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&Version{}).Where("analysis_id = ?", a.ID).Count(&count).Error; err != nil {
			return err
		}

		created = Version{
			ID:         s.NewID(),
			AnalysisID: a.ID,
			Number:     int(count) + 1,
			ResumeText: resumeText,
			Score:      score,
			Timestamp:  now,
			Notes:      notes,
		}
		if err := tx.Create(&created).Error; err != nil {
			return err
		}

		return tx.Model(&Analysis{}).Where("id = ?", a.ID).Updates(map[string]any{
			"resume_text": resumeText,
			"score":       score,
			"updated_at":  now,
		}).Error
	})
	if err != nil {
		return nil, passDomainErr(err, "version append failed")
	}
	return &created, nil
}

// Complete marks the analysis completed. Completion is one-way: a second
// call is rejected with an AlreadyCompleted conflict rather than treated as
// a no-op, so callers learn they raced.
func (s *Service) Complete(ctx context.Context, analysisID string) error {
	now := s.Now()

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := lockAnalysis(tx, analysisID)
		if err != nil {
			return err
		}
		if a.Status == StatusCompleted {
			return errors.NewConflictError(errors.ErrCodeAlreadyCompleted,
				"analysis is already completed", nil).
				WithContext("analysis_id", analysisID)
		}
		return tx.Model(&Analysis{}).Where("id = ?", a.ID).Updates(map[string]any{
			"status":       StatusCompleted,
			"completed_at": now,
			"updated_at":   now,
		}).Error
	})
	return passDomainErr(err, "analysis completion failed")
}

// ImplementSuggestion flags the suggestion as implemented and returns it.
func (s *Service) ImplementSuggestion(ctx context.Context, analysisID, suggestionID string) (*Suggestion, error) {
	now := s.Now()
	var out Suggestion

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockAnalysis(tx, analysisID); err != nil {
			return err
		}

		err := tx.Where("id = ? AND analysis_id = ?", suggestionID, analysisID).First(&out).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.NewNotFoundError(errors.ErrCodeSuggestionNotFound,
					"suggestion not found", nil).
					WithContext("suggestion_id", suggestionID)
			}
			return err
		}

		out.Implemented = true
		if err := tx.Model(&Suggestion{}).Where("id = ?", out.ID).
			Update("implemented", true).Error; err != nil {
			return err
		}
		return tx.Model(&Analysis{}).Where("id = ?", analysisID).
			Update("updated_at", now).Error
	})
	if err != nil {
		return nil, passDomainErr(err, "suggestion update failed")
	}
	return &out, nil
}

// Get loads a full analysis record with its versions (in lineage order) and
// suggestions.
func (s *Service) Get(ctx context.Context, analysisID string) (*Analysis, error) {
	var a Analysis
	err := s.DB.WithContext(ctx).
		Preload("Versions", func(db *gorm.DB) *gorm.DB { return db.Order("number ASC") }).
		Preload("Suggestions").
		Where("id = ?", analysisID).
		First(&a).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, notFound(analysisID)
		}
		return nil, wrapStorageErr(err, "analysis read failed")
	}
	return &a, nil
}

// HighPrioritySuggestions returns the unimplemented High-priority
// suggestions for an analysis, sorted by category name.
func (s *Service) HighPrioritySuggestions(ctx context.Context, analysisID string) ([]Suggestion, error) {
	if err := s.ensureExists(ctx, analysisID); err != nil {
		return nil, err
	}

	var suggestions []Suggestion
	err := s.DB.WithContext(ctx).Where("analysis_id = ?", analysisID).Find(&suggestions).Error
	if err != nil {
		return nil, wrapStorageErr(err, "suggestion read failed")
	}
	return HighPriorityPending(suggestions), nil
}

// Summary returns the condensed view of one analysis.
func (s *Service) Summary(ctx context.Context, analysisID string) (Summary, error) {
	a, err := s.Get(ctx, analysisID)
	if err != nil {
		return Summary{}, err
	}
	return BuildSummary(a), nil
}

// ListForUser returns one page of a user's analyses, newest first.
func (s *Service) ListForUser(ctx context.Context, userID string, page, pageSize int) ([]Analysis, Pagination, error) {
	if page < 1 {
		return nil, Pagination{}, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("page must be >= 1, got %d", page), nil)
	}
	if pageSize < 1 {
		return nil, Pagination{}, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("pageSize must be >= 1, got %d", pageSize), nil)
	}

	var total int64
	if err := s.DB.WithContext(ctx).Model(&Analysis{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, Pagination{}, wrapStorageErr(err, "analysis count failed")
	}

	var analyses []Analysis
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&analyses).Error
	if err != nil {
		return nil, Pagination{}, wrapStorageErr(err, "analysis list failed")
	}

	return analyses, Paginate(int(total), page, pageSize, len(analyses)), nil
}

// Analytics aggregates all of a user's analyses.
func (s *Service) Analytics(ctx context.Context, userID string) (AnalyticsSummary, error) {
	var analyses []Analysis
	err := s.DB.WithContext(ctx).
		Select("id", "score", "status").
		Where("user_id = ?", userID).
		Find(&analyses).Error
	if err != nil {
		return AnalyticsSummary{}, wrapStorageErr(err, "analytics read failed")
	}
	return ComputeAnalytics(analyses), nil
}

// Delete removes the record and its versions and suggestions in one
// transaction. This is full removal, not a state transition.
func (s *Service) Delete(ctx context.Context, analysisID string) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockAnalysis(tx, analysisID); err != nil {
			return err
		}
		if err := tx.Where("analysis_id = ?", analysisID).Delete(&Suggestion{}).Error; err != nil {
			return err
		}
		if err := tx.Where("analysis_id = ?", analysisID).Delete(&Version{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", analysisID).Delete(&Analysis{}).Error
	})
	return passDomainErr(err, "analysis delete failed")
}

func (s *Service) ensureExists(ctx context.Context, analysisID string) error {
	var count int64
	err := s.DB.WithContext(ctx).Model(&Analysis{}).Where("id = ?", analysisID).Count(&count).Error
	if err != nil {
		return wrapStorageErr(err, "analysis read failed")
	}
	if count == 0 {
		return notFound(analysisID)
	}
	return nil
}

// lockAnalysis fetches the analysis row FOR UPDATE so write operations on
// the same record serialize.
func lockAnalysis(tx *gorm.DB, analysisID string) (*Analysis, error) {
	var a Analysis
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", analysisID).
		First(&a).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, notFound(analysisID)
		}
		return nil, err
	}
	return &a, nil
}

func notFound(analysisID string) error {
	return errors.NewNotFoundError(errors.ErrCodeAnalysisNotFound,
		"analysis not found", nil).
		WithContext("analysis_id", analysisID)
}

// passDomainErr keeps domain errors intact and wraps everything else as a
// storage failure, so callers can tell a denied request from an unreachable
// backend.
func passDomainErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	switch errors.TypeOf(err) {
	case errors.ErrorTypeNotFound, errors.ErrorTypeConflict, errors.ErrorTypeValidation, errors.ErrorTypeQuota:
		return err
	}
	return wrapStorageErr(err, msg)
}

func wrapStorageErr(err error, msg string) error {
	return errors.NewStorageError(errors.ErrCodeStorageUnavailable,
		fmt.Sprintf("%s: %v", msg, err), err)
}
