// Package ledger owns the versioned analysis records: creation, append-only
// version lineage, suggestion lifecycle, and the aggregate statistics derived
// from them.
package ledger

import (
	"time"

	"resumetrack/internal/types"
)

// Status is the lifecycle state of an analysis. The only transition is
// in-progress to completed, and it is one-way.
type Status string

const (
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Analysis is one scored resume-against-job record. ResumeText and Score
// mirror the latest version; Versions is append-only and never has fewer
// than one entry once creation has committed.
type Analysis struct {
	ID             string `gorm:"primaryKey;size:36"`
	UserID         string `gorm:"index:idx_analyses_user_created,priority:1;size:64;not null"`
	JobTitle       string `gorm:"size:255"`
	JobDescription string `gorm:"type:text;not null"`
	ResumeText     string `gorm:"type:text;not null"`
	Score          int    `gorm:"not null"`
	Status         Status `gorm:"size:16;not null;default:'in-progress';index"`
	CompletedAt    *time.Time

	Versions    []Version    `gorm:"foreignKey:AnalysisID;constraint:OnDelete:CASCADE"`
	Suggestions []Suggestion `gorm:"foreignKey:AnalysisID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"not null;default:now();index:idx_analyses_user_created,priority:2,sort:desc"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

// TableName pins the table name independent of gorm pluralization rules.
func (Analysis) TableName() string {
	return "analyses"
}

// Version is one immutable snapshot in an analysis's lineage. Number is
// 1-based and assigned at append time, never by the caller.
type Version struct {
	ID         string    `gorm:"primaryKey;size:36"`
	AnalysisID string    `gorm:"index;size:36;not null"`
	Number     int       `gorm:"not null"`
	ResumeText string    `gorm:"type:text;not null"`
	Score      int       `gorm:"not null"`
	Timestamp  time.Time `gorm:"not null"`
	Notes      string    `gorm:"type:text"`
}

func (Version) TableName() string {
	return "analysis_versions"
}

// Suggestion is one categorized improvement suggestion. Only the Implemented
// flag is mutable after creation.
type Suggestion struct {
	ID          string                   `gorm:"primaryKey;size:36"`
	AnalysisID  string                   `gorm:"index;size:36;not null"`
	Category    types.SuggestionCategory `gorm:"size:32;not null"`
	Priority    types.SuggestionPriority `gorm:"size:16;not null;default:'Medium'"`
	Text        string                   `gorm:"type:text;not null"`
	Implemented bool                     `gorm:"not null;default:false"`
	CreatedAt   time.Time                `gorm:"not null;default:now()"`
}

func (Suggestion) TableName() string {
	return "analysis_suggestions"
}

// Summary is the condensed view of one analysis.
type Summary struct {
	ID                      string     `json:"id"`
	JobTitle                string     `json:"jobTitle"`
	Score                   int        `json:"score"`
	Status                  Status     `json:"status"`
	CreatedAt               time.Time  `json:"createdAt"`
	UpdatedAt               time.Time  `json:"updatedAt"`
	CompletedAt             *time.Time `json:"completedAt,omitempty"`
	VersionCount            int        `json:"versionCount"`
	HighPrioritySuggestions int        `json:"highPrioritySuggestions"`
	ImplementedSuggestions  int        `json:"implementedSuggestions"`
	TotalSuggestions        int        `json:"totalSuggestions"`
	ScoreImprovement        int        `json:"scoreImprovement"`
}

// Pagination describes one page of a user's analysis list.
type Pagination struct {
	CurrentPage   int  `json:"currentPage"`
	TotalPages    int  `json:"totalPages"`
	TotalAnalyses int  `json:"totalAnalyses"`
	HasMore       bool `json:"hasMore"`
}

// AnalyticsSummary aggregates every analysis a user owns. All score fields
// are zero for a user with no analyses.
type AnalyticsSummary struct {
	TotalAnalyses      int     `json:"totalAnalyses"`
	CompletedAnalyses  int     `json:"completedAnalyses"`
	InProgressAnalyses int     `json:"inProgressAnalyses"`
	AverageScore       float64 `json:"averageScore"`
	HighestScore       int     `json:"highestScore"`
	LowestScore        int     `json:"lowestScore"`
}
