package ledger

import (
	"testing"
	"time"

	"resumetrack/internal/errors"
	"resumetrack/internal/types"
)

func TestScoreImprovement(t *testing.T) {
	tests := []struct {
		name     string
		score    int
		versions []Version
		want     int
	}{
		{
			name:     "single version",
			score:    70,
			versions: []Version{{Number: 1, Score: 70}},
			want:     0,
		},
		{
			name:     "improved over first",
			score:    85,
			versions: []Version{{Number: 1, Score: 60}, {Number: 2, Score: 85}},
			want:     25,
		},
		{
			name:     "regressed below first",
			score:    55,
			versions: []Version{{Number: 1, Score: 60}, {Number: 2, Score: 55}},
			want:     -5,
		},
		{
			name:  "versions out of order",
			score: 90,
			versions: []Version{
				{Number: 3, Score: 90},
				{Number: 1, Score: 40},
				{Number: 2, Score: 70},
			},
			want: 50,
		},
		{
			name:     "no versions",
			score:    80,
			versions: nil,
			want:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Analysis{Score: tt.score, Versions: tt.versions}
			if got := ScoreImprovement(a); got != tt.want {
				t.Errorf("ScoreImprovement() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestHighPriorityPending(t *testing.T) {
	suggestions := []Suggestion{
		{ID: "s1", Category: types.CategoryKeywords, Priority: types.PriorityHigh},
		{ID: "s2", Category: types.CategorySkills, Priority: types.PriorityHigh, Implemented: true},
		{ID: "s3", Category: types.CategoryFormatting, Priority: types.PriorityHigh},
		{ID: "s4", Category: types.CategoryExperience, Priority: types.PriorityMedium},
	}

	got := HighPriorityPending(suggestions)
	if len(got) != 2 {
		t.Fatalf("expected 2 pending suggestions, got %d", len(got))
	}
	if got[0].Category != types.CategoryFormatting {
		t.Errorf("first category = %q, want %q", got[0].Category, types.CategoryFormatting)
	}
	if got[1].Category != types.CategoryKeywords {
		t.Errorf("second category = %q, want %q", got[1].Category, types.CategoryKeywords)
	}
}

func TestHighPriorityPendingEmpty(t *testing.T) {
	got := HighPriorityPending(nil)
	if len(got) != 0 {
		t.Errorf("expected empty result, got %d entries", len(got))
	}
}

func TestBuildSummary(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	a := &Analysis{
		ID:        "a1",
		JobTitle:  "Backend Engineer",
		Score:     82,
		Status:    StatusInProgress,
		CreatedAt: now,
		UpdatedAt: now,
		Versions: []Version{
			{Number: 1, Score: 70},
			{Number: 2, Score: 82},
		},
		Suggestions: []Suggestion{
			{Priority: types.PriorityHigh},
			{Priority: types.PriorityHigh, Implemented: true},
			{Priority: types.PriorityLow, Implemented: true},
		},
	}

	got := BuildSummary(a)
	if got.VersionCount != 2 {
		t.Errorf("VersionCount = %d, want 2", got.VersionCount)
	}
	if got.HighPrioritySuggestions != 2 {
		t.Errorf("HighPrioritySuggestions = %d, want 2", got.HighPrioritySuggestions)
	}
	if got.ImplementedSuggestions != 2 {
		t.Errorf("ImplementedSuggestions = %d, want 2", got.ImplementedSuggestions)
	}
	if got.TotalSuggestions != 3 {
		t.Errorf("TotalSuggestions = %d, want 3", got.TotalSuggestions)
	}
	if got.ScoreImprovement != 12 {
		t.Errorf("ScoreImprovement = %d, want 12", got.ScoreImprovement)
	}
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		page     int
		pageSize int
		fetched  int
		want     Pagination
	}{
		{
			name:  "first of three pages",
			total: 25, page: 1, pageSize: 10, fetched: 10,
			want: Pagination{CurrentPage: 1, TotalPages: 3, TotalAnalyses: 25, HasMore: true},
		},
		{
			name:  "last partial page",
			total: 25, page: 3, pageSize: 10, fetched: 5,
			want: Pagination{CurrentPage: 3, TotalPages: 3, TotalAnalyses: 25, HasMore: false},
		},
		{
			name:  "exact page boundary",
			total: 20, page: 2, pageSize: 10, fetched: 10,
			want: Pagination{CurrentPage: 2, TotalPages: 2, TotalAnalyses: 20, HasMore: false},
		},
		{
			name:  "empty result set",
			total: 0, page: 1, pageSize: 10, fetched: 0,
			want: Pagination{CurrentPage: 1, TotalPages: 0, TotalAnalyses: 0, HasMore: false},
		},
		{
			name:  "page past the end",
			total: 5, page: 3, pageSize: 10, fetched: 0,
			want: Pagination{CurrentPage: 3, TotalPages: 1, TotalAnalyses: 5, HasMore: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Paginate(tt.total, tt.page, tt.pageSize, tt.fetched)
			if got != tt.want {
				t.Errorf("Paginate() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestComputeAnalytics(t *testing.T) {
	analyses := []Analysis{
		{Score: 72, Status: StatusCompleted},
		{Score: 85, Status: StatusInProgress},
		{Score: 64, Status: StatusCompleted},
	}

	got := ComputeAnalytics(analyses)
	if got.TotalAnalyses != 3 {
		t.Errorf("TotalAnalyses = %d, want 3", got.TotalAnalyses)
	}
	if got.CompletedAnalyses != 2 || got.InProgressAnalyses != 1 {
		t.Errorf("status counts = %d/%d, want 2/1",
			got.CompletedAnalyses, got.InProgressAnalyses)
	}
	if got.HighestScore != 85 || got.LowestScore != 64 {
		t.Errorf("score range = %d..%d, want 64..85", got.LowestScore, got.HighestScore)
	}
	// (72+85+64)/3 = 73.666..., rounded to one decimal.
	if got.AverageScore != 73.7 {
		t.Errorf("AverageScore = %v, want 73.7", got.AverageScore)
	}
}

func TestComputeAnalyticsEmpty(t *testing.T) {
	got := ComputeAnalytics(nil)
	want := AnalyticsSummary{}
	if got != want {
		t.Errorf("ComputeAnalytics(nil) = %+v, want all zeros", got)
	}
}

func TestCreateInputValidation(t *testing.T) {
	valid := func() CreateInput {
		return CreateInput{
			UserID:         "u1",
			JobDescription: "Go engineer role",
			ResumeText:     "resume body",
			Score:          75,
			Suggestions: []SuggestionInput{
				{Category: types.CategoryKeywords, Priority: types.PriorityHigh, Text: "add Go keywords"},
			},
		}
	}

	tests := []struct {
		name   string
		mutate func(*CreateInput)
	}{
		{"missing user id", func(in *CreateInput) { in.UserID = "  " }},
		{"missing job description", func(in *CreateInput) { in.JobDescription = "" }},
		{"missing resume text", func(in *CreateInput) { in.ResumeText = "" }},
		{"score below range", func(in *CreateInput) { in.Score = -1 }},
		{"score above range", func(in *CreateInput) { in.Score = 101 }},
		{"unknown category", func(in *CreateInput) { in.Suggestions[0].Category = "Vibes" }},
		{"unknown priority", func(in *CreateInput) { in.Suggestions[0].Priority = "Urgent" }},
		{"empty suggestion text", func(in *CreateInput) { in.Suggestions[0].Text = " " }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.mutate(&in)
			err := in.validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !errors.IsType(err, errors.ErrorTypeValidation) {
				t.Errorf("expected validation error type, got %v", errors.TypeOf(err))
			}
		})
	}

	t.Run("valid input passes", func(t *testing.T) {
		in := valid()
		if err := in.validate(); err != nil {
			t.Errorf("expected nil error, got %v", err)
		}
	})

	t.Run("empty priority defaults later", func(t *testing.T) {
		in := valid()
		in.Suggestions[0].Priority = ""
		if err := in.validate(); err != nil {
			t.Errorf("expected nil error for empty priority, got %v", err)
		}
	})
}
