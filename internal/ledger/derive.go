package ledger

import (
	"math"
	"sort"

	"resumetrack/internal/types"
)

// CurrentVersion is the number of versions an analysis has accumulated.
func CurrentVersion(a *Analysis) int {
	return len(a.Versions)
}

// ScoreImprovement is the current score minus the first version's score,
// defined as 0 when fewer than two versions exist. It may be negative.
func ScoreImprovement(a *Analysis) int {
	if len(a.Versions) < 2 {
		return 0
	}
	first := a.Versions[0]
	for _, v := range a.Versions[1:] {
		if v.Number < first.Number {
			first = v
		}
	}
	return a.Score - first.Score
}

// HighPriorityPending returns the High-priority suggestions that have not
// been implemented, sorted by category name ascending. The result is derived
// fresh from the input on every call.
func HighPriorityPending(suggestions []Suggestion) []Suggestion {
	out := make([]Suggestion, 0, len(suggestions))
	for _, s := range suggestions {
		if s.Priority == types.PriorityHigh && !s.Implemented {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Category < out[j].Category
	})
	return out
}

// BuildSummary condenses a fully loaded analysis into its summary view.
func BuildSummary(a *Analysis) Summary {
	high, implemented := 0, 0
	for _, s := range a.Suggestions {
		if s.Priority == types.PriorityHigh {
			high++
		}
		if s.Implemented {
			implemented++
		}
	}

	return Summary{
		ID:                      a.ID,
		JobTitle:                a.JobTitle,
		Score:                   a.Score,
		Status:                  a.Status,
		CreatedAt:               a.CreatedAt,
		UpdatedAt:               a.UpdatedAt,
		CompletedAt:             a.CompletedAt,
		VersionCount:            len(a.Versions),
		HighPrioritySuggestions: high,
		ImplementedSuggestions:  implemented,
		TotalSuggestions:        len(a.Suggestions),
		ScoreImprovement:        ScoreImprovement(a),
	}
}

// Paginate computes pagination metadata for a page of pageSize items out of
// total, with 1-based page numbers. fetched is the number of items actually
// returned for the page.
func Paginate(total, page, pageSize, fetched int) Pagination {
	totalPages := 0
	if total > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	offset := (page - 1) * pageSize
	return Pagination{
		CurrentPage:   page,
		TotalPages:    totalPages,
		TotalAnalyses: total,
		HasMore:       offset+fetched < total,
	}
}

// ComputeAnalytics aggregates a user's analyses. A user with none gets all
// zeros, which is a defined result rather than an error.
func ComputeAnalytics(analyses []Analysis) AnalyticsSummary {
	out := AnalyticsSummary{TotalAnalyses: len(analyses)}
	if len(analyses) == 0 {
		return out
	}

	sum := 0
	out.HighestScore = analyses[0].Score
	out.LowestScore = analyses[0].Score
	for _, a := range analyses {
		sum += a.Score
		if a.Score > out.HighestScore {
			out.HighestScore = a.Score
		}
		if a.Score < out.LowestScore {
			out.LowestScore = a.Score
		}
		switch a.Status {
		case StatusCompleted:
			out.CompletedAnalyses++
		default:
			out.InProgressAnalyses++
		}
	}

	avg := float64(sum) / float64(len(analyses))
	out.AverageScore = math.Round(avg*10) / 10
	return out
}
