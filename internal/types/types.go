package types

// SuggestionCategory is the fixed set of categories a scorer may assign
// to an improvement suggestion.
type SuggestionCategory string

const (
	CategoryKeywords       SuggestionCategory = "Keywords"
	CategoryFormatting     SuggestionCategory = "Formatting"
	CategoryExperience     SuggestionCategory = "Experience"
	CategorySkills         SuggestionCategory = "Skills"
	CategoryEducation      SuggestionCategory = "Education"
	CategorySummary        SuggestionCategory = "Summary"
	CategoryActionVerbs    SuggestionCategory = "Action Verbs"
	CategoryQuantification SuggestionCategory = "Quantification"
	CategoryOther          SuggestionCategory = "Other"
)

// SuggestionCategories lists every valid category, in declaration order.
var SuggestionCategories = []SuggestionCategory{
	CategoryKeywords,
	CategoryFormatting,
	CategoryExperience,
	CategorySkills,
	CategoryEducation,
	CategorySummary,
	CategoryActionVerbs,
	CategoryQuantification,
	CategoryOther,
}

// SuggestionPriority ranks how urgent a suggestion is.
type SuggestionPriority string

const (
	PriorityHigh   SuggestionPriority = "High"
	PriorityMedium SuggestionPriority = "Medium"
	PriorityLow    SuggestionPriority = "Low"
)

// SuggestionPriorities lists every valid priority.
var SuggestionPriorities = []SuggestionPriority{PriorityHigh, PriorityMedium, PriorityLow}

// ValidCategory reports whether c is one of the fixed suggestion categories.
func ValidCategory(c SuggestionCategory) bool {
	for _, v := range SuggestionCategories {
		if v == c {
			return true
		}
	}
	return false
}

// ValidPriority reports whether p is one of the fixed priorities.
func ValidPriority(p SuggestionPriority) bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// ScoreResumeInput represents the input for scoring a resume against a job description
type ScoreResumeInput struct {
	ResumeText     string `json:"resumeText"`
	JobDescription string `json:"jobDescription"`
}

// ScoredSuggestion is one improvement suggestion produced by the scorer.
type ScoredSuggestion struct {
	Category SuggestionCategory `json:"category"`
	Priority SuggestionPriority `json:"priority"`
	Text     string             `json:"text"`
}

// ScoreResumeOutput represents the scorer's verdict: an ATS-style score in
// [0,100], a best-effort job title extracted from the posting, and a list of
// categorized suggestions.
type ScoreResumeOutput struct {
	Score       int                `json:"score"`
	JobTitle    string             `json:"jobTitle"`
	Strengths   string             `json:"strengths"`
	Weaknesses  string             `json:"weaknesses"`
	Suggestions []ScoredSuggestion `json:"suggestions"`
}
