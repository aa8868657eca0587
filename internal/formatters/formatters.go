package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"resumetrack/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	// Register default formatters
	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "ScoreResumeOutput", &ScoreTextFormatter{})
	registry.RegisterFormatter("markdown", "ScoreResumeOutput", &ScoreMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	// Try specific formatter first
	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.ScoreResumeOutput:
		return "ScoreResumeOutput"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// ScoreTextFormatter handles text formatting for scoring results
type ScoreTextFormatter struct{}

func (stf *ScoreTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.ScoreResumeOutput)
	if !ok {
		return "", fmt.Errorf("expected ScoreResumeOutput, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== ATS SCORE ===\n\n")
	output.WriteString(fmt.Sprintf("Job Title: %s\n", result.JobTitle))
	output.WriteString(fmt.Sprintf("Score: %d/100\n\n", result.Score))

	output.WriteString("Strengths:\n")
	output.WriteString(result.Strengths)
	output.WriteString("\n\n")
	output.WriteString("Weaknesses:\n")
	output.WriteString(result.Weaknesses)
	output.WriteString("\n\n")

	if len(result.Suggestions) > 0 {
		output.WriteString("=== IMPROVEMENT SUGGESTIONS ===\n\n")
		for i, suggestion := range result.Suggestions {
			output.WriteString(fmt.Sprintf("%d. [%s] %s\n", i+1, suggestion.Priority, suggestion.Category))
			output.WriteString("   ")
			output.WriteString(suggestion.Text)
			output.WriteString("\n\n")
		}
	} else {
		output.WriteString("No suggestions.\n")
	}

	return output.String(), nil
}

func (stf *ScoreTextFormatter) SupportedType() string {
	return "ScoreResumeOutput"
}

// ScoreMarkdownFormatter handles markdown formatting for scoring results
type ScoreMarkdownFormatter struct{}

func (smf *ScoreMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.ScoreResumeOutput)
	if !ok {
		return "", fmt.Errorf("expected ScoreResumeOutput, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# ATS Score\n\n")
	output.WriteString(fmt.Sprintf("**Job Title:** %s\n\n", result.JobTitle))
	output.WriteString(fmt.Sprintf("**Score:** %d/100\n\n", result.Score))

	output.WriteString("## Strengths\n")
	output.WriteString(result.Strengths)
	output.WriteString("\n\n")
	output.WriteString("## Weaknesses\n")
	output.WriteString(result.Weaknesses)
	output.WriteString("\n\n")

	if len(result.Suggestions) > 0 {
		output.WriteString("## Improvement Suggestions\n\n")
		for i, suggestion := range result.Suggestions {
			output.WriteString(fmt.Sprintf("### %d. %s (%s priority)\n\n", i+1, suggestion.Category, suggestion.Priority))
			output.WriteString(suggestion.Text)
			output.WriteString("\n\n")
		}
	} else {
		output.WriteString("## No Suggestions\n\nThe resume already matches the job description well.\n")
	}

	return output.String(), nil
}

func (smf *ScoreMarkdownFormatter) SupportedType() string {
	return "ScoreResumeOutput"
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
