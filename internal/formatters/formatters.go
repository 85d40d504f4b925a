package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"cvsnap/internal/types"
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
	registry.RegisterFormatter("text", "MatchReport", &ReportTextFormatter{})
	registry.RegisterFormatter("markdown", "MatchReport", &ReportMarkdownFormatter{})

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
	case types.MatchReport, *types.MatchReport:
		return "MatchReport"
	default:
		return "any"
	}
}

func asReport(data any) (*types.MatchReport, bool) {
	switch v := data.(type) {
	case types.MatchReport:
		return &v, true
	case *types.MatchReport:
		return v, true
	default:
		return nil, false
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

// ReportTextFormatter handles text formatting for match reports
type ReportTextFormatter struct{}

func (rtf *ReportTextFormatter) Format(data any) (string, error) {
	report, ok := asReport(data)
	if !ok {
		return "", fmt.Errorf("expected MatchReport, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== CANDIDATE MATCH REPORT ===\n\n")
	output.WriteString(fmt.Sprintf("Job: %s (%s)\n", report.JobInfo.Title, report.JobID))
	if report.JobInfo.ExperienceLevel != "" {
		output.WriteString(fmt.Sprintf("Experience Level: %s\n", report.JobInfo.ExperienceLevel))
	}
	output.WriteString(fmt.Sprintf("Required Skills: %d\n", report.JobInfo.TotalRequiredSkills))
	output.WriteString(fmt.Sprintf("Resumes: %d submitted, %d processed\n", report.TotalResumes, report.SuccessfullyProcessed))
	output.WriteString(fmt.Sprintf("Processing Time: %.2fs\n\n", report.ProcessingTime))

	if len(report.RankedCandidates) > 0 {
		output.WriteString("=== RANKED CANDIDATES ===\n\n")
		for i, candidate := range report.RankedCandidates {
			output.WriteString(fmt.Sprintf("%d. %s", i+1, candidate.Name))
			if candidate.Email != "" {
				output.WriteString(fmt.Sprintf(" <%s>", candidate.Email))
			}
			output.WriteString("\n")
			output.WriteString(fmt.Sprintf("   Score: %.1f/100\n", candidate.MatchScore))
			output.WriteString(fmt.Sprintf("   Skill Coverage: %.1f%% (%d of %d required)\n",
				candidate.SkillCoverage, len(candidate.MatchedSkills), candidate.TotalRequiredSkills))
			if len(candidate.MatchedSkills) > 0 {
				output.WriteString(fmt.Sprintf("   Matched Skills: %s\n", strings.Join(candidate.MatchedSkills, ", ")))
			}
			output.WriteString("   ")
			output.WriteString(candidate.Explanation)
			output.WriteString("\n\n")
		}
	} else {
		output.WriteString("No candidates could be ranked.\n\n")
	}

	if len(report.ProcessingErrors) > 0 {
		output.WriteString("=== PROCESSING ERRORS ===\n\n")
		for _, procErr := range report.ProcessingErrors {
			output.WriteString(fmt.Sprintf("- %s (%s): %s\n", procErr.Filename, procErr.Kind, procErr.Error))
		}
	}

	return output.String(), nil
}

func (rtf *ReportTextFormatter) SupportedType() string {
	return "MatchReport"
}

// ReportMarkdownFormatter handles markdown formatting for match reports
type ReportMarkdownFormatter struct{}

func (rmf *ReportMarkdownFormatter) Format(data any) (string, error) {
	report, ok := asReport(data)
	if !ok {
		return "", fmt.Errorf("expected MatchReport, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Candidate Match Report\n\n")
	output.WriteString(fmt.Sprintf("**Job:** %s (`%s`)\n\n", report.JobInfo.Title, report.JobID))
	if report.JobInfo.ExperienceLevel != "" {
		output.WriteString(fmt.Sprintf("**Experience Level:** %s\n\n", report.JobInfo.ExperienceLevel))
	}
	output.WriteString(fmt.Sprintf("**Required Skills:** %d\n\n", report.JobInfo.TotalRequiredSkills))
	output.WriteString(fmt.Sprintf("**Resumes:** %d submitted, %d processed\n\n", report.TotalResumes, report.SuccessfullyProcessed))
	output.WriteString(fmt.Sprintf("**Processing Time:** %.2fs\n\n", report.ProcessingTime))

	if len(report.RankedCandidates) > 0 {
		output.WriteString("## Ranked Candidates\n\n")
		for i, candidate := range report.RankedCandidates {
			output.WriteString(fmt.Sprintf("### %d. %s\n\n", i+1, candidate.Name))
			if candidate.Email != "" {
				output.WriteString(fmt.Sprintf("**Email:** %s\n\n", candidate.Email))
			}
			output.WriteString(fmt.Sprintf("**Score:** %.1f/100\n\n", candidate.MatchScore))
			output.WriteString(fmt.Sprintf("**Skill Coverage:** %.1f%% (%d of %d required)\n\n",
				candidate.SkillCoverage, len(candidate.MatchedSkills), candidate.TotalRequiredSkills))
			if len(candidate.MatchedSkills) > 0 {
				output.WriteString(fmt.Sprintf("**Matched Skills:** %s\n\n", strings.Join(candidate.MatchedSkills, ", ")))
			}
			output.WriteString(candidate.Explanation)
			output.WriteString("\n\n")
		}
	} else {
		output.WriteString("## No Candidates Ranked\n\nNo resumes could be processed successfully.\n\n")
	}

	if len(report.ProcessingErrors) > 0 {
		output.WriteString("## Processing Errors\n\n")
		for _, procErr := range report.ProcessingErrors {
			output.WriteString(fmt.Sprintf("- `%s` (%s): %s\n", procErr.Filename, procErr.Kind, procErr.Error))
		}
	}

	return output.String(), nil
}

func (rmf *ReportMarkdownFormatter) SupportedType() string {
	return "MatchReport"
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
