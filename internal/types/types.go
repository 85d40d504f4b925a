package types

// SkillImportance classifies how strongly a job asks for a skill
type SkillImportance string

const (
	ImportanceRequired  SkillImportance = "required"
	ImportancePreferred SkillImportance = "preferred"
)

// MatchMode records how a candidate skill satisfied a requirement
type MatchMode string

const (
	MatchExact    MatchMode = "exact"
	MatchAlias    MatchMode = "alias"
	MatchSemantic MatchMode = "semantic"
)

// JobStatus tracks an analysis job through its lifecycle
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobExtracting JobStatus = "extracting"
	JobScoring    JobStatus = "scoring"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Requirement is one skill a job asks for, keyed by canonical name
type Requirement struct {
	Skill      string          `json:"skill"` // canonical name
	Importance SkillImportance `json:"importance"`
	MinYears   float64         `json:"minYears,omitempty"`
}

// JobRequirements is the structured requirement set extracted from a job description
type JobRequirements struct {
	JobID        string        `json:"jobId"`
	Title        string        `json:"title"`
	Requirements []Requirement `json:"requirements"`
	Seniority    string        `json:"seniority"`
	MinYears     float64       `json:"minYears"` // 0 means no stated minimum
}

// RequiredCount returns the number of required (not preferred) skills
func (j JobRequirements) RequiredCount() int {
	n := 0
	for _, r := range j.Requirements {
		if r.Importance == ImportanceRequired {
			n++
		}
	}
	return n
}

// SkillMention is one skill extracted from a resume with its supporting evidence
type SkillMention struct {
	Skill      string  `json:"skill"` // canonical name
	Confidence float64 `json:"confidence"`
	Evidence   string  `json:"evidence,omitempty"`
}

// CandidateProfile is the structured view of one resume.
// It is created once per successfully parsed resume and never mutated
// within a job; re-analysis creates a new profile.
type CandidateProfile struct {
	CandidateID     string         `json:"candidateId"`
	Name            string         `json:"name"`
	Email           string         `json:"email"`
	SourceFile      string         `json:"sourceFile"`
	Skills          []SkillMention `json:"skills"`
	ExperienceYears float64        `json:"experienceYears"`
	Seniority       string         `json:"seniority"`
}

// HasSkill reports whether the profile mentions the canonical skill name
func (c CandidateProfile) HasSkill(canonical string) bool {
	for _, s := range c.Skills {
		if s.Skill == canonical {
			return true
		}
	}
	return false
}

// MatchEdge relates a candidate to one requirement it covers
type MatchEdge struct {
	CandidateID string    `json:"candidateId"`
	Skill       string    `json:"skill"` // requirement's canonical name
	Weight      float64   `json:"weight"`
	Mode        MatchMode `json:"mode"`
}

// Coverage is the scorer's view of which requirements a candidate meets
type Coverage struct {
	Matched []Requirement `json:"matched"`
	Missing []Requirement `json:"missing"`
}

// ScoreBreakdown holds every term of one candidate's score.
// final_score is always derivable from the other fields alone.
type ScoreBreakdown struct {
	CandidateID         string  `json:"candidateId"`
	SkillCoveragePct    float64 `json:"skillCoveragePct"`
	MatchedCount        int     `json:"matchedCount"`
	TotalRequired       int     `json:"totalRequired"`
	SemanticSimilarity  float64 `json:"semanticSimilarity"`
	ExperienceAlignment float64 `json:"experienceAlignment"`
	FinalScore          float64 `json:"finalScore"`
}

// ProcessingError records one resume that could not be processed
type ProcessingError struct {
	Filename string `json:"filename"`
	Kind     string `json:"kind"`
	Error    string `json:"error"`
}

// JobInfo summarizes the analyzed job for the report header
type JobInfo struct {
	Title               string `json:"title"`
	TotalRequiredSkills int    `json:"total_required_skills"`
	ExperienceLevel     string `json:"experience_level"`
}

// RankedCandidate is one entry of the final ranking
type RankedCandidate struct {
	CandidateID         string   `json:"candidate_id"`
	Name                string   `json:"name"`
	Email               string   `json:"email"`
	MatchScore          float64  `json:"match_score"`
	SkillCoverage       float64  `json:"skill_coverage"`
	MatchedSkills       []string `json:"matched_skills"`
	TotalRequiredSkills int      `json:"total_required_skills"`
	Explanation         string   `json:"explanation"`
}

// MatchReport is the full analysis result for one job
type MatchReport struct {
	JobID                 string            `json:"job_id"`
	JobInfo               JobInfo           `json:"job_info"`
	TotalResumes          int               `json:"total_resumes"`
	SuccessfullyProcessed int               `json:"successfully_processed"`
	ProcessingErrors      []ProcessingError `json:"processing_errors"`
	RankedCandidates      []RankedCandidate `json:"ranked_candidates"`
	ProcessingTime        float64           `json:"processing_time"` // seconds
}
