package model

// Go models matching the embedded schemas in schemas/. The agents decode
// validated JSON values into these types and encode them back into the
// pipeline document.

type Link struct {
	URL   string `json:"url"`
	Label string `json:"label,omitempty"`
}

type Contact struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Location string `json:"location,omitempty"`
	Links    []Link `json:"links,omitempty"`
}

type Experience struct {
	Company   string   `json:"company"`
	Role      string   `json:"role"`
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
	Bullets   []string `json:"bullets"`
}

type Resume struct {
	Summary        string       `json:"summary"`
	Contact        *Contact     `json:"contact,omitempty"`
	Experience     []Experience `json:"experience"`
	Skills         []string     `json:"skills"`
	Education      []string     `json:"education"`
	Certifications []string     `json:"certifications"`
}

// Seniority levels accepted by job_description.schema.json.
const (
	SeniorityJunior = "junior"
	SeniorityMid    = "mid"
	SenioritySenior = "senior"
	SeniorityLead   = "lead"
)

type JobDescription struct {
	Title            string   `json:"title"`
	RequiredSkills   []string `json:"required_skills"`
	PreferredSkills  []string `json:"preferred_skills"`
	Seniority        string   `json:"seniority"`
	Responsibilities []string `json:"responsibilities"`
	Keywords         []string `json:"keywords"`
}

type StructuralAssessment struct {
	Score                     float64  `json:"score"`
	Readability               string   `json:"readability"`
	FormattingRecommendations []string `json:"formattingRecommendations"`
	Suggestions               []string `json:"suggestions"`
}

type ContentAnalysis struct {
	Strengths             []string `json:"strengths"`
	Gaps                  []string `json:"gaps"`
	SkillImprovements     []string `json:"skillImprovements"`
	QuantifiedImpactScore float64  `json:"quantifiedImpactScore"`
	HallucinationRisk     float64  `json:"hallucinationRisk"`
	Confidence            float64  `json:"confidence"`
}

// Governance is the audit verdict on the content analysis.
type Governance struct {
	Status           string   `json:"status"`
	Flags            []string `json:"flags"`
	QuantifiedClaims int      `json:"quantifiedClaims"`
}

type Alignment struct {
	OverallScore     float64  `json:"overallScore"`
	MatchingKeywords []string `json:"matchingKeywords"`
	MissingKeywords  []string `json:"missingKeywords"`
	RoleFitAnalysis  string   `json:"roleFitAnalysis"`
}

type InterviewQuestion struct {
	Question  string `json:"question"`
	Rationale string `json:"rationale"`
}

type InterviewPrep struct {
	Questions  []InterviewQuestion `json:"questions"`
	FocusAreas []string            `json:"focusAreas"`
}

// Document is the evolving value handed from stage to stage. Sections are
// filled in as the agents run; later stages require earlier sections.
type Document struct {
	Resume               *Resume               `json:"resume,omitempty"`
	JobDescription       *JobDescription       `json:"jobDescription,omitempty"`
	StructuralAssessment *StructuralAssessment `json:"structuralAssessment,omitempty"`
	ContentAnalysis      *ContentAnalysis      `json:"contentAnalysis,omitempty"`
	Governance           *Governance           `json:"governance,omitempty"`
	Alignment            *Alignment            `json:"alignment,omitempty"`
	InterviewPrep        *InterviewPrep        `json:"interviewPrep,omitempty"`
}
