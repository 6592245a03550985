package entity

import "time"

// ProjectField is the category a project post belongs to.
type ProjectField string

const (
	FieldAI       ProjectField = "Artificial Intelligence"
	FieldFintech  ProjectField = "Fintech"
	FieldEdTech   ProjectField = "EdTech"
	FieldHealth   ProjectField = "HealthTech"
	FieldSocial   ProjectField = "Social"
	FieldCrypto   ProjectField = "Web3 / Crypto"
	FieldConsumer ProjectField = "Consumer App"
	FieldOther    ProjectField = "Other"
)

// ProjectStage describes how far along a project is.
type ProjectStage string

const (
	StageIdea       ProjectStage = "Idea Phase"
	StageMVP        ProjectStage = "MVP Ready"
	StageEarlyUsers ProjectStage = "Early Users"
	StageRevenue    ProjectStage = "Generating Revenue"
	StageScaling    ProjectStage = "Scaling"
)

// ProjectPost is a co-founder / talent opportunity posted on the board.
// FounderName links back to the author's public profile for display; it is a
// display-name reference, not a foreign key.
type ProjectPost struct {
	ID           string       `json:"id"`
	FounderName  string       `json:"founder_name"`
	ProjectName  string       `json:"project_name"`
	PostedDate   time.Time    `json:"posted_date"`
	Deadline     string       `json:"deadline,omitempty"`
	Description  string       `json:"description"`
	ImageURL     string       `json:"image_url,omitempty"`
	Field        ProjectField `json:"field"`
	Stage        ProjectStage `json:"stage"`
	Compensation string       `json:"compensation,omitempty"`
	Roles        []string     `json:"roles,omitempty"`
}
