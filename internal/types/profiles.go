package types

// StudentProfileRequest is the body of PUT /students/me/profile. Absent fields are left
// unchanged.
type StudentProfileRequest struct {
	FirstName      *string   `json:"first_name,omitempty" validate:"omitempty,min=2,max=100"`
	LastName       *string   `json:"last_name,omitempty" validate:"omitempty,min=2,max=100"`
	University     *string   `json:"university,omitempty" validate:"omitempty,max=200"`
	ShortBio       *string   `json:"short_bio,omitempty" validate:"omitempty,max=500"`
	DesiredJobRole *string   `json:"desired_job_role,omitempty" validate:"omitempty,max=100"`
	LinkedinURL    *string   `json:"linkedin_url,omitempty" validate:"omitempty,max=500"`
	GithubURL      *string   `json:"github_url,omitempty" validate:"omitempty,max=500"`
	PortfolioURL   *string   `json:"portfolio_url,omitempty" validate:"omitempty,max=500"`
	Skills         *[]string `json:"skills,omitempty" validate:"omitempty,max=100"`
	Technologies   *[]string `json:"technologies,omitempty" validate:"omitempty,max=100"`
}

// Validate validates the StudentProfileRequest.
func (r *StudentProfileRequest) Validate() error {
	return validate.Struct(r)
}

// EnterpriseProfileRequest is the body of PUT /enterprises/me/profile.
type EnterpriseProfileRequest struct {
	CompanyName        *string   `json:"company_name,omitempty" validate:"omitempty,min=2,max=200"`
	Industry           *string   `json:"industry,omitempty" validate:"omitempty,min=2,max=100"`
	Location           *string   `json:"location,omitempty" validate:"omitempty,max=200"`
	EmployeeCount      *string   `json:"employee_count,omitempty" validate:"omitempty,max=50"`
	CompanyDescription *string   `json:"company_description,omitempty" validate:"omitempty,max=2000"`
	TechnologiesUsed   *[]string `json:"technologies_used,omitempty" validate:"omitempty,max=100"`
	Website            *string   `json:"website,omitempty" validate:"omitempty,max=500"`
	LinkedinURL        *string   `json:"linkedin_url,omitempty" validate:"omitempty,max=500"`
	FoundedYear        *int      `json:"founded_year,omitempty" validate:"omitempty,min=1800,max=2100"`
}

// Validate validates the EnterpriseProfileRequest.
func (r *EnterpriseProfileRequest) Validate() error {
	return validate.Struct(r)
}

// ExtractedResume is what resume parsing found in a document.
type ExtractedResume struct {
	GithubURL    string   `json:"github_url,omitempty"`
	LinkedinURL  string   `json:"linkedin_url,omitempty"`
	Skills       []string `json:"skills"`
	Technologies []string `json:"technologies"`
}

// ResumeUploadResponse is returned by POST /students/me/resume.
type ResumeUploadResponse struct {
	Message       string           `json:"message"`
	ResumeURL     string           `json:"resume_url"`
	ParsingStatus string           `json:"parsing_status"`
	ExtractedData *ExtractedResume `json:"extracted_data,omitempty"`
}

// UploadResponse is returned by picture and logo uploads.
type UploadResponse struct {
	Message string `json:"message"`
	URL     string `json:"url"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}
