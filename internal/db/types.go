package db

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role is the account type of a user.
type Role string

// Roles
const (
	RoleStudent    Role = "student"
	RoleEnterprise Role = "enterprise"
)

// Listing statuses
const (
	ListingOpen   = "open"
	ListingClosed = "closed"
)

// Application statuses
const (
	ApplicationPending     = "pending"
	ApplicationReviewed    = "reviewed"
	ApplicationShortlisted = "shortlisted"
	ApplicationInterview   = "interview"
	ApplicationAccepted    = "accepted"
	ApplicationRejected    = "rejected"
)

// ApplicationStatuses lists every valid application status.
var ApplicationStatuses = []string{
	ApplicationPending, ApplicationReviewed, ApplicationShortlisted,
	ApplicationInterview, ApplicationAccepted, ApplicationRejected,
}

// Notification types
const (
	NotificationNewApplication    = "new_application"
	NotificationApplicationStatus = "application_status"
	NotificationListingUpdate     = "pfe_update"
	NotificationSystem            = "system"
)

// Date is a custom type for handling SQL DATE (YYYY-MM-DD)
type Date struct {
	time.Time
}

// Scan implements the Scanner interface
func (d *Date) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	t, ok := value.(time.Time)
	if !ok {
		return errors.New("failed to scan Date")
	}
	d.Time = t
	return nil
}

// Value implements the Valuer interface
func (d *Date) Value() (driver.Value, error) {
	if d == nil {
		return nil, nil
	}
	return d.Time, nil
}

// MarshalJSON implements json.Marshaler
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format("2006-01-02"))
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Date) UnmarshalJSON(data []byte) error {
	str := string(data)
	if str == "null" || str == `""` {
		return nil
	}
	if len(str) > 2 && str[0] == '"' && str[len(str)-1] == '"' {
		str = str[1 : len(str)-1]
	}
	t, err := time.Parse("2006-01-02", str)
	if err != nil {
		return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", str)
	}
	d.Time = t
	return nil
}

// StringArray handles JSONB string arrays
type StringArray []string

// Scan implements the Scanner interface for StringArray
func (a *StringArray) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*a = StringArray{}
		return nil
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return fmt.Errorf("cannot scan %T into StringArray", src)
	}
}

// Value implements the Valuer interface for StringArray
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(a))
}

// User is an account. Every user owns exactly one student or enterprise profile.
type User struct {
	ID               uuid.UUID `json:"id"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"-"`
	Role             Role      `json:"role"`
	IsActive         bool      `json:"is_active"`
	ProfileCompleted bool      `json:"profile_completed"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Student is a student profile.
type Student struct {
	ID             uuid.UUID   `json:"id"`
	UserID         uuid.UUID   `json:"user_id"`
	Email          string      `json:"email,omitempty"`
	FirstName      string      `json:"first_name"`
	LastName       string      `json:"last_name"`
	University     string      `json:"university"`
	ProfilePicture string      `json:"profile_picture"`
	ResumeURL      string      `json:"resume_url"`
	ShortBio       string      `json:"short_bio"`
	DesiredJobRole string      `json:"desired_job_role"`
	LinkedinURL    string      `json:"linkedin_url"`
	GithubURL      string      `json:"github_url"`
	PortfolioURL   string      `json:"portfolio_url"`
	Skills         StringArray `json:"skills"`
	Technologies   StringArray `json:"technologies"`
	ResumeParsed   bool        `json:"resume_parsed"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// FullName returns "First Last".
func (s *Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

// StudentProfileUpdate holds optional profile fields; nil fields are left unchanged.
type StudentProfileUpdate struct {
	FirstName      *string
	LastName       *string
	University     *string
	ShortBio       *string
	DesiredJobRole *string
	LinkedinURL    *string
	GithubURL      *string
	PortfolioURL   *string
	Skills         *[]string
	Technologies   *[]string
}

// ResumeData is what resume parsing contributes to a student profile. Empty URLs leave
// the stored ones untouched; skills and technologies replace the stored lists.
type ResumeData struct {
	GithubURL    string
	LinkedinURL  string
	Skills       []string
	Technologies []string
}

// Enterprise is a company profile.
type Enterprise struct {
	ID                 uuid.UUID   `json:"id"`
	UserID             uuid.UUID   `json:"user_id"`
	Email              string      `json:"email,omitempty"`
	CompanyName        string      `json:"company_name"`
	Industry           string      `json:"industry"`
	CompanyLogo        string      `json:"company_logo"`
	Location           string      `json:"location"`
	EmployeeCount      string      `json:"employee_count"`
	CompanyDescription string      `json:"company_description"`
	TechnologiesUsed   StringArray `json:"technologies_used"`
	Website            string      `json:"website"`
	LinkedinURL        string      `json:"linkedin_url"`
	FoundedYear        *int        `json:"founded_year"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// EnterpriseProfileUpdate holds optional profile fields; nil fields are left unchanged.
type EnterpriseProfileUpdate struct {
	CompanyName        *string
	Industry           *string
	Location           *string
	EmployeeCount      *string
	CompanyDescription *string
	TechnologiesUsed   *[]string
	Website            *string
	LinkedinURL        *string
	FoundedYear        *int
}

// Listing is a PFE (final-year internship) offer.
type Listing struct {
	ID             uuid.UUID   `json:"id"`
	EnterpriseID   uuid.UUID   `json:"enterprise_id"`
	CompanyName    string      `json:"company_name"`
	CompanyLogo    string      `json:"company_logo"`
	Title          string      `json:"title"`
	Category       string      `json:"category"`
	Duration       string      `json:"duration"`
	Description    string      `json:"description"`
	Department     string      `json:"department"`
	Location       string      `json:"location"`
	Status         string      `json:"status"`
	Skills         StringArray `json:"skills"`
	Deadline       *Date       `json:"deadline"`
	ApplicantCount int         `json:"applicant_count"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// ListingInput holds the fields of a new listing.
type ListingInput struct {
	Title       string
	Category    string
	Duration    string
	Description string
	Department  string
	Location    string
	Skills      []string
	Deadline    *Date
}

// ListingUpdate holds optional listing fields; nil fields are left unchanged.
type ListingUpdate struct {
	Title       *string
	Category    *string
	Duration    *string
	Description *string
	Department  *string
	Location    *string
	Status      *string
	Skills      *[]string
	Deadline    *Date
}

// ListingFilters narrows ListListings. Zero values mean no filter.
type ListingFilters struct {
	Status       string
	Category     string
	EnterpriseID uuid.UUID
	Query        string
	// AcceptingOn, when set, drops listings whose deadline is before that day.
	AcceptingOn time.Time
	Limit       int
	Offset      int
}

// Application is a student's application to a listing together with its match result.
type Application struct {
	ID              uuid.UUID   `json:"id"`
	StudentID       uuid.UUID   `json:"student_id"`
	ListingID       uuid.UUID   `json:"listing_id"`
	CoverLetter     string      `json:"cover_letter"`
	Status          string      `json:"status"`
	MatchRate       float64     `json:"match_rate"`
	Explanation     string      `json:"explanation"`
	MatchedSkills   StringArray `json:"matched_skills"`
	MissingSkills   StringArray `json:"missing_skills"`
	Recommendations string      `json:"recommendations"`
	ReviewerNotes   string      `json:"reviewer_notes"`
	AppliedAt       time.Time   `json:"applied_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// ApplicationView is an application joined with listing and student details.
type ApplicationView struct {
	Application
	ListingTitle string `json:"listing_title"`
	CompanyName  string `json:"company_name"`
	StudentName  string `json:"student_name"`
	StudentEmail string `json:"student_email"`
	University   string `json:"university"`
	ResumeURL    string `json:"resume_url"`
}

// MatchPreview is a cached match result for a (student, listing) pair. It is valid only
// while Fingerprint equals the fingerprint of the current skill sets.
type MatchPreview struct {
	StudentID       uuid.UUID   `json:"student_id"`
	ListingID       uuid.UUID   `json:"listing_id"`
	Fingerprint     string      `json:"-"`
	Score           float64     `json:"score"`
	Explanation     string      `json:"explanation"`
	MatchedSkills   StringArray `json:"matched_skills"`
	MissingSkills   StringArray `json:"missing_skills"`
	Recommendations string      `json:"recommendations"`
	Source          string      `json:"source"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// Notification is an in-app message for a user.
type Notification struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	RelatedID *uuid.UUID `json:"related_id,omitempty"`
	IsRead    bool       `json:"is_read"`
	CreatedAt time.Time  `json:"created_at"`
}

// DashboardStats summarizes an enterprise's listings and applicants.
type DashboardStats struct {
	ActiveListings   int     `json:"active_pfe_listings"`
	TotalApplicants  int     `json:"total_applicants"`
	TopApplicants    int     `json:"top_applicants"`
	AverageMatchRate float64 `json:"average_match_rate"`
}

// TopApplicantThreshold is the match rate from which an applicant counts as top.
const TopApplicantThreshold = 80.0
