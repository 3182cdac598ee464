package types

import "time"

// DateLayout is the wire format of listing deadlines.
const DateLayout = "2006-01-02"

// ListingRequest is the body of POST /listings.
type ListingRequest struct {
	Title       string   `json:"title" validate:"required,min=3,max=200"`
	Category    string   `json:"category" validate:"required,max=100"`
	Duration    string   `json:"duration" validate:"omitempty,max=50"`
	Description string   `json:"description" validate:"required"`
	Department  string   `json:"department" validate:"omitempty,max=100"`
	Location    string   `json:"location" validate:"omitempty,max=200"`
	Skills      []string `json:"skills" validate:"max=50"`
	Deadline    string   `json:"deadline" validate:"omitempty,datetime=2006-01-02"`
}

// Validate validates the ListingRequest.
func (r *ListingRequest) Validate() error {
	return validate.Struct(r)
}

// ListingUpdateRequest is the body of PUT /listings/{id}. Absent fields are left unchanged.
type ListingUpdateRequest struct {
	Title       *string   `json:"title,omitempty" validate:"omitempty,min=3,max=200"`
	Category    *string   `json:"category,omitempty" validate:"omitempty,max=100"`
	Duration    *string   `json:"duration,omitempty" validate:"omitempty,max=50"`
	Description *string   `json:"description,omitempty"`
	Department  *string   `json:"department,omitempty" validate:"omitempty,max=100"`
	Location    *string   `json:"location,omitempty" validate:"omitempty,max=200"`
	Status      *string   `json:"status,omitempty" validate:"omitempty,oneof=open closed"`
	Skills      *[]string `json:"skills,omitempty" validate:"omitempty,max=50"`
	Deadline    *string   `json:"deadline,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// Validate validates the ListingUpdateRequest.
func (r *ListingUpdateRequest) Validate() error {
	return validate.Struct(r)
}

// ParseDeadline parses a YYYY-MM-DD deadline. The empty string yields nil.
func ParseDeadline(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ApplyRequest is the body of POST /listings/{id}/apply.
type ApplyRequest struct {
	CoverLetter string `json:"cover_letter" validate:"max=5000"`
}

// Validate validates the ApplyRequest.
func (r *ApplyRequest) Validate() error {
	return validate.Struct(r)
}

// StatusUpdateRequest is the body of PATCH /applications/{id}/status.
type StatusUpdateRequest struct {
	Status        string  `json:"status" validate:"required,oneof=pending reviewed shortlisted interview accepted rejected"`
	ReviewerNotes *string `json:"reviewer_notes,omitempty" validate:"omitempty,max=2000"`
}

// Validate validates the StatusUpdateRequest.
func (r *StatusUpdateRequest) Validate() error {
	return validate.Struct(r)
}

// UnreadCountResponse is returned by GET /notifications/unread-count.
type UnreadCountResponse struct {
	UnreadCount int `json:"unread_count"`
}

// ReadAllResponse is returned by POST /notifications/read-all.
type ReadAllResponse struct {
	Message string `json:"message"`
	Updated int64  `json:"updated"`
}
