package server

import (
	"context"

	"github.com/google/uuid"
	"github.com/jonathan/pfe-match/internal/db"
)

// Store is the persistence surface the API depends on. *db.DB implements it; tests use
// an in-memory fake.
type Store interface {
	Ping(ctx context.Context) error

	CreateStudentAccount(ctx context.Context, email, passwordHash, firstName, lastName string) (*db.User, *db.Student, error)
	CreateEnterpriseAccount(ctx context.Context, email, passwordHash, companyName, industry string) (*db.User, *db.Enterprise, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*db.User, error)
	GetUserByEmail(ctx context.Context, email string) (*db.User, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error

	GetStudent(ctx context.Context, id uuid.UUID) (*db.Student, error)
	GetStudentByUserID(ctx context.Context, userID uuid.UUID) (*db.Student, error)
	ListStudents(ctx context.Context, limit, offset int) ([]db.Student, error)
	UpdateStudentProfile(ctx context.Context, userID uuid.UUID, upd db.StudentProfileUpdate) (*db.Student, error)
	SetStudentResume(ctx context.Context, userID uuid.UUID, resumeURL string, data *db.ResumeData) (*db.Student, error)
	SetStudentProfilePicture(ctx context.Context, userID uuid.UUID, url string) (*db.Student, error)

	GetEnterprise(ctx context.Context, id uuid.UUID) (*db.Enterprise, error)
	GetEnterpriseByUserID(ctx context.Context, userID uuid.UUID) (*db.Enterprise, error)
	UpdateEnterpriseProfile(ctx context.Context, userID uuid.UUID, upd db.EnterpriseProfileUpdate) (*db.Enterprise, error)
	SetEnterpriseLogo(ctx context.Context, userID uuid.UUID, url string) (*db.Enterprise, error)

	CreateListing(ctx context.Context, enterpriseID uuid.UUID, in db.ListingInput) (*db.Listing, error)
	GetListing(ctx context.Context, id uuid.UUID) (*db.Listing, error)
	ListListings(ctx context.Context, filters db.ListingFilters) ([]db.Listing, error)
	UpdateListing(ctx context.Context, id uuid.UUID, upd db.ListingUpdate) (*db.Listing, error)
	DeleteListing(ctx context.Context, id uuid.UUID) error

	CreateApplication(ctx context.Context, in db.ApplicationInput) (*db.Application, error)
	GetApplication(ctx context.Context, id uuid.UUID) (*db.Application, error)
	ListApplicationsByStudent(ctx context.Context, studentID uuid.UUID) ([]db.ApplicationView, error)
	ListApplicationsByListing(ctx context.Context, listingID uuid.UUID, minMatchRate float64) ([]db.ApplicationView, error)
	UpdateApplicationStatus(ctx context.Context, id uuid.UUID, status string, notes *string) (*db.Application, error)
	DeleteApplication(ctx context.Context, id uuid.UUID) error

	GetMatchPreview(ctx context.Context, studentID, listingID uuid.UUID) (*db.MatchPreview, error)
	UpsertMatchPreview(ctx context.Context, p *db.MatchPreview) error

	CreateNotification(ctx context.Context, in db.NotificationInput) (*db.Notification, error)
	ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]db.Notification, error)
	CountUnreadNotifications(ctx context.Context, userID uuid.UUID) (int, error)
	MarkNotificationRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) (int64, error)

	GetDashboardStats(ctx context.Context, enterpriseID uuid.UUID) (*db.DashboardStats, error)
}

var _ Store = (*db.DB)(nil)
