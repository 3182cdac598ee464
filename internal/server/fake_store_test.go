package server

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/pfe-match/internal/db"
)

// fakeStore is an in-memory Store with the same nil/ErrNotFound/ErrDuplicate
// conventions as *db.DB.
type fakeStore struct {
	mu            sync.Mutex
	users         map[uuid.UUID]*db.User
	students      map[uuid.UUID]*db.Student
	enterprises   map[uuid.UUID]*db.Enterprise
	listings      map[uuid.UUID]*db.Listing
	applications  map[uuid.UUID]*db.Application
	previews      map[string]*db.MatchPreview
	notifications []*db.Notification

	previewUpserts int
	previewReadErr error
}

var _ Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:        map[uuid.UUID]*db.User{},
		students:     map[uuid.UUID]*db.Student{},
		enterprises:  map[uuid.UUID]*db.Enterprise{},
		listings:     map[uuid.UUID]*db.Listing{},
		applications: map[uuid.UUID]*db.Application{},
		previews:     map[string]*db.MatchPreview{},
	}
}

func copyOf[T any](v *T) *T {
	c := *v
	return &c
}

func (f *fakeStore) Ping(context.Context) error { return nil }

func (f *fakeStore) newUser(email, hash string, role db.Role) (*db.User, error) {
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			return nil, fmt.Errorf("insert user: %w", db.ErrDuplicate)
		}
	}
	now := time.Now().UTC()
	u := &db.User{
		ID: uuid.New(), Email: strings.ToLower(email), PasswordHash: hash, Role: role,
		IsActive: true, CreatedAt: now, UpdatedAt: now,
	}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeStore) CreateStudentAccount(_ context.Context, email, hash, firstName, lastName string) (*db.User, *db.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, err := f.newUser(email, hash, db.RoleStudent)
	if err != nil {
		return nil, nil, err
	}
	st := &db.Student{
		ID: uuid.New(), UserID: u.ID, Email: u.Email, FirstName: firstName, LastName: lastName,
		Skills: db.StringArray{}, Technologies: db.StringArray{}, CreatedAt: u.CreatedAt, UpdatedAt: u.CreatedAt,
	}
	f.students[st.ID] = st
	return copyOf(u), copyOf(st), nil
}

func (f *fakeStore) CreateEnterpriseAccount(_ context.Context, email, hash, companyName, industry string) (*db.User, *db.Enterprise, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, err := f.newUser(email, hash, db.RoleEnterprise)
	if err != nil {
		return nil, nil, err
	}
	ent := &db.Enterprise{
		ID: uuid.New(), UserID: u.ID, Email: u.Email, CompanyName: companyName, Industry: industry,
		TechnologiesUsed: db.StringArray{}, CreatedAt: u.CreatedAt, UpdatedAt: u.CreatedAt,
	}
	f.enterprises[ent.ID] = ent
	return copyOf(u), copyOf(ent), nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id uuid.UUID) (*db.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		return copyOf(u), nil
	}
	return nil, nil
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (*db.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			return copyOf(u), nil
		}
	}
	return nil, nil
}

func (f *fakeStore) UpdatePassword(_ context.Context, userID uuid.UUID, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return db.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (f *fakeStore) setActive(userID uuid.UUID, active bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[userID].IsActive = active
}

func (f *fakeStore) studentByUser(userID uuid.UUID) *db.Student {
	for _, st := range f.students {
		if st.UserID == userID {
			return st
		}
	}
	return nil
}

func (f *fakeStore) enterpriseByUser(userID uuid.UUID) *db.Enterprise {
	for _, e := range f.enterprises {
		if e.UserID == userID {
			return e
		}
	}
	return nil
}

func (f *fakeStore) GetStudent(_ context.Context, id uuid.UUID) (*db.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if st, ok := f.students[id]; ok {
		return copyOf(st), nil
	}
	return nil, nil
}

func (f *fakeStore) GetStudentByUserID(_ context.Context, userID uuid.UUID) (*db.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if st := f.studentByUser(userID); st != nil {
		return copyOf(st), nil
	}
	return nil, nil
}

func (f *fakeStore) ListStudents(_ context.Context, limit, offset int) ([]db.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]db.Student, 0, len(f.students))
	for _, st := range f.students {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, limit, offset), nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func setArray(dst *db.StringArray, src *[]string) {
	if src != nil {
		*dst = append(db.StringArray{}, (*src)...)
	}
}

func (f *fakeStore) UpdateStudentProfile(_ context.Context, userID uuid.UUID, upd db.StudentProfileUpdate) (*db.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := f.studentByUser(userID)
	if st == nil {
		return nil, db.ErrNotFound
	}
	setIf(&st.FirstName, upd.FirstName)
	setIf(&st.LastName, upd.LastName)
	setIf(&st.University, upd.University)
	setIf(&st.ShortBio, upd.ShortBio)
	setIf(&st.DesiredJobRole, upd.DesiredJobRole)
	setIf(&st.LinkedinURL, upd.LinkedinURL)
	setIf(&st.GithubURL, upd.GithubURL)
	setIf(&st.PortfolioURL, upd.PortfolioURL)
	setArray(&st.Skills, upd.Skills)
	setArray(&st.Technologies, upd.Technologies)
	f.users[userID].ProfileCompleted = true
	return copyOf(st), nil
}

func (f *fakeStore) SetStudentResume(_ context.Context, userID uuid.UUID, url string, data *db.ResumeData) (*db.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := f.studentByUser(userID)
	if st == nil {
		return nil, db.ErrNotFound
	}
	st.ResumeURL = url
	if data != nil {
		if data.GithubURL != "" {
			st.GithubURL = data.GithubURL
		}
		if data.LinkedinURL != "" {
			st.LinkedinURL = data.LinkedinURL
		}
		st.Skills = append(db.StringArray{}, data.Skills...)
		st.Technologies = append(db.StringArray{}, data.Technologies...)
		st.ResumeParsed = true
	}
	return copyOf(st), nil
}

func (f *fakeStore) SetStudentProfilePicture(_ context.Context, userID uuid.UUID, url string) (*db.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := f.studentByUser(userID)
	if st == nil {
		return nil, db.ErrNotFound
	}
	st.ProfilePicture = url
	return copyOf(st), nil
}

func (f *fakeStore) GetEnterprise(_ context.Context, id uuid.UUID) (*db.Enterprise, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e, ok := f.enterprises[id]; ok {
		return copyOf(e), nil
	}
	return nil, nil
}

func (f *fakeStore) GetEnterpriseByUserID(_ context.Context, userID uuid.UUID) (*db.Enterprise, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e := f.enterpriseByUser(userID); e != nil {
		return copyOf(e), nil
	}
	return nil, nil
}

func (f *fakeStore) UpdateEnterpriseProfile(_ context.Context, userID uuid.UUID, upd db.EnterpriseProfileUpdate) (*db.Enterprise, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e := f.enterpriseByUser(userID)
	if e == nil {
		return nil, db.ErrNotFound
	}
	setIf(&e.CompanyName, upd.CompanyName)
	setIf(&e.Industry, upd.Industry)
	setIf(&e.Location, upd.Location)
	setIf(&e.EmployeeCount, upd.EmployeeCount)
	setIf(&e.CompanyDescription, upd.CompanyDescription)
	setIf(&e.Website, upd.Website)
	setIf(&e.LinkedinURL, upd.LinkedinURL)
	setArray(&e.TechnologiesUsed, upd.TechnologiesUsed)
	if upd.FoundedYear != nil {
		y := *upd.FoundedYear
		e.FoundedYear = &y
	}
	f.users[userID].ProfileCompleted = true
	return copyOf(e), nil
}

func (f *fakeStore) SetEnterpriseLogo(_ context.Context, userID uuid.UUID, url string) (*db.Enterprise, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e := f.enterpriseByUser(userID)
	if e == nil {
		return nil, db.ErrNotFound
	}
	e.CompanyLogo = url
	return copyOf(e), nil
}

// listingView fills the joined columns of a listing.
func (f *fakeStore) listingView(l *db.Listing) db.Listing {
	out := *l
	if e, ok := f.enterprises[l.EnterpriseID]; ok {
		out.CompanyName = e.CompanyName
		out.CompanyLogo = e.CompanyLogo
	}
	out.ApplicantCount = 0
	for _, a := range f.applications {
		if a.ListingID == l.ID {
			out.ApplicantCount++
		}
	}
	return out
}

func (f *fakeStore) CreateListing(_ context.Context, enterpriseID uuid.UUID, in db.ListingInput) (*db.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC()
	l := &db.Listing{
		ID: uuid.New(), EnterpriseID: enterpriseID, Title: in.Title, Category: in.Category,
		Duration: in.Duration, Description: in.Description, Department: in.Department,
		Location: in.Location, Status: db.ListingOpen, Skills: append(db.StringArray{}, in.Skills...),
		Deadline: in.Deadline, CreatedAt: now, UpdatedAt: now,
	}
	f.listings[l.ID] = l
	v := f.listingView(l)
	return &v, nil
}

func (f *fakeStore) GetListing(_ context.Context, id uuid.UUID) (*db.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.listings[id]
	if !ok {
		return nil, nil
	}
	v := f.listingView(l)
	return &v, nil
}

func (f *fakeStore) ListListings(_ context.Context, filters db.ListingFilters) ([]db.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q := strings.ToLower(filters.Query)
	out := []db.Listing{}
	for _, l := range f.listings {
		switch {
		case filters.Status != "" && l.Status != filters.Status:
			continue
		case filters.Category != "" && l.Category != filters.Category:
			continue
		case filters.EnterpriseID != uuid.Nil && l.EnterpriseID != filters.EnterpriseID:
			continue
		case q != "" && !strings.Contains(strings.ToLower(l.Title+" "+l.Description), q):
			continue
		case !filters.AcceptingOn.IsZero() && l.Deadline != nil && !l.Deadline.IsZero() && l.Deadline.Before(filters.AcceptingOn):
			continue
		}
		out = append(out, f.listingView(l))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, filters.Limit, filters.Offset), nil
}

func (f *fakeStore) UpdateListing(_ context.Context, id uuid.UUID, upd db.ListingUpdate) (*db.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.listings[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	setIf(&l.Title, upd.Title)
	setIf(&l.Category, upd.Category)
	setIf(&l.Duration, upd.Duration)
	setIf(&l.Description, upd.Description)
	setIf(&l.Department, upd.Department)
	setIf(&l.Location, upd.Location)
	setIf(&l.Status, upd.Status)
	setArray(&l.Skills, upd.Skills)
	if upd.Deadline != nil {
		l.Deadline = upd.Deadline
	}
	v := f.listingView(l)
	return &v, nil
}

func (f *fakeStore) DeleteListing(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.listings[id]; !ok {
		return db.ErrNotFound
	}
	delete(f.listings, id)
	for aid, a := range f.applications {
		if a.ListingID == id {
			delete(f.applications, aid)
		}
	}
	return nil
}

func (f *fakeStore) CreateApplication(_ context.Context, in db.ApplicationInput) (*db.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.applications {
		if a.StudentID == in.StudentID && a.ListingID == in.ListingID {
			return nil, fmt.Errorf("insert application: %w", db.ErrDuplicate)
		}
	}
	now := time.Now().UTC()
	a := &db.Application{
		ID: uuid.New(), StudentID: in.StudentID, ListingID: in.ListingID, CoverLetter: in.CoverLetter,
		Status: db.ApplicationPending, MatchRate: in.MatchRate, Explanation: in.Explanation,
		MatchedSkills: append(db.StringArray{}, in.MatchedSkills...), MissingSkills: append(db.StringArray{}, in.MissingSkills...),
		Recommendations: in.Recommendations, AppliedAt: now, UpdatedAt: now,
	}
	f.applications[a.ID] = a
	return copyOf(a), nil
}

func (f *fakeStore) GetApplication(_ context.Context, id uuid.UUID) (*db.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.applications[id]; ok {
		return copyOf(a), nil
	}
	return nil, nil
}

func (f *fakeStore) applicationView(a *db.Application) db.ApplicationView {
	v := db.ApplicationView{Application: *a}
	if l, ok := f.listings[a.ListingID]; ok {
		v.ListingTitle = l.Title
		if e, ok := f.enterprises[l.EnterpriseID]; ok {
			v.CompanyName = e.CompanyName
		}
	}
	if st, ok := f.students[a.StudentID]; ok {
		v.StudentName = st.FullName()
		v.StudentEmail = st.Email
		v.University = st.University
		v.ResumeURL = st.ResumeURL
	}
	return v
}

func (f *fakeStore) ListApplicationsByStudent(_ context.Context, studentID uuid.UUID) ([]db.ApplicationView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []db.ApplicationView{}
	for _, a := range f.applications {
		if a.StudentID == studentID {
			out = append(out, f.applicationView(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AppliedAt.After(out[j].AppliedAt) })
	return out, nil
}

func (f *fakeStore) ListApplicationsByListing(_ context.Context, listingID uuid.UUID, minMatchRate float64) ([]db.ApplicationView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []db.ApplicationView{}
	for _, a := range f.applications {
		if a.ListingID == listingID && a.MatchRate >= minMatchRate {
			out = append(out, f.applicationView(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MatchRate > out[j].MatchRate })
	return out, nil
}

func (f *fakeStore) UpdateApplicationStatus(_ context.Context, id uuid.UUID, status string, notes *string) (*db.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.applications[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	a.Status = status
	setIf(&a.ReviewerNotes, notes)
	a.UpdatedAt = time.Now().UTC()
	return copyOf(a), nil
}

func (f *fakeStore) DeleteApplication(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.applications[id]; !ok {
		return db.ErrNotFound
	}
	delete(f.applications, id)
	return nil
}

func previewKey(studentID, listingID uuid.UUID) string {
	return studentID.String() + "/" + listingID.String()
}

func (f *fakeStore) GetMatchPreview(_ context.Context, studentID, listingID uuid.UUID) (*db.MatchPreview, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.previewReadErr != nil {
		return nil, f.previewReadErr
	}
	if p, ok := f.previews[previewKey(studentID, listingID)]; ok {
		return copyOf(p), nil
	}
	return nil, nil
}

func (f *fakeStore) UpsertMatchPreview(_ context.Context, p *db.MatchPreview) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.previewUpserts++
	f.previews[previewKey(p.StudentID, p.ListingID)] = copyOf(p)
	return nil
}

// failPreviewReads makes GetMatchPreview return err until called with nil.
func (f *fakeStore) failPreviewReads(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.previewReadErr = err
}

func (f *fakeStore) upserts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.previewUpserts
}

func (f *fakeStore) CreateNotification(_ context.Context, in db.NotificationInput) (*db.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := &db.Notification{
		ID: uuid.New(), UserID: in.UserID, Type: in.Type, Title: in.Title, Message: in.Message,
		RelatedID: in.RelatedID, CreatedAt: time.Now().UTC(),
	}
	f.notifications = append(f.notifications, n)
	return copyOf(n), nil
}

func (f *fakeStore) ListNotifications(_ context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]db.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []db.Notification{}
	for i := len(f.notifications) - 1; i >= 0; i-- {
		n := f.notifications[i]
		if n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		out = append(out, *n)
	}
	return page(out, limit, 0), nil
}

func (f *fakeStore) CountUnreadNotifications(_ context.Context, userID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, n := range f.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) MarkNotificationRead(_ context.Context, userID, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.notifications {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return nil
		}
	}
	return db.ErrNotFound
}

func (f *fakeStore) MarkAllNotificationsRead(_ context.Context, userID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var updated int64
	for _, n := range f.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			updated++
		}
	}
	return updated, nil
}

func (f *fakeStore) GetDashboardStats(_ context.Context, enterpriseID uuid.UUID) (*db.DashboardStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := &db.DashboardStats{}
	var total float64
	for _, l := range f.listings {
		if l.EnterpriseID != enterpriseID {
			continue
		}
		if l.Status == db.ListingOpen {
			stats.ActiveListings++
		}
		for _, a := range f.applications {
			if a.ListingID != l.ID {
				continue
			}
			stats.TotalApplicants++
			total += a.MatchRate
			if a.MatchRate >= db.TopApplicantThreshold {
				stats.TopApplicants++
			}
		}
	}
	if stats.TotalApplicants > 0 {
		stats.AverageMatchRate = total / float64(stats.TotalApplicants)
	}
	return stats, nil
}
