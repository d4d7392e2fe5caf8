package services

import (
	"context"
	"mime/multipart"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/societyhub/internal/app/auth"
	"github.com/yigit/societyhub/internal/app/models"
	"github.com/yigit/societyhub/internal/app/models/dto"
	"github.com/yigit/societyhub/internal/pkg/apperrors"
	"github.com/yigit/societyhub/internal/pkg/payments"
)

var testLogger = zerolog.Nop()

// fakeUserRepo

type fakeUserRepo struct {
	users  map[int64]*models.User
	nextID int64
	// managers stands in for the societies.manager_id foreign key
	managers map[int64]bool
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int64]*models.User{}}
}

func (r *fakeUserRepo) add(u *models.User) *models.User {
	r.nextID++
	u.ID = r.nextID
	r.users[u.ID] = u
	return u
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	for _, u := range r.users {
		if u.Email == user.Email {
			return apperrors.ErrEmailAlreadyExists
		}
	}
	r.add(user)
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (r *fakeUserRepo) UpdateProfile(ctx context.Context, userID int64, firstName, lastName string) error {
	u, ok := r.users[userID]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	u.FirstName, u.LastName = firstName, lastName
	return nil
}

func (r *fakeUserRepo) List(ctx context.Context, page, pageSize int) ([]models.User, int64, error) {
	var out []models.User
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id int64) error {
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) Activate(ctx context.Context, userID int64, at time.Time) error {
	u, ok := r.users[userID]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	u.IsActive = true
	u.EmailVerifiedAt = &at
	u.LastVerifiedAt = &at
	return nil
}

func (r *fakeUserRepo) Reverify(ctx context.Context, userID int64, at time.Time) error {
	u, ok := r.users[userID]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	u.IsActive = true
	u.LastVerifiedAt = &at
	u.ReverificationRequestedAt = nil
	u.DeactivatedAt = nil
	return nil
}

func (r *fakeUserRepo) UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error {
	r.users[userID].LastLoginAt = &at
	return nil
}

func (r *fakeUserRepo) DeleteUnactivatedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	n := 0
	for id, u := range r.users {
		if !u.IsStaff && u.EmailVerifiedAt == nil && u.CreatedAt.Before(cutoff) && !r.managers[id] {
			delete(r.users, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeUserRepo) ListDueForReverification(ctx context.Context, verifiedBefore time.Time) ([]models.User, error) {
	var out []models.User
	for _, u := range r.users {
		if !u.IsStaff && u.IsActive && u.ReverificationRequestedAt == nil &&
			u.LastVerifiedAt != nil && u.LastVerifiedAt.Before(verifiedBefore) {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) MarkReverificationRequested(ctx context.Context, userID int64, at time.Time) error {
	r.users[userID].ReverificationRequestedAt = &at
	return nil
}

func (r *fakeUserRepo) DeactivateUnverifiedBefore(ctx context.Context, requestedBefore, at time.Time) (int, error) {
	n := 0
	for _, u := range r.users {
		if !u.IsStaff && u.IsActive && u.ReverificationRequestedAt != nil && u.ReverificationRequestedAt.Before(requestedBefore) {
			u.IsActive = false
			u.DeactivatedAt = &at
			n++
		}
	}
	return n, nil
}

func (r *fakeUserRepo) deactivatedBefore(u *models.User, cutoff time.Time) bool {
	return !u.IsStaff && !u.IsActive && u.DeactivatedAt != nil && u.DeactivatedAt.Before(cutoff)
}

func (r *fakeUserRepo) DeleteDeactivatedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	n := 0
	for id, u := range r.users {
		if r.deactivatedBefore(u, cutoff) && !r.managers[id] {
			delete(r.users, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeUserRepo) CountManagersDeactivatedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	n := 0
	for id, u := range r.users {
		if r.deactivatedBefore(u, cutoff) && r.managers[id] {
			n++
		}
	}
	return n, nil
}

// fakeTokenRepo

type fakeTokenRepo struct {
	tokens  map[string]int64
	revoked map[string]bool
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: map[string]int64{}, revoked: map[string]bool{}}
}

func (r *fakeTokenRepo) CreateToken(ctx context.Context, token string, userID int64, expiryDate time.Time) error {
	r.tokens[token] = userID
	return nil
}

func (r *fakeTokenRepo) GetUserIDByToken(ctx context.Context, token string) (int64, error) {
	id, ok := r.tokens[token]
	if !ok {
		return 0, apperrors.ErrTokenNotFound
	}
	if r.revoked[token] {
		return 0, apperrors.ErrTokenRevoked
	}
	return id, nil
}

func (r *fakeTokenRepo) RotateToken(ctx context.Context, oldToken, newToken string, userID int64, expiryDate time.Time) error {
	r.revoked[oldToken] = true
	r.tokens[newToken] = userID
	return nil
}

func (r *fakeTokenRepo) RevokeToken(ctx context.Context, token string) error {
	if _, ok := r.tokens[token]; !ok {
		return apperrors.ErrTokenNotFound
	}
	r.revoked[token] = true
	return nil
}

func (r *fakeTokenRepo) RevokeAllUserTokens(ctx context.Context, userID int64) error {
	for t, id := range r.tokens {
		if id == userID {
			r.revoked[t] = true
		}
	}
	return nil
}

// fakeVerificationRepo

type fakeVerificationRepo struct {
	tokens map[string]*models.VerificationToken
}

func newFakeVerificationRepo() *fakeVerificationRepo {
	return &fakeVerificationRepo{tokens: map[string]*models.VerificationToken{}}
}

func (r *fakeVerificationRepo) Create(ctx context.Context, token *models.VerificationToken) error {
	r.tokens[token.Token] = token
	return nil
}

func (r *fakeVerificationRepo) Consume(ctx context.Context, token string, purpose models.TokenPurpose, now time.Time) (*models.VerificationToken, error) {
	vt, ok := r.tokens[token]
	if !ok || vt.Purpose != purpose {
		return nil, apperrors.ErrTokenNotFound
	}
	if vt.UsedAt != nil {
		return nil, apperrors.ErrTokenRevoked
	}
	if now.After(vt.ExpiresAt) {
		return nil, apperrors.ErrTokenExpired
	}
	vt.UsedAt = &now
	return vt, nil
}

func (r *fakeVerificationRepo) DeleteForUser(ctx context.Context, userID int64, purpose models.TokenPurpose) error {
	for k, vt := range r.tokens {
		if vt.UserID == userID && vt.Purpose == purpose && vt.UsedAt == nil {
			delete(r.tokens, k)
		}
	}
	return nil
}

func (r *fakeVerificationRepo) latestFor(userID int64, purpose models.TokenPurpose) *models.VerificationToken {
	for _, vt := range r.tokens {
		if vt.UserID == userID && vt.Purpose == purpose && vt.UsedAt == nil {
			return vt
		}
	}
	return nil
}

// fakeMailer

type sentMail struct {
	Kind  string
	To    string
	Token string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) SendActivationEmail(toEmail, toName, token string) error {
	m.sent = append(m.sent, sentMail{Kind: "activation", To: toEmail, Token: token})
	return m.err
}

func (m *fakeMailer) SendReverificationEmail(toEmail, toName, token string) error {
	m.sent = append(m.sent, sentMail{Kind: "reverification", To: toEmail, Token: token})
	return m.err
}

func (m *fakeMailer) SendNotice(toEmail, toName, subject, message string) error {
	m.sent = append(m.sent, sentMail{Kind: "notice", To: toEmail})
	return m.err
}

// fakeSocietyRepo

type fakeSocietyRepo struct {
	societies   map[int64]*models.Society
	nextID      int64
	memberships *fakeMembershipRepo
}

func newFakeSocietyRepo(memberships *fakeMembershipRepo) *fakeSocietyRepo {
	return &fakeSocietyRepo{societies: map[int64]*models.Society{}, memberships: memberships}
}

func (r *fakeSocietyRepo) CreateWithManager(ctx context.Context, society *models.Society) error {
	for _, s := range r.societies {
		if s.Name == society.Name {
			return apperrors.ErrSocietyNameTaken
		}
	}
	r.nextID++
	society.ID = r.nextID
	r.societies[society.ID] = society
	now := time.Now()
	return r.memberships.Create(ctx, &models.Membership{
		SocietyID: society.ID, UserID: society.ManagerID,
		Role: models.RoleManager, Status: models.MembershipApproved, ApprovedAt: &now,
	})
}

func (r *fakeSocietyRepo) GetByID(ctx context.Context, id int64) (*models.Society, error) {
	s, ok := r.societies[id]
	if !ok {
		return nil, apperrors.ErrSocietyNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSocietyRepo) List(ctx context.Context, filter models.SocietyFilter) ([]models.Society, int64, error) {
	var out []models.Society
	for _, s := range r.societies {
		if filter.Status != nil && s.Status != *filter.Status {
			continue
		}
		if filter.Type != nil && s.Type != *filter.Type {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *fakeSocietyRepo) Update(ctx context.Context, society *models.Society) error {
	if _, ok := r.societies[society.ID]; !ok {
		return apperrors.ErrSocietyNotFound
	}
	cp := *society
	r.societies[society.ID] = &cp
	return nil
}

func (r *fakeSocietyRepo) UpdateStatus(ctx context.Context, id int64, from []models.SocietyStatus, to models.SocietyStatus, reason *string) error {
	s, ok := r.societies[id]
	if !ok {
		return apperrors.ErrSocietyNotFound
	}
	for _, f := range from {
		if s.Status == f {
			s.Status = to
			if reason != nil {
				s.RejectionReason = reason
			}
			return nil
		}
	}
	return apperrors.ErrInvalidStatusChange
}

func (r *fakeSocietyRepo) CountOwned(ctx context.Context, managerID int64) (int, error) {
	n := 0
	for _, s := range r.societies {
		if s.ManagerID == managerID && s.Status.CountsTowardsOwnershipCap() {
			n++
		}
	}
	return n, nil
}

func (r *fakeSocietyRepo) TransferManagement(ctx context.Context, societyID, oldManagerID, newManagerID int64) error {
	target, err := r.memberships.Get(ctx, societyID, newManagerID)
	if err != nil || target.Role != models.RoleCoManager || !target.IsApproved() {
		return apperrors.NewBadRequestError("new manager must be an approved co-manager of the society")
	}
	old, _ := r.memberships.Get(ctx, societyID, oldManagerID)
	r.memberships.byID[target.ID].Role = models.RoleManager
	r.memberships.byID[old.ID].Role = models.RoleCoManager
	r.societies[societyID].ManagerID = newManagerID
	return nil
}

func (r *fakeSocietyRepo) SetLogo(ctx context.Context, id int64, url string) error {
	s, ok := r.societies[id]
	if !ok {
		return apperrors.ErrSocietyNotFound
	}
	s.LogoURL = &url
	return nil
}

// fakeMembershipRepo

type fakeMembershipRepo struct {
	byID   map[int64]*models.Membership
	nextID int64
}

func newFakeMembershipRepo() *fakeMembershipRepo {
	return &fakeMembershipRepo{byID: map[int64]*models.Membership{}}
}

func (r *fakeMembershipRepo) Create(ctx context.Context, m *models.Membership) error {
	for _, existing := range r.byID {
		if existing.SocietyID == m.SocietyID && existing.UserID == m.UserID {
			return apperrors.ErrAlreadyMember
		}
	}
	r.nextID++
	m.ID = r.nextID
	cp := *m
	r.byID[m.ID] = &cp
	return nil
}

// put inserts a membership directly, for test setup
func (r *fakeMembershipRepo) put(societyID, userID int64, role models.MembershipRole, status models.MembershipStatus) *models.Membership {
	m := &models.Membership{SocietyID: societyID, UserID: userID, Role: role, Status: status}
	_ = r.Create(context.Background(), m)
	return m
}

func (r *fakeMembershipRepo) GetByID(ctx context.Context, id int64) (*models.Membership, error) {
	m, ok := r.byID[id]
	if !ok {
		return nil, apperrors.ErrMembershipNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMembershipRepo) Get(ctx context.Context, societyID, userID int64) (*models.Membership, error) {
	for _, m := range r.byID {
		if m.SocietyID == societyID && m.UserID == userID {
			cp := *m
			return &cp, nil
		}
	}
	return nil, apperrors.ErrMembershipNotFound
}

func (r *fakeMembershipRepo) Approve(ctx context.Context, id int64, at time.Time) error {
	m, ok := r.byID[id]
	if !ok || m.Status != models.MembershipPending {
		return apperrors.ErrMembershipNotFound
	}
	m.Status = models.MembershipApproved
	m.ApprovedAt = &at
	return nil
}

func (r *fakeMembershipRepo) UpdateRole(ctx context.Context, id int64, role models.MembershipRole) error {
	m, ok := r.byID[id]
	if !ok {
		return apperrors.ErrMembershipNotFound
	}
	m.Role = role
	return nil
}

func (r *fakeMembershipRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.byID[id]; !ok {
		return apperrors.ErrMembershipNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *fakeMembershipRepo) ListBySociety(ctx context.Context, societyID int64, status *models.MembershipStatus) ([]models.Membership, error) {
	var out []models.Membership
	for _, m := range r.byID {
		if m.SocietyID == societyID && (status == nil || m.Status == *status) {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeMembershipRepo) ListByUser(ctx context.Context, userID int64) ([]models.Membership, error) {
	var out []models.Membership
	for _, m := range r.byID {
		if m.UserID == userID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *fakeMembershipRepo) CountApproved(ctx context.Context, societyID int64) (int, error) {
	n := 0
	for _, m := range r.byID {
		if m.SocietyID == societyID && m.IsApproved() {
			n++
		}
	}
	return n, nil
}

// fakePaymentRepo

type fakePaymentRepo struct {
	payments map[int64]*models.Payment
	nextID   int64
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: map[int64]*models.Payment{}}
}

func (r *fakePaymentRepo) Create(ctx context.Context, p *models.Payment) error {
	r.nextID++
	p.ID = r.nextID
	cp := *p
	r.payments[p.ID] = &cp
	return nil
}

func (r *fakePaymentRepo) SetExternalID(ctx context.Context, id int64, externalID string) error {
	r.payments[id].ExternalID = &externalID
	return nil
}

func (r *fakePaymentRepo) GetByID(ctx context.Context, id int64) (*models.Payment, error) {
	p, ok := r.payments[id]
	if !ok {
		return nil, apperrors.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePaymentRepo) GetByExternalID(ctx context.Context, externalID string) (*models.Payment, error) {
	for _, p := range r.payments {
		if p.ExternalID != nil && *p.ExternalID == externalID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperrors.ErrPaymentNotFound
}

func (r *fakePaymentRepo) MarkPaid(ctx context.Context, id int64, chargeID string, at time.Time) (bool, error) {
	p := r.payments[id]
	if p.Status == models.PaymentPaid {
		return false, nil
	}
	p.Status = models.PaymentPaid
	p.ChargeID = &chargeID
	p.PaidAt = &at
	return true, nil
}

func (r *fakePaymentRepo) MarkFailed(ctx context.Context, id int64) error {
	if p := r.payments[id]; p != nil && p.Status == models.PaymentPending {
		p.Status = models.PaymentFailed
	}
	return nil
}

func (r *fakePaymentRepo) HasPaid(ctx context.Context, userID int64, purpose models.PaymentPurpose, referenceID int64) (bool, error) {
	for _, p := range r.payments {
		if p.UserID == userID && p.Purpose == purpose && p.ReferenceID == referenceID && p.Status == models.PaymentPaid {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakePaymentRepo) ListByUser(ctx context.Context, userID int64) ([]models.Payment, error) {
	var out []models.Payment
	for _, p := range r.payments {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

// fakeEventRepo keeps registration ordering by insertion

type fakeEventRepo struct {
	events        map[int64]*models.Event
	registrations []*models.EventRegistration
	drafts        []*models.News
	nextID        int64
	nextRegID     int64
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: map[int64]*models.Event{}}
}

func (r *fakeEventRepo) counts(e *models.Event) {
	e.AcceptedCount, e.WaitlistedCount = 0, 0
	for _, reg := range r.registrations {
		if reg.EventID != e.ID {
			continue
		}
		switch reg.Status {
		case models.RegistrationAccepted:
			e.AcceptedCount++
		case models.RegistrationWaitlisted:
			e.WaitlistedCount++
		}
	}
}

func (r *fakeEventRepo) CreateWithDraft(ctx context.Context, event *models.Event) (*models.News, error) {
	r.nextID++
	event.ID = r.nextID
	cp := *event
	r.events[event.ID] = &cp
	draft := models.DraftForEvent(event, event.SocietyIDs[0])
	draft.EventID = &event.ID
	draft.ID = int64(len(r.drafts) + 1)
	r.drafts = append(r.drafts, draft)
	return draft, nil
}

func (r *fakeEventRepo) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	e, ok := r.events[id]
	if !ok {
		return nil, apperrors.ErrEventNotFound
	}
	cp := *e
	r.counts(&cp)
	return &cp, nil
}

func (r *fakeEventRepo) List(ctx context.Context, filter models.EventFilter) ([]models.Event, int64, error) {
	var out []models.Event
	for _, e := range r.events {
		cp := *e
		r.counts(&cp)
		out = append(out, cp)
	}
	return out, int64(len(out)), nil
}

func (r *fakeEventRepo) Update(ctx context.Context, event *models.Event) ([]models.EventRegistration, error) {
	cp := *event
	r.events[event.ID] = &cp
	var promoted []models.EventRegistration
	for reg := r.promote(event.ID); reg != nil; reg = r.promote(event.ID) {
		promoted = append(promoted, *reg)
	}
	return promoted, nil
}

func (r *fakeEventRepo) Delete(ctx context.Context, id int64) error {
	delete(r.events, id)
	return nil
}

func (r *fakeEventRepo) Register(ctx context.Context, eventID, userID int64) (*models.EventRegistration, error) {
	e, err := r.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	for _, reg := range r.registrations {
		if reg.EventID == eventID && reg.UserID == userID {
			return nil, apperrors.ErrAlreadyRegistered
		}
	}
	r.nextRegID++
	reg := &models.EventRegistration{
		ID: r.nextRegID, EventID: eventID, UserID: userID,
		Status: models.DecideRegistrationStatus(e.Capacity, e.AcceptedCount),
	}
	r.registrations = append(r.registrations, reg)
	cp := *reg
	return &cp, nil
}

func (r *fakeEventRepo) GetRegistration(ctx context.Context, id int64) (*models.EventRegistration, error) {
	for _, reg := range r.registrations {
		if reg.ID == id {
			cp := *reg
			return &cp, nil
		}
	}
	return nil, apperrors.ErrRegistrationNotFound
}

func (r *fakeEventRepo) promote(eventID int64) *models.EventRegistration {
	e, _ := r.GetByID(context.Background(), eventID)
	for _, reg := range r.registrations {
		if reg.EventID == eventID && reg.Status == models.RegistrationWaitlisted &&
			models.DecideRegistrationStatus(e.Capacity, e.AcceptedCount) == models.RegistrationAccepted {
			reg.Status = models.RegistrationAccepted
			cp := *reg
			return &cp
		}
	}
	return nil
}

func (r *fakeEventRepo) CancelRegistration(ctx context.Context, eventID, userID int64) (*models.EventRegistration, error) {
	for i, reg := range r.registrations {
		if reg.EventID == eventID && reg.UserID == userID {
			r.registrations = append(r.registrations[:i], r.registrations[i+1:]...)
			return r.promote(eventID), nil
		}
	}
	return nil, apperrors.ErrRegistrationNotFound
}

func (r *fakeEventRepo) RejectRegistration(ctx context.Context, registrationID int64) (*models.EventRegistration, error) {
	for _, reg := range r.registrations {
		if reg.ID == registrationID {
			reg.Status = models.RegistrationRejected
			return r.promote(reg.EventID), nil
		}
	}
	return nil, apperrors.ErrRegistrationNotFound
}

func (r *fakeEventRepo) ListRegistrations(ctx context.Context, eventID int64) ([]models.EventRegistration, error) {
	var out []models.EventRegistration
	for _, reg := range r.registrations {
		if reg.EventID == eventID {
			out = append(out, *reg)
		}
	}
	return out, nil
}

func (r *fakeEventRepo) ListRegistrationsForUser(ctx context.Context, userID int64) ([]models.EventRegistration, error) {
	var out []models.EventRegistration
	for _, reg := range r.registrations {
		if reg.UserID == userID {
			out = append(out, *reg)
		}
	}
	return out, nil
}

func (r *fakeEventRepo) statusOf(eventID, userID int64) models.RegistrationStatus {
	for _, reg := range r.registrations {
		if reg.EventID == eventID && reg.UserID == userID {
			return reg.Status
		}
	}
	return ""
}

// fakeNewsRepo

type fakeNewsRepo struct {
	news   map[int64]*models.News
	nextID int64
	views  map[int64]int64
}

func newFakeNewsRepo() *fakeNewsRepo {
	return &fakeNewsRepo{news: map[int64]*models.News{}, views: map[int64]int64{}}
}

func (r *fakeNewsRepo) Create(ctx context.Context, news *models.News) error {
	r.nextID++
	news.ID = r.nextID
	cp := *news
	r.news[news.ID] = &cp
	return nil
}

func (r *fakeNewsRepo) GetByID(ctx context.Context, id int64) (*models.News, error) {
	n, ok := r.news[id]
	if !ok {
		return nil, apperrors.ErrNewsNotFound
	}
	cp := *n
	cp.Views = r.views[id]
	return &cp, nil
}

func (r *fakeNewsRepo) Update(ctx context.Context, news *models.News) error {
	cp := *news
	r.news[news.ID] = &cp
	return nil
}

func (r *fakeNewsRepo) SetPublished(ctx context.Context, id int64, publishedAt *time.Time) error {
	n := r.news[id]
	n.Published = publishedAt != nil
	n.PublishedAt = publishedAt
	return nil
}

func (r *fakeNewsRepo) SetImage(ctx context.Context, id int64, url string) error {
	r.news[id].ImageURL = &url
	return nil
}

func (r *fakeNewsRepo) Delete(ctx context.Context, id int64) error {
	delete(r.news, id)
	return nil
}

func (r *fakeNewsRepo) ListPublished(ctx context.Context, filter models.NewsFilter) ([]models.News, int64, error) {
	var out []models.News
	for _, n := range r.news {
		if n.Published {
			out = append(out, *n)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeNewsRepo) ListDrafts(ctx context.Context, societyID int64) ([]models.News, error) {
	var out []models.News
	for _, n := range r.news {
		if !n.Published && n.SocietyID == societyID {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (r *fakeNewsRepo) AddViews(ctx context.Context, id int64, delta int64) error {
	r.views[id] += delta
	return nil
}

// fakeSearchRepo matches by case-insensitive substring

type fakeSearchRepo struct {
	societies []string
	events    []string
}

func (r *fakeSearchRepo) match(names []string, kind, query string) []dto.SearchResult {
	var out []dto.SearchResult
	for i, n := range names {
		if containsFold(n, query) {
			out = append(out, dto.SearchResult{Kind: kind, ID: int64(i + 1), Name: n})
		}
	}
	return out
}

func (r *fakeSearchRepo) SearchSocieties(ctx context.Context, query string, limit int) ([]dto.SearchResult, error) {
	return r.match(r.societies, "society", query), nil
}

func (r *fakeSearchRepo) SearchEvents(ctx context.Context, query string, now time.Time, limit int) ([]dto.SearchResult, error) {
	return r.match(r.events, "event", query), nil
}

func (r *fakeSearchRepo) Vocabulary(ctx context.Context, now time.Time) ([]string, error) {
	return append(append([]string{}, r.societies...), r.events...), nil
}

// fakeMatchRepo

type fakeMatchRepo struct {
	matches map[int64]*models.Match
	ratings []models.MemberRating
	board   []models.LeaderboardEntry
}

func (r *fakeMatchRepo) Create(ctx context.Context, m *models.Match) error {
	m.ID = int64(len(r.matches) + 1)
	r.matches[m.ID] = m
	return nil
}

func (r *fakeMatchRepo) GetByID(ctx context.Context, id int64) (*models.Match, error) {
	m, ok := r.matches[id]
	if !ok {
		return nil, apperrors.ErrMatchNotFound
	}
	return m, nil
}

func (r *fakeMatchRepo) ListBySociety(ctx context.Context, societyID int64) ([]models.Match, error) {
	return nil, nil
}

func (r *fakeMatchRepo) Delete(ctx context.Context, id int64) error {
	delete(r.matches, id)
	return nil
}

func (r *fakeMatchRepo) AddRating(ctx context.Context, rating *models.MemberRating) error {
	for _, existing := range r.ratings {
		if existing.MatchID == rating.MatchID && existing.UserID == rating.UserID {
			return apperrors.ErrAlreadyRated
		}
	}
	rating.ID = int64(len(r.ratings) + 1)
	r.ratings = append(r.ratings, *rating)
	return nil
}

func (r *fakeMatchRepo) ListRatings(ctx context.Context, matchID int64) ([]models.MemberRating, error) {
	return r.ratings, nil
}

func (r *fakeMatchRepo) Leaderboard(ctx context.Context, societyID int64) ([]models.LeaderboardEntry, error) {
	return append([]models.LeaderboardEntry{}, r.board...), nil
}

// fakeWidgetRepo

type fakeWidgetRepo struct {
	widgets []*models.Widget
}

func (r *fakeWidgetRepo) Create(ctx context.Context, w *models.Widget) error {
	w.ID = int64(len(r.widgets) + 1)
	w.Position = len(r.widgets)
	r.widgets = append(r.widgets, w)
	return nil
}

func (r *fakeWidgetRepo) GetByID(ctx context.Context, id int64) (*models.Widget, error) {
	for _, w := range r.widgets {
		if w.ID == id {
			cp := *w
			return &cp, nil
		}
	}
	return nil, apperrors.ErrWidgetNotFound
}

func (r *fakeWidgetRepo) Update(ctx context.Context, w *models.Widget) error { return nil }

func (r *fakeWidgetRepo) Delete(ctx context.Context, id int64) error { return nil }

func (r *fakeWidgetRepo) List(ctx context.Context, societyID int64, includeHidden bool) ([]models.Widget, error) {
	var out []models.Widget
	for _, w := range r.widgets {
		if w.SocietyID == societyID && (includeHidden || w.Visible) {
			out = append(out, *w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *fakeWidgetRepo) Reorder(ctx context.Context, societyID int64, ids []int64) error {
	for pos, id := range ids {
		for _, w := range r.widgets {
			if w.ID == id {
				w.Position = pos
			}
		}
	}
	return nil
}

// fakePublisher records published domain events

type publishedEvent struct {
	Name string
	Key  int64
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *fakePublisher) Publish(ctx context.Context, name string, key int64, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Name: name, Key: key})
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) has(name string, key int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.events {
		if e.Name == name && e.Key == key {
			return true
		}
	}
	return false
}

// fakeBroadcaster records live feed messages

type broadcast struct {
	SocietyID int64
	Type      string
}

type fakeBroadcaster struct {
	messages []broadcast
}

func (b *fakeBroadcaster) Broadcast(societyID int64, msgType string, payload interface{}) {
	b.messages = append(b.messages, broadcast{SocietyID: societyID, Type: msgType})
}

// fakeStorage stores nothing

type fakeStorage struct {
	deleted []string
}

func (s *fakeStorage) SaveFileWithPath(fileHeader *multipart.FileHeader, subPath string) (string, error) {
	return "/uploads/" + subPath + "/" + fileHeader.Filename, nil
}

func (s *fakeStorage) SaveImage(fileHeader *multipart.FileHeader, subPath string) (string, error) {
	return s.SaveFileWithPath(fileHeader, subPath)
}

func (s *fakeStorage) DeleteFile(fileURL string) error {
	s.deleted = append(s.deleted, fileURL)
	return nil
}

func (s *fakeStorage) GetFullPath(fileURL string) string { return fileURL }

// fakeGateway returns canned sessions and webhook events

type fakeGateway struct {
	sessions int
	event    *payments.WebhookEvent
	err      error
}

func (g *fakeGateway) CreateCheckout(ctx context.Context, req payments.CheckoutRequest) (*payments.CheckoutSession, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.sessions++
	id := "cs_test_" + string(rune('a'+g.sessions))
	return &payments.CheckoutSession{ID: id, URL: "https://checkout.example/" + id}, nil
}

func (g *fakeGateway) ParseWebhook(payload []byte, signature string) (*payments.WebhookEvent, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.event, nil
}

// helpers

func containsFold(s, substr string) bool {
	return substr != "" && strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func member(userID int64) auth.Actor {
	return auth.Actor{UserID: userID}
}

func staff(userID int64) auth.Actor {
	return auth.Actor{UserID: userID, IsStaff: true}
}
