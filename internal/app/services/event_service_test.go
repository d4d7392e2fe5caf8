package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/societyhub/internal/app/auth"
	"github.com/yigit/societyhub/internal/app/models"
	"github.com/yigit/societyhub/internal/app/models/dto"
	"github.com/yigit/societyhub/internal/pkg/apperrors"
	"github.com/yigit/societyhub/internal/pkg/events"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type eventFixture struct {
	svc         *eventServiceImpl
	events      *fakeEventRepo
	societies   *fakeSocietyRepo
	memberships *fakeMembershipRepo
	payments    *fakePaymentRepo
	publisher   *fakePublisher
}

func newEventFixture() *eventFixture {
	memberships := newFakeMembershipRepo()
	f := &eventFixture{
		events:      newFakeEventRepo(),
		memberships: memberships,
		societies:   newFakeSocietyRepo(memberships),
		payments:    newFakePaymentRepo(),
		publisher:   &fakePublisher{},
	}
	f.svc = NewEventService(f.events, f.societies, f.payments,
		auth.NewAuthorizationService(memberships), f.publisher, testLogger).(*eventServiceImpl)
	f.svc.now = fixedClock(testNow)
	return f
}

func (f *eventFixture) society(t *testing.T, name string, managerID int64) int64 {
	t.Helper()
	s := &models.Society{Name: name, Status: models.SocietyStatusApproved, ManagerID: managerID}
	require.NoError(t, f.societies.CreateWithManager(context.Background(), s))
	return s.ID
}

func eventRequest(societyIDs ...int64) *dto.CreateEventRequest {
	return &dto.CreateEventRequest{
		Name:       "Quiz Night",
		Location:   "Union Bar",
		StartsAt:   testNow.Add(48 * time.Hour),
		EndsAt:     testNow.Add(50 * time.Hour),
		Type:       models.EventTypeSocial,
		IsFree:     true,
		SocietyIDs: societyIDs,
	}
}

func intPtr(v int) *int { return &v }

func TestCreateEventCreatesDraft(t *testing.T) {
	f := newEventFixture()
	id := f.society(t, "Chess", 1)

	resp, err := f.svc.CreateEvent(context.Background(), member(1), eventRequest(id, id))
	require.NoError(t, err)
	assert.Equal(t, []int64{id}, resp.SocietyIDs)
	assert.True(t, resp.IsFree)
	assert.Nil(t, resp.SpotsLeft)

	require.Len(t, f.events.drafts, 1)
	draft := f.events.drafts[0]
	assert.False(t, draft.Published)
	assert.Equal(t, "Quiz Night", draft.Title)
	require.NotNil(t, draft.EventID)
	assert.Equal(t, resp.ID, *draft.EventID)
}

func TestCreateEventValidation(t *testing.T) {
	f := newEventFixture()
	ctx := context.Background()
	id := f.society(t, "Chess", 1)

	past := eventRequest(id)
	past.StartsAt = testNow.Add(-time.Hour)
	past.EndsAt = testNow.Add(time.Hour)
	_, err := f.svc.CreateEvent(ctx, member(1), past)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	inverted := eventRequest(id)
	inverted.EndsAt = inverted.StartsAt.Add(-time.Minute)
	_, err = f.svc.CreateEvent(ctx, member(1), inverted)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	freeWithFee := eventRequest(id)
	freeWithFee.Fee = 300
	_, err = f.svc.CreateEvent(ctx, member(1), freeWithFee)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	paidWithoutFee := eventRequest(id)
	paidWithoutFee.IsFree = false
	_, err = f.svc.CreateEvent(ctx, member(1), paidWithoutFee)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = f.svc.CreateEvent(ctx, member(1), eventRequest())
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestCreateJointEventNeedsEveryHost(t *testing.T) {
	f := newEventFixture()
	ctx := context.Background()
	a := f.society(t, "Chess", 1)
	b := f.society(t, "Go", 2)

	_, err := f.svc.CreateEvent(ctx, member(1), eventRequest(a, b))
	assert.ErrorIs(t, err, apperrors.ErrNotMember)

	f.memberships.put(b, 1, models.RoleCoManager, models.MembershipApproved)
	_, err = f.svc.CreateEvent(ctx, member(1), eventRequest(a, b))
	assert.NoError(t, err)

	// editors may write news but not create events
	f.memberships.put(a, 3, models.RoleEditor, models.MembershipApproved)
	_, err = f.svc.CreateEvent(ctx, member(3), eventRequest(a))
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestRegisterWaitlistAndPromotion(t *testing.T) {
	f := newEventFixture()
	ctx := context.Background()
	id := f.society(t, "Chess", 1)
	req := eventRequest(id)
	req.Capacity = intPtr(2)
	event, err := f.svc.CreateEvent(ctx, member(1), req)
	require.NoError(t, err)

	for _, uid := range []int64{10, 11, 12, 13} {
		_, err := f.svc.Register(ctx, member(uid), event.ID)
		require.NoError(t, err)
	}
	assert.Equal(t, models.RegistrationAccepted, f.events.statusOf(event.ID, 10))
	assert.Equal(t, models.RegistrationAccepted, f.events.statusOf(event.ID, 11))
	assert.Equal(t, models.RegistrationWaitlisted, f.events.statusOf(event.ID, 12))
	assert.Equal(t, models.RegistrationWaitlisted, f.events.statusOf(event.ID, 13))

	_, err = f.svc.Register(ctx, member(10), event.ID)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyRegistered)

	require.NoError(t, f.svc.CancelRegistration(ctx, member(10), event.ID))
	assert.Equal(t, models.RegistrationAccepted, f.events.statusOf(event.ID, 12), "first waitlisted user is promoted")
	assert.Equal(t, models.RegistrationWaitlisted, f.events.statusOf(event.ID, 13))

	got, err := f.svc.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.AcceptedCount)
	assert.Equal(t, 0, *got.SpotsLeft)
}

func TestRejectRegistrationPromotesNext(t *testing.T) {
	f := newEventFixture()
	ctx := context.Background()
	id := f.society(t, "Chess", 1)
	req := eventRequest(id)
	req.Capacity = intPtr(1)
	event, err := f.svc.CreateEvent(ctx, member(1), req)
	require.NoError(t, err)

	first, err := f.svc.Register(ctx, member(10), event.ID)
	require.NoError(t, err)
	_, err = f.svc.Register(ctx, member(11), event.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.RejectRegistration(ctx, member(10), event.ID, first.ID), apperrors.ErrNotMember)
	require.NoError(t, f.svc.RejectRegistration(ctx, member(1), event.ID, first.ID))
	assert.Equal(t, models.RegistrationRejected, f.events.statusOf(event.ID, 10))
	assert.Equal(t, models.RegistrationAccepted, f.events.statusOf(event.ID, 11))
}

func TestRegisterAfterStart(t *testing.T) {
	f := newEventFixture()
	ctx := context.Background()
	id := f.society(t, "Chess", 1)
	event, err := f.svc.CreateEvent(ctx, member(1), eventRequest(id))
	require.NoError(t, err)

	f.svc.now = fixedClock(event.StartsAt)
	_, err = f.svc.Register(ctx, member(10), event.ID)
	assert.ErrorIs(t, err, apperrors.ErrEventStarted)
}

func TestRegisterPaidEventNeedsPayment(t *testing.T) {
	f := newEventFixture()
	ctx := context.Background()
	id := f.society(t, "Chess", 1)
	req := eventRequest(id)
	req.IsFree = false
	req.Fee = 1000
	event, err := f.svc.CreateEvent(ctx, member(1), req)
	require.NoError(t, err)
	assert.False(t, event.IsFree)

	_, err = f.svc.Register(ctx, member(10), event.ID)
	assert.ErrorIs(t, err, apperrors.ErrPaymentRequired)
}

func TestUpdateEventKeepsFeeConsistent(t *testing.T) {
	f := newEventFixture()
	ctx := context.Background()
	id := f.society(t, "Chess", 1)
	event, err := f.svc.CreateEvent(ctx, member(1), eventRequest(id))
	require.NoError(t, err)

	fee := int64(250)
	updated, err := f.svc.UpdateEvent(ctx, member(1), event.ID, &dto.UpdateEventRequest{Fee: &fee})
	require.NoError(t, err)
	assert.False(t, updated.IsFree)
	assert.Equal(t, int64(250), updated.Fee)

	free := true
	updated, err = f.svc.UpdateEvent(ctx, member(1), event.ID, &dto.UpdateEventRequest{IsFree: &free})
	require.NoError(t, err)
	assert.True(t, updated.IsFree)
	assert.Zero(t, updated.Fee)

	_, err = f.svc.UpdateEvent(ctx, member(2), event.ID, &dto.UpdateEventRequest{IsFree: &free})
	assert.ErrorIs(t, err, apperrors.ErrNotMember)
}

func TestUpdateEventCapacityPromotesWaitlist(t *testing.T) {
	f := newEventFixture()
	ctx := context.Background()
	id := f.society(t, "Chess", 1)
	req := eventRequest(id)
	req.Capacity = intPtr(1)
	event, err := f.svc.CreateEvent(ctx, member(1), req)
	require.NoError(t, err)

	for _, uid := range []int64{10, 11, 12, 13} {
		_, err := f.svc.Register(ctx, member(uid), event.ID)
		require.NoError(t, err)
	}

	updated, err := f.svc.UpdateEvent(ctx, member(1), event.ID, &dto.UpdateEventRequest{Capacity: intPtr(3)})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.AcceptedCount)
	assert.Equal(t, models.RegistrationAccepted, f.events.statusOf(event.ID, 11))
	assert.Equal(t, models.RegistrationAccepted, f.events.statusOf(event.ID, 12))
	assert.Equal(t, models.RegistrationWaitlisted, f.events.statusOf(event.ID, 13))

	lower, err := f.svc.UpdateEvent(ctx, member(1), event.ID, &dto.UpdateEventRequest{Capacity: intPtr(1)})
	require.NoError(t, err)
	assert.Equal(t, 3, lower.AcceptedCount, "lowering capacity keeps accepted registrations")

	unlimited, err := f.svc.UpdateEvent(ctx, member(1), event.ID, &dto.UpdateEventRequest{ClearCapacity: true})
	require.NoError(t, err)
	assert.Equal(t, 4, unlimited.AcceptedCount)
	assert.Equal(t, models.RegistrationAccepted, f.events.statusOf(event.ID, 13))
	assert.Eventually(t, func() bool { return f.publisher.has(events.RegistrationUpdated, id) },
		time.Second, 10*time.Millisecond)
}
