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
	"github.com/yigit/societyhub/internal/pkg/websocket"
)

type fakeCommentRepo struct {
	comments map[int64]*models.Comment
}

func (r *fakeCommentRepo) Create(ctx context.Context, c *models.Comment) error {
	c.ID = int64(len(r.comments) + 1)
	r.comments[c.ID] = c
	return nil
}

func (r *fakeCommentRepo) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	c, ok := r.comments[id]
	if !ok {
		return nil, apperrors.ErrCommentNotFound
	}
	return c, nil
}

func (r *fakeCommentRepo) ListBySociety(ctx context.Context, societyID int64, page, pageSize int) ([]models.Comment, int64, error) {
	return nil, 0, nil
}

func (r *fakeCommentRepo) Delete(ctx context.Context, id int64) error {
	delete(r.comments, id)
	return nil
}

type panelFixture struct {
	svc      PanelService
	comments *fakeCommentRepo
	matches  *fakeMatchRepo
	live     *fakeBroadcaster
}

func newPanelFixture() *panelFixture {
	memberships := newFakeMembershipRepo()
	memberships.put(1, 1, models.RoleManager, models.MembershipApproved)
	memberships.put(1, 2, models.RoleMember, models.MembershipApproved)
	memberships.put(1, 3, models.RoleMember, models.MembershipApproved)
	memberships.put(1, 4, models.RoleMember, models.MembershipPending)

	f := &panelFixture{
		comments: &fakeCommentRepo{comments: map[int64]*models.Comment{}},
		matches:  &fakeMatchRepo{matches: map[int64]*models.Match{}},
		live:     &fakeBroadcaster{},
	}
	f.svc = NewPanelService(nil, f.comments, f.matches, nil,
		auth.NewAuthorizationService(memberships), &fakeStorage{}, f.live, testLogger)
	return f
}

func TestCommentLifecycle(t *testing.T) {
	f := newPanelFixture()
	ctx := context.Background()

	_, err := f.svc.PostComment(ctx, member(4), 1, &dto.CreateCommentRequest{Content: "hi"})
	assert.ErrorIs(t, err, apperrors.ErrNotMember, "pending members cannot comment")

	_, err = f.svc.PostComment(ctx, member(2), 1, &dto.CreateCommentRequest{Content: "   "})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	c, err := f.svc.PostComment(ctx, member(2), 1, &dto.CreateCommentRequest{Content: "Great match!"})
	require.NoError(t, err)
	require.Len(t, f.live.messages, 1)
	assert.Equal(t, websocket.TypeCommentCreated, f.live.messages[0].Type)

	assert.ErrorIs(t, f.svc.DeleteComment(ctx, member(3), 1, c.ID), apperrors.ErrPermissionDenied)
	assert.ErrorIs(t, f.svc.DeleteComment(ctx, member(1), 2, c.ID), apperrors.ErrCommentNotFound)
	require.NoError(t, f.svc.DeleteComment(ctx, member(1), 1, c.ID))

	own, err := f.svc.PostComment(ctx, member(3), 1, &dto.CreateCommentRequest{Content: "mine"})
	require.NoError(t, err)
	assert.NoError(t, f.svc.DeleteComment(ctx, member(3), 1, own.ID))
}

func TestRateMember(t *testing.T) {
	f := newPanelFixture()
	ctx := context.Background()
	match, err := f.svc.CreateMatch(ctx, member(1), 1, &dto.CreateMatchRequest{Title: "Derby", PlayedAt: testNow})
	require.NoError(t, err)

	_, err = f.svc.RateMember(ctx, member(1), match.ID, &dto.RateMemberRequest{UserID: 2, Rating: 11})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = f.svc.RateMember(ctx, member(2), match.ID, &dto.RateMemberRequest{UserID: 3, Rating: 7})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, err = f.svc.RateMember(ctx, member(1), match.ID, &dto.RateMemberRequest{UserID: 4, Rating: 7})
	assert.ErrorIs(t, err, apperrors.ErrNotMember)

	rating, err := f.svc.RateMember(ctx, member(1), match.ID, &dto.RateMemberRequest{UserID: 2, Rating: 8})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rating.RatedBy)

	_, err = f.svc.RateMember(ctx, member(1), match.ID, &dto.RateMemberRequest{UserID: 2, Rating: 9})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyRated)

	detail, err := f.svc.GetMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, "Derby", detail.Title)
	assert.Len(t, detail.Ratings, 1)
}

func TestLeaderboardRankingAndLimit(t *testing.T) {
	f := newPanelFixture()
	f.matches.board = []models.LeaderboardEntry{
		{UserID: 5, AverageRating: 7.5, RatingCount: 2},
		{UserID: 2, AverageRating: 9, RatingCount: 1},
		{UserID: 3, AverageRating: 7.5, RatingCount: 4},
		{UserID: 4, AverageRating: 7.5, RatingCount: 4},
	}

	board, err := f.svc.Leaderboard(context.Background(), 1, 0)
	require.NoError(t, err)
	var order []int64
	for _, e := range board {
		order = append(order, e.UserID)
	}
	assert.Equal(t, []int64{2, 3, 4, 5}, order)

	top, err := f.svc.Leaderboard(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Len(t, top, 2)

	f.matches.board = nil
	empty, err := f.svc.Leaderboard(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

type fakePollRepo struct {
	poll  *models.Poll
	votes map[int64][]int64
}

func (r *fakePollRepo) CreatePoll(ctx context.Context, poll *models.Poll) error {
	poll.ID = 1
	for qi := range poll.Questions {
		poll.Questions[qi].ID = int64(qi + 1)
		for oi := range poll.Questions[qi].Options {
			poll.Questions[qi].Options[oi].ID = int64((qi+1)*10 + oi)
		}
	}
	r.poll = poll
	return nil
}

func (r *fakePollRepo) GetPoll(ctx context.Context, id int64) (*models.Poll, error) {
	if r.poll == nil || r.poll.ID != id {
		return nil, apperrors.ErrPollNotFound
	}
	cp := *r.poll
	return &cp, nil
}

func (r *fakePollRepo) ListPolls(ctx context.Context, societyID int64) ([]models.Poll, error) {
	return []models.Poll{*r.poll}, nil
}

func (r *fakePollRepo) GetOptionTarget(ctx context.Context, optionID int64) (*models.OptionTarget, error) {
	for _, q := range r.poll.Questions {
		for _, o := range q.Options {
			if o.ID == optionID {
				return &models.OptionTarget{OptionID: o.ID, QuestionID: q.ID, PollID: r.poll.ID,
					SocietyID: r.poll.SocietyID, AllowMultiple: q.AllowMultiple}, nil
			}
		}
	}
	return nil, apperrors.ErrPollNotFound
}

func (r *fakePollRepo) Vote(ctx context.Context, target *models.OptionTarget, userID int64) (*models.Vote, error) {
	if !target.AllowMultiple {
		for _, uid := range r.votes[target.QuestionID] {
			if uid == userID {
				return nil, apperrors.ErrAlreadyVoted
			}
		}
	}
	r.votes[target.QuestionID] = append(r.votes[target.QuestionID], userID)
	return &models.Vote{OptionID: target.OptionID, UserID: userID}, nil
}

func (r *fakePollRepo) ClosePoll(ctx context.Context, id int64) error {
	r.poll.IsActive = false
	return nil
}

func (r *fakePollRepo) DeletePoll(ctx context.Context, id int64) error {
	r.poll = nil
	return nil
}

func TestPollVoting(t *testing.T) {
	memberships := newFakeMembershipRepo()
	memberships.put(1, 1, models.RoleManager, models.MembershipApproved)
	memberships.put(1, 2, models.RoleMember, models.MembershipApproved)
	repo := &fakePollRepo{votes: map[int64][]int64{}}
	live := &fakeBroadcaster{}
	svc := NewPollService(repo, auth.NewAuthorizationService(memberships), live, testLogger).(*pollServiceImpl)
	svc.now = fixedClock(testNow)
	ctx := context.Background()

	past := testNow.Add(-time.Hour)
	_, err := svc.CreatePoll(ctx, member(1), 1, &dto.CreatePollRequest{Title: "Kit", ClosesAt: &past,
		Questions: []dto.CreateQuestionRequest{{Text: "Colour?", Options: []string{"Red", "Blue"}}}})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = svc.CreatePoll(ctx, member(2), 1, &dto.CreatePollRequest{Title: "Kit"})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	poll, err := svc.CreatePoll(ctx, member(1), 1, &dto.CreatePollRequest{Title: "Kit",
		Questions: []dto.CreateQuestionRequest{{Text: "Colour?", Options: []string{"Red", "Blue"}}}})
	require.NoError(t, err)
	red := poll.Questions[0].Options[0].ID
	blue := poll.Questions[0].Options[1].ID

	_, err = svc.Vote(ctx, member(2), red)
	require.NoError(t, err)
	assert.Equal(t, websocket.TypePollUpdated, live.messages[0].Type)

	_, err = svc.Vote(ctx, member(2), blue)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyVoted)

	_, err = svc.Vote(ctx, member(9), red)
	assert.ErrorIs(t, err, apperrors.ErrNotMember)

	require.NoError(t, svc.ClosePoll(ctx, member(1), poll.ID))
	_, err = svc.Vote(ctx, member(1), red)
	assert.ErrorIs(t, err, apperrors.ErrPollClosed)
}

func TestReorderWidgets(t *testing.T) {
	memberships := newFakeMembershipRepo()
	memberships.put(1, 1, models.RoleManager, models.MembershipApproved)
	memberships.put(1, 2, models.RoleMember, models.MembershipApproved)
	repo := &fakeWidgetRepo{}
	svc := NewWidgetService(repo, auth.NewAuthorizationService(memberships), testLogger)
	ctx := context.Background()
	hidden := false

	a, err := svc.CreateWidget(ctx, member(1), 1, &dto.CreateWidgetRequest{Type: models.WidgetText, Title: "About"})
	require.NoError(t, err)
	b, err := svc.CreateWidget(ctx, member(1), 1, &dto.CreateWidgetRequest{Type: models.WidgetPoll, Title: "Vote", Visible: &hidden})
	require.NoError(t, err)

	_, err = svc.ReorderWidgets(ctx, member(1), 1, []int64{a.ID, a.ID})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	ordered, err := svc.ReorderWidgets(ctx, member(1), 1, []int64{b.ID, a.ID})
	require.NoError(t, err)
	require.Len(t, ordered, 2)
	assert.Equal(t, b.ID, ordered[0].ID)

	visible, err := svc.ListWidgets(ctx, member(2), 1)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, a.ID, visible[0].ID)

	all, err := svc.ListWidgets(ctx, member(1), 1)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
