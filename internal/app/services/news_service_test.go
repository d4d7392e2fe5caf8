package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/societyhub/internal/app/auth"
	"github.com/yigit/societyhub/internal/app/models"
	"github.com/yigit/societyhub/internal/app/models/dto"
	"github.com/yigit/societyhub/internal/pkg/apperrors"
	"github.com/yigit/societyhub/internal/pkg/cache"
	"github.com/yigit/societyhub/internal/pkg/events"
	"github.com/yigit/societyhub/internal/pkg/websocket"
)

type newsFixture struct {
	svc         NewsService
	news        *fakeNewsRepo
	memberships *fakeMembershipRepo
	live        *fakeBroadcaster
	publisher   *fakePublisher
	storage     *fakeStorage
}

func newNewsFixture() *newsFixture {
	memberships := newFakeMembershipRepo()
	f := &newsFixture{
		news:        newFakeNewsRepo(),
		memberships: memberships,
		live:        &fakeBroadcaster{},
		publisher:   &fakePublisher{},
		storage:     &fakeStorage{},
	}
	f.svc = NewNewsService(f.news, newFakeEventRepo(), auth.NewAuthorizationService(memberships),
		cache.NewDirectViewCounter(f.news), f.storage, f.live, f.publisher, testLogger)
	memberships.put(1, 1, models.RoleManager, models.MembershipApproved)
	memberships.put(1, 2, models.RoleEditor, models.MembershipApproved)
	memberships.put(1, 3, models.RoleMember, models.MembershipApproved)
	return f
}

func TestEditorsWriteNewsMembersDoNot(t *testing.T) {
	f := newNewsFixture()
	ctx := context.Background()
	req := &dto.CreateNewsRequest{Title: " Kit day ", Content: "Bring boots"}

	_, err := f.svc.CreateNews(ctx, member(3), 1, req)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	news, err := f.svc.CreateNews(ctx, member(2), 1, req)
	require.NoError(t, err)
	assert.Equal(t, "Kit day", news.Title)
	assert.False(t, news.Published)
}

func TestPublishBroadcasts(t *testing.T) {
	f := newNewsFixture()
	ctx := context.Background()
	news, err := f.svc.CreateNews(ctx, member(2), 1, &dto.CreateNewsRequest{Title: "Kit day", Content: "Bring boots"})
	require.NoError(t, err)

	published, err := f.svc.Publish(ctx, member(2), news.ID)
	require.NoError(t, err)
	assert.True(t, published.Published)
	assert.NotNil(t, published.PublishedAt)
	require.Len(t, f.live.messages, 1)
	assert.Equal(t, broadcast{SocietyID: 1, Type: websocket.TypeNewsPublished}, f.live.messages[0])
	assert.Eventually(t, func() bool { return f.publisher.has(events.NewsPublished, 1) },
		time.Second, 10*time.Millisecond)

	_, err = f.svc.Publish(ctx, member(2), news.ID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	draft, err := f.svc.Unpublish(ctx, member(1), news.ID)
	require.NoError(t, err)
	assert.False(t, draft.Published)
}

func TestDraftsHiddenFromReaders(t *testing.T) {
	f := newNewsFixture()
	ctx := context.Background()
	news, err := f.svc.CreateNews(ctx, member(2), 1, &dto.CreateNewsRequest{Title: "Draft", Content: "wip"})
	require.NoError(t, err)

	_, err = f.svc.GetNews(ctx, auth.Actor{}, news.ID)
	assert.ErrorIs(t, err, apperrors.ErrNewsNotFound)
	_, err = f.svc.GetNews(ctx, member(3), news.ID)
	assert.ErrorIs(t, err, apperrors.ErrNewsNotFound)

	got, err := f.svc.GetNews(ctx, member(1), news.ID)
	require.NoError(t, err)
	assert.Equal(t, "Draft", got.Title)
	assert.Zero(t, f.news.views[news.ID], "drafts do not count views")

	drafts, err := f.svc.ListDrafts(ctx, member(2), 1)
	require.NoError(t, err)
	assert.Len(t, drafts, 1)
}

func TestReadingPublishedNewsCountsViews(t *testing.T) {
	f := newNewsFixture()
	ctx := context.Background()
	news, err := f.svc.CreateNews(ctx, member(2), 1, &dto.CreateNewsRequest{Title: "Kit day", Content: "Bring boots"})
	require.NoError(t, err)
	_, err = f.svc.Publish(ctx, member(2), news.ID)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := f.svc.GetNews(ctx, auth.Actor{}, news.ID)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(3), f.news.views[news.ID])

	got, err := f.svc.GetNews(ctx, auth.Actor{}, news.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), got.Views, "the current read is included")
	assert.Equal(t, int64(4), f.news.views[news.ID])
}

func TestReadingNewsThroughBufferedCounter(t *testing.T) {
	f := newNewsFixture()
	ctx := context.Background()
	mr := miniredis.RunT(t)
	counter := cache.NewRedisViewCounter(redis.NewClient(&redis.Options{Addr: mr.Addr()}), f.news)
	svc := NewNewsService(f.news, newFakeEventRepo(), auth.NewAuthorizationService(f.memberships),
		counter, f.storage, f.live, f.publisher, testLogger)

	news, err := svc.CreateNews(ctx, member(2), 1, &dto.CreateNewsRequest{Title: "Kit day", Content: "Bring boots"})
	require.NoError(t, err)
	_, err = svc.Publish(ctx, member(2), news.ID)
	require.NoError(t, err)

	first, err := svc.GetNews(ctx, auth.Actor{}, news.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Views)

	_, err = counter.Flush(ctx)
	require.NoError(t, err)
	second, err := svc.GetNews(ctx, auth.Actor{}, news.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.Views)
}

func TestDeleteNewsRemovesImage(t *testing.T) {
	f := newNewsFixture()
	ctx := context.Background()
	news, err := f.svc.CreateNews(ctx, member(2), 1, &dto.CreateNewsRequest{Title: "Kit day", Content: "Bring boots"})
	require.NoError(t, err)
	require.NoError(t, f.news.SetImage(ctx, news.ID, "/uploads/news/1/kit.png"))

	assert.ErrorIs(t, f.svc.DeleteNews(ctx, member(3), news.ID), apperrors.ErrPermissionDenied)
	require.NoError(t, f.svc.DeleteNews(ctx, member(1), news.ID))
	assert.Equal(t, []string{"/uploads/news/1/kit.png"}, f.storage.deleted)
}
