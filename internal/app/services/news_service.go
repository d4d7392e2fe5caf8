package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/societyhub/internal/app/auth"
	"github.com/yigit/societyhub/internal/app/models"
	"github.com/yigit/societyhub/internal/app/models/dto"
	"github.com/yigit/societyhub/internal/app/repositories"
	"github.com/yigit/societyhub/internal/pkg/apperrors"
	"github.com/yigit/societyhub/internal/pkg/cache"
	"github.com/yigit/societyhub/internal/pkg/events"
	"github.com/yigit/societyhub/internal/pkg/filestorage"
	"github.com/yigit/societyhub/internal/pkg/helpers"
	"github.com/yigit/societyhub/internal/pkg/websocket"
)

// NewsService defines the interface for society news
type NewsService interface {
	CreateNews(ctx context.Context, actor auth.Actor, societyID int64, req *dto.CreateNewsRequest) (*models.News, error)
	UpdateNews(ctx context.Context, actor auth.Actor, id int64, req *dto.UpdateNewsRequest) (*models.News, error)
	Publish(ctx context.Context, actor auth.Actor, id int64) (*models.News, error)
	Unpublish(ctx context.Context, actor auth.Actor, id int64) (*models.News, error)
	DeleteNews(ctx context.Context, actor auth.Actor, id int64) error
	UploadImage(ctx context.Context, actor auth.Actor, id int64, file *multipart.FileHeader) (*models.News, error)
	GetNews(ctx context.Context, actor auth.Actor, id int64) (*models.News, error)
	ListPublished(ctx context.Context, filter *dto.NewsFilterRequest) (*dto.PaginatedResponse, error)
	ListDrafts(ctx context.Context, actor auth.Actor, societyID int64) ([]models.News, error)
}

type newsServiceImpl struct {
	newsRepo    repositories.INewsRepository
	eventRepo   repositories.IEventRepository
	authz       *auth.AuthorizationService
	views       cache.ViewCounter
	fileStorage filestorage.FileStorage
	live        websocket.Broadcaster
	publisher   events.Publisher
	logger      zerolog.Logger
	now         func() time.Time
}

// NewNewsService creates a new NewsService
func NewNewsService(
	newsRepo repositories.INewsRepository,
	eventRepo repositories.IEventRepository,
	authz *auth.AuthorizationService,
	views cache.ViewCounter,
	fileStorage filestorage.FileStorage,
	live websocket.Broadcaster,
	publisher events.Publisher,
	logger zerolog.Logger,
) NewsService {
	return &newsServiceImpl{
		newsRepo:    newsRepo,
		eventRepo:   eventRepo,
		authz:       authz,
		views:       views,
		fileStorage: fileStorage,
		live:        live,
		publisher:   publisher,
		logger:      logger,
		now:         time.Now,
	}
}

// CreateNews adds a draft to a society
func (s *newsServiceImpl) CreateNews(ctx context.Context, actor auth.Actor, societyID int64, req *dto.CreateNewsRequest) (*models.News, error) {
	if _, err := s.authz.RequireCapability(ctx, societyID, actor.UserID, models.CapWriteNews); err != nil {
		return nil, err
	}

	if req.EventID != nil {
		event, err := s.eventRepo.GetByID(ctx, *req.EventID)
		if err != nil {
			return nil, err
		}
		hosted := false
		for _, id := range event.SocietyIDs {
			if id == societyID {
				hosted = true
				break
			}
		}
		if !hosted {
			return nil, apperrors.NewBadRequestError("the event is not hosted by this society")
		}
	}

	news := &models.News{
		SocietyID: societyID,
		EventID:   req.EventID,
		Title:     strings.TrimSpace(req.Title),
		Content:   req.Content,
		AuthorID:  actor.UserID,
	}
	if err := s.newsRepo.Create(ctx, news); err != nil {
		return nil, err
	}
	return news, nil
}

// loadEditable loads news the actor may edit
func (s *newsServiceImpl) loadEditable(ctx context.Context, actor auth.Actor, id int64) (*models.News, error) {
	news, err := s.newsRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.authz.RequireCapability(ctx, news.SocietyID, actor.UserID, models.CapWriteNews); err != nil {
		return nil, err
	}
	return news, nil
}

// UpdateNews edits title and content
func (s *newsServiceImpl) UpdateNews(ctx context.Context, actor auth.Actor, id int64, req *dto.UpdateNewsRequest) (*models.News, error) {
	news, err := s.loadEditable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		news.Title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		news.Content = *req.Content
	}
	if err := s.newsRepo.Update(ctx, news); err != nil {
		return nil, err
	}
	return news, nil
}

// Publish makes a draft public and announces it on the live feed
func (s *newsServiceImpl) Publish(ctx context.Context, actor auth.Actor, id int64) (*models.News, error) {
	news, err := s.loadEditable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if news.Published {
		return nil, apperrors.NewConflictError("news is already published")
	}

	now := s.now()
	if err := s.newsRepo.SetPublished(ctx, id, &now); err != nil {
		return nil, err
	}
	news.Published = true
	news.PublishedAt = &now

	s.live.Broadcast(news.SocietyID, websocket.TypeNewsPublished, news)
	events.PublishAsync(s.publisher, s.logger, events.NewsPublished, news.SocietyID, map[string]interface{}{
		"newsId":    news.ID,
		"societyId": news.SocietyID,
		"title":     news.Title,
	})
	s.logger.Info().Int64("newsID", id).Int64("societyID", news.SocietyID).Msg("News published")
	return news, nil
}

// Unpublish turns published news back into a draft
func (s *newsServiceImpl) Unpublish(ctx context.Context, actor auth.Actor, id int64) (*models.News, error) {
	news, err := s.loadEditable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !news.Published {
		return nil, apperrors.NewConflictError("news is not published")
	}
	if err := s.newsRepo.SetPublished(ctx, id, nil); err != nil {
		return nil, err
	}
	news.Published = false
	news.PublishedAt = nil
	return news, nil
}

// DeleteNews removes news and its image
func (s *newsServiceImpl) DeleteNews(ctx context.Context, actor auth.Actor, id int64) error {
	news, err := s.loadEditable(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.newsRepo.Delete(ctx, id); err != nil {
		return err
	}
	if news.ImageURL != nil {
		if err := s.fileStorage.DeleteFile(*news.ImageURL); err != nil {
			s.logger.Warn().Err(err).Int64("newsID", id).Msg("Could not delete news image")
		}
	}
	return nil
}

// UploadImage attaches an image, replacing any previous one
func (s *newsServiceImpl) UploadImage(ctx context.Context, actor auth.Actor, id int64, file *multipart.FileHeader) (*models.News, error) {
	news, err := s.loadEditable(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	url, err := s.fileStorage.SaveImage(file, fmt.Sprintf("news/%d", news.SocietyID))
	if err != nil {
		return nil, apperrors.NewBadRequestError(err.Error())
	}
	if err := s.newsRepo.SetImage(ctx, id, url); err != nil {
		_ = s.fileStorage.DeleteFile(url)
		return nil, err
	}
	if news.ImageURL != nil {
		_ = s.fileStorage.DeleteFile(*news.ImageURL)
	}
	news.ImageURL = &url
	return news, nil
}

// GetNews returns published news to anyone and drafts to society editors.
// Every read of published news counts as a view.
func (s *newsServiceImpl) GetNews(ctx context.Context, actor auth.Actor, id int64) (*models.News, error) {
	news, err := s.newsRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !news.Published {
		if actor.UserID == 0 {
			return nil, apperrors.ErrNewsNotFound
		}
		m, err := s.authz.Membership(ctx, news.SocietyID, actor.UserID)
		if err != nil {
			return nil, err
		}
		if !m.Can(models.CapWriteNews) {
			return nil, apperrors.ErrNewsNotFound
		}
		return news, nil
	}

	// pending is read before this view is recorded so both counters report it once
	pending, err := s.views.Pending(ctx, id)
	if err != nil {
		s.logger.Warn().Err(err).Int64("newsID", id).Msg("Could not read pending views")
	}
	news.Views += pending
	if err := s.views.Incr(ctx, id); err != nil {
		s.logger.Warn().Err(err).Int64("newsID", id).Msg("Could not count news view")
	} else {
		news.Views++
	}
	return news, nil
}

// ListPublished lists published news of visible societies
func (s *newsServiceImpl) ListPublished(ctx context.Context, filter *dto.NewsFilterRequest) (*dto.PaginatedResponse, error) {
	list, total, err := s.newsRepo.ListPublished(ctx, models.NewsFilter{
		SocietyID: filter.SocietyID,
		EventID:   filter.EventID,
		Page:      filter.Page,
		PageSize:  filter.PageSize,
	})
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.News{}
	}
	return &dto.PaginatedResponse{
		Items:      list,
		Pagination: helpers.NewPaginationInfo(total, filter.Page, filter.PageSize),
	}, nil
}

// ListDrafts lists a society's unpublished news
func (s *newsServiceImpl) ListDrafts(ctx context.Context, actor auth.Actor, societyID int64) ([]models.News, error) {
	if _, err := s.authz.RequireCapability(ctx, societyID, actor.UserID, models.CapWriteNews); err != nil {
		return nil, err
	}
	return s.newsRepo.ListDrafts(ctx, societyID)
}
