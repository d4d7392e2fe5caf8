package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/societyhub/internal/app/auth"
	"github.com/yigit/societyhub/internal/app/models"
	"github.com/yigit/societyhub/internal/app/models/dto"
	"github.com/yigit/societyhub/internal/app/repositories"
	"github.com/yigit/societyhub/internal/pkg/apperrors"
	"github.com/yigit/societyhub/internal/pkg/filestorage"
	"github.com/yigit/societyhub/internal/pkg/helpers"
	"github.com/yigit/societyhub/internal/pkg/websocket"
)

// PanelService backs the gallery, comment wall, match rating and hall of fame panels
type PanelService interface {
	CreateGallery(ctx context.Context, actor auth.Actor, societyID int64, req *dto.CreateGalleryRequest) (*models.Gallery, error)
	GetGallery(ctx context.Context, id int64) (*models.Gallery, error)
	ListGalleries(ctx context.Context, societyID int64) ([]models.Gallery, error)
	DeleteGallery(ctx context.Context, actor auth.Actor, id int64) error
	UploadImage(ctx context.Context, actor auth.Actor, galleryID int64, file *multipart.FileHeader, caption string) (*models.Image, error)
	DeleteImage(ctx context.Context, actor auth.Actor, galleryID, imageID int64) error

	PostComment(ctx context.Context, actor auth.Actor, societyID int64, req *dto.CreateCommentRequest) (*models.Comment, error)
	ListComments(ctx context.Context, societyID int64, page, pageSize int) (*dto.PaginatedResponse, error)
	DeleteComment(ctx context.Context, actor auth.Actor, societyID, commentID int64) error

	CreateMatch(ctx context.Context, actor auth.Actor, societyID int64, req *dto.CreateMatchRequest) (*models.Match, error)
	GetMatch(ctx context.Context, id int64) (*dto.MatchDetailResponse, error)
	ListMatches(ctx context.Context, societyID int64) ([]models.Match, error)
	DeleteMatch(ctx context.Context, actor auth.Actor, id int64) error
	RateMember(ctx context.Context, actor auth.Actor, matchID int64, req *dto.RateMemberRequest) (*models.MemberRating, error)
	Leaderboard(ctx context.Context, societyID int64, limit int) ([]models.LeaderboardEntry, error)

	AwardHallOfFame(ctx context.Context, actor auth.Actor, societyID int64, req *dto.CreateHallOfFameRequest) (*models.HallOfFame, error)
	ListHallOfFame(ctx context.Context, societyID int64) ([]models.HallOfFame, error)
	DeleteHallOfFame(ctx context.Context, actor auth.Actor, societyID, id int64) error
}

type panelServiceImpl struct {
	galleryRepo repositories.IGalleryRepository
	commentRepo repositories.ICommentRepository
	matchRepo   repositories.IMatchRepository
	hofRepo     repositories.IHallOfFameRepository
	authz       *auth.AuthorizationService
	fileStorage filestorage.FileStorage
	live        websocket.Broadcaster
	logger      zerolog.Logger
}

// NewPanelService creates a new PanelService
func NewPanelService(
	galleryRepo repositories.IGalleryRepository,
	commentRepo repositories.ICommentRepository,
	matchRepo repositories.IMatchRepository,
	hofRepo repositories.IHallOfFameRepository,
	authz *auth.AuthorizationService,
	fileStorage filestorage.FileStorage,
	live websocket.Broadcaster,
	logger zerolog.Logger,
) PanelService {
	return &panelServiceImpl{
		galleryRepo: galleryRepo,
		commentRepo: commentRepo,
		matchRepo:   matchRepo,
		hofRepo:     hofRepo,
		authz:       authz,
		fileStorage: fileStorage,
		live:        live,
		logger:      logger,
	}
}

// Galleries

func (s *panelServiceImpl) CreateGallery(ctx context.Context, actor auth.Actor, societyID int64, req *dto.CreateGalleryRequest) (*models.Gallery, error) {
	if _, err := s.authz.RequireCapability(ctx, societyID, actor.UserID, models.CapManageContent); err != nil {
		return nil, err
	}
	g := &models.Gallery{SocietyID: societyID, Title: strings.TrimSpace(req.Title)}
	if err := s.galleryRepo.Create(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *panelServiceImpl) GetGallery(ctx context.Context, id int64) (*models.Gallery, error) {
	return s.galleryRepo.GetByID(ctx, id)
}

func (s *panelServiceImpl) ListGalleries(ctx context.Context, societyID int64) ([]models.Gallery, error) {
	return s.galleryRepo.ListBySociety(ctx, societyID)
}

func (s *panelServiceImpl) loadGallery(ctx context.Context, actor auth.Actor, id int64) (*models.Gallery, error) {
	g, err := s.galleryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.authz.RequireCapability(ctx, g.SocietyID, actor.UserID, models.CapManageContent); err != nil {
		return nil, err
	}
	return g, nil
}

// DeleteGallery removes the gallery and its files
func (s *panelServiceImpl) DeleteGallery(ctx context.Context, actor auth.Actor, id int64) error {
	g, err := s.loadGallery(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.galleryRepo.Delete(ctx, id); err != nil {
		return err
	}
	for _, img := range g.Images {
		if err := s.fileStorage.DeleteFile(img.URL); err != nil {
			s.logger.Warn().Err(err).Int64("imageID", img.ID).Msg("Could not delete gallery image file")
		}
	}
	return nil
}

func (s *panelServiceImpl) UploadImage(ctx context.Context, actor auth.Actor, galleryID int64, file *multipart.FileHeader, caption string) (*models.Image, error) {
	g, err := s.loadGallery(ctx, actor, galleryID)
	if err != nil {
		return nil, err
	}

	url, err := s.fileStorage.SaveImage(file, fmt.Sprintf("galleries/%d", g.ID))
	if err != nil {
		return nil, apperrors.NewBadRequestError(err.Error())
	}
	img := &models.Image{
		GalleryID:  g.ID,
		URL:        url,
		Caption:    strings.TrimSpace(caption),
		UploadedBy: actor.UserID,
	}
	if err := s.galleryRepo.AddImage(ctx, img); err != nil {
		_ = s.fileStorage.DeleteFile(url)
		return nil, err
	}
	return img, nil
}

func (s *panelServiceImpl) DeleteImage(ctx context.Context, actor auth.Actor, galleryID, imageID int64) error {
	if _, err := s.loadGallery(ctx, actor, galleryID); err != nil {
		return err
	}
	img, err := s.galleryRepo.GetImage(ctx, imageID)
	if err != nil {
		return err
	}
	if img.GalleryID != galleryID {
		return apperrors.ErrImageNotFound
	}
	if err := s.galleryRepo.DeleteImage(ctx, imageID); err != nil {
		return err
	}
	return s.fileStorage.DeleteFile(img.URL)
}

// Comments

// PostComment adds to the society wall and pushes it to the live feed
func (s *panelServiceImpl) PostComment(ctx context.Context, actor auth.Actor, societyID int64, req *dto.CreateCommentRequest) (*models.Comment, error) {
	if _, err := s.authz.RequireCapability(ctx, societyID, actor.UserID, models.CapParticipate); err != nil {
		return nil, err
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, apperrors.NewValidationError("comment cannot be empty")
	}

	c := &models.Comment{SocietyID: societyID, UserID: actor.UserID, Content: content}
	if err := s.commentRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.live.Broadcast(societyID, websocket.TypeCommentCreated, c)
	return c, nil
}

func (s *panelServiceImpl) ListComments(ctx context.Context, societyID int64, page, pageSize int) (*dto.PaginatedResponse, error) {
	comments, total, err := s.commentRepo.ListBySociety(ctx, societyID, page, pageSize)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	return &dto.PaginatedResponse{
		Items:      comments,
		Pagination: helpers.NewPaginationInfo(total, page, pageSize),
	}, nil
}

// DeleteComment lets authors remove their own comments and managers remove any
func (s *panelServiceImpl) DeleteComment(ctx context.Context, actor auth.Actor, societyID, commentID int64) error {
	c, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if c.SocietyID != societyID {
		return apperrors.ErrCommentNotFound
	}
	if c.UserID != actor.UserID {
		if _, err := s.authz.RequireCapability(ctx, societyID, actor.UserID, models.CapManageMembers); err != nil {
			return err
		}
	}
	return s.commentRepo.Delete(ctx, commentID)
}

// Matches and ratings

func (s *panelServiceImpl) CreateMatch(ctx context.Context, actor auth.Actor, societyID int64, req *dto.CreateMatchRequest) (*models.Match, error) {
	if _, err := s.authz.RequireCapability(ctx, societyID, actor.UserID, models.CapManageContent); err != nil {
		return nil, err
	}
	m := &models.Match{
		SocietyID: societyID,
		Title:     strings.TrimSpace(req.Title),
		PlayedAt:  req.PlayedAt,
		Notes:     req.Notes,
	}
	if err := s.matchRepo.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *panelServiceImpl) GetMatch(ctx context.Context, id int64) (*dto.MatchDetailResponse, error) {
	m, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ratings, err := s.matchRepo.ListRatings(ctx, id)
	if err != nil {
		return nil, err
	}
	if ratings == nil {
		ratings = []models.MemberRating{}
	}
	return &dto.MatchDetailResponse{Match: *m, Ratings: ratings}, nil
}

func (s *panelServiceImpl) ListMatches(ctx context.Context, societyID int64) ([]models.Match, error) {
	return s.matchRepo.ListBySociety(ctx, societyID)
}

func (s *panelServiceImpl) DeleteMatch(ctx context.Context, actor auth.Actor, id int64) error {
	m, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.authz.RequireCapability(ctx, m.SocietyID, actor.UserID, models.CapManageContent); err != nil {
		return err
	}
	return s.matchRepo.Delete(ctx, id)
}

// RateMember scores an approved member once per match
func (s *panelServiceImpl) RateMember(ctx context.Context, actor auth.Actor, matchID int64, req *dto.RateMemberRequest) (*models.MemberRating, error) {
	if req.Rating < models.MinRating || req.Rating > models.MaxRating {
		return nil, apperrors.NewValidationError(fmt.Sprintf("rating must be between %d and %d", models.MinRating, models.MaxRating))
	}
	m, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authz.RequireCapability(ctx, m.SocietyID, actor.UserID, models.CapManageContent); err != nil {
		return nil, err
	}

	isMember, err := s.authz.IsApprovedMember(ctx, m.SocietyID, req.UserID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, apperrors.ErrNotMember
	}

	rating := &models.MemberRating{
		MatchID: matchID,
		UserID:  req.UserID,
		Rating:  req.Rating,
		Comment: req.Comment,
		RatedBy: actor.UserID,
	}
	if err := s.matchRepo.AddRating(ctx, rating); err != nil {
		return nil, err
	}
	return rating, nil
}

// Leaderboard ranks members by average rating; limit <= 0 returns everyone
func (s *panelServiceImpl) Leaderboard(ctx context.Context, societyID int64, limit int) ([]models.LeaderboardEntry, error) {
	entries, err := s.matchRepo.Leaderboard(ctx, societyID)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.LeaderboardEntry{}
	}
	models.RankLeaderboard(entries)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Hall of fame

func (s *panelServiceImpl) AwardHallOfFame(ctx context.Context, actor auth.Actor, societyID int64, req *dto.CreateHallOfFameRequest) (*models.HallOfFame, error) {
	if _, err := s.authz.RequireCapability(ctx, societyID, actor.UserID, models.CapManageContent); err != nil {
		return nil, err
	}
	isMember, err := s.authz.IsApprovedMember(ctx, societyID, req.UserID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, apperrors.ErrNotMember
	}

	h := &models.HallOfFame{
		SocietyID:   societyID,
		UserID:      req.UserID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
	}
	if req.AwardedAt != nil {
		h.AwardedAt = *req.AwardedAt
	}
	if err := s.hofRepo.Create(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}

func (s *panelServiceImpl) ListHallOfFame(ctx context.Context, societyID int64) ([]models.HallOfFame, error) {
	return s.hofRepo.ListBySociety(ctx, societyID)
}

func (s *panelServiceImpl) DeleteHallOfFame(ctx context.Context, actor auth.Actor, societyID, id int64) error {
	if _, err := s.authz.RequireCapability(ctx, societyID, actor.UserID, models.CapManageContent); err != nil {
		return err
	}
	return s.hofRepo.Delete(ctx, societyID, id)
}
