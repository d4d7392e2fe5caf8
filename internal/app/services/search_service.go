package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/societyhub/internal/app/models/dto"
	"github.com/yigit/societyhub/internal/app/repositories"
	"github.com/yigit/societyhub/internal/pkg/search"
)

const searchLimit = 20

// SearchService finds societies and events by name
type SearchService interface {
	Search(ctx context.Context, query string) (*dto.SearchResponse, error)
}

type searchServiceImpl struct {
	searchRepo repositories.ISearchRepository
	threshold  float64
	logger     zerolog.Logger
	now        func() time.Time
}

// NewSearchService creates a new SearchService
func NewSearchService(searchRepo repositories.ISearchRepository, logger zerolog.Logger) SearchService {
	return &searchServiceImpl{
		searchRepo: searchRepo,
		threshold:  search.DefaultThreshold,
		logger:     logger,
		now:        time.Now,
	}
}

// Search matches approved societies and upcoming events. When nothing matches it
// retries once with a spelling correction drawn from the names themselves.
func (s *searchServiceImpl) Search(ctx context.Context, query string) (*dto.SearchResponse, error) {
	query = strings.TrimSpace(query)
	resp := &dto.SearchResponse{
		Query:     query,
		Societies: []dto.SearchResult{},
		Events:    []dto.SearchResult{},
	}
	if query == "" {
		return resp, nil
	}

	now := s.now()
	if err := s.run(ctx, query, now, resp); err != nil {
		return nil, err
	}
	if resp.TotalResult > 0 {
		return resp, nil
	}

	names, err := s.searchRepo.Vocabulary(ctx, now)
	if err != nil {
		return nil, err
	}
	corrected, ok := search.Suggest(query, search.Vocabulary(names), s.threshold)
	if !ok {
		return resp, nil
	}

	s.logger.Debug().Str("query", query).Str("suggestion", corrected).Msg("Retrying search with suggestion")
	resp.DidYouMean = &corrected
	if err := s.run(ctx, corrected, now, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *searchServiceImpl) run(ctx context.Context, query string, now time.Time, resp *dto.SearchResponse) error {
	societies, err := s.searchRepo.SearchSocieties(ctx, query, searchLimit)
	if err != nil {
		return err
	}
	evts, err := s.searchRepo.SearchEvents(ctx, query, now, searchLimit)
	if err != nil {
		return err
	}
	if societies != nil {
		resp.Societies = societies
	}
	if evts != nil {
		resp.Events = evts
	}
	resp.TotalResult = len(societies) + len(evts)
	return nil
}
