// Package search serves the user's saved route-search history.
package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/osavchenko/ecoroute/internal/logger"
	"github.com/osavchenko/ecoroute/internal/models"
	"github.com/osavchenko/ecoroute/internal/repository"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100

	defaultSort = "-created_at"
)

// ListRequest is what the caller may tune. Zero values mean defaults.
type ListRequest struct {
	Page  int64
	Limit int64
	Sort  string
	Mode  models.TransportMode
}

// Page is one page of the history plus the envelope the API returns.
type Page struct {
	Searches   []models.Search
	Page       int64
	Limit      int64
	Total      int64
	TotalPages int64
	HasNext    bool
}

type Config struct {
	Logger logger.Logger
}

type SearchService struct {
	searches repository.SearchRepo
	logger   logger.Logger
}

func NewService(cfg Config, searches repository.SearchRepo) (*SearchService, error) {
	if searches == nil {
		return nil, errors.New("search repo is required")
	}

	log := cfg.Logger
	if log == nil {
		log = logger.NewNoOp()
	}

	return &SearchService{searches: searches, logger: log}, nil
}

// List returns one page of the user's searches, newest first by default.
func (s *SearchService) List(ctx context.Context, userID string, req ListRequest) (Page, error) {
	p := repository.ListSearchesParams{
		Page:  req.Page,
		Limit: req.Limit,
		Sort:  req.Sort,
		Mode:  req.Mode,
	}
	if p.Page < 1 {
		p.Page = defaultPage
	}
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	if p.Sort == "" {
		p.Sort = defaultSort
	}

	searches, total, err := s.searches.ListSearches(ctx, userID, p)
	if err != nil {
		return Page{}, fmt.Errorf("list searches: %w", err)
	}

	totalPages := total / p.Limit
	if total%p.Limit != 0 {
		totalPages++
	}

	return Page{
		Searches:   searches,
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    p.Page < totalPages,
	}, nil
}

// Get returns one search owned by the user.
func (s *SearchService) Get(ctx context.Context, id string, userID string) (models.Search, error) {
	return s.searches.GetSearch(ctx, id, userID)
}

// Delete removes one search owned by the user.
func (s *SearchService) Delete(ctx context.Context, id string, userID string) error {
	return s.searches.DeleteSearch(ctx, id, userID)
}

// Stats aggregates totals over the user's whole history.
func (s *SearchService) Stats(ctx context.Context, userID string) (models.SearchStats, error) {
	return s.searches.SearchStats(ctx, userID)
}
