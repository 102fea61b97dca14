package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lexai-backend/embedding"
	"lexai-backend/logger"
	"lexai-backend/metrics"
	"lexai-backend/models"
)

const (
	defaultSearchK      = 5
	defaultMaxSearchK   = 50
	defaultPreviewChars = 300
)

// SearchService ranks stored chunks against a free-text query
type SearchService struct {
	searcher     NeighborSearcher
	gateway      embedding.Gateway
	defaultK     int
	maxK         int
	previewChars int
	metrics      *metrics.Metrics
	logger       logger.Logger
}

// SearchServiceOption is a functional option for SearchService
type SearchServiceOption func(*SearchService)

// SearchWithSearcher sets the nearest-neighbour store
func SearchWithSearcher(searcher NeighborSearcher) SearchServiceOption {
	return func(s *SearchService) {
		s.searcher = searcher
	}
}

// SearchWithGateway sets the embedding gateway used for queries
func SearchWithGateway(gateway embedding.Gateway) SearchServiceOption {
	return func(s *SearchService) {
		s.gateway = gateway
	}
}

// SearchWithLimits sets the default and maximum result counts
func SearchWithLimits(defaultK, maxK int) SearchServiceOption {
	return func(s *SearchService) {
		s.defaultK = defaultK
		s.maxK = maxK
	}
}

// SearchWithPreviewChars sets how much chunk text each result carries
func SearchWithPreviewChars(n int) SearchServiceOption {
	return func(s *SearchService) {
		s.previewChars = n
	}
}

// SearchWithMetrics sets the metrics sink
func SearchWithMetrics(m *metrics.Metrics) SearchServiceOption {
	return func(s *SearchService) {
		s.metrics = m
	}
}

// SearchWithLogger sets the logger
func SearchWithLogger(l logger.Logger) SearchServiceOption {
	return func(s *SearchService) {
		s.logger = l
	}
}

// NewSearchService creates a new search service
func NewSearchService(opts ...SearchServiceOption) *SearchService {
	s := &SearchService{
		defaultK:     defaultSearchK,
		maxK:         defaultMaxSearchK,
		previewChars: defaultPreviewChars,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.defaultK < 1 {
		s.defaultK = defaultSearchK
	}
	if s.maxK < s.defaultK {
		s.maxK = s.defaultK
	}
	return s
}

func (s *SearchService) log(ctx context.Context) logger.Logger {
	if s.logger != nil {
		return s.logger
	}
	return logger.FromContext(ctx)
}

// SearchRequest represents a similarity search
type SearchRequest struct {
	Query string
	K     int
}

// SearchResponse holds results ordered by ascending distance
type SearchResponse struct {
	Results []models.SearchResult
}

// DefaultK returns the result count used when a caller does not give one
func (s *SearchService) DefaultK() int {
	return s.defaultK
}

// Similarity maps a cosine distance in [0,2] onto [0,1]
func Similarity(distance float64) float64 {
	return 1 - distance/2
}

// Search embeds the query under the query framing and returns the k nearest
// embedded chunks. k above the configured maximum is clamped to it.
func (s *SearchService) Search(ctx context.Context, req SearchRequest) (resp *SearchResponse, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveSearch(start, err) }()

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, &ValidationError{Field: "query", Err: ErrEmptyQuery}
	}
	if req.K < 1 {
		return nil, &ValidationError{Field: "k", Err: ErrInvalidK}
	}
	if s.searcher == nil {
		return nil, ErrStoreNotSet
	}
	if s.gateway == nil {
		return nil, ErrGatewayNotSet
	}

	k := req.K
	if k > s.maxK {
		k = s.maxK
	}

	vec, err := s.gateway.Encode(ctx, query, embedding.RoleQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	neighbors, err := s.searcher.NearestNeighbors(ctx, vec, k, s.previewChars)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}

	results := make([]models.SearchResult, 0, len(neighbors))
	for _, n := range neighbors {
		results = append(results, models.SearchResult{
			ID:         n.ID,
			CaseNo:     n.CaseNo,
			Section:    n.Section,
			ChunkIndex: n.ChunkIndex,
			Preview:    n.Preview,
			Distance:   n.Distance,
			Similarity: Similarity(n.Distance),
		})
	}

	s.log(ctx).Debug("Search completed", "k", k, "results", len(results))
	return &SearchResponse{Results: results}, nil
}
