package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
)

var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// GatewayConfig configures a GeminiGateway
type GatewayConfig struct {
	Model             string
	Dimension         int
	QueryPrefix       string
	PassagePrefix     string
	RequestsPerSecond float64
	MaxRetries        int
	InitialBackoff    time.Duration
}

// contentEmbedder is satisfied by *genai.EmbeddingModel
type contentEmbedder interface {
	EmbedContent(ctx context.Context, parts ...genai.Part) (*genai.EmbedContentResponse, error)
}

// GeminiGateway embeds text with a Gemini embedding model
type GeminiGateway struct {
	models   map[Role]contentEmbedder
	prefixes map[Role]string
	cfg      GatewayConfig
	limiter  *rate.Limiter
}

// NewGeminiGateway creates a gateway with one model handle per role so each
// carries its own retrieval task type.
func NewGeminiGateway(client *genai.Client, cfg GatewayConfig) *GeminiGateway {
	query := client.EmbeddingModel(cfg.Model)
	query.TaskType = genai.TaskTypeRetrievalQuery
	passage := client.EmbeddingModel(cfg.Model)
	passage.TaskType = genai.TaskTypeRetrievalDocument

	return newGateway(map[Role]contentEmbedder{
		RoleQuery:   query,
		RolePassage: passage,
	}, cfg)
}

func newGateway(models map[Role]contentEmbedder, cfg GatewayConfig) *GeminiGateway {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = time.Second
	}

	g := &GeminiGateway{
		models: models,
		prefixes: map[Role]string{
			RoleQuery:   cfg.QueryPrefix,
			RolePassage: cfg.PassagePrefix,
		},
		cfg: cfg,
	}
	if cfg.RequestsPerSecond > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return g
}

// Encode embeds text under the given role and returns a unit-length vector.
// Transient failures are retried with exponential backoff; 400 and 401 are not.
func (g *GeminiGateway) Encode(ctx context.Context, text string, role Role) ([]float32, error) {
	model, ok := g.models[role]
	if !ok {
		return nil, fmt.Errorf("unknown embedding role: %s", role)
	}
	input := g.prefixes[role] + text

	backoff := retry.WithMaxRetries(uint64(g.cfg.MaxRetries-1), retry.NewExponential(g.cfg.InitialBackoff))

	var values []float32
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		res, err := model.EmbedContent(ctx, genai.Text(input))
		if err != nil {
			if isPermanent(err) {
				return err
			}
			return retry.RetryableError(err)
		}
		if res == nil || res.Embedding == nil || len(res.Embedding.Values) == 0 {
			return retry.RetryableError(errors.New("empty embedding in response"))
		}
		values = res.Embedding.Values
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to embed %s text: %w", role, err)
	}

	if g.cfg.Dimension > 0 && len(values) != g.cfg.Dimension {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(values), g.cfg.Dimension)
	}

	out := make([]float32, len(values))
	copy(out, values)
	return Normalize(out), nil
}

func isPermanent(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusBadRequest || apiErr.Code == http.StatusUnauthorized
	}
	return false
}
