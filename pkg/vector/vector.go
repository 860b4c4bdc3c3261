// Package vector implements VectorContext: OpenAI-compatible text
// embeddings cached in Redis, and a Qdrant top-k similarity search over a
// course embedding collection.
package vector

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"github.com/redis/go-redis/v9"
	openai "github.com/sashabaranov/go-openai"

	"github.com/tfpre/CourseNavigator-sub000/pkg/kvstore"
)

const (
	embeddingTTL   = 7 * 24 * time.Hour
	searchTTL      = time.Hour
	scoreThreshold = 0.7
	embeddingModel = openai.SmallEmbedding3
	defaultTopK    = 10
)

// Match is one scored similarity search result.
type Match struct {
	CourseCode string         `json:"course_code"`
	Score      float64        `json:"score"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// Context is VectorContext: embeds a query and searches the course
// collection, caching both stages behind Redis.
type Context struct {
	kv         *kvstore.Client
	openai     *openai.Client
	qdrant     *qdrant.Client
	collection string
}

// Config configures Context.
type Config struct {
	OpenAIAPIKey  string
	OpenAIBaseURL string
	QdrantHost    string
	QdrantPort    int
	QdrantAPIKey  string
	Collection    string
}

// New returns a Context wired to OpenAI-compatible embeddings and a Qdrant
// collection.
func New(kv *kvstore.Client, cfg Config) (*Context, error) {
	oaiCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		oaiCfg.BaseURL = cfg.OpenAIBaseURL
	}

	qc, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.QdrantHost,
		Port:   cfg.QdrantPort,
		APIKey: cfg.QdrantAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("vector: connect qdrant: %w", err)
	}

	collection := cfg.Collection
	if collection == "" {
		collection = "cornell_courses"
	}

	return &Context{
		kv:         kv,
		openai:     openai.NewClientWithConfig(oaiCfg),
		qdrant:     qc,
		collection: collection,
	}, nil
}

// Embed returns the embedding vector for text, serving from a 7-day Redis
// cache keyed by a truncated SHA-1 of the text (embeddings are deterministic
// given a fixed model, so the cache never needs invalidation).
func (c *Context) Embed(ctx context.Context, text string) ([]float32, error) {
	sum := sha1.Sum([]byte(text))
	cacheKey := fmt.Sprintf("embedding:v1:%s", hex.EncodeToString(sum[:])[:16])

	if cached, err := c.kv.Get(ctx, cacheKey); err == nil {
		var vec []float32
		if jerr := json.Unmarshal([]byte(cached), &vec); jerr == nil {
			return vec, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("vector: read embedding cache: %w", err)
	}

	resp, err := c.openai.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: embeddingModel,
	})
	if err != nil {
		return nil, fmt.Errorf("vector: create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("vector: empty embedding response")
	}
	vec := resp.Data[0].Embedding

	if data, err := json.Marshal(vec); err == nil {
		_ = c.kv.SetEX(ctx, cacheKey, string(data), embeddingTTL)
	}

	return vec, nil
}

// Search embeds message and runs a top-k Qdrant search, filtering to matches
// with score >= scoreThreshold. Results are cached for an hour keyed by a
// digest of the embedding's leading dimensions plus the query parameters,
// since vector search itself is the expensive step.
func (c *Context) Search(ctx context.Context, message string, topK int) ([]Match, error) {
	if topK <= 0 {
		topK = defaultTopK
	}

	embedding, err := c.Embed(ctx, message)
	if err != nil {
		return nil, err
	}

	cacheKey, err := searchCacheKey(embedding, topK)
	if err != nil {
		return nil, err
	}
	if cached, err := c.kv.Get(ctx, cacheKey); err == nil {
		var matches []Match
		if jerr := json.Unmarshal([]byte(cached), &matches); jerr == nil {
			return matches, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("vector: read search cache: %w", err)
	}

	limit := uint64(topK)
	threshold := float32(scoreThreshold)
	points, err := c.qdrant.Query(ctx, &qdrant.QueryPoints{
		CollectionName: c.collection,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          &limit,
		ScoreThreshold: &threshold,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("vector: query qdrant: %w", err)
	}

	matches := make([]Match, 0, len(points))
	for _, p := range points {
		if p.Score < scoreThreshold {
			continue
		}
		payload := map[string]any{}
		courseCode := ""
		for k, v := range p.Payload {
			decoded := decodeValue(v)
			payload[k] = decoded
			if k == "course_code" {
				if s, ok := decoded.(string); ok {
					courseCode = s
				}
			}
		}
		matches = append(matches, Match{
			CourseCode: courseCode,
			Score:      float64(p.Score),
			Payload:    payload,
		})
	}

	if data, err := json.Marshal(matches); err == nil {
		_ = c.kv.SetEX(ctx, cacheKey, string(data), searchTTL)
	}

	return matches, nil
}

func searchCacheKey(embedding []float32, topK int) (string, error) {
	lead := embedding
	if len(lead) > 10 {
		lead = lead[:10]
	}
	data, err := json.Marshal(lead)
	if err != nil {
		return "", fmt.Errorf("vector: digest search key: %w", err)
	}
	sum := sha1.Sum(append(data, []byte(fmt.Sprintf(":%d", topK))...))
	return fmt.Sprintf("vsearch:v1:%s:%d", hex.EncodeToString(sum[:])[:12], topK), nil
}

func decodeValue(v *qdrant.Value) any {
	if v == nil {
		return nil
	}
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	default:
		return nil
	}
}

// Health reports whether the vector index answers its health probe.
func (c *Context) Health(ctx context.Context) bool {
	_, err := c.qdrant.HealthCheck(ctx)
	return err == nil
}
