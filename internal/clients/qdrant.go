package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/recist-io/recist/internal/logging"
	"github.com/recist-io/recist/internal/models"
)

// QdrantClient talks to the Qdrant REST API. One collection per deployment;
// vectors use cosine distance.
type QdrantClient struct {
	baseURL        string
	collectionName string
	dimensions     int
	httpClient     *http.Client
	logger         *logging.Logger
}

// NewQdrantClient creates a client for the given base URL and collection.
// Call EnsureCollection before the first upsert.
func NewQdrantClient(baseURL, collectionName string, dimensions int, timeout time.Duration) *QdrantClient {
	return &QdrantClient{
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		collectionName: collectionName,
		dimensions:     dimensions,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxConnsPerHost:     20,
				MaxIdleConnsPerHost: 10,
			},
		},
		logger: logging.GetLogger("clients.qdrant"),
	}
}

// ScoredPoint is one similarity search hit.
type ScoredPoint struct {
	ID      string
	Score   float32
	Payload map[string]interface{}
}

// CollectionInfo summarizes the backing collection.
type CollectionInfo struct {
	Name         string
	VectorsCount uint64
}

func (c *QdrantClient) do(ctx context.Context, method, path string, reqBody, out interface{}) error {
	var body io.Reader
	if reqBody != nil {
		encoded, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("Qdrant %s %s returned status %d: %s", method, path, resp.StatusCode, string(respBody))
		return models.NewQdrantError("%s %s returned status %d", method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

type qdrantCollectionsResponse struct {
	Result struct {
		Collections []struct {
			Name string `json:"name"`
		} `json:"collections"`
	} `json:"result"`
}

// EnsureCollection creates the collection when it does not exist yet.
func (c *QdrantClient) EnsureCollection(ctx context.Context) error {
	var collections qdrantCollectionsResponse
	if err := c.do(ctx, http.MethodGet, "/collections", nil, &collections); err != nil {
		return err
	}

	for _, col := range collections.Result.Collections {
		if col.Name == c.collectionName {
			return nil
		}
	}

	c.logger.Info("Creating Qdrant collection: %s", c.collectionName)

	createReq := map[string]interface{}{
		"vectors": map[string]interface{}{
			"size":     c.dimensions,
			"distance": "Cosine",
		},
	}
	return c.do(ctx, http.MethodPut, "/collections/"+c.collectionName, createReq, nil)
}

// UpsertEntry writes the entry's embedding and payload to the collection.
// Entries without an embedding are rejected.
func (c *QdrantClient) UpsertEntry(ctx context.Context, entry *models.KnowledgeEntry) error {
	if len(entry.Embedding) == 0 {
		return models.NewQdrantError("entry %s has no embedding", entry.ID)
	}

	payload := map[string]interface{}{
		"namespace":     entry.Namespace,
		"pod_name":      entry.PodName,
		"error_type":    entry.ErrorType,
		"root_cause":    entry.Diagnosis.RootCause,
		"strategy_type": entry.Solution.StrategyType,
		"success":       entry.Outcome.Success,
		"created_at":    entry.CreatedAt.Format(time.RFC3339),
	}
	if entry.Topic != "" {
		payload["topic"] = entry.Topic
	}

	upsertReq := map[string]interface{}{
		"points": []map[string]interface{}{
			{
				"id":      entry.ID,
				"vector":  entry.Embedding,
				"payload": payload,
			},
		},
	}

	if err := c.do(ctx, http.MethodPut, "/collections/"+c.collectionName+"/points", upsertReq, nil); err != nil {
		return err
	}

	c.logger.Debug("Upserted knowledge entry: %s", entry.ID)
	return nil
}

type qdrantSearchResponse struct {
	Result []struct {
		ID      interface{}            `json:"id"`
		Score   float32                `json:"score"`
		Payload map[string]interface{} `json:"payload"`
	} `json:"result"`
}

// SearchSimilar returns the closest points to the embedding. Empty filter
// strings mean unfiltered; both filters apply as exact keyword matches with
// AND semantics.
func (c *QdrantClient) SearchSimilar(ctx context.Context, embedding []float32, limit int, namespaceFilter, topicFilter string) ([]ScoredPoint, error) {
	var conditions []map[string]interface{}
	if namespaceFilter != "" {
		conditions = append(conditions, map[string]interface{}{
			"key":   "namespace",
			"match": map[string]interface{}{"value": namespaceFilter},
		})
	}
	if topicFilter != "" {
		conditions = append(conditions, map[string]interface{}{
			"key":   "topic",
			"match": map[string]interface{}{"value": topicFilter},
		})
	}

	searchReq := map[string]interface{}{
		"vector":       embedding,
		"limit":        limit,
		"with_payload": true,
	}
	if len(conditions) > 0 {
		searchReq["filter"] = map[string]interface{}{"must": conditions}
	}

	var parsed qdrantSearchResponse
	if err := c.do(ctx, http.MethodPost, "/collections/"+c.collectionName+"/points/search", searchReq, &parsed); err != nil {
		return nil, err
	}

	points := make([]ScoredPoint, 0, len(parsed.Result))
	for _, p := range parsed.Result {
		points = append(points, ScoredPoint{
			ID:      fmt.Sprintf("%v", p.ID),
			Score:   p.Score,
			Payload: p.Payload,
		})
	}

	c.logger.Debug("Found %d similar entries", len(points))
	return points, nil
}

// DeleteEntry removes one point by id.
func (c *QdrantClient) DeleteEntry(ctx context.Context, id string) error {
	deleteReq := map[string]interface{}{
		"points": []string{id},
	}

	if err := c.do(ctx, http.MethodPost, "/collections/"+c.collectionName+"/points/delete", deleteReq, nil); err != nil {
		return err
	}

	c.logger.Debug("Deleted knowledge entry: %s", id)
	return nil
}

type qdrantCollectionInfoResponse struct {
	Result struct {
		PointsCount uint64 `json:"points_count"`
	} `json:"result"`
}

// GetCollectionInfo returns the collection name and point count.
func (c *QdrantClient) GetCollectionInfo(ctx context.Context) (*CollectionInfo, error) {
	var parsed qdrantCollectionInfoResponse
	if err := c.do(ctx, http.MethodGet, "/collections/"+c.collectionName, nil, &parsed); err != nil {
		return nil, err
	}

	return &CollectionInfo{
		Name:         c.collectionName,
		VectorsCount: parsed.Result.PointsCount,
	}, nil
}
