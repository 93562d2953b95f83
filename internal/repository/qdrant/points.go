package qdrant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unilink/scholarmatch/internal/domain"
)

// Payload keys written alongside every vector.
const (
	PayloadExternalID = "external_id"
	PayloadEntityType = "entity_type"
)

// pointNamespace is the fixed UUIDv5 namespace for external-id derivation.
// Changing it orphans every previously stored point, so it is frozen.
var pointNamespace = uuid.MustParse("8d6a2f6e-41c4-5b39-9a7e-c2d1b0a4f583")

// PointID derives the deterministic UUID used as the point primary key.
// Cross-entity-type collisions are handled by collection scoping, not by the
// id value, so the derivation stays a pure function of the external id.
func PointID(externalID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(externalID)).String()
}

// Point is one upsert unit.
type Point struct {
	ExternalID string
	Vector     []float32
	Payload    map[string]string
}

// EnsureCollection creates the collection when it does not exist yet.
// Existing collections are left untouched, whatever their config.
func (c *Client) EnsureCollection(ctx context.Context, name string) error {
	err := c.doJSON(ctx, http.MethodGet, "/collections/"+name, nil, nil)
	if err == nil {
		return nil
	}
	if !errors.Is(err, errNotFound) {
		return fmt.Errorf("probe collection %s: %w", name, err)
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     c.cfg.Dimensions,
			"distance": c.cfg.Distance,
		},
		"optimizers_config": map[string]any{
			"default_segment_number": 2,
		},
	}
	if c.cfg.ReplicationFactor > 0 {
		body["replication_factor"] = c.cfg.ReplicationFactor
	}

	if err := c.doJSON(ctx, http.MethodPut, "/collections/"+name, body, nil); err != nil {
		return fmt.Errorf("create collection %s: %w", name, err)
	}
	if c.logger != nil {
		c.logger.Info("Created vector collection",
			zap.String("collection", name),
			zap.Int("dimensions", c.cfg.Dimensions),
			zap.String("distance", c.cfg.Distance),
		)
	}
	return nil
}

// Upsert writes a single point. Re-upserting the same external id overwrites
// the existing point because the point id is deterministic.
func (c *Client) Upsert(ctx context.Context, collection, externalID string, vector []float32, payload map[string]string) error {
	return c.BatchUpsert(ctx, collection, []Point{{ExternalID: externalID, Vector: vector, Payload: payload}})
}

// BatchUpsert writes multiple points in one call.
func (c *Client) BatchUpsert(ctx context.Context, collection string, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	wire := make([]map[string]any, 0, len(points))
	for _, p := range points {
		externalID := strings.TrimSpace(p.ExternalID)
		if externalID == "" {
			return fmt.Errorf("point external id is required")
		}
		if len(p.Vector) == 0 {
			return fmt.Errorf("point %q has an empty vector: %w", externalID, domain.ErrNoVector)
		}
		if c.cfg.Dimensions > 0 && len(p.Vector) != c.cfg.Dimensions {
			return fmt.Errorf("point %q: expected %d dims, got %d: %w",
				externalID, c.cfg.Dimensions, len(p.Vector), domain.ErrVectorDimMismatch)
		}

		payload := make(map[string]any, len(p.Payload)+1)
		for k, v := range p.Payload {
			payload[k] = v
		}
		// The external id always rides in the payload for reverse lookup.
		payload[PayloadExternalID] = externalID

		wire = append(wire, map[string]any{
			"id":      PointID(externalID),
			"vector":  p.Vector,
			"payload": payload,
		})
	}

	body := map[string]any{"points": wire}
	if err := c.doJSON(ctx, http.MethodPut, "/collections/"+collection+"/points?wait=true", body, nil); err != nil {
		return fmt.Errorf("upsert %d points into %s: %w", len(points), collection, err)
	}
	return nil
}

// searchResultItem is one hit in a points/search response.
type searchResultItem struct {
	ID      string         `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

// Search runs a similarity search with a server-side score floor. Results
// below scoreThreshold never cross the wire, keeping behavior identical to
// the brute-force path which applies the same floor.
func (c *Client) Search(
	ctx context.Context, collection string,
	vector []float32, limit int, scoreThreshold float64,
	filter map[string]string,
) ([]domain.MatchResult, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("query vector required: %w", domain.ErrNoVector)
	}
	if limit <= 0 {
		limit = 10
	}

	body := map[string]any{
		"vector":          vector,
		"limit":           limit,
		"with_payload":    true,
		"with_vector":     false,
		"score_threshold": scoreThreshold,
	}
	if len(filter) > 0 {
		body["filter"] = matchFilter(filter)
	}

	var items []searchResultItem
	if err := c.doJSON(ctx, http.MethodPost, "/collections/"+collection+"/points/search", body, &items); err != nil {
		return nil, fmt.Errorf("search %s: %w", collection, err)
	}

	out := make([]domain.MatchResult, 0, len(items))
	for _, item := range items {
		externalID, payload := decodePayload(item.Payload)
		if externalID == "" {
			// Data error: skip the single record, never abort the search.
			if c.logger != nil {
				c.logger.Warn("Search hit missing external id in payload",
					zap.String("collection", collection),
					zap.String("point_id", item.ID),
				)
			}
			continue
		}
		out = append(out, domain.MatchResult{
			EntityID: externalID,
			Score:    item.Score,
			Payload:  payload,
		})
	}
	return out, nil
}

// scrollResult is the points/scroll response body.
type scrollResult struct {
	Points []searchResultItem `json:"points"`
}

// GetByExternalID looks a point up through its payload filter. Returns
// (nil, nil) when absent.
func (c *Client) GetByExternalID(ctx context.Context, collection, externalID string) (*domain.MatchResult, error) {
	body := map[string]any{
		"filter":       matchFilter(map[string]string{PayloadExternalID: externalID}),
		"limit":        1,
		"with_payload": true,
		"with_vector":  false,
	}

	var res scrollResult
	if err := c.doJSON(ctx, http.MethodPost, "/collections/"+collection+"/points/scroll", body, &res); err != nil {
		return nil, fmt.Errorf("scroll %s: %w", collection, err)
	}
	if len(res.Points) == 0 {
		return nil, nil
	}

	id, payload := decodePayload(res.Points[0].Payload)
	return &domain.MatchResult{EntityID: id, Payload: payload}, nil
}

// Delete removes the points for the given external ids.
func (c *Client) Delete(ctx context.Context, collection string, externalIDs ...string) error {
	ids := make([]string, 0, len(externalIDs))
	seen := make(map[string]struct{}, len(externalIDs))
	for _, externalID := range externalIDs {
		externalID = strings.TrimSpace(externalID)
		if externalID == "" {
			continue
		}
		pointID := PointID(externalID)
		if _, dup := seen[pointID]; dup {
			continue
		}
		seen[pointID] = struct{}{}
		ids = append(ids, pointID)
	}
	if len(ids) == 0 {
		return nil
	}

	body := map[string]any{"points": ids}
	if err := c.doJSON(ctx, http.MethodPost, "/collections/"+collection+"/points/delete?wait=true", body, nil); err != nil {
		return fmt.Errorf("delete %d points from %s: %w", len(ids), collection, err)
	}
	return nil
}

// matchFilter builds a qdrant must-match filter from key/value pairs.
func matchFilter(kv map[string]string) map[string]any {
	must := make([]any, 0, len(kv))
	for k, v := range kv {
		must = append(must, map[string]any{
			"key":   k,
			"match": map[string]any{"value": v},
		})
	}
	return map[string]any{"must": must}
}

// decodePayload extracts the external id and stringifies the rest.
func decodePayload(payload map[string]any) (string, map[string]string) {
	out := make(map[string]string, len(payload))
	for k, v := range payload {
		if s, ok := v.(string); ok {
			out[k] = s
		} else {
			out[k] = fmt.Sprintf("%v", v)
		}
	}
	return strings.TrimSpace(out[PayloadExternalID]), out
}
