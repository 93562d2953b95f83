// Package profilevec mirrors indexed profile vectors in Redis. The mirror is
// what the brute-force fallback scans when the vector store is unreachable,
// and where the engine looks up a requester's stored embedding.
package profilevec

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/unilink/scholarmatch/internal/db"
	"github.com/unilink/scholarmatch/internal/domain"
	"github.com/unilink/scholarmatch/internal/repository/embcache"
)

// DefaultKeyPrefix namespaces mirror keys when no prefix is configured.
const DefaultKeyPrefix = "scholarmatch:"

const keySuffix = "profilevec:"

// Hash field names.
const (
	fieldVector  = "vector"
	fieldKind    = "kind"
	fieldPayload = "payload"
)

// store is the consumer interface for the mirror (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo stores embedding records per collection.
type Repo struct {
	store  store
	prefix string
	logger *zap.Logger
}

// New creates a mirror repo. keyPrefix namespaces all mirror keys.
func New(s store, keyPrefix string, logger *zap.Logger) *Repo {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &Repo{store: s, prefix: keyPrefix, logger: logger}
}

func (r *Repo) key(collection, externalID string) string {
	return r.prefix + keySuffix + collection + ":" + externalID
}

// Put overwrites the record for one profile (last writer wins).
func (r *Repo) Put(ctx context.Context, collection string, rec domain.EmbeddingRecord) error {
	fields, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	if err := r.store.HSet(ctx, r.key(collection, rec.ExternalID), fields); err != nil {
		return fmt.Errorf("mirror put %s: %w", rec.ExternalID, err)
	}
	return nil
}

// PutMulti overwrites multiple records in one pipelined round-trip.
func (r *Repo) PutMulti(ctx context.Context, collection string, recs []domain.EmbeddingRecord) error {
	if len(recs) == 0 {
		return nil
	}
	items := make([]db.HashSetItem, 0, len(recs))
	for _, rec := range recs {
		fields, err := encodeRecord(rec)
		if err != nil {
			return err
		}
		items = append(items, db.HashSetItem{Key: r.key(collection, rec.ExternalID), Fields: fields})
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("mirror put %d records: %w", len(recs), err)
	}
	return nil
}

// Get returns the mirrored record for one profile.
func (r *Repo) Get(ctx context.Context, collection, externalID string) (domain.EmbeddingRecord, error) {
	fields, err := r.store.HGetAll(ctx, r.key(collection, externalID))
	if err != nil {
		return domain.EmbeddingRecord{}, fmt.Errorf("mirror get %s: %w", externalID, err)
	}
	if len(fields) == 0 {
		return domain.EmbeddingRecord{}, domain.ErrProfileNotFound
	}
	rec, err := decodeRecord(externalID, fields)
	if err != nil {
		return domain.EmbeddingRecord{}, err
	}
	return rec, nil
}

// Delete removes the mirrored record.
func (r *Repo) Delete(ctx context.Context, collection, externalID string) error {
	if err := r.store.Del(ctx, r.key(collection, externalID)); err != nil {
		return fmt.Errorf("mirror delete %s: %w", externalID, err)
	}
	return nil
}

// All returns every mirrored record in the collection. Records that fail to
// decode are skipped with a warning so one bad row never sinks a scan.
func (r *Repo) All(ctx context.Context, collection string) ([]domain.EmbeddingRecord, error) {
	prefix := r.prefix + keySuffix + collection + ":"
	keys, err := r.store.Scan(ctx, prefix+"*")
	if err != nil {
		return nil, fmt.Errorf("mirror scan %s: %w", collection, err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("mirror fetch %d records: %w", len(keys), err)
	}

	out := make([]domain.EmbeddingRecord, 0, len(hashes))
	for i, fields := range hashes {
		if len(fields) == 0 {
			continue
		}
		externalID := keys[i][len(prefix):]
		rec, err := decodeRecord(externalID, fields)
		if err != nil {
			if r.logger != nil {
				r.logger.Warn("Skipping undecodable mirrored vector",
					zap.String("key", keys[i]), zap.Error(err))
			}
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func encodeRecord(rec domain.EmbeddingRecord) (map[string]string, error) {
	if rec.ExternalID == "" {
		return nil, fmt.Errorf("record external id is required")
	}
	if len(rec.Vector) == 0 {
		return nil, fmt.Errorf("record %q has no vector: %w", rec.ExternalID, domain.ErrNoVector)
	}
	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload for %s: %w", rec.ExternalID, err)
	}
	return map[string]string{
		fieldVector:  base64.StdEncoding.EncodeToString(embcache.VectorToBytes(rec.Vector)),
		fieldKind:    string(rec.Kind),
		fieldPayload: string(payload),
	}, nil
}

func decodeRecord(externalID string, fields map[string]string) (domain.EmbeddingRecord, error) {
	raw, err := base64.StdEncoding.DecodeString(fields[fieldVector])
	if err != nil {
		return domain.EmbeddingRecord{}, fmt.Errorf("decode vector for %s: %w", externalID, err)
	}
	vec, err := embcache.BytesToVector(raw)
	if err != nil {
		return domain.EmbeddingRecord{}, fmt.Errorf("decode vector for %s: %w", externalID, err)
	}

	var payload map[string]string
	if p := fields[fieldPayload]; p != "" {
		if err := json.Unmarshal([]byte(p), &payload); err != nil {
			return domain.EmbeddingRecord{}, fmt.Errorf("decode payload for %s: %w", externalID, err)
		}
	}

	return domain.EmbeddingRecord{
		ExternalID: externalID,
		Kind:       domain.Kind(fields[fieldKind]),
		Vector:     vec,
		Payload:    payload,
	}, nil
}
