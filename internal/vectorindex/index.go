// Package vectorindex stores document chunks for similarity search and
// bridges document processing into the memory store.
package vectorindex

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/rcliao/site-assistant/internal/model"
)

// Index is the vector search capability. Chunks must carry an ID.
type Index interface {
	Upsert(ctx context.Context, chunks []model.DocumentChunk) error
	Query(ctx context.Context, query string, k int) ([]model.ScoredChunk, error)
}

// FilterQuerier is implemented by indexes with native metadata filtering.
type FilterQuerier interface {
	QueryFiltered(ctx context.Context, query string, k int, filter map[string]any) ([]model.ScoredChunk, error)
}

// Getter is implemented by indexes that can fetch a chunk by id. It returns
// an apperr NotFound error when the id is unknown.
type Getter interface {
	GetByID(ctx context.Context, id string) (*model.DocumentChunk, error)
}

// jsonKeysField lists the metadata keys whose values were JSON-encoded to
// fit a string-only metadata map.
const jsonKeysField = "_json_keys"

// encodeMetadata flattens metadata to strings. Non-string values are JSON
// encoded and their keys recorded so decodeMetadata can restore them.
func encodeMetadata(meta map[string]any) (map[string]string, error) {
	out := make(map[string]string, len(meta)+1)
	var jsonKeys []string
	for k, v := range meta {
		if s, ok := v.(string); ok {
			out[k] = s
			continue
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode metadata %q: %w", k, err)
		}
		out[k] = string(b)
		jsonKeys = append(jsonKeys, k)
	}
	if len(jsonKeys) > 0 {
		sort.Strings(jsonKeys)
		out[jsonKeysField] = strings.Join(jsonKeys, ",")
	}
	return out, nil
}

func decodeMetadata(meta map[string]string) map[string]any {
	out := make(map[string]any, len(meta))
	jsonKeys := map[string]bool{}
	if keys := meta[jsonKeysField]; keys != "" {
		for _, k := range strings.Split(keys, ",") {
			jsonKeys[k] = true
		}
	}
	for k, v := range meta {
		if k == jsonKeysField {
			continue
		}
		if jsonKeys[k] {
			var decoded any
			if err := json.Unmarshal([]byte(v), &decoded); err == nil {
				out[k] = decoded
				continue
			}
		}
		out[k] = v
	}
	return out
}

// filterString renders a filter value the way encodeMetadata stores it.
func filterString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// matches reports whether meta carries every filter key with an equal value.
func matches(meta map[string]any, filter map[string]any) bool {
	for k, want := range filter {
		got, ok := meta[k]
		if !ok || filterString(got) != filterString(want) {
			return false
		}
	}
	return true
}
