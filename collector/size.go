package collector

import (
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/kbukum/collector/storage"
)

// SizeOf returns the length of v's JSON encoding. The inserter uses it as
// the byte weight of a record against Config.SizeCeiling.
func SizeOf(v any) (int64, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return 0, fmt.Errorf("encoding record: %w", err)
	}
	return int64(len(b)), nil
}

// DataToList plucks the non-nil values stored under key, in record order.
// Producers use it to turn fetched rows into the IDs of the next pass.
func DataToList(key string, records []storage.Record) []any {
	out := make([]any, 0, len(records))
	for _, r := range records {
		if v, ok := r[key]; ok && v != nil {
			out = append(out, v)
		}
	}
	return out
}
