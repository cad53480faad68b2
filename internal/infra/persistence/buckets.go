// Package persistence holds the bucket layout shared by the SQL-backed
// document stores. A design is stored as one JSON payload per bucket in a
// two-column state table.
package persistence

import (
	"dnacore/pkg/domain"
	"encoding/json"
	"fmt"
)

// Bucket names in write order.
const (
	BucketGrids    = "grids"
	BucketHelices  = "helices"
	BucketStrands  = "strands"
	BucketCounters = "counters"
)

// Buckets lists every bucket a snapshot is split into.
var Buckets = []string{BucketGrids, BucketHelices, BucketStrands, BucketCounters}

// EncodeBuckets marshals each part of snap into its bucket payload.
func EncodeBuckets(snap domain.Snapshot) (map[string][]byte, error) {
	out := make(map[string][]byte, len(Buckets))
	for _, bucket := range Buckets {
		var (
			data []byte
			err  error
		)
		switch bucket {
		case BucketGrids:
			data, err = json.Marshal(snap.Grids)
		case BucketHelices:
			data, err = json.Marshal(snap.Helices)
		case BucketStrands:
			data, err = json.Marshal(snap.Strands)
		case BucketCounters:
			data, err = json.Marshal(snap.Counters)
		}
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", bucket, err)
		}
		out[bucket] = data
	}
	return out, nil
}

// DecodeBuckets rebuilds a snapshot from bucket payloads. Unknown buckets and
// empty payloads are ignored; found reports whether any bucket was present.
func DecodeBuckets(payloads map[string][]byte) (snap domain.Snapshot, found bool, err error) {
	targets := map[string]any{
		BucketGrids:    &snap.Grids,
		BucketHelices:  &snap.Helices,
		BucketStrands:  &snap.Strands,
		BucketCounters: &snap.Counters,
	}
	for bucket, payload := range payloads {
		target, ok := targets[bucket]
		if !ok || len(payload) == 0 {
			continue
		}
		if err := json.Unmarshal(payload, target); err != nil {
			return domain.Snapshot{}, false, fmt.Errorf("decode %s: %w", bucket, err)
		}
		found = true
	}
	return snap.Clone(), found, nil
}
