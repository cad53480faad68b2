package persistence

import (
	"dnacore/pkg/domain"
	"reflect"
	"testing"
)

func TestBucketsRoundTrip(t *testing.T) {
	g := domain.NewGrid(0, domain.PlaneXY, domain.Vec3{}, domain.GridSquare)
	h := domain.NewHelix(0, g, domain.GridPoint{X: 0, Y: 0}, 8)
	g.SetHelix(h.Point, h.ID)
	snap := domain.Snapshot{
		Grids:    map[domain.GridID]domain.Grid{g.ID: g},
		Helices:  map[domain.HelixID]domain.Helix{h.ID: h},
		Strands:  map[domain.StrandID]domain.Strand{},
		Counters: domain.Counters{Grids: 1, Helices: 3},
	}
	payloads, err := EncodeBuckets(snap)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(payloads) != len(Buckets) {
		t.Fatalf("expected %d buckets, got %d", len(Buckets), len(payloads))
	}
	payloads["legacy"] = []byte("not json")
	got, found, err := DecodeBuckets(payloads)
	if err != nil || !found {
		t.Fatalf("decode: %v %v", found, err)
	}
	if !reflect.DeepEqual(got, snap.Clone()) {
		t.Fatalf("round trip mismatch:\nwant %+v\ngot  %+v", snap, got)
	}
}

func TestDecodeBucketsEmptyAndCorrupt(t *testing.T) {
	snap, found, err := DecodeBuckets(nil)
	if err != nil || found {
		t.Fatalf("expected nothing found, got %v %v", found, err)
	}
	if snap.Grids == nil || snap.Strands == nil {
		t.Fatalf("decoded snapshot must carry non-nil maps")
	}
	if _, _, err := DecodeBuckets(map[string][]byte{BucketCounters: []byte("{")}); err == nil {
		t.Fatalf("expected decode error")
	}
}
