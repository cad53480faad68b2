// Package interchange encodes design documents as versioned JSON text.
package interchange

import (
	"bytes"
	"dnacore/pkg/domain"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Document header values written by Encode and required by Decode.
const (
	Format  = "dnacore-design"
	Version = 1
)

// ErrFormat is returned for input that is not a design document this
// package can read.
var ErrFormat = errors.New("interchange: unsupported document")

// Document is the on-disk shape of a design. Entities are listed in id order.
type Document struct {
	Format   string          `json:"format"`
	Version  int             `json:"version"`
	Counters domain.Counters `json:"counters"`
	Grids    []domain.Grid   `json:"grids"`
	Helices  []domain.Helix  `json:"helices"`
	Strands  []domain.Strand `json:"strands"`
}

// FromSnapshot converts a snapshot into its document form.
func FromSnapshot(snap domain.Snapshot) Document {
	return Document{
		Format:   Format,
		Version:  Version,
		Counters: snap.Counters,
		Grids:    snap.SortedGrids(),
		Helices:  snap.SortedHelices(),
		Strands:  snap.SortedStrands(),
	}
}

// Snapshot converts the document back into arenas. Duplicate ids are
// rejected and counters are raised above the largest id present.
func (d Document) Snapshot() (domain.Snapshot, error) {
	if d.Format != Format {
		return domain.Snapshot{}, fmt.Errorf("%w: format %q", ErrFormat, d.Format)
	}
	if d.Version != Version {
		return domain.Snapshot{}, fmt.Errorf("%w: version %d", ErrFormat, d.Version)
	}
	snap := domain.Snapshot{
		Grids:    make(map[domain.GridID]domain.Grid, len(d.Grids)),
		Helices:  make(map[domain.HelixID]domain.Helix, len(d.Helices)),
		Strands:  make(map[domain.StrandID]domain.Strand, len(d.Strands)),
		Counters: d.Counters,
	}
	for _, g := range d.Grids {
		if _, dup := snap.Grids[g.ID]; dup {
			return domain.Snapshot{}, fmt.Errorf("interchange: duplicate grid %d", g.ID)
		}
		snap.Grids[g.ID] = g
		snap.Counters.Grids = max(snap.Counters.Grids, int(g.ID)+1)
	}
	for _, h := range d.Helices {
		if _, dup := snap.Helices[h.ID]; dup {
			return domain.Snapshot{}, fmt.Errorf("interchange: duplicate helix %d", h.ID)
		}
		snap.Helices[h.ID] = h
		snap.Counters.Helices = max(snap.Counters.Helices, int(h.ID)+1)
	}
	for _, st := range d.Strands {
		if _, dup := snap.Strands[st.ID]; dup {
			return domain.Snapshot{}, fmt.Errorf("interchange: duplicate strand %d", st.ID)
		}
		snap.Strands[st.ID] = st
		snap.Counters.Strands = max(snap.Counters.Strands, int(st.ID)+1)
	}
	return snap, nil
}

// Encode writes snap to w as an indented document.
func Encode(w io.Writer, snap domain.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(FromSnapshot(snap)); err != nil {
		return fmt.Errorf("encode design: %w", err)
	}
	return nil
}

// Decode reads one document from r.
func Decode(r io.Reader) (domain.Snapshot, error) {
	var doc Document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return domain.Snapshot{}, fmt.Errorf("decode design: %w", err)
	}
	return doc.Snapshot()
}

// Marshal encodes snap into a byte slice.
func Marshal(snap domain.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, snap); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a document from data.
func Unmarshal(data []byte) (domain.Snapshot, error) {
	return Decode(bytes.NewReader(data))
}
