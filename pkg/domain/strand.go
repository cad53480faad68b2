package domain

import (
	"fmt"
	"strings"
)

// Head returns the first base of the strand.
func (s Strand) Head() NucleotideRef {
	if len(s.Nucleotides) == 0 {
		return NucleotideRef{Helix: NoHelix}
	}
	return s.Nucleotides[0]
}

// Tail returns the last base of the strand.
func (s Strand) Tail() NucleotideRef {
	if len(s.Nucleotides) == 0 {
		return NucleotideRef{Helix: NoHelix}
	}
	return s.Nucleotides[len(s.Nucleotides)-1]
}

// Length returns the total base count.
func (s Strand) Length() int { return len(s.Nucleotides) }

// HasCrossovers reports whether the strand spans more than one segment.
func (s Strand) HasCrossovers() bool { return len(s.Crossovers) > 0 }

// Segments splits the strand at its crossovers. A strand with N crossovers
// yields N+1 segments, each lying on a single helix and direction.
func (s Strand) Segments() [][]NucleotideRef {
	if len(s.Nucleotides) == 0 {
		return nil
	}
	segments := make([][]NucleotideRef, 0, len(s.Crossovers)+1)
	start, next := 0, 0
	for k := 0; k+1 < len(s.Nucleotides); k++ {
		if next < len(s.Crossovers) && s.Crossovers[next].Prev == s.Nucleotides[k] && s.Crossovers[next].Next == s.Nucleotides[k+1] {
			segments = append(segments, s.Nucleotides[start:k+1])
			start = k + 1
			next++
		}
	}
	return append(segments, s.Nucleotides[start:])
}

// Clone returns a deep copy of s.
func (s Strand) Clone() Strand {
	cp := s
	cp.Nucleotides = append([]NucleotideRef(nil), s.Nucleotides...)
	cp.Crossovers = append([]Crossover(nil), s.Crossovers...)
	return cp
}

// Contiguous reports whether b directly follows a on the same helix strand.
func Contiguous(a, b NucleotideRef) bool {
	return a.Helix == b.Helix && a.Direction == b.Direction && b.Index == a.Index+a.Direction.Step()
}

// DeriveCrossovers returns the crossovers implied by an ordered base path.
// Consecutive bases on the same helix and direction must be contiguous.
func DeriveCrossovers(refs []NucleotideRef) ([]Crossover, error) {
	var out []Crossover
	for k := 0; k+1 < len(refs); k++ {
		a, b := refs[k], refs[k+1]
		if Contiguous(a, b) {
			continue
		}
		if a.Helix == b.Helix && a.Direction == b.Direction {
			return nil, Invalid("derive crossovers", "bases %s and %s leave a gap on the same helix strand", a, b)
		}
		out = append(out, Crossover{Prev: a, Next: b})
	}
	return out, nil
}

// NormalizeSequence upper-cases seq and checks it against n bases. An empty
// sequence is allowed.
func NormalizeSequence(seq string, n int) (string, error) {
	if seq == "" {
		return "", nil
	}
	seq = strings.ToUpper(seq)
	if len(seq) != n {
		return "", Invalid("sequence", "sequence has %d letters for %d bases", len(seq), n)
	}
	for i, r := range seq {
		switch r {
		case 'A', 'C', 'G', 'T', 'U', 'N':
		default:
			return "", Invalid("sequence", "invalid base %q at %d", r, i)
		}
	}
	return seq, nil
}

// BaseAt returns the sequence letter for position i, or "" when the strand
// has no sequence.
func (s Strand) BaseAt(i int) string {
	if i < 0 || i >= len(s.Sequence) {
		return ""
	}
	return s.Sequence[i : i+1]
}

var strandPalette = []string{
	"#e6194b", "#3cb44b", "#ffe119", "#4363d8", "#f58231",
	"#911eb4", "#46f0f0", "#f032e6", "#bcf60c", "#008080",
}

// PaletteColor returns the default display colour for a strand id.
func PaletteColor(id StrandID) string {
	i := int(id) % len(strandPalette)
	if i < 0 {
		i += len(strandPalette)
	}
	return strandPalette[i]
}

func (c Crossover) String() string {
	return fmt.Sprintf("%s->%s", c.Prev, c.Next)
}
