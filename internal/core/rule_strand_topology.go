package core

import (
	"context"
	"dnacore/pkg/domain"
	"fmt"
	"reflect"
)

// NewStrandTopologyRule returns the rule enforcing that strands and base tags
// agree: every strand base is tagged with the strand, every tag is listed by
// its strand, and recorded crossovers match the base path.
func NewStrandTopologyRule() domain.Rule {
	return strandTopologyRule{}
}

type strandTopologyRule struct{}

func (strandTopologyRule) Name() string { return "strand_topology" }

func (strandTopologyRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	members := make(map[domain.StrandID]map[domain.NucleotideRef]struct{})
	memberSet := func(st domain.Strand) map[domain.NucleotideRef]struct{} {
		set, ok := members[st.ID]
		if !ok {
			set = make(map[domain.NucleotideRef]struct{}, len(st.Nucleotides))
			for _, ref := range st.Nucleotides {
				set[ref] = struct{}{}
			}
			members[st.ID] = set
		}
		return set
	}

	for _, change := range changes {
		switch change.Entity {
		case domain.EntityStrand:
			st, ok := view.FindStrand(domain.StrandID(change.ID))
			if !ok {
				continue
			}
			checkStrand(&res, view, st, len(memberSet(st)))
		case domain.EntityHelix:
			h, ok := view.FindHelix(domain.HelixID(change.ID))
			if !ok {
				continue
			}
			for _, dir := range []domain.Direction{domain.Forward, domain.Reverse} {
				for _, n := range h.Nucleotides(dir) {
					if !n.Assigned() {
						continue
					}
					st, ok := view.FindStrand(n.Strand)
					if !ok {
						res.Violations = append(res.Violations, strandViolation(domain.EntityHelix, int(h.ID), fmt.Sprintf("base %s is tagged with missing strand %d", n.Ref(), n.Strand)))
						continue
					}
					if _, listed := memberSet(st)[n.Ref()]; !listed {
						res.Violations = append(res.Violations, strandViolation(domain.EntityHelix, int(h.ID), fmt.Sprintf("base %s is tagged with strand %d which does not list it", n.Ref(), n.Strand)))
					}
				}
			}
		}
	}
	return res, nil
}

func checkStrand(res *domain.Result, view domain.RuleView, st domain.Strand, distinct int) {
	id := int(st.ID)
	if st.Length() == 0 {
		res.Violations = append(res.Violations, strandViolation(domain.EntityStrand, id, fmt.Sprintf("strand %d has no bases", st.ID)))
		return
	}
	if distinct != st.Length() {
		res.Violations = append(res.Violations, strandViolation(domain.EntityStrand, id, fmt.Sprintf("strand %d lists a base more than once", st.ID)))
	}
	if st.Sequence != "" && len(st.Sequence) != st.Length() {
		res.Violations = append(res.Violations, strandViolation(domain.EntityStrand, id, fmt.Sprintf("strand %d has %d letters for %d bases", st.ID, len(st.Sequence), st.Length())))
	}
	for _, ref := range st.Nucleotides {
		h, ok := view.FindHelix(ref.Helix)
		if !ok {
			res.Violations = append(res.Violations, strandViolation(domain.EntityStrand, id, fmt.Sprintf("strand %d references missing helix %d", st.ID, ref.Helix)))
			return
		}
		n, ok := h.Nucleotide(ref)
		if !ok {
			res.Violations = append(res.Violations, strandViolation(domain.EntityStrand, id, fmt.Sprintf("strand %d references missing base %s", st.ID, ref)))
			return
		}
		if n.Strand != st.ID {
			res.Violations = append(res.Violations, strandViolation(domain.EntityStrand, id, fmt.Sprintf("strand %d lists base %s tagged with strand %d", st.ID, ref, n.Strand)))
		}
	}
	derived, err := domain.DeriveCrossovers(st.Nucleotides)
	if err != nil {
		res.Violations = append(res.Violations, strandViolation(domain.EntityStrand, id, err.Error()))
		return
	}
	if len(derived) != len(st.Crossovers) || (len(derived) > 0 && !reflect.DeepEqual(derived, st.Crossovers)) {
		res.Violations = append(res.Violations, strandViolation(domain.EntityStrand, id, fmt.Sprintf("strand %d records %d crossovers, path implies %d", st.ID, len(st.Crossovers), len(derived))))
	}
}

func strandViolation(entity domain.EntityType, id int, message string) domain.Violation {
	return domain.Violation{
		Rule:     "strand_topology",
		Severity: domain.SeverityBlock,
		Message:  message,
		Entity:   entity,
		EntityID: id,
	}
}
