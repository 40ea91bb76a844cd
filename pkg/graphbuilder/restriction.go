package graphbuilder

import (
	"lintang/routex/pkg/datastructure"

	"github.com/paulmach/osm"
	"go.uber.org/zap"
)

// reasons a restriction relation is dropped
const (
	dropNotApplicable  = "not_applicable"
	dropMissingMember  = "missing_member"
	dropViaWay         = "via_way"
	dropUnknownVia     = "unknown_via_node"
	dropUnresolvedEdge = "unresolved_edge"
)

type turnRelation struct {
	id       int64
	kind     datastructure.RestrictionKind
	fromWays []int64
	toWays   []int64
	via      datastructure.NodeID
}

// resolveRestrictions maps restriction relations onto already built edges.
// Edges are referenced by their position in edges.
func (b *Builder) resolveRestrictions(relations []*osm.Relation, edges []datastructure.Edge,
	usedNodes map[datastructure.NodeID]struct{}) []datastructure.TurnRestriction {
	edgesByWay := make(map[int64][]int)
	for i, e := range edges {
		edgesByWay[e.WayID] = append(edgesByWay[e.WayID], i)
	}

	restrictions := make([]datastructure.TurnRestriction, 0)
	for _, rel := range relations {
		if rel == nil || rel.Tags.Find("type") != "restriction" {
			continue
		}

		tr, reason := b.parseTurnRelation(rel)
		if reason == "" {
			if _, ok := usedNodes[tr.via]; !ok {
				reason = dropUnknownVia
			}
		}
		if reason != "" {
			b.dropRestriction(int64(rel.ID), reason)
			continue
		}

		incoming := make([]int, 0, 2)
		for _, wayID := range tr.fromWays {
			for _, ei := range edgesByWay[wayID] {
				if edges[ei].To == tr.via {
					incoming = append(incoming, ei)
				}
			}
		}
		outgoing := make([]int, 0, 2)
		for _, wayID := range tr.toWays {
			for _, ei := range edgesByWay[wayID] {
				if edges[ei].From == tr.via {
					outgoing = append(outgoing, ei)
				}
			}
		}

		resolved := make([]datastructure.TurnRestriction, 0, len(incoming)*len(outgoing))
		for _, in := range incoming {
			for _, out := range outgoing {
				// A way passing through via yields edges on both sides. When from and to
				// are the same way only the actual turn back counts.
				if edges[in].WayID == edges[out].WayID && edges[out].To != edges[in].From {
					continue
				}
				resolved = append(resolved, datastructure.TurnRestriction{
					From: datastructure.EdgeID(in),
					Via:  tr.via,
					To:   datastructure.EdgeID(out),
					Kind: tr.kind,
				})
			}
		}
		if len(resolved) == 0 {
			b.dropRestriction(tr.id, dropUnresolvedEdge)
			continue
		}

		restrictions = append(restrictions, resolved...)
		b.stats.RestrictionsResolved++
	}
	return restrictions
}

func (b *Builder) parseTurnRelation(rel *osm.Relation) (turnRelation, string) {
	tr := turnRelation{id: int64(rel.ID)}

	kind, ok := b.profile.Restriction(rel.Tags)
	if !ok {
		return tr, dropNotApplicable
	}
	tr.kind = kind

	viaCount := 0
	for _, m := range rel.Members {
		switch m.Role {
		case "from":
			if m.Type == osm.TypeWay {
				tr.fromWays = append(tr.fromWays, m.Ref)
			}
		case "to":
			if m.Type == osm.TypeWay {
				tr.toWays = append(tr.toWays, m.Ref)
			}
		case "via":
			if m.Type == osm.TypeWay {
				return tr, dropViaWay
			}
			if m.Type == osm.TypeNode {
				tr.via = datastructure.NodeID(m.Ref)
				viaCount++
			}
		}
	}
	if len(tr.fromWays) == 0 || len(tr.toWays) == 0 || viaCount != 1 {
		return tr, dropMissingMember
	}
	return tr, ""
}

func (b *Builder) dropRestriction(relationID int64, reason string) {
	b.stats.RestrictionsDropped[reason]++
	if reason == dropNotApplicable {
		return
	}
	b.logger.Debug("dropping turn restriction",
		zap.Int64("relation", relationID),
		zap.String("reason", reason))
}
