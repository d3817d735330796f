// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package search

import (
	"fmt"

	"github.com/AleutianAI/crucible/services/route/grid"
	"github.com/AleutianAI/crucible/services/route/policy"
)

// State is the deduplication key of the search.
//
// Two routes reaching the same position with the same heading and streak
// have identical futures, so only the cheaper arrival matters. State is
// comparable and used directly as a map key.
type State struct {
	Position grid.Position `json:"position"`
	Heading  grid.Heading  `json:"heading"`
	Streak   int           `json:"streak"`
}

// String returns a compact representation for logs.
func (s State) String() string {
	return fmt.Sprintf("%s %s x%d", s.Position, s.Heading, s.Streak)
}

// node is an entry of the open queue.
type node struct {
	state State

	// cost is the sum of entered-cell costs from the start.
	cost uint64

	// h is the heuristic estimate of the remaining cost.
	h uint64

	// seq is the insertion order, the last tie-break.
	seq uint64

	// parent indexes the trail entry this node was expanded from, or -1.
	parent int32
}

func (n *node) priority() uint64 { return n.cost + n.h }

// before reports whether n must be popped before o: lower cost+h first,
// then lower h, then earlier insertion.
func (n *node) before(o *node) bool {
	if np, op := n.priority(), o.priority(); np != op {
		return np < op
	}
	if n.h != o.h {
		return n.h < o.h
	}
	return n.seq < o.seq
}

// openQueue is a min-heap of nodes ordered by before. It implements
// heap.Interface.
type openQueue []node

func (q openQueue) Len() int           { return len(q) }
func (q openQueue) Less(i, j int) bool { return q[i].before(&q[j]) }
func (q openQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }

func (q *openQueue) Push(x any) { *q = append(*q, x.(node)) }

func (q *openQueue) Pop() any {
	old := *q
	n := len(old)
	x := old[n-1]
	*q = old[:n-1]
	return x
}

// successor is a candidate produced by expanding a state.
type successor struct {
	state State
	cost  uint64
}

// expand appends the successors of s reachable under p to buf.
//
// The closed set is not consulted here; duplicates are discarded when they
// are popped.
func expand(g *grid.Grid, p policy.Policy, s State, cost uint64, buf []successor) []successor {
	for _, action := range p.AllowedActions(s.Streak) {
		heading := s.Heading.Turn(action)

		next, ok := s.Position.Step(heading)
		if !ok {
			continue
		}
		cell, ok := g.Get(next)
		if !ok {
			continue
		}

		streak := 1
		if action == grid.Straight {
			streak = s.Streak + 1
		}

		buf = append(buf, successor{
			state: State{Position: next, Heading: heading, Streak: streak},
			cost:  cost + uint64(cell),
		})
	}
	return buf
}
