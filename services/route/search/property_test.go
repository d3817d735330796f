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
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/crucible/services/route/grid"
	"github.com/AleutianAI/crucible/services/route/policy"
)

const unreachable = uint64(math.MaxUint64)

// stateSpace is every state reachable from the start seeds, with edges.
type stateSpace struct {
	states []State
	index  map[State]int
	edges  [][]successor // successor.cost holds the edge weight here
}

// explore enumerates the reachable state space breadth-first.
func explore(g *grid.Grid, p policy.Policy, seeds []State) *stateSpace {
	ss := &stateSpace{index: make(map[State]int)}
	add := func(s State) int {
		if i, ok := ss.index[s]; ok {
			return i
		}
		ss.index[s] = len(ss.states)
		ss.states = append(ss.states, s)
		ss.edges = append(ss.edges, nil)
		return len(ss.states) - 1
	}
	for _, s := range seeds {
		add(s)
	}
	for i := 0; i < len(ss.states); i++ {
		for _, next := range expand(g, p, ss.states[i], 0, nil) {
			add(next.state)
			ss.edges[i] = append(ss.edges[i], next)
		}
	}
	return ss
}

// runRule is the run-length rule of a policy written out directly: a turn
// or a stop needs at least min cells in the current heading, and a straight
// move is allowed while fewer than max have been taken.
type runRule struct {
	min, max int
}

// refState is a search state in raw coordinates. dir indexes refDirs.
type refState struct {
	x, y, dir, run int
}

// refDirs are unit offsets for north, east, south, west, in clockwise order.
var refDirs = [4][2]int{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}

func refDir(h grid.Heading) int {
	switch h {
	case grid.North:
		return 0
	case grid.East:
		return 1
	case grid.South:
		return 2
	default:
		return 3
	}
}

type refEdge struct {
	to   int
	cost uint64
}

// refGraph is the state graph reachable from the seeds under a runRule,
// built without any of the search package's transition code.
type refGraph struct {
	states []refState
	index  map[refState]int
	edges  [][]refEdge
}

func buildRefGraph(g *grid.Grid, rule runRule, seeds []refState) *refGraph {
	rg := &refGraph{index: make(map[refState]int)}
	add := func(s refState) int {
		if i, ok := rg.index[s]; ok {
			return i
		}
		rg.index[s] = len(rg.states)
		rg.states = append(rg.states, s)
		rg.edges = append(rg.edges, nil)
		return len(rg.states) - 1
	}
	for _, s := range seeds {
		add(s)
	}

	for i := 0; i < len(rg.states); i++ {
		s := rg.states[i]
		for d := 0; d < 4; d++ {
			if d == (s.dir+2)%4 {
				continue
			}
			run := 1
			if d == s.dir {
				if s.run >= rule.max {
					continue
				}
				run = s.run + 1
			} else if s.run < rule.min {
				continue
			}

			x, y := s.x+refDirs[d][0], s.y+refDirs[d][1]
			if x < 0 || y < 0 || x >= g.Width() || y >= g.Height() {
				continue
			}
			cell, _ := g.Get(grid.Pos(x, y))

			j := add(refState{x: x, y: y, dir: d, run: run})
			rg.edges[i] = append(rg.edges[i], refEdge{to: j, cost: uint64(cell)})
		}
	}
	return rg
}

func refSeeds(start grid.Position, headings []grid.Heading) []refState {
	seeds := make([]refState, len(headings))
	for i, h := range headings {
		seeds[i] = refState{x: start.X, y: start.Y, dir: refDir(h), run: 1}
	}
	return seeds
}

func refTerminal(rule runRule, goal grid.Position) func(refState) bool {
	return func(s refState) bool {
		return s.x == goal.X && s.y == goal.Y && s.run >= rule.min
	}
}

// referenceCost relaxes every edge until nothing changes and returns the
// cheapest terminal cost. It makes no assumption about visit order.
func referenceCost(g *grid.Grid, rule runRule, start, goal grid.Position, headings []grid.Heading) uint64 {
	seeds := refSeeds(start, headings)
	rg := buildRefGraph(g, rule, seeds)
	terminal := refTerminal(rule, goal)

	dist := make([]uint64, len(rg.states))
	for i := range dist {
		dist[i] = unreachable
	}
	for _, s := range seeds {
		dist[rg.index[s]] = 0
	}

	// Terminal states end the route, so they are not expanded further.
	for changed := true; changed; {
		changed = false
		for i, s := range rg.states {
			if dist[i] == unreachable || terminal(s) {
				continue
			}
			for _, e := range rg.edges[i] {
				if d := dist[i] + e.cost; d < dist[e.to] {
					dist[e.to] = d
					changed = true
				}
			}
		}
	}

	best := unreachable
	for i, s := range rg.states {
		if terminal(s) && dist[i] < best {
			best = dist[i]
		}
	}
	return best
}

// costToGo computes the true minimum remaining cost for every reachable
// state by backward relaxation.
func costToGo(g *grid.Grid, rule runRule, start, goal grid.Position) (*refGraph, []uint64) {
	rg := buildRefGraph(g, rule, refSeeds(start, []grid.Heading{grid.East}))
	terminal := refTerminal(rule, goal)

	v := make([]uint64, len(rg.states))
	for i, s := range rg.states {
		if terminal(s) {
			v[i] = 0
		} else {
			v[i] = unreachable
		}
	}

	for changed := true; changed; {
		changed = false
		for i := range rg.states {
			if v[i] == 0 {
				continue
			}
			for _, e := range rg.edges[i] {
				if v[e.to] == unreachable {
					continue
				}
				if d := e.cost + v[e.to]; d < v[i] {
					v[i] = d
					changed = true
				}
			}
		}
	}
	return rg, v
}

func randomGrid(rng *rand.Rand, minCost int) *grid.Grid {
	w, h := 1+rng.Intn(6), 1+rng.Intn(6)
	rows := make([][]uint8, h)
	for y := range rows {
		rows[y] = make([]uint8, w)
		for x := range rows[y] {
			rows[y][x] = uint8(minCost + rng.Intn(10-minCost))
		}
	}
	g, err := grid.New(rows)
	if err != nil {
		panic(err)
	}
	return g
}

var propertyPolicies = []struct {
	name string
	p    policy.Policy
	rule runRule
}{
	{"crucible", policy.Crucible(), runRule{min: 0, max: 3}},
	{"ultra", policy.UltraCrucible(), runRule{min: 4, max: 10}},
	{"bounded-1", policy.BoundedRun{Max: 1}, runRule{min: 0, max: 1}},
	{"constrained-2-4", policy.ConstrainedRun{Min: 2, Max: 4}, runRule{min: 2, max: 4}},
}

func TestProperty_Optimality(t *testing.T) {
	rng := rand.New(rand.NewSource(17))
	ctx := context.Background()

	for trial := 0; trial < 60; trial++ {
		g := randomGrid(rng, 0)
		for _, pp := range propertyPolicies {
			name := fmt.Sprintf("trial%d/%dx%d/%s", trial, g.Width(), g.Height(), pp.name)

			want := referenceCost(g, pp.rule, g.TopLeft(), g.BottomRight(), []grid.Heading{grid.East})
			res, err := Search(ctx, g, g.TopLeft(), g.BottomRight(), pp.p)

			if want == unreachable {
				assert.True(t, errors.Is(err, ErrNoPathFound), "%s: want no path, got %v", name, err)
				continue
			}
			require.NoError(t, err, name)
			assert.Equal(t, want, res.Cost, name)
		}
	}
}

func TestReferenceCost_KnownScenarios(t *testing.T) {
	tests := []struct {
		name  string
		input string
		rule  runRule
		want  uint64
	}{
		{"heat map max 3", heatMap, runRule{min: 0, max: 3}, 102},
		{"heat map 4 to 10", heatMap, runRule{min: 4, max: 10}, 94},
		{"cheap corridor 4 to 10", cheapCorridor, runRule{min: 4, max: 10}, 71},
		{"single cell", "5\n", runRule{min: 0, max: 3}, 0},
		{"too short for min run", "11\n", runRule{min: 4, max: 10}, unreachable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustParse(t, tt.input)
			got := referenceCost(g, tt.rule, g.TopLeft(), g.BottomRight(), []grid.Heading{grid.East})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProperty_OptimalityFromAnyCell(t *testing.T) {
	rng := rand.New(rand.NewSource(29))
	ctx := context.Background()
	headings := []grid.Heading{grid.East, grid.South}

	for trial := 0; trial < 40; trial++ {
		g := randomGrid(rng, 1)
		start := grid.Pos(rng.Intn(g.Width()), rng.Intn(g.Height()))
		goal := grid.Pos(rng.Intn(g.Width()), rng.Intn(g.Height()))

		for _, pp := range propertyPolicies {
			name := fmt.Sprintf("trial%d/%s->%s/%s", trial, start, goal, pp.name)

			want := referenceCost(g, pp.rule, start, goal, headings)
			res, err := Search(ctx, g, start, goal, pp.p, WithStartHeadings(headings...))

			if want == unreachable {
				assert.True(t, errors.Is(err, ErrNoPathFound), "%s: want no path, got %v", name, err)
				continue
			}
			require.NoError(t, err, name)
			assert.Equal(t, want, res.Cost, name)
		}
	}
}

func TestProperty_Admissibility(t *testing.T) {
	rng := rand.New(rand.NewSource(41))

	for trial := 0; trial < 30; trial++ {
		for _, minCost := range []int{0, 1, 3} {
			g := randomGrid(rng, minCost)
			goal := g.BottomRight()
			h := ScaledManhattan(g)

			for _, pp := range propertyPolicies {
				rg, v := costToGo(g, pp.rule, g.TopLeft(), goal)
				for i, s := range rg.states {
					if v[i] == unreachable {
						continue
					}
					assert.LessOrEqual(t, h(grid.Pos(s.x, s.y), goal), v[i],
						"trial %d min %d %s: h(%d,%d) overestimates", trial, minCost, pp.name, s.x, s.y)
				}
			}
		}
	}
}

func TestProperty_MonotonicCost(t *testing.T) {
	rng := rand.New(rand.NewSource(53))

	for trial := 0; trial < 30; trial++ {
		g := randomGrid(rng, 0)
		for _, pp := range propertyPolicies {
			ss := explore(g, pp.p, []State{{Position: g.TopLeft(), Heading: grid.East, Streak: 1}})
			for _, s := range ss.states {
				base := uint64(rng.Intn(100))
				for _, next := range expand(g, pp.p, s, base, nil) {
					cell, ok := g.Get(next.state.Position)
					require.True(t, ok)
					assert.GreaterOrEqual(t, next.cost, base)
					assert.Equal(t, base+uint64(cell), next.cost)
				}
			}
		}
	}
}

func TestProperty_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(67))
	ctx := context.Background()

	for trial := 0; trial < 20; trial++ {
		g := randomGrid(rng, 1)
		a, errA := Search(ctx, g, g.TopLeft(), g.BottomRight(), policy.Crucible())
		b, errB := Search(ctx, g, g.TopLeft(), g.BottomRight(), policy.Crucible())

		require.Equal(t, errA == nil, errB == nil)
		if errA != nil {
			continue
		}
		assert.Equal(t, a.Cost, b.Cost)
		assert.Equal(t, a.Path, b.Path)
	}
}
