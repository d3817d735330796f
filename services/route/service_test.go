// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package route

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/crucible/services/route/grid"
	"github.com/AleutianAI/crucible/services/route/policy"
	"github.com/AleutianAI/crucible/services/route/search"
	"github.com/AleutianAI/crucible/services/route/store"
)

const heatMap = `2413432311323
3215453535623
3255245654254
3446585845452
4546657867536
1438598798454
4457876987766
3637877979653
4654967986887
4564679986453
1224686865563
2546548887735
4322674655533
`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(st store.Store) *Service {
	return NewService(DefaultServiceConfig(), st, quietLogger())
}

func TestService_Solve_Presets(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	tests := []struct {
		policy string
		want   uint64
	}{
		{"", 102},
		{"crucible", 102},
		{"ultra", 94},
		{"Ultra-Crucible", 94},
	}

	for _, tt := range tests {
		t.Run(tt.policy, func(t *testing.T) {
			resp, err := svc.Solve(ctx, SolveRequest{Grid: heatMap, Policy: tt.policy})
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.Cost)
			assert.Equal(t, grid.Pos(0, 0), resp.Start)
			assert.Equal(t, grid.Pos(12, 12), resp.Goal)
			assert.Positive(t, resp.Steps)
			assert.Empty(t, resp.Path, "path omitted unless requested")
			assert.False(t, resp.Cached)
		})
	}
}

func TestService_Solve_CustomSpec(t *testing.T) {
	svc := newTestService(nil)

	resp, err := svc.Solve(context.Background(), SolveRequest{
		Grid: heatMap,
		Spec: &policy.Spec{Kind: policy.KindConstrained, Min: 4, Max: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(94), resp.Cost)
	assert.Equal(t, "constrained:4-10", resp.Policy)
}

func TestService_Solve_PathAndRender(t *testing.T) {
	svc := newTestService(nil)

	resp, err := svc.Solve(context.Background(), SolveRequest{
		Grid:        "111\n999\n",
		IncludePath: true,
		Render:      true,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(11), resp.Cost)
	require.Len(t, resp.Path, 4)
	assert.Equal(t, 3, resp.Steps)
	assert.Equal(t, "1>>\n99v\n", resp.Rendered)
}

func TestService_Solve_Endpoints(t *testing.T) {
	svc := newTestService(nil)
	start, goal := grid.Pos(0, 0), grid.Pos(2, 0)

	resp, err := svc.Solve(context.Background(), SolveRequest{Grid: "123\n456\n", Start: &start, Goal: &goal})
	require.NoError(t, err)
	assert.Equal(t, uint64(5), resp.Cost)

	outside := grid.Pos(7, 7)
	_, err = svc.Solve(context.Background(), SolveRequest{Grid: "123\n", Goal: &outside})
	assert.ErrorIs(t, err, search.ErrInvalidEndpoint)
}

func TestService_Solve_FromEdges(t *testing.T) {
	svc := newTestService(nil)
	goal := grid.Pos(4, 0)

	resp, err := svc.Solve(context.Background(), SolveRequest{
		Grid:      "91111\n",
		Policy:    "ultra",
		Goal:      &goal,
		FromEdges: true,
	})
	require.NoError(t, err)
	// The start cell already counts as one cell of the run, so three moves
	// east from (1,0) satisfy the minimum of four.
	assert.Equal(t, grid.Pos(1, 0), resp.Start)
	assert.Equal(t, uint64(3), resp.Cost)
}

func TestService_Solve_Errors(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	_, err := svc.Solve(ctx, SolveRequest{Grid: "12\n3\n"})
	assert.ErrorIs(t, err, grid.ErrMalformedGrid)

	_, err = svc.Solve(ctx, SolveRequest{Grid: "12\n34\n", Policy: "zigzag"})
	assert.ErrorIs(t, err, ErrUnknownPolicy)

	_, err = svc.Solve(ctx, SolveRequest{Grid: "12\n34\n", Spec: &policy.Spec{Kind: policy.KindConstrained, Min: 5, Max: 2}})
	assert.ErrorIs(t, err, policy.ErrInvalidPolicy)

	_, err = svc.Solve(ctx, SolveRequest{Grid: "111\n", Policy: "ultra"})
	assert.ErrorIs(t, err, search.ErrNoPathFound)
}

func TestService_Solve_CachesResults(t *testing.T) {
	st := store.NewLRUStore(16)
	svc := newTestService(st)
	ctx := context.Background()

	first, err := svc.Solve(ctx, SolveRequest{Grid: heatMap})
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := svc.Solve(ctx, SolveRequest{Grid: heatMap, IncludePath: true})
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Cost, second.Cost)
	assert.NotEmpty(t, second.Path, "cached results keep the path")

	// a different policy is a different key
	third, err := svc.Solve(ctx, SolveRequest{Grid: heatMap, Policy: "ultra"})
	require.NoError(t, err)
	assert.False(t, third.Cached)

	solves, hits := svc.Stats()
	assert.Equal(t, int64(3), solves)
	assert.Equal(t, int64(1), hits)
}

func TestService_Solve_CachesNoPath(t *testing.T) {
	st := store.NewLRUStore(16)
	svc := newTestService(st)
	ctx := context.Background()

	_, err := svc.Solve(ctx, SolveRequest{Grid: "111\n", Policy: "ultra"})
	require.ErrorIs(t, err, search.ErrNoPathFound)

	_, err = svc.Solve(ctx, SolveRequest{Grid: "111\n", Policy: "ultra"})
	require.ErrorIs(t, err, search.ErrNoPathFound)

	_, hits := svc.Stats()
	assert.Equal(t, int64(1), hits)
}

func TestService_Solve_BadgerStore(t *testing.T) {
	st, err := store.OpenBadgerStore(store.InMemoryBadgerConfig())
	require.NoError(t, err)
	defer st.Close()

	svc := newTestService(st)
	ctx := context.Background()

	_, err = svc.Solve(ctx, SolveRequest{Grid: heatMap, Policy: "ultra"})
	require.NoError(t, err)

	resp, err := svc.Solve(ctx, SolveRequest{Grid: heatMap, Policy: "ultra", Render: true})
	require.NoError(t, err)
	assert.True(t, resp.Cached)
	assert.Equal(t, uint64(94), resp.Cost)
	assert.NotEmpty(t, resp.Rendered)
}

func TestService_Solve_ExpansionLimitNotCached(t *testing.T) {
	st := store.NewLRUStore(16)
	cfg := DefaultServiceConfig()
	cfg.MaxExpansions = 5
	svc := NewService(cfg, st, quietLogger())

	_, err := svc.Solve(context.Background(), SolveRequest{Grid: heatMap})
	assert.ErrorIs(t, err, search.ErrExpansionLimit)
	assert.Equal(t, 0, st.Len())
}

func TestService_Solve_Timeout(t *testing.T) {
	cfg := DefaultServiceConfig()
	cfg.Timeout = time.Nanosecond
	svc := NewService(cfg, nil, quietLogger())

	// large enough that the search passes several cancellation checks
	row := strings.Repeat("9", 120) + "\n"
	big := strings.Repeat(row, 120)

	_, err := svc.Solve(context.Background(), SolveRequest{Grid: big, Policy: "ultra"})
	assert.ErrorIs(t, err, search.ErrSearchCancelled)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestService_Solve_CancelledContext(t *testing.T) {
	svc := newTestService(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Solve(ctx, SolveRequest{Grid: heatMap})
	assert.ErrorIs(t, err, search.ErrSearchCancelled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestService_Solve_Concurrent(t *testing.T) {
	svc := newTestService(store.NewLRUStore(16))

	var wg sync.WaitGroup
	costs := make([]uint64, 8)
	errs := make([]error, 8)
	for i := range costs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := svc.Solve(context.Background(), SolveRequest{Grid: heatMap, Policy: "ultra"})
			errs[i] = err
			if err == nil {
				costs[i] = resp.Cost
			}
		}(i)
	}
	wg.Wait()

	for i := range costs {
		require.NoError(t, errs[i])
		assert.Equal(t, uint64(94), costs[i])
	}
	solves, _ := svc.Stats()
	assert.Equal(t, int64(8), solves)
}

func TestService_Reconfigure(t *testing.T) {
	svc := newTestService(nil)

	cfg := svc.Config()
	cfg.DefaultPolicy = policy.Spec{Kind: policy.KindConstrained, Min: 4, Max: 10}
	svc.Reconfigure(cfg)

	resp, err := svc.Solve(context.Background(), SolveRequest{Grid: heatMap})
	require.NoError(t, err)
	assert.Equal(t, uint64(94), resp.Cost)
	assert.Equal(t, "constrained:4-10", svc.DefaultPolicy().Key())
}
