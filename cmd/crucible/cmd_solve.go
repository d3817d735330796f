// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/crucible/pkg/ux"
	"github.com/AleutianAI/crucible/services/route"
	"github.com/AleutianAI/crucible/services/route/grid"
	"github.com/AleutianAI/crucible/services/route/policy"
	"github.com/AleutianAI/crucible/services/route/search"
)

type solveFlags struct {
	policy    string
	min       int
	max       int
	headings  []string
	fromEdges bool
	showPath  bool
	jsonOut   bool
}

func newSolveCmd(a *app) *cobra.Command {
	f := &solveFlags{}

	cmd := &cobra.Command{
		Use:   "solve <grid-file|->",
		Short: "Find the cheapest route through a grid file",
		Long: `Reads a grid of digits (one row per line) and prints the cheapest cost
from the top-left to the bottom-right cell. Use "-" to read stdin.

Without --min/--max the --policy preset is used (default from config).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSolve(cmd, args[0], f)
		},
	}

	cmd.Flags().StringVarP(&f.policy, "policy", "p", "", "Preset policy: "+strings.Join(policy.Presets(), ", "))
	cmd.Flags().IntVar(&f.min, "min", 0, "Minimum straight run before turning or stopping (custom policy)")
	cmd.Flags().IntVar(&f.max, "max", 0, "Maximum straight run (custom policy)")
	cmd.Flags().StringSliceVar(&f.headings, "start-headings", nil, "Initial headings, e.g. east,south")
	cmd.Flags().BoolVar(&f.fromEdges, "from-edges", false, "Search from every border cell and keep the cheapest")
	cmd.Flags().BoolVar(&f.showPath, "show-path", false, "Draw the route on the grid")
	cmd.Flags().BoolVar(&f.jsonOut, "json", false, "Print the full result as JSON")
	return cmd
}

func (a *app) runSolve(cmd *cobra.Command, path string, f *solveFlags) error {
	text, err := readGrid(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}

	req := route.SolveRequest{
		Grid:        text,
		Policy:      f.policy,
		FromEdges:   f.fromEdges,
		IncludePath: f.showPath || f.jsonOut,
	}
	if spec, ok := customSpec(f); ok {
		req.Spec = &spec
	}
	for _, name := range f.headings {
		h, err := grid.ParseHeading(name)
		if err != nil {
			return err
		}
		req.StartHeadings = append(req.StartHeadings, h)
	}

	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	out := ux.NewOutput(cmd.OutOrStdout())
	resp, err := a.newService(st).Solve(cmd.Context(), req)
	if err != nil {
		out.Error(err.Error())
		return err
	}

	if f.jsonOut {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	out.Title("Route")
	out.Field("cost", resp.Cost)
	if out.Styled() {
		out.Field("policy", resp.Policy)
		out.Field("start", resp.Start)
		out.Field("steps", resp.Steps)
		out.Field("expanded", resp.Expanded)
	}

	if f.showPath {
		g, err := grid.Parse(text)
		if err != nil {
			return err
		}
		out.Box("Path", renderOverlay(out, search.Overlay(g, resp.Path)))
	}
	return nil
}

// customSpec builds a policy from --min/--max. A positive --min selects a
// constrained policy; --max alone a bounded one.
func customSpec(f *solveFlags) (policy.Spec, bool) {
	switch {
	case f.min > 0:
		hi := f.max
		if hi == 0 {
			hi = f.min
		}
		return policy.Spec{Kind: policy.KindConstrained, Min: f.min, Max: hi}, true
	case f.max > 0:
		return policy.Spec{Kind: policy.KindBounded, Max: f.max}, true
	default:
		return policy.Spec{}, false
	}
}

func readGrid(stdin io.Reader, path string) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read grid: %w", err)
	}
	return string(data), nil
}

func renderOverlay(out *ux.Output, rows [][]search.Cell) string {
	var b strings.Builder
	for _, row := range rows {
		for _, c := range row {
			if c.OnPath {
				b.WriteString(out.Style(ux.Styles.Route, string(c.Glyph)))
			} else {
				b.WriteString(out.Style(ux.Styles.Muted, string(c.Glyph)))
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
