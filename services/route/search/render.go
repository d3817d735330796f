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
	"strings"

	"github.com/AleutianAI/crucible/services/route/grid"
)

// Cell is one rendered grid cell.
type Cell struct {
	Position grid.Position

	// Glyph is the cost digit, or the heading arrow for cells the path
	// entered.
	Glyph rune

	// OnPath is true for cells the path entered.
	OnPath bool
}

// Overlay returns the grid as rows of cells with path cells marked.
//
// The start cell is not marked since the path never enters it. A cell
// entered more than once shows the heading of the last entry.
func Overlay(g *grid.Grid, path []Step) [][]Cell {
	arrows := make(map[grid.Position]rune, len(path))
	for i, s := range path {
		if i == 0 {
			continue
		}
		arrows[s.Position] = s.Heading.Arrow()
	}

	rows := make([][]Cell, g.Height())
	for y := range rows {
		rows[y] = make([]Cell, g.Width())
		for x := range rows[y] {
			p := grid.Pos(x, y)
			c := Cell{Position: p}
			if arrow, ok := arrows[p]; ok {
				c.Glyph = arrow
				c.OnPath = true
			} else {
				cost, _ := g.Get(p)
				c.Glyph = digitGlyph(cost)
			}
			rows[y][x] = c
		}
	}
	return rows
}

// RenderPath draws the path over the grid as plain text, one line per row.
func RenderPath(g *grid.Grid, path []Step) string {
	var b strings.Builder
	for _, row := range Overlay(g, path) {
		for _, c := range row {
			b.WriteRune(c.Glyph)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func digitGlyph(cost uint8) rune {
	if cost > 9 {
		return '#'
	}
	return rune('0' + cost)
}
