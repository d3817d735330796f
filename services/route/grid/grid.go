// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package grid

import (
	"bufio"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// Grid is an immutable rectangular matrix of cell costs.
//
// Cells are stored row-major in a single slice. Construct with New, Parse
// or Read; the zero value is not usable.
type Grid struct {
	width  int
	height int
	cells  []uint8
	min    uint8
}

// New builds a Grid from rows of cell costs.
//
// Description:
//
//	Copies rows into a compact row-major buffer. Every row must have the
//	same, non-zero length.
//
// Inputs:
//   - rows: Cell costs indexed [y][x]. Not retained.
//
// Outputs:
//   - *Grid: The grid. Never nil on success.
//   - error: Wraps ErrMalformedGrid when rows is empty or ragged.
func New(rows [][]uint8) (*Grid, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: grid must not be empty", ErrMalformedGrid)
	}

	width := len(rows[0])
	g := &Grid{
		width:  width,
		height: len(rows),
		cells:  make([]uint8, 0, width*len(rows)),
		min:    rows[0][0],
	}

	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d",
				ErrMalformedGrid, y+1, len(row), width)
		}
		for _, c := range row {
			if c < g.min {
				g.min = c
			}
		}
		g.cells = append(g.cells, row...)
	}

	return g, nil
}

// Parse builds a Grid from text with one row of decimal digits per line.
//
// Leading and trailing blank lines and carriage returns are ignored. Any other
// character, or rows of unequal length, yield an error wrapping
// ErrMalformedGrid that names the offending line and column.
func Parse(text string) (*Grid, error) {
	return Read(strings.NewReader(text))
}

// Read is like Parse but consumes r.
func Read(r io.Reader) (*Grid, error) {
	var rows [][]uint8
	blank := 0

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if text == "" {
			if len(rows) > 0 {
				blank++
			}
			continue
		}
		if blank > 0 {
			return nil, fmt.Errorf("%w: line %d: blank line inside grid", ErrMalformedGrid, line-blank)
		}

		row := make([]uint8, len(text))
		for i := 0; i < len(text); i++ {
			c := text[i]
			if c < '0' || c > '9' {
				return nil, fmt.Errorf("%w: line %d, column %d: %q is not a digit",
					ErrMalformedGrid, line, i+1, c)
			}
			row[i] = c - '0'
		}
		if len(rows) > 0 && len(row) != len(rows[0]) {
			return nil, fmt.Errorf("%w: line %d has %d cells, want %d",
				ErrMalformedGrid, line, len(row), len(rows[0]))
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read grid: %w", err)
	}

	return New(rows)
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.height }

// Contains reports whether p lies inside the grid.
func (g *Grid) Contains(p Position) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < g.width && p.Y < g.height
}

// Get returns the cost of entering p. The second return value is false
// when p is outside the grid.
func (g *Grid) Get(p Position) (uint8, bool) {
	if !g.Contains(p) {
		return 0, false
	}
	return g.cells[p.Y*g.width+p.X], true
}

// MinCost returns the cheapest cell cost in the grid.
func (g *Grid) MinCost() uint8 { return g.min }

// TopLeft returns the origin cell.
func (g *Grid) TopLeft() Position { return Position{} }

// BottomRight returns the cell opposite the origin.
func (g *Grid) BottomRight() Position {
	return Position{X: g.width - 1, Y: g.height - 1}
}

// EdgePositions returns every border cell exactly once, clockwise from the
// origin.
func (g *Grid) EdgePositions() []Position {
	if g.width == 1 || g.height == 1 {
		out := make([]Position, 0, g.width*g.height)
		for y := 0; y < g.height; y++ {
			for x := 0; x < g.width; x++ {
				out = append(out, Position{X: x, Y: y})
			}
		}
		return out
	}

	out := make([]Position, 0, 2*(g.width+g.height)-4)
	for x := 0; x < g.width; x++ {
		out = append(out, Position{X: x, Y: 0})
	}
	for y := 1; y < g.height; y++ {
		out = append(out, Position{X: g.width - 1, Y: y})
	}
	for x := g.width - 2; x >= 0; x-- {
		out = append(out, Position{X: x, Y: g.height - 1})
	}
	for y := g.height - 2; y >= 1; y-- {
		out = append(out, Position{X: 0, Y: y})
	}
	return out
}

// Digest returns a hex SHA-256 of the grid dimensions and contents.
//
// Two grids have the same digest iff they have the same shape and costs.
func (g *Grid) Digest() string {
	h := sha256.New()
	var dims [16]byte
	binary.BigEndian.PutUint64(dims[:8], uint64(g.width))
	binary.BigEndian.PutUint64(dims[8:], uint64(g.height))
	h.Write(dims[:])
	h.Write(g.cells)
	return hex.EncodeToString(h.Sum(nil))
}

// String renders the grid in the format accepted by Parse. Costs above 9
// have no digit and are written as '#', so only grids whose costs are all
// single digits round-trip.
func (g *Grid) String() string {
	var b strings.Builder
	b.Grow((g.width + 1) * g.height)
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			c := g.cells[y*g.width+x]
			if c > 9 {
				b.WriteByte('#')
				continue
			}
			b.WriteByte('0' + c)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
