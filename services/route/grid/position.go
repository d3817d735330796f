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
	"fmt"
	"strings"
)

// Heading is one of the four cardinal directions.
type Heading uint8

const (
	North Heading = iota
	East
	South
	West
)

// Headings lists every heading in clockwise order starting at North.
var Headings = [...]Heading{North, East, South, West}

// String returns the lowercase name of the heading.
func (h Heading) String() string {
	switch h {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	default:
		return "unknown"
	}
}

// Arrow returns the single-character glyph used when rendering a path.
func (h Heading) Arrow() rune {
	switch h {
	case North:
		return '^'
	case East:
		return '>'
	case South:
		return 'v'
	case West:
		return '<'
	default:
		return '?'
	}
}

// Turn returns the heading after applying action.
//
// Left and Right rotate by 90 degrees relative to h; Straight keeps h.
// Headings are laid out clockwise, so a right turn is +1 and a left turn
// is +3 modulo 4.
func (h Heading) Turn(action Action) Heading {
	switch action {
	case Left:
		return (h + 3) % 4
	case Right:
		return (h + 1) % 4
	default:
		return h
	}
}

// ParseHeading converts a heading name (case-insensitive, full name or
// first letter) to a Heading.
func ParseHeading(s string) (Heading, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "north", "n":
		return North, nil
	case "east", "e":
		return East, nil
	case "south", "s":
		return South, nil
	case "west", "w":
		return West, nil
	default:
		return North, fmt.Errorf("%w: %q", ErrUnknownHeading, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (h Heading) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Heading) UnmarshalText(text []byte) error {
	parsed, err := ParseHeading(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// Action is a relative movement decision taken at each step.
type Action uint8

const (
	Straight Action = iota
	Left
	Right
)

// String returns the lowercase name of the action.
func (a Action) String() string {
	switch a {
	case Straight:
		return "straight"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "unknown"
	}
}

// Position is a grid-relative coordinate. X grows eastwards, Y southwards.
type Position struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Pos is shorthand for Position{X: x, Y: y}.
func Pos(x, y int) Position {
	return Position{X: x, Y: y}
}

// Step returns the neighbouring position in the given heading.
//
// The second return value is false when the step would leave the
// non-negative coordinate range. Upper bounds are not checked here; use
// Grid.Contains or Grid.Get for that.
func (p Position) Step(h Heading) (Position, bool) {
	switch h {
	case North:
		if p.Y == 0 {
			return Position{}, false
		}
		return Position{X: p.X, Y: p.Y - 1}, true
	case South:
		return Position{X: p.X, Y: p.Y + 1}, true
	case East:
		return Position{X: p.X + 1, Y: p.Y}, true
	case West:
		if p.X == 0 {
			return Position{}, false
		}
		return Position{X: p.X - 1, Y: p.Y}, true
	default:
		return Position{}, false
	}
}

// Manhattan returns the L1 distance between p and q.
func (p Position) Manhattan(q Position) int {
	return abs(p.X-q.X) + abs(p.Y-q.Y)
}

// String returns "(x,y)".
func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
