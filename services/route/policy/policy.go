// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package policy defines the movement rules a route search obeys.
//
// A Policy decides, from the number of consecutive cells already travelled
// in the current heading (the streak), which relative actions are legal next
// and whether a route arriving at the goal with that streak may stop there.
// Policies never look at absolute positions, so one search driver serves
// every rule variant.
//
// # Thread Safety
//
// All policies in this package are stateless values and safe for concurrent
// use.
package policy

import (
	"errors"
	"fmt"

	"github.com/AleutianAI/crucible/services/route/grid"
)

// ErrInvalidPolicy is returned when a policy description fails validation.
var ErrInvalidPolicy = errors.New("invalid policy")

// Policy governs legal transitions for a route search.
//
// Implementations must be pure functions of streak. The slice returned by
// AllowedActions is read-only; callers must not modify it.
type Policy interface {
	// AllowedActions returns the legal actions after streak consecutive
	// cells in the current heading, in Straight, Left, Right order.
	AllowedActions(streak int) []grid.Action

	// CanTerminate reports whether a route reaching the goal with this
	// streak may stop.
	CanTerminate(streak int) bool
}

// Shared action sets. Returned directly by the built-in policies.
var (
	actionsAll      = []grid.Action{grid.Straight, grid.Left, grid.Right}
	actionsStraight = []grid.Action{grid.Straight}
	actionsTurn     = []grid.Action{grid.Left, grid.Right}
)

// BoundedRun allows at most Max consecutive cells in one heading.
// Turning is always allowed and a route may stop at any streak.
type BoundedRun struct {
	Max int
}

// AllowedActions implements Policy.
func (p BoundedRun) AllowedActions(streak int) []grid.Action {
	if streak < p.Max {
		return actionsAll
	}
	return actionsTurn
}

// CanTerminate implements Policy.
func (p BoundedRun) CanTerminate(int) bool { return true }

// String implements fmt.Stringer.
func (p BoundedRun) String() string {
	return fmt.Sprintf("bounded(max=%d)", p.Max)
}

// ConstrainedRun requires at least Min and allows at most Max consecutive
// cells in one heading. The Min rule also gates stopping at the goal.
type ConstrainedRun struct {
	Min int
	Max int
}

// AllowedActions implements Policy.
func (p ConstrainedRun) AllowedActions(streak int) []grid.Action {
	straight := streak < p.Max
	turn := streak >= p.Min

	switch {
	case straight && turn:
		return actionsAll
	case straight:
		return actionsStraight
	case turn:
		return actionsTurn
	default:
		return nil
	}
}

// CanTerminate implements Policy.
func (p ConstrainedRun) CanTerminate(streak int) bool {
	return streak >= p.Min
}

// String implements fmt.Stringer.
func (p ConstrainedRun) String() string {
	return fmt.Sprintf("constrained(min=%d,max=%d)", p.Min, p.Max)
}

// Funcs adapts a pair of functions to the Policy interface.
//
// A nil Actions allows every action; a nil Terminate always allows
// stopping.
type Funcs struct {
	Actions   func(streak int) []grid.Action
	Terminate func(streak int) bool
}

// AllowedActions implements Policy.
func (f Funcs) AllowedActions(streak int) []grid.Action {
	if f.Actions == nil {
		return actionsAll
	}
	return f.Actions(streak)
}

// CanTerminate implements Policy.
func (f Funcs) CanTerminate(streak int) bool {
	if f.Terminate == nil {
		return true
	}
	return f.Terminate(streak)
}

// Crucible returns the standard crucible rules: at most three cells in a
// straight line.
func Crucible() BoundedRun {
	return BoundedRun{Max: 3}
}

// UltraCrucible returns the ultra crucible rules: at least four and at most
// ten cells in a straight line, including the final run into the goal.
func UltraCrucible() ConstrainedRun {
	return ConstrainedRun{Min: 4, Max: 10}
}
