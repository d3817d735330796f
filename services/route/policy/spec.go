// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package policy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Kind names a built-in policy family.
type Kind string

const (
	KindBounded     Kind = "bounded"
	KindConstrained Kind = "constrained"
)

// Spec is a serializable description of a built-in policy.
//
// It is what configuration files and API requests carry; Build turns it
// into a Policy.
type Spec struct {
	// Kind selects the policy family.
	Kind Kind `json:"kind" yaml:"kind" validate:"required,oneof=bounded constrained"`

	// Min is the shortest legal run. Ignored for bounded policies.
	Min int `json:"min,omitempty" yaml:"min,omitempty" validate:"gte=0,ltefield=Max"`

	// Max is the longest legal run. Capped so the streak dimension of the
	// search state stays small.
	Max int `json:"max" yaml:"max" validate:"gte=1,lte=1024"`
}

var specValidate = validator.New()

// Validate checks the spec's field constraints.
func (s Spec) Validate() error {
	if err := specValidate.Struct(s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
	}
	return nil
}

// Build validates the spec and returns the Policy it describes.
func (s Spec) Build() (Policy, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	switch s.Kind {
	case KindBounded:
		return BoundedRun{Max: s.Max}, nil
	case KindConstrained:
		return ConstrainedRun{Min: s.Min, Max: s.Max}, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidPolicy, s.Kind)
	}
}

// Key returns a stable identifier for the spec, suitable for cache keys.
func (s Spec) Key() string {
	if s.Kind == KindBounded {
		return fmt.Sprintf("%s:%d", s.Kind, s.Max)
	}
	return fmt.Sprintf("%s:%d-%d", s.Kind, s.Min, s.Max)
}

// String implements fmt.Stringer.
func (s Spec) String() string { return s.Key() }

// presets maps well-known names to their specs.
var presets = map[string]Spec{
	"crucible":       {Kind: KindBounded, Max: 3},
	"ultra":          {Kind: KindConstrained, Min: 4, Max: 10},
	"ultra-crucible": {Kind: KindConstrained, Min: 4, Max: 10},
}

// Lookup returns the preset spec registered under name.
func Lookup(name string) (Spec, bool) {
	s, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	return s, ok
}

// Presets returns the preset names in sorted order.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
