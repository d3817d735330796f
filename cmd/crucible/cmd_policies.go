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
	"github.com/spf13/cobra"

	"github.com/AleutianAI/crucible/pkg/ux"
	"github.com/AleutianAI/crucible/services/route/policy"
)

func newPoliciesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "policies",
		Short: "List the preset policies",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := ux.NewOutput(cmd.OutOrStdout())
			out.Title("Policies")
			for _, name := range policy.Presets() {
				spec, _ := policy.Lookup(name)
				label := spec.Key()
				if spec == a.cfg.Policy {
					label += " (default)"
				}
				out.Field(name, label)
			}
		},
	}
}
