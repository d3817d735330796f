// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command crucible finds the cheapest route through a cost grid under
// run-length movement rules.
//
// Usage:
//
//	crucible solve grid.txt                 # max 3 straight moves
//	crucible solve grid.txt --policy ultra  # 4 to 10 straight moves
//	crucible solve grid.txt --min 2 --max 5 --show-path
//	crucible serve --addr :8080
//	crucible policies
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
