// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The rxusers Authors

package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
