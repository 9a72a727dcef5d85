// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Mara Vesely, Luxcube
//
// Cubist - Luxcube LED-cube controller
//
// A CLI tool for driving a Luxcube voxel display over a serial link or a
// WebSocket serial bridge.

package main

import (
	"os"

	"github.com/luxcube/cubist/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
