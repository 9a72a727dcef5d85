// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Mara Vesely, Luxcube

package cmd

import (
	"github.com/spf13/cobra"
)

var (
	// Serial connection flags
	portName string
	baudRate int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Framebuffer persistence path (empty selects the default under
	// the user's home directory)
	statePath string
)

var rootCmd = &cobra.Command{
	Use:   "cubist",
	Short: "Luxcube LED-cube controller",
	Long: `Cubist - A CLI tool for driving a Luxcube 4x4x4 RGB voxel display.

Talks the Lattice serial link protocol: framed, checksummed, escaped packets
carrying login, drawing and framebuffer commands. The last displayed image
is persisted locally and restored on the next login.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 115200]
  WebSocket: --url ws://host/path [--username user]

For WebSocket authentication, the password is read from the CUBIST_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.`,
	Version: "1.2.0",
}

func init() {
	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 115200, "Baud rate (serial only)")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	rootCmd.PersistentFlags().StringVar(&statePath, "state", "", "Framebuffer persistence file (default ~/.cubist/framebuffer.cbor)")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
