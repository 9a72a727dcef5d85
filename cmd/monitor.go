// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Mara Vesely, Luxcube

package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/luxcube/cubist/pkg/lattice"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Display decoded link frames in human-readable format",
	Long: `Continuously decode and display Lattice frames as they arrive.

Each frame is shown with timestamp, command, sequence number and payload.
Useful for watching what a device (or another controller on a shared
bridge) is saying.

Supports both serial and WebSocket connections.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	// Open connection (serial or WebSocket)
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("Cubist - Link Monitor\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	decoder := lattice.NewDecoder()
	buf := make([]byte, 128)

	for {
		n, err := conn.Read(buf)
		if err != nil {
			// For WebSocket connections, a read error usually means
			// the connection is permanently closed - exit gracefully
			if err == ErrConnectionClosed {
				log.Printf("Connection closed")
				return nil
			}
			log.Printf("Read error: %v", err)
			continue
		}

		for i := 0; i < n; i++ {
			frame, err := decoder.DecodeByte(buf[i])
			if err != nil {
				fmt.Printf("[ERROR] %v\n", err)
				continue
			}
			if frame != nil {
				fmt.Print(lattice.FormatFrame(frame))
			}
		}
	}
}
