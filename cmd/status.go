// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Mara Vesely, Luxcube

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Send a keepalive ping to the cube",
	Long: `Send a fire-and-forget PING to the device.

The device does not answer pings; this only verifies that the link can be
opened and written. Works without logging in.`,
	RunE: runPing,
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show device name, description and versions",
	RunE:  runInfo,
}

var errorCmd = &cobra.Command{
	Use:   "error",
	Short: "Read and clear the device's error register",
	RunE:  runError,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the device",
	Long:  `Send a fire-and-forget RESET. The device reboots and drops the session.`,
	RunE:  runReset,
}

func init() {
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(errorCmd)
	rootCmd.AddCommand(resetCmd)
}

func runPing(cmd *cobra.Command, args []string) error {
	driver, connInfo, err := OpenDriver()
	if err != nil {
		return err
	}
	defer driver.Close()

	if err := driver.Ping(); err != nil {
		return err
	}
	fmt.Printf("Ping sent (%s)\n", connInfo)
	return nil
}

func runInfo(cmd *cobra.Command, args []string) error {
	driver, connInfo, err := OpenDriver()
	if err != nil {
		return err
	}
	defer driver.Close()

	if err := driver.Login(); err != nil {
		return err
	}
	defer driver.Logout()

	info, err := driver.Info()
	if err != nil {
		return err
	}

	fmt.Printf("Connection:  %s\n", connInfo)
	fmt.Printf("Name:        %s\n", info.Name)
	fmt.Printf("Description: %s\n", info.Description)
	fmt.Printf("Copyright:   %s\n", info.Copyright)
	fmt.Printf("Hardware:    %s\n", info.Hardware)
	fmt.Printf("Software:    %s\n", info.Software)
	fmt.Printf("Protocol:    %s\n", info.Protocol)
	return nil
}

func runError(cmd *cobra.Command, args []string) error {
	driver, _, err := OpenDriver()
	if err != nil {
		return err
	}
	defer driver.Close()

	info, err := driver.QueryError()
	if err != nil {
		return err
	}

	fmt.Printf("Device error: %s (code %d)\n", info.Message, info.Code)
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	driver, _, err := OpenDriver()
	if err != nil {
		return err
	}
	defer driver.Close()

	if err := driver.Reset(); err != nil {
		return err
	}
	fmt.Println("Reset sent")
	return nil
}
