// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Mara Vesely, Luxcube

package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/luxcube/cubist/pkg/cube"
)

var clearCmd = &cobra.Command{
	Use:   "clear [color]",
	Short: "Fill the whole cube with one color (default black)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runClear,
}

var pixelCmd = &cobra.Command{
	Use:   "pixel <x> <y> <z> <color>",
	Short: "Set a single voxel",
	Long: `Set one voxel of the persisted image and push the result.

Coordinates are 0-3 on each axis. The color is a name (red, cyan, ...) or
an rrggbb hex literal.`,
	Args: cobra.ExactArgs(4),
	RunE: runPixel,
}

var planeCmd = &cobra.Command{
	Use:   "plane <x|y|z> <index> <color>",
	Short: "Fill one plane of the cube",
	Args:  cobra.ExactArgs(3),
	RunE:  runPlane,
}

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push the persisted framebuffer to the device",
	RunE:  runPush,
}

var flipCmd = &cobra.Command{
	Use:   "flip",
	Short: "Swap the device's display buffers",
	RunE:  runFlip,
}

func init() {
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(pixelCmd)
	rootCmd.AddCommand(planeCmd)
	rootCmd.AddCommand(pushCmd)
	rootCmd.AddCommand(flipCmd)
}

// withSession opens a driver, logs in, runs fn, then logs out. Login
// restores the persisted framebuffer and pushes it, so fn starts from the
// last displayed image.
func withSession(fn func(d *cube.Driver) error) error {
	driver, _, err := OpenDriver()
	if err != nil {
		return err
	}
	defer driver.Close()

	if err := driver.Login(); err != nil {
		return err
	}
	defer driver.Logout()

	return fn(driver)
}

func runClear(cmd *cobra.Command, args []string) error {
	color := cube.RGB(0, 0, 0)
	if len(args) == 1 {
		var err error
		color, err = cube.ParseColor(args[0])
		if err != nil {
			return err
		}
	}

	return withSession(func(d *cube.Driver) error {
		d.Clear(color)
		return d.Push()
	})
}

func runPixel(cmd *cobra.Command, args []string) error {
	coords := make([]int, 3)
	for i := 0; i < 3; i++ {
		v, err := strconv.Atoi(args[i])
		if err != nil {
			return fmt.Errorf("invalid coordinate %q: %v", args[i], err)
		}
		coords[i] = v
	}
	color, err := cube.ParseColor(args[3])
	if err != nil {
		return err
	}

	return withSession(func(d *cube.Driver) error {
		if err := d.SetPixel(coords[0], coords[1], coords[2], color); err != nil {
			return err
		}
		return d.Push()
	})
}

func runPlane(cmd *cobra.Command, args []string) error {
	axis, err := cube.ParseAxis(args[0])
	if err != nil {
		return err
	}
	index, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid plane index %q: %v", args[1], err)
	}
	color, err := cube.ParseColor(args[2])
	if err != nil {
		return err
	}

	return withSession(func(d *cube.Driver) error {
		if err := d.SetPlane(axis, index, color); err != nil {
			return err
		}
		return d.Push()
	})
}

func runPush(cmd *cobra.Command, args []string) error {
	// Login already restores and pushes the persisted buffer
	return withSession(func(d *cube.Driver) error {
		fmt.Println("Framebuffer pushed")
		return nil
	})
}

func runFlip(cmd *cobra.Command, args []string) error {
	return withSession(func(d *cube.Driver) error {
		return d.Flip()
	})
}
