// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Mara Vesely, Luxcube

package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/luxcube/cubist/pkg/cube"
)

var scriptCmd = &cobra.Command{
	Use:   "script",
	Short: "Run drawing commands from stdin",
	Long: `Read drawing commands line by line from stdin and execute them in one
session. Nothing reaches the device until a push command.

Commands:
  pixel <x> <y> <z> <color>
  plane <x|y|z> <index> <color>
  clear [color]
  push
  flip
  sleep <ms>

Blank lines and lines starting with # are ignored. A failed drawing command
is reported and the script continues; transport failures abort the run.

Example:
  echo "clear
  plane z 0 0000ff
  pixel 1 1 3 red
  push" | cubist script --port /dev/ttyUSB0`,
	RunE: runScript,
}

func init() {
	rootCmd.AddCommand(scriptCmd)
}

func runScript(cmd *cobra.Command, args []string) error {
	return withSession(func(d *cube.Driver) error {
		scanner := bufio.NewScanner(os.Stdin)
		lineNo := 0

		for scanner.Scan() {
			lineNo++
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}

			if err := runScriptLine(d, line); err != nil {
				// Drawing mistakes don't abort a batch; link failures do
				if isFatalScriptError(err) {
					return fmt.Errorf("line %d: %w", lineNo, err)
				}
				fmt.Fprintf(os.Stderr, "line %d: %v\n", lineNo, err)
			}
		}
		return scanner.Err()
	})
}

// isFatalScriptError separates link failures, which abort the run, from
// drawing mistakes, which don't.
func isFatalScriptError(err error) bool {
	var te *cube.TransportError
	return errors.As(err, &te) || errors.Is(err, cube.ErrReadTimeout)
}

func runScriptLine(d *cube.Driver, line string) error {
	fields := strings.Fields(line)
	switch fields[0] {
	case "pixel":
		if len(fields) != 5 {
			return fmt.Errorf("pixel wants <x> <y> <z> <color>")
		}
		coords := make([]int, 3)
		for i := 0; i < 3; i++ {
			v, err := strconv.Atoi(fields[i+1])
			if err != nil {
				return fmt.Errorf("invalid coordinate %q", fields[i+1])
			}
			coords[i] = v
		}
		color, err := cube.ParseColor(fields[4])
		if err != nil {
			return err
		}
		return d.SetPixel(coords[0], coords[1], coords[2], color)

	case "plane":
		if len(fields) != 4 {
			return fmt.Errorf("plane wants <x|y|z> <index> <color>")
		}
		axis, err := cube.ParseAxis(fields[1])
		if err != nil {
			return err
		}
		index, err := strconv.Atoi(fields[2])
		if err != nil {
			return fmt.Errorf("invalid plane index %q", fields[2])
		}
		color, err := cube.ParseColor(fields[3])
		if err != nil {
			return err
		}
		return d.SetPlane(axis, index, color)

	case "clear":
		color := cube.RGB(0, 0, 0)
		if len(fields) > 1 {
			var err error
			color, err = cube.ParseColor(fields[1])
			if err != nil {
				return err
			}
		}
		d.Clear(color)
		return nil

	case "push":
		return d.Push()

	case "flip":
		return d.Flip()

	case "sleep":
		if len(fields) != 2 {
			return fmt.Errorf("sleep wants <ms>")
		}
		ms, err := strconv.Atoi(fields[1])
		if err != nil || ms < 0 {
			return fmt.Errorf("invalid sleep duration %q", fields[1])
		}
		time.Sleep(time.Duration(ms) * time.Millisecond)
		return nil

	default:
		return fmt.Errorf("unknown command %q", fields[0])
	}
}
