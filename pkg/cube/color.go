// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Mara Vesely, Luxcube

package cube

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is a canonical RGB triple with 8 bits per channel. The device only
// keeps the top 4 bits of each channel; see Framebuffer.WireBytes.
type Color struct {
	R, G, B uint8
}

// namedColors is the process-wide color name table. It is built once and
// never mutated after init.
var namedColors = map[string]Color{
	"black":   {0x00, 0x00, 0x00},
	"white":   {0xFF, 0xFF, 0xFF},
	"red":     {0xFF, 0x00, 0x00},
	"green":   {0x00, 0xFF, 0x00},
	"blue":    {0x00, 0x00, 0xFF},
	"yellow":  {0xFF, 0xFF, 0x00},
	"cyan":    {0x00, 0xFF, 0xFF},
	"magenta": {0xFF, 0x00, 0xFF},
	"orange":  {0xFF, 0x80, 0x00},
	"purple":  {0x80, 0x00, 0xFF},
	"pink":    {0xFF, 0x40, 0x80},
	"gray":    {0x80, 0x80, 0x80},
	"off":     {0x00, 0x00, 0x00},
}

// RGB builds a color from explicit channel values
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// NamedColor resolves a color name from the name table.
// Names are case-insensitive.
func NamedColor(name string) (Color, error) {
	c, ok := namedColors[strings.ToLower(name)]
	if !ok {
		return Color{}, fmt.Errorf("unknown color name: %q", name)
	}
	return c, nil
}

// HexColor parses an "rrggbb" hex literal, with or without a leading '#'
func HexColor(s string) (Color, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return Color{}, fmt.Errorf("invalid hex color %q: want 6 hex digits", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid hex color %q: %v", s, err)
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// ParseColor resolves CLI-style color input: a color name, or a hex
// literal. Resolution happens once here; everything past this boundary
// works with canonical Color values.
func ParseColor(s string) (Color, error) {
	if c, err := NamedColor(s); err == nil {
		return c, nil
	}
	if c, err := HexColor(s); err == nil {
		return c, nil
	}
	return Color{}, fmt.Errorf("unresolvable color: %q (want a name or rrggbb hex)", s)
}

// Scale returns the color dimmed by level, clamped to [0, 1].
// Scale(c, 1) is c itself, Scale(c, 0) is black.
func Scale(c Color, level float64) Color {
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	return Color{
		R: uint8(float64(c.R) * level),
		G: uint8(float64(c.G) * level),
		B: uint8(float64(c.B) * level),
	}
}

// String renders the color as a hex literal
func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
