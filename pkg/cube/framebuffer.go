// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Mara Vesely, Luxcube

// Package cube implements the driver for the Luxcube LED cube: session
// handling, command dispatch, the local framebuffer model and its
// persistence. Wire framing lives in pkg/lattice.
package cube

import "fmt"

// Cube geometry. The device is a fixed three-axis grid.
const (
	XSize = 4
	YSize = 4
	ZSize = 4

	VoxelCount = XSize * YSize * ZSize
	WireSize   = VoxelCount / 2 * 3 // 4 bits per channel, 2 voxels per 3 bytes
)

// Axis identifies one of the cube's three axes for plane operations
type Axis string

// Axis values
const (
	AxisX Axis = "x"
	AxisY Axis = "y"
	AxisZ Axis = "z"
)

// ParseAxis resolves an axis name
func ParseAxis(s string) (Axis, error) {
	switch Axis(s) {
	case AxisX, AxisY, AxisZ:
		return Axis(s), nil
	default:
		return "", fmt.Errorf("invalid axis: %q (want x, y or z)", s)
	}
}

// Extent returns the number of voxels along the axis
func (a Axis) Extent() int {
	switch a {
	case AxisX:
		return XSize
	case AxisY:
		return YSize
	case AxisZ:
		return ZSize
	default:
		return 0
	}
}

// Framebuffer holds the local copy of the cube's voxel grid. It is owned
// by a single Driver and mutated in place; it is not safe for concurrent
// use without external synchronization.
type Framebuffer struct {
	voxels [VoxelCount]Color
}

// NewFramebuffer creates a framebuffer cleared to black
func NewFramebuffer() *Framebuffer {
	return &Framebuffer{}
}

// wrap maps any integer onto [0, extent), handling negatives
func wrap(v, extent int) int {
	v %= extent
	if v < 0 {
		v += extent
	}
	return v
}

// Offset maps cube coordinates onto the buffer's linear voxel order.
// Coordinates wrap modulo their axis extent. The x axis is mirrored to
// match the physical wiring orientation of the device.
func Offset(x, y, z int) int {
	mx := XSize - 1 - wrap(x, XSize)
	return wrap(y, YSize)*ZSize*YSize + wrap(z, ZSize)*YSize + mx
}

// At returns the color at the given coordinates, wrapping like Offset
func (fb *Framebuffer) At(x, y, z int) Color {
	return fb.voxels[Offset(x, y, z)]
}

// SetPixel writes a color at the given coordinates. Negative coordinates
// are rejected before any wrapping takes place.
func (fb *Framebuffer) SetPixel(x, y, z int, c Color) error {
	if x < 0 || y < 0 || z < 0 {
		return fmt.Errorf("invalid pixel coordinates: (%d, %d, %d)", x, y, z)
	}
	fb.voxels[Offset(x, y, z)] = c
	return nil
}

// SetPlane fills every voxel sharing one coordinate value along the given
// axis. The index must lie inside the axis, otherwise the buffer is left
// unmodified.
func (fb *Framebuffer) SetPlane(axis Axis, index int, c Color) error {
	extent := axis.Extent()
	if extent == 0 {
		return fmt.Errorf("invalid axis: %q", axis)
	}
	if index < 0 || index >= extent {
		return fmt.Errorf("plane index %d out of range for axis %s (0-%d)", index, axis, extent-1)
	}

	for a := 0; a < XSize; a++ {
		for b := 0; b < YSize; b++ {
			switch axis {
			case AxisX:
				fb.SetPixel(index, a, b, c)
			case AxisY:
				fb.SetPixel(a, index, b, c)
			case AxisZ:
				fb.SetPixel(a, b, index, c)
			}
		}
	}
	return nil
}

// Clear fills the whole buffer with one color
func (fb *Framebuffer) Clear(c Color) {
	for i := range fb.voxels {
		fb.voxels[i] = c
	}
}

// WireBytes packs the buffer into the device's FRAME payload format.
// The device has 4 bits per channel, so only the top nibble of each
// channel survives; two voxels pack into three bytes:
//
//	byte0 = R0<<4 | G0
//	byte1 = B0<<4 | R1
//	byte2 = G1<<4 | B1
func (fb *Framebuffer) WireBytes() []byte {
	out := make([]byte, 0, WireSize)
	for i := 0; i+1 < VoxelCount; i += 2 {
		a, b := fb.voxels[i], fb.voxels[i+1]
		out = append(out,
			a.R&0xF0|a.G>>4,
			a.B&0xF0|b.R>>4,
			b.G&0xF0|b.B>>4,
		)
	}
	return out
}

// Snapshot copies the voxel grid out of the buffer
func (fb *Framebuffer) Snapshot() []Color {
	out := make([]Color, VoxelCount)
	copy(out, fb.voxels[:])
	return out
}

// Restore replaces the voxel grid wholesale
func (fb *Framebuffer) Restore(voxels []Color) error {
	if len(voxels) != VoxelCount {
		return fmt.Errorf("voxel count mismatch: got %d, want %d", len(voxels), VoxelCount)
	}
	copy(fb.voxels[:], voxels)
	return nil
}
