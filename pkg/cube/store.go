// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Mara Vesely, Luxcube

package cube

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"
)

// Store persists the last successfully displayed framebuffer so a later
// session can resume the image across restarts.
type Store struct {
	path string
}

// savedBuffer is the on-disk representation of a framebuffer
type savedBuffer struct {
	XSize  int        `cbor:"x"`
	YSize  int        `cbor:"y"`
	ZSize  int        `cbor:"z"`
	Voxels [][3]uint8 `cbor:"voxels"`
}

// DefaultStatePath returns the well-known framebuffer persistence path
// under the user's home directory.
func DefaultStatePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot resolve home directory: %w", err)
	}
	return filepath.Join(home, ".cubist", "framebuffer.cbor"), nil
}

// NewStore creates a store writing to the given path
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the store's file path
func (s *Store) Path() string {
	return s.path
}

// Save serializes the framebuffer to disk, creating the parent directory
// if needed
func (s *Store) Save(fb *Framebuffer) error {
	saved := savedBuffer{
		XSize:  XSize,
		YSize:  YSize,
		ZSize:  ZSize,
		Voxels: make([][3]uint8, 0, VoxelCount),
	}
	for _, c := range fb.Snapshot() {
		saved.Voxels = append(saved.Voxels, [3]uint8{c.R, c.G, c.B})
	}

	data, err := cbor.Marshal(saved)
	if err != nil {
		return fmt.Errorf("failed to encode framebuffer: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write framebuffer state: %w", err)
	}
	return nil
}

// Load reads a previously saved framebuffer. The second return value is
// false when no saved state exists.
func (s *Store) Load() (*Framebuffer, bool, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read framebuffer state: %w", err)
	}

	var saved savedBuffer
	if err := cbor.Unmarshal(data, &saved); err != nil {
		return nil, false, fmt.Errorf("failed to decode framebuffer state: %w", err)
	}

	if saved.XSize != XSize || saved.YSize != YSize || saved.ZSize != ZSize {
		return nil, false, fmt.Errorf("saved framebuffer is %dx%dx%d, device is %dx%dx%d",
			saved.XSize, saved.YSize, saved.ZSize, XSize, YSize, ZSize)
	}
	if len(saved.Voxels) != VoxelCount {
		return nil, false, fmt.Errorf("saved framebuffer has %d voxels, want %d", len(saved.Voxels), VoxelCount)
	}

	fb := NewFramebuffer()
	voxels := make([]Color, 0, VoxelCount)
	for _, v := range saved.Voxels {
		voxels = append(voxels, Color{R: v[0], G: v[1], B: v[2]})
	}
	if err := fb.Restore(voxels); err != nil {
		return nil, false, err
	}
	return fb, true, nil
}
