// Stylecast - Trend-Aware Fashion Ranking and Recommendation
// Copyright 2026 Stylecast Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylecast/stylecast

package vecindex

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// artifactMagic identifies a serialized index file. The version byte allows
// the layout to evolve without silently misreading old artifacts.
var artifactMagic = [4]byte{'s', 'v', 'i', 1}

// MarshalBinary encodes the index as:
// magic(4), dim(uint32), n(uint32), then per entry idLen(uint32), id bytes,
// vector float32[dim]. All integers and floats are little-endian.
func (i *Index) MarshalBinary() ([]byte, error) {
	size := 12
	for idx := range i.ids {
		size += 4 + len(i.ids[idx]) + 4*i.dim
	}

	out := make([]byte, 0, size)
	out = append(out, artifactMagic[:]...)
	out = binary.LittleEndian.AppendUint32(out, uint32(i.dim))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(i.ids)))

	for idx, id := range i.ids {
		out = binary.LittleEndian.AppendUint32(out, uint32(len(id)))
		out = append(out, id...)
		for _, f := range i.vecs[idx] {
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(f))
		}
	}
	return out, nil
}

// UnmarshalBinary restores an index serialized by MarshalBinary. Insertion
// order, and therefore search tie-breaking, is preserved exactly.
func (i *Index) UnmarshalBinary(data []byte) error {
	if len(data) < 12 {
		return errors.New("vecindex: artifact truncated")
	}
	if [4]byte(data[:4]) != artifactMagic {
		return errors.New("vecindex: not an index artifact")
	}
	off := 4

	getU32 := func() (uint32, error) {
		if off+4 > len(data) {
			return 0, errors.New("vecindex: artifact truncated")
		}
		v := binary.LittleEndian.Uint32(data[off : off+4])
		off += 4
		return v, nil
	}

	dim32, err := getU32()
	if err != nil {
		return err
	}
	n32, err := getU32()
	if err != nil {
		return err
	}
	dim, n := int(dim32), int(n32)

	ids := make([]string, n)
	vecs := make([][]float32, n)
	for e := 0; e < n; e++ {
		idLen, err := getU32()
		if err != nil {
			return err
		}
		if off+int(idLen) > len(data) {
			return errors.New("vecindex: artifact truncated in id")
		}
		ids[e] = string(data[off : off+int(idLen)])
		off += int(idLen)

		vec := make([]float32, dim)
		for j := 0; j < dim; j++ {
			bits, err := getU32()
			if err != nil {
				return err
			}
			vec[j] = math.Float32frombits(bits)
		}
		vecs[e] = vec
	}

	i.ids = ids
	i.vecs = vecs
	i.dim = dim
	if n == 0 {
		i.dim = 0
	}
	return nil
}

// Save writes the index artifact to path atomically (temp file + rename) so
// a crash mid-write never leaves a corrupt artifact behind.
func (i *Index) Save(path string) error {
	data, err := i.MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create artifact directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".index-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("publish artifact: %w", err)
	}
	return nil
}

// Load reads an index artifact from path. The loaded index behaves
// identically to the one that was saved.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}

	idx := &Index{}
	if err := idx.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return idx, nil
}
