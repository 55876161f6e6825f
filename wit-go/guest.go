package witgo

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/tetratelabs/wazero/api"
)

// Guest moves bytes in and out of a guest's linear memory.
//
// Input buffers stay owned by the guest; the host only copies them. Output buffers
// are allocated through the guest's `cabi_realloc` and handed over: the host keeps
// no reference to them after the call returns.
type Guest struct {
	module    api.Module
	allocator *GuestAllocator
}

// NewGuest wraps a guest module that exports `memory` and `cabi_realloc`.
func NewGuest(module api.Module) (*Guest, error) {
	if module.Memory() == nil {
		return nil, fmt.Errorf("guest module %q does not export memory", module.Name())
	}
	alloc, err := NewGuestAllocator(module)
	if err != nil {
		return nil, err
	}
	return &Guest{module: module, allocator: alloc}, nil
}

// Allocator returns the guest's allocator.
func (g *Guest) Allocator() *GuestAllocator {
	return g.allocator
}

// ReadBytes copies length bytes starting at ptr out of guest memory.
func (g *Guest) ReadBytes(ptr, length uint32) ([]byte, error) {
	if length == 0 {
		return nil, nil
	}
	view, ok := g.module.Memory().Read(ptr, length)
	if !ok {
		return nil, fmt.Errorf("failed to read %d bytes at ptr %d", length, ptr)
	}
	// The view aliases guest memory and is invalidated by memory.grow.
	out := make([]byte, length)
	copy(out, view)
	return out, nil
}

// ReadString reads a string from guest memory given a direct pointer and length.
func (g *Guest) ReadString(ptr, length uint32) (string, error) {
	b, err := g.ReadBytes(ptr, length)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// WriteBytes allocates a buffer in the guest and copies data into it.
// An empty input yields (0, 0) without allocating. If the copy fails the block is
// released through the guest allocator before the error is returned.
func (g *Guest) WriteBytes(ctx context.Context, data []byte) (ptr, length uint32, err error) {
	if len(data) == 0 {
		return 0, 0, nil
	}
	length = uint32(len(data))
	ptr, err = g.allocator.Allocate(ctx, length, 1)
	if err != nil {
		return 0, 0, err
	}
	if !g.module.Memory().Write(ptr, data) {
		err = fmt.Errorf("memory write failed for %d bytes at ptr %d", length, ptr)
		// The block was never handed over, so it goes back to the guest here.
		if freeErr := g.allocator.Free(ctx, ptr, length, 1); freeErr != nil {
			err = errors.Join(err, freeErr)
		}
		return 0, 0, err
	}
	return ptr, length, nil
}

// StoreBytes lifts data into a freshly allocated guest buffer and writes the
// (ptr, len) pair at retptr, which is how a string result is returned to the guest.
func (g *Guest) StoreBytes(ctx context.Context, retptr uint32, data []byte) error {
	ptr, length, err := g.WriteBytes(ctx, data)
	if err != nil {
		return err
	}
	return g.storePair(retptr, ptr, length)
}

// StoreEmpty writes an empty (0, 0) result at retptr.
func (g *Guest) StoreEmpty(retptr uint32) error {
	return g.storePair(retptr, 0, 0)
}

// LoadPair reads the (ptr, len) pair stored at retptr.
func (g *Guest) LoadPair(retptr uint32) (ptr, length uint32, err error) {
	buf, ok := g.module.Memory().Read(retptr, 8)
	if !ok {
		return 0, 0, fmt.Errorf("failed to read ptr/len at ptr %d", retptr)
	}
	return binary.LittleEndian.Uint32(buf[0:4]), binary.LittleEndian.Uint32(buf[4:8]), nil
}

func (g *Guest) storePair(retptr, ptr, length uint32) error {
	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[0:4], ptr)
	binary.LittleEndian.PutUint32(buf[4:8], length)
	if !g.module.Memory().Write(retptr, buf[:]) {
		return fmt.Errorf("memory write failed for ptr/len at ptr %d", retptr)
	}
	return nil
}
