package engine

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero/api"
	"github.com/wippyai/simbridge/transcoder"
)

// wrapMemory adapts a guest memory to transcoder.Memory.
func wrapMemory(mem api.Memory) transcoder.Memory {
	if mem == nil {
		return nil
	}
	return &memoryWrapper{mem: mem}
}

type memoryWrapper struct {
	mem api.Memory
}

func (m *memoryWrapper) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, fmt.Errorf("memory read out of bounds: offset=%d, length=%d", offset, length)
	}
	return data, nil
}

func (m *memoryWrapper) Write(offset uint32, data []byte) error {
	if !m.mem.Write(offset, data) {
		return fmt.Errorf("memory write out of bounds: offset=%d, length=%d", offset, len(data))
	}
	return nil
}

func (m *memoryWrapper) ReadF64(offset uint32) (float64, error) {
	v, ok := m.mem.ReadFloat64Le(offset)
	if !ok {
		return 0, fmt.Errorf("memory read out of bounds: offset=%d", offset)
	}
	return v, nil
}

func (m *memoryWrapper) WriteF64(offset uint32, value float64) error {
	if !m.mem.WriteFloat64Le(offset, value) {
		return fmt.Errorf("memory write out of bounds: offset=%d", offset)
	}
	return nil
}

func (m *memoryWrapper) Size() uint32 { return m.mem.Size() }

// allocator calls the guest's alloc(size) export. The guest aligns to 8.
type allocator struct {
	ctx context.Context
	fn  api.Function
}

func (a *allocator) Alloc(size, _ uint32) (uint32, error) {
	results, err := a.fn.Call(a.ctx, uint64(size))
	if err != nil {
		return 0, fmt.Errorf("allocation failed: %w", err)
	}
	if len(results) == 0 {
		return 0, fmt.Errorf("allocation returned no result")
	}
	ptr := uint32(results[0])
	if ptr%8 != 0 {
		return 0, fmt.Errorf("allocation returned unaligned pointer %d", ptr)
	}
	return ptr, nil
}
