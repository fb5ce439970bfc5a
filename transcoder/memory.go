package transcoder

import (
	simbridge "github.com/wippyai/simbridge"
	"github.com/wippyai/simbridge/errors"
	"github.com/wippyai/simbridge/transcoder/internal/abi"
)

type Memory = simbridge.Memory
type Allocator = simbridge.Allocator

// StoreFlat allocates room for flat in guest memory and copies it there.
// It returns the guest address.
func StoreFlat(mem Memory, alloc Allocator, flat []float64) (uint32, error) {
	size := uint32(len(flat) * 8)
	if size == 0 {
		size = 8
	}
	ptr, err := alloc.Alloc(size, 8)
	if err != nil {
		return 0, errors.Wrap(errors.PhaseEncode, errors.KindInvalidData, err, "allocate guest buffer")
	}
	if len(flat) == 0 {
		return ptr, nil
	}
	if err := mem.Write(ptr, abi.BytesFromFloats(flat)); err != nil {
		return 0, errors.Wrap(errors.PhaseEncode, errors.KindInvalidData, err, "write guest buffer")
	}
	return ptr, nil
}

// LoadFlat reads n doubles from guest memory at ptr.
func LoadFlat(mem Memory, ptr uint32, n int) ([]float64, error) {
	if n < 0 || n > abi.MaxElements {
		return nil, errors.InvalidInput(errors.PhaseDecode, "guest buffer length out of range")
	}
	b, err := mem.Read(ptr, uint32(n*8))
	if err != nil {
		return nil, errors.Wrap(errors.PhaseDecode, errors.KindInvalidData, err, "read guest buffer")
	}
	f, _ := abi.FloatsFromBytes(b)
	return f, nil
}
