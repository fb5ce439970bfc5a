package simbridge

import "strconv"

const (
	VersionMajor = 1
	VersionMinor = 0
	VersionPatch = 0
)

// Version is the dotted library version written into log headers.
var Version = strconv.Itoa(VersionMajor) + "." + strconv.Itoa(VersionMinor) + "." + strconv.Itoa(VersionPatch)

// VersionNumber is the version as a single double, the form hosts read back
// from the report-version method.
const VersionNumber = VersionMajor + VersionMinor*0.1 + VersionPatch*0.01

// Memory represents guest linear memory
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	ReadF64(offset uint32) (float64, error)
	WriteF64(offset uint32, value float64) error
	Size() uint32
}

// Allocator allocates memory in guest linear memory
type Allocator interface {
	Alloc(size, align uint32) (uint32, error)
}
