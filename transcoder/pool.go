package transcoder

import "sync"

// Encode flattens each result slot into a scratch buffer before copying it
// into the slot's region bytes. Buffers grown past scratchLimit by a large
// table or time series are dropped instead of being kept alive by the pool.
const (
	scratchLimit = 1 << 16
	scratchStart = 64
)

var scratch = sync.Pool{
	New: func() any {
		s := make([]float64, 0, scratchStart)
		return &s
	},
}

func acquireScratch() *[]float64 {
	return scratch.Get().(*[]float64)
}

func releaseScratch(s *[]float64) {
	if s == nil || cap(*s) > scratchLimit {
		return
	}
	*s = (*s)[:0]
	scratch.Put(s)
}
