// Package ram models byte-addressed main memory with a latency-modeling
// write path backed by an internal data cache.
package ram

import (
	"encoding/binary"
	"math"

	"github.com/jasonKoogler/cpu-sim/internal/cache"
)

// RAM is a contiguous byte array with a wait-cycle counter and an owned
// data cache used purely for timing.
type RAM struct {
	bytes         []byte
	waitCycles    int
	dataCache     *cache.Cache
	lastWriteMiss bool
}

// New allocates a RAM of the given size in bytes.
func New(size int) *RAM {
	return &RAM{
		bytes:     make([]byte, size),
		dataCache: cache.New(),
	}
}

// Size returns the configured byte capacity.
func (r *RAM) Size() int {
	return len(r.bytes)
}

// Write32 writes a little-endian 32-bit value at addr. Out-of-range accesses
// are silently dropped. On a cache miss, wait_cycles accumulates +2 before
// the write lands, then is unconditionally reset to 2 (assignment, not
// accumulation — preserved exactly for timing reproducibility).
func (r *RAM) Write32(addr uint32, value uint32) {
	if !r.inBounds(addr) {
		return
	}

	hit := r.dataCache.Access(addr, true)
	r.lastWriteMiss = !hit
	if !hit {
		r.waitCycles += 2
	}

	binary.LittleEndian.PutUint32(r.bytes[addr:addr+4], value)

	r.waitCycles = 2
}

// LastWriteMissed reports whether the most recent Write32 missed the data
// cache. Out-of-range writes that were dropped do not change this flag.
func (r *RAM) LastWriteMissed() bool {
	return r.lastWriteMiss
}

// Read32 returns the little-endian 32-bit value at addr, or 0 if addr is out
// of bounds. The read path does not consult the cache.
func (r *RAM) Read32(addr uint32) uint32 {
	if !r.inBounds(addr) {
		return 0
	}
	return binary.LittleEndian.Uint32(r.bytes[addr : addr+4])
}

// WriteFloat bit-reinterprets value as IEEE-754 binary32 and stores it.
func (r *RAM) WriteFloat(addr uint32, value float32) {
	r.Write32(addr, math.Float32bits(value))
}

// ReadFloat bit-reinterprets the stored 32-bit word as IEEE-754 binary32.
func (r *RAM) ReadFloat(addr uint32) float32 {
	return math.Float32frombits(r.Read32(addr))
}

// IsWaiting reports whether a prior write's modeled latency is still active.
func (r *RAM) IsWaiting() bool {
	return r.waitCycles > 0
}

// Tick decrements the wait-cycle counter by one if it is positive. Called
// once per pipeline cycle.
func (r *RAM) Tick() {
	if r.waitCycles > 0 {
		r.waitCycles--
	}
}

// WaitCycles exposes the raw counter for driver-side observation.
func (r *RAM) WaitCycles() int {
	return r.waitCycles
}

func (r *RAM) inBounds(addr uint32) bool {
	return uint64(addr)+3 < uint64(len(r.bytes))
}
