package pcm

import (
	"math"
	"sync/atomic"
)

// AtomicFloat32 is a lock-free float32, stored as its IEEE 754 bits in
// an atomic uint32. Used for per-track gain updated from other
// goroutines while the mixer reads it.
type AtomicFloat32 struct {
	bits uint32
}

// NewAtomicFloat32 returns an AtomicFloat32 holding val.
func NewAtomicFloat32(val float32) AtomicFloat32 {
	return AtomicFloat32{bits: math.Float32bits(val)}
}

// Load returns the current value.
func (af *AtomicFloat32) Load() float32 {
	return math.Float32frombits(atomic.LoadUint32(&af.bits))
}

// Store replaces the value.
func (af *AtomicFloat32) Store(val float32) {
	atomic.StoreUint32(&af.bits, math.Float32bits(val))
}
