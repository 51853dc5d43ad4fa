// Package mempool pools []float64 scratch buffers for the solver's hot
// loops, which run concurrently under batch and benchmark workloads.
package mempool

import (
	"math/bits"
	"sync"
)

const minClass = 16

var float64Pools sync.Map // key: size class (int), value: *sync.Pool

// sizeClass rounds n up to the next power of two, at least minClass.
func sizeClass(n int) int {
	if n <= minClass {
		return minClass
	}
	return 1 << bits.Len(uint(n-1))
}

func poolFor(cls int) *sync.Pool {
	pAny, _ := float64Pools.LoadOrStore(cls, &sync.Pool{New: func() any {
		buf := make([]float64, cls)
		return &buf
	}})
	return pAny.(*sync.Pool)
}

// GetFloat64 returns a zeroed buffer of length n. The caller must hand it
// back with PutFloat64 when done.
func GetFloat64(n int) []float64 {
	if n < 0 {
		n = 0
	}
	cls := sizeClass(n)
	bp, ok := poolFor(cls).Get().(*[]float64)
	if !ok || cap(*bp) < cls {
		buf := make([]float64, cls)
		bp = &buf
	}
	buf := (*bp)[:n]
	clear(buf)
	return buf
}

// PutFloat64 returns a buffer to the pool. Nil slices and buffers that did
// not come from GetFloat64 are accepted; odd capacities are dropped.
func PutFloat64(buf []float64) {
	if cap(buf) < minClass {
		return
	}
	cls := cap(buf)
	if sizeClass(cls) != cls {
		return
	}
	full := buf[:cls]
	poolFor(cls).Put(&full)
}

// GetFloat64Multiple returns one buffer per requested size.
func GetFloat64Multiple(sizes ...int) [][]float64 {
	if len(sizes) == 0 {
		return nil
	}
	bufs := make([][]float64, len(sizes))
	for i, n := range sizes {
		bufs[i] = GetFloat64(n)
	}
	return bufs
}

// PutFloat64Multiple returns every buffer to the pool.
func PutFloat64Multiple(bufs [][]float64) {
	for _, buf := range bufs {
		PutFloat64(buf)
	}
}
