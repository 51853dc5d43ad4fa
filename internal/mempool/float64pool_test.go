package mempool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizeClass(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		expected int
	}{
		{"zero gets minimum", 0, 16},
		{"small size gets minimum", 3, 16},
		{"exactly minimum", 16, 16},
		{"just over minimum", 17, 32},
		{"power of two", 64, 64},
		{"between powers", 100, 128},
		{"large", 5000, 8192},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, sizeClass(tt.input))
		})
	}
}

func TestGetFloat64(t *testing.T) {
	buf := GetFloat64(3)
	require.Len(t, buf, 3)
	assert.Equal(t, 16, cap(buf))
	assert.Equal(t, []float64{0, 0, 0}, buf)
	PutFloat64(buf)

	assert.Empty(t, GetFloat64(-1))
}

func TestGetFloat64_ZeroesReusedBuffers(t *testing.T) {
	for range 10 {
		buf := GetFloat64(5)
		for i := range buf {
			assert.Zero(t, buf[i])
			buf[i] = float64(i + 1)
		}
		PutFloat64(buf)
	}
}

func TestPutFloat64_Foreign(t *testing.T) {
	assert.NotPanics(t, func() {
		PutFloat64(nil)
		PutFloat64(make([]float64, 3))
		PutFloat64(make([]float64, 20))
	})
}

func TestMultiple(t *testing.T) {
	bufs := GetFloat64Multiple(3, 40, 0)
	require.Len(t, bufs, 3)
	assert.Len(t, bufs[0], 3)
	assert.Len(t, bufs[1], 40)
	assert.Equal(t, 64, cap(bufs[1]))
	assert.Empty(t, bufs[2])
	PutFloat64Multiple(bufs)

	assert.Nil(t, GetFloat64Multiple())
}

func TestConcurrentAccess(t *testing.T) {
	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func(seed int) {
			defer wg.Done()
			for i := range 200 {
				n := (seed*31 + i) % 300
				buf := GetFloat64(n)
				assert.Len(t, buf, n)
				for j := range buf {
					buf[j] = float64(seed)
				}
				PutFloat64(buf)
			}
		}(g)
	}
	wg.Wait()
}

func BenchmarkGetFloat64_Small(b *testing.B) {
	for b.Loop() {
		PutFloat64(GetFloat64(3))
	}
}

func BenchmarkDirectAllocation_Small(b *testing.B) {
	for b.Loop() {
		_ = make([]float64, 3)
	}
}
