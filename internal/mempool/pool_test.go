package mempool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetFloat32ReturnsExactLength(t *testing.T) {
	buf := GetFloat32(37)
	assert.Len(t, buf, 37)
	PutFloat32(buf)
}

func TestGetFloat32RoundTripReusesCapacity(t *testing.T) {
	buf := GetFloat32(100)
	buf[0] = 1
	cap1 := cap(buf)
	PutFloat32(buf)

	reused := GetFloat32(100)
	assert.Equal(t, cap1, cap(reused))
}

func TestGetBoolReturnsZeroedBuffer(t *testing.T) {
	buf := GetBool(50)
	for _, b := range buf {
		assert.False(t, b)
	}
	for i := range buf {
		buf[i] = true
	}
	PutBool(buf)

	reused := GetBool(50)
	for _, b := range reused {
		assert.False(t, b, "buffer pulled from the pool must be re-zeroed")
	}
}

func TestPutFloat32NilIsNoop(t *testing.T) {
	assert.NotPanics(t, func() { PutFloat32(nil) })
}

func TestPutBoolNilIsNoop(t *testing.T) {
	assert.NotPanics(t, func() { PutBool(nil) })
}

func TestSizeClassRoundsUpToStep(t *testing.T) {
	assert.Equal(t, 1024, sizeClass(1))
	assert.Equal(t, 1024, sizeClass(1024))
	assert.Equal(t, 2048, sizeClass(1025))
}
