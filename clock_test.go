package kit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNowMS_SynchronizedWith64BitView(t *testing.T) {
	now32 := NowMS()
	now64 := NowMSEx()
	assert.Equal(t, now32, uint32(now64))
}

func TestDeltaMS_WrapsCorrectlyAcrossRollover(t *testing.T) {
	const start = uint32(0xFFFFFFF0)
	const end = uint32(0x10) // wrapped past 2^32
	assert.Equal(t, uint32(0x20), DeltaMS(start, end))
}

func TestExpiredMS(t *testing.T) {
	mark := NowMS()
	assert.False(t, ExpiredMS(mark, 1000))
	time.Sleep(5 * time.Millisecond)
	assert.True(t, ExpiredMS(mark, 1))
}

func TestNowMSRealTime_BypassesSimTick(t *testing.T) {
	// With no sim participants registered, real-time and sim-aware views
	// must agree.
	assert.InDelta(t, float64(NowMSExRealTime()), float64(NowMSEx()), 50)
}
