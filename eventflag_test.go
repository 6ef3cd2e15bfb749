package kit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingFlag struct {
	mask     uint32
	notified []uint32
}

func (f *recordingFlag) EventFlagsMask() uint32 { return f.mask }
func (f *recordingFlag) Notified(active uint32) { f.notified = append(f.notified, active) }

func TestEventFlagSet_FanOutInRegistrationOrder(t *testing.T) {
	var order []string
	first := &orderTrackingFlag{mask: 0b011, name: "first", order: &order}
	second := &orderTrackingFlag{mask: 0b110, name: "second", order: &order}

	set := NewEventFlagSet(first, second)
	set.signal(0b010) // bit shared by both consumers

	snap := set.snapshotAndClear()
	assert.Equal(t, uint32(0b010), snap)

	set.dispatch(snap)
	assert.Equal(t, []string{"first", "second"}, order)
}

type orderTrackingFlag struct {
	mask  uint32
	name  string
	order *[]string
}

func (f *orderTrackingFlag) EventFlagsMask() uint32 { return f.mask }
func (f *orderTrackingFlag) Notified(uint32)        { *f.order = append(*f.order, f.name) }

func TestEventFlagSet_OnlyMatchingConsumersNotified(t *testing.T) {
	a := &recordingFlag{mask: 0b001}
	b := &recordingFlag{mask: 0b010}

	set := NewEventFlagSet(a, b)
	set.signal(0b001)

	snap := set.snapshotAndClear()
	set.dispatch(snap)

	assert.Equal(t, []uint32{0b001}, a.notified)
	assert.Empty(t, b.notified)
}

func TestEventFlagSet_SnapshotAndClearIsDestructive(t *testing.T) {
	set := NewEventFlagSet()
	set.signal(0xFF)
	assert.Equal(t, uint32(0xFF), set.snapshotAndClear())
	assert.Equal(t, uint32(0), set.snapshotAndClear())
}

func TestEventFlagSet_SuSignalSkipsLockButStillAccumulates(t *testing.T) {
	set := NewEventFlagSet()
	set.suSignal(0b01)
	set.suSignal(0b10)
	assert.Equal(t, uint32(0b11), set.snapshotAndClear())
}
