package economy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecayPriority(t *testing.T) {
	tests := []struct {
		base, total, maximum, want int
	}{
		{FixedPriorityBase, 0, 8, 0xff},
		{FixedPriorityBase, 1, 8, 0x7f},
		{FixedPriorityBase, 7, 8, 0x01},
		{FixedPriorityBase, 8, 8, 0},
		{65500, 0, 8, 65500 >> 8},
		{32750, 2, 8, 32750 >> 10},
		{65500, 3, 3, 0},
		{65500, 9, 8, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DecayPriority(tt.base, tt.total, tt.maximum),
			"base=%d total=%d max=%d", tt.base, tt.total, tt.maximum)
	}
}

func TestDecayPriorityNonIncreasing(t *testing.T) {
	for _, base := range []int{FixedPriorityBase, 65500, 45850, 3275} {
		prev := DecayPriority(base, 0, 16)
		for total := 1; total <= 16; total++ {
			p := DecayPriority(base, total, 16)
			assert.LessOrEqual(t, p, prev, "base=%d total=%d", base, total)
			prev = p
		}
		assert.Zero(t, DecayPriority(base, 16, 16))
	}
}

func TestGoldPriorityIsEven(t *testing.T) {
	assert.Equal(t, 0xfe, GoldPriority(0, 8))
	assert.Equal(t, 0x80, GoldPriority(1, 8))
	assert.Equal(t, 0x04, GoldPriority(6, 8))
	assert.Equal(t, 0x02, GoldPriority(7, 8))
	assert.Equal(t, 0, GoldPriority(2, 2))
	for total := 0; total < 8; total++ {
		assert.Zero(t, GoldPriority(total, 8)&1)
	}
}

func TestConstructionPriority(t *testing.T) {
	// 0xff: quartered without a builder, then made even.
	assert.Equal(t, 0x3e, ConstructionPriority(FixedPriorityBase, 0, 2, false))
	assert.Equal(t, 0xfe, ConstructionPriority(FixedPriorityBase, 0, 2, true))
	assert.Equal(t, 0, ConstructionPriority(FixedPriorityBase, 2, 2, true))
}

func TestStockSlotDeliverRejectsUnrequested(t *testing.T) {
	s := StockSlot{}
	s.Init(ResourcePlank, 2)

	err := s.Deliver()
	require.ErrorIs(t, err, ErrUnrequestedDelivery)
	assert.Equal(t, 0, s.Requested)
	assert.Equal(t, 0, s.Available)

	s.AddRequest(false)
	require.NoError(t, s.Deliver())
	assert.Equal(t, 1, s.Available)
	assert.Equal(t, 0, s.Requested)
}

func TestStockSlotCancel(t *testing.T) {
	s := StockSlot{}
	s.Init(ResourceStone, 3)
	require.ErrorIs(t, s.CancelRequest(), ErrUnrequestedDelivery)

	s.AddRequest(false)
	s.AddRequest(false)
	require.NoError(t, s.CancelRequest())
	assert.Equal(t, 1, s.Requested)
}

func TestStockSlotAddRequestFixPriority(t *testing.T) {
	s := StockSlot{Type: ResourceCoal, Priority: 0x41, Maximum: 8}
	s.AddRequest(true)
	assert.Equal(t, 0x20, s.Priority)
	assert.Equal(t, 1, s.Requested)

	s.Priority = 0x40
	s.AddRequest(true)
	assert.Equal(t, 0, s.Priority)

	s.Priority = 0x41
	s.AddRequest(false)
	assert.Equal(t, 0, s.Priority)
}

func TestStockSlotMatchesFoldsFood(t *testing.T) {
	s := StockSlot{Type: ResourceGroupFood}
	assert.True(t, s.Matches(ResourceFish))
	assert.True(t, s.Matches(ResourceBread))
	assert.False(t, s.Matches(ResourceWheat))

	empty := StockSlot{}
	assert.False(t, empty.Matches(ResourceNone))
}
