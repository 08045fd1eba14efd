package economy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/serfworks/internal/agents"
)

func TestInventoryModes(t *testing.T) {
	inv := NewInventory(1)
	assert.True(t, inv.AcceptsResources())
	assert.True(t, inv.AcceptsSerfs())
	assert.False(t, inv.HaveAnyOutMode())

	inv.ResMode = ModeStop
	assert.False(t, inv.AcceptsResources())
	assert.False(t, inv.HaveAnyOutMode())

	inv.SerfMode = ModeOut
	assert.True(t, inv.HaveAnyOutMode())
}

func TestInventoryOutQueue(t *testing.T) {
	inv := NewInventory(1)
	inv.PushResource(ResourcePlank)
	inv.PushResource(ResourcePlank)
	inv.PushResource(ResourceStone)

	require.True(t, inv.AddToQueue(ResourcePlank, 5))
	require.True(t, inv.AddToQueue(ResourceStone, 6))
	assert.True(t, inv.IsQueueFull())
	assert.False(t, inv.AddToQueue(ResourcePlank, 7))
	assert.Equal(t, 1, inv.CountOf(ResourcePlank))

	inv.ResetQueueForDest(6)
	head, ok := inv.ResourceFromQueue()
	require.True(t, ok)
	assert.Equal(t, OutQueueEntry{Type: ResourcePlank, Dest: 5}, head)
	head, ok = inv.ResourceFromQueue()
	require.True(t, ok)
	assert.Equal(t, OutQueueEntry{Type: ResourceStone, Dest: 0}, head)
	_, ok = inv.ResourceFromQueue()
	assert.False(t, ok)
}

func TestInventorySpecializeConsumesTools(t *testing.T) {
	inv := NewInventory(1)
	inv.AddSerf(agents.SerfGeneric, 10)
	inv.AddSerf(agents.SerfGeneric, 11)

	_, ok := inv.SpecializeFreeSerf(agents.SerfKnight0)
	assert.False(t, ok, "no weapons in stock")
	assert.Equal(t, 2, inv.FreeSerfCount())

	inv.PushResource(ResourceSword)
	inv.PushResource(ResourceShield)
	serf, ok := inv.SpecializeFreeSerf(agents.SerfKnight0)
	require.True(t, ok)
	assert.Equal(t, agents.SerfIndex(10), serf)
	assert.Equal(t, 1, inv.FreeSerfCount())
	assert.True(t, inv.HaveSerf(agents.SerfKnight0))
	assert.Zero(t, inv.CountOf(ResourceSword))
	assert.Zero(t, inv.CountOf(ResourceShield))
}

func TestInventoryCallInternalSerf(t *testing.T) {
	inv := NewInventory(1)
	inv.AddSerf(agents.SerfKnight2, 3)
	inv.AddSerf(agents.SerfKnight2, 4)

	assert.True(t, inv.CallInternalSerf(agents.SerfKnight2, 4))
	assert.False(t, inv.CallInternalSerf(agents.SerfKnight2, 4))
	assert.Equal(t, []agents.SerfIndex{3}, inv.IdleSerfs())

	serf, ok := inv.CallOutSerf(agents.SerfKnight2)
	require.True(t, ok)
	assert.Equal(t, agents.SerfIndex(3), serf)
	assert.Equal(t, 1, inv.SerfsOut)
	inv.SerfAway()
	assert.Zero(t, inv.SerfsOut)
}

func TestApplySuppliesPreset(t *testing.T) {
	low := NewInventory(1)
	low.ApplySuppliesPreset(0)
	high := NewInventory(2)
	high.ApplySuppliesPreset(MaxSupplies + 10)

	assert.Equal(t, 10, low.CountOf(ResourcePlank))
	assert.Equal(t, 50, high.CountOf(ResourcePlank))
	assert.Greater(t, high.Resources.Total(), low.Resources.Total())
}
