package engine

import (
	"fmt"
	"slices"

	"github.com/talgya/serfworks/internal/agents"
	"github.com/talgya/serfworks/internal/economy"
	"github.com/talgya/serfworks/internal/social"
)

// SetFirstKnight adds a knight to the roster. The first knight to enter an
// inactive military building occupies it.
func (b *Building) SetFirstKnight(serf agents.SerfIndex) error {
	s, ok := b.g.Serf(serf)
	if !ok {
		return fmt.Errorf("building %d knight %d: %w", b.Index, serf, ErrMissingSerf)
	}
	if !b.Active {
		if _, ok := militaryTable[b.Type]; !ok {
			return fmt.Errorf("occupy building %d (%s): %w", b.Index, b.Type, ErrNotMilitary)
		}
	}

	b.Knights = append(b.Knights, serf)
	if s.Type.IsKnight() && b.HasInventory() {
		if p := b.player(); p != nil {
			p.IncreaseCastleKnights()
		}
	}

	if b.Active {
		return nil
	}
	info := militaryTable[b.Type]
	b.Active = true
	if p := b.player(); p != nil {
		p.AddNotification(social.MessageKnightOccupied, b.Pos, info.kind)
	}
	if f, ok := b.g.Flag(b.Flag); ok {
		f.ClearInventoryFlags()
	}
	b.StockInit(1, economy.ResourceGoldBar, info.maxGold)
	b.g.BuildingCaptured(b)
	return nil
}

// RemoveKnight drops serf from the roster.
func (b *Building) RemoveKnight(serf agents.SerfIndex) bool {
	i := slices.Index(b.Knights, serf)
	if i < 0 {
		return false
	}
	b.Knights = slices.Delete(b.Knights, i, i+1)
	return true
}

// CallDefenderOut sends the most recent arrival out to defend.
func (b *Building) CallDefenderOut() (agents.SerfIndex, error) {
	if len(b.Knights) == 0 {
		return 0, fmt.Errorf("building %d defender: %w", b.Index, ErrEmptyKnightQueue)
	}
	if b.HasInventory() {
		if p := b.player(); p != nil {
			p.DecreaseCastleKnights()
		}
	} else {
		b.Stock[0].Available--
		b.Stock[0].Requested++
	}
	last := len(b.Knights) - 1
	knight := b.Knights[last]
	b.Knights = b.Knights[:last]
	return knight, nil
}

// CallAttackerOut picks an attacker from the roster. With strongest the
// highest rank is chosen, otherwise the lowest; on ties the later knight
// wins.
func (b *Building) CallAttackerOut(strongest bool) (agents.SerfIndex, error) {
	if len(b.Knights) == 0 {
		return 0, fmt.Errorf("building %d attacker: %w", b.Index, ErrEmptyKnightQueue)
	}
	bestType := agents.SerfKnight4
	if strongest {
		bestType = agents.SerfKnight0
	}
	var best agents.SerfIndex
	for _, idx := range b.Knights {
		serf, ok := b.g.Serf(idx)
		if !ok {
			return 0, fmt.Errorf("building %d knight %d: %w", b.Index, idx, ErrMissingSerf)
		}
		if (strongest && serf.Type >= bestType) || (!strongest && serf.Type <= bestType) {
			best = idx
			bestType = serf.Type
		}
	}
	if best == 0 {
		return 0, fmt.Errorf("building %d attacker: %w", b.Index, ErrEmptyKnightQueue)
	}
	b.Stock[0].Available--
	b.RemoveKnight(best)
	return best, nil
}

// IsEnoughPlaceForKnight reports whether the garrison has room.
func (b *Building) IsEnoughPlaceForKnight() (bool, error) {
	info, ok := militaryTable[b.Type]
	if !ok {
		return false, fmt.Errorf("building %d (%s) capacity: %w", b.Index, b.Type, ErrNotMilitary)
	}
	return b.Stock[0].Total() < info.capacity, nil
}

// KnightComeBackFromFight re-admits a returning knight if there is room.
// A rejected knight must find another home.
func (b *Building) KnightComeBackFromFight(serf agents.SerfIndex) (bool, error) {
	room, err := b.IsEnoughPlaceForKnight()
	if err != nil || !room {
		return false, err
	}
	b.Stock[0].Available++
	b.Knights = append([]agents.SerfIndex{serf}, b.Knights...)
	return true, nil
}

// KnightOccupy books a knight heading in to take the building.
func (b *Building) KnightOccupy() {
	if !b.HasKnight() {
		b.Stock[0].Available = 0
		b.Stock[0].Requested = 1
	} else {
		b.Stock[0].Requested++
	}
}
