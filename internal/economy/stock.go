package economy

import (
	"errors"
	"fmt"
)

var (
	// ErrUnrequestedDelivery is returned when a delivery or cancellation
	// arrives for a slot with no outstanding request.
	ErrUnrequestedDelivery = errors.New("economy: resource was not requested")
	// ErrUnexpectedResource is returned when a delivered resource matches no slot.
	ErrUnexpectedResource = errors.New("economy: unexpected resource")
)

// UnlimitedStock marks a slot that is fed from an inventory rather than
// filled up to a maximum.
const UnlimitedStock = 0xff

// FixedPriorityBase is the demand base for slots not tied to a player
// slider. base >> (8+total) with this base equals 0xff >> total.
const FixedPriorityBase = 0xffff

// StockSlot is a single typed resource buffer inside a building.
type StockSlot struct {
	Type      ResourceKind `json:"type"`
	Priority  int          `json:"prio"`
	Available int          `json:"available"`
	Requested int          `json:"requested"`
	Maximum   int          `json:"maximum"`
}

// Init resets the slot to hold up to maximum units of kind.
func (s *StockSlot) Init(kind ResourceKind, maximum int) {
	s.Type = kind
	s.Priority = 0
	s.Available = 0
	s.Requested = 0
	s.Maximum = maximum
}

// Total is what the slot holds plus what is on its way.
func (s *StockSlot) Total() int {
	return s.Available + s.Requested
}

// Full reports whether no further units should be requested.
func (s *StockSlot) Full() bool {
	return s.Total() >= s.Maximum
}

// UpdatePriority applies the decay law with the given demand base.
func (s *StockSlot) UpdatePriority(base int) {
	s.Priority = DecayPriority(base, s.Total(), s.Maximum)
}

// DecayPriority halves demand for each unit held or requested and drops to
// zero once the slot is full.
func DecayPriority(base, total, maximum int) int {
	if total >= maximum {
		return 0
	}
	shift := 8 + total
	if shift >= 32 {
		return 0
	}
	return base >> shift
}

// GoldPriority is the always-even variant used for military gold stock.
func GoldPriority(total, maximum int) int {
	if total >= maximum {
		return 0
	}
	if total >= 8 {
		return 0
	}
	return ((0xfe >> total) + 1) & 0xfe
}

// ConstructionPriority is DecayPriority for construction materials: quartered
// while the building has no builder on site, and always even.
func ConstructionPriority(base, total, maximum int, holder bool) int {
	prio := DecayPriority(base, total, maximum)
	if !holder {
		prio >>= 2
	}
	return prio &^ 1
}

// AddRequest records one more unit on its way. With fixPriority the
// priority is made even and halved, otherwise it is cleared.
func (s *StockSlot) AddRequest(fixPriority bool) {
	if fixPriority {
		prio := s.Priority
		if prio&1 == 0 {
			prio = 0
		}
		s.Priority = prio >> 1
	} else {
		s.Priority = 0
	}
	s.Requested++
}

// Deliver turns one requested unit into an available one.
func (s *StockSlot) Deliver() error {
	if s.Requested <= 0 {
		return fmt.Errorf("deliver %s: %w", s.Type, ErrUnrequestedDelivery)
	}
	s.Requested--
	s.Available++
	return nil
}

// CancelRequest drops one outstanding request.
func (s *StockSlot) CancelRequest() error {
	if s.Requested <= 0 {
		return fmt.Errorf("cancel %s: %w", s.Type, ErrUnrequestedDelivery)
	}
	s.Requested--
	return nil
}

// Use consumes one available unit if there is one.
func (s *StockSlot) Use() bool {
	if s.Available <= 0 {
		return false
	}
	s.Available--
	return true
}

// Matches reports whether a delivered resource belongs in this slot.
func (s *StockSlot) Matches(res ResourceKind) bool {
	return s.Type != ResourceNone && s.Type == res.StockKind()
}
