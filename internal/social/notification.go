package social

import (
	"fmt"

	"github.com/talgya/serfworks/internal/world"
)

// MessageType classifies a player notification.
type MessageType uint8

const (
	MessageNone MessageType = iota
	MessageUnderAttack
	MessageLoseFight
	MessageWinFight
	MessageMineEmpty
	MessageCallToLocation
	MessageKnightOccupied
	MessageNewStock
	MessageLostLand
	MessageLostBuildings
	MessageEmergencyActive
	MessageEmergencyNeutral
	MessageFoundGold
	MessageFoundIron
	MessageFoundCoal
	MessageFoundStone
	MessageCallToMenu
)

var messageNames = map[MessageType]string{
	MessageNone:             "none",
	MessageUnderAttack:      "under attack",
	MessageLoseFight:        "lost fight",
	MessageWinFight:         "won fight",
	MessageMineEmpty:        "mine empty",
	MessageCallToLocation:   "call to location",
	MessageKnightOccupied:   "knight occupied",
	MessageNewStock:         "new stock",
	MessageLostLand:         "lost land",
	MessageLostBuildings:    "lost buildings",
	MessageEmergencyActive:  "emergency active",
	MessageEmergencyNeutral: "emergency neutral",
	MessageFoundGold:        "found gold",
	MessageFoundIron:        "found iron",
	MessageFoundCoal:        "found coal",
	MessageFoundStone:       "found stone",
	MessageCallToMenu:       "call to menu",
}

func (t MessageType) String() string {
	if s, ok := messageNames[t]; ok {
		return s
	}
	return fmt.Sprintf("message(%d)", uint8(t))
}

// Notification is a message queued for a player.
type Notification struct {
	Type MessageType    `json:"type"`
	Pos  world.HexCoord `json:"pos"`
	Data int            `json:"data"`
}

func (n Notification) String() string {
	return fmt.Sprintf("%s at %s", n.Type, n.Pos)
}
