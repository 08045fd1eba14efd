package engine

import "errors"

var (
	// ErrEmptyKnightQueue is returned when a garrison operation needs a
	// resident knight and the roster is empty.
	ErrEmptyKnightQueue = errors.New("engine: knight queue is empty")
	// ErrNotMilitary is returned when a military-only operation reaches a
	// building of another type.
	ErrNotMilitary = errors.New("engine: building is not military")
	// ErrMissingSerf is returned when a roster refers to a serf that no
	// longer exists.
	ErrMissingSerf = errors.New("engine: serf does not exist")
	// ErrMissingBuilding is returned for a building index with no building.
	ErrMissingBuilding = errors.New("engine: building does not exist")
	// ErrMissingFlag is returned for a flag index with no flag.
	ErrMissingFlag = errors.New("engine: flag does not exist")
	// ErrMissingInventory is returned for an inventory index with no inventory.
	ErrMissingInventory = errors.New("engine: inventory does not exist")
	// ErrInvalidBuildingType is returned for a type outside the building table.
	ErrInvalidBuildingType = errors.New("engine: invalid building type")
	// ErrResourceRequest is returned when a routed resource matches no slot
	// of its destination building.
	ErrResourceRequest = errors.New("engine: failed to request resource")
	// ErrPositionOccupied is returned when placing on a used map cell.
	ErrPositionOccupied = errors.New("engine: position occupied")
	// ErrInvalidPosition is returned for positions off the map.
	ErrInvalidPosition = errors.New("engine: position outside map")
	// ErrNotScheduled is returned when a transporter asks for a resource
	// that is not scheduled along its road.
	ErrNotScheduled = errors.New("engine: resource not scheduled for pickup")
	// ErrFlagInUse is returned when demolishing a flag others depend on.
	ErrFlagInUse = errors.New("engine: flag in use")
	// ErrNoPath is returned when a road cannot be built between two flags.
	ErrNoPath = errors.New("engine: no path between flags")
)
