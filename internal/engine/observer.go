package engine

// Observer receives economy events as they happen. The metrics package
// provides the Prometheus implementation.
type Observer interface {
	BuildingFinished(t BuildingType)
	BuildingBurned(t BuildingType)
	BuildingRemoved(t BuildingType)
	SerfRequested(ok bool)
	ResourceScheduled(known bool)
	TransporterCalled(ok bool)
	ResourceDelivered()
	TickCompleted(tick uint32, buildings, flags int)
}

type nopObserver struct{}

func (nopObserver) BuildingFinished(BuildingType) {}
func (nopObserver) BuildingBurned(BuildingType) {}
func (nopObserver) BuildingRemoved(BuildingType) {}
func (nopObserver) SerfRequested(bool) {}
func (nopObserver) ResourceScheduled(bool) {}
func (nopObserver) TransporterCalled(bool) {}
func (nopObserver) ResourceDelivered() {}
func (nopObserver) TickCompleted(uint32, int, int) {}
