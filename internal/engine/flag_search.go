package engine

import "math"

// searchMaxSteps bounds the number of flags one search may visit.
const searchMaxSteps = 0x10000

// FlagSearch is a breadth-first walk over the flag graph. Visited flags
// are stamped with the search id instead of being collected in a set.
type FlagSearch struct {
	g     *Game
	queue []*Flag
	id    uint32
}

// NewFlagSearch starts a search with a fresh id.
func (g *Game) NewFlagSearch() *FlagSearch {
	return &FlagSearch{g: g, id: g.nextSearchID()}
}

// nextSearchID hands out search ids. Before the counter wraps every flag
// stamp is reset so an old stamp can never match a new id.
func (g *Game) nextSearchID() uint32 {
	if g.searchCounter == math.MaxUint32 {
		for _, f := range g.Flags.All() {
			f.searchNum = 0
		}
		g.searchCounter = 0
	}
	g.searchCounter++
	return g.searchCounter
}

// ID returns the stamp this search marks flags with.
func (s *FlagSearch) ID() uint32 { return s.id }

// AddSource seeds the search with f.
func (s *FlagSearch) AddSource(f *Flag) {
	s.queue = append(s.queue, f)
	f.searchNum = s.id
}

// Execute walks the graph until cb accepts a flag. With land, water roads
// are not followed; with transporter, only roads with a transporter are.
// Each newly reached flag inherits the search direction of the flag it was
// reached from.
func (s *FlagSearch) Execute(cb func(*Flag) bool, land, transporter bool) bool {
	for i := 0; i < searchMaxSteps && len(s.queue) > 0; i++ {
		f := s.queue[0]
		s.queue = s.queue[1:]
		if cb(f) {
			return true
		}
		for d := range f.Paths {
			p := &f.Paths[d]
			if !p.Open || (land && p.Water) || (transporter && !p.HasTransporter) {
				continue
			}
			other, ok := s.g.Flag(p.OtherFlag)
			if !ok || other.searchNum == s.id {
				continue
			}
			other.searchNum = s.id
			other.searchDir = f.searchDir
			s.queue = append(s.queue, other)
		}
	}
	return false
}

// SearchSingle runs a search seeded with src alone.
func (g *Game) SearchSingle(src *Flag, cb func(*Flag) bool, land, transporter bool) bool {
	s := g.NewFlagSearch()
	s.AddSource(src)
	return s.Execute(cb, land, transporter)
}

// FindNearestInventoryForResource returns the closest flag, reachable over
// served roads, whose inventory takes resources. 0 if none.
func (f *Flag) FindNearestInventoryForResource() FlagIndex {
	var dest FlagIndex
	f.g.SearchSingle(f, func(fl *Flag) bool {
		if fl.AcceptsResources {
			dest = fl.Index
			return true
		}
		return false
	}, false, true)
	return dest
}

// FindNearestInventoryForSerf returns the closest flag, reachable over
// land, whose inventory takes serfs. 0 if none.
func (f *Flag) FindNearestInventoryForSerf() FlagIndex {
	var dest FlagIndex
	f.g.SearchSingle(f, func(fl *Flag) bool {
		if fl.AcceptsSerfs {
			dest = fl.Index
			return true
		}
		return false
	}, true, false)
	return dest
}
