package engine

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/talgya/serfworks/internal/agents"
	"github.com/talgya/serfworks/internal/economy"
	"github.com/talgya/serfworks/internal/savegame"
	"github.com/talgya/serfworks/internal/social"
	"github.com/talgya/serfworks/internal/world"
)

// Section names of the text save, in load order.
const (
	sectionGame      = "game"
	sectionPlayer    = "player"
	sectionMap       = "map"
	sectionSerf      = "serf"
	sectionInventory = "inventory"
	sectionFlag      = "flag"
	sectionBuilding  = "building"
)

// flagPriorityKinds is the order flag priorities are saved in.
var flagPriorityKinds = append(economy.AllResources(), economy.ResourceGroupFood)

// SaveText writes the whole game as a text save.
func (g *Game) SaveText(w io.Writer) error {
	doc := g.TextDocument()
	if err := doc.Encode(w); err != nil {
		return fmt.Errorf("save game %s: %w", g.ID, err)
	}
	return nil
}

// TextDocument builds the sections of a text save.
func (g *Game) TextDocument() *savegame.Document {
	doc := &savegame.Document{}

	gs := doc.Add(sectionGame, 0)
	gs.Put("id", g.ID.String())
	gs.Put("tick", g.Tick)
	gs.Put("gold_total", g.GoldTotal)
	gs.Put("retry_interval", g.RetryInterval)

	for _, p := range g.Players {
		encodePlayer(doc.Add(sectionPlayer, uint32(p.Index)), p)
	}
	g.encodeMap(doc.Add(sectionMap, 0))

	for idx, s := range g.Serfs.All() {
		encodeSerf(doc.Add(sectionSerf, uint32(idx)), s)
	}
	for idx, inv := range g.Inventories.All() {
		encodeInventory(doc.Add(sectionInventory, uint32(idx)), inv)
	}
	for idx, f := range g.Flags.All() {
		f.EncodeText(doc.Add(sectionFlag, uint32(idx)))
	}
	for idx, b := range g.Buildings.All() {
		b.EncodeText(doc.Add(sectionBuilding, uint32(idx)))
	}
	return doc
}

// LoadText reads a game written by SaveText.
func LoadText(r io.Reader) (*Game, error) {
	doc, err := savegame.Decode(r)
	if err != nil {
		return nil, err
	}
	return LoadDocument(doc)
}

// LoadDocument rebuilds a game from decoded save sections.
func LoadDocument(doc *savegame.Document) (*Game, error) {
	games := doc.Find(sectionGame)
	maps := doc.Find(sectionMap)
	if len(games) != 1 || len(maps) != 1 {
		return nil, fmt.Errorf("load game: want one game and one map section, got %d and %d: %w",
			len(games), len(maps), savegame.ErrMissingKey)
	}

	gd := textDecoder{s: games[0]}
	md := textDecoder{s: maps[0]}
	g := NewGame(md.int("radius", 0), nil)
	raw, err := games[0].Raw("id", 0)
	if err != nil {
		return nil, err
	}
	if g.ID, err = uuid.Parse(raw); err != nil {
		return nil, fmt.Errorf("load game id %q: %w", raw, err)
	}
	g.Tick = gd.uint("tick")
	g.GoldTotal = gd.int("gold_total", 0)
	g.RetryInterval = gd.uint("retry_interval")
	if gd.err != nil {
		return nil, gd.err
	}

	for _, s := range doc.Find(sectionPlayer) {
		p, err := decodePlayer(s)
		if err != nil {
			return nil, err
		}
		g.Players = append(g.Players, p)
	}
	if err := g.decodeMap(maps[0]); err != nil {
		return nil, err
	}
	for _, s := range doc.Find(sectionSerf) {
		if err := g.decodeSerf(s); err != nil {
			return nil, err
		}
	}
	for _, s := range doc.Find(sectionInventory) {
		if err := g.decodeInventory(s); err != nil {
			return nil, err
		}
	}
	for _, s := range doc.Find(sectionFlag) {
		f, err := g.DecodeFlagText(s)
		if err != nil {
			return nil, err
		}
		g.Map.SetObject(f.Pos, world.ObjectFlag, uint32(f.Index))
	}
	for _, s := range doc.Find(sectionBuilding) {
		b, err := g.DecodeBuildingText(s)
		if err != nil {
			return nil, err
		}
		g.Map.SetObject(b.Pos, b.Type.MapObject(), uint32(b.Index))
	}
	slog.Info("game loaded", "id", g.ID, "tick", g.Tick,
		"buildings", g.Buildings.Len(), "flags", g.Flags.Len(), "serfs", g.Serfs.Len())
	return g, nil
}

func encodePlayer(s *savegame.Section, p *social.Player) {
	s.Put("name", p.Name)
	s.Put("sliders",
		p.FoodStoneMine, p.FoodCoalMine, p.FoodIronMine, p.FoodGoldMine,
		p.PlanksConstruction, p.PlanksBoatbuilder, p.PlanksToolmaker,
		p.SteelToolmaker, p.SteelWeaponsmith, p.CoalSteelsmelter,
		p.CoalGoldsmelter, p.CoalWeaponsmith, p.WheatPigfarm, p.WheatMill)
	s.Put("knight_occupation", p.KnightOccupation[0], p.KnightOccupation[1],
		p.KnightOccupation[2], p.KnightOccupation[3])
	s.Put("reduced_knight_level", p.ReducedKnightLevel)
	s.Put("castle_knights", p.CastleKnights, p.CastleKnightsWanted)
	s.Put("send_delay", p.SendGenericDelay, p.SendKnightDelay)
	s.Put("scores", p.BuildingScore, p.MilitaryScore)
	s.Put("flag_prio")
	for _, res := range flagPriorityKinds {
		s.Put("flag_prio", p.FlagPriorities[res])
	}
}

func decodePlayer(s *savegame.Section) (*social.Player, error) {
	name, err := s.Raw("name", 0)
	if err != nil {
		return nil, err
	}
	p := social.NewPlayer(int(s.Index), name)
	d := textDecoder{s: s}
	sliders := []*int{
		&p.FoodStoneMine, &p.FoodCoalMine, &p.FoodIronMine, &p.FoodGoldMine,
		&p.PlanksConstruction, &p.PlanksBoatbuilder, &p.PlanksToolmaker,
		&p.SteelToolmaker, &p.SteelWeaponsmith, &p.CoalSteelsmelter,
		&p.CoalGoldsmelter, &p.CoalWeaponsmith, &p.WheatPigfarm, &p.WheatMill,
	}
	for i, v := range sliders {
		*v = d.int("sliders", i)
	}
	for i := range p.KnightOccupation {
		p.KnightOccupation[i] = d.int("knight_occupation", i)
	}
	p.ReducedKnightLevel = d.bool("reduced_knight_level")
	p.CastleKnights = d.int("castle_knights", 0)
	p.CastleKnightsWanted = d.int("castle_knights", 1)
	p.SendGenericDelay = d.int("send_delay", 0)
	p.SendKnightDelay = d.int("send_delay", 1)
	p.BuildingScore = d.int("scores", 0)
	p.MilitaryScore = d.int("scores", 1)
	for i, res := range flagPriorityKinds {
		p.FlagPriorities[res] = d.int("flag_prio", i)
	}
	return p, d.err
}

// encodeMap stores per-cell lists in SortedCoords order.
func (g *Game) encodeMap(s *savegame.Section) {
	s.Put("radius", g.Map.Radius)
	s.Put("height")
	s.Put("owner")
	s.Put("paths")
	s.Put("serf")
	for _, c := range g.Map.SortedCoords() {
		owner := -1
		if g.Map.HasOwner(c) {
			owner = g.Map.Owner(c)
		}
		s.Put("height", g.Map.Height(c))
		s.Put("owner", owner)
		s.Put("paths", int(g.Map.Paths(c)))
		s.Put("serf", g.Map.SerfIndex(c))
	}
}

func (g *Game) decodeMap(s *savegame.Section) error {
	d := textDecoder{s: s}
	coords := g.Map.SortedCoords()
	if n := s.Count("height"); n != len(coords) {
		return fmt.Errorf("map radius %d: %d heights for %d cells: %w", g.Map.Radius, n, len(coords), savegame.ErrBadValue)
	}
	for i, c := range coords {
		cell := g.Map.Get(c)
		cell.Height = d.int("height", i)
		g.Map.SetOwner(c, d.int("owner", i))
		cell.Paths = uint8(d.int("paths", i))
		cell.Serf = uint32(d.int("serf", i))
	}
	return d.err
}

func encodeSerf(s *savegame.Section, serf *agents.Serf) {
	s.Put("type", int(serf.Type))
	s.Put("owner", serf.Owner)
	s.Put("pos", serf.Pos.Q, serf.Pos.R)
	s.Put("state", int(serf.State))
	s.Put("next", uint32(serf.Next))
	s.Put("inventory", serf.Inventory)
	s.Put("dest", serf.Dest, int(serf.DestDir))
}

func (g *Game) decodeSerf(s *savegame.Section) error {
	d := textDecoder{s: s}
	serf := agents.Serf{
		Index:     agents.SerfIndex(s.Index),
		Type:      agents.SerfType(d.int("type", 0)),
		Owner:     d.int("owner", 0),
		Pos:       world.HexCoord{Q: d.int("pos", 0), R: d.int("pos", 1)},
		State:     agents.SerfState(d.int("state", 0)),
		Next:      agents.SerfIndex(d.uint("next")),
		Inventory: d.uint("inventory"),
		Dest:      uint32(d.int("dest", 0)),
		DestDir:   world.Direction(d.int("dest", 1)),
	}
	if d.err != nil {
		return d.err
	}
	slot, err := g.Serfs.AllocateAt(serf.Index)
	if err != nil {
		return fmt.Errorf("serf %d: %w", serf.Index, err)
	}
	*slot = serf
	return nil
}

func encodeInventory(s *savegame.Section, inv *economy.Inventory) {
	s.Put("owner", inv.Owner)
	s.Put("flag", inv.Flag)
	s.Put("building", inv.Building)
	s.Put("mode", int(inv.ResMode), int(inv.SerfMode))
	s.Put("serfs_out", inv.SerfsOut)
	s.Put("resources")
	for _, res := range economy.AllResources() {
		s.Put("resources", inv.CountOf(res))
	}
	s.Put("out_queue",
		int(inv.OutQueue[0].Type), inv.OutQueue[0].Dest,
		int(inv.OutQueue[1].Type), inv.OutQueue[1].Dest)
	s.Put("serfs")
	for _, idx := range inv.IdleSerfs() {
		s.Put("serfs", uint32(idx))
	}
}

func (g *Game) decodeInventory(s *savegame.Section) error {
	d := textDecoder{s: s}
	inv := economy.NewInventory(s.Index)
	inv.Owner = d.int("owner", 0)
	inv.Flag = d.uint("flag")
	inv.Building = d.uint("building")
	inv.ResMode = economy.InventoryMode(d.int("mode", 0))
	inv.SerfMode = economy.InventoryMode(d.int("mode", 1))
	inv.SerfsOut = d.int("serfs_out", 0)
	for i, res := range economy.AllResources() {
		if n := d.int("resources", i); n > 0 {
			inv.Resources[res] = n
		}
	}
	for i := range inv.OutQueue {
		inv.OutQueue[i] = economy.OutQueueEntry{
			Type: economy.ResourceKind(d.int("out_queue", 2*i)),
			Dest: uint32(d.int("out_queue", 2*i+1)),
		}
	}
	for i := range s.Count("serfs") {
		idx := agents.SerfIndex(d.int("serfs", i))
		serf, ok := g.Serf(idx)
		if !ok {
			return fmt.Errorf("inventory %d serf %d: %w", s.Index, idx, ErrMissingSerf)
		}
		inv.AddSerf(serf.Type, idx)
	}
	if d.err != nil {
		return d.err
	}
	slot, err := g.Inventories.AllocateAt(InventoryIndex(s.Index))
	if err != nil {
		return fmt.Errorf("inventory %d: %w", s.Index, err)
	}
	*slot = *inv
	return nil
}
