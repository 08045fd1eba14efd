package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/talgya/serfworks/internal/config"
	"github.com/talgya/serfworks/internal/economy"
	"github.com/talgya/serfworks/internal/engine"
	"github.com/talgya/serfworks/internal/persistence"
)

func newInspectCmd(cfgp **config.Config) *cobra.Command {
	var snapshot string
	var saves int

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Render the latest save (or a snapshot file) as tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			if snapshot != "" {
				return inspectSnapshot(snapshot)
			}
			return inspectDB((*cfgp).Save.DBPath, saves)
		},
	}
	cmd.Flags().StringVar(&snapshot, "snapshot", "", "read this snapshot file instead of the database")
	cmd.Flags().IntVar(&saves, "saves", 5, "number of recent saves to list")
	return cmd
}

func inspectSnapshot(path string) error {
	hdr, g, err := persistence.ReadSnapshot(path)
	if err != nil {
		return err
	}
	printTitle(hdr.GameID, hdr.Tick, time.Unix(hdr.Created, 0))
	buildings, flags := persistence.Summarize(g)
	printBuildings(buildings)
	printFlags(flags)
	printInventories(g)
	return nil
}

func inspectDB(path string, limit int) error {
	db, err := persistence.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	recs, err := db.ListSaves(limit)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		color.Yellow("No saves in %s", path)
		return nil
	}
	latest := recs[0]
	printTitle(latest.GameID, latest.Tick, time.Unix(latest.CreatedAt, 0))

	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Save", "Game", "Tick", "Game time", "Size", "Saved"}),
	)
	for _, r := range recs {
		_ = table.Append([]string{
			fmt.Sprintf("%d", r.ID),
			shortID(r.GameID),
			humanize.Comma(int64(r.Tick)),
			engine.GameTime(r.Tick),
			humanize.Bytes(uint64(r.RawSize)),
			humanize.Time(time.Unix(r.CreatedAt, 0)),
		})
	}
	_ = table.Render()

	buildings, err := db.Buildings(latest.GameID)
	if err != nil {
		return err
	}
	flags, err := db.Flags(latest.GameID)
	if err != nil {
		return err
	}
	printBuildings(buildings)
	printFlags(flags)

	g, err := db.LoadGame(latest.ID)
	if err != nil {
		return err
	}
	printInventories(g)
	return nil
}

func printTitle(gameID string, tick uint32, saved time.Time) {
	titleColor := color.New(color.FgCyan, color.Bold)
	titleColor.Printf("\nGame %s\n", gameID)
	fmt.Printf("   Tick %s (%s game time), saved %s\n\n",
		humanize.Comma(int64(tick)), engine.GameTime(tick), humanize.Time(saved))
}

func printBuildings(rows []persistence.BuildingRow) {
	color.New(color.FgGreen, color.Bold).Println("\nBuildings")
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"#", "Type", "Owner", "Pos", "State", "Residents"}),
	)
	for _, r := range rows {
		state := "active"
		switch {
		case r.Burning:
			state = color.RedString("burning")
		case r.Constructing:
			state = color.YellowString("constructing")
		case !r.Active:
			state = "waiting"
		}
		_ = table.Append([]string{
			fmt.Sprintf("%d", r.ID), r.Type, fmt.Sprintf("%d", r.Owner),
			fmt.Sprintf("(%d,%d)", r.PosQ, r.PosR), state, fmt.Sprintf("%d", r.Knights),
		})
	}
	_ = table.Render()
}

func printFlags(rows []persistence.FlagRow) {
	color.New(color.FgGreen, color.Bold).Println("\nFlags")
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"#", "Owner", "Pos", "Roads", "Resources"}),
	)
	for _, r := range rows {
		roads := 0
		for p := r.Paths; p != 0; p &= p - 1 {
			roads++
		}
		_ = table.Append([]string{
			fmt.Sprintf("%d", r.ID), fmt.Sprintf("%d", r.Owner),
			fmt.Sprintf("(%d,%d)", r.PosQ, r.PosR), fmt.Sprintf("%d", roads),
			fmt.Sprintf("%d/%d", r.Resources, engine.FlagMaxResources),
		})
	}
	_ = table.Render()
}

func printInventories(g *engine.Game) {
	color.New(color.FgGreen, color.Bold).Println("\nInventories")
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"#", "Owner", "Resource", "Count"}),
	)
	for idx, inv := range g.Inventories.All() {
		for _, res := range economy.AllResources() {
			n := inv.CountOf(res)
			if n == 0 {
				continue
			}
			_ = table.Append([]string{
				fmt.Sprintf("%d", idx), fmt.Sprintf("%d", inv.Owner),
				res.String(), humanize.Comma(int64(n)),
			})
		}
	}
	_ = table.Render()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
