package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"
)

// Show prints recently costed charging sessions.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	sessions, err := store.ListRecentCosted(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(os.Stdout, "no costed sessions found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Session\tFinished (UTC)\tCost\tEnergy (kWh)")

	for _, session := range sessions {
		energy := "-"
		if session.EnergyUsed != nil {
			energy = session.EnergyUsed.StringFixed(2)
		}
		fmt.Fprintf(
			writer,
			"%d\t%s\t%s\t%s\n",
			session.ID,
			session.EndDate.UTC().Format(time.RFC3339),
			session.Cost.StringFixed(2),
			energy,
		)
	}

	writer.Flush()
	return nil
}
