package app

import (
	"context"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"charge-costs/internal/storage"
)

// Export renders costed session history as CSV and/or PNG.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	to := time.Now().UTC()
	if opts.To != nil {
		to = opts.To.UTC()
	}

	from := to.AddDate(0, -3, 0)
	if opts.From != nil {
		from = opts.From.UTC()
	}

	if !from.Before(to) {
		return errors.New("from must be before to")
	}

	sessions, err := store.ListCostedBetween(ctx, from, to)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		a.Logger.Info().Msg("no costed sessions found for export window")
		return nil
	}

	downsampled := downsampleSessions(sessions, opts.MaxPoints)
	a.Logger.Info().Int("total", len(sessions)).Int("exported", len(downsampled)).Msg("exporting sessions")

	if opts.CSVPath != "" {
		if err := writeSessionsCSV(opts.CSVPath, downsampled); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeSessionsPNG(opts.PNGPath, downsampled); err != nil {
			return err
		}
	}

	return nil
}

func downsampleSessions(sessions []storage.CostedSession, max int) []storage.CostedSession {
	if max <= 0 || len(sessions) <= max {
		return sessions
	}

	result := make([]storage.CostedSession, 0, max)
	step := float64(len(sessions)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(sessions) {
			idx = len(sessions) - 1
		}
		result = append(result, sessions[idx])
	}
	return result
}

func writeSessionsCSV(path string, sessions []storage.CostedSession) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"session_id", "finished_at", "cost", "energy_kwh"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, session := range sessions {
		energy := ""
		if session.EnergyUsed != nil {
			energy = session.EnergyUsed.String()
		}
		record := []string{
			strconv.Itoa(session.ID),
			session.EndDate.UTC().Format(time.RFC3339),
			session.Cost.String(),
			energy,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeSessionsPNG(path string, sessions []storage.CostedSession) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, len(sessions))
	costs := make([]float64, len(sessions))
	energies := make([]float64, len(sessions))

	for i, session := range sessions {
		x[i] = session.EndDate
		costs[i] = session.Cost.InexactFloat64()
		if session.EnergyUsed != nil {
			energies[i] = session.EnergyUsed.InexactFloat64()
		}
	}

	valueFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.2f")
	}
	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Cost",
			ValueFormatter: valueFormatter,
		},
		YAxisSecondary: chart.YAxis{
			Name:           "Energy (kWh)",
			ValueFormatter: valueFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Cost",
				XValues: x,
				YValues: costs,
			},
			chart.TimeSeries{
				Name:    "Energy",
				XValues: x,
				YValues: energies,
				YAxis:   chart.YAxisSecondary,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
