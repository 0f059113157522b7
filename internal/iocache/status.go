package iocache

import (
	"io"
	"slices"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
	"github.com/SohamS7S/Smart-factory-ai/schema"
)

// PrintCacheStatus renders score cache status as a two-column table.
func PrintCacheStatus(w io.Writer, status schema.CacheStatus) error {
	data := [][]string{
		{"Backend", status.Backend},
		{"Connected", strconv.FormatBool(status.Connected)},
	}
	if status.Connected {
		data = append(data, []string{"Total Entries", strconv.Itoa(status.TotalEntries)})
		if status.TotalEntries > 0 {
			data = append(data,
				[]string{"Last Entry", status.LastEntryTime.Format(contract.DateTimeFormat)},
				[]string{"Oldest Entry", status.OldestEntryTime.Format(contract.DateTimeFormat)},
			)
		}
		data = append(data, []string{"Table Size", strconv.FormatInt(status.TableSizeBytes, 10) + " bytes"})
	}
	return renderStatus(w, data)
}

// PrintHistoryStatus renders run history status as a two-column table.
func PrintHistoryStatus(w io.Writer, status schema.HistoryStatus) error {
	data := [][]string{
		{"Backend", status.Backend},
		{"Connected", strconv.FormatBool(status.Connected)},
	}
	if status.Connected {
		data = append(data, []string{"Total Runs", strconv.Itoa(status.TotalRuns)})
		if status.TotalRuns > 0 {
			data = append(data,
				[]string{"Last Run ID", strconv.FormatInt(status.LastRunID, 10)},
				[]string{"Last Run", status.LastRunTime.Format(contract.DateTimeFormat)},
				[]string{"Oldest Run", status.OldestRunTime.Format(contract.DateTimeFormat)},
			)
		}
		data = append(data,
			[]string{"Total Windows", strconv.Itoa(status.TotalWindows)},
			[]string{"Total Alerts", strconv.Itoa(status.TotalAlerts)},
		)
		tables := make([]string, 0, len(status.TableSizes))
		for table := range status.TableSizes {
			tables = append(tables, table)
		}
		slices.Sort(tables)
		for _, table := range tables {
			data = append(data, []string{table, strconv.FormatInt(status.TableSizes[table], 10) + " rows"})
		}
	}
	return renderStatus(w, data)
}

func renderStatus(w io.Writer, data [][]string) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Property", "Value"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.PerColumn = []tw.Align{tw.AlignLeft, tw.AlignLeft}
	})
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
