// Package report sorts and renders the final per-opcode stats mapping.
package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/grafana/tracegas/agg"
)

// sort keys
const (
	SortTotal = "total"
	SortCount = "count"
	SortAvg   = "avg"
	SortOp    = "op"
)

// Keys lists the accepted -sort values.
var Keys = []string{SortTotal, SortCount, SortAvg, SortOp}

func ValidKey(key string) bool {
	for _, k := range Keys {
		if key == k {
			return true
		}
	}
	return false
}

type Row struct {
	Op    string
	Stats agg.Stats
}

// Rows flattens the aggregator's mapping. Order is unspecified until Sort.
func Rows(totals map[string]agg.Stats) []Row {
	rows := make([]Row, 0, len(totals))
	for op, st := range totals {
		rows = append(rows, Row{Op: op, Stats: st})
	}
	return rows
}

// Sort orders rows by the given key: total, count and avg descending,
// op ascending. The sort is stable so equal values keep their order.
func Sort(rows []Row, key string) {
	switch key {
	case SortTotal:
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Stats.Total > rows[j].Stats.Total })
	case SortCount:
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Stats.Count > rows[j].Stats.Count })
	case SortAvg:
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Stats.Avg() > rows[j].Stats.Avg() })
	case SortOp:
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Op < rows[j].Op })
	}
}

// Limit truncates to the first n rows. 0 means no limit.
func Limit(rows []Row, n int) []Row {
	if n > 0 && n < len(rows) {
		return rows[:n]
	}
	return rows
}

// TSV writes one tab-separated line per row.
func TSV(w io.Writer, rows []Row) {
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%d\t%d\t%.1f\t%d\t%d\n", r.Op, r.Stats.Count, r.Stats.Total, r.Stats.Avg(), r.Stats.Min, r.Stats.Max)
	}
}

// Table writes rows as width-aligned columns, sized to the widest cell.
func Table(w io.Writer, rows []Row) {
	opW := width(2, rows, func(r Row) string { return r.Op })
	countW := width(5, rows, func(r Row) string { return strconv.FormatInt(r.Stats.Count, 10) })
	totalW := width(5, rows, func(r Row) string { return strconv.FormatInt(r.Stats.Total, 10) })
	avgW := 10
	minW := width(3, rows, func(r Row) string { return strconv.FormatInt(r.Stats.Min, 10) })
	maxW := width(3, rows, func(r Row) string { return strconv.FormatInt(r.Stats.Max, 10) })

	fmt.Fprintf(w, "%-*s  %*s  %*s  %*s  %*s  %*s\n", opW, "op", countW, "count", totalW, "total", avgW, "avg", minW, "min", maxW, "max")
	for _, r := range rows {
		fmt.Fprintf(w, "%-*s  %*d  %*d  %*.1f  %*d  %*d\n", opW, r.Op, countW, r.Stats.Count, totalW, r.Stats.Total, avgW, r.Stats.Avg(), minW, r.Stats.Min, maxW, r.Stats.Max)
	}
}

func width(min int, rows []Row, cell func(Row) string) int {
	w := min
	for _, r := range rows {
		if n := len(cell(r)); n > w {
			w = n
		}
	}
	return w
}
