// Package report renders console summaries of extracted history.
package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/raphaelgruber/aprx-explorer/internal/export"
	"github.com/raphaelgruber/aprx-explorer/internal/history"
)

// NameCount is the number of records sharing a tool name.
type NameCount struct {
	Name  string
	Count int
}

// NameCounts counts records per name, most frequent first, ties by name.
// Records without a name are not counted.
func NameCounts(records []history.Record) []NameCount {
	counts := make(map[string]int)
	for _, r := range records {
		if r.Name != "" {
			counts[r.Name]++
		}
	}

	out := make([]NameCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, NameCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// TimeStats summarizes a timestamp column.
type TimeStats struct {
	Count                         int
	Mean, Min, P25, P50, P75, Max time.Time
}

// DurationStats summarizes the run_duration column.
type DurationStats struct {
	Count                         int
	Mean, Min, P25, P50, P75, Max time.Duration
}

// Description is the describe() view of the three time columns.
type Description struct {
	StartTime   TimeStats
	EndTime     TimeStats
	RunDuration DurationStats
}

// Describe computes count, mean, min, quartiles and max for the time columns.
// Quartiles interpolate linearly between neighbouring values.
func Describe(records []history.Record) Description {
	starts := make([]float64, 0, len(records))
	ends := make([]float64, 0, len(records))
	durs := make([]float64, 0, len(records))
	for _, r := range records {
		starts = append(starts, toSeconds(r.StartTime))
		ends = append(ends, toSeconds(r.EndTime))
		durs = append(durs, float64(r.RunDuration))
	}

	return Description{
		StartTime:   timeStats(starts),
		EndTime:     timeStats(ends),
		RunDuration: durationStats(durs),
	}
}

// summary is count/mean/min/p25/p50/p75/max over float values.
type summary struct {
	count                         int
	mean, min, p25, p50, p75, max float64
}

func summarize(values []float64) summary {
	if len(values) == 0 {
		return summary{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	return summary{
		count: len(sorted),
		mean:  sum / float64(len(sorted)),
		min:   sorted[0],
		p25:   quantile(sorted, 0.25),
		p50:   quantile(sorted, 0.50),
		p75:   quantile(sorted, 0.75),
		max:   sorted[len(sorted)-1],
	}
}

// quantile returns the q-th quantile of sorted values with linear interpolation.
func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}

func timeStats(secs []float64) TimeStats {
	s := summarize(secs)
	if s.count == 0 {
		return TimeStats{}
	}
	return TimeStats{
		Count: s.count,
		Mean:  fromSeconds(s.mean),
		Min:   fromSeconds(s.min),
		P25:   fromSeconds(s.p25),
		P50:   fromSeconds(s.p50),
		P75:   fromSeconds(s.p75),
		Max:   fromSeconds(s.max),
	}
}

func durationStats(nanos []float64) DurationStats {
	s := summarize(nanos)
	return DurationStats{
		Count: s.count,
		Mean:  time.Duration(math.Round(s.mean)),
		Min:   time.Duration(s.min),
		P25:   time.Duration(math.Round(s.p25)),
		P50:   time.Duration(math.Round(s.p50)),
		P75:   time.Duration(math.Round(s.p75)),
		Max:   time.Duration(s.max),
	}
}

// toSeconds converts t to fractional Unix seconds. Sub-microsecond precision
// is lost for present-day dates, which is fine for summaries.
func toSeconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}

func fromSeconds(s float64) time.Time {
	whole := math.Floor(s)
	nsec := math.Round((s - whole) * 1e9)
	return time.Unix(int64(whole), int64(nsec)).UTC().Round(time.Microsecond)
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5FAFD7")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6C6C"))
)

func newTable() *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// NameCountTable renders name counts as a table.
func NameCountTable(counts []NameCount) string {
	t := newTable().Headers("name", "count")
	for _, c := range counts {
		t.Row(c.Name, fmt.Sprint(c.Count))
	}
	return t.String()
}

// DescriptionTable renders a Description with one column per time field.
func DescriptionTable(d Description) string {
	ts := func(t time.Time) string { return export.FormatCell(t) }
	rows := [][]string{
		{"count", fmt.Sprint(d.StartTime.Count), fmt.Sprint(d.EndTime.Count), fmt.Sprint(d.RunDuration.Count)},
		{"mean", ts(d.StartTime.Mean), ts(d.EndTime.Mean), d.RunDuration.Mean.String()},
		{"min", ts(d.StartTime.Min), ts(d.EndTime.Min), d.RunDuration.Min.String()},
		{"25%", ts(d.StartTime.P25), ts(d.EndTime.P25), d.RunDuration.P25.String()},
		{"50%", ts(d.StartTime.P50), ts(d.EndTime.P50), d.RunDuration.P50.String()},
		{"75%", ts(d.StartTime.P75), ts(d.EndTime.P75), d.RunDuration.P75.String()},
		{"max", ts(d.StartTime.Max), ts(d.EndTime.Max), d.RunDuration.Max.String()},
	}
	return newTable().
		Headers("", history.KeyStartTime, history.KeyEndTime, history.KeyRunDuration).
		Rows(rows...).
		String()
}

// Write prints both summaries for records to w.
func Write(w io.Writer, records []history.Record) error {
	if _, err := fmt.Fprintf(w, "%s\n%s\n\n", headerStyle.Render("Runs by tool"), NameCountTable(NameCounts(records))); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%s\n%s\n", headerStyle.Render("Run times"), DescriptionTable(Describe(records)))
	return err
}
