package flowlog

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Analyzer is C10's read side, grounded on rag5/utils/flow_analyzer.py's
// FlowLogAnalyzer. The original parses a human-formatted log file with
// regexes to recover structure; since Writer already emits one JSON object
// per line, Analyzer decodes directly and exposes the same query surface
// (filter by session, per-event-type timing stats, error extraction,
// slow-operation extraction, JSON/CSV export).
type Analyzer struct {
	entries []Event
}

// NewAnalyzer loads every JSON-line event from path. A missing file yields
// an empty analyzer rather than an error, matching the original's
// behavior when log_file does not exist yet.
func NewAnalyzer(path string) (*Analyzer, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Analyzer{}, nil
		}
		return nil, fmt.Errorf("flowlog: open %s: %w", path, err)
	}
	defer f.Close()

	a := &Analyzer{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Event
		if err := json.Unmarshal(line, &e); err != nil {
			continue // skip malformed lines rather than failing the whole analysis
		}
		a.entries = append(a.entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("flowlog: read %s: %w", path, err)
	}
	return a, nil
}

// NewAnalyzerFromEvents builds an analyzer directly from in-memory events,
// used by tests and by callers that already hold a batch of events.
func NewAnalyzerFromEvents(events []Event) *Analyzer {
	return &Analyzer{entries: events}
}

func (a *Analyzer) FilterBySession(sessionID string) []Event {
	var out []Event
	for _, e := range a.entries {
		if e.SessionID == sessionID {
			out = append(out, e)
		}
	}
	return out
}

// TimingStat is one event type's aggregate duration statistics.
type TimingStat struct {
	Count int
	Avg   float64
	Min   float64
	Max   float64
	P95   float64
}

// TimingStats computes count/avg/min/max/p95 per event type over every
// event carrying a DurationSeconds, per §4.10's companion-analyzer
// requirement.
func (a *Analyzer) TimingStats() map[EventType]TimingStat {
	durations := map[EventType][]float64{}
	for _, e := range a.entries {
		if e.DurationSeconds == nil {
			continue
		}
		durations[e.EventType] = append(durations[e.EventType], *e.DurationSeconds)
	}

	stats := make(map[EventType]TimingStat, len(durations))
	for eventType, values := range durations {
		stats[eventType] = calculateStat(values)
	}
	return stats
}

func calculateStat(values []float64) TimingStat {
	if len(values) == 0 {
		return TimingStat{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	sum := 0.0
	min, max := sorted[0], sorted[0]
	for _, v := range values {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	p95Index := int(float64(len(sorted)) * 0.95)
	if p95Index >= len(sorted) {
		p95Index = len(sorted) - 1
	}

	return TimingStat{
		Count: len(values),
		Avg:   sum / float64(len(values)),
		Min:   min,
		Max:   max,
		P95:   sorted[p95Index],
	}
}

// FindErrors returns every ERROR-typed event, newest last (insertion
// order), per §4.10's "error extraction".
func (a *Analyzer) FindErrors() []Event {
	var out []Event
	for _, e := range a.entries {
		if e.EventType == EventError {
			out = append(out, e)
		}
	}
	return out
}

// FindSlowOperations returns every event whose duration meets or exceeds
// thresholdSeconds, per §4.10's "slow-operation extraction above a
// threshold".
func (a *Analyzer) FindSlowOperations(thresholdSeconds float64) []Event {
	var out []Event
	for _, e := range a.entries {
		if e.DurationSeconds != nil && *e.DurationSeconds >= thresholdSeconds {
			out = append(out, e)
		}
	}
	return out
}

// ExportJSON writes every parsed event as a single JSON array to path.
func (a *Analyzer) ExportJSON(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("flowlog: create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(a.entries)
}

// ExportCSV writes a flattened, spreadsheet-friendly view of every event,
// mirroring the original's export_to_csv column layout.
func (a *Analyzer) ExportCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("flowlog: create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"Timestamp", "Event Type", "Session ID", "Elapsed Since Start (s)", "Duration (s)", "Status"}); err != nil {
		return err
	}

	for _, e := range a.entries {
		duration := ""
		if e.DurationSeconds != nil {
			duration = fmt.Sprintf("%.3f", *e.DurationSeconds)
		}
		record := []string{
			e.Timestamp.Format("2006-01-02T15:04:05.000"),
			string(e.EventType),
			e.SessionID,
			fmt.Sprintf("%.3f", e.ElapsedSinceStart),
			duration,
			string(e.Status),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return w.Error()
}
