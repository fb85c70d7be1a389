package trace

// TypeSummary aggregates the records of one event type.
type TypeSummary struct {
	Count      int
	FirstClock float64
	LastClock  float64
	MeanGap    float64 // mean time between consecutive events of this type (0 if Count < 2)
}

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalEvents int
	TokenEvents int                    // events that carried a token
	ByType      map[string]TypeSummary // event type → summary
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		ByType: make(map[string]TypeSummary),
	}
	if st == nil {
		return summary
	}

	summary.TotalEvents = len(st.Events)
	for _, r := range st.Events {
		if r.HasToken {
			summary.TokenEvents++
		}
		ts, seen := summary.ByType[r.Type]
		if !seen {
			ts.FirstClock = r.Clock
		}
		ts.Count++
		ts.LastClock = r.Clock
		summary.ByType[r.Type] = ts
	}

	for name, ts := range summary.ByType {
		if ts.Count > 1 {
			ts.MeanGap = (ts.LastClock - ts.FirstClock) / float64(ts.Count-1)
			summary.ByType[name] = ts
		}
	}

	return summary
}
