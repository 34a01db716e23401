// ABOUTME: Counters over extraction results.
// ABOUTME: Tracks per-kind totals and per-reason skip counts for ingestion summaries.
package extract

// Stats accumulates extraction results. The zero value is ready to use.
type Stats struct {
	Records       int
	Workouts      int
	Skipped       int
	NotApplicable int
	Reasons       map[SkipReason]int
}

// Add counts one result.
func (s *Stats) Add(r Result) {
	switch r.Kind {
	case KindRecord:
		s.Records++
	case KindWorkout:
		s.Workouts++
	case KindSkipped:
		s.Skipped++
		if s.Reasons == nil {
			s.Reasons = make(map[SkipReason]int)
		}
		s.Reasons[r.Reason]++
	default:
		s.NotApplicable++
	}
}

// Total returns the number of results counted.
func (s *Stats) Total() int {
	return s.Records + s.Workouts + s.Skipped + s.NotApplicable
}
