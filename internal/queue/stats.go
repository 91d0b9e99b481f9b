package queue

import "time"

// Stats summarises a population's review load.
type Stats struct {
	Total        int `json:"total"`
	DueToday     int `json:"due_today"`
	DueThisWeek  int `json:"due_this_week"`
	New          int `json:"new"`
	Overdue      int `json:"overdue"`
	AvgPriority  int `json:"avg_priority"`
	HighPriority int `json:"high_priority"` // priority >= 80
}

// Summarize counts candidates by due status. Today ends at the next local
// midnight of now; overdue means due before the start of today.
func Summarize(candidates []Candidate, now time.Time) Stats {
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	endOfDay := startOfDay.AddDate(0, 0, 1)
	endOfWeek := startOfDay.AddDate(0, 0, 7)

	var st Stats
	sum := 0
	for _, c := range candidates {
		st.Total++
		sum += c.Priority
		if c.Priority >= 80 {
			st.HighPriority++
		}
		if c.NextReview == nil {
			st.New++
			continue
		}
		next := *c.NextReview
		if next.Before(endOfDay) {
			st.DueToday++
		}
		if next.Before(endOfWeek) {
			st.DueThisWeek++
		}
		if next.Before(startOfDay) {
			st.Overdue++
		}
	}
	if st.Total > 0 {
		st.AvgPriority = sum / st.Total
	}
	return st
}
