package model

import "math"

// Stats is the derived task summary for a project. It is never stored.
type Stats struct {
	TotalTasks         int     `json:"totalTasks"`
	CompletedTasks     int     `json:"completedTasks"`
	ProgressPercentage float64 `json:"progressPercentage"`
}

// ComputeStats derives the completion percentage, rounded half-up to two
// decimals. A project with no tasks reports zero.
func ComputeStats(total, completed int) Stats {
	s := Stats{TotalTasks: total, CompletedTasks: completed}
	if total > 0 {
		pct := float64(completed) * 100 / float64(total)
		s.ProgressPercentage = math.Floor(pct*100+0.5) / 100
	}
	return s
}
