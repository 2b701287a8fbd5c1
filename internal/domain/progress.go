package domain

import "math"

// Progress summarizes board completion.
type Progress struct {
	Total      int
	Completed  int
	Pending    int
	Percentage int
}

// ComputeProgress derives completion counts. Completed is the length of the Completed column.
func ComputeProgress(b Board) Progress {
	total := b.Len()
	completed := len(b.columns[StatusCompleted])
	p := Progress{
		Total:     total,
		Completed: completed,
		Pending:   total - completed,
	}
	if total > 0 {
		p.Percentage = int(math.Round(float64(completed) / float64(total) * 100))
	}
	return p
}
