package evaluation

import (
	"math"

	"upr360/internal/domain/org"
)

// Stats are derived counts over a set of employees; they are never stored.
// Evaluated always equals RatingA+RatingB+RatingC.
type Stats struct {
	Total     int `json:"total"`
	Evaluated int `json:"evaluated"`
	RatingA   int `json:"ratingA"`
	RatingB   int `json:"ratingB"`
	RatingC   int `json:"ratingC"`
}

type BranchStats struct {
	BranchID   string `json:"branchId"`
	BranchName string `json:"branchName"`
	Stats
}

// StatsFor counts ratings over employees. Defined for the empty set: all
// counts zero.
func StatsFor(employees []org.Employee) Stats {
	stats := Stats{Total: len(employees)}
	for _, emp := range employees {
		switch emp.Rating {
		case org.RatingA:
			stats.RatingA++
		case org.RatingB:
			stats.RatingB++
		case org.RatingC:
			stats.RatingC++
		case org.RatingUnrated:
		}
	}
	stats.Evaluated = stats.RatingA + stats.RatingB + stats.RatingC
	return stats
}

// Percent is the display percentage of evaluated employees, rounded to the
// nearest integer. Zero totals render 0, not NaN.
func Percent(evaluated, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(evaluated) / float64(total)))
}
