package org

import "time"

// Rating is an employee's discrete performance grade. The zero value is the
// explicit unrated variant; arithmetic never sees a sentinel null.
type Rating string

const (
	RatingUnrated Rating = ""
	RatingA       Rating = "A"
	RatingB       Rating = "B"
	RatingC       Rating = "C"
)

// Valid reports whether r is one of the three assignable grades. Unrated is
// never assignable; there is no clearing path.
func (r Rating) Valid() bool {
	return r == RatingA || r == RatingB || r == RatingC
}

// Rated reports whether the employee carries an active evaluation.
func (r Rating) Rated() bool {
	return r != RatingUnrated
}

type Branch struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Employee is the merged view the core operates on: the roster row flattened
// with its branch name and at-most-one evaluation. Rating, EvaluatedAt and
// EvaluatedBy are jointly all-set or all-unset.
type Employee struct {
	ID          string     `json:"id"`
	FullName    string     `json:"fullName"`
	Position    string     `json:"position"`
	BranchID    string     `json:"branchId"`
	BranchName  string     `json:"branchName"`
	Rating      Rating     `json:"rating,omitempty"`
	EvaluatedAt *time.Time `json:"evaluatedAt,omitempty"`
	EvaluatedBy string     `json:"evaluatedBy,omitempty"`
}
