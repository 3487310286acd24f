package lms

import "time"

// Course is a course record as returned by GET /courses.
type Course struct {
	ID          string       `json:"id" yaml:"id"`
	Title       string       `json:"title" yaml:"title"`
	Assignments []Assignment `json:"assignments" yaml:"assignments"`
}

// Assignment links a learner to a course.
type Assignment struct {
	UserID      string     `json:"user_id" yaml:"user_id"`
	Status      string     `json:"status" yaml:"status"`
	Result      *float64   `json:"result" yaml:"result"`
	AssignedAt  *time.Time `json:"assigned_at" yaml:"assigned_at"`
	DueDate     *time.Time `json:"due_date" yaml:"due_date"`
	CompletedAt *time.Time `json:"completed_at" yaml:"completed_at"`
}

// User is a learner record as returned by GET /users.
type User struct {
	ID     string  `json:"id" yaml:"id"`
	Name   string  `json:"name" yaml:"name"`
	Email  string  `json:"email,omitempty" yaml:"email,omitempty"`
	Groups []Group `json:"groups" yaml:"groups"`
}

// Group is a named set of users.
type Group struct {
	ID   string `json:"id,omitempty" yaml:"id,omitempty"`
	Name string `json:"name" yaml:"name"`
}

// ResultValue returns the assignment result, or 0 when there is none.
func (a Assignment) ResultValue() float64 {
	if a.Result == nil {
		return 0
	}
	return *a.Result
}
