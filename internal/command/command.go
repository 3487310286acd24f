// Package command defines the closed instruction and filter vocabulary shared
// by the CLI, the intent translator and the query loop.
package command

import (
	"strings"

	lqerrors "github.com/iishyfishyy/learnq/internal/errors"
)

// Instruction is one of the report operations a command can request.
type Instruction int

const (
	// Unrecognized is the zero value; it is never dispatched.
	Unrecognized Instruction = iota
	ListCourses
	Statuses
	Results
	UserInfo
	Placeholder
)

var instructionFlags = map[Instruction]string{
	ListCourses: "-l",
	Statuses:    "-s",
	Results:     "-r",
	UserInfo:    "-info",
	Placeholder: "-x",
}

var instructionNames = map[Instruction]string{
	Unrecognized: "unrecognized",
	ListCourses:  "list-courses",
	Statuses:     "statuses",
	Results:      "results",
	UserInfo:     "user-info",
	Placeholder:  "placeholder",
}

// Instructions lists the dispatchable instructions in display order.
func Instructions() []Instruction {
	return []Instruction{ListCourses, Statuses, Results, UserInfo, Placeholder}
}

// ParseInstruction maps a flag such as "-s" onto an Instruction. "-i" is
// accepted as an alias of "-info".
func ParseInstruction(flag string) (Instruction, bool) {
	flag = strings.TrimSpace(flag)
	if flag == "-i" {
		return UserInfo, true
	}
	for in, f := range instructionFlags {
		if f == flag {
			return in, true
		}
	}
	return Unrecognized, false
}

// Flag returns the wire form, e.g. "-s". Unrecognized has none.
func (i Instruction) Flag() string {
	return instructionFlags[i]
}

func (i Instruction) String() string {
	if name, ok := instructionNames[i]; ok {
		return name
	}
	return instructionNames[Unrecognized]
}

// Valid reports whether i is a member of the closed set.
func (i Instruction) Valid() bool {
	_, ok := instructionFlags[i]
	return ok
}

// NeedsCourse reports whether the instruction operates on a named subject.
// For UserInfo the subject is a learner name.
func (i Instruction) NeedsCourse() bool {
	switch i {
	case Statuses, Results, UserInfo:
		return true
	}
	return false
}

// Filter narrows a status or result report.
type Filter string

const (
	NoFilter Filter = ""

	FilterPending    Filter = "pending"
	FilterInProgress Filter = "in_progress"
	FilterCompleted  Filter = "completed"
	FilterOverdue    Filter = "overdue"
	FilterFailed     Filter = "failed"
	FilterExpired    Filter = "expired"
	FilterInReview   Filter = "in_review"

	FilterFull  Filter = "full"
	FilterBelow Filter = "below"
)

// StatusFilters is the status vocabulary in report order.
var StatusFilters = []Filter{
	FilterPending, FilterInProgress, FilterCompleted, FilterOverdue,
	FilterFailed, FilterExpired, FilterInReview,
}

// ResultFilters is the result vocabulary.
var ResultFilters = []Filter{FilterFull, FilterBelow}

// ParseFilter accepts a token with or without a leading slash. Empty input
// is NoFilter.
func ParseFilter(token string) (Filter, error) {
	token = strings.TrimPrefix(strings.TrimSpace(token), "/")
	if token == "" {
		return NoFilter, nil
	}
	f := Filter(strings.ToLower(token))
	if f.IsStatus() || f.IsResult() {
		return f, nil
	}
	return NoFilter, lqerrors.NewInvalidFilterError(token, "is not a known filter")
}

// IsStatus reports whether f is a status filter.
func (f Filter) IsStatus() bool {
	for _, s := range StatusFilters {
		if f == s {
			return true
		}
	}
	return false
}

// IsResult reports whether f is a result filter.
func (f Filter) IsResult() bool {
	return f == FilterFull || f == FilterBelow
}

// Wire returns the slash-prefixed form used in prompts and on the CLI.
func (f Filter) Wire() string {
	if f == NoFilter {
		return ""
	}
	return "/" + string(f)
}

// Command is one parsed request.
type Command struct {
	Instruction       Instruction
	CourseName        string
	Filter            Filter
	UserListRequested bool
	// RawInstruction is the instruction text as produced by the translator
	// or typed on the command line.
	RawInstruction string
}

// TakesFilter is true for Statuses and Results.
func (i Instruction) TakesFilter() bool {
	return i == Statuses || i == Results
}

// Scoped returns c without the fields its instruction ignores: the course
// name unless NeedsCourse, the filter unless TakesFilter. A status filter on
// Results (or the reverse) is kept so Validate can report it.
func (c Command) Scoped() Command {
	if !c.Instruction.NeedsCourse() {
		c.CourseName = ""
	}
	if !c.Instruction.TakesFilter() {
		c.Filter = NoFilter
	}
	return c
}

// Validate checks the command against its instruction: the instruction must
// be in the closed set, the filter must belong to the instruction's
// vocabulary, and a subject must be present when one is needed.
func (c Command) Validate() error {
	if !c.Instruction.Valid() {
		return lqerrors.NewUnrecognizedInstructionError(c.RawInstruction)
	}
	if c.Instruction.NeedsCourse() && strings.TrimSpace(c.CourseName) == "" {
		return lqerrors.NewMissingCourseError(c.Instruction.String())
	}
	if c.Filter == NoFilter {
		return nil
	}
	switch c.Instruction {
	case Statuses:
		if !c.Filter.IsStatus() {
			return lqerrors.NewInvalidFilterError(string(c.Filter), "does not apply to statuses")
		}
	case Results:
		if !c.Filter.IsResult() {
			return lqerrors.NewInvalidFilterError(string(c.Filter), "does not apply to results")
		}
	default:
		return lqerrors.NewInvalidFilterError(string(c.Filter), "does not apply to "+c.Instruction.String())
	}
	return nil
}
