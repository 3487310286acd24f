// Package report computes display-ready summaries over the fetched catalog.
// Every operation looks its course or learner up by exact name and reports
// its own not-found error.
package report

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/iishyfishyy/learnq/internal/catalog"
	"github.com/iishyfishyy/learnq/internal/command"
	lqerrors "github.com/iishyfishyy/learnq/internal/errors"
	"github.com/iishyfishyy/learnq/internal/lms"
)

const day = 24 * time.Hour

// Pipeline answers report requests from a catalog store.
type Pipeline struct {
	store *catalog.Store
	now   func() time.Time
}

// New creates a pipeline over store.
func New(store *catalog.Store) *Pipeline {
	return &Pipeline{store: store, now: time.Now}
}

// WithClock replaces the clock used for due-date and daily arithmetic.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

// Learner is one row of a learner list.
type Learner struct {
	Name        string
	Result      *float64
	CompletedAt *time.Time
}

// StatusCount is the number of assignments in one status.
type StatusCount struct {
	Status command.Filter
	Count  int
}

// StatusGroup lists the learners in one status.
type StatusGroup struct {
	Status   command.Filter
	Learners []Learner
}

// TimeScales buckets completed assignments by how quickly they were done.
type TimeScales struct {
	BeforeDue                   int
	WithinTwoDaysOfDue          int
	WithinThreeDaysOfAssignment int
}

// StatusReport is the -s output.
type StatusReport struct {
	Course     string
	Filter     command.Filter
	Total      int
	AssignedAt *time.Time
	DueDate    *time.Time
	// DaysUntilDue is negative when overdue. Meaningless without DueDate.
	DaysUntilDue int
	AverageScore int
	// Counts holds the non-zero statuses in vocabulary order.
	Counts     []StatusCount
	TimeScales TimeScales
	// Groups is filled only when learners were requested.
	Groups []StatusGroup
}

// Count returns the number of assignments with status s.
func (r *StatusReport) Count(s command.Filter) int {
	for _, c := range r.Counts {
		if c.Status == s {
			return c.Count
		}
	}
	return 0
}

// defaultGroups are listed when learners are requested without a filter.
var defaultGroups = []command.Filter{command.FilterPending, command.FilterInProgress, command.FilterCompleted}

// Statuses reports assignment statuses for course. With a filter, only that
// status's learners are listed.
func (p *Pipeline) Statuses(course string, filter command.Filter, wantUsers bool) (*StatusReport, error) {
	c, ok := p.store.Course(course)
	if !ok {
		return nil, lqerrors.NewCourseNotFoundError(course)
	}

	now := p.now()
	r := &StatusReport{
		Course:       c.Title,
		Filter:       filter,
		Total:        len(c.Assignments),
		AssignedAt:   firstAssigned(c),
		DueDate:      firstDue(c),
		AverageScore: averageScore(c),
		TimeScales:   timeScales(c),
	}
	if r.DueDate != nil {
		r.DaysUntilDue = ceilDays(r.DueDate.Sub(now))
	}

	counts := make(map[command.Filter]int)
	for _, a := range c.Assignments {
		counts[command.Filter(a.Status)]++
	}
	for _, s := range command.StatusFilters {
		if n := counts[s]; n > 0 {
			r.Counts = append(r.Counts, StatusCount{Status: s, Count: n})
		}
	}

	if wantUsers {
		statuses := defaultGroups
		if filter != command.NoFilter {
			statuses = []command.Filter{filter}
		}
		for _, s := range statuses {
			r.Groups = append(r.Groups, StatusGroup{Status: s, Learners: p.learners(c, s)})
		}
	}
	return r, nil
}

func (p *Pipeline) learners(c lms.Course, status command.Filter) []Learner {
	out := []Learner{}
	for _, a := range c.Assignments {
		if command.Filter(a.Status) != status {
			continue
		}
		l := Learner{Name: p.store.UserName(a.UserID)}
		if status == command.FilterCompleted {
			l.Result = a.Result
			l.CompletedAt = a.CompletedAt
		}
		out = append(out, l)
	}
	sortLearners(out)
	return out
}

// ScoreBand counts scored results within one range.
type ScoreBand struct {
	Label string
	Count int
}

var bandLabels = []string{"0-49", "50-79", "80-99", "100"}

func bandIndex(v float64) int {
	switch {
	case v >= 100:
		return 3
	case v >= 80:
		return 2
	case v >= 50:
		return 1
	}
	return 0
}

// ResultReport is the -r output.
type ResultReport struct {
	Course        string
	Filter        command.Filter
	Scored        int
	FullMarks     int
	Highest       *float64
	LowestNonZero *float64
	AverageScore  int
	Bands         []ScoreBand
	// Matching counts results passing Filter, or every scored result.
	Matching int
	Learners []Learner
}

// Results reports the score distribution for course. "full" keeps results of
// 100, "below" keeps completed results under 100.
func (p *Pipeline) Results(course string, filter command.Filter, wantUsers bool) (*ResultReport, error) {
	c, ok := p.store.Course(course)
	if !ok {
		return nil, lqerrors.NewCourseNotFoundError(course)
	}

	r := &ResultReport{
		Course:       c.Title,
		Filter:       filter,
		AverageScore: averageScore(c),
		Bands:        make([]ScoreBand, len(bandLabels)),
	}
	for i, label := range bandLabels {
		r.Bands[i].Label = label
	}

	var learners []Learner
	for _, a := range c.Assignments {
		if a.Result == nil {
			continue
		}
		v := *a.Result
		r.Scored++
		if v == 100 {
			r.FullMarks++
		}
		if r.Highest == nil || v > *r.Highest {
			r.Highest = floatPtr(v)
		}
		if v > 0 && (r.LowestNonZero == nil || v < *r.LowestNonZero) {
			r.LowestNonZero = floatPtr(v)
		}
		r.Bands[bandIndex(v)].Count++

		if !matchesResult(a, filter) {
			continue
		}
		r.Matching++
		if wantUsers {
			learners = append(learners, Learner{
				Name:        p.store.UserName(a.UserID),
				Result:      a.Result,
				CompletedAt: a.CompletedAt,
			})
		}
	}

	if wantUsers {
		if learners == nil {
			learners = []Learner{}
		}
		sortLearners(learners)
		r.Learners = learners
	}
	return r, nil
}

func matchesResult(a lms.Assignment, filter command.Filter) bool {
	switch filter {
	case command.FilterFull:
		return a.ResultValue() == 100
	case command.FilterBelow:
		return command.Filter(a.Status) == command.FilterCompleted && a.ResultValue() < 100
	}
	return true
}

// CourseRow is one line of a learner's history.
type CourseRow struct {
	Course      string
	Status      string
	Result      *float64
	AssignedAt  *time.Time
	CompletedAt *time.Time
}

// UserInfoReport is the -info output.
type UserInfoReport struct {
	Name string
	// Average is the mean of completed results, nil when nothing is completed.
	Average *float64
	Rows    []CourseRow
}

// UserInfo lists every assignment of the named learner, newest first.
func (p *Pipeline) UserInfo(name string) (*UserInfoReport, error) {
	u, ok := p.store.UserByName(name)
	if !ok {
		return nil, lqerrors.NewUserNotFoundError(name)
	}

	r := &UserInfoReport{Name: u.Name, Rows: []CourseRow{}}
	var total float64
	var completed int
	for _, c := range p.store.Courses() {
		for _, a := range c.Assignments {
			if a.UserID != u.ID {
				continue
			}
			row := CourseRow{
				Course:      c.Title,
				Status:      a.Status,
				AssignedAt:  a.AssignedAt,
				CompletedAt: a.CompletedAt,
			}
			if command.Filter(a.Status) == command.FilterCompleted {
				row.Result = a.Result
				total += a.ResultValue()
				completed++
			}
			r.Rows = append(r.Rows, row)
		}
	}

	if completed > 0 {
		avg := math.Round(total/float64(completed)*100) / 100
		r.Average = &avg
	}

	sort.SliceStable(r.Rows, func(i, j int) bool {
		a, b := r.Rows[i].AssignedAt, r.Rows[j].AssignedAt
		switch {
		case a == nil && b == nil:
			return r.Rows[i].Course < r.Rows[j].Course
		case a == nil:
			return false
		case b == nil:
			return true
		case a.Equal(*b):
			return r.Rows[i].Course < r.Rows[j].Course
		}
		return a.After(*b)
	})
	return r, nil
}

// ListCourses returns the sorted course titles.
func (p *Pipeline) ListCourses() []string {
	return p.store.Titles()
}

// UserRow is one line of the roster.
type UserRow struct {
	Name   string
	Groups []string
}

// Users returns every user with their group names, sorted by name.
func (p *Pipeline) Users() []UserRow {
	users := p.store.Users()
	rows := make([]UserRow, 0, len(users))
	for _, u := range users {
		groups := make([]string, 0, len(u.Groups))
		for _, g := range u.Groups {
			groups = append(groups, g.Name)
		}
		rows = append(rows, UserRow{Name: u.Name, Groups: groups})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return strings.ToLower(rows[i].Name) < strings.ToLower(rows[j].Name)
	})
	return rows
}

// Completion is one finished assignment.
type Completion struct {
	Learner string
	Course  string
	Result  *float64
}

// DayActivity holds the completions of one calendar day.
type DayActivity struct {
	Date        time.Time
	Completions []Completion
}

// DailyActivity lists completions per day for the last days days, today
// first. Days without completions are kept so gaps are visible.
func (p *Pipeline) DailyActivity(days int) []DayActivity {
	if days <= 0 {
		days = 1
	}
	now := p.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	out := make([]DayActivity, days)
	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		d := today.AddDate(0, 0, -i)
		out[i] = DayActivity{Date: d, Completions: []Completion{}}
		index[d.Format("2006-01-02")] = i
	}

	for _, c := range p.store.Courses() {
		for _, a := range c.Assignments {
			if a.CompletedAt == nil {
				continue
			}
			key := a.CompletedAt.In(now.Location()).Format("2006-01-02")
			i, ok := index[key]
			if !ok {
				continue
			}
			out[i].Completions = append(out[i].Completions, Completion{
				Learner: p.store.UserName(a.UserID),
				Course:  c.Title,
				Result:  a.Result,
			})
		}
	}

	for i := range out {
		sort.SliceStable(out[i].Completions, func(a, b int) bool {
			ca, cb := out[i].Completions[a], out[i].Completions[b]
			if ca.Learner != cb.Learner {
				return ca.Learner < cb.Learner
			}
			return ca.Course < cb.Course
		})
	}
	return out
}

func firstAssigned(c lms.Course) *time.Time {
	for _, a := range c.Assignments {
		if a.AssignedAt != nil {
			return a.AssignedAt
		}
	}
	return nil
}

func firstDue(c lms.Course) *time.Time {
	for _, a := range c.Assignments {
		if a.DueDate != nil {
			return a.DueDate
		}
	}
	return nil
}

// averageScore is the mean of results above zero, rounded up.
func averageScore(c lms.Course) int {
	var total float64
	var n int
	for _, a := range c.Assignments {
		if v := a.ResultValue(); v > 0 {
			total += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return int(math.Ceil(total / float64(n)))
}

func timeScales(c lms.Course) TimeScales {
	var ts TimeScales
	for _, a := range c.Assignments {
		if a.CompletedAt == nil || a.DueDate == nil || a.AssignedAt == nil {
			continue
		}
		untilDue := ceilDays(a.DueDate.Sub(*a.CompletedAt))
		switch {
		case untilDue > 0:
			ts.BeforeDue++
		case untilDue >= -2:
			ts.WithinTwoDaysOfDue++
		}
		if ceilDays(a.CompletedAt.Sub(*a.AssignedAt)) <= 3 {
			ts.WithinThreeDaysOfAssignment++
		}
	}
	return ts
}

func ceilDays(d time.Duration) int {
	return int(math.Ceil(float64(d) / float64(day)))
}

func sortLearners(ls []Learner) {
	sort.SliceStable(ls, func(i, j int) bool {
		return strings.ToLower(ls[i].Name) < strings.ToLower(ls[j].Name)
	})
}

func floatPtr(v float64) *float64 {
	return &v
}
