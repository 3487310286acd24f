package ui

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/iishyfishyy/learnq/internal/command"
	"github.com/iishyfishyy/learnq/internal/history"
	"github.com/iishyfishyy/learnq/internal/report"
)

// DateLayout is how every date is printed, e.g. "02 Mar 24".
const DateLayout = "02 Jan 06"

var (
	title   = color.New(color.FgYellow, color.Bold)
	label   = color.New(color.FgGreen, color.Bold)
	value   = color.New(color.FgWhite, color.Bold)
	dim     = color.New(color.Faint)
	heading = map[command.Filter]*color.Color{
		command.FilterPending:    color.New(color.FgRed, color.Bold),
		command.FilterInProgress: color.New(color.FgYellow, color.Bold),
		command.FilterCompleted:  color.New(color.FgBlue, color.Bold),
	}
	statusHeadings = map[command.Filter]string{
		command.FilterPending:    "Not Started",
		command.FilterInProgress: "In Progress",
		command.FilterCompleted:  "Completed",
		command.FilterOverdue:    "Overdue",
		command.FilterFailed:     "Failed",
		command.FilterExpired:    "Expired",
		command.FilterInReview:   "In Review",
	}
)

// FormatDate prints t in DateLayout, or fallback when t is nil.
func FormatDate(t *time.Time, fallback string) string {
	if t == nil {
		return fallback
	}
	return t.Format(DateLayout)
}

// FormatScore prints a result without trailing zeros.
func FormatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func field(w io.Writer, name, val string) {
	label.Fprint(w, name+": ")
	value.Fprintln(w, val)
}

// RenderCourses prints one title per line.
func RenderCourses(w io.Writer, titles []string) {
	if len(titles) == 0 {
		ShowInfo(w, "No courses found.")
		return
	}
	for _, t := range titles {
		fmt.Fprintln(w, t)
	}
}

// DueSummary describes how far away a due date is.
func DueSummary(days int) string {
	switch {
	case days > 0:
		return fmt.Sprintf("%d days remaining", days)
	case days < 0:
		return fmt.Sprintf("%d days overdue", -days)
	}
	return "due today"
}

// RenderStatuses prints a status report.
func RenderStatuses(w io.Writer, r *report.StatusReport) {
	title.Fprintln(w, r.Course)
	fmt.Fprintln(w)

	field(w, "Date Assigned", FormatDate(r.AssignedAt, "n/a"))
	if r.DueDate != nil {
		field(w, "Due Date", fmt.Sprintf("%s (%s)", FormatDate(r.DueDate, ""), DueSummary(r.DaysUntilDue)))
	} else {
		field(w, "Due Date", "none")
	}
	field(w, "Average Score", fmt.Sprintf("%d%%", r.AverageScore))
	for _, c := range r.Counts {
		fmt.Fprintf(w, "%s: %d\n", c.Status, c.Count)
	}
	if r.Filter != command.NoFilter {
		field(w, string(r.Filter), fmt.Sprintf("%d of %d", r.Count(r.Filter), r.Total))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d completed before the due date\n", r.TimeScales.BeforeDue)
	fmt.Fprintf(w, "%d completed within 2 days of the due date\n", r.TimeScales.WithinTwoDaysOfDue)
	fmt.Fprintf(w, "%d completed within 3 days of being assigned\n", r.TimeScales.WithinThreeDaysOfAssignment)

	for _, g := range r.Groups {
		fmt.Fprintln(w)
		c, ok := heading[g.Status]
		if !ok {
			c = label
		}
		c.Fprintf(w, "%s (%d)\n", statusHeadings[g.Status], len(g.Learners))
		renderLearners(w, g.Learners)
	}
}

func renderLearners(w io.Writer, learners []report.Learner) {
	for _, l := range learners {
		line := l.Name
		if l.CompletedAt != nil {
			line += " " + dim.Sprint(FormatDate(l.CompletedAt, ""))
		}
		if l.Result != nil {
			line += fmt.Sprintf(" - (%s%%)", FormatScore(*l.Result))
		}
		fmt.Fprintln(w, line)
	}
}

// RenderResults prints a result report.
func RenderResults(w io.Writer, r *report.ResultReport) {
	title.Fprintln(w, r.Course)
	fmt.Fprintln(w)

	if r.Scored == 0 {
		ShowInfo(w, "No scored assignments yet.")
		return
	}

	field(w, "Scored", strconv.Itoa(r.Scored))
	field(w, "Full Marks", strconv.Itoa(r.FullMarks))
	field(w, "Highest Score", FormatScore(*r.Highest)+"%")
	if r.LowestNonZero != nil {
		field(w, "Lowest Non-Zero Score", FormatScore(*r.LowestNonZero)+"%")
	} else {
		field(w, "Lowest Non-Zero Score", "n/a")
	}
	field(w, "Average Score", fmt.Sprintf("%d%%", r.AverageScore))

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Range\tCount")
	for _, b := range r.Bands {
		fmt.Fprintf(tw, "%s\t%d\n", b.Label, b.Count)
	}
	tw.Flush()

	if r.Filter != command.NoFilter {
		fmt.Fprintln(w)
		field(w, string(r.Filter), strconv.Itoa(r.Matching))
	}
	if r.Learners != nil {
		fmt.Fprintln(w)
		renderLearners(w, r.Learners)
	}
}

// RenderUserInfo prints a learner's course history as a table.
func RenderUserInfo(w io.Writer, r *report.UserInfoReport) {
	avg := "N/A"
	if r.Average != nil {
		avg = strconv.FormatFloat(*r.Average, 'f', 2, 64) + "%"
	}
	title.Fprint(w, r.Name)
	fmt.Fprintf(w, " - Average Score: %s\n\n", avg)

	if len(r.Rows) == 0 {
		ShowInfo(w, "No courses assigned.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Course Title\tStatus\tAssigned Date\tCompleted Date\tResult")
	for _, row := range r.Rows {
		result := "N/A"
		if command.Filter(row.Status) == command.FilterCompleted {
			result = "Not Available"
			if row.Result != nil {
				result = FormatScore(*row.Result)
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			row.Course,
			row.Status,
			FormatDate(row.AssignedAt, "Not Assigned"),
			FormatDate(row.CompletedAt, "Not Completed"),
			result,
		)
	}
	tw.Flush()
}

// RenderUsers prints the roster.
func RenderUsers(w io.Writer, rows []report.UserRow) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Name\tGroups")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\n", r.Name, strings.Join(r.Groups, ", "))
	}
	tw.Flush()
}

// RenderDaily prints completions per day.
func RenderDaily(w io.Writer, days []report.DayActivity) {
	for i, d := range days {
		if i > 0 {
			fmt.Fprintln(w)
		}
		title.Fprintf(w, "%s %s (%d)\n", d.Date.Format("Mon"), d.Date.Format(DateLayout), len(d.Completions))
		if len(d.Completions) == 0 {
			dim.Fprintln(w, "  no completions")
			continue
		}
		for _, c := range d.Completions {
			line := fmt.Sprintf("  %s - %s", c.Learner, c.Course)
			if c.Result != nil {
				line += fmt.Sprintf(" (%s%%)", FormatScore(*c.Result))
			}
			fmt.Fprintln(w, line)
		}
	}
}

// RenderHistory prints history entries, newest first.
func RenderHistory(w io.Writer, entries []history.Entry) {
	if len(entries) == 0 {
		ShowInfo(w, "No history yet.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "When\tOutcome\tInstruction\tSubject\tQuestion")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			e.Timestamp.Local().Format(DateLayout+" 15:04"),
			e.Outcome,
			orDash(e.Instruction),
			orDash(e.Course),
			e.Utterance,
		)
	}
	tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

var instructionHelp = map[command.Instruction]string{
	command.ListCourses: "list courses",
	command.Statuses:    "status of a course",
	command.Results:     "results of a course",
	command.UserInfo:    "a learner's course history",
}

// RenderHelp prints the flag summary. Instructions without a help line are
// only reachable through -q.
func RenderHelp(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, in := range command.Instructions() {
		desc, ok := instructionHelp[in]
		if !ok {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\n", instructionUsage(in), desc)
	}
	for _, line := range [][2]string{
		{"-q", "ask questions in plain English"},
		{"-users", "list users and their groups"},
		{"-write [file]", "write course data to courseData.json"},
		{"-daily", "daily learner activity"},
		{"-help", "this summary"},
	} {
		fmt.Fprintf(tw, "%s\t%s\n", line[0], line[1])
	}
	tw.Flush()
}

func instructionUsage(in command.Instruction) string {
	switch in {
	case command.Statuses:
		return "<course> " + in.Flag() + " [/status] [-u]"
	case command.Results:
		wires := make([]string, 0, len(command.ResultFilters))
		for _, f := range command.ResultFilters {
			wires = append(wires, f.Wire())
		}
		return "<course> " + in.Flag() + " [" + strings.Join(wires, "|") + "] [-u]"
	case command.UserInfo:
		return "<learner> -i"
	}
	return in.Flag()
}
