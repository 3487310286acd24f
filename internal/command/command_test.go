package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lqerrors "github.com/iishyfishyy/learnq/internal/errors"
)

func TestParseInstruction(t *testing.T) {
	tests := []struct {
		flag string
		want Instruction
		ok   bool
	}{
		{"-l", ListCourses, true},
		{"-s", Statuses, true},
		{"-r", Results, true},
		{"-info", UserInfo, true},
		{"-i", UserInfo, true},
		{"-x", Placeholder, true},
		{" -s ", Statuses, true},
		{"-z", Unrecognized, false},
		{"", Unrecognized, false},
		{"s", Unrecognized, false},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			got, ok := ParseInstruction(tt.flag)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestInstructionFlagRoundTrip(t *testing.T) {
	for _, in := range Instructions() {
		got, ok := ParseInstruction(in.Flag())
		require.True(t, ok, in.String())
		assert.Equal(t, in, got)
		assert.True(t, in.Valid())
	}
	assert.False(t, Unrecognized.Valid())
	assert.Equal(t, "", Unrecognized.Flag())
	assert.Equal(t, "unrecognized", Instruction(42).String())
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		token   string
		want    Filter
		wantErr bool
	}{
		{"completed", FilterCompleted, false},
		{"/completed", FilterCompleted, false},
		{"/IN_PROGRESS", FilterInProgress, false},
		{"full", FilterFull, false},
		{"/below", FilterBelow, false},
		{"", NoFilter, false},
		{"/", NoFilter, false},
		{"finished", NoFilter, true},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, err := ParseFilter(tt.token)
			if tt.wantErr {
				assert.ErrorIs(t, err, lqerrors.ErrInvalidFilter)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilterWire(t *testing.T) {
	assert.Equal(t, "/overdue", FilterOverdue.Wire())
	assert.Equal(t, "", NoFilter.Wire())
}

func TestScoped(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want Command
	}{
		{
			name: "list drops course and filter",
			cmd:  Command{Instruction: ListCourses, CourseName: "Data Ethics", Filter: FilterCompleted, RawInstruction: "-l"},
			want: Command{Instruction: ListCourses, RawInstruction: "-l"},
		},
		{
			name: "placeholder drops filter",
			cmd:  Command{Instruction: Placeholder, Filter: FilterFull},
			want: Command{Instruction: Placeholder},
		},
		{
			name: "user info keeps the learner and drops the filter",
			cmd:  Command{Instruction: UserInfo, CourseName: "Ada Lovelace", Filter: FilterPending},
			want: Command{Instruction: UserInfo, CourseName: "Ada Lovelace"},
		},
		{
			name: "mismatched filter is kept for validation",
			cmd:  Command{Instruction: Results, CourseName: "Data Ethics", Filter: FilterPending, UserListRequested: true},
			want: Command{Instruction: Results, CourseName: "Data Ethics", Filter: FilterPending, UserListRequested: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.cmd.Scoped()
			assert.Equal(t, tt.want, got)
			if tt.want.Filter == NoFilter {
				assert.NoError(t, got.Validate())
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cmd     Command
		wantErr error
	}{
		{"list needs nothing", Command{Instruction: ListCourses}, nil},
		{"statuses with status filter", Command{Instruction: Statuses, CourseName: "Data Ethics", Filter: FilterCompleted}, nil},
		{"results with result filter", Command{Instruction: Results, CourseName: "Data Ethics", Filter: FilterFull}, nil},
		{"placeholder", Command{Instruction: Placeholder}, nil},
		{"unrecognized", Command{RawInstruction: "-z"}, lqerrors.ErrUnrecognizedInstruction},
		{"statuses without course", Command{Instruction: Statuses}, lqerrors.ErrMissingCourse},
		{"user info without name", Command{Instruction: UserInfo, CourseName: "  "}, lqerrors.ErrMissingCourse},
		{"statuses with result filter", Command{Instruction: Statuses, CourseName: "x", Filter: FilterFull}, lqerrors.ErrInvalidFilter},
		{"results with status filter", Command{Instruction: Results, CourseName: "x", Filter: FilterPending}, lqerrors.ErrInvalidFilter},
		{"list with filter", Command{Instruction: ListCourses, Filter: FilterPending}, lqerrors.ErrInvalidFilter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
