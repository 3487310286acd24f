package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLegacyArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want legacyArgs
	}{
		{
			name: "empty",
			args: nil,
			want: legacyArgs{},
		},
		{
			name: "leading list flag",
			args: []string{"-l"},
			want: legacyArgs{Instruction: "-l"},
		},
		{
			name: "query ignores the rest",
			args: []string{"-q", "Data Ethics"},
			want: legacyArgs{Instruction: "-q"},
		},
		{
			name: "write with a path",
			args: []string{"-write", "out/courses.yaml"},
			want: legacyArgs{Instruction: "-write", Path: "out/courses.yaml"},
		},
		{
			name: "write without a path",
			args: []string{"-write"},
			want: legacyArgs{Instruction: "-write"},
		},
		{
			name: "course statuses",
			args: []string{"Data Ethics", "-s"},
			want: legacyArgs{Subject: "Data Ethics", Instruction: "-s"},
		},
		{
			name: "course statuses with filter and user list",
			args: []string{"Data Ethics", "-s", "/completed", "-u"},
			want: legacyArgs{Subject: "Data Ethics", Instruction: "-s", Filter: "/completed", UserList: true},
		},
		{
			name: "explicit false user list",
			args: []string{"Data Ethics", "-r", "/full", "false"},
			want: legacyArgs{Subject: "Data Ethics", Instruction: "-r", Filter: "/full"},
		},
		{
			name: "learner info",
			args: []string{" Ada Lovelace ", "-i"},
			want: legacyArgs{Subject: "Ada Lovelace", Instruction: "-i"},
		},
		{
			name: "subject only",
			args: []string{"Data Ethics"},
			want: legacyArgs{Subject: "Data Ethics"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLegacyArgs(tt.args))
		})
	}
}

func TestSplitGlobalArgs(t *testing.T) {
	g, rest := splitGlobalArgs([]string{"--debug", "Data Ethics", "--config", "/tmp/c.yaml", "-s"})
	assert.True(t, g.Debug)
	assert.Equal(t, "/tmp/c.yaml", g.ConfigPath)
	assert.Equal(t, []string{"Data Ethics", "-s"}, rest)

	g, rest = splitGlobalArgs([]string{"--config=x.yaml", "--help", "-l"})
	assert.Equal(t, "x.yaml", g.ConfigPath)
	assert.True(t, g.Help)
	assert.False(t, g.Debug)
	assert.Equal(t, []string{"-l"}, rest)

	g, rest = splitGlobalArgs([]string{"-d", "-h"})
	assert.False(t, g.Debug, "single-dash spellings stay positional")
	assert.Equal(t, []string{"-d", "-h"}, rest)

	g, _ = splitGlobalArgs([]string{"--version"})
	assert.True(t, g.Version)
}

func TestTruthy(t *testing.T) {
	for _, s := range []string{"-u", "true", "yes", "1", "users"} {
		assert.True(t, truthy(s), s)
	}
	for _, s := range []string{"", " ", "0", "false", "No", "n"} {
		assert.False(t, truthy(s), s)
	}
}
