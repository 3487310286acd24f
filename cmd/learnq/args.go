package main

import (
	"strings"
)

// Instructions that stand alone, without a course or learner before them.
const (
	flagList  = "-l"
	flagQuery = "-q"
	flagWrite = "-write"
	flagDaily = "-daily"
	flagHelp  = "-help"
	flagUsers = "-users"
)

var leadingFlags = map[string]bool{
	flagList:  true,
	flagQuery: true,
	flagWrite: true,
	flagDaily: true,
	flagHelp:  true,
	flagUsers: true,
}

// legacyArgs is the positional form: [courseOrFlag] [instruction] [filter] [userListFlag].
type legacyArgs struct {
	Subject     string
	Instruction string
	Filter      string
	UserList    bool
	// Path is the optional output file of -write.
	Path string
}

func parseLegacyArgs(args []string) legacyArgs {
	var la legacyArgs
	if len(args) == 0 {
		return la
	}

	first := strings.TrimSpace(args[0])
	if leadingFlags[first] {
		la.Instruction = first
		if first == flagWrite && len(args) > 1 {
			la.Path = strings.TrimSpace(args[1])
		}
		return la
	}

	la.Subject = first
	if len(args) > 1 {
		la.Instruction = strings.TrimSpace(args[1])
	}
	if len(args) > 2 {
		la.Filter = strings.TrimSpace(args[2])
	}
	if len(args) > 3 {
		la.UserList = truthy(args[3])
	}
	return la
}

func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "false", "no", "n":
		return false
	}
	return true
}

// globalArgs are the persistent flags the legacy form still honours, since
// cobra does not parse flags for it.
type globalArgs struct {
	Debug      bool
	ConfigPath string
	Help       bool
	Version    bool
}

// splitGlobalArgs removes --debug, --config, --help and --version from args.
// The single-dash spellings stay positional because -d, -h and friends would
// clash with instruction flags.
func splitGlobalArgs(args []string) (globalArgs, []string) {
	var g globalArgs
	rest := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--debug":
			g.Debug = true
		case a == "--help":
			g.Help = true
		case a == "--version":
			g.Version = true
		case a == "--config":
			if i+1 < len(args) {
				g.ConfigPath = args[i+1]
				i++
			}
		case strings.HasPrefix(a, "--config="):
			g.ConfigPath = strings.TrimPrefix(a, "--config=")
		default:
			rest = append(rest, a)
		}
	}
	return g, rest
}
