package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/iishyfishyy/learnq/internal/agent"
	"github.com/iishyfishyy/learnq/internal/config"
	"github.com/iishyfishyy/learnq/internal/history"
	"github.com/iishyfishyy/learnq/internal/session"
	"github.com/iishyfishyy/learnq/internal/ui"
)

var (
	// version is set by goreleaser at build time
	version = "dev"
	commit  = "none"
	date    = "unknown"

	// CLI flags
	debug        bool
	configPath   string
	copyTitles   bool
	historyLimit int
	clearHistory bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "learnq [course|flag] [instruction] [filter] [users]",
		Short: "Course completion and score reports from your LMS",
		Long: `learnq reports course completion statuses, scores and learner histories.

Use the flags below, or run "learnq -q" to ask questions in plain English.`,
		Version: version,
		// The positional form uses single-dash words like -s and -write,
		// which cobra would read as shorthand flags.
		DisableFlagParsing: true,
		Args:               cobra.ArbitraryArgs,
		SilenceUsage:       true,
		SilenceErrors:      true,
		RunE:               runLegacy,
	}
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.learnq/config.yaml)")

	askCmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask one question in plain English",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAsk,
	}

	configureCmd := &cobra.Command{
		Use:   "configure",
		Short: "Configure the LMS connection and LLM provider",
		RunE:  runConfigure,
	}

	coursesCmd := &cobra.Command{
		Use:   "courses",
		Short: "List course titles",
		RunE:  runCourses,
	}
	coursesCmd.Flags().BoolVarP(&copyTitles, "copy", "c", false, "Copy the titles to the clipboard")

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent questions",
		RunE:  runHistory,
	}
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of entries to show")
	historyCmd.Flags().BoolVar(&clearHistory, "clear", false, "Delete all history")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(configureCmd)
	rootCmd.AddCommand(coursesCmd)
	rootCmd.AddCommand(historyCmd)

	if err := rootCmd.Execute(); err != nil {
		ui.ShowError(os.Stderr, session.UserMessage(err))
		os.Exit(1)
	}
}

// runLegacy handles "learnq [courseOrFlag] [instruction] [filter] [userListFlag]".
func runLegacy(cmd *cobra.Command, args []string) error {
	g, rest := splitGlobalArgs(args)
	debug = debug || g.Debug
	if g.ConfigPath != "" {
		configPath = g.ConfigPath
	}
	out := cmd.OutOrStdout()

	switch {
	case g.Help:
		return cmd.Help()
	case g.Version:
		fmt.Fprintf(out, "learnq %s (commit %s, built %s)\n", version, commit, date)
		return nil
	}

	la := parseLegacyArgs(rest)
	if la.Instruction == "" || la.Instruction == flagHelp {
		if la.Subject != "" {
			ui.ShowWarning(out, fmt.Sprintf("%q needs an instruction", la.Subject))
		}
		ui.RenderHelp(out)
		return nil
	}

	ctx := context.Background()
	a, err := newApp(ctx, appOptions{
		configPath: configPath,
		debug:      debug,
		needLLM:    la.Instruction == flagQuery,
	})
	if err != nil {
		return err
	}
	defer a.close()

	switch la.Instruction {
	case flagQuery:
		return a.runQuery(ctx, os.Stdin, out)
	case flagList:
		ui.RenderCourses(out, a.pipeline.ListCourses())
	case flagUsers:
		ui.RenderUsers(out, a.pipeline.Users())
	case flagDaily:
		ui.RenderDaily(out, a.pipeline.DailyActivity(a.cfg.Report.DailyDays))
	case flagWrite:
		return a.writeCourses(la.Path, out)
	default:
		return a.runFlagCommand(ctx, la, out)
	}
	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := newApp(ctx, appOptions{configPath: configPath, debug: debug, needLLM: true})
	if err != nil {
		return err
	}
	defer a.close()

	return a.ask(ctx, strings.Join(args, " "), cmd.OutOrStdout())
}

func runCourses(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := newApp(ctx, appOptions{configPath: configPath, debug: debug})
	if err != nil {
		return err
	}
	defer a.close()

	out := cmd.OutOrStdout()
	titles := a.pipeline.ListCourses()
	ui.RenderCourses(out, titles)

	if copyTitles && len(titles) > 0 {
		if err := clipboard.WriteAll(strings.Join(titles, "\n")); err != nil {
			ui.ShowWarning(cmd.ErrOrStderr(), fmt.Sprintf("Could not copy to clipboard: %v", err))
			return nil
		}
		ui.ShowSuccess(cmd.ErrOrStderr(), fmt.Sprintf("Copied %d titles to clipboard", len(titles)))
	}
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configPath, debug)
	if err != nil {
		return err
	}

	path := cfg.History.Path
	if path == "" {
		if path, err = history.GetHistoryPath(); err != nil {
			return err
		}
	}
	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	out := cmd.OutOrStdout()

	if clearHistory {
		n, err := store.Count(ctx)
		if err != nil {
			return err
		}
		if err := store.Clear(ctx); err != nil {
			return err
		}
		ui.ShowSuccess(out, fmt.Sprintf("Deleted %d history entries", n))
		return nil
	}

	entries, err := store.Recent(ctx, historyLimit)
	if err != nil {
		return err
	}
	ui.RenderHistory(out, entries)
	return nil
}

func runConfigure(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if !ui.IsInteractive(os.Stdin) {
		return fmt.Errorf("configure needs an interactive terminal; edit ~/.learnq/config.yaml instead")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Welcome to learnq configuration!")
	fmt.Fprintln(out)

	if cfg.LMS.BaseURL, err = ui.PromptForInput("LMS API base URL:", cfg.LMS.BaseURL, true); err != nil {
		return err
	}
	if cfg.LMS.APIKey, err = ui.PromptForSecret("LMS API key:", cfg.LMS.APIKey); err != nil {
		return err
	}

	provider, err := ui.ConfigureProvider([]ui.ProviderOption{
		{Label: "OpenAI-compatible chat API", Value: string(config.ProviderOpenAI)},
		{Label: "Claude Code CLI", Value: string(config.ProviderClaude)},
	}, string(cfg.LLM.Provider))
	if err != nil {
		return err
	}
	cfg.LLM.Provider = config.Provider(provider)

	switch cfg.LLM.Provider {
	case config.ProviderOpenAI:
		if cfg.LLM.Endpoint, err = ui.PromptForInput("Chat completions endpoint:", cfg.LLM.Endpoint, true); err != nil {
			return err
		}
		if cfg.LLM.Model, err = ui.PromptForInput("Model:", cfg.LLM.Model, true); err != nil {
			return err
		}
		if cfg.LLM.APIKey, err = ui.PromptForSecret("LLM API key:", cfg.LLM.APIKey); err != nil {
			return err
		}
	case config.ProviderClaude:
		if !agent.IsClaudeCLIInstalled() {
			ui.ShowWarning(out, "Claude Code CLI not found in PATH. Install it before running learnq -q.")
		}
	}

	if cfg.History.Enabled, err = ui.Confirm("Keep a history of questions?", cfg.History.Enabled); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		ui.ShowWarning(out, session.UserMessage(err))
	}

	path := configPath
	if path == "" {
		if path, err = config.GetConfigPath(); err != nil {
			return err
		}
	}
	if err := config.Save(cfg, path); err != nil {
		return err
	}

	fmt.Fprintln(out)
	ui.ShowSuccess(out, fmt.Sprintf("Configuration saved to %s", path))
	return nil
}
