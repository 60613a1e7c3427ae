package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/boshu2/completion-review/embedded"
	"github.com/boshu2/completion-review/internal/adapter"
	"github.com/boshu2/completion-review/internal/audit"
	"github.com/boshu2/completion-review/internal/completion"
	"github.com/boshu2/completion-review/internal/config"
	"github.com/boshu2/completion-review/internal/fanout"
	"github.com/boshu2/completion-review/internal/hookio"
	"github.com/boshu2/completion-review/internal/orchestrator"
	"github.com/boshu2/completion-review/internal/quota"
	"github.com/boshu2/completion-review/internal/state"
)

var (
	cfgFile  string
	stateDir string
	verbose  bool
)

// rootCmd reads one HookInput on stdin and writes exactly one decision
// object to stdout. SilenceUsage keeps a run-time failure from dumping
// cobra usage text onto the channel reserved for that decision.
var rootCmd = &cobra.Command{
	Use:   "completion-review",
	Short: "Completion-triggered code review hook for Claude Code",
	Long: `completion-review watches a session's todo list. The moment every
item transitions to completed, it runs a self-review and any configured
external reviewers, optionally escalates disagreement through a debate,
and tells the host assistant whether to continue.`,
	SilenceUsage: true,
	RunE:         runHook,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .claude/completion-review.yaml, then ~/.claude/completion-review.yaml)")
	rootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", "", "override the state/audit directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose diagnostic logging to stderr")
}

// Execute runs the root command, exiting nonzero only on a cobra-level
// failure (bad flags) — orchestration failures are always reported as a
// non-blocking HookOutput, never a nonzero exit.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogging() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func loadConfig() *config.Config {
	overrides := &config.Config{}
	if cfgFile != "" {
		if err := os.Setenv("COMPLETION_REVIEW_CONFIG", cfgFile); err != nil {
			slog.Warn("failed to set COMPLETION_REVIEW_CONFIG", "error", err)
		}
	}
	if stateDir != "" {
		overrides.StateDir = stateDir
	}
	if verbose {
		overrides.Verbose = true
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		slog.Warn("config: load failed, proceeding with defaults", "error", err)
		return config.Default()
	}
	return cfg
}

func runHook(cmd *cobra.Command, args []string) error {
	setupLogging()
	cfg := loadConfig()

	in, err := hookio.ReadInput(cmd.InOrStdin())
	if err != nil {
		slog.Warn("hookio: failed to parse stdin", "error", err)
		return hookio.WriteOutput(cmd.OutOrStdout(), hookio.ParseFailureOutput())
	}

	orch := buildOrchestrator(cfg)
	out := orch.Orchestrate(context.Background(), in)
	return hookio.WriteOutput(cmd.OutOrStdout(), out)
}

// buildOrchestrator wires every subsystem for one invocation. External
// adapters are constructed fresh each time so a quota cooldown recorded
// moments earlier, or a config edit, takes effect immediately.
func buildOrchestrator(cfg *config.Config) *orchestrator.Orchestrator {
	store := state.New(cfg.StateDir)
	q := quota.New(store)
	detector := completion.New(store)
	sink := audit.New(cfg.StateDir)
	fe := fanout.New(q, 0)

	promptFile := embedded.PromptSelfSimple
	if cfg.SelfReview.UseSubagent {
		promptFile = embedded.PromptSelfSubagent
	}
	self := adapter.NewSelfReviewAdapter(embedded.Prompts, promptFile)

	externals := make([]adapter.ReviewAdapter, 0, len(cfg.Adapters))
	for name, ac := range cfg.Adapters {
		a, err := buildExternalAdapter(name, ac)
		if err != nil {
			slog.Warn("adapter: skipping misconfigured adapter", "name", name, "error", err)
			continue
		}
		externals = append(externals, a)
	}

	o := orchestrator.New(cfg, detector, q, fe, sink, self, externals)
	return o
}

func buildExternalAdapter(name string, ac config.AdapterConfig) (adapter.ReviewAdapter, error) {
	if ac.Transport == "http" {
		transport := adapter.NewHTTPTransport(ac.URL, ac.APIKey)
		return adapter.NewExternalAdapter(name, transport, embedded.Prompts, embedded.PromptExternalReview, nil), nil
	}
	transport := adapter.NewSubprocessTransport(ac.Binary, ac.Args...)
	return adapter.NewExternalAdapter(name, transport, embedded.Prompts, embedded.PromptExternalReview, transport.Available), nil
}
