// Package main provides the newsagent command: an interactive ReAct agent that
// searches recent news about a topic and reports its sentiment.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/muesli/termenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/entrhq/newsagent/pkg/agent"
	"github.com/entrhq/newsagent/pkg/agent/usage"
	"github.com/entrhq/newsagent/pkg/config"
	"github.com/entrhq/newsagent/pkg/executor/cli"
	"github.com/entrhq/newsagent/pkg/executor/headless"
	"github.com/entrhq/newsagent/pkg/llm/tokenizer"
	"github.com/entrhq/newsagent/pkg/logging"
	"github.com/entrhq/newsagent/pkg/metrics"
)

const version = "0.1.0"

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigFile  string
	Model       string
	BaseURL     string
	MaxSteps    int
	MaxRetries  int
	Quiet       bool
	NoTokens    bool
	LogLevel    string
	MetricsAddr string
	WriteConfig string
	ShowVersion bool

	// Headless batch mode
	Topics      topicList
	OutputDir   string
	TokenBudget int
	Timeout     time.Duration

	// set records which flags appeared on the command line.
	set map[string]bool
}

func main() {
	// Parse command line flags
	cliConfig := parseFlags(flag.CommandLine, os.Args[1:])

	// Show version if requested
	if cliConfig.ShowVersion {
		fmt.Printf("newsagent v%s\n", version)
		return
	}

	// Cancel on Ctrl+C or SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	if err := run(ctx, cliConfig, os.Getenv); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "newsagent: %v\n", err)
		os.Exit(1)
	}
	stop()
}

// parseFlags parses command line flags
func parseFlags(fs *flag.FlagSet, args []string) *CLIConfig {
	c := &CLIConfig{set: make(map[string]bool)}

	fs.StringVar(&c.ConfigFile, "config", "", "Path to configuration file (default ~/.newsagent/config.yaml)")
	fs.StringVar(&c.Model, "model", "", "LLM model to use (default "+config.DefaultModel+")")
	fs.StringVar(&c.BaseURL, "base-url", "", "OpenAI-compatible API base URL")
	fs.IntVar(&c.MaxSteps, "max-steps", 0, "Maximum tool invocations per topic")
	fs.IntVar(&c.MaxRetries, "max-retries", 0, "Maximum consecutive malformed steps per topic")
	fs.BoolVar(&c.Quiet, "quiet", false, "Only print verdicts, not thoughts and observations")
	fs.BoolVar(&c.NoTokens, "no-tokens", false, "Hide the per-step token monitor")
	fs.StringVar(&c.LogLevel, "log-level", "info", "Log file verbosity: debug, info, warn or error")
	fs.StringVar(&c.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	fs.StringVar(&c.WriteConfig, "write-config", "", "Write the effective configuration to this path and exit")
	fs.BoolVar(&c.ShowVersion, "version", false, "Show version and exit")
	fs.Var(&c.Topics, "topic", "Analyze this topic without prompting (repeatable)")
	fs.StringVar(&c.OutputDir, "output-dir", ".newsagent/artifacts", "Directory for batch artifacts")
	fs.IntVar(&c.TokenBudget, "token-budget", 0, "Stop a batch topic after this many tokens (0 = unlimited)")
	fs.DurationVar(&c.Timeout, "timeout", 5*time.Minute, "Per-topic timeout in batch mode")

	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintf(out, "newsagent - News sentiment agent\n\n")
		fmt.Fprintf(out, "Usage: newsagent [options]\n\n")
		fmt.Fprintf(out, "Type a topic at the prompt; x, sair, exit or quit leaves.\n")
		fmt.Fprintf(out, "The model credential is read from $%s.\n\n", config.DefaultAPIKeyEnv)
		fmt.Fprintf(out, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(out, "\nExamples:\n")
		fmt.Fprintf(out, "  newsagent\n")
		fmt.Fprintf(out, "  echo COP30 | newsagent -quiet\n")
		fmt.Fprintf(out, "  newsagent -model gemini-2.0-flash -max-steps 4\n")
		fmt.Fprintf(out, "  newsagent -topic COP30 -topic Petrobras -output-dir reports\n")
	}

	// flag.CommandLine exits on parse errors
	_ = fs.Parse(args)
	fs.Visit(func(f *flag.Flag) { c.set[f.Name] = true })
	return c
}

// applyFlags layers explicitly set flags over file and environment values.
func applyFlags(cfg *config.Config, c *CLIConfig) {
	if c.set["model"] {
		cfg.LLM.Model = c.Model
	}
	if c.set["base-url"] {
		cfg.LLM.BaseURL = c.BaseURL
	}
	if c.set["max-steps"] {
		cfg.Agent.MaxSteps = c.MaxSteps
	}
	if c.set["max-retries"] {
		cfg.Agent.MaxParseRetries = c.MaxRetries
	}
	if c.set["quiet"] {
		cfg.UI.Verbose = !c.Quiet
	}
	if c.set["no-tokens"] {
		cfg.UI.ShowTokens = !c.NoTokens
	}
	if c.set["metrics-addr"] {
		cfg.Metrics.Addr = c.MetricsAddr
	}
}

// loadConfig resolves CLI flags > environment variables > config file > defaults.
func loadConfig(c *CLIConfig, getenv func(string) string) (*config.Config, error) {
	cfg, err := config.Load(c.ConfigFile)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(getenv)
	applyFlags(cfg, c)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// run wires the agent and drives either the interactive loop or a -topic batch.
// getenv is os.Getenv outside tests.
func run(ctx context.Context, c *CLIConfig, getenv func(string) string) error {
	cfg, err := loadConfig(c, getenv)
	if err != nil {
		return err
	}

	if c.WriteConfig != "" {
		if err := config.Save(c.WriteConfig, cfg); err != nil {
			return err
		}
		fmt.Printf("Configuration written to %s\n", c.WriteConfig)
		return nil
	}

	logging.SetLevel(logging.ParseLevel(c.LogLevel))

	apiKey, err := cfg.LLM.ResolveAPIKey(getenv)
	if err != nil {
		return err
	}

	provider, err := config.BuildProvider(cfg.LLM, apiKey)
	if err != nil {
		return err
	}

	registry, err := buildRegistry(cfg, getenv)
	if err != nil {
		return err
	}

	session := &usage.Session{}
	agentOpts := []agent.AgentOption{
		agent.WithLoopConfig(agent.LoopConfig{
			MaxSteps:        cfg.Agent.MaxSteps,
			MaxParseRetries: cfg.Agent.MaxParseRetries,
			LLMTimeout:      cfg.LLM.Timeout,
		}),
		agent.WithCustomInstructions(cfg.Agent.Instructions),
		agent.WithUsageSession(session),
	}

	tok, err := tokenizer.New()
	if err != nil {
		mainLog.Warnf("tokenizer unavailable, prompt sizes and usage estimates disabled: %v", err)
	} else {
		agentOpts = append(agentOpts,
			agent.WithTokenizer(tok),
			agent.WithUsageEstimation(cfg.LLM.EstimateUsage),
		)
	}

	ag, err := agent.NewReActAgent(provider, registry, agentOpts...)
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	var observer agent.EventHandler
	if cfg.Metrics.Addr != "" {
		reg := prometheus.NewRegistry()
		collector, err := metrics.NewCollector(reg)
		if err != nil {
			return err
		}
		observer = collector.Observe
		g.Go(func() error {
			return metrics.Serve(gctx, cfg.Metrics.Addr, reg)
		})
	}

	g.Go(func() error {
		// The metrics server lives as long as the agent work
		defer cancel()
		if len(c.Topics) > 0 {
			return runHeadless(gctx, ag, c, observer)
		}
		return runInteractive(gctx, ag, cfg, session, observer)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// runInteractive reads topics from stdin until a sentinel or EOF.
func runInteractive(ctx context.Context, ag agent.Agent, cfg *config.Config, session *usage.Session, observer agent.EventHandler) error {
	execOpts := []cli.ExecutorOption{
		cli.WithVerbose(cfg.UI.Verbose),
		cli.WithTokenMonitor(cfg.UI.ShowTokens),
		cli.WithInteractive(term.IsTerminal(int(os.Stdin.Fd()))),
		cli.WithUsageSession(session),
	}
	if profile, ok := colorProfile(cfg.UI.Color); ok {
		execOpts = append(execOpts, cli.WithColorProfile(profile))
	}
	if observer != nil {
		execOpts = append(execOpts, cli.WithEventObserver(observer))
	}

	return cli.NewExecutor(ag, execOpts...).Run(ctx)
}

// runHeadless analyzes the -topic list and prints one verdict line per topic.
func runHeadless(ctx context.Context, ag agent.Agent, c *CLIConfig, observer agent.EventHandler) error {
	hcfg := headless.DefaultConfig()
	hcfg.Topics = c.Topics
	hcfg.Constraints.MaxTokens = c.TokenBudget
	hcfg.Constraints.Timeout = c.Timeout
	hcfg.Artifacts.OutputDir = c.OutputDir
	hcfg.Verbose = c.LogLevel == "debug"

	var opts []headless.ExecutorOption
	if observer != nil {
		opts = append(opts, headless.WithEventObserver(observer))
	}

	executor, err := headless.NewExecutor(ag, hcfg, opts...)
	if err != nil {
		return err
	}

	summary, err := executor.Run(ctx)
	for _, r := range summary.Runs {
		if r.Answer != "" {
			fmt.Printf("%s: %s\n", r.Topic, r.Answer)
		} else {
			fmt.Printf("%s: %s (%s)\n", r.Topic, r.Status, r.Error)
		}
	}
	fmt.Printf("Batch %s: %d/%d topics answered, %d tokens. Artifacts in %s\n",
		summary.Status, summary.Metrics.Succeeded, summary.Metrics.Topics, summary.Metrics.TokensUsed, c.OutputDir)
	return err
}

// topicList collects repeated -topic flags.
type topicList []string

func (t *topicList) String() string {
	if t == nil {
		return ""
	}
	return strings.Join(*t, ", ")
}

func (t *topicList) Set(v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return errors.New("topic cannot be empty")
	}
	*t = append(*t, v)
	return nil
}

// colorProfile maps ui.color to a forced profile. Auto returns false so the
// renderer detects the terminal itself.
func colorProfile(mode string) (termenv.Profile, bool) {
	switch mode {
	case config.ColorAlways:
		return termenv.TrueColor, true
	case config.ColorNever:
		return termenv.Ascii, true
	default:
		return termenv.Ascii, false
	}
}
