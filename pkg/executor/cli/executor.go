// Package cli provides the interactive command-line surface of newsagent.
//
// Each line read is a topic. The executor wraps it in the sentiment goal,
// runs the agent, renders progress events and prints the verdict. A failed
// run is reported and the loop keeps reading; only a sentinel, EOF or
// cancellation ends it.
//
// Example usage:
//
//	ag, _ := agent.NewReActAgent(provider, registry)
//	executor := cli.NewExecutor(ag, cli.WithVerbose(true))
//	if err := executor.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/entrhq/newsagent/pkg/agent"
	"github.com/entrhq/newsagent/pkg/agent/prompts"
	"github.com/entrhq/newsagent/pkg/agent/usage"
	"github.com/entrhq/newsagent/pkg/logging"
	"github.com/entrhq/newsagent/pkg/ui"
)

var cliLog *logging.Logger

func init() {
	var err error
	cliLog, err = logging.NewLogger("cli")
	if err != nil {
		cliLog.Warnf("Failed to initialize cli logger, using stderr fallback: %v", err)
	}
}

// Executor reads topics from the terminal and runs the agent for each.
type Executor struct {
	agent  agent.Agent
	reader *bufio.Reader
	writer io.Writer

	renderer *lipgloss.Renderer
	styles   *styles
	profile  *termenv.Profile

	// Display options
	verbose     bool
	showTokens  bool
	interactive bool

	observer agent.EventHandler
	session  *usage.Session
	goalFor  func(topic string) string
}

// ExecutorOption is a function that configures an Executor.
type ExecutorOption func(*Executor)

// WithReader sets the input source (default is os.Stdin).
func WithReader(r io.Reader) ExecutorOption {
	return func(e *Executor) {
		e.reader = bufio.NewReader(r)
	}
}

// WithWriter sets a custom output writer (default is os.Stdout).
func WithWriter(w io.Writer) ExecutorOption {
	return func(e *Executor) {
		e.writer = w
	}
}

// WithVerbose enables rendering of thoughts, actions and observations.
func WithVerbose(verbose bool) ExecutorOption {
	return func(e *Executor) {
		e.verbose = verbose
	}
}

// WithTokenMonitor enables the per-step token line.
func WithTokenMonitor(show bool) ExecutorOption {
	return func(e *Executor) {
		e.showTokens = show
	}
}

// WithInteractive prints the banner and an input prompt. Off when input is piped.
func WithInteractive(interactive bool) ExecutorOption {
	return func(e *Executor) {
		e.interactive = interactive
	}
}

// WithColorProfile forces a color profile instead of detecting one from the writer.
func WithColorProfile(p termenv.Profile) ExecutorOption {
	return func(e *Executor) {
		e.profile = &p
	}
}

// WithEventObserver receives every event after it is rendered.
func WithEventObserver(h agent.EventHandler) ExecutorOption {
	return func(e *Executor) {
		e.observer = h
	}
}

// WithUsageSession reports session totals on exit. The same session should be
// attached to the agent with agent.WithUsageSession.
func WithUsageSession(s *usage.Session) ExecutorOption {
	return func(e *Executor) {
		e.session = s
	}
}

// WithGoalTemplate replaces the topic-to-goal wrapper.
func WithGoalTemplate(fn func(topic string) string) ExecutorOption {
	return func(e *Executor) {
		e.goalFor = fn
	}
}

// NewExecutor creates a new CLI executor for the given agent.
func NewExecutor(ag agent.Agent, opts ...ExecutorOption) *Executor {
	e := &Executor{
		agent:       ag,
		reader:      bufio.NewReader(os.Stdin),
		writer:      os.Stdout,
		verbose:     true,
		showTokens:  true,
		interactive: true,
		goalFor:     prompts.BuildTopicGoal,
	}

	for _, opt := range opts {
		opt(e)
	}

	e.renderer = lipgloss.NewRenderer(e.writer)
	if e.profile != nil {
		e.renderer.SetColorProfile(*e.profile)
	}
	e.styles = newStyles(e.renderer)

	return e
}

// Run reads topics until a sentinel, EOF or cancellation.
// A canceled context returns ctx.Err(); every other exit returns nil.
func (e *Executor) Run(ctx context.Context) error {
	if e.interactive {
		e.printBanner()
	}

	for {
		// Check if context is canceled
		if err := ctx.Err(); err != nil {
			return err
		}

		if e.interactive {
			fmt.Fprint(e.writer, e.styles.prompt.Render("Topic> "))
		}

		line, err := e.reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to read input: %w", err)
		}
		eof := errors.Is(err, io.EOF)

		topic := strings.TrimSpace(line)
		if IsSentinel(topic) || (eof && topic == "") {
			e.printGoodbye()
			return nil
		}

		if topic != "" {
			if err := e.runTopic(ctx, topic); err != nil {
				return err
			}
		}

		if eof {
			e.printGoodbye()
			return nil
		}
	}
}

// runTopic runs one goal. Only cancellation is returned; other failures,
// panics included, are rendered and swallowed so the loop can take the next topic.
func (e *Executor) runTopic(ctx context.Context, topic string) (err error) {
	goal := e.goalFor(topic)
	cliLog.Infof("running topic %q", topic)

	defer func() {
		if p := recover(); p != nil {
			cliLog.Errorf("topic %q panicked: %v", topic, p)
			e.printFailure(fmt.Errorf("run panicked: %v", p))
			err = nil
		}
	}()

	result, err := e.agent.Run(ctx, goal, e.handleEvent)
	if err != nil {
		if ctx.Err() != nil {
			fmt.Fprintln(e.writer, e.styles.tips.Render("\nCanceled."))
			return ctx.Err()
		}
		cliLog.Errorf("topic %q failed: %v", topic, err)
		e.printFailure(err)
		return nil
	}

	e.printResult(result)
	return nil
}

func (e *Executor) printBanner() {
	fmt.Fprintln(e.writer, e.styles.header.Render(ui.GenerateASCIIArt("NEWS")))
	fmt.Fprintln(e.writer, e.styles.header.Render("News Sentiment Agent"))
	fmt.Fprintln(e.writer, e.styles.tips.Render("Type a topic and press Enter. Type x, sair, exit or quit to leave."))
	fmt.Fprintln(e.writer)
}

func (e *Executor) printGoodbye() {
	if e.session != nil {
		if runs, tokens := e.session.Totals(); runs > 0 {
			fmt.Fprintln(e.writer, e.styles.tips.Render(fmt.Sprintf("Session: %d runs, %d tokens", runs, tokens)))
		}
	}
	fmt.Fprintln(e.writer, "Goodbye!")
}
