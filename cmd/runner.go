package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/qfill/internal/connect"
	"github.com/desertthunder/qfill/internal/library"
	"github.com/desertthunder/qfill/internal/loop"
	"github.com/desertthunder/qfill/internal/mpd"
	"github.com/desertthunder/qfill/internal/rules"
	"github.com/desertthunder/qfill/internal/shared"
	"github.com/desertthunder/qfill/internal/shuffle"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	dialer mpd.Dialer
	env    connect.Env
	prompt connect.Prompter
	logger *log.Logger
	output io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Dialer mpd.Dialer
	Env    connect.Env
	Prompt connect.Prompter
	Logger *log.Logger
	Output io.Writer
}

// NewRunner creates a new Runner with the provided dependencies, filling in
// production defaults for any left nil.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Dialer == nil {
		opts.Dialer = mpd.NetDialer{}
	}
	if opts.Env == nil {
		opts.Env = os.Getenv
	}
	if opts.Prompt == nil {
		opts.Prompt = connect.TerminalPrompter()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		dialer: opts.Dialer,
		env:    opts.Env,
		prompt: opts.Prompt,
		logger: opts.Logger,
		output: opts.Output,
	}
}

// Run is the root command action: negotiate a session, build the shuffle
// chain, then keep the queue stocked until interrupted.
func (r *Runner) Run(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	ruleset, err := buildRuleset(config, cmd.StringSlice("exclude"))
	if err != nil {
		return err
	}

	opts := connect.Options{Host: config.MPD.Host, Port: config.MPD.Port}
	if cmd.IsSet("host") {
		opts.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		opts.Port = cmd.Int("port")
	}

	session, err := connect.Negotiate(ctx, r.dialer, opts, r.env, r.prompt, r.logger)
	if err != nil {
		return err
	}
	defer session.Close()

	window := config.Shuffle.Window
	if cmd.IsSet("window-size") {
		window = cmd.Int("window-size")
	}
	groupBy := config.Shuffle.GroupBy
	if cmd.IsSet("group-by") {
		groupBy = cmd.StringSlice("group-by")
	}

	chain := shuffle.New(window)
	builder := library.NewBuilder(session, ruleset, groupBy, r.logger)

	if path := cmd.String("file"); path != "" {
		f, err := openTrackList(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := builder.FromFile(ctx, f, chain, !cmd.Bool("no-check")); err != nil {
			return err
		}
	} else {
		if err := builder.FromLibrary(ctx, chain); err != nil {
			return err
		}
	}

	if chain.Len() == 0 {
		return fmt.Errorf("%w: no tracks matched", shared.ErrEmptyChain)
	}
	r.logger.Info("shuffle chain built", "tracks", chain.Len())

	buffer := config.Queue.Buffer
	if cmd.IsSet("queue-buffer") {
		buffer = cmd.Int("queue-buffer")
	}

	return loop.Run(ctx, session, chain, loop.Options{BufferDepth: buffer}, nil, r.logger)
}

// ConfigInit writes the embedded example config to the given path.
func (r *Runner) ConfigInit(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	fmt.Fprintf(r.output, "wrote %s\n", path)
	return nil
}

// loadConfig reads the config file named by the --config flag. An explicitly
// flagged path must exist; the default path is loaded only when present.
func (r *Runner) loadConfig(cmd *cli.Command) (*shared.Config, error) {
	path := cmd.String("config")
	if !cmd.IsSet("config") {
		if _, err := os.Stat(path); err != nil {
			return shared.DefaultConfig(), nil
		}
	}
	return shared.LoadConfig(path)
}

// buildRuleset combines [[exclude]] config tables with --exclude flag values.
func buildRuleset(config *shared.Config, flagged []string) (rules.Ruleset, error) {
	var ruleset rules.Ruleset
	for _, table := range config.Exclude {
		if len(table) == 0 {
			continue
		}
		ruleset = append(ruleset, rules.FromPairs(table))
	}
	for _, spec := range flagged {
		rule, err := rules.Parse(spec)
		if err != nil {
			return nil, err
		}
		ruleset = append(ruleset, rule)
	}
	return ruleset, nil
}

func openTrackList(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open track list: %w", err)
	}
	return f, nil
}
