// netgraph parses network topology descriptors and serves them as levels.
//
// Usage:
//
//	netgraph check levels/*.txt
//	netgraph export --format json levels/test01.txt
//	netgraph import --name lab levels/test01.txt
//	netgraph serve
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"netgraph/internal/codec"
	"netgraph/internal/config"
	"netgraph/internal/logging"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

var (
	version = "dev"
	commit  = "none"
)

// runtime holds what the Before hook resolves for every command
type runtime struct {
	cfg        *config.Config
	configPath string
	logger     zerolog.Logger
	stdout     io.Writer
	stderr     io.Writer
}

// parserOptions returns the codec options implied by the config
func (rt *runtime) parserOptions() []codec.Option {
	opts := []codec.Option{codec.WithLogger(rt.logger)}
	if rt.cfg.Parser.StrictNames {
		opts = append(opts, codec.WithStrictNames())
	}
	return opts
}

func main() {
	err := newApp(os.Stdout, os.Stderr).Run(os.Args)
	if err == nil {
		return
	}

	code := 1
	var exit cli.ExitCoder
	if errors.As(err, &exit) {
		code = exit.ExitCode()
	}
	if msg := err.Error(); msg != "" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	}
	os.Exit(code)
}

func newApp(stdout, stderr io.Writer) *cli.App {
	rt := &runtime{stdout: stdout, stderr: stderr}

	return &cli.App{
		Name:      "netgraph",
		Usage:     "Parse network topology descriptors and serve them as levels",
		Version:   fmt.Sprintf("%s (commit: %s)", version, commit),
		Writer:    stdout,
		ErrWriter: stderr,
		// main maps errors to exit codes
		ExitErrHandler: func(c *cli.Context, err error) {},

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (default: search NETGRAPH_CONFIG, ./netgraph.yaml, ...)",
				EnvVars: []string{"NETGRAPH_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"NETGRAPH_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (console, json)",
				EnvVars: []string{"NETGRAPH_LOG_FORMAT"},
			},
			&cli.StringFlag{
				Name:    "db",
				Usage:   "SQLite database path",
				EnvVars: []string{"NETGRAPH_DB"},
			},
			&cli.StringFlag{
				Name:    "levels-dir",
				Usage:   "Directory of level descriptor files",
				EnvVars: []string{"NETGRAPH_LEVELS_DIR"},
			},
			&cli.BoolFlag{
				Name:    "strict-names",
				Usage:   "Reject descriptors that declare a node name twice",
				EnvVars: []string{"NETGRAPH_STRICT_NAMES"},
			},
		},

		Before: func(c *cli.Context) error {
			return rt.init(c)
		},

		Commands: []*cli.Command{
			checkCommand(rt),
			exportCommand(rt),
			showCommand(rt),
			importCommand(rt),
			levelsCommand(rt),
			configCommand(rt),
			serveCommand(rt),
		},
	}
}

// init loads the config, applies flag overrides and builds the logger
func (rt *runtime) init(c *cli.Context) error {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if p := c.String("config"); p != "" {
		cfg, path, err = config.LoadFromPath(p)
	} else {
		cfg, path, err = config.Load()
	}
	if err != nil {
		return err
	}

	if v := c.String("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if v := c.String("log-format"); v != "" {
		cfg.Log.Format = v
	}
	if v := c.String("db"); v != "" {
		cfg.Database.Path = v
	}
	if v := c.String("levels-dir"); v != "" {
		cfg.LevelsDir = v
	}
	if c.IsSet("strict-names") {
		cfg.Parser.StrictNames = c.Bool("strict-names")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	rt.cfg = cfg
	rt.configPath = path
	rt.logger = logging.New(cfg.Log.Level, cfg.Log.Format, rt.stderr)
	return nil
}
