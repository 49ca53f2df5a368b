package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"netgraph/internal/codec"
	"netgraph/internal/config"
	"netgraph/internal/domain"
	"netgraph/internal/loader"
	"netgraph/internal/metrics"
	"netgraph/internal/repository/sqlite"
	"netgraph/internal/service"

	"github.com/urfave/cli/v2"
)

// =============================================================================
// CHECK COMMAND
// =============================================================================

func checkCommand(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Parse descriptor files and report the first diagnostic of each",
		ArgsUsage: "<file>...",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "jobs",
				Value: loader.DefaultConcurrency,
				Usage: "Files parsed at once",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return cli.Exit("check: at least one file is required", 2)
			}

			l := loader.New(rt.logger, rt.parserOptions()...).WithConcurrency(c.Int("jobs"))
			results, err := l.LoadAll(c.Context, c.Args().Slice())
			if err != nil {
				return err
			}

			failed := 0
			for _, res := range results {
				if res.Err != nil {
					failed++
					fmt.Fprintf(rt.stdout, "FAIL %s: %v\n", res.Path, res.Err)
					continue
				}
				fmt.Fprintf(rt.stdout, "ok   %s (%d nodes, %d links)\n",
					res.Path, res.Graph.Len(), res.Graph.LinkCount())
			}

			if failed > 0 {
				return cli.Exit(fmt.Sprintf("%d of %d files failed", failed, len(results)), 1)
			}
			return nil
		},
	}
}

// =============================================================================
// EXPORT / SHOW COMMANDS
// =============================================================================

func exportCommand(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Parse a descriptor file and write it in another format",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   codec.FormatJSON,
				Usage:   "Output format (" + strings.Join(codec.Formats(), ", ") + ")",
			},
		},
		Action: func(c *cli.Context) error {
			graph, err := loadOne(c, rt)
			if err != nil {
				return err
			}
			out, err := codec.ForFormat(c.String("format"))
			if err != nil {
				return err
			}
			return out.Export(graph, rt.stdout)
		},
	}
}

func showCommand(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Parse a descriptor file and list its nodes and neighbours",
		ArgsUsage: "<file>",
		Action: func(c *cli.Context) error {
			graph, err := loadOne(c, rt)
			if err != nil {
				return err
			}
			return printGraph(rt, graph)
		},
	}
}

func loadOne(c *cli.Context, rt *runtime) (*domain.Graph, error) {
	if c.NArg() != 1 {
		return nil, cli.Exit(c.Command.Name+": exactly one file is required", 2)
	}
	return loader.New(rt.logger, rt.parserOptions()...).Load(c.Context, c.Args().First())
}

func printGraph(rt *runtime, graph *domain.Graph) error {
	tw := tabwriter.NewWriter(rt.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tTYPE\tNAME\tNEIGHBOURS")
	for i, n := range graph.Nodes() {
		var names []string
		for _, j := range graph.Neighbors(i) {
			nb, _ := graph.Node(j)
			names = append(names, nb.Name)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i, n.Type, n.Name, strings.Join(names, ","))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	counts := graph.CountByType()
	types := make([]domain.AssetType, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Slice(types, func(a, b int) bool { return types[a] < types[b] })

	parts := make([]string, 0, len(types))
	for _, t := range types {
		parts = append(parts, fmt.Sprintf("%s=%d", t, counts[t]))
	}
	fmt.Fprintf(rt.stdout, "%d nodes, %d links (%s)\n", graph.Len(), graph.LinkCount(), strings.Join(parts, " "))
	return nil
}

// =============================================================================
// LEVEL STORE COMMANDS
// =============================================================================

// openService opens the level store for one-shot commands. Events and metrics
// are recorded but nothing reads them.
func openService(rt *runtime) (*service.LevelService, func(), error) {
	repo, err := sqlite.New(rt.cfg.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	svc := service.NewLevelService(repo, service.NewEventBus(), metrics.NewRegistry(), rt.logger, rt.parserOptions()...)
	return svc, func() { repo.Close() }, nil
}

func importCommand(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Parse a descriptor file and store it as a level",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "name",
				Aliases: []string{"n"},
				Usage:   "Level name (default: file name without extension)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   codec.FormatDescriptor,
				Usage:   "Input format (" + strings.Join(codec.Formats(), ", ") + ")",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("import: exactly one file is required", 2)
			}
			path := c.Args().First()
			name := c.String("name")
			if name == "" {
				name = loader.LevelName(path)
			}

			svc, closeFn, err := openService(rt)
			if err != nil {
				return err
			}
			defer closeFn()

			f, err := os.Open(path)
			if err != nil {
				return domain.NewIoError(err)
			}
			defer f.Close()

			level, err := svc.ImportFormat(c.Context, name, c.String("format"), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(rt.stdout, "stored %s (%d nodes, %d links)\n",
				level.Name, level.Graph.Len(), level.Graph.LinkCount())
			return nil
		},
	}
}

func levelsCommand(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "levels",
		Usage: "Inspect the level store",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List stored levels",
				Action: func(c *cli.Context) error {
					return withService(c.Context, rt, func(ctx context.Context, svc *service.LevelService) error {
						levels, err := svc.List(ctx)
						if err != nil {
							return err
						}
						tw := tabwriter.NewWriter(rt.stdout, 0, 4, 2, ' ', 0)
						fmt.Fprintln(tw, "NAME\tNODES\tLINKS\tUPDATED")
						for _, l := range levels {
							fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", l.Name, l.Nodes, l.Links, l.UpdatedAt.Format("2006-01-02 15:04:05"))
						}
						return tw.Flush()
					})
				},
			},
			{
				Name:      "export",
				Usage:     "Write a stored level to stdout",
				ArgsUsage: "<name>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   codec.FormatDescriptor,
						Usage:   "Output format (" + strings.Join(codec.Formats(), ", ") + ")",
					},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit("levels export: exactly one level name is required", 2)
					}
					return withService(c.Context, rt, func(ctx context.Context, svc *service.LevelService) error {
						return svc.Export(ctx, c.Args().First(), c.String("format"), rt.stdout)
					})
				},
			},
			{
				Name:      "delete",
				Usage:     "Remove a stored level",
				ArgsUsage: "<name>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit("levels delete: exactly one level name is required", 2)
					}
					return withService(c.Context, rt, func(ctx context.Context, svc *service.LevelService) error {
						if err := svc.Delete(ctx, c.Args().First()); err != nil {
							return err
						}
						fmt.Fprintf(rt.stdout, "deleted %s\n", c.Args().First())
						return nil
					})
				},
			},
		},
	}
}

func withService(ctx context.Context, rt *runtime, fn func(context.Context, *service.LevelService) error) error {
	svc, closeFn, err := openService(rt)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(ctx, svc)
}

// =============================================================================
// CONFIG COMMAND
// =============================================================================

func configCommand(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Show or write the configuration",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the effective configuration",
				Action: func(c *cli.Context) error {
					source := rt.configPath
					if source == "" {
						source = "(defaults)"
					}
					fmt.Fprintf(rt.stdout, "Config: %s\n%s\n", source, rt.cfg.Summary())
					return nil
				},
			},
			{
				Name:      "init",
				Usage:     "Write the effective configuration to a file (default: user config dir)",
				ArgsUsage: "[path]",
				Action: func(c *cli.Context) error {
					path := c.Args().First()
					if path == "" {
						path = config.DefaultConfigPath()
					}
					if err := rt.cfg.Save(path); err != nil {
						return err
					}
					fmt.Fprintf(rt.stdout, "wrote %s\n", path)
					return nil
				},
			},
		},
	}
}
