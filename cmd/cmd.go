// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// rootCommand is the qfill entry point: connect, build the chain, run the
// queue-fill loop.
func rootCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "qfill",
		Usage:   "Keep MPD's play queue stocked with randomly chosen tracks",
		Version: "0.3.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "MPD host, socket path, or password@host",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "MPD port",
			},
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Read track URIs from a file instead of the MPD library ('-' for stdin)",
			},
			&cli.BoolFlag{
				Name:  "no-check",
				Usage: "With --file, trust every URI without resolving it against the library",
			},
			&cli.StringSliceFlag{
				Name:    "exclude",
				Aliases: []string{"e"},
				Usage:   "Exclusion rule as tag=pattern pairs, e.g. 'artist=aerosmith,album=live' (repeatable)",
			},
			&cli.IntFlag{
				Name:    "queue-buffer",
				Aliases: []string{"q"},
				Usage:   "Number of tracks to keep queued beyond the one playing",
			},
			&cli.IntFlag{
				Name:  "window-size",
				Usage: "Number of recently added pools eligible for selection",
			},
			&cli.StringSliceFlag{
				Name:    "group-by",
				Aliases: []string{"g"},
				Usage:   "Group tracks into equal-weight pools by tag, e.g. 'album' (repeatable)",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "qfill.toml",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		Action:   r.Run,
		Commands: []*cli.Command{configCommand(r)},
	}
}

// configCommand handles configuration file management.
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration file commands",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write an example configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to write",
						Value:   "qfill.toml",
					},
				},
				Action: r.ConfigInit,
			},
		},
	}
}
