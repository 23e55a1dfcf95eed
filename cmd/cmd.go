// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, userCommand, syncCommand, libraryCommand, historyCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// setupCommand handles database initialization and migrations.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent database migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// authCommand handles Spotify OAuth2 authentication.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Spotify authentication",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Authenticate with Spotify using OAuth2",
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show current authentication state",
				Action: r.AuthStatus,
			},
		},
	}
}

// userCommand manages local user accounts.
func userCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "Manage local users",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a local user",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "username"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "display-name",
						Usage: "Human-readable display name",
					},
				},
				Action: r.UserCreate,
			},
			{
				Name:   "list",
				Usage:  "List local users",
				Action: r.UserList,
			},
		},
	}
}

// syncCommand runs reconciliation passes.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Reconcile the local mirror with Spotify",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Sync one resource kind (playlist, track, album or artist)",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "kind"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "Username to sync",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Bypass the cooldown gate",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output result as JSON",
					},
				},
				Action: r.SyncRun,
			},
			{
				Name:  "all",
				Usage: "Sync every resource kind",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "Username to sync",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Bypass the cooldown gate",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output result as JSON",
					},
				},
				Action: r.SyncAll,
			},
			{
				Name:  "status",
				Usage: "Show when each kind was last synced",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "Username to inspect",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output result as JSON",
					},
				},
				Action: r.SyncStatus,
			},
		},
	}
}

// libraryCommand reads the mirrored library.
func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "library",
		Usage: "Browse the mirrored library",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List mirrored entities of one kind",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "kind"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "Username whose library to list",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "markdown",
						Usage: "Output a Markdown listing",
					},
					&cli.StringFlag{
						Name:  "csv",
						Usage: "Write a CSV export with this base filename",
					},
				},
				Action: r.LibraryList,
			},
		},
	}
}

// historyCommand ingests and reads listening history.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Listening history",
		Commands: []*cli.Command{
			{
				Name:  "pull",
				Usage: "Fetch recent listens from Spotify and store new ones",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "Username to pull history for",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of listens to fetch",
						Value: 50,
					},
				},
				Action: r.HistoryPull,
			},
			{
				Name:  "list",
				Usage: "Show stored listening history, newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "Username whose history to list",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of listens to show",
						Value: 50,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.HistoryList,
			},
		},
	}
}

// tuiCommand launches the interactive interface.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Interactive terminal interface for syncing",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "user",
				Aliases:  []string{"u"},
				Usage:    "Username to sync",
				Required: true,
			},
		},
		Action: r.TUI,
	}
}
