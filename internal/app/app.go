package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
)

// Version is reported by --version.
var Version = "dev"

// Run bootstraps the MusiHub backend application. args includes the program name.
func Run(ctx context.Context, args []string) error {
	return newCommand().Run(ctx, args)
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "musihub",
		Usage:   "MusiHub backend: musician profiles and connection requests",
		Version: Version,
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			seedCommand(),
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the HTTP API and notification server",
		Action: serve,
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:   "migrate",
		Usage:  "Apply pending SQL migrations",
		Action: migrateUp,
		Commands: []*cli.Command{
			{
				Name:   "up",
				Usage:  "Apply pending SQL migrations in order",
				Action: migrateUp,
			},
			{
				Name:   "status",
				Usage:  "List migrations and whether they are applied",
				Action: migrateStatus,
			},
		},
	}
}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:      "seed",
		Usage:     "Load seed data into the database",
		ArgsUsage: "<name>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "name"},
		},
		Action: seedFile,
		Commands: []*cli.Command{
			{
				Name:  "fake",
				Usage: "Generate fake musicians with profiles and pending connection requests",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "count",
						Aliases: []string{"n"},
						Usage:   "Number of musicians to create",
						Value:   10,
					},
					&cli.StringFlag{
						Name:  "password",
						Usage: "Password shared by the generated accounts",
						Value: "musihub-dev",
					},
					&cli.Int64Flag{
						Name:  "seed",
						Usage: "Random seed for reproducible data (0 picks one)",
					},
				},
				Action: seedFake,
			},
		},
	}
}

// resolveDir anchors a relative directory at the working directory.
func resolveDir(dir string) (string, error) {
	if filepath.IsAbs(dir) {
		return dir, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("determine working directory: %w", err)
	}
	return filepath.Join(wd, dir), nil
}
