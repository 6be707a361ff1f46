package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/cardsmith/internal"
	pkgconfig "github.com/starford/cardsmith/pkg/config"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	// A missing --config file falls back to the deck tree's own config.
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadWithDefaults(configPath, internal.DefaultConfigPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// options builds the application options from the config file, the
// positional [host:port] [export-path] arguments and flags.
func options(cmd *cli.Command) ([]internal.Option, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithStrict(cmd.Bool("strict")),
	}

	args := cmd.Args()
	if args.Len() > 2 {
		return nil, fmt.Errorf("too many arguments: expected at most [host:port] [export-path]")
	}
	if host := args.Get(0); host != "" {
		opts = append(opts, internal.WithAnkiHost(host))
	}
	if exportPath := args.Get(1); exportPath != "" {
		opts = append(opts, internal.WithExportPath(exportPath))
	}
	return opts, nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func watch(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	if err := internal.Watch(ctx, opts...); err != nil {
		return fmt.Errorf("watch error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	if err := internal.ServeMCP(ctx, opts...); err != nil {
		return fmt.Errorf("mcp server error: %w", err)
	}
	return nil
}

func listDecks(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	decks, err := internal.ListDecks(internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
	if err != nil {
		return err
	}
	for _, d := range decks {
		fmt.Printf("%s\t%s\t%s\n", d.ID, d.Deck, d.Source)
	}
	return nil
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: internal.DefaultConfigPath,
		Value:       internal.DefaultConfigPath,
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}
}

func strictFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "strict",
		Usage:   "Exit non-zero when any note is rejected or any deck fails",
		Sources: cli.EnvVars("APP_STRICT"),
	}
}

func main() {
	hostArgs := "[host:port] [export-path]"

	cmd := &cli.Command{
		Name:      "cardsmith",
		Usage:     "Assemble flashcard decks from CSV sources through the AnkiConnect API",
		ArgsUsage: hostArgs,
		Action:    run,
		Flags:     []cli.Flag{configFlag(), strictFlag()},
		Commands: []*cli.Command{
			{
				Name:      "watch",
				Usage:     "Assemble, then re-assemble whenever decks or card assets change",
				ArgsUsage: hostArgs,
				Action:    watch,
				Flags:     []cli.Flag{configFlag(), strictFlag()},
			},
			{
				Name:      "mcp",
				Usage:     "Serve deck tools over MCP stdio",
				ArgsUsage: hostArgs,
				Action:    serveMCP,
				Flags:     []cli.Flag{configFlag()},
			},
			{
				Name:   "decks",
				Usage:  "List deck sources without contacting the application",
				Action: listDecks,
				Flags:  []cli.Flag{configFlag()},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
