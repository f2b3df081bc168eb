package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/psdwizzard/recipekeeper/pkg/config"
	"github.com/psdwizzard/recipekeeper/pkg/db"
	"github.com/psdwizzard/recipekeeper/pkg/notion"
	"github.com/psdwizzard/recipekeeper/pkg/recipes"
	"github.com/psdwizzard/recipekeeper/pkg/scrape"

	_ "github.com/mattn/go-sqlite3"
)

type rootOptions struct {
	configPath string
	dbPath     string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "recipekeeper",
		Short:         "recipekeeper — scrape, organize and sync recipes",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ~/.recipekeeper.yaml)")
	cmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "SQLite database path (overrides config)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(
		newImportCmd(opts),
		newSyncCmd(opts),
		newRecipesCmd(opts),
		newShowCmd(opts),
		newRateCmd(opts),
		newEditCmd(opts),
		newDeleteCmd(opts),
		newSearchCmd(opts),
		newListCmd(opts),
	)
	return cmd
}

// app bundles the opened store and configured service for one command run.
type app struct {
	cfg    config.Config
	conn   *sql.DB
	svc    *recipes.Service
	logger *slog.Logger
}

func newApp(opts *rootOptions) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.dbPath != "" {
		cfg.DB = opts.dbPath
	}

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	conn, err := sql.Open("sqlite3", cfg.DB+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.DB, err)
	}
	if err := db.InitDB(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initialize database %s: %w", cfg.DB, err)
	}

	svc := recipes.NewService(conn, scrape.NewHTTPScraper(), nil)
	svc.Logger = logger
	svc.Workers = cfg.Import.Workers
	if cfg.Notion.Token != "" && cfg.Notion.DatabaseID != "" {
		svc.Publisher = notion.NewClient(cfg.Notion.Token, cfg.Notion.DatabaseID)
	}

	return &app{cfg: cfg, conn: conn, svc: svc, logger: logger}, nil
}

func (a *app) close() {
	a.conn.Close()
}

func printRecipes(rs []db.Recipe) {
	if len(rs) == 0 {
		fmt.Println("no recipes")
		return
	}
	for _, r := range rs {
		sync := " "
		if r.NotionSynced {
			sync = "*"
		}
		rating := "unrated"
		if r.RatingCount > 0 {
			rating = fmt.Sprintf("%.1f (%d)", r.AverageRating, r.RatingCount)
		}
		fmt.Printf("%4d %s %-40s %-20s %s\n", r.ID, sync, r.Title, r.Author, rating)
	}
}
