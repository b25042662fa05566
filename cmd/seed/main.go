package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/service"
)

// seedFile is the layout of the reference data file.
type seedFile struct {
	Tags        []service.TagInput        `yaml:"tags"`
	Ingredients []service.IngredientInput `yaml:"ingredients"`
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var file string
	var migrate bool

	root := &cobra.Command{
		Use:   "seed",
		Short: "Load tags and ingredients into the database",
		Long: "Load tags and ingredients from a YAML file. Existing rows are kept, " +
			"so the command can be run repeatedly.",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&file, "file", "f", "data/seed.yaml", "seed data file")
	root.PersistentFlags().BoolVar(&migrate, "migrate", false, "run migrations before seeding")

	run := func(tags, ingredients bool) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			data, err := loadSeedFile(file)
			if err != nil {
				return err
			}
			db, err := openDatabase(migrate)
			if err != nil {
				return err
			}
			if !tags {
				data.Tags = nil
			}
			if !ingredients {
				data.Ingredients = nil
			}
			return seed(cmd.Context(), db, data)
		}
	}

	root.RunE = run(true, true)
	root.AddCommand(
		&cobra.Command{Use: "tags", Short: "Load only tags", Args: cobra.NoArgs, RunE: run(true, false)},
		&cobra.Command{Use: "ingredients", Short: "Load only ingredients", Args: cobra.NoArgs, RunE: run(false, true)},
	)
	return root
}

func loadSeedFile(path string) (*seedFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	var data seedFile
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parsing seed file %s: %w", path, err)
	}
	return &data, nil
}

func openDatabase(migrate bool) (*gorm.DB, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	db, err := database.New(cfg)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := database.RunMigrations(db, cfg.MigrationsDir); err != nil {
			return nil, err
		}
	}
	return db, nil
}

func seed(ctx context.Context, db *gorm.DB, data *seedFile) error {
	catalog := service.NewCatalogService(db)

	tags, err := catalog.ImportTags(ctx, data.Tags)
	if err != nil {
		return err
	}
	ingredients, err := catalog.ImportIngredients(ctx, data.Ingredients)
	if err != nil {
		return err
	}

	logging.Info().
		Int64("tags_added", tags).
		Int("tags_total", len(data.Tags)).
		Int64("ingredients_added", ingredients).
		Int("ingredients_total", len(data.Ingredients)).
		Msg("seed complete")
	return nil
}
