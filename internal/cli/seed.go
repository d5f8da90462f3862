package cli

import (
	"fmt"
	"os"
	"strings"

	"istas_backend/internal/repository"
	"istas_backend/internal/service"
	"istas_backend/pkg/database"
	"istas_backend/pkg/logger"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func newSeedCommand(opts *rootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import a YAML questionnaire catalog",
		Long: `Import risks, forms, sections and questions from a YAML catalog.
Rows are matched by code, so running the same file again is a no-op and
question ids of existing evaluations stay valid.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			db, err := database.InitDB(&cfg.Database, logger.Log)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}
			return seedCatalog(cmd, db, file)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "catalog YAML file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func seedCatalog(cmd *cobra.Command, db *gorm.DB, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	doc, err := service.ParseCatalog(f)
	if err != nil {
		return err
	}
	catalog := service.NewCatalogService(repository.NewCatalogRepository(db))
	summary, err := catalog.Import(cmd.Context(), doc)
	if err != nil {
		return err
	}
	cmd.Printf("imported forms [%s]: %d risks, %d questions\n",
		strings.Join(summary.Forms, ", "), summary.Risks, summary.Questions)
	return nil
}
