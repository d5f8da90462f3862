package cli

import (
	"fmt"
	"os"

	"istas_backend/internal/config"
	"istas_backend/pkg/logger"

	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

type rootOptions struct {
	configDir string
}

func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.LoadConfig(o.configDir)
	if err != nil {
		return nil, fmt.Errorf("load config from %s: %w", o.configDir, err)
	}
	logger.InitLogger(cfg)
	return cfg, nil
}

// NewRootCommand builds the istas command tree. Without a subcommand the
// HTTP server is started.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "istas",
		Short: "ISTAS21-BR psychosocial risk evaluation backend",
		Long: `istas serves the evaluation API and provides maintenance commands
for the database schema, the questionnaire catalog and company reports.`,
		Version:      Version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configDir, "config", "configs", "directory holding config.yaml")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newSeedCommand(opts))
	cmd.AddCommand(newReportCommand(opts))
	cmd.AddCommand(newUserCommand(opts))
	return cmd
}

func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
