package cli

import (
	"fmt"
	"io"

	"istas_backend/internal/repository"
	"istas_backend/internal/scoring"
	"istas_backend/internal/service"
	"istas_backend/pkg/database"
	"istas_backend/pkg/logger"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type reportOptions struct {
	tenant    string
	companyID uint
	formID    uint
	export    bool
}

func newReportCommand(opts *rootOptions) *cobra.Command {
	ro := &reportOptions{}
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the risk summary of a company for one form",
		Args:  cobra.NoArgs,
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

			var storage *service.StorageService
			if ro.export {
				if storage, err = service.NewStorageService(cfg); err != nil {
					return err
				}
			}
			reports := service.NewReportService(
				service.NewCatalogService(repository.NewCatalogRepository(db)),
				repository.NewCompanyRepository(db),
				repository.NewEvaluationRepository(db),
				storage,
			)

			report, err := reports.CompanyReport(cmd.Context(), ro.tenant, ro.companyID, ro.formID)
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), report)

			if ro.export {
				res, err := reports.Export(cmd.Context(), ro.tenant, ro.companyID, ro.formID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "\nexported %d rows to %s\n", res.Rows, res.URL)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&ro.tenant, "tenant", "", "tenant id")
	cmd.Flags().UintVar(&ro.companyID, "company", 0, "company id")
	cmd.Flags().UintVar(&ro.formID, "form", 0, "form id")
	cmd.Flags().BoolVar(&ro.export, "export", false, "also upload the CSV export")
	for _, f := range []string{"tenant", "company", "form"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func riskColor(level scoring.RiskLevel) *color.Color {
	switch level {
	case scoring.RiskLow:
		return color.New(color.FgGreen)
	case scoring.RiskModerate:
		return color.New(color.FgYellow)
	case scoring.RiskConsiderable:
		return color.New(color.FgHiYellow)
	case scoring.RiskHigh:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgRed, color.Bold)
	}
}

func printReport(w io.Writer, r *service.CompanyReport) {
	cyan := color.New(color.FgCyan, color.Bold)

	cyan.Fprintf(w, "\n=== %s / %s ===\n\n", r.CompanyName, r.FormName)
	fmt.Fprintf(w, "  Employees evaluated: %d of %d\n", r.Evaluated, r.Employees)
	fmt.Fprintf(w, "  Average yes: %.1f%%\n", r.AveragePercentYes)

	fmt.Fprintln(w)
	cyan.Fprintf(w, "Risk levels:\n")
	for _, lc := range r.RiskLevels {
		fmt.Fprintf(w, "  %-14s ", lc.Level)
		riskColor(lc.Level).Fprintf(w, "%d\n", lc.Count)
	}

	fmt.Fprintln(w)
	cyan.Fprintf(w, "Severity of yes answers:\n")
	fmt.Fprintf(w, "  %-26s %d\n", scoring.SeverityLight.Label(), r.Severity.Light)
	fmt.Fprintf(w, "  %-26s %d\n", scoring.SeverityMedium.Label(), r.Severity.Medium)
	fmt.Fprintf(w, "  %-26s %d\n", scoring.SeverityHigh.Label(), r.Severity.High)

	if len(r.TopRisks) > 0 {
		fmt.Fprintln(w)
		cyan.Fprintf(w, "Most frequent risks:\n")
		for _, rf := range r.TopRisks {
			fmt.Fprintf(w, "  %3d  %s (%s)\n", rf.Count, rf.Description, rf.SeverityLabel)
		}
	}

	if len(r.Rows) > 0 {
		fmt.Fprintln(w)
		cyan.Fprintf(w, "Employees:\n")
		for _, row := range r.Rows {
			fmt.Fprintf(w, "  %-30s %5.1f%%  ", row.EmployeeName, row.PercentYes)
			riskColor(row.RiskLevel).Fprintf(w, "%s\n", row.RiskLevel)
		}
	}
}
