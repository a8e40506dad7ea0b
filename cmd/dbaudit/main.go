package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/seclens/dbaudit"
	"github.com/seclens/dbaudit/config"
	"github.com/seclens/dbaudit/core"
	"github.com/seclens/dbaudit/logging"
	"github.com/seclens/dbaudit/mysql"
	"github.com/seclens/dbaudit/report"
)

var (
	rulesPath       string
	datasourcesPath string
	outputDir       string
	logDir          string
	logLevel        string
	sampleSize      int
	workers         int
	tableWorkers    int
)

func main() {
	root := &cobra.Command{
		Use:   "dbaudit",
		Short: "Audit relational databases for sensitive data and risky privileges",
		Long: "dbaudit samples rows from every table of the configured datasources, " +
			"classifies field values against a sensitive-data rule catalog, analyzes " +
			"user privileges, and writes one ranked Excel risk report per datasource.",
		SilenceUsage: true,
		RunE:         run,
	}

	root.Flags().StringVar(&rulesPath, "rules", "", "path to the YAML rule catalog (built-in rules when empty)")
	root.Flags().StringVar(&datasourcesPath, "datasources", "datasources.txt", "path to the datasource list")
	root.Flags().StringVar(&outputDir, "output", "reports", "directory for generated reports")
	root.Flags().StringVar(&logDir, "log-dir", ".", "directory for log files")
	root.Flags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	root.Flags().IntVar(&sampleSize, "sample-size", 100, "maximum rows sampled per table")
	root.Flags().IntVar(&workers, "workers", 4, "datasources audited in parallel")
	root.Flags().IntVar(&tableWorkers, "table-workers", 8, "tables sampled in parallel per datasource")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	log, err := logging.New(logDir, logLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer log.Sync()

	catalog, err := loadCatalog()
	if err != nil {
		// A broken rule catalog aborts the whole run. Auditing with a
		// partial catalog would silently under-report.
		return err
	}

	datasources, parseErrs, err := config.LoadDatasources(datasourcesPath)
	if err != nil {
		return fmt.Errorf("failed to read datasource list: %w", err)
	}
	for _, perr := range parseErrs {
		log.Warnw("skipping malformed datasource line", "line", perr.Line, "reason", perr.Reason)
	}
	if len(datasources) == 0 {
		return fmt.Errorf("no usable datasources in %s", datasourcesPath)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	auditor := dbaudit.NewAuditor(
		catalog,
		func(ctx context.Context, ds config.Datasource) (core.Sampler, error) {
			return mysql.Open(ctx, ds)
		},
		report.NewExcelWriter(outputDir),
		log,
		dbaudit.Options{
			SampleSize:        sampleSize,
			DatasourceWorkers: workers,
			TableWorkers:      tableWorkers,
		},
	)

	var failed int
	for _, res := range auditor.RunAll(ctx, datasources) {
		if res.Err != nil {
			failed++
			log.Errorw("datasource audit failed", "datasource", res.Datasource, "error", res.Err)
			continue
		}
		fmt.Printf("report for %s: %s (%d risks)\n", res.Datasource, res.ReportPath, len(res.Model.Risks))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d datasource audits failed", failed, len(datasources))
	}
	return nil
}

func loadCatalog() (*core.RuleCatalog, error) {
	if rulesPath == "" {
		return core.DefaultCatalog(), nil
	}
	data, err := os.ReadFile(rulesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule catalog: %w", err)
	}
	catalog, err := core.ParseRuleCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load rule catalog: %w", err)
	}
	return catalog, nil
}
