// Package dbaudit orchestrates sensitive-data audits across relational
// datasources: it samples tables through an adapter, classifies and confirms
// field values against a rule catalog, analyzes user privileges, and writes
// one ranked risk report per datasource.
package dbaudit

import (
	"context"
	"io"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/seclens/dbaudit/config"
	"github.com/seclens/dbaudit/core"
)

// SamplerFactory opens an adapter for one datasource. The auditor closes the
// returned sampler when the datasource audit finishes, if it implements
// io.Closer.
type SamplerFactory func(ctx context.Context, ds config.Datasource) (core.Sampler, error)

// ReportWriter renders a finished report model and returns the artifact path.
type ReportWriter interface {
	Write(ctx context.Context, model *core.ReportModel) (string, error)
}

// Options tune audit throughput. Zero values fall back to the defaults.
type Options struct {
	// SampleSize is the maximum number of rows read per table.
	SampleSize int

	// DatasourceWorkers bounds how many datasources are audited in
	// parallel.
	DatasourceWorkers int

	// TableWorkers bounds how many tables are sampled in parallel within
	// one datasource.
	TableWorkers int
}

const (
	defaultSampleSize        = 100
	defaultDatasourceWorkers = 4
	defaultTableWorkers      = 8
)

func (o Options) withDefaults() Options {
	if o.SampleSize <= 0 {
		o.SampleSize = defaultSampleSize
	}
	if o.DatasourceWorkers <= 0 {
		o.DatasourceWorkers = defaultDatasourceWorkers
	}
	if o.TableWorkers <= 0 {
		o.TableWorkers = defaultTableWorkers
	}
	return o
}

// Result is the outcome of auditing one datasource. Err is non-nil when the
// datasource could not be audited at all; table-level failures are recorded
// inside the model instead.
type Result struct {
	Datasource string
	ReportPath string
	Model      *core.ReportModel
	Err        error
}

// Auditor runs the full pipeline for any number of datasources.
type Auditor struct {
	catalog *core.RuleCatalog
	open    SamplerFactory
	writer  ReportWriter
	log     *zap.SugaredLogger
	opts    Options
}

// NewAuditor wires a loaded rule catalog to an adapter factory and a report
// writer.
func NewAuditor(catalog *core.RuleCatalog, open SamplerFactory, writer ReportWriter, log *zap.SugaredLogger, opts Options) *Auditor {
	return &Auditor{
		catalog: catalog,
		open:    open,
		writer:  writer,
		log:     log,
		opts:    opts.withDefaults(),
	}
}

// RunAll audits every datasource with bounded parallelism. Results keep the
// input order. A failing datasource yields a Result with Err set and never
// aborts the others.
func (a *Auditor) RunAll(ctx context.Context, datasources []config.Datasource) []Result {
	results := make([]Result, len(datasources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.DatasourceWorkers)

	for i, ds := range datasources {
		i, ds := i, ds
		g.Go(func() error {
			model, path, err := a.Run(gctx, ds)
			results[i] = Result{
				Datasource: ds.Name,
				ReportPath: path,
				Model:      model,
				Err:        err,
			}
			return nil
		})
	}

	// Workers never return errors; failures live in the result slots.
	_ = g.Wait()
	return results
}

// Run audits a single datasource end to end and writes its report.
func (a *Auditor) Run(ctx context.Context, ds config.Datasource) (*core.ReportModel, string, error) {
	a.log.Infow("starting audit", "datasource", ds.Name, "address", ds.Address())

	sampler, err := a.open(ctx, ds)
	if err != nil {
		return nil, "", &ConnectionError{Datasource: ds, Err: err}
	}
	if closer, ok := sampler.(io.Closer); ok {
		defer closer.Close()
	}

	grants, err := sampler.ListGrants(ctx)
	if err != nil {
		// Privilege analysis degrades gracefully; sensitive-data
		// scanning still runs.
		a.log.Warnw("failed to list grants", "datasource", ds.Name, "error", err)
		grants = nil
	}

	databases, err := sampler.ListDatabases(ctx)
	if err != nil {
		return nil, "", &ConnectionError{Datasource: ds, Err: err}
	}

	summaries, skipped := a.scanDatabases(ctx, ds, sampler, databases)

	model := core.NewAggregator(a.catalog).BuildReport(ds.Name, summaries, grants, skipped)

	path, err := a.writer.Write(ctx, model)
	if err != nil {
		return model, "", err
	}

	a.log.Infow("audit finished",
		"datasource", ds.Name,
		"databases", len(databases),
		"risks", len(model.Risks),
		"skipped", len(skipped),
		"report", path)
	return model, path, nil
}

type tableRef struct {
	database string
	table    string
}

// scanDatabases samples and classifies every table with bounded parallelism.
// Each worker writes only its own slot, so the output keeps enumeration order
// without locking.
func (a *Auditor) scanDatabases(ctx context.Context, ds config.Datasource, sampler core.Sampler, databases []string) ([]core.TableSensitivitySummary, []core.SkippedTable) {
	var refs []tableRef
	var skipped []core.SkippedTable

	for _, database := range databases {
		tables, err := sampler.ListTables(ctx, database)
		if err != nil {
			a.log.Warnw("failed to list tables",
				"datasource", ds.Name, "database", database, "error", err)
			skipped = append(skipped, core.SkippedTable{
				Database: database,
				Reason:   err.Error(),
			})
			continue
		}
		for _, table := range tables {
			refs = append(refs, tableRef{database: database, table: table})
		}
	}

	type slot struct {
		summary core.TableSensitivitySummary
		skip    *core.SkippedTable
	}
	slots := make([]slot, len(refs))

	aggregator := core.NewAggregator(a.catalog)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.TableWorkers)

	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			sample, err := sampler.SampleRows(gctx, ref.database, ref.table, a.opts.SampleSize)
			if err != nil {
				serr := &SamplingError{Database: ref.database, Table: ref.table, Err: err}
				a.log.Warnw("table skipped", "datasource", ds.Name, "error", serr)
				slots[i].skip = &core.SkippedTable{
					Database: ref.database,
					Table:    ref.table,
					Reason:   err.Error(),
				}
				return nil
			}
			slots[i].summary = aggregator.ScanTable(sample)
			return nil
		})
	}
	_ = g.Wait()

	summaries := make([]core.TableSensitivitySummary, 0, len(refs))
	for _, s := range slots {
		if s.skip != nil {
			skipped = append(skipped, *s.skip)
			continue
		}
		summaries = append(summaries, s.summary)
	}
	return summaries, skipped
}
