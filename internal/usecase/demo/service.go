// Package demo provisions a namespace with city names, runs the query tables
// and writes the results as a markdown report.
package demo

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/fuzzysuggest/internal/db"
	"github.com/kailas-cloud/fuzzysuggest/internal/domain/batch"
	"github.com/kailas-cloud/fuzzysuggest/internal/report"
)

const intro = `This demo implements fuzzy autocomplete on top of a search catalog.
The name field is analysed into trigrams (n-grams with min and max length 3), so that a
partial overlap of trigrams tolerates roughly three edits on longer names.`

const queryNotes = `The query is composed of two parts:

1. A match query on the trigram-analysed name field. Its minimum_should_match policy
   decides how many of the input trigrams a name must share.
2. A completion suggester on the name.suggest sub-field with fuzzy prefix matching.
   It catches inputs too short to produce trigrams.

Match names come first, then suggester names; duplicates are dropped.`

// Service runs the demo.
type Service struct {
	provisioner Provisioner
	ingestor    Ingestor
	suggester   Suggester
	schema      *db.NamespaceSchema
	logger      *zap.Logger
}

// New creates a demo service.
func New(p Provisioner, i Ingestor, s Suggester, schema *db.NamespaceSchema, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{provisioner: p, ingestor: i, suggester: s, schema: schema, logger: logger}
}

// Run installs the namespace, loads Cities, runs QueryTables and writes into r.
// It does not save r.
func (s *Service) Run(ctx context.Context, r *report.Report) error {
	r.H1("Fuzzy autocomplete demo")
	r.Text(intro)

	r.H2("Preparing the solution")
	r.H3("Creating namespace")
	rep, err := s.provisioner.Install(ctx, s.schema)
	if err != nil {
		return fmt.Errorf("install: %w", err)
	}
	r.Text(fmt.Sprintf("Namespace `%s` installed (previous namespace: %s). Schema: `%s`.",
		rep.Namespace, rep.Delete.Status, s.schema))

	r.H3("Inserting city names as data:")
	results, err := s.ingestor.Ingest(ctx, s.schema.Name, Cities)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	sum := batch.Summarize(results)
	if sum.Failed > 0 {
		return fmt.Errorf("ingest: %d of %d records failed: %w", sum.Failed, len(results), batch.FirstError(results))
	}
	rows := make([]report.Row, len(results))
	for i, res := range results {
		rows[i] = report.Row{Left: res.ID(), Right: res.Name()}
	}
	r.Table("ID", "Name", rows)

	r.H3("The query used to perform the fuzzy autocomplete search:")
	tmpl, err := s.suggester.Template().MarshalJSON()
	if err != nil {
		return fmt.Errorf("render template: %w", err)
	}
	r.JSON(tmpl)
	r.Text(queryNotes)

	for _, table := range QueryTables {
		r.H4(table.Title)
		r.Table("Query", "Result", s.runTable(ctx, table.Queries))
	}

	s.logger.Info("Demo finished", zap.String("namespace", s.schema.Name), zap.Int("records", sum.OK))
	return nil
}

func (s *Service) runTable(ctx context.Context, queries []string) []report.Row {
	rows := make([]report.Row, 0, len(queries))
	for _, q := range queries {
		list, err := s.suggester.Suggest(ctx, q)
		if err != nil {
			s.logger.Warn("Demo query failed", zap.String("query", q), zap.Error(err))
			rows = append(rows, report.Row{Left: q, Right: "error: " + err.Error()})
			continue
		}
		rows = append(rows, report.Row{Left: q, Right: list.String()})
	}
	return rows
}
