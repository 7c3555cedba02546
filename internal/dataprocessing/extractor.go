package dataprocessing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/internal/config"
	apperrors "github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/internal/errors"
	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/internal/workbook"
	"github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria/pkg/contracts/domain"
)

// Extractor reads one treasury report into a ReportTable
type Extractor struct {
	Driver      workbook.Driver
	SheetName   string
	Extension   string
	FirstColumn string
	LastColumn  string
	// Cooldown is waited after the document is released, before Extract returns
	Cooldown time.Duration

	Tracer trace.Tracer
	Logger *slog.Logger
	// Sleep replaces time.Sleep in tests
	Sleep func(time.Duration)
}

// NewExtractor creates an extractor from configuration
func NewExtractor(cfg config.ExtractionConfig, driver workbook.Driver, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		Driver:      driver,
		SheetName:   cfg.SheetName,
		Extension:   cfg.Extension,
		FirstColumn: cfg.FirstColumn,
		LastColumn:  cfg.LastColumn,
		Cooldown:    cfg.Cooldown,
		Tracer:      tracenoop.NewTracerProvider().Tracer("dataprocessing"),
		Logger:      logger.With("component", "extractor"),
		Sleep:       time.Sleep,
	}
}

// Extract opens path and returns the canonical records of every section it
// holds. A report with no sections yields an empty table and no error. The
// document is closed and released, and the cooldown waited, on every return
// path.
func (e *Extractor) Extract(ctx context.Context, path string, period time.Time) (table domain.Table, err error) {
	ctx, span := e.tracer().Start(ctx, "dataprocessing.Extract",
		trace.WithAttributes(attribute.String("file", filepath.Base(path))))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.Int("rows", table.Len()))
		span.End()
	}()

	logger := e.logger().With("file", filepath.Base(path))
	// runs last on every return path, after the session is closed
	defer e.release(logger, path)

	if _, statErr := os.Stat(path); statErr != nil {
		if errors.Is(statErr, os.ErrNotExist) {
			return domain.Table{}, fail(apperrors.ErrTypeInvalidInput, path, ErrFileNotFound)
		}
		return domain.Table{}, fail(apperrors.ErrTypeTransientIO, "stat "+path, statErr)
	}
	if !strings.EqualFold(filepath.Ext(path), e.Extension) {
		return domain.Table{}, fail(apperrors.ErrTypeInvalidInput,
			fmt.Sprintf("%s: want %s", filepath.Base(path), e.Extension), ErrInvalidFormat)
	}

	session, err := e.Driver.Open(ctx, path, workbook.DefaultOpenOptions())
	if err != nil {
		return domain.Table{}, fail(apperrors.ErrTypeTransientIO, "open workbook", err)
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			logger.WarnContext(ctx, "failed to close workbook", slog.String("error", closeErr.Error()))
		}
	}()

	if !containsString(session.SheetNames(), e.SheetName) {
		return domain.Table{}, fail(apperrors.ErrTypeInvalidInput, e.SheetName, ErrSheetNotFound)
	}
	grid, err := session.Sheet(e.SheetName)
	if err != nil {
		return domain.Table{}, fail(apperrors.ErrTypeTransientIO, "read worksheet", err)
	}

	return e.extractGrid(ctx, logger, grid, period)
}

// extractGrid runs the pure part of the extraction over an open worksheet
func (e *Extractor) extractGrid(ctx context.Context, logger *slog.Logger, grid workbook.Grid, period time.Time) (domain.Table, error) {
	type located struct {
		kind domain.SectionKind
		rng  RowRange
	}

	var sections []located
	for _, kind := range domain.SectionKinds() {
		rng, err := Locate(grid, kind, e.FirstColumn, e.LastColumn)
		if err != nil {
			logger.DebugContext(ctx, "section absent", slog.String("section", kind.Name), slog.String("reason", err.Error()))
			continue
		}
		if rng.Empty() {
			logger.DebugContext(ctx, "section has no rows", slog.String("section", kind.Name))
			continue
		}
		sections = append(sections, located{kind: kind, rng: rng})
	}

	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("sections", len(sections)))
	if len(sections) == 0 {
		logger.InfoContext(ctx, "no sections found")
		return domain.Table{}, nil
	}

	header, err := FindRow(grid, HeaderLabel, e.FirstColumn, e.LastColumn)
	if err != nil {
		return domain.Table{}, fail(apperrors.ErrTypeNotFound, "header row", err)
	}

	id := e.identity(grid)

	var tables []domain.Table
	for _, s := range sections {
		rows := grid.Range(s.rng.First, s.rng.Start, s.rng.Last, s.rng.End)
		t := Normalize(header.Cells, rows, s.kind, period, id)
		if isSentinelEcho(t, s.kind) {
			continue
		}
		logger.DebugContext(ctx, "section extracted",
			slog.String("section", s.kind.Name),
			slog.String("range", s.rng.String()),
			slog.Int("rows", t.Len()))
		tables = append(tables, t)
	}

	merged := domain.Concat(tables...)
	if merged.IsEmpty() {
		return domain.Table{}, nil
	}

	out, missing := merged.Select(canonicalColumns)
	if len(missing) > 0 {
		return domain.Table{}, fail(apperrors.ErrTypeInvariant, strings.Join(missing, ", "), ErrMissingColumn)
	}
	return out, nil
}

// identity parses both identity cells; a missing cell parses as ""
func (e *Extractor) identity(grid workbook.Grid) domain.Identity {
	var accountText, companyText string
	if row, err := FindRow(grid, AccountLabel, e.FirstColumn, e.FirstColumn); err == nil {
		accountText = row.Text()
	}
	if row, err := FindRow(grid, CompanyLabel, e.FirstColumn, e.FirstColumn); err == nil {
		companyText = row.Text()
	}
	return domain.Identity{
		Account: ParseAccountIdentity(accountText),
		Company: ParseCompanyIdentity(companyText),
	}
}

// release drops anything still bound to path, then waits out the cooldown
func (e *Extractor) release(logger *slog.Logger, path string) {
	if err := e.Driver.Release(path); err != nil {
		logger.Warn("failed to release workbook", slog.String("error", err.Error()))
	}
	if e.Cooldown > 0 {
		sleep := e.Sleep
		if sleep == nil {
			sleep = time.Sleep
		}
		sleep(e.Cooldown)
	}
}

func (e *Extractor) tracer() trace.Tracer {
	if e.Tracer == nil {
		return tracenoop.NewTracerProvider().Tracer("dataprocessing")
	}
	return e.Tracer
}

func (e *Extractor) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
