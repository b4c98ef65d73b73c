// Package batch drives lookups for a list of cases, one record at a time.
package batch

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	ET "github.com/IBM/fp-go/v2/either"
	IOE "github.com/IBM/fp-go/v2/ioeither"
	"github.com/schollz/progressbar/v3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Qubut/IP-Claim/packages/ep_register/internal/models"
	"github.com/Qubut/IP-Claim/packages/ep_register/internal/normalize"
	"github.com/Qubut/IP-Claim/packages/ep_register/internal/registry"
	"github.com/Qubut/IP-Claim/packages/ep_register/internal/sheet"
)

type Fetcher interface {
	FetchBiblio(ctx context.Context, id normalize.Identifier, ref string) IOE.IOEither[error, []byte]
}

type PatentBuilder interface {
	BuildPatent(ctx context.Context, id normalize.Identifier, ref string, raw []byte) (models.Patent, error)
}

type Runner struct {
	Fetcher         Fetcher
	Builder         PatentBuilder
	Logger          *zap.SugaredLogger
	Tracer          trace.Tracer
	Meter           metric.Meter
	Progress        io.Writer
	progress        *progressbar.ProgressBar
	sessionDuration metric.Int64Histogram
	recordsTotal    metric.Int64Counter
	recordsSuccess  metric.Int64Counter
	recordsFailed   metric.Int64Counter
	recordDuration  metric.Int64Histogram
}

func NewRunner(
	fetcher Fetcher,
	builder PatentBuilder,
	tracer trace.Tracer,
	logger *zap.SugaredLogger,
	meter metric.Meter,
) (*Runner, error) {
	r := &Runner{
		Fetcher:  fetcher,
		Builder:  builder,
		Logger:   logger,
		Tracer:   tracer,
		Meter:    meter,
		Progress: os.Stdout,
	}

	var err error
	r.sessionDuration, err = meter.Int64Histogram(
		"batch.session.duration",
		metric.WithDescription("Duration of a full batch session"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	r.recordsTotal, err = meter.Int64Counter(
		"batch.records.total",
		metric.WithDescription("Total number of records processed"),
	)
	if err != nil {
		return nil, err
	}

	r.recordsSuccess, err = meter.Int64Counter(
		"batch.records.success",
		metric.WithDescription("Number of records turned into patents"),
	)
	if err != nil {
		return nil, err
	}

	r.recordsFailed, err = meter.Int64Counter(
		"batch.records.failed",
		metric.WithDescription("Number of records that failed"),
	)
	if err != nil {
		return nil, err
	}

	r.recordDuration, err = meter.Int64Histogram(
		"batch.record.duration",
		metric.WithDescription("Duration of one record, fetch and build"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return r, nil
}

func (r *Runner) startProgress(total int, description string) {
	r.progress = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(r.Progress),
		progressbar.OptionSetWidth(60),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(50*time.Millisecond),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func (r *Runner) updateProgress() {
	if r.progress != nil {
		_ = r.progress.Add(1)
	}
}

func (r *Runner) finishProgress(description string) {
	if r.progress != nil {
		r.progress.Describe(description)
		_ = r.progress.Finish()
		r.progress = nil
	}
}

type record struct {
	ref  string
	id   normalize.Identifier
	load func(ctx context.Context) ([]byte, error)
}

// Run looks up and builds every case in order. Failed records are logged and
// their errors combined into the returned error; the patents built so far
// are always returned.
func (r *Runner) Run(ctx context.Context, cases []sheet.Case) ([]models.Patent, error) {
	records := make([]record, 0, len(cases))
	for _, c := range cases {
		id, ref := normalize.Normalize(c.Number), c.Ref
		records = append(records, record{
			ref: ref,
			id:  id,
			load: func(ctx context.Context) ([]byte, error) {
				return ET.UnwrapError(r.Fetcher.FetchBiblio(ctx, id, ref)())
			},
		})
	}
	return r.session(ctx, "batch.run", "Looking up cases...", records)
}

// ParseDir builds patents from register responses saved as .json or .xml
// files under dir, in path order. A file named by registry.DumpName yields
// its identifier and reference, falling back to the number when the dump
// carries no reference; any other file stem is normalized as a number and
// used as the reference.
func (r *Runner) ParseDir(ctx context.Context, dir string) ([]models.Patent, error) {
	ctxFind, findSpan := r.Tracer.Start(ctx, "batch.find_responses")
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if ctxFind.Err() != nil {
			return ctxFind.Err()
		}
		if err != nil {
			r.Logger.Warnw("Error accessing path", "path", path, "error", err)
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if !d.IsDir() && (ext == ".json" || ext == ".xml") {
			paths = append(paths, path)
		}
		return nil
	})
	findSpan.End()
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}
	sort.Strings(paths)
	r.Logger.Infow("Found saved responses", "dir", dir, "count", len(paths))

	records := make([]record, 0, len(paths))
	for _, path := range paths {
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		ref := stem
		id, dumpedRef, ok := registry.ParseDumpName(stem)
		switch {
		case !ok:
			id = normalize.Normalize(stem)
		case dumpedRef != "":
			ref = dumpedRef
		default:
			ref = id.Number
		}
		records = append(records, record{
			ref: ref,
			id:  id,
			load: func(context.Context) ([]byte, error) {
				return os.ReadFile(path)
			},
		})
	}
	return r.session(ctx, "batch.parse_dir", "Parsing saved responses...", records)
}

func (r *Runner) session(ctx context.Context, name, description string, records []record) ([]models.Patent, error) {
	ctx, span := r.Tracer.Start(ctx, name, trace.WithAttributes(
		attribute.Int("records", len(records)),
	))
	defer span.End()
	startTime := time.Now()
	r.Logger.Infow("Starting batch session", "session", name, "records", len(records))

	r.startProgress(len(records), description)
	defer r.finishProgress("Done")

	patents := make([]models.Patent, 0, len(records))
	var errs error
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			r.Logger.Warn("Batch session cancelled")
			errs = multierr.Append(errs, err)
			break
		}
		patent, err := r.process(ctx, rec)
		r.updateProgress()
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		patents = append(patents, patent)
	}

	failed := len(multierr.Errors(errs))
	status := "success"
	switch {
	case len(records) == 0:
		status = "empty"
	case failed > 0:
		status = "partial"
		span.SetStatus(codes.Error, fmt.Sprintf("%d records failed", failed))
	}
	r.sessionDuration.Record(ctx, time.Since(startTime).Milliseconds(),
		metric.WithAttributes(
			attribute.String("session", name),
			attribute.String("status", status),
		),
	)
	r.Logger.Infow("Batch session completed",
		"session", name,
		"patents", len(patents),
		"failed", failed)
	return patents, errs
}

func (r *Runner) process(ctx context.Context, rec record) (models.Patent, error) {
	ctx, span := r.Tracer.Start(ctx, "batch.record", trace.WithAttributes(
		attribute.String("ref", rec.ref),
		attribute.String("identifier", rec.id.String()),
	))
	defer span.End()
	startTime := time.Now()
	r.recordsTotal.Add(ctx, 1)

	fail := func(err error) (models.Patent, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.recordsFailed.Add(ctx, 1)
		r.recordDuration.Record(ctx, time.Since(startTime).Milliseconds(),
			metric.WithAttributes(attribute.String("status", "failed")))
		r.Logger.Errorw("Record failed", "ref", rec.ref, "identifier", rec.id.String(), "error", err)
		return models.Patent{}, fmt.Errorf("%s (%s): %w", rec.ref, rec.id.Number, err)
	}

	raw, err := rec.load(ctx)
	if err != nil {
		return fail(err)
	}
	patent, err := r.Builder.BuildPatent(ctx, rec.id, rec.ref, raw)
	if err != nil {
		return fail(err)
	}
	if patent.IsInvalidNumber() {
		patent.Ref = rec.ref
	}

	r.recordsSuccess.Add(ctx, 1, metric.WithAttributes(attribute.Bool("invalid_number", patent.IsInvalidNumber())))
	r.recordDuration.Record(ctx, time.Since(startTime).Milliseconds(),
		metric.WithAttributes(attribute.String("status", "success")))
	return patent, nil
}
