package register

import (
	"context"
	"fmt"
	"time"

	O "github.com/IBM/fp-go/v2/option"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Qubut/IP-Claim/packages/ep_register/internal/models"
	"github.com/Qubut/IP-Claim/packages/ep_register/internal/normalize"
)

// Builder turns raw register responses into patents. It owns no state of its
// own beyond instruments; parties are resolved against the injected store.
type Builder struct {
	Parties        *PartyStore
	Logger         *zap.SugaredLogger
	Tracer         trace.Tracer
	Meter          metric.Meter
	patentsBuilt   metric.Int64Counter
	patentsInvalid metric.Int64Counter
	patentsFailed  metric.Int64Counter
	partiesNew     metric.Int64Counter
	partiesReused  metric.Int64Counter
	buildDuration  metric.Int64Histogram
}

func NewBuilder(
	store *PartyStore,
	tracer trace.Tracer,
	logger *zap.SugaredLogger,
	meter metric.Meter,
) (*Builder, error) {
	b := &Builder{
		Parties: store,
		Logger:  logger,
		Tracer:  tracer,
		Meter:   meter,
	}

	var err error
	b.patentsBuilt, err = meter.Int64Counter(
		"register.patents.built",
		metric.WithDescription("Number of patents assembled from register responses"),
	)
	if err != nil {
		return nil, err
	}

	b.patentsInvalid, err = meter.Int64Counter(
		"register.patents.invalid",
		metric.WithDescription("Number of lookups the register rejected as invalid numbers"),
	)
	if err != nil {
		return nil, err
	}

	b.patentsFailed, err = meter.Int64Counter(
		"register.patents.failed",
		metric.WithDescription("Number of register responses that could not be parsed"),
	)
	if err != nil {
		return nil, err
	}

	b.partiesNew, err = meter.Int64Counter(
		"register.parties.new",
		metric.WithDescription("Number of parties added to the party store"),
	)
	if err != nil {
		return nil, err
	}

	b.partiesReused, err = meter.Int64Counter(
		"register.parties.reused",
		metric.WithDescription("Number of party references resolved to an existing party"),
	)
	if err != nil {
		return nil, err
	}

	b.buildDuration, err = meter.Int64Histogram(
		"register.build.duration",
		metric.WithDescription("Duration of assembling one patent"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return b, nil
}

// BuildPatent assembles the patent for one lookup. A response flagged with
// invalid_number yields the sentinel patent and no error.
func (b *Builder) BuildPatent(
	ctx context.Context,
	id normalize.Identifier,
	ref string,
	raw []byte,
) (models.Patent, error) {
	ctx, span := b.Tracer.Start(ctx, "register.build_patent", trace.WithAttributes(
		attribute.String("identifier.kind", string(id.Kind)),
		attribute.String("identifier.number", id.Number),
		attribute.String("ref", ref),
		attribute.Int("raw_bytes", len(raw)),
	))
	defer span.End()
	startTime := time.Now()

	fail := func(err error) (models.Patent, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		b.patentsFailed.Add(ctx, 1)
		b.Logger.Errorw("Failed to build patent", "number", id.Number, "ref", ref, "error", err)
		return models.Patent{}, fmt.Errorf("build patent %s: %w", id.Number, err)
	}

	resp, err := Decode(raw)
	if err != nil {
		return fail(err)
	}
	if resp.InvalidNumber != nil {
		b.patentsInvalid.Add(ctx, 1)
		span.AddEvent("invalid_number")
		b.Logger.Warnw("Register rejected number", "number", id.Number, "ref", ref)
		return models.InvalidNumberPatent(*resp.InvalidNumber), nil
	}
	biblio, err := resp.BibliographicData()
	if err != nil {
		return fail(err)
	}

	before := b.Parties.Len()
	patent, err := Assemble(b.Parties, ref, biblio)
	if err != nil {
		return fail(err)
	}
	added := b.Parties.Len() - before
	referenced := len(patent.Applicants) + len(patent.Inventors)
	b.partiesNew.Add(ctx, int64(added))
	b.partiesReused.Add(ctx, int64(referenced-added))

	b.patentsBuilt.Add(ctx, 1, metric.WithAttributes(attribute.Bool("granted", patent.Granted)))
	b.buildDuration.Record(ctx, time.Since(startTime).Milliseconds())
	span.SetAttributes(
		attribute.String("register.id", biblio.ID),
		attribute.String("register.status", biblio.Status),
		attribute.Bool("granted", patent.Granted),
	)
	b.Logger.Debugw("Patent built",
		"ref", ref,
		"application", patent.EPApplicationNumber,
		"applicants", len(patent.Applicants),
		"inventors", len(patent.Inventors))
	return patent, nil
}

// Assemble runs every extractor against one bibliographic section.
func Assemble(store *PartyStore, ref string, biblio *BibliographicData) (models.Patent, error) {
	numbers, err := biblio.ApplicationNumbers()
	if err != nil {
		return models.Patent{}, err
	}
	states, err := biblio.DesignatedStates()
	if err != nil {
		return models.Patent{}, fmt.Errorf("designated states: %w", err)
	}
	title, err := biblio.Title()
	if err != nil {
		return models.Patent{}, fmt.Errorf("title: %w", err)
	}

	publications := biblio.Publications()
	grantDate := biblio.GrantDate()
	return models.Patent{
		Ref:                 ref,
		Title:               title,
		EPApplicationNumber: numbers.EP,
		WOApplicationNumber: numbers.WO,
		FilingDate:          biblio.FilingDate(),
		EPPublication:       publicationOrUnknown(publications, models.JurisdictionEP),
		WOPublication:       publicationOrUnknown(publications, models.JurisdictionWO),
		Granted:             O.IsSome(grantDate),
		GrantDate:           grantDate,
		Priorities:          biblio.Priorities(),
		DesignatedStates:    states,
		Applicants:          ResolveAllApplicants(store, biblio),
		Inventors:           ResolveAllInventors(store, biblio),
	}, nil
}

func publicationOrUnknown(pubs map[models.Jurisdiction]models.Publication, j models.Jurisdiction) models.Publication {
	if p, ok := pubs[j]; ok {
		return p
	}
	return models.Publication{Date: models.UnknownDate()}
}
