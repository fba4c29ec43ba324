package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/core"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/model"
)

const storageScopeName = "github.com/William-Ta0/Migo-Marketplcase-sub000/storage"

// Result attribute values for bookings.job.transitions.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// InstrumentOptions selects the providers used by the decorators. Nil providers fall
// back to the otel globals.
type InstrumentOptions struct {
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// storageInstruments is shared by the job and review decorators.
type storageInstruments struct {
	tracer      trace.Tracer
	ops         metric.Int64Counter
	dur         metric.Float64Histogram
	errs        metric.Int64Counter
	transitions metric.Int64Counter
}

func newStorageInstruments(opts InstrumentOptions) storageInstruments {
	m := Meter(opts.MeterProvider, storageScopeName)
	ops, _ := m.Int64Counter("bookings.storage.operations",
		metric.WithDescription("Total storage operations executed"),
	)
	dur, _ := m.Float64Histogram("bookings.storage.operation.duration",
		metric.WithDescription("Storage operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	errs, _ := m.Int64Counter("bookings.storage.errors",
		metric.WithDescription("Total storage operation errors"),
	)
	transitions, _ := m.Int64Counter("bookings.job.transitions",
		metric.WithDescription("Status transitions attempted against the store"),
	)
	return storageInstruments{
		tracer:      Tracer(opts.TracerProvider, storageScopeName),
		ops:         ops,
		dur:         dur,
		errs:        errs,
		transitions: transitions,
	}
}

func (s storageInstruments) op(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span, time.Time) {
	all := append([]attribute.KeyValue{attribute.String("db.operation", name)}, attrs...)
	ctx, span := s.tracer.Start(ctx, "storage."+name,
		trace.WithAttributes(all...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	s.ops.Add(ctx, 1, metric.WithAttributes(attribute.String("db.operation", name)))
	return ctx, span, time.Now()
}

func (s storageInstruments) done(ctx context.Context, span trace.Span, start time.Time, name string, err error) {
	opAttr := attribute.String("db.operation", name)
	s.dur.Record(ctx, float64(time.Since(start).Microseconds())/1000, metric.WithAttributes(opAttr))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.errs.Add(ctx, 1, metric.WithAttributes(opAttr, attribute.String("error.class", ErrorClass(err))))
	}
	span.End()
}

// InstrumentedJobRepository wraps a core.JobRepository with spans and metrics.
type InstrumentedJobRepository struct {
	inner core.JobRepository
	inst  storageInstruments
}

var _ core.JobRepository = (*InstrumentedJobRepository)(nil)

// WrapJobRepository returns repo decorated with OTel instrumentation.
func WrapJobRepository(repo core.JobRepository, opts InstrumentOptions) *InstrumentedJobRepository {
	return &InstrumentedJobRepository{inner: repo, inst: newStorageInstruments(opts)}
}

func (r *InstrumentedJobRepository) Create(ctx context.Context, job *model.Job) (*model.Job, error) {
	var attrs []attribute.KeyValue
	if job != nil {
		attrs = append(attrs, attribute.String("bookings.vendor_id", job.VendorID))
	}
	ctx, span, t := r.inst.op(ctx, "job.Create", attrs...)
	v, err := r.inner.Create(ctx, job)
	if v != nil {
		span.SetAttributes(attribute.String("bookings.job_id", v.ID))
	}
	r.inst.done(ctx, span, t, "job.Create", err)
	return v, err
}

func (r *InstrumentedJobRepository) GetByID(ctx context.Context, id string) (*model.Job, error) {
	ctx, span, t := r.inst.op(ctx, "job.GetByID", attribute.String("bookings.job_id", id))
	v, err := r.inner.GetByID(ctx, id)
	r.inst.done(ctx, span, t, "job.GetByID", err)
	return v, err
}

func (r *InstrumentedJobRepository) List(ctx context.Context, opts *model.JobListOptions) ([]*model.Job, error) {
	ctx, span, t := r.inst.op(ctx, "job.List")
	v, err := r.inner.List(ctx, opts)
	span.SetAttributes(attribute.Int("bookings.job.count", len(v)))
	r.inst.done(ctx, span, t, "job.List", err)
	return v, err
}

func (r *InstrumentedJobRepository) ApplyTransition(ctx context.Context, params core.ApplyTransitionParams) (*model.Job, error) {
	attrs := []attribute.KeyValue{
		attribute.String("bookings.job.from", string(params.Expected)),
		attribute.String("bookings.job.to", string(params.Entry.Status)),
	}
	ctx, span, t := r.inst.op(ctx, "job.ApplyTransition",
		append(attrs, attribute.String("bookings.job_id", params.JobID))...)
	v, err := r.inner.ApplyTransition(ctx, params)

	result := ResultSuccess
	if err != nil {
		result = ResultError
		attrs = append(attrs, attribute.String("error.class", ErrorClass(err)))
	}
	r.inst.transitions.Add(ctx, 1, metric.WithAttributes(append(attrs, attribute.String("result", result))...))
	r.inst.done(ctx, span, t, "job.ApplyTransition", err)
	return v, err
}

func (r *InstrumentedJobRepository) AppendMessage(ctx context.Context, params core.AppendMessageParams) (*model.Job, error) {
	ctx, span, t := r.inst.op(ctx, "job.AppendMessage",
		attribute.String("bookings.job_id", params.JobID),
		attribute.String("bookings.message.kind", string(params.Message.Kind)),
	)
	v, err := r.inner.AppendMessage(ctx, params)
	r.inst.done(ctx, span, t, "job.AppendMessage", err)
	return v, err
}

func (r *InstrumentedJobRepository) AppendAttachment(ctx context.Context, params core.AppendAttachmentParams) (*model.Job, error) {
	ctx, span, t := r.inst.op(ctx, "job.AppendAttachment",
		attribute.String("bookings.job_id", params.JobID),
		attribute.Int64("bookings.attachment.size", params.Attachment.Size),
	)
	v, err := r.inner.AppendAttachment(ctx, params)
	r.inst.done(ctx, span, t, "job.AppendAttachment", err)
	return v, err
}

// InstrumentedReviewRepository wraps a core.ReviewRepository with spans and metrics.
type InstrumentedReviewRepository struct {
	inner core.ReviewRepository
	inst  storageInstruments
}

var _ core.ReviewRepository = (*InstrumentedReviewRepository)(nil)

// WrapReviewRepository returns repo decorated with OTel instrumentation.
func WrapReviewRepository(repo core.ReviewRepository, opts InstrumentOptions) *InstrumentedReviewRepository {
	return &InstrumentedReviewRepository{inner: repo, inst: newStorageInstruments(opts)}
}

func (r *InstrumentedReviewRepository) Create(ctx context.Context, rv *model.Review) (*model.Review, error) {
	var attrs []attribute.KeyValue
	if rv != nil {
		attrs = append(attrs, attribute.String("bookings.job_id", rv.JobID))
	}
	ctx, span, t := r.inst.op(ctx, "review.Create", attrs...)
	v, err := r.inner.Create(ctx, rv)
	r.inst.done(ctx, span, t, "review.Create", err)
	return v, err
}

func (r *InstrumentedReviewRepository) GetByID(ctx context.Context, id string) (*model.Review, error) {
	ctx, span, t := r.inst.op(ctx, "review.GetByID", attribute.String("bookings.review_id", id))
	v, err := r.inner.GetByID(ctx, id)
	r.inst.done(ctx, span, t, "review.GetByID", err)
	return v, err
}

func (r *InstrumentedReviewRepository) GetByJobID(ctx context.Context, jobID string) (*model.Review, error) {
	ctx, span, t := r.inst.op(ctx, "review.GetByJobID", attribute.String("bookings.job_id", jobID))
	v, err := r.inner.GetByJobID(ctx, jobID)
	r.inst.done(ctx, span, t, "review.GetByJobID", err)
	return v, err
}

func (r *InstrumentedReviewRepository) SetVendorResponse(ctx context.Context, params core.SetVendorResponseParams) (*model.Review, error) {
	ctx, span, t := r.inst.op(ctx, "review.SetVendorResponse", attribute.String("bookings.review_id", params.ReviewID))
	v, err := r.inner.SetVendorResponse(ctx, params)
	r.inst.done(ctx, span, t, "review.SetVendorResponse", err)
	return v, err
}
