package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/mock/gomock"

	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/core"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/model"
	apperrors "github.com/William-Ta0/Migo-Marketplcase-sub000/internal/errors"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/mocks"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/testutil"
)

type harness struct {
	spans  *tracetest.SpanRecorder
	reader *sdkmetric.ManualReader
	opts   InstrumentOptions
}

func newHarness() harness {
	spans := tracetest.NewSpanRecorder()
	reader := sdkmetric.NewManualReader()
	return harness{
		spans:  spans,
		reader: reader,
		opts: InstrumentOptions{
			TracerProvider: sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans)),
			MeterProvider:  sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
		},
	}
}

// sum returns the total of the named Int64 counter across data points matching attr.
func (h harness) sum(t *testing.T, name string, attr ...attribute.KeyValue) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, h.reader.Collect(context.Background(), &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			data, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			for _, dp := range data.DataPoints {
				if matches(dp.Attributes, attr) {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func matches(set attribute.Set, want []attribute.KeyValue) bool {
	for _, kv := range want {
		v, ok := set.Value(kv.Key)
		if !ok || v != kv.Value {
			return false
		}
	}
	return true
}

func TestInstrumentedJobRepository_GetByID(t *testing.T) {
	ctrl := gomock.NewController(t)
	inner := mocks.NewMockJobRepository(ctrl)
	h := newHarness()
	repo := WrapJobRepository(inner, h.opts)

	job := testutil.NewJob().WithID("job-1").Build()
	inner.EXPECT().GetByID(gomock.Any(), "job-1").Return(job, nil)

	got, err := repo.GetByID(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Same(t, job, got)

	ended := h.spans.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "storage.job.GetByID", ended[0].Name())
	assert.Equal(t, codes.Unset, ended[0].Status().Code)
	assert.Equal(t, int64(1), h.sum(t, "bookings.storage.operations", attribute.String("db.operation", "job.GetByID")))
	assert.Zero(t, h.sum(t, "bookings.storage.errors"))
}

func TestInstrumentedJobRepository_TransitionConflict(t *testing.T) {
	ctrl := gomock.NewController(t)
	inner := mocks.NewMockJobRepository(ctrl)
	h := newHarness()
	repo := WrapJobRepository(inner, h.opts)

	params := core.ApplyTransitionParams{
		JobID:    "job-1",
		Expected: model.JobStatusPending,
		Entry:    model.StatusEntry{Status: model.JobStatusReviewing, ActorID: testutil.DefaultVendorID},
	}
	inner.EXPECT().ApplyTransition(gomock.Any(), params).Return(nil, apperrors.Conflict("job is no longer pending"))

	_, err := repo.ApplyTransition(context.Background(), params)
	require.True(t, apperrors.IsConflict(err))

	ended := h.spans.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)

	assert.Equal(t, int64(1), h.sum(t, "bookings.job.transitions",
		attribute.String("bookings.job.to", "reviewing"),
		attribute.String("result", ResultError),
		attribute.String("error.class", "conflict"),
	))
	assert.Equal(t, int64(1), h.sum(t, "bookings.storage.errors", attribute.String("error.class", "conflict")))
}

func TestInstrumentedRepositories_NilCreate(t *testing.T) {
	ctrl := gomock.NewController(t)
	jobs := mocks.NewMockJobRepository(ctrl)
	reviews := mocks.NewMockReviewRepository(ctrl)
	h := newHarness()

	jobs.EXPECT().Create(gomock.Any(), nil).Return(nil, apperrors.Validation("job is required"))
	reviews.EXPECT().Create(gomock.Any(), nil).Return(nil, apperrors.Validation("review is required"))

	_, err := WrapJobRepository(jobs, h.opts).Create(context.Background(), nil)
	assert.True(t, apperrors.IsValidation(err))
	_, err = WrapReviewRepository(reviews, h.opts).Create(context.Background(), nil)
	assert.True(t, apperrors.IsValidation(err))

	require.Len(t, h.spans.Ended(), 2)
	assert.Equal(t, int64(2), h.sum(t, "bookings.storage.errors", attribute.String("error.class", "validation")))
}

func TestInstrumentedReviewRepository_PassesThrough(t *testing.T) {
	ctrl := gomock.NewController(t)
	inner := mocks.NewMockReviewRepository(ctrl)
	h := newHarness()
	repo := WrapReviewRepository(inner, h.opts)

	inner.EXPECT().GetByJobID(gomock.Any(), "job-1").Return(nil, apperrors.NotFound("no review"))

	_, err := repo.GetByJobID(context.Background(), "job-1")
	assert.True(t, apperrors.IsNotFound(err))
	require.Len(t, h.spans.Ended(), 1)
	assert.Equal(t, "storage.review.GetByJobID", h.spans.Ended()[0].Name())
}

func TestSetup(t *testing.T) {
	t.Run("disabled installs no-op providers", func(t *testing.T) {
		p, err := Setup(context.Background(), Config{})
		require.NoError(t, err)
		assert.NoError(t, p.Shutdown(context.Background()))
	})

	t.Run("unknown exporter", func(t *testing.T) {
		_, err := Setup(context.Background(), Config{Enabled: true, Exporter: "zipkin"})
		assert.Error(t, err)
	})

	t.Run("otlp without endpoint", func(t *testing.T) {
		_, err := Setup(context.Background(), Config{Enabled: true, Exporter: ExporterOTLP})
		assert.Error(t, err)
	})

	t.Run("stdout", func(t *testing.T) {
		var out discard
		p, err := Setup(context.Background(), Config{Enabled: true, Output: &out})
		require.NoError(t, err)
		assert.NoError(t, p.Shutdown(context.Background()))
	})
}

type discard struct{ n int }

func (d *discard) Write(p []byte) (int, error) {
	d.n += len(p)
	return len(p), nil
}
