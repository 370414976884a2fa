package serde

import (
	"context"
	"reflect"

	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/lk2023060901/danmu-serde/pkg/log"
	"github.com/lk2023060901/danmu-serde/pkg/util/conc"
	"github.com/lk2023060901/danmu-serde/pkg/util/merr"
)

const tracerName = "github.com/lk2023060901/danmu-serde/pkg/serde"

var batchIDAllocator = atomic.NewInt64(0)

func (s *Serializer) getPool() (*conc.Pool[any], error) {
	s.poolMu.Lock()
	defer s.poolMu.Unlock()
	if s.closed {
		return nil, merr.WrapErrParameterInvalidMsg("serializer is closed")
	}
	if s.pool == nil {
		s.pool = conc.NewPool[any](s.poolSize,
			conc.WithPreAlloc(true),
			conc.WithConcealPanic(true),
			conc.WithExpiryDuration(conc.DefaultExpiryDuration))
	}
	return s.pool, nil
}

// SerializeMany 并发序列化 values，结果与输入按位置对应。
// 失败位置的结果为空字符串，所有错误合并后返回；ctx 取消后尚未提交的值不再处理。
func (s *Serializer) SerializeMany(ctx context.Context, values []any, pretty bool) ([]string, error) {
	results := make([]string, len(values))
	err := s.runBatch(ctx, "SerializeMany", len(values), func(i int) (any, error) {
		return s.SerializeToString(values[i], pretty, nil)
	}, func(i int, out any) {
		results[i] = out.(string)
	})
	return results, err
}

// DeserializeMany 并发反序列化 texts，结果与输入按位置对应，失败位置为零值。
func DeserializeMany[T any](ctx context.Context, s *Serializer, texts []string) ([]T, error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	results := make([]T, len(texts))
	err := s.runBatch(ctx, "DeserializeMany", len(texts), func(i int) (any, error) {
		v, err := s.DeserializeType(texts[i], t)
		if err != nil || !v.IsValid() {
			return nil, err
		}
		return v.Interface(), nil
	}, func(i int, out any) {
		if out != nil {
			results[i] = out.(T)
		}
	})
	return results, err
}

func (s *Serializer) runBatch(ctx context.Context, op string, n int, task func(i int) (any, error), collect func(i int, out any)) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, op, trace.WithAttributes(
		attribute.String("serde.format", s.format.Name()),
		attribute.Int("serde.batch.size", n),
	))
	defer span.End()

	logCtx := log.WithBatchID(ctx, batchIDAllocator.Inc())
	if sc := span.SpanContext(); sc.HasTraceID() {
		logCtx = log.WithTraceID(logCtx, sc.TraceID().String())
	}
	logger := log.Ctx(logCtx)

	pool, err := s.getPool()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, op+" failed")
		return err
	}
	futures := make([]*conc.Future[any], 0, n)
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		i := i
		futures = append(futures, pool.Submit(func() (any, error) {
			return task(i)
		}))
	}

	var errs []error
	for i, future := range futures {
		out, err := future.Await()
		if err != nil {
			errs = append(errs, errors.Wrapf(err, "batch item %d", i))
			continue
		}
		collect(i, out)
	}
	if len(futures) < n {
		errs = append(errs, errors.Wrapf(ctx.Err(), "batch stopped after %d of %d items", len(futures), n))
	}

	if err := merr.Combine(errs...); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, op+" failed")
		logger.Warn("batch finished with errors",
			zap.String("op", op),
			zap.Int("total", n),
			zap.Int("failed", len(errs)),
			zap.Error(err))
		return err
	}
	logger.Debug("batch finished", zap.String("op", op), zap.Int("total", n))
	return nil
}
