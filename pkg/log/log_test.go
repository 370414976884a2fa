package log

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type bufferSyncer struct {
	bytes.Buffer
}

func (b *bufferSyncer) Sync() error { return nil }

func TestInitLoggerWithWriteSyncer(t *testing.T) {
	buf := &bufferSyncer{}
	cfg := &Config{Level: "info", Format: "json", DisableTimestamp: true}
	lg, props, err := InitLoggerWithWriteSyncer(cfg, buf)
	require.NoError(t, err)
	require.NotNil(t, props)

	lg.Debug("hidden")
	lg.Info("visible", FieldComponent("serde"), FieldFormat("json"))
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"component":"serde"`)
	assert.Contains(t, out, `"format":"json"`)
}

func TestInitLoggerBadLevel(t *testing.T) {
	_, _, err := InitLoggerWithWriteSyncer(&Config{Level: "loud"}, &bufferSyncer{})
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	level, err := parseLevel("TRACE")
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, level)

	level, err = parseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, level)
}

func TestRateLimitConfig(t *testing.T) {
	assert.IsType(t, nopRateLimiter{}, RateLimitConfig{}.build())

	rl := RateLimitConfig{Enable: true, MaxBalance: 1}.build()
	assert.True(t, rl.CheckCredit(1))
	assert.False(t, rl.CheckCredit(1))
}

func TestSetLevel(t *testing.T) {
	old := GetLevel()
	defer SetLevel(old)

	SetLevel(zapcore.ErrorLevel)
	assert.Equal(t, zapcore.ErrorLevel, GetLevel())
}

func TestCtxLogger(t *testing.T) {
	assert.NotNil(t, Ctx(context.TODO()))
	//nolint:staticcheck
	assert.NotNil(t, Ctx(nil))

	ctx := WithModule(context.Background(), "serde")
	l := Ctx(ctx)
	assert.Same(t, l, Ctx(ctx))

	ctx = WithLevel(ctx, zapcore.DebugLevel)
	assert.True(t, Ctx(ctx).Core().Enabled(zapcore.DebugLevel))

	ctx = WithBatchID(ctx, 7)
	assert.NotSame(t, l, Ctx(ctx))
}

func TestCtxTraceAndBatch(t *testing.T) {
	buf := &bufferSyncer{}
	lg, _, err := InitLoggerWithWriteSyncer(&Config{Level: "info", Format: "json", DisableTimestamp: true}, buf)
	require.NoError(t, err)

	ctx := context.WithValue(context.Background(), CtxLogKey, &MLogger{Logger: lg})
	ctx = WithTraceID(WithBatchID(ctx, 3), "4bf92f3577b34da6a3ce929d0e0e4736")
	Ctx(ctx).Info("batch finished")

	out := buf.String()
	assert.Contains(t, out, `"traceID":"4bf92f3577b34da6a3ce929d0e0e4736"`)
	assert.Contains(t, out, `"batchID":3`)
}

type countingLimiter struct {
	allowed int
}

func (c *countingLimiter) CheckCredit(float64) bool {
	if c.allowed <= 0 {
		return false
	}
	c.allowed--
	return true
}

func TestRatedWarn(t *testing.T) {
	defer SetRateLimiter(nil)
	SetRateLimiter(&countingLimiter{allowed: 1})

	assert.True(t, RatedWarn(1, "first"))
	assert.False(t, RatedWarn(1, "second"))

	SetRateLimiter(nil)
	assert.True(t, RatedInfo(1, "unlimited"))
}

func TestBinder(t *testing.T) {
	b := &Binder{}
	assert.NotNil(t, b.Logger())

	l := With(zap.String("k", "v"))
	b.SetLogger(l)
	assert.Same(t, l, b.Logger())
}

func TestInitTestLogger(t *testing.T) {
	lg, _, err := InitTestLogger(t, &Config{Level: "debug"})
	require.NoError(t, err)
	lg.Debug("hello from test logger", FieldMember("Name"))

	ml := (&MLogger{Logger: lg}).WithRateGroup("test.debug", 0, 1)
	assert.True(t, ml.RatedDebug(1, "first debug"))
	assert.False(t, ml.RatedDebug(1, "second debug"))

	infoL, _, err := InitTestLogger(t, &Config{Level: "info"})
	require.NoError(t, err)
	quiet := (&MLogger{Logger: infoL}).WithRateGroup("test.quiet", 0, 1)
	assert.False(t, quiet.RatedDebug(1, "disabled level"))
	assert.True(t, quiet.RatedWarn(1, "credit untouched by the disabled level"))
}

func TestMLoggerRateGroup(t *testing.T) {
	lg := With(zap.String("k", "v")).WithRateGroup("test.mlogger", 0, 1)
	assert.True(t, lg.RatedWarn(1, "first"))
	assert.False(t, lg.RatedWarn(1, "second"))

	child := lg.WithComponent("child")
	assert.False(t, child.RatedWarn(1, "shares the group limiter"))

	again := With().WithRateGroup("test.mlogger", 0, 1)
	assert.False(t, again.RatedWarn(1, "same group"))
}
