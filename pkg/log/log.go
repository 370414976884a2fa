// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Copyright 2019 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/uber/jaeger-client-go/utils"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"gopkg.in/natefinch/lumberjack.v2"
)

var _globalL, _globalP, _globalR atomic.Value

var (
	// level -> *zap.Logger，供 WithLevel 与 Ctx 按级别取用。
	_globalLevelLogger sync.Map
	// 组名 -> RateLimiter，见 MLogger.WithRateGroup。
	_namedRateLimiters sync.Map
)

// RateLimiter 是 Rated* 系列方法使用的限流器。
type RateLimiter interface {
	CheckCredit(delta float64) bool
}

type nopRateLimiter struct{}

func (nopRateLimiter) CheckCredit(float64) bool { return true }

func init() {
	conf := &Config{Level: "info", Stdout: true, DisableStacktrace: true, RateLimit: rateLimitFromEnv()}
	l, p, _ := InitLogger(conf, zap.OnFatal(zapcore.WriteThenPanic))
	ReplaceGlobals(l, p)
}

// InitLogger 按 cfg 创建 Logger：输出到文件（lumberjack 轮转）和/或标准输出。
// 返回的 Logger 面向包级函数，已经跳过一层调用栈。
func InitLogger(cfg *Config, opts ...zap.Option) (*zap.Logger, *ZapProperties, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	var outputs []zapcore.WriteSyncer
	if cfg.File.Filename != "" {
		lg, err := initFileLog(&cfg.File)
		if err != nil {
			return nil, nil, err
		}
		outputs = append(outputs, zapcore.AddSync(lg))
	}
	if cfg.Stdout {
		stdout, _, err := zap.Open("stdout")
		if err != nil {
			return nil, nil, err
		}
		outputs = append(outputs, stdout)
	}

	// 底层 Logger 总是以 debug 创建，各级别 Logger 由 replaceLeveledLoggers 派生，
	// 实际生效的级别由 props.Level 控制。
	debugCfg := *cfg
	debugCfg.Level = zapcore.DebugLevel.String()
	lg, props, err := InitLoggerWithWriteSyncer(&debugCfg, zap.CombineWriteSyncers(outputs...), opts...)
	if err != nil {
		return nil, nil, err
	}
	replaceLeveledLoggers(lg)
	props.Level.SetLevel(level)
	props.Limiter = cfg.RateLimit.build()
	return lg.WithOptions(zap.AddCallerSkip(1)), props, nil
}

// InitTestLogger 创建写入 t.Log 的 Logger，zap 内部错误会让测试失败。
func InitTestLogger(t zaptest.TestingT, cfg *Config, opts ...zap.Option) (*zap.Logger, *ZapProperties, error) {
	opts = append([]zap.Option{zap.ErrorOutput(testWriter{t: t, failOnWrite: true})}, opts...)
	return InitLoggerWithWriteSyncer(cfg, testWriter{t: t}, opts...)
}

// InitLoggerWithWriteSyncer 创建输出到 output 的 Logger。
func InitLoggerWithWriteSyncer(cfg *Config, output zapcore.WriteSyncer, opts ...zap.Option) (*zap.Logger, *ZapProperties, error) {
	lvl, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	level := zap.NewAtomicLevelAt(lvl)
	core := zapcore.NewCore(newZapEncoder(cfg), output, level)
	lg := zap.New(core, append(cfg.buildOptions(output), opts...)...)
	return lg, &ZapProperties{Core: core, Syncer: output, Level: level}, nil
}

// parseLevel 解析日志级别，trace 视为 debug。
func parseLevel(text string) (zapcore.Level, error) {
	if strings.EqualFold(text, "trace") {
		return zapcore.DebugLevel, nil
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(text)); err != nil {
		return level, errors.Wrapf(err, "invalid log level %q", text)
	}
	return level, nil
}

func initFileLog(cfg *FileLogConfig) (*lumberjack.Logger, error) {
	logPath := filepath.Join(cfg.RootPath, cfg.Filename)
	if st, err := os.Stat(logPath); err == nil && st.IsDir() {
		return nil, errors.Newf("log file %s is a directory", logPath)
	}
	if cfg.MaxSize == 0 {
		cfg.MaxSize = defaultLogMaxSize
	}
	return &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxDays,
		LocalTime:  true,
	}, nil
}

// L 返回全局 Logger，可以通过 ReplaceGlobals 替换，并发安全。
func L() *zap.Logger {
	return _globalL.Load().(*zap.Logger)
}

func levelL(level zapcore.Level) *zap.Logger {
	if v, ok := _globalLevelLogger.Load(level); ok {
		return v.(*zap.Logger)
	}
	return L()
}

// ctxL 返回与当前全局级别对应的 Logger。
func ctxL() *zap.Logger {
	return levelL(_globalP.Load().(*ZapProperties).Level.Level())
}

// R 返回全局限流器，未启用时为不限流的实现。
func R() RateLimiter {
	if rl, ok := _globalR.Load().(RateLimiter); ok && rl != nil {
		return rl
	}
	return nopRateLimiter{}
}

// ReplaceGlobals 替换全局 Logger；props.Limiter 非空时同时替换全局限流器。
func ReplaceGlobals(logger *zap.Logger, props *ZapProperties) {
	_globalL.Store(logger)
	_globalP.Store(props)
	if props.Limiter != nil {
		_globalR.Store(props.Limiter)
	}
}

// SetRateLimiter 替换全局限流器，nil 表示不限流。
func SetRateLimiter(rl RateLimiter) {
	if rl == nil {
		rl = nopRateLimiter{}
	}
	_globalR.Store(rl)
}

func replaceLeveledLoggers(debugLogger *zap.Logger) {
	for level := zapcore.DebugLevel; level <= zapcore.FatalLevel; level++ {
		_globalLevelLogger.Store(level, debugLogger.WithOptions(zap.IncreaseLevel(level)))
	}
}

// Sync 刷新全局 Logger 与各级别 Logger 的缓冲。
func Sync() error {
	err := L().Sync()
	_globalLevelLogger.Range(func(_, val any) bool {
		if syncErr := val.(*zap.Logger).Sync(); syncErr != nil && err == nil {
			err = syncErr
		}
		return err == nil
	})
	return err
}

// rateLimitFromEnv 读取 SERDE_LOG_RATE_ENABLE、SERDE_LOG_RATE_CREDIT_PER_SECOND
// 与 SERDE_LOG_RATE_MAX_BALANCE，用于配置文件加载之前的默认 Logger。
func rateLimitFromEnv() RateLimitConfig {
	cfg := RateLimitConfig{}
	if v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv("SERDE_LOG_RATE_ENABLE"))); err == nil {
		cfg.Enable = v
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv("SERDE_LOG_RATE_CREDIT_PER_SECOND")), 64); err == nil {
		cfg.CreditPerSecond = v
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv("SERDE_LOG_RATE_MAX_BALANCE")), 64); err == nil {
		cfg.MaxBalance = v
	}
	return cfg
}

// build 按配置创建限流器，未启用时返回 nopRateLimiter。
func (c RateLimitConfig) build() RateLimiter {
	if !c.Enable {
		return nopRateLimiter{}
	}
	credit, balance := c.CreditPerSecond, c.MaxBalance
	if credit <= 0 {
		credit = defaultRateCredit
	}
	if balance <= 0 {
		balance = defaultRateBalance
	}
	return utils.NewRateLimiter(credit, balance)
}
