package log

import (
	"bytes"

	"go.uber.org/zap/zaptest"
)

// testWriter 把每条日志转发给 t.Logf，failOnWrite 为 true 时同时把测试标记为失败，
// 用作 zap 内部错误的输出。
type testWriter struct {
	t           zaptest.TestingT
	failOnWrite bool
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Logf("%s", bytes.TrimRight(p, "\n"))
	if w.failOnWrite {
		w.t.Fail()
	}
	return len(p), nil
}

func (w testWriter) Sync() error {
	return nil
}
