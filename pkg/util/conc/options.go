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

package conc

import (
	"time"

	ants "github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/lk2023060901/danmu-serde/pkg/log"
)

// DefaultExpiryDuration 为空闲 worker 的默认回收间隔。
const DefaultExpiryDuration = time.Minute

type poolOption struct {
	preAlloc       bool
	expiryDuration time.Duration
	// concealPanic 为 true 时任务 panic 只记录日志，不再向外抛出。
	concealPanic bool
}

func defaultPoolOption() *poolOption {
	return &poolOption{
		expiryDuration: DefaultExpiryDuration,
	}
}

func (opt *poolOption) antsOptions() []ants.Option {
	return []ants.Option{
		ants.WithPreAlloc(opt.preAlloc),
		ants.WithExpiryDuration(opt.expiryDuration),
		// Submit 已经把 panic 写入 Future；这里决定 panic 是否继续传播到 worker 之外。
		ants.WithPanicHandler(func(v any) {
			log.Error("conc pool task panicked", log.FieldComponent("conc"), zap.Any("panic", v))
			if !opt.concealPanic {
				panic(v)
			}
		}),
	}
}

// PoolOption 用于配置协程池。
type PoolOption func(opt *poolOption)

// WithPreAlloc 预先分配全部 worker。
func WithPreAlloc(v bool) PoolOption {
	return func(opt *poolOption) {
		opt.preAlloc = v
	}
}

// WithExpiryDuration 设置空闲 worker 的回收间隔，d <= 0 时使用 DefaultExpiryDuration。
func WithExpiryDuration(d time.Duration) PoolOption {
	return func(opt *poolOption) {
		if d <= 0 {
			d = DefaultExpiryDuration
		}
		opt.expiryDuration = d
	}
}

func WithConcealPanic(v bool) PoolOption {
	return func(opt *poolOption) {
		opt.concealPanic = v
	}
}
