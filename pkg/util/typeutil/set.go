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

package typeutil

import (
	"sync"

	"github.com/samber/lo"
	"go.uber.org/atomic"
)

// Set 是基于 map[T]struct{} 的集合，零值不可写入，使用 NewSet 创建。
type Set[T comparable] map[T]struct{}

func NewSet[T comparable](elements ...T) Set[T] {
	set := make(Set[T], len(elements))
	set.Insert(elements...)
	return set
}

func (set Set[T]) Insert(elements ...T) {
	for _, e := range elements {
		set[e] = struct{}{}
	}
}

// Contain 判断所有 elements 是否都在集合中，不传参数时返回 true。
func (set Set[T]) Contain(elements ...T) bool {
	return lo.EveryBy(elements, func(e T) bool {
		_, ok := set[e]
		return ok
	})
}

func (set Set[T]) Remove(elements ...T) {
	for _, e := range elements {
		delete(set, e)
	}
}

// Collect 以任意顺序返回全部元素。
func (set Set[T]) Collect() []T {
	return lo.Keys(set)
}

func (set Set[T]) Len() int {
	return len(set)
}

// Map 返回对每个元素应用 fn 之后得到的新集合。
func Map[T, R comparable](set Set[T], fn func(T) R) Set[R] {
	out := make(Set[R], len(set))
	for e := range set {
		out[fn(e)] = struct{}{}
	}
	return out
}

// ConcurrentSet 是并发安全的集合，Insert 能告诉调用方元素是否第一次出现，
// 适合“每个键只处理一次”的场景。
type ConcurrentSet[T comparable] struct {
	inner sync.Map
	size  atomic.Int64
}

func NewConcurrentSet[T comparable]() *ConcurrentSet[T] {
	return &ConcurrentSet[T]{}
}

// Insert 插入元素，元素此前不存在时返回 true。
func (set *ConcurrentSet[T]) Insert(element T) bool {
	if _, loaded := set.inner.LoadOrStore(element, struct{}{}); loaded {
		return false
	}
	set.size.Inc()
	return true
}

func (set *ConcurrentSet[T]) Contain(elements ...T) bool {
	return lo.EveryBy(elements, func(e T) bool {
		_, ok := set.inner.Load(e)
		return ok
	})
}

func (set *ConcurrentSet[T]) Remove(elements ...T) {
	for _, e := range elements {
		if _, loaded := set.inner.LoadAndDelete(e); loaded {
			set.size.Dec()
		}
	}
}

func (set *ConcurrentSet[T]) Len() int {
	return int(set.size.Load())
}

func (set *ConcurrentSet[T]) Collect() []T {
	elements := make([]T, 0, set.Len())
	set.inner.Range(func(key, _ any) bool {
		elements = append(elements, key.(T))
		return true
	})
	return elements
}
