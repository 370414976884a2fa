// Package tuple 提供按位置序列化的键值对与元组类型。
//
// Pair 编码为 {"key": ..., "value": ...}，TupleN 编码为 {"item1": ..., "itemN": ...}；
// 反序列化时缺失的非指针槽位会使整个值缺失。
package tuple

import "github.com/samber/lo"

// Pair 是一个键值对。
type Pair[K, V any] struct {
	Key   K
	Value V
}

// NewPair 创建 Pair。
func NewPair[K, V any](key K, value V) Pair[K, V] {
	return Pair[K, V]{Key: key, Value: value}
}

// Unpack 返回键与值。
func (p Pair[K, V]) Unpack() (K, V) {
	return p.Key, p.Value
}

// Tuple2 是二元组。
type Tuple2[A, B any] struct {
	Item1 A
	Item2 B
}

// New2 创建 Tuple2。
func New2[A, B any](a A, b B) Tuple2[A, B] {
	return Tuple2[A, B]{Item1: a, Item2: b}
}

func (t Tuple2[A, B]) Unpack() (A, B) {
	return t.Item1, t.Item2
}

// Tuple3 是三元组。
type Tuple3[A, B, C any] struct {
	Item1 A
	Item2 B
	Item3 C
}

// New3 创建 Tuple3。
func New3[A, B, C any](a A, b B, c C) Tuple3[A, B, C] {
	return Tuple3[A, B, C]{Item1: a, Item2: b, Item3: c}
}

func (t Tuple3[A, B, C]) Unpack() (A, B, C) {
	return t.Item1, t.Item2, t.Item3
}

// Pairs 把 map 展开为 Pair 列表，顺序与 map 迭代顺序一致。
func Pairs[K comparable, V any](m map[K]V) []Pair[K, V] {
	return lo.MapToSlice(m, NewPair[K, V])
}

// ToMap 把 Pair 列表收集为 map，重复的键以后出现的为准。
func ToMap[K comparable, V any](pairs []Pair[K, V]) map[K]V {
	return lo.SliceToMap(pairs, Pair[K, V].Unpack)
}
