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

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lk2023060901/danmu-serde/pkg/util/merr"
)

const (
	// serdeNamespace 是当前项目所有 Prometheus 指标使用的命名空间。
	serdeNamespace = "serde"

	formatLabelName    = "format"
	resultLabelName    = "result"
	enumLabelName      = "enum"
	stageLabelName     = "stage"
	reasonLabelName    = "reason"
	directionLabelName = "direction"

	// result 标签取值：成功，或失败错误的类别（merr.ErrorType）。
	SuccessLabel     = "success"
	InputErrorLabel  = "input_error"
	SystemErrorLabel = "system_error"

	BuildStage = "build"
	BindStage  = "bind"

	EncodeDirection = "encode"
	DecodeDirection = "decode"

	DepthExceededReason  = "depth_exceeded"
	ElementFailedReason  = "element_failed"
	UnresolvedTypeReason = "unresolved_type"
	ValueMismatchReason  = "value_mismatch"
)

var (
	// sizeBuckets 为载荷大小的桶划分，单位为字节。
	// [64 256 1024 4096 16384 65536 262144 1.048576e+06 4.194304e+06 1.6777216e+07]
	sizeBuckets = prometheus.ExponentialBuckets(64, 4, 10)

	SerializeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: serdeNamespace,
			Name:      "serialize_total",
			Help:      "number of serialize calls grouped by format and result",
		}, []string{formatLabelName, resultLabelName})

	DeserializeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: serdeNamespace,
			Name:      "deserialize_total",
			Help:      "number of deserialize calls grouped by format and result",
		}, []string{formatLabelName, resultLabelName})

	EnumInventedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: serdeNamespace,
			Name:      "enum_invented_total",
			Help:      "number of codes invented for unknown enum strings",
		}, []string{enumLabelName})

	DroppedNodesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: serdeNamespace,
			Name:      "dropped_nodes_total",
			Help:      "number of values left absent while building or binding",
		}, []string{stageLabelName, reasonLabelName})

	PayloadBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: serdeNamespace,
			Name:      "payload_bytes",
			Help:      "size of encoded or decoded payloads in bytes",
			Buckets:   sizeBuckets,
		}, []string{formatLabelName, directionLabelName})

	registerOnce     sync.Once
	metricRegisterer prometheus.Registerer
)

// GetRegisterer 返回全局 Prometheus Registerer。
// 如果尚未通过 Register 显式设置，则返回 prometheus.DefaultRegisterer。
func GetRegisterer() prometheus.Registerer {
	if metricRegisterer == nil {
		return prometheus.DefaultRegisterer
	}
	return metricRegisterer
}

// Register 注册当前定义的所有指标，重复调用只有第一次生效。
func Register(r prometheus.Registerer) {
	registerOnce.Do(func() {
		r.MustRegister(SerializeTotal)
		r.MustRegister(DeserializeTotal)
		r.MustRegister(EnumInventedTotal)
		r.MustRegister(DroppedNodesTotal)
		r.MustRegister(PayloadBytes)
		metricRegisterer = r
	})
}

// ResultLabel 将错误转换为 result 标签值：nil 为 success，否则为错误类别，
// 例如畸形输入为 input_error，成员读取失败为 system_error。
func ResultLabel(err error) string {
	if err == nil {
		return SuccessLabel
	}
	return merr.GetErrorType(err).String()
}
