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

package merr

import (
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

const (
	SuccessCode int32 = 0
)

type ErrorType int32

const (
	SystemError ErrorType = 0
	InputError  ErrorType = 1
)

var ErrorTypeName = map[ErrorType]string{
	SystemError: "system_error",
	InputError:  "input_error",
}

func (err ErrorType) String() string {
	return ErrorTypeName[err]
}

// Define leaf errors here,
// WARN: take care to add new error,
// check whether you can use the errors below before adding a new one.
// Name: Err + related prefix + error name
var (
	// Parameter related
	ErrParameterInvalid = newSerdeError("invalid parameter", 100)
	ErrUnsupportedRoot  = newSerdeError("value cannot be the root of a document", 101)

	// Build related (object -> prototype)
	// ErrValueRead 表示在线实例的成员读取失败，整个 build 调用随之失败。
	ErrValueRead       = newSerdeError("failed to read member value", 200)
	ErrBuildIncomplete = newSerdeError("prototype build produced no value", 201)

	// Bind related (prototype -> object)
	ErrMalformedInput   = newSerdeError("malformed wire input", 300, WithErrorType(InputError))
	ErrTypeUnresolvable = newSerdeError("type tag cannot be resolved", 301, WithErrorType(InputError))
	ErrBindIncomplete   = newSerdeError("prototype bind produced no value", 302, WithErrorType(InputError))

	// Enum related
	// ErrEnumSpaceExhausted 表示某个枚举类型已没有可分配的合成值。
	ErrEnumSpaceExhausted = newSerdeError("enum value space exhausted", 400)
	ErrEnumDefinition     = newSerdeError("invalid enum definition", 401)
	ErrEnumNotDefined     = newSerdeError("enum type not defined", 402)

	// Format related
	ErrFormatUnsupported = newSerdeError("unsupported format", 500)
	ErrFormatEncode      = newSerdeError("format encode failed", 501)

	// Type registry related
	ErrTypeAlreadyRegistered = newSerdeError("type tag already registered", 600)

	// Do NOT export this,
	// never allow programmer using this, keep only for converting unknown error to serdeError
	errUnexpected = newSerdeError("unexpected error", (1<<16)-1)
)

type errorOption func(*serdeError)

func WithErrorType(etype ErrorType) errorOption {
	return func(err *serdeError) {
		err.errType = etype
	}
}

type serdeError struct {
	msg     string
	errCode int32
	errType ErrorType
}

func newSerdeError(msg string, code int32, options ...errorOption) serdeError {
	err := serdeError{
		msg:     msg,
		errCode: code,
	}

	for _, option := range options {
		option(&err)
	}
	return err
}

func (e serdeError) code() int32 {
	return e.errCode
}

func (e serdeError) Error() string {
	return e.msg
}

func (e serdeError) Is(err error) bool {
	cause := errors.Cause(err)
	if cause, ok := cause.(serdeError); ok {
		return e.errCode == cause.errCode
	}
	return false
}

type multiErrors struct {
	errs []error
}

func (e multiErrors) Unwrap() error {
	if len(e.errs) <= 1 {
		return nil
	}
	// To make merr work for multi errors,
	// we need cause of multi errors, which defined as the last error
	if len(e.errs) == 2 {
		return e.errs[1]
	}

	return multiErrors{
		errs: e.errs[1:],
	}
}

func (e multiErrors) Error() string {
	final := e.errs[0]
	for i := 1; i < len(e.errs); i++ {
		final = errors.Wrap(e.errs[i], final.Error())
	}
	return final.Error()
}

func (e multiErrors) Is(err error) bool {
	for _, item := range e.errs {
		if errors.Is(item, err) {
			return true
		}
	}
	return false
}

func Combine(errs ...error) error {
	errs = lo.Filter(errs, func(err error, _ int) bool { return err != nil })
	if len(errs) == 0 {
		return nil
	}
	return multiErrors{
		errs,
	}
}
