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
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// Code 返回给定错误对应的错误码。
// 非 serdeError 的错误统一归为 errUnexpected。
func Code(err error) int32 {
	if err == nil {
		return SuccessCode
	}

	cause := errors.Cause(err)
	switch specificErr := cause.(type) {
	case serdeError:
		return specificErr.code()

	default:
		return errUnexpected.code()
	}
}

// IsFatal 判断错误是否属于必须向调用方抛出的致命错误。
// 其余错误在 build/bind 内部被吸收为“缺省值”语义。
func IsFatal(err error) bool {
	return errors.IsAny(err, ErrValueRead, ErrEnumSpaceExhausted)
}

// GetErrorType 返回错误的类别，包装过的错误按其根因判断；非 serdeError 归为 SystemError。
func GetErrorType(err error) ErrorType {
	if cause, ok := errors.Cause(err).(serdeError); ok {
		return cause.errType
	}
	return SystemError
}

// Parameter 相关错误封装。
func WrapErrParameterInvalid[T any](expected, actual T, msg ...string) error {
	err := wrapFields(ErrParameterInvalid,
		value("expected", expected),
		value("actual", actual),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrParameterInvalidMsg(fmt string, args ...any) error {
	return errors.Wrapf(ErrParameterInvalid, fmt, args...)
}

func WrapErrUnsupportedRoot(typeName string, shape string) error {
	return wrapFields(ErrUnsupportedRoot, value("type", typeName), value("shape", shape))
}

// Build 相关错误封装。
func WrapErrValueRead(typeName, member string, cause any) error {
	return wrapFieldsWithDesc(ErrValueRead,
		fmt.Sprint(cause),
		value("type", typeName),
		value("member", member),
	)
}

func WrapErrBuildIncomplete(typeName string, msg ...string) error {
	err := wrapFields(ErrBuildIncomplete, value("type", typeName))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// Bind 相关错误封装。
func WrapErrMalformedInput(format string, cause error) error {
	if cause == nil {
		return wrapFields(ErrMalformedInput, value("format", format))
	}
	return wrapFieldsWithDesc(ErrMalformedInput, cause.Error(), value("format", format))
}

func WrapErrTypeUnresolvable(tag string, declared string) error {
	return wrapFields(ErrTypeUnresolvable, value("tag", tag), value("declared", declared))
}

func WrapErrBindIncomplete(typeName string, msg ...string) error {
	err := wrapFields(ErrBindIncomplete, value("type", typeName))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// Enum 相关错误封装。
func WrapErrEnumSpaceExhausted(enumName string, lower, upper int64) error {
	return wrapFields(ErrEnumSpaceExhausted, bound("code", "next", lower, upper), value("enum", enumName))
}

func WrapErrEnumDefinition(enumName string, msg ...string) error {
	err := wrapFields(ErrEnumDefinition, value("enum", enumName))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrEnumNotDefined(enumName string) error {
	return wrapFields(ErrEnumNotDefined, value("enum", enumName))
}

// Format 相关错误封装。
func WrapErrFormatUnsupported(format any, msg ...string) error {
	err := wrapFields(ErrFormatUnsupported, value("format", format))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrFormatEncode(format string, cause error) error {
	return wrapFieldsWithDesc(ErrFormatEncode, cause.Error(), value("format", format))
}

// Type registry 相关错误封装。
func WrapErrTypeAlreadyRegistered(tag string, existing string) error {
	return wrapFields(ErrTypeAlreadyRegistered, value("tag", tag), value("existing", existing))
}

func wrapFields(err serdeError, fields ...errorField) error {
	for i := range fields {
		err.msg += fmt.Sprintf("[%s]", fields[i].String())
	}
	return err
}

func wrapFieldsWithDesc(err serdeError, desc string, fields ...errorField) error {
	for i := range fields {
		err.msg += fmt.Sprintf("[%s]", fields[i].String())
	}
	err.msg += ": " + desc
	return err
}

type errorField interface {
	String() string
}

type valueField struct {
	name  string
	value any
}

func value(name string, value any) valueField {
	return valueField{
		name,
		value,
	}
}

func (f valueField) String() string {
	return fmt.Sprintf("%s=%v", f.name, f.value)
}

type boundField struct {
	name  string
	value any
	lower any
	upper any
}

func bound(name string, value, lower, upper any) boundField {
	return boundField{
		name,
		value,
		lower,
		upper,
	}
}

func (f boundField) String() string {
	return fmt.Sprintf("%v out of range %v <= %s <= %v", f.value, f.lower, f.name, f.upper)
}
