/*
 *	Copyright 2025 The HopGNN Authors
 *
 *	Licensed under the Apache License, Version 2.0 (the "License");
 *	you may not use this file except in compliance with the License.
 *	You may obtain a copy of the License at
 *
 *	http://www.apache.org/licenses/LICENSE-2.0
 *
 *	Unless required by applicable law or agreed to in writing, software
 *	distributed under the License is distributed on an "AS IS" BASIS,
 *	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *	See the License for the specific language governing permissions and
 *	limitations under the License.
 */

package shapes

import (
	"reflect"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/x448/float16"
)

var float16Type = reflect.TypeOf(float16.Float16(0))

// CastAsDType casts a numeric value to the corresponding Go type for the DType.
// If the value is a slice, it will convert to a newly allocated slice of
// the given DType. It works for any number of slice nesting levels.
//
// Float16 is not a native Go type: it is converted through
// github.com/x448/float16, going through float32.
func CastAsDType(value any, dtype dtypes.DType) any {
	typeOf := reflect.TypeOf(value)
	valueOf := reflect.ValueOf(value)
	newTypeOf := typeForSliceDType(typeOf, dtype)
	if typeOf.Kind() != reflect.Slice && typeOf.Kind() != reflect.Array {
		// Scalar value.
		if newTypeOf.Kind() == reflect.Bool {
			return !valueOf.IsZero()
		}
		if newTypeOf == float16Type {
			f32 := valueOf.Convert(reflect.TypeOf(float32(0))).Interface().(float32)
			return float16.Fromfloat32(f32)
		}
		if typeOf == float16Type {
			f32 := value.(float16.Float16).Float32()
			return reflect.ValueOf(f32).Convert(newTypeOf).Interface()
		}
		return valueOf.Convert(newTypeOf).Interface()
	}

	newValueOf := reflect.MakeSlice(newTypeOf, valueOf.Len(), valueOf.Len())
	for ii := 0; ii < valueOf.Len(); ii++ {
		elem := CastAsDType(valueOf.Index(ii).Interface(), dtype)
		newValueOf.Index(ii).Set(reflect.ValueOf(elem))
	}
	return newValueOf.Interface()
}

func typeForSliceDType(valueType reflect.Type, dtype dtypes.DType) reflect.Type {
	if valueType.Kind() != reflect.Slice && valueType.Kind() != reflect.Array {
		return dtype.GoType()
	}
	subType := typeForSliceDType(valueType.Elem(), dtype)
	return reflect.SliceOf(subType)
}
