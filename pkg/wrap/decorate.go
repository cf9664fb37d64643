// Copyright 2024 Aerospike, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package wrap

import (
	"context"
	"fmt"
	"reflect"

	retry "github.com/aerospike/retry-go"
	"github.com/aerospike/retry-go/models"
)

// TagName is the struct tag read by Decorate.
const TagName = "retry"

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// Decorate replaces every func field of the struct pointed to by target that
// carries a `retry:"..."` tag with a wrapper of identical signature running the
// original function under the tagged policy.
//
// Eligible functions take a context.Context as the first parameter and return an
// error as the last result. Every attempt receives its own copy of the remaining
// arguments: values with a Clone method returning their own type are cloned,
// slices and maps are shallow-copied, everything else is passed by value.
//
// All fields are checked before any is replaced, so on error target is unchanged.
// A nil reg means [DefaultRegistry].
func Decorate(target any, reg *Registry, opts ...retry.Option) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: target must be a non-nil pointer to a struct, got %T", ErrInvalidTag, target)
	}

	if reg == nil {
		reg = DefaultRegistry()
	}

	s := v.Elem()
	t := s.Type()

	type replacement struct {
		index int
		fn    reflect.Value
	}

	replacements := make([]replacement, 0, t.NumField())

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		tag, ok := field.Tag.Lookup(TagName)
		if !ok {
			continue
		}

		if !field.IsExported() {
			return fmt.Errorf("%w: field %s is not exported", ErrInvalidTag, field.Name)
		}

		if err := checkSignature(field.Type); err != nil {
			return fmt.Errorf("field %s: %w", field.Name, err)
		}

		fv := s.Field(i)
		if fv.IsNil() {
			return fmt.Errorf("%w: field %s is nil", ErrInvalidTag, field.Name)
		}

		policy, pred, err := resolve(tag, reg)
		if err != nil {
			return fmt.Errorf("field %s: %w", field.Name, err)
		}

		// Detached from the field, which is overwritten with the wrapper below.
		orig := reflect.ValueOf(fv.Interface())

		replacements = append(replacements, replacement{
			index: i,
			fn:    wrapValue(orig, policy, pred, opts),
		})
	}

	for _, r := range replacements {
		s.Field(r.index).Set(r.fn)
	}

	return nil
}

func checkSignature(ft reflect.Type) error {
	if ft.Kind() != reflect.Func {
		return fmt.Errorf("%w: %s is not a function", ErrNotAsync, ft)
	}

	if ft.NumIn() == 0 || ft.In(0) != contextType {
		return fmt.Errorf("%w: %s does not take a context.Context first", ErrNotAsync, ft)
	}

	if ft.NumOut() == 0 || ft.Out(ft.NumOut()-1) != errorType {
		return fmt.Errorf("%w: %s does not return an error last", ErrNotAsync, ft)
	}

	return nil
}

func wrapValue(
	orig reflect.Value,
	policy *models.RetryPolicy,
	pred retry.Predicate,
	opts []retry.Option,
) reflect.Value {
	ft := orig.Type()
	last := ft.NumOut() - 1

	return reflect.MakeFunc(ft, func(args []reflect.Value) []reflect.Value {
		ctx, _ := args[0].Interface().(context.Context)
		if ctx == nil {
			ctx = context.Background()
		}

		var results []reflect.Value

		err := retry.Do(ctx, policy, func(context.Context) error {
			in := duplicateArgs(args)

			if ft.IsVariadic() {
				results = orig.CallSlice(in)
			} else {
				results = orig.Call(in)
			}

			if errValue := results[last]; !errValue.IsNil() {
				return errValue.Interface().(error)
			}

			return nil
		}, pred, opts...)

		if results == nil {
			results = zeroResults(ft)
		}

		if err != nil {
			results[last] = reflect.ValueOf(&err).Elem()
		}

		return results
	})
}

func zeroResults(ft reflect.Type) []reflect.Value {
	out := make([]reflect.Value, ft.NumOut())
	for i := range out {
		out[i] = reflect.Zero(ft.Out(i))
	}

	return out
}

// duplicateArgs copies every argument except the context.
func duplicateArgs(args []reflect.Value) []reflect.Value {
	in := make([]reflect.Value, len(args))
	in[0] = args[0]

	for i := 1; i < len(args); i++ {
		in[i] = duplicate(args[i])
	}

	return in
}

func duplicate(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Slice, reflect.Map:
		if v.IsNil() {
			return v
		}
	default:
	}

	// The dynamic value is duplicated and boxed again in the parameter's type.
	if v.Kind() == reflect.Interface {
		out := reflect.New(v.Type()).Elem()
		out.Set(duplicate(v.Elem()))

		return out
	}

	if c, ok := cloneValue(v); ok {
		return c
	}

	switch v.Kind() {
	case reflect.Slice:
		c := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		reflect.Copy(c, v)

		return c
	case reflect.Map:
		c := reflect.MakeMapWithSize(v.Type(), v.Len())

		iter := v.MapRange()
		for iter.Next() {
			c.SetMapIndex(iter.Key(), iter.Value())
		}

		return c
	default:
		return v
	}
}

// cloneValue calls a Clone method whose single result is assignable to the value's type.
func cloneValue(v reflect.Value) (reflect.Value, bool) {
	m := v.MethodByName("Clone")
	if !m.IsValid() {
		return reflect.Value{}, false
	}

	mt := m.Type()
	if mt.NumIn() != 0 || mt.NumOut() != 1 || !mt.Out(0).AssignableTo(v.Type()) {
		return reflect.Value{}, false
	}

	out := reflect.New(v.Type()).Elem()
	out.Set(m.Call(nil)[0])

	return out, true
}
