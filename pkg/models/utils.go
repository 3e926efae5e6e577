/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package models

import (
	"errors"
	"reflect"
	"strings"
)

var errNotStruct = errors.New("input must be a struct or pointer to struct")

// FilterSensitiveFields converts a struct into a map keyed by JSON field
// names, dropping every field tagged `sensitive:"true"`. It is used to log a
// resolved configuration without leaking the API token.
func FilterSensitiveFields(input interface{}) (map[string]interface{}, error) {
	if input == nil {
		return make(map[string]interface{}), nil
	}

	result := filterRecursively(reflect.ValueOf(input))
	if result == nil {
		return make(map[string]interface{}), nil
	}

	resultMap, ok := result.(map[string]interface{})
	if !ok {
		return nil, errNotStruct
	}

	return resultMap, nil
}

func filterRecursively(rv reflect.Value) interface{} {
	if !rv.IsValid() {
		return nil
	}

	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}

		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct:
		return filterStruct(rv)

	case reflect.Slice, reflect.Array:
		result := make([]interface{}, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			result[i] = filterRecursively(rv.Index(i))
		}

		return result

	case reflect.Map:
		result := make(map[string]interface{}, rv.Len())

		iter := rv.MapRange()
		for iter.Next() {
			if key, ok := iter.Key().Interface().(string); ok {
				result[key] = filterRecursively(iter.Value())
			}
		}

		return result

	default:
		if !rv.CanInterface() {
			return nil
		}

		return rv.Interface()
	}
}

func filterStruct(rv reflect.Value) map[string]interface{} {
	rt := rv.Type()
	result := make(map[string]interface{}, rt.NumField())

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)

		if !field.IsExported() || field.Tag.Get("sensitive") == "true" {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}

		fieldName := field.Name
		if name, _, _ := strings.Cut(jsonTag, ","); name != "" {
			fieldName = name
		}

		result[fieldName] = filterRecursively(rv.Field(i))
	}

	return result
}
