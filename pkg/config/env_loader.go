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

package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/carverauto/balena-sd/pkg/logger"
	"github.com/carverauto/balena-sd/pkg/models"
)

var (
	// ErrDstMustBeNonNilPointer indicates that the destination must be a non-nil pointer.
	ErrDstMustBeNonNilPointer = errors.New("dst must be a non-nil pointer")
	// ErrDstMustBePointerToStruct indicates that the destination must be a pointer to a struct.
	ErrDstMustBePointerToStruct = errors.New("dst must be a pointer to a struct")
	// ErrInvalidEnvValue is returned when a set variable cannot be parsed into its field.
	ErrInvalidEnvValue = errors.New("invalid environment value")
)

//nolint:gochecknoglobals // reflect types compared on every field
var (
	durationType      = reflect.TypeOf(time.Duration(0))
	modelDurationType = reflect.TypeOf(models.Duration(0))
)

// EnvConfigLoader loads configuration from environment variables.
// Variable names are the prefix plus the upper-cased json tag; nested
// structs join with an underscore. A field may list unprefixed legacy
// names in an `env:"A,B"` tag, consulted only when the primary name is unset.
type EnvConfigLoader struct {
	logger logger.Logger
	prefix string
}

// NewEnvConfigLoader creates a new environment variable config loader.
func NewEnvConfigLoader(log logger.Logger, prefix string) *EnvConfigLoader {
	return &EnvConfigLoader{
		logger: log,
		prefix: prefix,
	}
}

// Load implements ConfigLoader by reading from environment variables.
func (e *EnvConfigLoader) Load(_ context.Context, _ string, dst interface{}) error {
	if jsonConfig := os.Getenv(e.prefix + "CONFIG_JSON"); jsonConfig != "" {
		if err := json.Unmarshal([]byte(jsonConfig), dst); err != nil {
			return fmt.Errorf("failed to unmarshal %sCONFIG_JSON: %w", e.prefix, err)
		}

		e.debug().Msg("Loaded configuration from CONFIG_JSON environment variable")

		return nil
	}

	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return ErrDstMustBeNonNilPointer
	}

	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return ErrDstMustBePointerToStruct
	}

	return e.loadStruct(v, e.prefix)
}

// loadStruct recursively loads a struct from environment variables and
// reports every field that failed to parse.
func (e *EnvConfigLoader) loadStruct(v reflect.Value, prefix string) error {
	t := v.Type()

	var errs []error

	for i := 0; i < t.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.CanSet() {
			continue
		}

		jsonTag := fieldType.Tag.Get("json")
		if jsonTag == "" || jsonTag == "-" {
			continue
		}

		fieldName := strings.Split(jsonTag, ",")[0]
		envName := e.buildEnvName(prefix, fieldName)

		if err := e.setFieldValue(field, &fieldType, envName); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (*EnvConfigLoader) buildEnvName(prefix, fieldName string) string {
	envName := strings.ToUpper(fieldName)
	envName = strings.ReplaceAll(envName, ".", "_")

	return prefix + envName
}

// lookup returns the first non-empty value among envName and the field's
// legacy aliases, with the name it came from.
func (*EnvConfigLoader) lookup(fieldType *reflect.StructField, envName string) (name, value string) {
	if value = os.Getenv(envName); value != "" {
		return envName, value
	}

	for _, alias := range strings.Split(fieldType.Tag.Get("env"), ",") {
		alias = strings.TrimSpace(alias)
		if alias == "" {
			continue
		}

		if value = os.Getenv(alias); value != "" {
			return alias, value
		}
	}

	return envName, ""
}

func (e *EnvConfigLoader) setFieldValue(field reflect.Value, fieldType *reflect.StructField, envName string) error {
	if isNestedStruct(field) {
		return e.handleNestedStruct(field, envName)
	}

	name, envValue := e.lookup(fieldType, envName)
	if envValue == "" {
		return nil
	}

	if err := e.setFieldByKind(field, name, envValue); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEnvValue, err)
	}

	e.debug().Str("env", name).Str("value", "[set]").Msg("Loaded value from environment variable")

	return nil
}

func isNestedStruct(field reflect.Value) bool {
	return field.Kind() == reflect.Struct ||
		(field.Kind() == reflect.Ptr && field.Type().Elem().Kind() == reflect.Struct)
}

func (e *EnvConfigLoader) handleNestedStruct(field reflect.Value, envName string) error {
	prefix := envName + "_"

	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}

		return e.loadStruct(field.Elem(), prefix)
	}

	return e.loadStruct(field, prefix)
}

func (e *EnvConfigLoader) setFieldByKind(field reflect.Value, envName, envValue string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(envValue)

		return nil
	case reflect.Bool:
		return setBoolField(field, envName, envValue)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return setIntField(field, envName, envValue)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return setUintField(field, envName, envValue)
	case reflect.Float32, reflect.Float64:
		return setFloatField(field, envName, envValue)
	case reflect.Slice:
		return setSliceField(field, envName, envValue)
	case reflect.Ptr:
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}

		return e.setFieldByKind(field.Elem(), envName, envValue)
	default:
		return setJSONField(field, envName, envValue)
	}
}

func setBoolField(field reflect.Value, envName, envValue string) error {
	b, err := strconv.ParseBool(envValue)
	if err != nil {
		return fmt.Errorf("invalid boolean value for %s: %w", envName, err)
	}

	field.SetBool(b)

	return nil
}

// setIntField sets an integer field value, with special handling for durations.
func setIntField(field reflect.Value, envName, envValue string) error {
	switch field.Type() {
	case modelDurationType:
		d, err := models.ParseDuration(envValue)
		if err != nil {
			return fmt.Errorf("invalid duration value for %s: %w", envName, err)
		}

		field.SetInt(int64(d))
	case durationType:
		d, err := time.ParseDuration(envValue)
		if err != nil {
			return fmt.Errorf("invalid duration value for %s: %w", envName, err)
		}

		field.SetInt(int64(d))
	default:
		i, err := strconv.ParseInt(envValue, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %w", envName, err)
		}

		field.SetInt(i)
	}

	return nil
}

func setUintField(field reflect.Value, envName, envValue string) error {
	u, err := strconv.ParseUint(envValue, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid unsigned integer value for %s: %w", envName, err)
	}

	field.SetUint(u)

	return nil
}

func setFloatField(field reflect.Value, envName, envValue string) error {
	f, err := strconv.ParseFloat(envValue, 64)
	if err != nil {
		return fmt.Errorf("invalid float value for %s: %w", envName, err)
	}

	field.SetFloat(f)

	return nil
}

// setSliceField splits string slices on commas and decodes others as JSON.
func setSliceField(field reflect.Value, envName, envValue string) error {
	if field.Type().Elem().Kind() != reflect.String {
		return setJSONField(field, envName, envValue)
	}

	values := strings.Split(envValue, ",")
	slice := reflect.MakeSlice(field.Type(), len(values), len(values))

	for i, v := range values {
		slice.Index(i).SetString(strings.TrimSpace(v))
	}

	field.Set(slice)

	return nil
}

// setJSONField decodes maps and other composite types from a JSON value.
func setJSONField(field reflect.Value, envName, envValue string) error {
	if err := json.Unmarshal([]byte(envValue), field.Addr().Interface()); err != nil {
		return fmt.Errorf("invalid %s value for %s: %w", field.Kind(), envName, err)
	}

	return nil
}

func (e *EnvConfigLoader) debug() *zerolog.Event {
	if e.logger == nil {
		return nil
	}

	return e.logger.Debug()
}
