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
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var errInvalidDuration = errors.New("invalid duration")

const maxSeconds = math.MaxInt64 / int64(time.Second)

// Duration is a time.Duration that decodes from either a Go duration string
// ("15s", "1m") or a bare number of seconds.
type Duration time.Duration

// ParseDuration parses s as a Go duration string, falling back to an integer
// number of seconds.
func ParseDuration(s string) (Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty value", errInvalidDuration)
	}

	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		if secs > maxSeconds || secs < -maxSeconds {
			return 0, fmt.Errorf("%w: %d seconds is out of range", errInvalidDuration, secs)
		}

		return Duration(time.Duration(secs) * time.Second), nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", errInvalidDuration, err)
	}

	return Duration(d), nil
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		// numeric values are seconds
		if math.Abs(value) > float64(maxSeconds) {
			return fmt.Errorf("%w: %v seconds is out of range", errInvalidDuration, value)
		}

		*d = Duration(time.Duration(value * float64(time.Second)))

		return nil
	case string:
		dur, err := ParseDuration(value)
		if err != nil {
			return err
		}

		*d = dur

		return nil
	default:
		return errInvalidDuration
	}
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: expected scalar at line %d", errInvalidDuration, node.Line)
	}

	dur, err := ParseDuration(node.Value)
	if err != nil {
		return err
	}

	*d = dur

	return nil
}
