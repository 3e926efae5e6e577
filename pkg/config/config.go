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

// Package config layers service configuration from a file and the environment.
package config

import (
	"context"
	"errors"

	"github.com/carverauto/balena-sd/pkg/logger"
)

var errInvalidConfigPtr = errors.New("config must be a non-nil pointer")

// ConfigLoader fills dst from some source.
type ConfigLoader interface {
	Load(ctx context.Context, path string, dst interface{}) error
}

// Validator is implemented by configs that can check themselves.
type Validator interface {
	Validate() error
}

// Config holds the configuration loading dependencies.
type Config struct {
	fileLoader ConfigLoader
	envLoader  ConfigLoader
	logger     logger.Logger
}

// NewConfig builds a loader that reads an optional file and then the
// environment variables starting with envPrefix.
// If logger is nil, the process-wide logger is used.
func NewConfig(log logger.Logger, envPrefix string) *Config {
	if log == nil {
		log = createBasicLogger()
	}

	return &Config{
		fileLoader: NewFileConfigLoader(log),
		envLoader:  NewEnvConfigLoader(log, envPrefix),
		logger:     log,
	}
}

func createBasicLogger() logger.Logger {
	return logger.Wrap(logger.WithComponent("config"))
}

// ValidateConfig validates a configuration if it implements Validator.
func ValidateConfig(cfg interface{}) error {
	v, ok := cfg.(Validator)
	if !ok {
		return nil
	}

	return v.Validate()
}

// Load overlays the file at path (skipped when empty) and then the
// environment onto cfg. Fields absent from both keep their current values,
// so callers seed cfg with defaults first.
func (c *Config) Load(ctx context.Context, path string, cfg interface{}) error {
	if cfg == nil {
		return errInvalidConfigPtr
	}

	if path != "" {
		if err := c.fileLoader.Load(ctx, path, cfg); err != nil {
			return err
		}

		c.logger.Debug().Str("path", path).Msg("Loaded configuration file")
	}

	return c.envLoader.Load(ctx, "", cfg)
}
