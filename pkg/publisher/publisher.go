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

// Package publisher writes file_sd target files so that a reader only ever
// sees the previous complete file or the new complete file.
package publisher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/carverauto/balena-sd/pkg/logger"
	"github.com/carverauto/balena-sd/pkg/models"
)

const (
	fileMode = 0o644
	dirMode  = 0o755
)

// Publisher commits target lists to a filesystem.
type Publisher struct {
	fs     afero.Fs
	format Format
	logger logger.Logger
}

// New returns a Publisher writing through fs. A nil fs means the OS filesystem.
func New(fs afero.Fs, format Format, log logger.Logger) (*Publisher, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}

	format, err := ParseFormat(string(format))
	if err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewTestLogger()
	}

	return &Publisher{fs: fs, format: format, logger: log}, nil
}

// Publish serializes groups and atomically replaces the file at path.
// An empty list returns ErrNoTargets and leaves the filesystem alone. Any
// I/O failure returns an error wrapping ErrPublish and leaves the previous
// file in place.
func (p *Publisher) Publish(ctx context.Context, path string, groups []models.TargetGroup) error {
	if len(groups) == 0 {
		return ErrNoTargets
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublish, err)
	}

	data, err := Encode(p.format.Resolve(path), groups)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPublish, err)
	}

	dir := filepath.Dir(path)

	if err := p.fs.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("%w: creating %s: %w", ErrPublish, dir, err)
	}

	tmpPath, err := p.writeTemp(dir, filepath.Base(path), data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPublish, err)
	}

	// last point at which a cancelled cycle can back out cleanly
	if err := ctx.Err(); err != nil {
		p.removeTemp(tmpPath)

		return fmt.Errorf("%w: abandoned before promotion: %w", ErrPublish, err)
	}

	if err := p.fs.Rename(tmpPath, path); err != nil {
		p.removeTemp(tmpPath)

		return fmt.Errorf("%w: renaming into place: %w", ErrPublish, err)
	}

	p.syncDir(dir)

	p.logger.Debug().
		Str("path", path).
		Int("targets", len(groups)).
		Int("bytes", len(data)).
		Msg("Published target file")

	return nil
}

// writeTemp writes data to a new file next to the destination and returns
// its path. The file is synced, closed and readable by the scraper on return.
func (p *Publisher) writeTemp(dir, base string, data []byte) (string, error) {
	file, err := afero.TempFile(p.fs, dir, "."+base+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("creating temporary file: %w", err)
	}

	tmpPath := file.Name()

	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		p.removeTemp(tmpPath)

		return "", fmt.Errorf("writing temporary file: %w", err)
	}

	if err := file.Sync(); err != nil {
		_ = file.Close()
		p.removeTemp(tmpPath)

		return "", fmt.Errorf("syncing temporary file: %w", err)
	}

	if err := file.Close(); err != nil {
		p.removeTemp(tmpPath)

		return "", fmt.Errorf("closing temporary file: %w", err)
	}

	if err := p.fs.Chmod(tmpPath, fileMode); err != nil {
		p.removeTemp(tmpPath)

		return "", fmt.Errorf("setting mode on temporary file: %w", err)
	}

	return tmpPath, nil
}

func (p *Publisher) removeTemp(path string) {
	if err := p.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		p.logger.Warn().Err(err).Str("path", path).Msg("Failed to remove temporary file")
	}
}

// syncDir flushes the directory entry for the rename. Failure is logged only:
// the new file is already visible to readers.
func (p *Publisher) syncDir(dir string) {
	d, err := p.fs.Open(dir)
	if err != nil {
		p.logger.Debug().Err(err).Str("dir", dir).Msg("Could not open directory for sync")

		return
	}
	defer d.Close()

	if err := d.Sync(); err != nil {
		p.logger.Debug().Err(err).Str("dir", dir).Msg("Directory sync failed")
	}
}
