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

package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/carverauto/balena-sd/pkg/logger"
	"github.com/carverauto/balena-sd/pkg/models"
	"github.com/carverauto/balena-sd/pkg/targets"
)

const outPath = "/etc/prometheus/sd/targets.json"

var (
	errDiskFull     = errors.New("no space left on device")
	errRenameDenied = errors.New("rename denied")
)

// faultyFs injects failures into an otherwise working filesystem.
type faultyFs struct {
	afero.Fs

	failWrite   bool
	failRename  bool
	beforeChmod func()
}

func (f *faultyFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	file, err := f.Fs.OpenFile(name, flag, perm)
	if err != nil || !f.failWrite {
		return file, err
	}

	return &faultyFile{File: file}, nil
}

func (f *faultyFs) Rename(oldname, newname string) error {
	if f.failRename {
		return errRenameDenied
	}

	return f.Fs.Rename(oldname, newname)
}

func (f *faultyFs) Chmod(name string, mode os.FileMode) error {
	if f.beforeChmod != nil {
		f.beforeChmod()
	}

	return f.Fs.Chmod(name, mode)
}

// faultyFile writes half of the buffer and then fails.
type faultyFile struct {
	afero.File
}

func (f *faultyFile) Write(p []byte) (int, error) {
	n, _ := f.File.Write(p[:len(p)/2])

	return n, errDiskFull
}

func groupsFor(t *testing.T, uuids ...string) []models.TargetGroup {
	t.Helper()

	devices := make([]models.Device, 0, len(uuids))
	for _, id := range uuids {
		devices = append(devices, models.Device{UUID: id, ApplicationName: "myapp"})
	}

	groups, errs := targets.FormatAll(devices)
	require.Empty(t, errs)

	return groups
}

func newTestPublisher(t *testing.T, fs afero.Fs, format Format) *Publisher {
	t.Helper()

	p, err := New(fs, format, logger.NewTestLogger())
	require.NoError(t, err)

	return p
}

func dirEntries(t *testing.T, fs afero.Fs, dir string) []string {
	t.Helper()

	infos, err := afero.ReadDir(fs, dir)
	require.NoError(t, err)

	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name())
	}

	return names
}

func TestPublishRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	p := newTestPublisher(t, fs, FormatAuto)

	groups := groupsFor(t, "abc", "def")
	require.NoError(t, p.Publish(context.Background(), outPath, groups))

	data, err := afero.ReadFile(fs, outPath)
	require.NoError(t, err)

	var decoded []models.TargetGroup
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, groups, decoded)

	assert.Equal(t, []string{"targets.json"}, dirEntries(t, fs, filepath.Dir(outPath)))
}

func TestPublishJSONLayout(t *testing.T) {
	fs := afero.NewMemMapFs()
	p := newTestPublisher(t, fs, FormatAuto)

	require.NoError(t, p.Publish(context.Background(), outPath, groupsFor(t, "abc")))

	data, err := afero.ReadFile(fs, outPath)
	require.NoError(t, err)

	want := `[
  {
    "targets": [
      "abc.resindevice.io:80"
    ],
    "labels": {
      "app_name": "myapp",
      "device_uuid": "abc"
    }
  }
]
`
	assert.Equal(t, want, string(data))
}

func TestPublishIsDeterministic(t *testing.T) {
	fs := afero.NewMemMapFs()
	p := newTestPublisher(t, fs, FormatAuto)

	groups := groupsFor(t, "abc", "def", "0123")

	require.NoError(t, p.Publish(context.Background(), outPath, groups))
	first, err := afero.ReadFile(fs, outPath)
	require.NoError(t, err)

	require.NoError(t, p.Publish(context.Background(), outPath, groups))
	second, err := afero.ReadFile(fs, outPath)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestPublishFaultKeepsPreviousFile(t *testing.T) {
	tests := []struct {
		name string
		fs   func(base afero.Fs) afero.Fs
	}{
		{
			name: "write fails midway",
			fs:   func(base afero.Fs) afero.Fs { return &faultyFs{Fs: base, failWrite: true} },
		},
		{
			name: "rename fails",
			fs:   func(base afero.Fs) afero.Fs { return &faultyFs{Fs: base, failRename: true} },
		},
		{
			name: "read-only filesystem",
			fs:   func(base afero.Fs) afero.Fs { return afero.NewReadOnlyFs(base) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := afero.NewMemMapFs()

			require.NoError(t, newTestPublisher(t, base, FormatAuto).
				Publish(context.Background(), outPath, groupsFor(t, "abc")))

			previous, err := afero.ReadFile(base, outPath)
			require.NoError(t, err)

			err = newTestPublisher(t, tt.fs(base), FormatAuto).
				Publish(context.Background(), outPath, groupsFor(t, "abc", "def"))

			require.Error(t, err)
			require.ErrorIs(t, err, ErrPublish)

			current, err := afero.ReadFile(base, outPath)
			require.NoError(t, err)
			assert.Equal(t, previous, current)

			var decoded []models.TargetGroup
			require.NoError(t, json.Unmarshal(current, &decoded), "previous file is still valid JSON")

			assert.Equal(t, []string{"targets.json"}, dirEntries(t, base, filepath.Dir(outPath)),
				"no temporary files left behind")
		})
	}
}

func TestPublishEmptyListKeepsPreviousFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	p := newTestPublisher(t, fs, FormatAuto)

	require.NoError(t, p.Publish(context.Background(), outPath, groupsFor(t, "abc")))

	previous, err := afero.ReadFile(fs, outPath)
	require.NoError(t, err)

	err = p.Publish(context.Background(), outPath, nil)
	require.ErrorIs(t, err, ErrNoTargets)
	assert.NotErrorIs(t, err, ErrPublish)

	current, err := afero.ReadFile(fs, outPath)
	require.NoError(t, err)
	assert.Equal(t, previous, current)
}

func TestPublishEmptyListTouchesNothing(t *testing.T) {
	fs := afero.NewMemMapFs()

	err := newTestPublisher(t, fs, FormatAuto).Publish(context.Background(), outPath, []models.TargetGroup{})
	require.ErrorIs(t, err, ErrNoTargets)

	exists, err := afero.DirExists(fs, filepath.Dir(outPath))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPublishCancelledBeforePromotion(t *testing.T) {
	base := afero.NewMemMapFs()

	require.NoError(t, newTestPublisher(t, base, FormatAuto).
		Publish(context.Background(), outPath, groupsFor(t, "abc")))

	previous, err := afero.ReadFile(base, outPath)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// cancellation lands after the temp file is fully written
	fs := &faultyFs{Fs: base, beforeChmod: cancel}

	err = newTestPublisher(t, fs, FormatAuto).Publish(ctx, outPath, groupsFor(t, "abc", "def"))

	require.ErrorIs(t, err, ErrPublish)
	require.ErrorIs(t, err, context.Canceled)

	current, err := afero.ReadFile(base, outPath)
	require.NoError(t, err)
	assert.Equal(t, previous, current)
	assert.Equal(t, []string{"targets.json"}, dirEntries(t, base, filepath.Dir(outPath)))
}

func TestPublishAlreadyCancelled(t *testing.T) {
	fs := afero.NewMemMapFs()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := newTestPublisher(t, fs, FormatAuto).Publish(ctx, outPath, groupsFor(t, "abc"))

	require.ErrorIs(t, err, ErrPublish)

	exists, err := afero.Exists(fs, outPath)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPublishYAML(t *testing.T) {
	fs := afero.NewMemMapFs()
	p := newTestPublisher(t, fs, FormatAuto)

	path := "/srv/sd/targets.yml"
	groups := groupsFor(t, "abc", "def")

	require.NoError(t, p.Publish(context.Background(), path, groups))

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.True(t, len(data) > 0 && data[0] == '-', "YAML sequence at top level")

	var decoded []models.TargetGroup
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, groups, decoded)
}

func TestPublishExplicitFormatOverridesExtension(t *testing.T) {
	tests := []struct {
		name     string
		format   Format
		path     string
		wantYAML bool
	}{
		{"yaml on json path", FormatYAML, "/out/targets.json", true},
		{"yml alias on json path", Format("yml"), "/out/targets.json", true},
		{"upper-case YAML on json path", Format("YAML"), "/out/targets.json", true},
		{"upper-case JSON on yaml path", Format("JSON"), "/out/targets.yaml", false},
		{"json on yml path", FormatJSON, "/out/targets.yml", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			p := newTestPublisher(t, fs, tt.format)

			require.NoError(t, p.Publish(context.Background(), tt.path, groupsFor(t, "abc")))

			data, err := afero.ReadFile(fs, tt.path)
			require.NoError(t, err)

			var decoded []models.TargetGroup

			if tt.wantYAML {
				require.NoError(t, yaml.Unmarshal(data, &decoded))
				require.Error(t, json.Unmarshal(data, &decoded), "YAML was requested explicitly")
				assert.True(t, bytes.HasPrefix(data, []byte("-")))
			} else {
				require.NoError(t, json.Unmarshal(data, &decoded))
				assert.True(t, bytes.HasPrefix(data, []byte("[")))
			}

			assert.Len(t, decoded, 1)
		})
	}
}

func TestPublishOsFs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "sd")
	path := filepath.Join(dir, "targets.json")

	p := newTestPublisher(t, nil, FormatAuto)

	require.NoError(t, p.Publish(context.Background(), path, groupsFor(t, "abc")))
	require.NoError(t, p.Publish(context.Background(), path, groupsFor(t, "abc", "def")))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(fileMode), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded []models.TargetGroup
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Len(t, decoded, 2)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "targets.json", entries[0].Name())
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "", want: FormatAuto},
		{in: "auto", want: FormatAuto},
		{in: "JSON", want: FormatJSON},
		{in: "yaml", want: FormatYAML},
		{in: "yml", want: FormatYAML},
		{in: "toml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownFormat)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := New(nil, Format("xml"), nil)
	require.ErrorIs(t, err, ErrUnknownFormat)
}

func TestFormatResolve(t *testing.T) {
	assert.Equal(t, FormatJSON, FormatAuto.Resolve("targets.json"))
	assert.Equal(t, FormatJSON, FormatAuto.Resolve("targets"))
	assert.Equal(t, FormatYAML, FormatAuto.Resolve("targets.YAML"))
	assert.Equal(t, FormatYAML, FormatAuto.Resolve("targets.yml"))
	assert.Equal(t, FormatJSON, FormatJSON.Resolve("targets.yml"))
}
