/*
 * Copyright 2021-present by Nedim Sabic Sabic
 * https://www.fibratus.io
 * All Rights Reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package image

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rabbitstack/usertable/pkg/util/va"
	"gopkg.in/yaml.v3"
)

// Manifest describes how to assemble an image from raw memory dumps.
type Manifest struct {
	// Profile is the name of the layout profile.
	Profile string `yaml:"profile"`
	// Sessions lists the sessions and their shared info addresses.
	Sessions []ManifestSession `yaml:"sessions"`
	// Regions lists the raw memory dumps and the addresses they are mapped at.
	Regions []ManifestRegion `yaml:"regions"`

	dir string
}

// ManifestSession is the session entry of the manifest.
type ManifestSession struct {
	ID         uint32 `yaml:"id"`
	SharedInfo uint64 `yaml:"shared_info"`
}

// ManifestRegion maps the contents of a file, or a slice of it, at the base address.
type ManifestRegion struct {
	Base   uint64 `yaml:"base"`
	File   string `yaml:"file"`
	Offset int64  `yaml:"offset"`
	Size   int64  `yaml:"size"`
}

// LoadManifest reads the manifest file. Region file paths are relative to the manifest directory.
func LoadManifest(path string) (*Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, errors.Wrapf(err, "invalid manifest %s", path)
	}
	if len(m.Regions) == 0 {
		return nil, fmt.Errorf("manifest %s has no regions", path)
	}
	m.dir = filepath.Dir(path)
	return &m, nil
}

// SessionMeta returns the session metadata described by the manifest.
func (m *Manifest) SessionMeta() []SessionMeta {
	sessions := make([]SessionMeta, 0, len(m.Sessions))
	for _, s := range m.Sessions {
		sessions = append(sessions, SessionMeta{ID: s.ID, SharedInfo: va.Address(s.SharedInfo)})
	}
	return sessions
}

func (m *Manifest) read(r ManifestRegion) ([]byte, error) {
	path := r.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(m.dir, path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if r.Offset < 0 || r.Offset > int64(len(b)) {
		return nil, fmt.Errorf("offset %d is out of %s bounds", r.Offset, path)
	}
	b = b[r.Offset:]
	if r.Size > 0 {
		if r.Size > int64(len(b)) {
			return nil, fmt.Errorf("%s has less than %d bytes at offset %d", path, r.Size, r.Offset)
		}
		b = b[:r.Size]
	}
	return b, nil
}

// Pack writes the image with the regions described by the manifest.
func Pack(m *Manifest, meta Meta, filename string, level int) (Stats, error) {
	meta.Sessions = m.SessionMeta()
	w, err := Create(filename, meta, level)
	if err != nil {
		return Stats{}, err
	}
	for _, r := range m.Regions {
		b, err := m.read(r)
		if err != nil {
			_ = w.Close()
			return Stats{}, err
		}
		if err := w.WriteRegion(va.Address(r.Base), b); err != nil {
			_ = w.Close()
			return Stats{}, err
		}
	}
	return w.Stats(), w.Close()
}
