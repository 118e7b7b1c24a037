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

package profile

import (
	"embed"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	uerrors "github.com/rabbitstack/usertable/pkg/errors"
	"github.com/rabbitstack/usertable/pkg/util/multierror"
	"github.com/rabbitstack/usertable/pkg/util/schema"
	"github.com/rabbitstack/usertable/pkg/util/suggest"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

//go:embed profiles/*.yml
var builtins embed.FS

// enumsFile holds constant tables shared by all built-in profiles.
const enumsFile = "profiles/enums.yml"

type enumValue struct {
	Value uint32 `mapstructure:"value"`
	Name  string `mapstructure:"name"`
}

type rawProfile struct {
	Name     string                 `mapstructure:"name"`
	Metadata Metadata               `mapstructure:"metadata"`
	Structs  map[string]Struct      `mapstructure:"structs"`
	Enums    map[string][]enumValue `mapstructure:"enums"`
}

// Registry keeps the built-in profiles and the profiles loaded from disk.
type Registry struct {
	profiles map[string]*Profile
	enums    map[string]Enum
}

// NewRegistry builds the registry with all built-in profiles.
func NewRegistry() (*Registry, error) {
	r := &Registry{profiles: make(map[string]*Profile), enums: make(map[string]Enum)}

	b, err := builtins.ReadFile(enumsFile)
	if err != nil {
		return nil, err
	}
	var raw rawProfile
	if err := unmarshal(b, &raw); err != nil {
		return nil, errors.Wrap(err, "invalid built-in enumerations")
	}
	r.enums = buildEnums(raw.Enums)

	entries, err := builtins.ReadDir("profiles")
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		path := "profiles/" + e.Name()
		if path == enumsFile {
			continue
		}
		b, err := builtins.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if _, err := r.Load(b, e.Name()); err != nil {
			return nil, errors.Wrapf(err, "invalid built-in profile %s", e.Name())
		}
	}
	return r, nil
}

// Load parses the profile, merges the shared constant tables and registers it.
// A profile with the same name as an existing one replaces it.
func (r *Registry) Load(b []byte, source string) (*Profile, error) {
	p, err := Parse(b)
	if err != nil {
		return nil, err
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	}
	for name, enum := range r.enums {
		if _, ok := p.Enums[name]; !ok {
			p.Enums[name] = enum
		}
	}
	if _, ok := r.profiles[p.Name]; ok {
		log.Debugf("profile %s from %s overrides the existing profile", p.Name, source)
	}
	r.profiles[p.Name] = p
	return p, nil
}

// LoadPaths loads profiles from a list of files or directories. Directories
// are scanned for files with the yml or yaml extension.
func (r *Registry) LoadPaths(paths []string) error {
	errs := make([]error, 0)
	for _, path := range paths {
		fi, err := os.Stat(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		files := []string{path}
		if fi.IsDir() {
			files, err = filepath.Glob(filepath.Join(path, "*.y*ml"))
			if err != nil {
				errs = append(errs, err)
				continue
			}
		}
		for _, file := range files {
			b, err := os.ReadFile(file)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if _, err := r.Load(b, file); err != nil {
				errs = append(errs, errors.Wrapf(err, "couldn't load %s profile", file))
			}
		}
	}
	return multierror.Wrap(errs...)
}

// Get returns the profile by name.
func (r *Registry) Get(name string) (*Profile, error) {
	p, ok := r.profiles[name]
	if !ok {
		return nil, uerrors.ErrProfileNotFound(name, suggest.Find(name, r.Names(), 3))
	}
	return p, nil
}

// Names returns sorted names of all registered profiles.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Parse validates the profile document and decodes it.
func Parse(b []byte) (*Profile, error) {
	var doc interface{}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, errors.Wrap(err, "couldn't parse profile")
	}
	valid, errs := schema.Validate(profileSchema, doc)
	if !valid || len(errs) > 0 {
		return nil, errors.Errorf("invalid profile: %v", multierror.Wrap(errs...))
	}
	var raw rawProfile
	if err := decode(doc, &raw); err != nil {
		return nil, err
	}
	p := &Profile{
		Name:     raw.Name,
		Metadata: raw.Metadata,
		Structs:  raw.Structs,
		Enums:    buildEnums(raw.Enums),
	}
	if p.Structs == nil {
		p.Structs = make(map[string]Struct)
	}
	return p, nil
}

func unmarshal(b []byte, out interface{}) error {
	var doc interface{}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return err
	}
	return decode(doc, out)
}

func decode(input, output interface{}) error {
	var decoderConfig = &mapstructure.DecoderConfig{
		Metadata:         nil,
		Result:           output,
		WeaklyTypedInput: true,
	}
	decoder, err := mapstructure.NewDecoder(decoderConfig)
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

func buildEnums(raw map[string][]enumValue) map[string]Enum {
	enums := make(map[string]Enum, len(raw))
	for name, values := range raw {
		enum := make(Enum, len(values))
		for _, v := range values {
			// the first name wins for aliased constants
			if _, ok := enum[v.Value]; !ok {
				enum[v.Value] = v.Name
			}
		}
		enums[name] = enum
	}
	return enums
}
