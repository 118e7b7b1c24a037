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

// Package bootstrap wires the snapshot image, the layout profile and the
// handle table scanner behind the walk commands.
package bootstrap

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/rabbitstack/usertable/pkg/config"
	"github.com/rabbitstack/usertable/pkg/handle"
	"github.com/rabbitstack/usertable/pkg/handle/types"
	"github.com/rabbitstack/usertable/pkg/image"
	"github.com/rabbitstack/usertable/pkg/mem"
	"github.com/rabbitstack/usertable/pkg/outputs/console"
	"github.com/rabbitstack/usertable/pkg/profile"
	"github.com/rabbitstack/usertable/pkg/session"
	"github.com/rabbitstack/usertable/pkg/util/spinner"
	log "github.com/sirupsen/logrus"
)

// App centralizes the building blocks that decode the USER handle
// tables of a snapshot image and route the entries to the console.
type App struct {
	config  *config.Config
	reader  *image.Reader
	prof    *profile.Profile
	scanner *handle.Scanner
	out     io.Writer
}

// Option enables changing the behaviour of the bootstrap application.
type Option func(*opts)

type opts struct {
	showSpinner bool
	output      io.Writer
	cachedPages int
}

// WithSpinner shows a spinner while the image is indexed.
func WithSpinner() Option {
	return func(o *opts) {
		o.showSpinner = true
	}
}

// WithOutput sets the writer that receives rendered entries.
func WithOutput(w io.Writer) Option {
	return func(o *opts) {
		o.output = w
	}
}

// WithCachedPages sets the number of address space pages kept in memory.
func WithCachedPages(n int) Option {
	return func(o *opts) {
		o.cachedPages = n
	}
}

// NewApp opens the snapshot image and resolves the profile that decodes it.
// The profile given in the configuration takes precedence over the one
// recorded in the image metadata. Unsupported layouts are rejected here,
// before any output is produced.
func NewApp(cfg *config.Config, options ...Option) (*App, error) {
	o := &opts{output: os.Stdout}
	for _, opt := range options {
		opt(o)
	}

	var spin *spinner.Spinner
	if o.showSpinner {
		spin = spinner.Show("Opening " + cfg.Image)
	}
	reader, err := image.Open(cfg.Image)
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		return nil, err
	}

	prof, err := resolveProfile(cfg.Profile, reader.Meta())
	if err != nil {
		_ = reader.Close()
		return nil, err
	}

	as := mem.NewCached(reader, o.cachedPages)
	scanner, err := handle.NewScanner(as, prof, handle.NewReaders(prof)...)
	if err != nil {
		_ = reader.Close()
		return nil, err
	}

	log.Infof("opened %s image with %s profile", reader.Name(), prof.Name)

	return &App{
		config:  cfg,
		reader:  reader,
		prof:    prof,
		scanner: scanner,
		out:     o.output,
	}, nil
}

func resolveProfile(c config.ProfileConfig, meta image.Meta) (*profile.Profile, error) {
	reg, err := profile.NewRegistry()
	if err != nil {
		return nil, err
	}
	if len(c.Paths) > 0 {
		if err := reg.LoadPaths(c.Paths); err != nil {
			return nil, err
		}
	}
	name := c.Name
	if name == "" {
		name = meta.Profile
	}
	if name == "" {
		return nil, errors.New("the image doesn't record a profile. Specify one with the profile.name option")
	}
	prof, err := reg.Get(name)
	if err != nil {
		return nil, err
	}
	m := prof.Metadata
	if meta.OS != "" && (meta.Major != m.Major || meta.Minor != m.Minor) {
		log.Warnf("image was taken on %s %d.%d but is decoded with the %s profile (%s)",
			meta.OS, meta.Major, meta.Minor, prof.Name, m)
	}
	return prof, nil
}

// Profile returns the profile the image is decoded with.
func (a *App) Profile() *profile.Profile { return a.prof }

// Run walks the handle tables of all sessions recorded in the image and
// renders the entries of the report. The typed reports restrict the walk
// to their object type and resolve the object payloads.
func (a *App) Run(report console.Report) error {
	opts, err := a.config.Options()
	if err != nil {
		return err
	}
	switch report {
	case console.EventHooks:
		opts = opts.WithType(types.TypeWinEventHook)
	case console.MessageHooks:
		opts = opts.WithType(types.TypeHook)
	case console.Timers:
		opts = opts.WithType(types.TypeTimer)
	}
	opts.ResolveObjects = report != console.Handles

	out, err := console.New(a.out, a.config.Output, report)
	if err != nil {
		return err
	}
	defer out.Close()

	for table, err := range a.scanner.Tables(a.reader.Meta().Locator()) {
		if err != nil {
			var serr *handle.SessionError
			if !errors.As(err, &serr) {
				return err
			}
			if err := out.SessionError(session.Session{ID: serr.ID}, serr.Err); err != nil {
				return err
			}
			continue
		}
		if err := a.walk(out, table, opts); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) walk(out *console.Console, table *handle.Table, opts handle.Options) error {
	if err := out.Begin(table.Session, table.SharedInfo); err != nil {
		return err
	}
	n := 0
	for e, err := range a.scanner.Walk(table.SharedInfo, opts) {
		if err != nil {
			if err := out.Error(err); err != nil {
				return err
			}
			continue
		}
		n++
		if err := out.Entry(e); err != nil {
			return err
		}
	}
	log.WithField("session", table.Session.ID).Debugf("rendered %d entries", n)
	return out.End()
}

// Shutdown releases the image.
func (a *App) Shutdown() error { return a.reader.Close() }
