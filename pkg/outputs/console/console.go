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

// Package console renders decoded handle table entries on the terminal.
package console

import (
	"bufio"
	"encoding/json"
	"expvar"
	"fmt"
	"io"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rabbitstack/usertable/pkg/handle/types"
	"github.com/rabbitstack/usertable/pkg/session"
	"github.com/valyala/bytebufferpool"
)

var consoleErrors = expvar.NewInt("output.console.errors")

// Report designates the kind of listing being rendered.
type Report uint8

const (
	// Handles is the generic handle table listing.
	Handles Report = iota
	// EventHooks is the event hook listing.
	EventHooks
	// MessageHooks is the message hook listing.
	MessageHooks
	// Timers is the timer listing.
	Timers
)

// String returns the report name.
func (r Report) String() string {
	switch r {
	case Handles:
		return "userhandles"
	case EventHooks:
		return "eventhooks"
	case MessageHooks:
		return "messagehooks"
	case Timers:
		return "timers"
	default:
		return "unknown"
	}
}

// Item is the value handed to entry templates.
type Item struct {
	Session uint32
	Entry   *types.Entry
	Object  types.Object
}

// Console writes the decoded entries in the configured format. Output is
// organized in sessions: each session starts with Begin and ends with End.
type Console struct {
	writer *bufio.Writer
	format Format
	report Report
	tmpl   *template.Template
	pool   bytebufferpool.Pool

	sess session.Session
	si   *session.SharedInfo
	tw   table.Writer
	errs []error
}

// New builds the console writer for the report.
func New(w io.Writer, cfg Config, report Report) (*Console, error) {
	format, err := ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	c := &Console{
		writer: bufio.NewWriterSize(w, 8*1024),
		format: format,
		report: report,
	}
	if format == Template {
		if cfg.Template == "" {
			return nil, fmt.Errorf("%s option is required by the template output format", tmpl)
		}
		c.tmpl, err = template.New(report.String()).Funcs(sprig.TxtFuncMap()).Parse(cfg.Template)
		if err != nil {
			return nil, fmt.Errorf("invalid output template: %v", err)
		}
	}
	return c, nil
}

// Begin starts rendering the session handle table.
func (c *Console) Begin(sess session.Session, si *session.SharedInfo) error {
	c.sess, c.si, c.errs = sess, si, nil
	switch c.format {
	case Table:
		c.tw = c.newTable()
		if c.report == Handles {
			return c.write(c.banner())
		}
	case Text:
		if c.report == Handles {
			if err := c.write(c.banner()); err != nil {
				return err
			}
			return c.write(textHandlesHeader())
		}
	}
	return nil
}

// Entry renders a single decoded entry.
func (c *Console) Entry(e *types.Entry) error {
	var (
		b   []byte
		err error
	)
	switch c.format {
	case Table:
		c.tw.AppendRow(c.row(e))
		return nil
	case Text:
		b = c.text(e)
	case JSON:
		b, err = json.Marshal(struct {
			Session uint32       `json:"session"`
			Entry   *types.Entry `json:"entry"`
		}{c.sess.ID, e})
		b = append(b, '\n')
	case Template:
		buf := c.pool.Get()
		err = c.tmpl.Execute(buf, Item{Session: c.sess.ID, Entry: e, Object: e.Object})
		buf.WriteByte('\n')
		b = append([]byte(nil), buf.B...)
		c.pool.Put(buf)
	}
	if err != nil {
		consoleErrors.Add(1)
		return err
	}
	return c.write(b)
}

// Error renders a recoverable failure of the current session.
func (c *Console) Error(err error) error {
	switch c.format {
	case Table:
		c.errs = append(c.errs, err)
		return nil
	case JSON:
		b, merr := json.Marshal(struct {
			Session uint32 `json:"session"`
			Error   string `json:"error"`
		}{c.sess.ID, err.Error()})
		if merr != nil {
			return merr
		}
		return c.write(append(b, '\n'))
	default:
		return c.write([]byte(fmt.Sprintf("Session %d: %v\n", c.sess.ID, err)))
	}
}

// SessionError renders the failure that prevented the session from being decoded.
func (c *Console) SessionError(sess session.Session, err error) error {
	c.sess = sess
	if c.format == Table {
		return c.write([]byte(fmt.Sprintf("Session %d: %v\n", sess.ID, err)))
	}
	return c.Error(err)
}

// End finishes the session output.
func (c *Console) End() error {
	if c.format == Table && c.tw != nil {
		if c.tw.Length() > 0 {
			if err := c.write([]byte(c.tw.Render() + "\n")); err != nil {
				return err
			}
		}
		for _, err := range c.errs {
			if err := c.write([]byte(fmt.Sprintf("Session %d: %v\n", c.sess.ID, err))); err != nil {
				return err
			}
		}
		c.tw, c.errs = nil, nil
	}
	return c.writer.Flush()
}

// Close flushes any buffered output.
func (c *Console) Close() error { return c.writer.Flush() }

func (c *Console) write(buf []byte) error {
	written := 0
	for written < len(buf) {
		n, err := c.writer.Write(buf[written:])
		if err != nil {
			consoleErrors.Add(1)
			return err
		}
		written += n
	}
	return nil
}
