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

package log

import (
	"io"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// rotateHook writes log entries to a size-rotated file.
type rotateHook struct {
	w         io.WriteCloser
	levels    []logrus.Level
	formatter logrus.Formatter
}

func newRotateHook(c Config, filename string, level logrus.Level, formatter logrus.Formatter) *rotateHook {
	return &rotateHook{
		w: &lumberjack.Logger{
			Filename:   filename,
			MaxSize:    c.MaxSize,
			MaxBackups: c.MaxBackups,
			MaxAge:     c.MaxAge,
		},
		levels:    logrus.AllLevels[:level+1],
		formatter: formatter,
	}
}

// Levels returns the levels for which the entries are written.
func (h *rotateHook) Levels() []logrus.Level { return h.levels }

// Fire formats the entry and appends it to the current log file.
func (h *rotateHook) Fire(entry *logrus.Entry) error {
	b, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	_, err = h.w.Write(b)
	return err
}
