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
	"expvar"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	fs "github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
)

// loggerErrors counts logger setup failures
var loggerErrors = expvar.NewMap("logger.errors")

// defaultPath returns the logs directory used when no explicit path is configured.
func defaultPath() string {
	dir, err := os.UserCacheDir()
	if err == nil {
		return filepath.Join(dir, "usertable", "logs")
	}
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Join(filepath.Dir(exe), "logs")
}

// InitFromConfig initializes the global logrus logger from config options.
// Log lines are written to the filename inside the logs directory and
// optionally mirrored to standard error.
func InitFromConfig(c Config, filename string) error {
	path := c.Path
	if path == "" {
		path = defaultPath()
	}
	if path == "" {
		return errors.New("got an empty logs directory path")
	}
	if _, err := os.Stat(path); err != nil {
		if err := os.MkdirAll(path, os.ModePerm); err != nil {
			return fmt.Errorf("unable to create the %s logs directory: %v", path, err)
		}
	}
	file := filepath.Join(path, filename)

	var formatter logrus.Formatter
	switch c.Formatter {
	case "text":
		formatter = &logrus.TextFormatter{}
	default:
		formatter = &logrus.JSONFormatter{}
	}
	logrus.SetFormatter(formatter)

	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)

	if c.LogStdout {
		logrus.SetOutput(os.Stderr)
	} else {
		logrus.SetOutput(io.Discard)
	}

	if c.MaxSize > 0 {
		logrus.AddHook(newRotateHook(c, file, level, formatter))
		return nil
	}

	// rotation is disabled, so we fallback on the plain file hook
	loggerErrors.Add("rotate.disabled", 1)
	var pathMap fs.PathMap = make(map[logrus.Level]string)
	for _, lvl := range logrus.AllLevels {
		pathMap[lvl] = file
	}
	logrus.AddHook(fs.NewHook(pathMap, formatter))
	return nil
}
