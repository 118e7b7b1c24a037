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

package bootstrap

import (
	"github.com/pkg/errors"
	"github.com/rabbitstack/usertable/pkg/config"
	"github.com/rabbitstack/usertable/pkg/util/log"
	"github.com/sirupsen/logrus"
)

// logFile is the name of the rotated log file inside the logging directory.
const logFile = "usertable.log"

// InitConfigAndLogger layers the config file over the flag and environment
// values and sets up the logger. The file is optional: when it can't be read
// the command runs with the remaining sources. A file that is read but breaks
// the config schema aborts the initialization.
func InitConfigAndLogger(cfg *config.Config) error {
	file := cfg.File()
	loadErr := cfg.TryLoadFile(file)
	if err := cfg.Init(); err != nil {
		return err
	}
	if loadErr == nil {
		if err := cfg.Validate(); err != nil {
			return errors.Wrapf(err, "config file %s", file)
		}
	}
	if err := log.InitFromConfig(cfg.Log, logFile); err != nil {
		return errors.Wrap(err, "unable to set up logging")
	}

	logger := logrus.WithField("file", file)
	if loadErr != nil {
		logger.WithError(loadErr).Debug("config file not loaded. Using flag and environment values")
		return nil
	}
	logger.Debug("config file loaded")
	return nil
}
