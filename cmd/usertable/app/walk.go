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

package app

import (
	"github.com/rabbitstack/usertable/internal/bootstrap"
	"github.com/rabbitstack/usertable/pkg/config"
	"github.com/rabbitstack/usertable/pkg/outputs/console"
	"github.com/spf13/cobra"
)

var (
	userHandlesCmd  = newWalkCmd("userhandles", "List the USER handle table entries of all sessions", console.Handles)
	eventHooksCmd   = newWalkCmd("eventhooks", "Dump the accessibility event hooks installed with SetWinEventHook", console.EventHooks)
	messageHooksCmd = newWalkCmd("messagehooks", "Dump the message hooks installed with SetWindowsHookEx", console.MessageHooks)
	timersCmd       = newWalkCmd("timers", "Dump the USER timers", console.Timers)
)

// newWalkCmd builds the command that renders the report. Each command
// owns its configuration store since the flags are bound per command.
func newWalkCmd(use, short string, report console.Report) *cobra.Command {
	cfg := config.NewWithOpts(config.WithWalk())
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return walk(cfg, report)
		},
	}
	cfg.MustViperize(cmd)
	return cmd
}

func walk(cfg *config.Config, report console.Report) error {
	if err := bootstrap.InitConfigAndLogger(cfg); err != nil {
		return err
	}
	app, err := bootstrap.NewApp(cfg, bootstrap.WithSpinner())
	if err != nil {
		return err
	}
	defer app.Shutdown()
	return app.Run(report)
}
