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
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rabbitstack/usertable/internal/bootstrap"
	"github.com/rabbitstack/usertable/pkg/config"
	"github.com/rabbitstack/usertable/pkg/handle"
	"github.com/rabbitstack/usertable/pkg/profile"
	"github.com/spf13/cobra"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List the built-in and user-provided layout profiles",
	RunE:  listProfiles,
}

var profilesConfig = config.NewWithOpts(config.WithProfiles())

func init() {
	profilesConfig.MustViperize(profilesCmd)
}

// listProfiles renders a table with all registered profiles and whether the handle
// table layout they describe can be decoded.
func listProfiles(cmd *cobra.Command, args []string) error {
	if err := bootstrap.InitConfigAndLogger(profilesConfig); err != nil {
		return err
	}
	reg, err := profile.NewRegistry()
	if err != nil {
		return err
	}
	if len(profilesConfig.Profile.Paths) > 0 {
		if err := reg.LoadPaths(profilesConfig.Profile.Paths); err != nil {
			return err
		}
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Name", "OS", "Build", "Memory model", "Structures", "Supported"})
	t.SetStyle(table.StyleLight)

	for _, name := range reg.Names() {
		p, err := reg.Get(name)
		if err != nil {
			return err
		}
		m := p.Metadata
		supported := "no"
		if handle.SupportedLayout(m.OS, m.Major, m.Minor) {
			supported = "yes"
		}
		t.AppendRow(table.Row{
			p.Name,
			m.OS + " " + strconv.Itoa(m.Major) + "." + strconv.Itoa(m.Minor),
			m.Build,
			m.MemoryModel,
			len(p.Structs),
			supported,
		})
	}
	t.Render()

	return nil
}
