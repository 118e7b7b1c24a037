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
	"os"
	"strings"

	"github.com/rabbitstack/usertable/internal/bootstrap"
	"github.com/rabbitstack/usertable/pkg/config"
	"github.com/rabbitstack/usertable/pkg/image"
	"github.com/rabbitstack/usertable/pkg/profile"
	"github.com/rabbitstack/usertable/pkg/util/spinner"
	ver "github.com/rabbitstack/usertable/pkg/util/version"
	"github.com/spf13/cobra"
)

// Version is the release stamped into packed images.
var Version string

// Command groups the snapshot image commands.
var Command = &cobra.Command{
	Use:   "image",
	Short: "Inspect and assemble memory snapshot images",
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the image metadata and storage statistics",
	RunE:  info,
}

var packCmd = &cobra.Command{
	Use:   "pack <manifest> <image>",
	Short: "Assemble the image from raw memory dumps described by the manifest",
	Args:  cobra.ExactArgs(2),
	RunE:  pack,
}

var (
	infoConfig = config.NewWithOpts(config.WithImage())
	packConfig = config.NewWithOpts(config.WithProfiles())

	level int
)

func init() {
	infoConfig.MustViperize(infoCmd)
	packConfig.MustViperize(packCmd)
	packCmd.Flags().IntVar(&level, "level", 0, "The zstd compression level. Zero selects the default level")

	Command.AddCommand(infoCmd)
	Command.AddCommand(packCmd)
}

func info(cmd *cobra.Command, args []string) error {
	if err := bootstrap.InitConfigAndLogger(infoConfig); err != nil {
		return err
	}
	r, err := image.Open(infoConfig.Image)
	if err != nil {
		return err
	}
	defer r.Close()
	r.Info().Print(os.Stdout, r.Meta())
	return nil
}

func pack(cmd *cobra.Command, args []string) error {
	if err := bootstrap.InitConfigAndLogger(packConfig); err != nil {
		return err
	}
	m, err := image.LoadManifest(args[0])
	if err != nil {
		return err
	}
	reg, err := profile.NewRegistry()
	if err != nil {
		return err
	}
	if len(packConfig.Profile.Paths) > 0 {
		if err := reg.LoadPaths(packConfig.Profile.Paths); err != nil {
			return err
		}
	}
	prof, err := reg.Get(m.Profile)
	if err != nil {
		return err
	}
	v, err := ver.New(Version, "", "")
	if err != nil {
		return err
	}

	md := prof.Metadata
	meta := image.Meta{
		Profile:     prof.Name,
		OS:          md.OS,
		Major:       md.Major,
		Minor:       md.Minor,
		Build:       md.Build,
		MemoryModel: md.MemoryModel,
		Tool:        v.ProductToken(),
	}

	spin := spinner.Show("Packing " + strings.Join(args, " -> "))
	stats, err := image.Pack(m, meta, args[1], level)
	spin.Stop()
	if err != nil {
		return err
	}
	stats.Print(os.Stdout, args[1])
	return nil
}
