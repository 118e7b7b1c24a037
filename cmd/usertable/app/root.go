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
	"github.com/rabbitstack/usertable/cmd/usertable/app/image"
	"github.com/spf13/cobra"
)

// RootCmd is the entrance to usertable CLI
var RootCmd = &cobra.Command{
	Use:   "usertable",
	Short: "Forensic decoder for the Windows GUI USER handle table",
	Long: `
	usertable decodes the win32k USER handle table of every GUI session found
	in a memory snapshot image. It lists the USER objects along with the threads
	and processes owning them, and dumps the payloads of the object types that
	are relevant for malware analysis such as event hooks, message hooks and timers.
	`,
	SilenceUsage: true,
}

func init() {
	RootCmd.AddCommand(userHandlesCmd)
	RootCmd.AddCommand(eventHooksCmd)
	RootCmd.AddCommand(messageHooksCmd)
	RootCmd.AddCommand(timersCmd)
	RootCmd.AddCommand(image.Command)
	RootCmd.AddCommand(profilesCmd)
	RootCmd.AddCommand(versionCmd)
}
