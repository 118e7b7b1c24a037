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
	"time"

	"github.com/google/uuid"
	"github.com/rabbitstack/usertable/pkg/session"
	"github.com/rabbitstack/usertable/pkg/util/va"
)

// Meta describes the snapshotted target.
type Meta struct {
	// ID uniquely identifies the snapshot.
	ID uuid.UUID `json:"id"`
	// Profile is the name of the layout profile that decodes the snapshot.
	Profile string `json:"profile"`
	// OS is the operating system of the target.
	OS string `json:"os"`
	// Major is the major OS version.
	Major int `json:"major"`
	// Minor is the minor OS version.
	Minor int `json:"minor"`
	// Build is the OS build number.
	Build int `json:"build,omitempty"`
	// MemoryModel is either 32bit or 64bit.
	MemoryModel string `json:"memory_model"`
	// Sessions lists the GUI sessions of the target.
	Sessions []SessionMeta `json:"sessions"`
	// Created is the snapshot creation time.
	Created time.Time `json:"created"`
	// Tool is the product token of the tool that produced the image.
	Tool string `json:"tool,omitempty"`
}

// SessionMeta identifies the session and the location of its shared info.
type SessionMeta struct {
	ID         uint32     `json:"id"`
	SharedInfo va.Address `json:"shared_info"`
}

// Locator returns the session locator backed by the snapshot metadata.
func (m Meta) Locator() session.Locator {
	sessions := make([]session.Session, 0, len(m.Sessions))
	for _, s := range m.Sessions {
		sessions = append(sessions, session.Session{ID: s.ID, SharedInfo: s.SharedInfo})
	}
	return session.NewStaticLocator(sessions...)
}
