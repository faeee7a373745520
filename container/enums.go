// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

package container

// MemberType tags a CastMember's payload. Numeric values match the tags
// the container format itself stores.
type MemberType uint32

const (
	MemberTypeNone MemberType = iota
	MemberTypeBitmap
	MemberTypeFilmLoop
	MemberTypeText
	MemberTypePalette
	MemberTypePicture
	MemberTypeSound
	MemberTypeButton
	MemberTypeShape
	MemberTypeMovie
	MemberTypeDigitalVideo
	MemberTypeScript
	MemberTypeRTE
	MemberTypeField
)

// String renders the member type for logs and the CLI dump command.
func (m MemberType) String() string {
	switch m {
	case MemberTypeBitmap:
		return "Bitmap"
	case MemberTypeFilmLoop:
		return "FilmLoop"
	case MemberTypeText:
		return "Text"
	case MemberTypePalette:
		return "Palette"
	case MemberTypePicture:
		return "Picture"
	case MemberTypeSound:
		return "Sound"
	case MemberTypeButton:
		return "Button"
	case MemberTypeShape:
		return "Shape"
	case MemberTypeMovie:
		return "Movie"
	case MemberTypeDigitalVideo:
		return "DigitalVideo"
	case MemberTypeScript:
		return "Script"
	case MemberTypeRTE:
		return "RTE"
	case MemberTypeField:
		return "Field"
	default:
		return "Unknown"
	}
}

// ScriptType tags a Script record's scope.
type ScriptType uint16

const (
	ScriptTypeInvalid ScriptType = iota
	ScriptTypeBehavior
	ScriptTypeMovie
	ScriptTypeParent
)

func (s ScriptType) String() string {
	switch s {
	case ScriptTypeMovie:
		return "Movie"
	case ScriptTypeParent:
		return "Parent"
	case ScriptTypeBehavior:
		return "Behavior"
	default:
		return "Invalid"
	}
}
