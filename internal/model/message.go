// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for model selection and chat turns.
package model

import (
	"strings"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// =============================================================================
// CONTENT BLOCKS
// =============================================================================

// BlockKind discriminates the content block variants.
type BlockKind int

const (
	BlockText BlockKind = iota
	BlockImage
)

// Block is one piece of turn content: either text or a base64 image.
type Block struct {
	Kind BlockKind

	// Text is set for BlockText.
	Text string

	// MIMEType and Data are set for BlockImage. Data is base64 encoded.
	MIMEType string
	Data     string
}

// TextBlock creates a text content block.
func TextBlock(text string) Block {
	return Block{Kind: BlockText, Text: text}
}

// ImageBlock creates an image content block from base64 data.
func ImageBlock(mimeType, data string) Block {
	return Block{Kind: BlockImage, MIMEType: mimeType, Data: data}
}

// =============================================================================
// TURN TYPE
// =============================================================================

// Turn is one role-tagged unit of a chat. Plain-text content is a single
// text block; mixed content is a text block followed by image blocks.
type Turn struct {
	Role   Role
	Blocks []Block
}

// NewUserTurn creates a user turn from blocks.
func NewUserTurn(blocks ...Block) Turn {
	return Turn{Role: RoleUser, Blocks: blocks}
}

// NewAssistantTurn creates an assistant turn holding text.
func NewAssistantTurn(text string) Turn {
	return Turn{Role: RoleAssistant, Blocks: []Block{TextBlock(text)}}
}

// IsPlainText reports whether the turn is exactly one text block.
func (t Turn) IsPlainText() bool {
	return len(t.Blocks) == 1 && t.Blocks[0].Kind == BlockText
}

// Text returns the concatenated text of all text blocks.
func (t Turn) Text() string {
	var sb strings.Builder
	for _, b := range t.Blocks {
		if b.Kind == BlockText {
			sb.WriteString(b.Text)
		}
	}
	return sb.String()
}

// ImageCount returns the number of image blocks.
func (t Turn) ImageCount() int {
	n := 0
	for _, b := range t.Blocks {
		if b.Kind == BlockImage {
			n++
		}
	}
	return n
}
