// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"strings"

	"github.com/jeranaias/rigrun-assist/internal/attach"
	"github.com/jeranaias/rigrun-assist/internal/model"
)

// ComposeMessage builds the user turn for userText and the given
// attachments.
//
// Without attachments the turn is userText verbatim. Each file is appended
// to the text as a "### name" heading over a fenced block tagged with its
// language. Images never go into the text: each becomes its own block
// after the text block, in attachment order.
func ComposeMessage(userText string, files []attach.File, images []attach.Image) model.Turn {
	text := userText
	if len(files) > 0 {
		var sb strings.Builder
		sb.WriteString(userText)
		for _, f := range files {
			sb.WriteString("\n\n")
			writeFileBlock(&sb, f)
		}
		text = sb.String()
	}

	blocks := make([]model.Block, 0, 1+len(images))
	blocks = append(blocks, model.TextBlock(text))
	for _, img := range images {
		blocks = append(blocks, model.ImageBlock(img.MIMEType, img.Data))
	}
	return model.NewUserTurn(blocks...)
}

func writeFileBlock(sb *strings.Builder, f attach.File) {
	fence := fenceFor(f.Content)

	sb.WriteString("### ")
	sb.WriteString(f.Name)
	sb.WriteString("\n")
	sb.WriteString(fence)
	sb.WriteString(f.Language)
	sb.WriteString("\n")
	sb.WriteString(f.Content)
	if !strings.HasSuffix(f.Content, "\n") {
		sb.WriteString("\n")
	}
	sb.WriteString(fence)
}

// fenceFor returns a backtick fence longer than any run inside content.
func fenceFor(content string) string {
	longest, run := 0, 0
	for _, r := range content {
		if r == '`' {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 0
		}
	}
	if longest < 3 {
		return "```"
	}
	return strings.Repeat("`", longest+1)
}
