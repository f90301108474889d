// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"text/template"
)

var (
	// ErrUnknownPurpose is returned for a purpose with no prompt template.
	ErrUnknownPurpose = errors.New("unknown prompt purpose")

	// ErrEmptySelection is returned when there is no code to run a prompt on.
	ErrEmptySelection = errors.New("no code selected")
)

// PromptData is the template context. Templates reference {{.Code}} and
// {{.Language}}.
type PromptData struct {
	Code     string
	Language string
}

// RenderPrompt executes tmpl with data.
func RenderPrompt(tmpl string, data PromptData) (string, error) {
	t, err := template.New("prompt").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parse prompt template: %w", err)
	}
	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render prompt template: %w", err)
	}
	return sb.String(), nil
}

// Purposes returns the available purposes in sorted order.
func (o *Orchestrator) Purposes() []string {
	out := make([]string, 0, len(o.prompts))
	for p := range o.prompts {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// RunPromptTemplate renders the prompt for purpose over the selected code
// and submits it like Submit.
func (o *Orchestrator) RunPromptTemplate(ctx context.Context, purpose, selectedText, language, modelID string) (string, error) {
	tmpl, ok := o.prompts[purpose]
	if !ok {
		return "", fmt.Errorf("%w: %q (available: %s)", ErrUnknownPurpose, purpose, strings.Join(o.Purposes(), ", "))
	}
	if strings.TrimSpace(selectedText) == "" {
		return "", ErrEmptySelection
	}

	text, err := RenderPrompt(tmpl, PromptData{Code: selectedText, Language: language})
	if err != nil {
		return "", err
	}
	return o.Submit(ctx, text, modelID)
}
