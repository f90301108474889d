// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package host

import (
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// LanguageFor returns the language tag for a file, suitable for a fenced
// code block (e.g. "python" for a.py). Unknown files return "".
func LanguageFor(path string) string {
	lexer := lexers.Match(filepath.Base(path))
	if lexer == nil {
		return ""
	}
	return tagFor(lexer)
}

// LanguageForContent guesses the language of code without a file name,
// e.g. a clipboard selection. Unknown content returns "".
func LanguageForContent(code string) string {
	lexer := lexers.Analyse(code)
	if lexer == nil {
		return ""
	}
	return tagFor(lexer)
}

func tagFor(lexer chroma.Lexer) string {
	cfg := lexer.Config()
	if len(cfg.Aliases) > 0 {
		return cfg.Aliases[0]
	}
	return strings.ToLower(cfg.Name)
}

// DisplayLanguage returns a human label for a language tag ("python" ->
// "Python"). An empty tag yields "Text".
func DisplayLanguage(tag string) string {
	if tag == "" {
		return "Text"
	}
	if lexer := lexers.Get(tag); lexer != nil {
		return lexer.Config().Name
	}
	// Casers carry state, so one per call.
	return cases.Title(language.English).String(tag)
}
