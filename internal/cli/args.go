// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// args.go - Argument parsing shared by every rigrun-assist command.

package cli

import (
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// ARG PARSER
// =============================================================================

// ArgParser splits raw arguments into flags and positional arguments.
// It handles:
//   - Long flags: --flag value or --flag=value
//   - Short flags: -f value
//   - Boolean flags: names passed to NewArgParser never take a value
//   - Repeated flags: --file a.go --file b.go
//   - "--" ends flag parsing
type ArgParser struct {
	subcommand string
	flags      map[string][]string
	boolFlags  map[string]bool
	positional []string
	raw        []string
}

// NewArgParser parses raw. boolNames lists the flags that never consume the
// following argument.
//
// Example:
//
//	args := NewArgParser([]string{"explain", "main.go", "--lines", "3:9", "--clipboard"}, "clipboard")
//	args.Subcommand()        // "explain"
//	args.Positional(1)       // "main.go"
//	args.Flag("lines")       // "3:9"
//	args.BoolFlag("clipboard") // true
func NewArgParser(raw []string, boolNames ...string) *ArgParser {
	p := &ArgParser{
		flags:      make(map[string][]string),
		boolFlags:  make(map[string]bool),
		positional: make([]string, 0, len(raw)),
		raw:        raw,
	}
	isBool := make(map[string]bool, len(boolNames))
	for _, n := range boolNames {
		isBool[n] = true
	}

	for i := 0; i < len(raw); i++ {
		arg := raw[i]

		if arg == "--" {
			p.positional = append(p.positional, raw[i+1:]...)
			break
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			p.positional = append(p.positional, arg)
			continue
		}

		name := strings.TrimLeft(arg, "-")
		if k, v, ok := strings.Cut(name, "="); ok {
			if b, err := strconv.ParseBool(v); err == nil && isBool[k] {
				p.boolFlags[k] = b
			} else {
				p.flags[k] = append(p.flags[k], v)
			}
			continue
		}

		if isBool[name] || i+1 >= len(raw) || strings.HasPrefix(raw[i+1], "-") {
			p.boolFlags[name] = true
			continue
		}
		p.flags[name] = append(p.flags[name], raw[i+1])
		i++
	}

	if len(p.positional) > 0 {
		p.subcommand = p.positional[0]
	}
	return p
}

// Subcommand returns the first positional argument, or "".
func (p *ArgParser) Subcommand() string {
	return p.subcommand
}

// Flag returns the last value of a string flag, or "".
func (p *ArgParser) Flag(name string) string {
	vals := p.flags[strings.TrimLeft(name, "-")]
	if len(vals) == 0 {
		return ""
	}
	return vals[len(vals)-1]
}

// FirstFlag returns the first non-empty value among the given flag names.
// Use it for long/short pairs: FirstFlag("model", "m").
func (p *ArgParser) FirstFlag(names ...string) string {
	for _, n := range names {
		if v := p.Flag(n); v != "" {
			return v
		}
	}
	return ""
}

// FlagValues returns every value of a repeated flag, across all given names,
// in argument order per name.
func (p *ArgParser) FlagValues(names ...string) []string {
	var out []string
	for _, n := range names {
		out = append(out, p.flags[strings.TrimLeft(n, "-")]...)
	}
	return out
}

// FlagIntOrDefault returns the flag as an integer, or def when absent or
// malformed.
func (p *ArgParser) FlagIntOrDefault(name string, def int) int {
	v, err := strconv.Atoi(p.Flag(name))
	if err != nil {
		return def
	}
	return v
}

// BoolFlag reports whether a boolean flag was set to true.
func (p *ArgParser) BoolFlag(names ...string) bool {
	for _, n := range names {
		if p.boolFlags[strings.TrimLeft(n, "-")] {
			return true
		}
	}
	return false
}

// HasFlag reports whether the flag appeared in any form.
func (p *ArgParser) HasFlag(name string) bool {
	name = strings.TrimLeft(name, "-")
	_, s := p.flags[name]
	_, b := p.boolFlags[name]
	return s || b
}

// Positional returns the positional argument at index, or "". Index 0 is
// the subcommand.
func (p *ArgParser) Positional(index int) string {
	if index < 0 || index >= len(p.positional) {
		return ""
	}
	return p.positional[index]
}

// PositionalFrom returns the positional arguments from index on.
func (p *ArgParser) PositionalFrom(index int) []string {
	if index < 0 || index >= len(p.positional) {
		return []string{}
	}
	return p.positional[index:]
}

// PositionalCount returns the number of positional arguments.
func (p *ArgParser) PositionalCount() int {
	return len(p.positional)
}

// Raw returns the original arguments.
func (p *ArgParser) Raw() []string {
	return p.raw
}

// =============================================================================
// HELPERS
// =============================================================================

// LineRange is an inclusive, 1-based line selection.
type LineRange struct {
	Start int
	End   int
}

// ParseLineRange parses "a:b", "a:" or "a". An empty string selects the
// whole file and returns the zero range.
func ParseLineRange(s string) (LineRange, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return LineRange{}, nil
	}
	from, to, hasColon := strings.Cut(s, ":")

	start, err := strconv.Atoi(from)
	if err != nil || start < 1 {
		return LineRange{}, NewValidationErrorWithExample("lines", s, "start must be a positive line number", "--lines 10:25")
	}
	if !hasColon {
		return LineRange{Start: start, End: start}, nil
	}
	if to == "" {
		return LineRange{Start: start}, nil
	}
	end, err := strconv.Atoi(to)
	if err != nil || end < start {
		return LineRange{}, NewValidationErrorWithExample("lines", s, "end must be a line number not before start", "--lines 10:25")
	}
	return LineRange{Start: start, End: end}, nil
}

// IsZero reports whether r selects the whole input.
func (r LineRange) IsZero() bool {
	return r.Start == 0 && r.End == 0
}

// Apply returns the selected lines of text. An End of zero runs to the end.
func (r LineRange) Apply(text string) (string, error) {
	if r.IsZero() {
		return text, nil
	}
	lines := strings.Split(text, "\n")
	if r.Start > len(lines) {
		return "", fmt.Errorf("line %d is past the end of the input (%d lines)", r.Start, len(lines))
	}
	end := r.End
	if end == 0 || end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[r.Start-1:end], "\n"), nil
}

// ParseBoolString parses true/false, yes/no, y/n, 1/0 and on/off.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1", "on":
		return true, nil
	case "false", "no", "n", "0", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean value: %s", s)
	}
}
