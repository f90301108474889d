// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for model selection and chat turns.
package model

import (
	"fmt"
	"strings"
)

// =============================================================================
// TIER TYPE
// =============================================================================

// Tier classifies a model as usable without a paid plan or not.
type Tier int

const (
	TierFree Tier = iota
	TierPaid
)

// String returns the string representation of the tier.
func (t Tier) String() string {
	switch t {
	case TierFree:
		return "free"
	case TierPaid:
		return "paid"
	default:
		return "unknown"
	}
}

// MarshalText lets tiers travel as "free"/"paid" in JSON envelopes.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText accepts the forms produced by MarshalText.
func (t *Tier) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "free":
		*t = TierFree
	case "paid":
		*t = TierPaid
	default:
		return fmt.Errorf("unknown tier %q", b)
	}
	return nil
}

// =============================================================================
// DESCRIPTOR TYPE
// =============================================================================

// Descriptor describes one entry of the model catalog. Values are immutable.
type Descriptor struct {
	// ID is the model identifier used in API calls
	ID string `json:"id"`

	// DisplayName is the human-readable name
	DisplayName string `json:"displayName"`

	// Tier gates whether the model is offered after a failed probe
	Tier Tier `json:"tier"`
}

// IsFree reports whether the model is in the free tier.
func (d Descriptor) IsFree() bool {
	return d.Tier == TierFree
}

// =============================================================================
// CATALOG
// =============================================================================

// ProbeModelID is the low-cost model used for capability probes.
const ProbeModelID = "claude-3-haiku-20240307"

// catalog is never handed out directly; Catalog returns a copy.
var catalog = [...]Descriptor{
	{ID: "claude-3-haiku-20240307", DisplayName: "Claude 3 Haiku", Tier: TierFree},
	{ID: "claude-3-5-haiku-20241022", DisplayName: "Claude 3.5 Haiku", Tier: TierFree},
	{ID: "claude-3-sonnet-20240229", DisplayName: "Claude 3 Sonnet", Tier: TierPaid},
	{ID: "claude-3-opus-20240229", DisplayName: "Claude 3 Opus", Tier: TierPaid},
	{ID: "claude-3-5-sonnet-20241022", DisplayName: "Claude 3.5 Sonnet", Tier: TierPaid},
	{ID: "claude-3-7-sonnet-20250219", DisplayName: "Claude 3.7 Sonnet", Tier: TierPaid},
	{ID: "claude-sonnet-4-20250514", DisplayName: "Claude Sonnet 4", Tier: TierPaid},
	{ID: "claude-opus-4-20250514", DisplayName: "Claude Opus 4", Tier: TierPaid},
	{ID: "claude-opus-4-1-20250805", DisplayName: "Claude Opus 4.1", Tier: TierPaid},
}

// Catalog returns a copy of the static model catalog in display order.
func Catalog() []Descriptor {
	out := make([]Descriptor, len(catalog))
	copy(out, catalog[:])
	return out
}

// Lookup finds a catalog entry by ID or case-insensitive display name.
func Lookup(nameOrID string) (Descriptor, bool) {
	for _, d := range catalog {
		if d.ID == nameOrID || strings.EqualFold(d.DisplayName, nameOrID) {
			return d, true
		}
	}
	return Descriptor{}, false
}

// FreeTier returns the free subset of descs, preserving order.
func FreeTier(descs []Descriptor) []Descriptor {
	out := make([]Descriptor, 0, len(descs))
	for _, d := range descs {
		if d.IsFree() {
			out = append(out, d)
		}
	}
	return out
}

// =============================================================================
// ACCESS CLASSIFICATION
// =============================================================================

// ProbeResult is the outcome of a capability probe.
type ProbeResult int

const (
	// ProbeOK means the probe request succeeded.
	ProbeOK ProbeResult = iota
	// ProbeAuthFailed means the credential was rejected.
	ProbeAuthFailed
	// ProbeFailed covers every other failure, including a missing credential.
	ProbeFailed
)

// String returns the string representation of the probe result.
func (p ProbeResult) String() string {
	switch p {
	case ProbeOK:
		return "ok"
	case ProbeAuthFailed:
		return "auth_failed"
	default:
		return "failed"
	}
}

// ClassifyAccess returns the usable subset of catalog for a probe result.
// Only a successful probe unlocks paid models; ambiguous failures never do.
func ClassifyAccess(catalog []Descriptor, result ProbeResult) []Descriptor {
	if result == ProbeOK {
		out := make([]Descriptor, len(catalog))
		copy(out, catalog)
		return out
	}
	return FreeTier(catalog)
}

// Contains reports whether id is present in descs.
func Contains(descs []Descriptor, id string) bool {
	for _, d := range descs {
		if d.ID == id {
			return true
		}
	}
	return false
}
