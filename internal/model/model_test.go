// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// CATALOG TESTS
// =============================================================================

func TestCatalog_Shape(t *testing.T) {
	cat := Catalog()
	require.Len(t, cat, 9)
	assert.Len(t, FreeTier(cat), 2)

	seen := map[string]bool{}
	for _, d := range cat {
		assert.NotEmpty(t, d.ID)
		assert.NotEmpty(t, d.DisplayName)
		assert.False(t, seen[d.ID], "duplicate id %s", d.ID)
		seen[d.ID] = true
	}

	probe, ok := Lookup(ProbeModelID)
	require.True(t, ok)
	assert.True(t, probe.IsFree(), "probe model must be free tier")
}

func TestCatalog_ReturnsCopy(t *testing.T) {
	a := Catalog()
	a[0].DisplayName = "mutated"
	assert.NotEqual(t, "mutated", Catalog()[0].DisplayName)
}

func TestLookup(t *testing.T) {
	d, ok := Lookup("claude 3 opus")
	require.True(t, ok)
	assert.Equal(t, "claude-3-opus-20240229", d.ID)

	_, ok = Lookup("gpt-4o")
	assert.False(t, ok)
}

// =============================================================================
// CLASSIFY ACCESS TESTS
// =============================================================================

func TestClassifyAccess(t *testing.T) {
	cat := Catalog()
	tests := []struct {
		result ProbeResult
		want   int
	}{
		{ProbeOK, 9},
		{ProbeAuthFailed, 2},
		{ProbeFailed, 2},
	}
	for _, tc := range tests {
		t.Run(tc.result.String(), func(t *testing.T) {
			got := ClassifyAccess(cat, tc.result)
			assert.Len(t, got, tc.want)
			if tc.result != ProbeOK {
				for _, d := range got {
					assert.Equal(t, TierFree, d.Tier)
				}
			}
		})
	}
}

func TestClassifyAccess_DoesNotAliasInput(t *testing.T) {
	cat := Catalog()
	got := ClassifyAccess(cat, ProbeOK)
	got[0].ID = "x"
	assert.NotEqual(t, "x", cat[0].ID)
}

func TestDescriptor_JSONTier(t *testing.T) {
	data, err := json.Marshal(Descriptor{ID: "a", DisplayName: "A", Tier: TierPaid})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"a","displayName":"A","tier":"paid"}`, string(data))

	var back Descriptor
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, TierPaid, back.Tier)
	assert.Error(t, json.Unmarshal([]byte(`{"tier":"gold"}`), &back))
}

// =============================================================================
// TURN TESTS
// =============================================================================

func TestTurn(t *testing.T) {
	plain := NewUserTurn(TextBlock("hi"))
	assert.True(t, plain.IsPlainText())
	assert.Equal(t, "hi", plain.Text())

	mixed := NewUserTurn(TextBlock("look"), ImageBlock("image/png", "AAAA"), ImageBlock("image/gif", "BBBB"))
	assert.False(t, mixed.IsPlainText())
	assert.Equal(t, 2, mixed.ImageCount())
	assert.Equal(t, "look", mixed.Text())

	assert.Equal(t, "Assistant", NewAssistantTurn("x").Role.DisplayName())
}

// =============================================================================
// TRANSCRIPT TESTS
// =============================================================================

func TestTranscript(t *testing.T) {
	tr := NewTranscript()
	id := tr.Append(NewUserTurn(TextBlock("q")), "m", nil)
	tr.Append(NewAssistantTurn("boom"), "m", errors.New("failed"))

	entries := tr.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, id, entries[0].ID)
	assert.Error(t, entries[1].Err)

	tr.Clear()
	assert.Zero(t, tr.Len())
}

func TestTranscript_Prunes(t *testing.T) {
	tr := NewTranscript()
	for i := 0; i < MaxEntries+10; i++ {
		tr.Append(NewUserTurn(TextBlock("x")), "", nil)
	}
	assert.Equal(t, MaxEntries, tr.Len())
}
