// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for model selection and chat turns.
//
// # Key Types
//
//   - Descriptor: One entry of the static model catalog (ID, display name, tier)
//   - Tier: Free or paid classification gating which models are offered
//   - Turn: One role-tagged content unit made of text and image blocks
//   - Transcript: Ephemeral display history for one session
//
// # Usage
//
// Decide which models a credential can use from a probe outcome:
//
//	usable := model.ClassifyAccess(model.Catalog(), model.ProbeAuthFailed)
//
// Build a user turn with an image:
//
//	turn := model.NewUserTurn(
//	    model.TextBlock("what is in this picture?"),
//	    model.ImageBlock("image/png", b64),
//	)
package model
