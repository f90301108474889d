// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package protocol

import (
	"errors"

	"github.com/jeranaias/rigrun-assist/internal/attach"
	"github.com/jeranaias/rigrun-assist/internal/model"
)

// ErrUnknownCommand is returned for an unrecognised command name.
var ErrUnknownCommand = errors.New("unknown command")

// Command names.
const (
	CmdSendMessage       = "sendMessage"
	CmdAttachFile        = "attachFile"
	CmdAttachImage       = "attachImage"
	CmdRemoveFile        = "removeFile"
	CmdRemoveImage       = "removeImage"
	CmdOpenAPIKeyChanger = "openApiKeyChanger"
	CmdRefreshModels     = "refreshModels"

	CmdReceiveMessage    = "receiveMessage"
	CmdReceiveError      = "receiveError"
	CmdUpdateAttachments = "updateAttachments"
	CmdUpdateModels      = "updateModels"
)

// =============================================================================
// INBOUND (panel -> session)
// =============================================================================

// Inbound is a command sent by the panel.
type Inbound interface {
	Command() string
	inbound()
}

// SendMessage submits text with the current attachments. An empty Model
// uses the configured default.
type SendMessage struct {
	Text  string `json:"text"`
	Model string `json:"model,omitempty"`
}

// AttachFile opens the file dialog and attaches the selection.
type AttachFile struct{}

// AttachImage opens the image dialog and attaches the selection.
type AttachImage struct{}

// RemoveFile drops an attached file by origin path.
type RemoveFile struct {
	Path string `json:"path"`
}

// RemoveImage drops an attached image by name.
type RemoveImage struct {
	Name string `json:"name"`
}

// OpenAPIKeyChanger prompts for a new credential.
type OpenAPIKeyChanger struct{}

// RefreshModels re-probes the credential and republishes usable models.
type RefreshModels struct{}

func (SendMessage) Command() string       { return CmdSendMessage }
func (AttachFile) Command() string        { return CmdAttachFile }
func (AttachImage) Command() string       { return CmdAttachImage }
func (RemoveFile) Command() string        { return CmdRemoveFile }
func (RemoveImage) Command() string       { return CmdRemoveImage }
func (OpenAPIKeyChanger) Command() string { return CmdOpenAPIKeyChanger }
func (RefreshModels) Command() string     { return CmdRefreshModels }

func (SendMessage) inbound()       {}
func (AttachFile) inbound()        {}
func (AttachImage) inbound()       {}
func (RemoveFile) inbound()        {}
func (RemoveImage) inbound()       {}
func (OpenAPIKeyChanger) inbound() {}
func (RefreshModels) inbound()     {}

// InboundHandler handles every inbound variant.
type InboundHandler interface {
	HandleSendMessage(SendMessage)
	HandleAttachFile(AttachFile)
	HandleAttachImage(AttachImage)
	HandleRemoveFile(RemoveFile)
	HandleRemoveImage(RemoveImage)
	HandleOpenAPIKeyChanger(OpenAPIKeyChanger)
	HandleRefreshModels(RefreshModels)
}

// DispatchInbound routes cmd to the matching handler method.
func DispatchInbound(cmd Inbound, h InboundHandler) error {
	switch c := cmd.(type) {
	case SendMessage:
		h.HandleSendMessage(c)
	case AttachFile:
		h.HandleAttachFile(c)
	case AttachImage:
		h.HandleAttachImage(c)
	case RemoveFile:
		h.HandleRemoveFile(c)
	case RemoveImage:
		h.HandleRemoveImage(c)
	case OpenAPIKeyChanger:
		h.HandleOpenAPIKeyChanger(c)
	case RefreshModels:
		h.HandleRefreshModels(c)
	default:
		return ErrUnknownCommand
	}
	return nil
}

// =============================================================================
// OUTBOUND (session -> panel)
// =============================================================================

// Outbound is a command sent to the panel.
type Outbound interface {
	Command() string
	outbound()
}

// ReceiveMessage carries an assistant reply.
type ReceiveMessage struct {
	Text  string `json:"text"`
	Model string `json:"model,omitempty"`
}

// ReceiveError carries a displayable failure. Warning marks local
// validation problems such as a duplicate attachment.
type ReceiveError struct {
	Text    string `json:"text"`
	Warning bool   `json:"warning,omitempty"`
}

// UpdateAttachments republishes the attachment snapshot.
type UpdateAttachments struct {
	Files  []attach.FileRef  `json:"files"`
	Images []attach.ImageRef `json:"images"`
}

// UpdateModels republishes the usable models.
type UpdateModels struct {
	Models   []model.Descriptor `json:"models"`
	Selected string             `json:"selected,omitempty"`
}

func (ReceiveMessage) Command() string    { return CmdReceiveMessage }
func (ReceiveError) Command() string      { return CmdReceiveError }
func (UpdateAttachments) Command() string { return CmdUpdateAttachments }
func (UpdateModels) Command() string      { return CmdUpdateModels }

func (ReceiveMessage) outbound()    {}
func (ReceiveError) outbound()      {}
func (UpdateAttachments) outbound() {}
func (UpdateModels) outbound()      {}

// AttachmentsFrom builds an UpdateAttachments from a store snapshot.
func AttachmentsFrom(snap attach.Snapshot) UpdateAttachments {
	return UpdateAttachments{Files: snap.Files, Images: snap.Images}
}

// OutboundHandler handles every outbound variant.
type OutboundHandler interface {
	HandleReceiveMessage(ReceiveMessage)
	HandleReceiveError(ReceiveError)
	HandleUpdateAttachments(UpdateAttachments)
	HandleUpdateModels(UpdateModels)
}

// DispatchOutbound routes cmd to the matching handler method.
func DispatchOutbound(cmd Outbound, h OutboundHandler) error {
	switch c := cmd.(type) {
	case ReceiveMessage:
		h.HandleReceiveMessage(c)
	case ReceiveError:
		h.HandleReceiveError(c)
	case UpdateAttachments:
		h.HandleUpdateAttachments(c)
	case UpdateModels:
		h.HandleUpdateModels(c)
	default:
		return ErrUnknownCommand
	}
	return nil
}

// Emitter delivers outbound commands to the panel.
type Emitter interface {
	Emit(Outbound)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(Outbound)

// Emit calls f(cmd).
func (f EmitterFunc) Emit(cmd Outbound) { f(cmd) }
