// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package protocol

import (
	"encoding/json"
	"fmt"
)

type envelope struct {
	Command string `json:"command"`
}

// DecodeInbound parses a JSON envelope into its inbound variant.
func DecodeInbound(data []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	var cmd Inbound
	var err error
	switch env.Command {
	case CmdSendMessage:
		cmd, err = decodeAs[SendMessage](data)
	case CmdAttachFile:
		cmd = AttachFile{}
	case CmdAttachImage:
		cmd = AttachImage{}
	case CmdRemoveFile:
		cmd, err = decodeAs[RemoveFile](data)
	case CmdRemoveImage:
		cmd, err = decodeAs[RemoveImage](data)
	case CmdOpenAPIKeyChanger:
		cmd = OpenAPIKeyChanger{}
	case CmdRefreshModels:
		cmd = RefreshModels{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, env.Command)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Command, err)
	}
	return cmd, nil
}

// DecodeOutbound parses a JSON envelope into its outbound variant.
func DecodeOutbound(data []byte) (Outbound, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	var cmd Outbound
	var err error
	switch env.Command {
	case CmdReceiveMessage:
		cmd, err = decodeAs[ReceiveMessage](data)
	case CmdReceiveError:
		cmd, err = decodeAs[ReceiveError](data)
	case CmdUpdateAttachments:
		cmd, err = decodeAs[UpdateAttachments](data)
	case CmdUpdateModels:
		cmd, err = decodeAs[UpdateModels](data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, env.Command)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Command, err)
	}
	return cmd, nil
}

// EncodeInbound renders cmd as a JSON envelope.
func EncodeInbound(cmd Inbound) ([]byte, error) {
	return encode(cmd.Command(), cmd)
}

// EncodeOutbound renders cmd as a JSON envelope.
func EncodeOutbound(cmd Outbound) ([]byte, error) {
	return encode(cmd.Command(), cmd)
}

func decodeAs[T any](data []byte) (T, error) {
	var v T
	err := json.Unmarshal(data, &v)
	return v, err
}

// encode flattens v's fields next to the command name.
func encode(name string, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	fields["command"], _ = json.Marshal(name)
	return json.Marshal(fields)
}
