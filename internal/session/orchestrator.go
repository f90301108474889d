// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jeranaias/rigrun-assist/internal/cloud"
	"github.com/jeranaias/rigrun-assist/internal/model"
)

// Sender sends turns to a model and returns the reply text.
// *cloud.Client implements it.
type Sender interface {
	Send(ctx context.Context, turns []model.Turn, modelID string) (string, error)
}

// =============================================================================
// SUBMIT ERROR
// =============================================================================

// SubmitError is every failure that comes back from a submission. Kind
// selects how the panel presents it.
type SubmitError struct {
	Kind cloud.ErrorKind
	Err  error
}

// Error implements the error interface.
func (e *SubmitError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *SubmitError) Unwrap() error {
	return e.Err
}

// Display returns the error text followed by its hint.
func (e *SubmitError) Display() string {
	hint := cloud.Hint(e.Kind)
	if hint == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s\n%s", capitalize(e.Err.Error()), hint)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// =============================================================================
// ORCHESTRATOR
// =============================================================================

// Orchestrator composes and sends the messages of one session.
type Orchestrator struct {
	sender  Sender
	session *Session
	prompts map[string]string
}

// NewOrchestrator creates an orchestrator. prompts maps a purpose to its
// template; nil means no purposes are available.
func NewOrchestrator(sender Sender, sess *Session, prompts map[string]string) *Orchestrator {
	copied := make(map[string]string, len(prompts))
	for k, v := range prompts {
		copied[k] = v
	}
	return &Orchestrator{sender: sender, session: sess, prompts: copied}
}

// Session returns the orchestrated session.
func (o *Orchestrator) Session() *Session {
	return o.session
}

// Prepare composes the user turn from userText and the attachments held
// right now. Later store changes do not affect the returned turn.
func (o *Orchestrator) Prepare(userText string) model.Turn {
	files, images := o.session.Store().Contents()
	return ComposeMessage(userText, files, images)
}

// Submit sends userText with the current attachments as a single-turn
// request. Failures are returned as *SubmitError.
func (o *Orchestrator) Submit(ctx context.Context, userText, modelID string) (string, error) {
	return o.SubmitTurn(ctx, o.Prepare(userText), modelID)
}

// SubmitTurn sends a prepared turn and records both sides in the
// transcript. A panic in the sender is reported as a transport error.
func (o *Orchestrator) SubmitTurn(ctx context.Context, turn model.Turn, modelID string) (reply string, err error) {
	transcript := o.session.Transcript()
	transcript.Append(turn, modelID, nil)

	defer func() {
		if r := recover(); r != nil {
			log.Printf("session %s: send panicked: %v", o.session.ID(), r)
			reply = ""
			err = &SubmitError{
				Kind: cloud.KindTransport,
				Err:  &cloud.TransportError{Message: fmt.Sprintf("internal error: %v", r)},
			}
		}
		if err != nil {
			transcript.Append(model.NewAssistantTurn(err.(*SubmitError).Display()), modelID, err)
		} else {
			transcript.Append(model.NewAssistantTurn(reply), modelID, nil)
		}
	}()

	reply, sendErr := o.sender.Send(ctx, []model.Turn{turn}, modelID)
	if sendErr != nil {
		return "", &SubmitError{Kind: cloud.Classify(sendErr), Err: sendErr}
	}
	return reply, nil
}
