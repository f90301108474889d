// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/jeranaias/rigrun-assist/internal/attach"
	"github.com/jeranaias/rigrun-assist/internal/config"
	"github.com/jeranaias/rigrun-assist/internal/host"
	"github.com/jeranaias/rigrun-assist/internal/model"
	"github.com/jeranaias/rigrun-assist/internal/protocol"
)

// APIClient is what the controller needs from the API client.
// *cloud.Client implements it.
type APIClient interface {
	Sender
	ProbeCapability(ctx context.Context) []model.Descriptor
	ReloadConfig(cfg *config.Config)
	Model() string
}

// ControllerOptions configures a Controller.
type ControllerOptions struct {
	// Config supplies prompts, limits and the auto-attach switch.
	// Nil uses config.Default().
	Config *config.Config

	// SaveConfig persists a changed credential. Nil uses config.Save.
	SaveConfig func(*config.Config) error
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller handles panel commands for one session.
type Controller struct {
	sess   *Session
	orch   *Orchestrator
	client APIClient
	host   host.Host
	emit   protocol.Emitter
	save   func(*config.Config) error

	mu     sync.Mutex
	cfg    *config.Config
	models []model.Descriptor

	wg sync.WaitGroup
}

var _ protocol.InboundHandler = (*Controller)(nil)

// NewController wires a session to a client, a host and an emitter.
func NewController(sess *Session, client APIClient, h host.Host, emit protocol.Emitter, opts ControllerOptions) *Controller {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	save := opts.SaveConfig
	if save == nil {
		save = config.Save
	}
	return &Controller{
		sess:   sess,
		orch:   NewOrchestrator(client, sess, cfg.Prompts),
		client: client,
		host:   h,
		emit:   emit,
		save:   save,
		cfg:    cfg.Clone(),
		models: model.FreeTier(model.Catalog()),
	}
}

// Orchestrator returns the controller's orchestrator.
func (c *Controller) Orchestrator() *Orchestrator {
	return c.orch
}

// Start publishes the initial state: the focused document (when
// auto-attach is on), the attachment list and a model probe.
func (c *Controller) Start() {
	if doc, ok := c.host.FocusedDocument(); ok {
		c.FocusChanged(doc)
	}
	c.publishAttachments()
	c.HandleRefreshModels(protocol.RefreshModels{})
}

// Handle dispatches one inbound command.
func (c *Controller) Handle(cmd protocol.Inbound) error {
	return protocol.DispatchInbound(cmd, c)
}

// Wait blocks until every background send and probe has finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Models returns the usable models from the last probe.
func (c *Controller) Models() []model.Descriptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Descriptor, len(c.models))
	copy(out, c.models)
	return out
}

// FocusChanged auto-attaches doc when the feature is on.
func (c *Controller) FocusChanged(doc host.Document) {
	c.mu.Lock()
	enabled := c.cfg.AutoAttachFile
	c.mu.Unlock()
	if !enabled {
		return
	}
	if c.sess.Store().AutoAttach(doc) {
		c.publishAttachments()
	}
}

// =============================================================================
// INBOUND HANDLERS
// =============================================================================

// HandleSendMessage captures the attachments now and sends in the
// background. The reply or error arrives as an outbound command.
func (c *Controller) HandleSendMessage(cmd protocol.SendMessage) {
	if strings.TrimSpace(cmd.Text) == "" && c.sess.Store().Snapshot().Empty() {
		c.warn("Type a message first.")
		return
	}

	turn := c.orch.Prepare(cmd.Text)
	modelID := cmd.Model

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		reply, err := c.orch.SubmitTurn(context.Background(), turn, modelID)
		if err != nil {
			var se *SubmitError
			if errors.As(err, &se) {
				c.send(protocol.ReceiveError{Text: se.Display()})
			} else {
				c.send(protocol.ReceiveError{Text: err.Error()})
			}
			return
		}
		if modelID == "" {
			modelID = c.client.Model()
		}
		c.send(protocol.ReceiveMessage{Text: reply, Model: modelID})
	}()
}

// HandleAttachFile asks the host for files and attaches each one.
func (c *Controller) HandleAttachFile(protocol.AttachFile) {
	paths, err := c.host.SelectFiles(host.SourceFilters)
	if err != nil {
		c.dialogFailed("file", err)
		return
	}

	maxSize := c.maxFileSize()
	changed := false
	for _, path := range paths {
		f, err := attach.LoadFile(c.host, path, maxSize)
		if err != nil {
			c.warn(err.Error())
			continue
		}
		if err := c.sess.Store().AttachFile(f.OriginPath, f.Content, f.Language); err != nil {
			c.warn(attachWarning(f.Name, err))
			continue
		}
		changed = true
	}
	if changed {
		c.publishAttachments()
	}
}

// HandleAttachImage asks the host for images and attaches each one.
func (c *Controller) HandleAttachImage(protocol.AttachImage) {
	paths, err := c.host.SelectImages()
	if err != nil {
		c.dialogFailed("image", err)
		return
	}

	changed := false
	for _, path := range paths {
		img, err := attach.LoadImage(c.host, path)
		if err != nil {
			c.warn(err.Error())
			continue
		}
		if err := c.sess.Store().AttachImage(img.Name, img.Data, img.MIMEType); err != nil {
			c.warn(attachWarning(img.Name, err))
			if errors.Is(err, attach.ErrLimitExceeded) {
				break
			}
			continue
		}
		changed = true
	}
	if changed {
		c.publishAttachments()
	}
}

// HandleRemoveFile drops a file and republishes the list.
func (c *Controller) HandleRemoveFile(cmd protocol.RemoveFile) {
	c.sess.Store().Remove(cmd.Path)
	c.publishAttachments()
}

// HandleRemoveImage drops an image and republishes the list.
func (c *Controller) HandleRemoveImage(cmd protocol.RemoveImage) {
	c.sess.Store().RemoveImage(cmd.Name)
	c.publishAttachments()
}

// HandleOpenAPIKeyChanger prompts for a credential, saves it, reloads the
// client and re-probes.
func (c *Controller) HandleOpenAPIKeyChanger(protocol.OpenAPIKeyChanger) {
	key, err := c.host.PromptSecret("Anthropic API key")
	if err != nil {
		c.dialogFailed("key", err)
		return
	}
	key = strings.TrimSpace(key)
	if key == "" {
		c.warn("The API key was left unchanged.")
		return
	}

	c.mu.Lock()
	next := c.cfg.Clone()
	next.Credential = key
	c.mu.Unlock()

	if err := c.save(next); err != nil {
		c.send(protocol.ReceiveError{Text: fmt.Sprintf("Could not save the API key: %v", err)})
		return
	}

	c.mu.Lock()
	c.cfg = next
	c.mu.Unlock()

	c.client.ReloadConfig(next)
	c.host.Notify(host.LevelInfo, "API key updated.")
	c.HandleRefreshModels(protocol.RefreshModels{})
}

// HandleRefreshModels probes in the background and publishes the result.
func (c *Controller) HandleRefreshModels(protocol.RefreshModels) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		models := c.client.ProbeCapability(context.Background())

		c.mu.Lock()
		c.models = models
		c.mu.Unlock()

		selected := c.client.Model()
		if !model.Contains(models, selected) && len(models) > 0 {
			selected = models[0].ID
		}
		c.send(protocol.UpdateModels{Models: models, Selected: selected})
	}()
}

// =============================================================================
// HELPERS
// =============================================================================

func (c *Controller) send(cmd protocol.Outbound) {
	if c.sess.Closed() {
		log.Printf("session %s: dropping %s after close", c.sess.ID(), cmd.Command())
		return
	}
	c.emit.Emit(cmd)
}

func (c *Controller) warn(text string) {
	c.send(protocol.ReceiveError{Text: text, Warning: true})
}

func (c *Controller) publishAttachments() {
	c.send(protocol.AttachmentsFrom(c.sess.Store().Snapshot()))
}

func (c *Controller) dialogFailed(what string, err error) {
	if errors.Is(err, host.ErrCanceled) {
		return
	}
	c.send(protocol.ReceiveError{Text: fmt.Sprintf("Could not open the %s dialog: %v", what, err)})
}

func (c *Controller) maxFileSize() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg.MaxFileSize
}

func attachWarning(name string, err error) string {
	switch {
	case errors.Is(err, attach.ErrAlreadyAttached):
		return fmt.Sprintf("%s is already attached.", name)
	case errors.Is(err, attach.ErrLimitExceeded):
		return fmt.Sprintf("Cannot attach %s: %v.", name, err)
	default:
		return err.Error()
	}
}
