package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"flowsmith/api/internal/flowchart"
	"flowsmith/api/internal/util"
)

var (
	// ErrSessionRequired reports a modify call without a session id.
	ErrSessionRequired = errors.New("session_id required")
	// ErrService reports a transport-level failure of the external model.
	// It is fatal to the in-flight request; there is no retry.
	ErrService = errors.New("generation service error")
)

// documentStore is the slice of the store the gateway needs.
type documentStore interface {
	Save(ctx context.Context, sessionID string, doc flowchart.Document, owner string) error
	Load(ctx context.Context, sessionID, owner string) (flowchart.Document, error)
}

// Config carries the gateway's fixed policy: the shape enumeration and the
// system instructions derived from it. Injected rather than embedded so
// tests can run with alternate policies.
type Config struct {
	Shapes              []string
	GenerateInstruction string
	EditInstruction     string
}

// DefaultConfig builds the standard policy over the supported shape set.
func DefaultConfig() Config {
	return Config{
		Shapes:              flowchart.DefaultShapes,
		GenerateInstruction: GenerateInstruction(flowchart.DefaultShapes),
		EditInstruction:     EditInstruction(flowchart.DefaultShapes),
	}
}

// Gateway mediates between callers and the external model. Malformed model
// output never surfaces as an error: generate degrades to the empty
// document, modify keeps the pre-modification state.
type Gateway struct {
	cfg   Config
	model TextModel
	store documentStore
}

func NewGateway(cfg Config, model TextModel, store documentStore) *Gateway {
	return &Gateway{cfg: cfg, model: model, store: store}
}

// Generate asks the model for a new flowchart, persists it under a fresh
// unowned-or-owned session id, and returns both. The result is persisted
// even when the model output was unusable, so the session exists either way.
func (g *Gateway) Generate(ctx context.Context, prompt, owner string) (string, flowchart.Document, error) {
	raw, err := g.model.Complete(ctx, g.cfg.GenerateInstruction, "User prompt: "+prompt)
	if err != nil {
		return "", flowchart.Empty(), fmt.Errorf("%w: %v", ErrService, err)
	}

	doc := parseModelOutput(raw)
	sessionID := util.NewID("")
	if err := g.store.Save(ctx, sessionID, doc, owner); err != nil {
		return "", flowchart.Empty(), err
	}
	return sessionID, doc, nil
}

// Modify loads the current document, asks the model to apply the
// instruction, and overwrites the record at the same key. When the model's
// response does not parse, the stored state is re-persisted unchanged and
// returned as-is.
func (g *Gateway) Modify(ctx context.Context, sessionID, instruction, owner string) (flowchart.Document, error) {
	if strings.TrimSpace(sessionID) == "" {
		return flowchart.Empty(), ErrSessionRequired
	}

	current, err := g.store.Load(ctx, sessionID, owner)
	if err != nil {
		return flowchart.Empty(), err
	}

	currentJSON, err := json.Marshal(current)
	if err != nil {
		return flowchart.Empty(), fmt.Errorf("marshal current document: %w", err)
	}

	raw, err := g.model.Complete(ctx, g.cfg.EditInstruction,
		"Current JSON:\n"+string(currentJSON)+"\nInstruction: "+instruction)
	if err != nil {
		return flowchart.Empty(), fmt.Errorf("%w: %v", ErrService, err)
	}

	doc, parseErr := flowchart.Parse([]byte(strings.TrimSpace(raw)))
	if parseErr != nil {
		doc = current
	}

	if err := g.store.Save(ctx, sessionID, doc, owner); err != nil {
		return flowchart.Empty(), err
	}
	return doc, nil
}

// parseModelOutput decodes the model's raw text, degrading to the canonical
// empty document on any parse failure.
func parseModelOutput(raw string) flowchart.Document {
	doc, err := flowchart.Parse([]byte(strings.TrimSpace(raw)))
	if err != nil {
		return flowchart.Empty()
	}
	return doc
}
