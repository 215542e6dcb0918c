package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/systemcmd0122/developer-bot/backend"
	"github.com/systemcmd0122/developer-bot/backend/model"
)

var packageName = "github.com/systemcmd0122/developer-bot/registry"

// DefaultRetention is how long records live before Cleanup drops them.
const DefaultRetention = 24 * time.Hour

// ButtonPayload describes what the buttons on a message do.
type ButtonPayload struct {
	Action  string `json:"action"`
	UserID  string `json:"user_id,omitempty"`
	GuildID string `json:"guild_id,omitempty"`
}

// MenuPayload describes the options behind a select menu.
type MenuPayload struct {
	Action  string   `json:"action"`
	Options []string `json:"options,omitempty"`
	GuildID string   `json:"guild_id,omitempty"`
}

// BoardPayload ties a message to a board (friend codes, recruitment).
type BoardPayload struct {
	Action  string   `json:"action"`
	BoardID string   `json:"board_id"`
	Games   []string `json:"games,omitempty"`
	GuildID string   `json:"guild_id,omitempty"`
}

type entry[P any] struct {
	payload   P
	updatedAt time.Time
}

// Registry correlates a component interaction with the message it
// belongs to. The in-memory maps are the read path; every write goes
// through to the store so records survive a restart. One Registry is
// constructed at startup and injected into the handlers.
type Registry struct {
	mx    sync.RWMutex
	store backend.Engine

	buttons map[string]entry[ButtonPayload]
	menus   map[string]entry[MenuPayload]
	boards  map[string]entry[BoardPayload]
}

func New(store backend.Engine) *Registry {
	return &Registry{
		store: store,

		buttons: make(map[string]entry[ButtonPayload]),
		menus:   make(map[string]entry[MenuPayload]),
		boards:  make(map[string]entry[BoardPayload]),
	}
}

// Load populates the in-memory maps from the store. Records whose
// payload no longer decodes under its declared kind are dropped.
func (r *Registry) Load(ctx context.Context) error {
	sctx, span := otel.Tracer(packageName).Start(ctx, "Load")
	defer span.End()

	records, err := r.store.ListInteractions(sctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	r.mx.Lock()
	defer r.mx.Unlock()

	loaded := 0
	for _, rec := range records {
		switch rec.Kind {
		case model.KindButton:
			var p ButtonPayload
			if err := json.Unmarshal(rec.Payload, &p); err != nil || p.Action == "" {
				slog.Warn("dropping invalid button record", "message_id", rec.MessageID, "error", err)
				continue
			}
			r.buttons[rec.MessageID] = entry[ButtonPayload]{p, rec.UpdatedAt}
		case model.KindMenu:
			var p MenuPayload
			if err := json.Unmarshal(rec.Payload, &p); err != nil || p.Action == "" {
				slog.Warn("dropping invalid menu record", "message_id", rec.MessageID, "error", err)
				continue
			}
			r.menus[rec.MessageID] = entry[MenuPayload]{p, rec.UpdatedAt}
		case model.KindBoard:
			var p BoardPayload
			if err := json.Unmarshal(rec.Payload, &p); err != nil || p.Action == "" {
				slog.Warn("dropping invalid board record", "message_id", rec.MessageID, "error", err)
				continue
			}
			r.boards[rec.MessageID] = entry[BoardPayload]{p, rec.UpdatedAt}
		default:
			slog.Warn("dropping record of unknown kind", "message_id", rec.MessageID, "kind", rec.Kind)
		}
		loaded++
	}

	span.SetAttributes(attribute.Int("loaded", loaded))
	span.SetStatus(codes.Ok, "ok")
	slog.Info("loaded interaction registry", "records", loaded)
	return nil
}

func (r *Registry) persist(ctx context.Context, messageID string, kind model.Kind, guildID string, payload any, at time.Time) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	if guildID == "" {
		guildID = "unknown"
	}

	return r.store.UpsertInteraction(ctx, model.InteractionRecord{
		MessageID: messageID,
		Kind:      kind,
		GuildID:   guildID,
		Payload:   raw,
		UpdatedAt: at,
	})
}

// SaveButton registers button semantics for a message. Saving again
// under the same message id overwrites the previous payload.
func (r *Registry) SaveButton(ctx context.Context, messageID string, p ButtonPayload) error {
	if messageID == "" || p.Action == "" {
		return fmt.Errorf("message id and action are required")
	}

	now := time.Now()

	r.mx.Lock()
	r.buttons[messageID] = entry[ButtonPayload]{p, now}
	r.mx.Unlock()

	return r.persist(ctx, messageID, model.KindButton, p.GuildID, p, now)
}

func (r *Registry) SaveMenu(ctx context.Context, messageID string, p MenuPayload) error {
	if messageID == "" || p.Action == "" {
		return fmt.Errorf("message id and action are required")
	}

	now := time.Now()

	r.mx.Lock()
	r.menus[messageID] = entry[MenuPayload]{p, now}
	r.mx.Unlock()

	return r.persist(ctx, messageID, model.KindMenu, p.GuildID, p, now)
}

func (r *Registry) SaveBoard(ctx context.Context, messageID string, p BoardPayload) error {
	if messageID == "" || p.Action == "" {
		return fmt.Errorf("message id and action are required")
	}

	now := time.Now()

	r.mx.Lock()
	r.boards[messageID] = entry[BoardPayload]{p, now}
	r.mx.Unlock()

	return r.persist(ctx, messageID, model.KindBoard, p.GuildID, p, now)
}

// Button returns the button payload registered for a message, if any.
func (r *Registry) Button(messageID string) (ButtonPayload, bool) {
	r.mx.RLock()
	defer r.mx.RUnlock()

	e, ok := r.buttons[messageID]
	return e.payload, ok
}

func (r *Registry) Menu(messageID string) (MenuPayload, bool) {
	r.mx.RLock()
	defer r.mx.RUnlock()

	e, ok := r.menus[messageID]
	return e.payload, ok
}

func (r *Registry) Board(messageID string) (BoardPayload, bool) {
	r.mx.RLock()
	defer r.mx.RUnlock()

	e, ok := r.boards[messageID]
	return e.payload, ok
}

// Remove drops every record held for a message. The message itself is
// gone in every caller, so all kinds go at once. Removing an unknown
// id is a no-op.
func (r *Registry) Remove(ctx context.Context, messageID string) error {
	sctx, span := otel.Tracer(packageName).Start(ctx, "Remove")
	defer span.End()

	span.SetAttributes(attribute.String("message_id", messageID))

	r.mx.Lock()
	delete(r.buttons, messageID)
	delete(r.menus, messageID)
	delete(r.boards, messageID)
	r.mx.Unlock()

	if err := r.store.DeleteInteraction(sctx, messageID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "ok")
	return nil
}

// Cleanup drops records older than maxAge from memory and the store.
// Both passes use the record's UpdatedAt, so they agree on age.
func (r *Registry) Cleanup(ctx context.Context, maxAge time.Duration) (int, error) {
	sctx, span := otel.Tracer(packageName).Start(ctx, "Cleanup")
	defer span.End()

	if maxAge <= 0 {
		maxAge = DefaultRetention
	}
	cutoff := time.Now().Add(-maxAge)

	removed := 0

	r.mx.Lock()
	for id, e := range r.buttons {
		if e.updatedAt.Before(cutoff) {
			delete(r.buttons, id)
			removed++
		}
	}
	for id, e := range r.menus {
		if e.updatedAt.Before(cutoff) {
			delete(r.menus, id)
			removed++
		}
	}
	for id, e := range r.boards {
		if e.updatedAt.Before(cutoff) {
			delete(r.boards, id)
			removed++
		}
	}
	r.mx.Unlock()

	storeRemoved, err := r.store.DeleteInteractionsBefore(sctx, cutoff)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return removed, err
	}

	span.SetAttributes(
		attribute.Int("memory_removed", removed),
		attribute.Int("store_removed", storeRemoved),
	)
	span.SetStatus(codes.Ok, "ok")

	if removed > 0 || storeRemoved > 0 {
		slog.Debug("registry cleanup", "memory_removed", removed, "store_removed", storeRemoved)
	}

	return removed, nil
}
