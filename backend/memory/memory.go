package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/systemcmd0122/developer-bot/backend/model"
)

// Backend keeps everything in process memory. It backs tests and
// local development; nothing survives a restart.
type Backend struct {
	mx *sync.Mutex

	interactions  map[interactionKey]model.InteractionRecord
	settings      map[string]model.ActivitySetting
	friendCodes   map[friendCodeKey]model.FriendCode
	roleBoards    map[string]model.RoleBoard
	conversations map[string][]model.ConversationTurn
}

type interactionKey struct {
	MessageID string
	Kind      model.Kind
}

type friendCodeKey struct {
	UserID  string
	GuildID string
	Game    string
}

func New() (*Backend, error) {
	return &Backend{
		mx: &sync.Mutex{},

		interactions:  make(map[interactionKey]model.InteractionRecord),
		settings:      make(map[string]model.ActivitySetting),
		friendCodes:   make(map[friendCodeKey]model.FriendCode),
		roleBoards:    make(map[string]model.RoleBoard),
		conversations: make(map[string][]model.ConversationTurn),
	}, nil
}

func (b *Backend) UpsertInteraction(_ context.Context, rec model.InteractionRecord) error {
	if rec.MessageID == "" {
		return fmt.Errorf("message id is required")
	}

	b.mx.Lock()
	defer b.mx.Unlock()

	b.interactions[interactionKey{rec.MessageID, rec.Kind}] = rec
	return nil
}

func (b *Backend) ListInteractions(_ context.Context) ([]model.InteractionRecord, error) {
	b.mx.Lock()
	defer b.mx.Unlock()

	records := make([]model.InteractionRecord, 0, len(b.interactions))
	for _, rec := range b.interactions {
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].MessageID < records[j].MessageID
	})

	return records, nil
}

func (b *Backend) DeleteInteraction(_ context.Context, messageID string) error {
	b.mx.Lock()
	defer b.mx.Unlock()

	for _, kind := range []model.Kind{model.KindButton, model.KindMenu, model.KindBoard} {
		delete(b.interactions, interactionKey{messageID, kind})
	}
	return nil
}

func (b *Backend) DeleteInteractionsBefore(_ context.Context, cutoff time.Time) (int, error) {
	b.mx.Lock()
	defer b.mx.Unlock()

	removed := 0
	for key, rec := range b.interactions {
		if rec.UpdatedAt.Before(cutoff) {
			delete(b.interactions, key)
			removed++
		}
	}
	return removed, nil
}

func (b *Backend) GetActivitySetting(_ context.Context, userID string) (model.ActivitySetting, error) {
	b.mx.Lock()
	defer b.mx.Unlock()

	if setting, ok := b.settings[userID]; ok {
		return setting, nil
	}

	// Users without a stored row default to notifications on.
	return model.ActivitySetting{UserID: userID, NotificationsEnabled: true}, nil
}

func (b *Backend) SetActivitySetting(_ context.Context, setting model.ActivitySetting) error {
	if setting.UserID == "" {
		return fmt.Errorf("user id is required")
	}

	b.mx.Lock()
	defer b.mx.Unlock()

	b.settings[setting.UserID] = setting
	return nil
}

func (b *Backend) UpsertFriendCode(_ context.Context, code model.FriendCode) error {
	b.mx.Lock()
	defer b.mx.Unlock()

	b.friendCodes[friendCodeKey{code.UserID, code.GuildID, code.Game}] = code
	return nil
}

func (b *Backend) ListFriendCodes(_ context.Context, guildID string, game string) ([]model.FriendCode, error) {
	b.mx.Lock()
	defer b.mx.Unlock()

	codes := make([]model.FriendCode, 0)
	for key, code := range b.friendCodes {
		if key.GuildID != guildID {
			continue
		}
		if game != "" && key.Game != game {
			continue
		}
		codes = append(codes, code)
	}

	sort.Slice(codes, func(i, j int) bool {
		if codes[i].Game != codes[j].Game {
			return codes[i].Game < codes[j].Game
		}
		return codes[i].UserID < codes[j].UserID
	})

	return codes, nil
}

func (b *Backend) DeleteFriendCode(_ context.Context, userID string, guildID string, game string) error {
	b.mx.Lock()
	defer b.mx.Unlock()

	delete(b.friendCodes, friendCodeKey{userID, guildID, game})
	return nil
}

func (b *Backend) UpsertRoleBoard(_ context.Context, board model.RoleBoard) error {
	if board.BoardID == "" {
		return fmt.Errorf("board id is required")
	}

	b.mx.Lock()
	defer b.mx.Unlock()

	b.roleBoards[board.BoardID] = board
	return nil
}

func (b *Backend) GetRoleBoard(_ context.Context, boardID string) (*model.RoleBoard, error) {
	b.mx.Lock()
	defer b.mx.Unlock()

	board, ok := b.roleBoards[boardID]
	if !ok {
		return nil, nil
	}
	return &board, nil
}

func (b *Backend) DeleteRoleBoard(_ context.Context, boardID string) error {
	b.mx.Lock()
	defer b.mx.Unlock()

	delete(b.roleBoards, boardID)
	return nil
}

func (b *Backend) IncrementRoleAssignment(_ context.Context, boardID string, roleID string, delta int) error {
	b.mx.Lock()
	defer b.mx.Unlock()

	board, ok := b.roleBoards[boardID]
	if !ok {
		return fmt.Errorf("role board %s not found", boardID)
	}

	for i := range board.Roles {
		if board.Roles[i].RoleID == roleID {
			board.Roles[i].Assignments += delta
			b.roleBoards[boardID] = board
			return nil
		}
	}

	return fmt.Errorf("role %s not on board %s", roleID, boardID)
}

func (b *Backend) AppendConversation(_ context.Context, turn model.ConversationTurn) error {
	b.mx.Lock()
	defer b.mx.Unlock()

	b.conversations[turn.UserID] = append(b.conversations[turn.UserID], turn)
	return nil
}

func (b *Backend) RecentConversation(_ context.Context, userID string, limit int) ([]model.ConversationTurn, error) {
	b.mx.Lock()
	defer b.mx.Unlock()

	turns := b.conversations[userID]
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}

	out := make([]model.ConversationTurn, len(turns))
	copy(out, turns)
	return out, nil
}

func (b *Backend) ClearConversation(_ context.Context, userID string) error {
	b.mx.Lock()
	defer b.mx.Unlock()

	delete(b.conversations, userID)
	return nil
}
