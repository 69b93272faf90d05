// Package usecases - chat.go binds conversation memory to chat sessions.
package usecases

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/0xcro3dile/ledgerchat-go/internal/domain/entities"
	"github.com/0xcro3dile/ledgerchat-go/internal/domain/ports"
)

// ErrEmptyQuery is returned for blank utterances.
var ErrEmptyQuery = errors.New("query is empty")

// ChatUseCase runs turns against per-session memory.
// Every session owns its own Conversation; nothing is shared between them.
type ChatUseCase struct {
	query    *QueryUseCase
	sessions ports.SessionStore
	log      ports.Logger
}

// NewChatUseCase creates a ChatUseCase with injected dependencies.
func NewChatUseCase(query *QueryUseCase, sessions ports.SessionStore, log ports.Logger) *ChatUseCase {
	if log == nil {
		log = nopLogger{}
	}
	return &ChatUseCase{
		query:    query,
		sessions: sessions,
		log:      log,
	}
}

// Chat answers one utterance for the session named in req. An empty
// SessionID starts a new session; its id is returned in the response.
func (uc *ChatUseCase) Chat(ctx context.Context, req *entities.ChatRequest) (*entities.ChatResponse, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, ErrEmptyQuery
	}

	conv := uc.session(req.SessionID)
	ans, err := uc.query.Resolve(ctx, conv, req.Query)
	if err != nil {
		uc.log.Error("chat", "resolving turn failed", map[string]interface{}{
			"session_id": conv.ID,
			"error":      err.Error(),
		})
		return nil, err
	}
	uc.sessions.Save(conv)

	return &entities.ChatResponse{
		SessionID: conv.ID,
		Answer:    ans.Text,
		Intent:    ans.Intent,
		Companies: ans.Companies,
		Years:     ans.Years,
		Field:     ans.Field,
	}, nil
}

// Reset forgets a session's memory.
func (uc *ChatUseCase) Reset(sessionID string) {
	uc.sessions.Delete(sessionID)
	uc.log.Info("chat", "session reset", map[string]interface{}{"session_id": sessionID})
}

// Memory returns a copy of a session's memory.
func (uc *ChatUseCase) Memory(sessionID string) (entities.Conversation, bool) {
	conv, ok := uc.sessions.Get(sessionID)
	if !ok {
		return entities.Conversation{}, false
	}
	return *conv.Clone(), true
}

func (uc *ChatUseCase) session(id string) *entities.Conversation {
	if id != "" {
		if conv, ok := uc.sessions.Get(id); ok {
			return conv
		}
	} else {
		id = uuid.NewString()
	}

	uc.log.Info("chat", "session started", map[string]interface{}{"session_id": id})
	return entities.NewConversation(id)
}

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
