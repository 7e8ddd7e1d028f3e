package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ShaneChing7/Shimmer-AIChatBot-backend/internal/models"
)

// ErrNotFound is returned when a session or message does not exist or does
// not belong to the requesting user.
var ErrNotFound = errors.New("not found")

const cacheTTL = 24 * time.Hour

// Store persists sessions, messages and attachments in PostgreSQL and keeps
// a Redis cache of session details. A nil Redis client disables caching.
type Store struct {
	db  *gorm.DB
	rdb *redis.Client
}

func New(db *gorm.DB, rdb *redis.Client) *Store {
	return &Store{db: db, rdb: rdb}
}

func sessionCacheKey(id uuid.UUID) string {
	return fmt.Sprintf("session:%s", id)
}

// invalidateSession drops the cached detail of a session after any write
// that touches it.
func (s *Store) invalidateSession(ctx context.Context, id uuid.UUID) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, sessionCacheKey(id)).Err(); err != nil {
		log.Printf("Failed to invalidate session cache: %v", err)
	}
}

// --- Sessions ---

func (s *Store) CreateSession(ctx context.Context, session *models.Session) error {
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, userID, id uuid.UUID) (*models.Session, error) {
	var session models.Session
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &session, nil
}

// GetSessionDetail loads a session with its full ordered message history,
// serving from the Redis cache when possible.
func (s *Store) GetSessionDetail(ctx context.Context, userID, id uuid.UUID) (*models.Session, error) {
	if s.rdb != nil {
		if data, err := s.rdb.Get(ctx, sessionCacheKey(id)).Bytes(); err == nil {
			var cached models.Session
			if err := json.Unmarshal(data, &cached); err == nil && cached.UserID == userID {
				return &cached, nil
			}
		}
	}

	session, err := s.GetSession(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	messages, err := s.ListMessages(ctx, id)
	if err != nil {
		return nil, err
	}
	session.Messages = messages

	if s.rdb != nil {
		if data, err := json.Marshal(session); err == nil {
			if err := s.rdb.Set(ctx, sessionCacheKey(id), data, cacheTTL).Err(); err != nil {
				log.Printf("Failed to cache session detail: %v", err)
			}
		}
	}
	return session, nil
}

// ListSessions returns a page of the user's sessions, newest first, together
// with the total count.
func (s *Store) ListSessions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Session, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Session{}).
		Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count sessions: %w", err)
	}

	var sessions []models.Session
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&sessions).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, total, nil
}

func (s *Store) UpdateSessionTitle(ctx context.Context, userID, id uuid.UUID, title string) (*models.Session, error) {
	session, err := s.GetSession(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	session.Title = title
	if err := s.db.WithContext(ctx).Model(session).Update("title", title).Error; err != nil {
		return nil, fmt.Errorf("failed to update session title: %w", err)
	}
	s.invalidateSession(ctx, id)
	return session, nil
}

func (s *Store) DeleteSession(ctx context.Context, userID, id uuid.UUID) error {
	session, err := s.GetSession(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.deleteSessionRows(ctx, session.ID); err != nil {
		return err
	}
	s.invalidateSession(ctx, id)
	return nil
}

// DeleteAllSessions removes every session of the user and returns how many
// were deleted.
func (s *Store) DeleteAllSessions(ctx context.Context, userID uuid.UUID) (int64, error) {
	var sessions []models.Session
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&sessions).Error; err != nil {
		return 0, fmt.Errorf("failed to list sessions: %w", err)
	}
	for _, session := range sessions {
		if err := s.deleteSessionRows(ctx, session.ID); err != nil {
			return 0, err
		}
		s.invalidateSession(ctx, session.ID)
	}
	return int64(len(sessions)), nil
}

// deleteSessionRows deletes a session and its owned rows. The cascade is
// done explicitly so it also holds on databases without FK enforcement.
func (s *Store) deleteSessionRows(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id IN (?)",
			tx.Model(&models.Message{}).Select("id").Where("session_id = ?", id),
		).Delete(&models.Attachment{}).Error; err != nil {
			return fmt.Errorf("failed to delete attachments: %w", err)
		}
		if err := tx.Where("session_id = ?", id).Delete(&models.Message{}).Error; err != nil {
			return fmt.Errorf("failed to delete messages: %w", err)
		}
		if err := tx.Delete(&models.Session{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
		return nil
	})
}

// ExportSessions returns all of the user's sessions with their messages,
// oldest session first.
func (s *Store) ExportSessions(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	var sessions []models.Session
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to export sessions: %w", err)
	}
	for i := range sessions {
		messages, err := s.ListMessages(ctx, sessions[i].ID)
		if err != nil {
			return nil, err
		}
		sessions[i].Messages = messages
	}
	return sessions, nil
}

// --- Messages ---

func (s *Store) CreateMessage(ctx context.Context, message *models.Message) error {
	if err := s.db.WithContext(ctx).Create(message).Error; err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	s.invalidateSession(ctx, message.SessionID)
	return nil
}

// GetAIMessage loads a message by id within a session, requiring it to be
// an AI turn. Used to resolve regenerate/continue targets.
func (s *Store) GetAIMessage(ctx context.Context, sessionID, id uuid.UUID) (*models.Message, error) {
	var message models.Message
	err := s.db.WithContext(ctx).
		Preload("Files").
		Where("id = ? AND session_id = ? AND sender = ?", id, sessionID, models.SenderAI).
		First(&message).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load message: %w", err)
	}
	return &message, nil
}

// UpdateMessage persists the mutable fields of a message after a stream
// finishes: content, reasoning and terminal status.
func (s *Store) UpdateMessage(ctx context.Context, message *models.Message) error {
	err := s.db.WithContext(ctx).Model(message).Updates(map[string]interface{}{
		"content":           message.Content,
		"reasoning_content": message.ReasoningContent,
		"status":            message.Status,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to update message: %w", err)
	}
	s.invalidateSession(ctx, message.SessionID)
	return nil
}

// ListMessages returns the session's messages in (created_at, id) order with
// attachments preloaded. The id is the tie-break for same-millisecond rows,
// so repeated reads always see the same order.
func (s *Store) ListMessages(ctx context.Context, sessionID uuid.UUID) ([]models.Message, error) {
	var messages []models.Message
	err := s.db.WithContext(ctx).
		Preload("Files").
		Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

// --- Users ---

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

// UserExists reports whether a user with the given username or email is
// already registered.
func (s *Store) UserExists(ctx context.Context, username, email string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check existing users: %w", err)
	}
	return count > 0, nil
}

// --- Attachments ---

func (s *Store) CreateAttachment(ctx context.Context, attachment *models.Attachment) error {
	if err := s.db.WithContext(ctx).Create(attachment).Error; err != nil {
		return fmt.Errorf("failed to create attachment: %w", err)
	}
	return nil
}

// SetAttachmentParsed caches the extracted text of an attachment. Extraction
// runs at most once per attachment; later context builds reuse this value.
func (s *Store) SetAttachmentParsed(ctx context.Context, id uuid.UUID, text string) error {
	err := s.db.WithContext(ctx).Model(&models.Attachment{}).
		Where("id = ?", id).
		Update("parsed_content", text).Error
	if err != nil {
		return fmt.Errorf("failed to store parsed content: %w", err)
	}
	return nil
}
