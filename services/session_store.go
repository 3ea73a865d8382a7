package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"stylefit/models"
)

// SessionStore persists wizard sessions and premium orders.
type SessionStore struct {
	db *gorm.DB
}

func NewSessionStore(db *gorm.DB) *SessionStore {
	return &SessionStore{db: db}
}

func (st *SessionStore) Create(ctx context.Context, s *models.Session) error {
	return st.db.WithContext(ctx).Create(s).Error
}

func (st *SessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	var s models.Session
	err := st.db.WithContext(ctx).Where("id = ?", id).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Save writes every column, including the ones cleared to NULL or false. A row
// deleted in the meantime is reported as ErrSessionNotFound, never re-inserted.
func (st *SessionStore) Save(ctx context.Context, s *models.Session) error {
	res := st.db.WithContext(ctx).Model(s).Select("*").Updates(s)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrSessionNotFound
	}
	return nil
}

func (st *SessionStore) Delete(ctx context.Context, id string) error {
	return st.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Session{}).Error
}

// IdleBefore lists sessions last touched before cutoff.
func (st *SessionStore) IdleBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	var ids []string
	err := st.db.WithContext(ctx).Model(&models.Session{}).Where("updated_at < ?", cutoff).Pluck("id", &ids).Error
	return ids, err
}

// DeleteIdle removes the session only if it is still untouched since cutoff.
func (st *SessionStore) DeleteIdle(ctx context.Context, id string, cutoff time.Time) (bool, error) {
	res := st.db.WithContext(ctx).Where("id = ? AND updated_at < ?", id, cutoff).Delete(&models.Session{})
	return res.RowsAffected > 0, res.Error
}

func (st *SessionStore) CreateOrder(ctx context.Context, o *models.PremiumOrder) error {
	return st.db.WithContext(ctx).Create(o).Error
}

func (st *SessionStore) SaveOrder(ctx context.Context, o *models.PremiumOrder) error {
	return st.db.WithContext(ctx).Save(o).Error
}

// LatestOrder returns the most recent order for a session, or nil.
func (st *SessionStore) LatestOrder(ctx context.Context, sessionID string) (*models.PremiumOrder, error) {
	var o models.PremiumOrder
	err := st.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC, id DESC").
		First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}
