package repository

import (
	"errors"
	"fmt"

	"podforge/model"

	"gorm.io/gorm"
)

// PodcastRepository is the job record store: create, read, and partial
// field merges. Updates never overwrite the whole row, so concurrent
// readers never observe reverted fields.
type PodcastRepository interface {
	CreatePodcast(p *model.Podcast) error
	GetPodcastByID(id string) (*model.Podcast, error)
	GetPodcastsByUserID(userID int64) ([]*model.Podcast, error)
	UpdatePodcast(id string, fields map[string]interface{}) error
}

// gormPodcastRepository implements PodcastRepository on GORM.
type gormPodcastRepository struct {
	db *gorm.DB
}

// NewGormPodcastRepository creates a podcast repository on the given GORM
// connection.
func NewGormPodcastRepository(db *gorm.DB) PodcastRepository {
	return &gormPodcastRepository{db: db}
}

// CreatePodcast inserts a new job record.
func (r *gormPodcastRepository) CreatePodcast(p *model.Podcast) error {
	if err := r.db.Create(p).Error; err != nil {
		return fmt.Errorf("failed to create podcast record: %w", err)
	}
	return nil
}

// GetPodcastByID returns a record by id, or nil when it does not exist.
func (r *gormPodcastRepository) GetPodcastByID(id string) (*model.Podcast, error) {
	var p model.Podcast
	err := r.db.First(&p, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query podcast %s: %w", id, err)
	}
	return &p, nil
}

// GetPodcastsByUserID returns all records owned by a user, newest first.
func (r *gormPodcastRepository) GetPodcastsByUserID(userID int64) ([]*model.Podcast, error) {
	var podcasts []*model.Podcast
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&podcasts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query podcasts for user %d: %w", userID, err)
	}
	return podcasts, nil
}

// UpdatePodcast applies a partial merge of the given columns. Each pipeline
// stage is the sole writer of its fields, so column-level updates are all
// the coordination the state machine needs.
func (r *gormPodcastRepository) UpdatePodcast(id string, fields map[string]interface{}) error {
	if err := r.db.Model(&model.Podcast{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		return fmt.Errorf("failed to update podcast %s: %w", id, err)
	}
	return nil
}
