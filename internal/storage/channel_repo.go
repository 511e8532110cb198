package storage

import (
	"time"

	"carebook/internal/model"
)

// ChannelRepo provides operations for Channel entities.
type ChannelRepo struct {
	db *DB
}

// NewChannelRepo creates a new channel repository.
func NewChannelRepo(db *DB) *ChannelRepo {
	return &ChannelRepo{db: db}
}

// Create stores a new channel.
func (r *ChannelRepo) Create(ch *model.Channel) error {
	if ch.Key == "" {
		ch.Key = model.GenerateChannelKey(ch.Name)
	}
	if ch.CreatedAt.IsZero() {
		ch.CreatedAt = time.Now()
	}
	return r.db.Set(ch)
}

// Get retrieves a channel by name.
func (r *ChannelRepo) Get(name string) (*model.Channel, error) {
	ch := &model.Channel{}
	if err := r.db.Get(model.GenerateChannelKey(name), ch); err != nil {
		return nil, err
	}
	return ch, nil
}

// List retrieves all channels.
func (r *ChannelRepo) List() ([]*model.Channel, error) {
	return GetAllByPrefix(r.db, model.PrefixChannel+":", func() *model.Channel {
		return &model.Channel{}
	})
}

// ListEnabled retrieves all enabled channels.
func (r *ChannelRepo) ListEnabled() ([]*model.Channel, error) {
	all, err := r.List()
	if err != nil {
		return nil, err
	}

	var enabled []*model.Channel
	for _, ch := range all {
		if ch.Enabled {
			enabled = append(enabled, ch)
		}
	}
	return enabled, nil
}

// Delete removes a channel by name.
func (r *ChannelRepo) Delete(name string) error {
	return r.db.Delete(model.GenerateChannelKey(name))
}

// SetEnabled enables or disables a channel.
func (r *ChannelRepo) SetEnabled(name string, enabled bool) error {
	ch, err := r.Get(name)
	if err != nil {
		return err
	}
	ch.Enabled = enabled
	return r.db.Set(ch)
}

// UpdateLastUsed records the last delivery attempt for a channel.
func (r *ChannelRepo) UpdateLastUsed(name string, sendErr error) error {
	ch, err := r.Get(name)
	if err != nil {
		return err
	}
	ch.LastUsed = time.Now()
	if sendErr != nil {
		ch.LastError = sendErr.Error()
	} else {
		ch.LastError = ""
	}
	return r.db.Set(ch)
}

// Exists checks if a channel exists.
func (r *ChannelRepo) Exists(name string) (bool, error) {
	return r.db.Exists(model.GenerateChannelKey(name))
}
