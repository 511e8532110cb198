package storage

import (
	"encoding/json"

	"carebook/internal/errors"
	"carebook/internal/logging"
	"carebook/internal/model"
)

// SnapshotRepo persists the appointment collection as a single named record
// holding the full JSON array. Every save overwrites the whole snapshot;
// there is no partial-update format.
type SnapshotRepo struct {
	db *DB
}

// NewSnapshotRepo creates a new appointment snapshot repository.
func NewSnapshotRepo(db *DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

// Load reads the persisted collection. A missing or corrupt snapshot
// degrades to an empty list so startup never blocks on bad state; the
// corruption is logged and the next save rewrites the record.
func (r *SnapshotRepo) Load() ([]*model.Appointment, error) {
	data, err := r.db.GetBytes(model.KeyAppointments)
	if err != nil {
		if IsErrKeyNotFound(err) {
			return nil, nil
		}
		logging.Warn("appointment snapshot unreadable, starting empty",
			logging.KeyError, err)
		return nil, nil
	}

	var appts []*model.Appointment
	if err := json.Unmarshal(data, &appts); err != nil {
		logging.Warn("appointment snapshot corrupt, starting empty",
			logging.KeyError, err)
		return nil, nil
	}
	return appts, nil
}

// SaveAll overwrites the durable record with the full collection.
func (r *SnapshotRepo) SaveAll(appts []*model.Appointment) error {
	if appts == nil {
		appts = []*model.Appointment{}
	}
	data, err := json.Marshal(appts)
	if err != nil {
		return errors.NewSystemErrorWithOp("save appointments", "failed to encode snapshot", err)
	}
	if err := r.db.SetBytes(model.KeyAppointments, data); err != nil {
		return errors.NewSystemErrorWithOp("save appointments", "failed to write snapshot", err)
	}
	return nil
}
