package service

import (
	"context"
	"encoding/json"
	"errors"

	"bloodbank/internal/entity"
	"bloodbank/internal/model"
	"bloodbank/internal/reqctx"
	"bloodbank/internal/storage"

	"github.com/sirupsen/logrus"
)

const (
	snapshotVersion = 1
	backupCategory  = "backups"
)

// BackupService writes JSON snapshots of the domain tables to object storage.
type BackupService struct {
	repo  model.Repository
	store storage.Storage
}

func NewBackupService(repo model.Repository, store storage.Storage) *BackupService {
	return &BackupService{repo: repo, store: store}
}

// Create exports a consistent snapshot and saves it. Admin only.
func (s *BackupService) Create(ctx context.Context) (*entity.BackupResult, error) {
	identity, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, unavailable("create backup", errors.New("storage not configured"))
	}

	snapshot, err := s.repo.ExportSnapshot(ctx)
	if err != nil {
		return nil, unavailable("export snapshot", err)
	}
	now := reqctx.Now(ctx).UTC()
	snapshot.Version = snapshotVersion
	snapshot.CreatedAt = now
	snapshot.CreatedBy = identity.Email

	payload, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return nil, unavailable("encode snapshot", err)
	}

	key, err := s.store.Save(ctx, payload, storage.SaveOptions{
		Category:    backupCategory,
		BaseName:    "bloodbank-" + now.Format("20060102-150405"),
		Extension:   "json",
		ContentType: "application/json",
		At:          now,
	})
	if err != nil {
		if errors.Is(err, storage.ErrObjectExists) {
			return nil, &ConflictError{Field: "backup"}
		}
		logrus.WithError(err).Error("save backup failed")
		return nil, unavailable("save backup", err)
	}

	logrus.WithFields(logrus.Fields{
		"key":       key,
		"donors":    len(snapshot.Donors),
		"donations": len(snapshot.Donations),
		"user_id":   identity.UserID,
	}).Info("backup written")

	return &entity.BackupResult{
		Key:       key,
		Donors:    len(snapshot.Donors),
		Donations: len(snapshot.Donations),
		CreatedAt: now,
	}, nil
}
