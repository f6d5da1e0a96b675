package model

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bloodbank/internal/auth"
	"bloodbank/internal/config"
	"bloodbank/internal/entity"

	"github.com/sirupsen/logrus"
)

// SeedInventory ensures exactly one stock line per blood group exists.
// Existing lines are never touched.
func SeedInventory(ctx context.Context, repo Repository, thresholds entity.InventoryThresholds, now time.Time) error {
	if repo == nil {
		return nil
	}
	status := thresholds.StatusFor(0)
	for _, group := range entity.BloodGroups {
		created, err := repo.EnsureInventoryLine(ctx, group, status, now.UTC())
		if err != nil {
			return fmt.Errorf("seed inventory %s: %w", group, err)
		}
		if created {
			logrus.WithField("blood_group", group).Info("seeded inventory line")
		}
	}
	return nil
}

// SeedAdmin creates the bootstrap administrator when the user table is empty
// and ADMIN_EMAIL/ADMIN_PASSWORD are configured.
func SeedAdmin(ctx context.Context, repo Repository, cfg config.Config, hasher auth.PasswordHasher) error {
	if repo == nil || hasher == nil {
		return nil
	}
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	if email == "" || cfg.AdminPassword == "" {
		return nil
	}
	count, err := repo.CountUsers(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := hasher.Hash(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	name := strings.TrimSpace(cfg.AdminName)
	if name == "" {
		name = "Administrator"
	}
	user := &entity.DbUser{
		Email:        email,
		PasswordHash: hash,
		DisplayName:  name,
		Role:         entity.UserRoleAdmin,
		IsActive:     true,
	}
	if err := repo.CreateUser(ctx, user); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	logrus.WithField("email", email).Info("bootstrap admin created")
	return nil
}
