package service

import (
	"context"
	"errors"

	"bloodbank/internal/entity"
	"bloodbank/internal/reqctx"

	"gorm.io/gorm"
)

// caller returns the identity on ctx or ErrUnauthenticated.
func caller(ctx context.Context) (reqctx.Identity, error) {
	identity, ok := reqctx.IdentityFrom(ctx)
	if !ok || identity.IsZero() {
		return reqctx.Identity{}, ErrUnauthenticated
	}
	return identity, nil
}

// requireWriter admits staff and admins. Viewers are read-only.
func requireWriter(ctx context.Context) (reqctx.Identity, error) {
	identity, err := caller(ctx)
	if err != nil {
		return identity, err
	}
	switch identity.Role {
	case entity.UserRoleAdmin, entity.UserRoleStaff:
		return identity, nil
	default:
		return identity, ErrForbidden
	}
}

func requireAdmin(ctx context.Context) (reqctx.Identity, error) {
	identity, err := caller(ctx)
	if err != nil {
		return identity, err
	}
	if identity.Role != entity.UserRoleAdmin {
		return identity, ErrForbidden
	}
	return identity, nil
}

// notFoundOr maps gorm.ErrRecordNotFound to a NotFoundError and anything
// else to a store failure.
func notFoundOr(err error, resource, id, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Resource: resource, ID: id}
	}
	return unavailable(op, err)
}
