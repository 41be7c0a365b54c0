package services

import (
	"context"

	apperrors "github.com/dishpatch/dishpatch/pkg/errors"
)

// ensureContext guarantees a non-nil context for database calls.
func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// storeError surfaces a database failure as the store-unavailable taxonomy
// error. It is reported once and never retried internally.
func storeError(err error) *apperrors.AppError {
	return apperrors.ErrStoreUnavailable.WithInternal(err)
}
