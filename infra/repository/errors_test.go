package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ticketcore/promoengine/pkg/domain"
	"gorm.io/gorm"
)

func TestMapGormErrorToDomain(t *testing.T) {
	t.Parallel()

	other := errors.New("connection reset")

	tests := []struct {
		name     string
		input    error
		expected error
	}{
		{"nil error returns nil", nil, nil},
		{"duplicate key maps to ErrAlreadyExists", gorm.ErrDuplicatedKey, domain.ErrAlreadyExists},
		{"record not found maps to ErrNotFound", gorm.ErrRecordNotFound, domain.ErrNotFound},
		{"foreign key maps to ErrNotFound", gorm.ErrForeignKeyViolated, domain.ErrNotFound},
		{"wrapped duplicate key", fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), domain.ErrAlreadyExists},
		{"joined record not found", errors.Join(errors.New("outer"), gorm.ErrRecordNotFound), domain.ErrNotFound},
		{"other errors pass through", other, other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result := MapGormErrorToDomain(tt.input)
			if tt.expected == nil {
				assert.NoError(t, result)
				return
			}
			require.ErrorIs(t, result, tt.expected)
		})
	}
}

func TestWrapError(t *testing.T) {
	err := WrapError(func() error { return gorm.ErrRecordNotFound })
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, WrapError(func() error { return nil }))
}
