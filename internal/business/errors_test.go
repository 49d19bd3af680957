package business

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKindMatching(t *testing.T) {
	err := fmt.Errorf("load: %w", capacityError("daily API call limit exceeded"))

	assert.True(t, errors.Is(err, ErrCapacity))
	assert.False(t, errors.Is(err, ErrValidation))
	assert.Equal(t, KindCapacity, KindOf(err))
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))
	assert.Equal(t, "daily API call limit exceeded", errors.Unwrap(err).Error())

	nf := NotFoundError("business %s not found", "b1")
	assert.True(t, errors.Is(nf, ErrNotFound))
}
