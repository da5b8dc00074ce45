package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredicates(t *testing.T) {
	assert.True(t, IsNotFound(NotFound("patient")))
	assert.True(t, IsValidation(Validation("bad input")))
	assert.True(t, IsBusinessRule(BusinessRule("rule broken")))

	assert.False(t, IsNotFound(Validation("bad input")))
	assert.False(t, IsBusinessRule(errors.New("plain")))
}

func TestPredicatesSeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("handling request: %w", NotFound("consultation"))
	assert.True(t, IsNotFound(wrapped))
}

func TestValidationFields(t *testing.T) {
	err := ValidationFields(map[string]string{"name": "name is required"})
	require.True(t, IsValidation(err))

	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "name is required", appErr.Fields["name"])
}

func TestInternalWrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Internal(cause)
	assert.True(t, errors.Is(err, cause))
}
