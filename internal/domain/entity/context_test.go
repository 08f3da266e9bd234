package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextFromMap_Aliases(t *testing.T) {
	c, err := ContextFromMap(map[string]any{
		"created_email": "a@example.com",
		"phone":         "0821234567",
		"date_of_birth": "2000-01-01",
	})
	require.NoError(t, err)

	assert.Equal(t, "a@example.com", c.Get("email"))
	assert.Equal(t, "0821234567", c.Get("mobile"))
	assert.Equal(t, "2000-01-01", c.Get("dob"))
}

func TestContextFromMap_AliasDoesNotOverride(t *testing.T) {
	c, err := ContextFromMap(map[string]any{
		"dob":           "1999-12-31",
		"date_of_birth": "2000-01-01",
	})
	require.NoError(t, err)

	assert.Equal(t, "1999-12-31", c.Get("dob"))
}

func TestContextFromMap_TypedScalars(t *testing.T) {
	c, err := ContextFromMap(map[string]any{
		"dob":        time.Date(2000, 1, 2, 0, 0, 0, 0, time.UTC),
		"fee_waiver": true,
		"income":     float64(85000),
		"id_number":  float64(9001015800087),
		"nested":     map[string]any{"ignored": "x"},
	})
	require.NoError(t, err)

	assert.Equal(t, "2000-01-02", c.Get("dob"))
	assert.True(t, c.Flag("fee_waiver"))
	assert.Equal(t, "85000", c.Get("income"))
	assert.Equal(t, "9001015800087", c.Get("id_number"))
	assert.False(t, c.Has("nested"))
}
