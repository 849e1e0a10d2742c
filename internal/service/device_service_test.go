package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimePtr(t *testing.T) {
	assert.Nil(t, parseTimePtr(""))
	assert.Nil(t, parseTimePtr("not a time"))

	got := parseTimePtr("2026-08-28T10:30:00Z")
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2026, 8, 28, 10, 30, 0, 0, time.UTC), got.UTC())

	got = parseTimePtr("2026-08-28 10:30:00")
	require.NotNil(t, got)
	assert.Equal(t, 2026, got.Year())
}
