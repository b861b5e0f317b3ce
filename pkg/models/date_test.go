package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventDateLabel(t *testing.T) {
	date := time.Date(1988, 6, 30, 0, 0, 0, 0, time.UTC)
	year := 1988

	assert.Equal(t, "1988-06-30", EventDateLabel(&date, nil))
	assert.Equal(t, "1988", EventDateLabel(nil, &year))
	assert.Equal(t, "unknown", EventDateLabel(nil, nil))

	// a full date wins over a year-only value
	assert.Equal(t, "1988-06-30", EventDateLabel(&date, &year))
}

func TestParseEventDate(t *testing.T) {
	value := "1988-06-30"
	parsed, err := ParseEventDate(&value)
	require.NoError(t, err)
	require.NotNil(t, parsed)
	assert.Equal(t, time.Date(1988, 6, 30, 0, 0, 0, 0, time.UTC), *parsed)

	parsed, err = ParseEventDate(nil)
	require.NoError(t, err)
	assert.Nil(t, parsed)

	empty := ""
	parsed, err = ParseEventDate(&empty)
	require.NoError(t, err)
	assert.Nil(t, parsed)

	bad := "30/06/1988"
	parsed, err = ParseEventDate(&bad)
	require.Error(t, err)
	assert.Nil(t, parsed)
}
