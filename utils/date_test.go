package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-01-31")
	require.NoError(t, err)
	assert.Equal(t, 2025, d.Year())
	assert.Equal(t, 31, d.Day())

	_, err = ParseDate("31/01/2025")
	assert.Error(t, err)

	_, err = ParseDate("")
	assert.Error(t, err)
}

func TestParseDateOptional(t *testing.T) {
	d, err := ParseDateOptional("")
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = ParseDateOptional("2025-06-15")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, 15, d.Day())
}
