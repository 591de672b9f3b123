package servicemodule

import (
	"errors"
	"testing"

	"github.com/smallbiznis/rendezvous/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNormalizesNames(t *testing.T) {
	for _, raw := range []string{"blind-date", "Blind Date", "BLIND_DATE", "  blind date "} {
		got, err := Parse(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, BlindDate, got)
	}
}

func TestParseRejectsUnknown(t *testing.T) {
	_, err := Parse("speed-dating")
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}

func TestParseOptional(t *testing.T) {
	got, err := ParseOptional("")
	require.NoError(t, err)
	assert.Equal(t, Module(""), got)
}

func TestAllIsCopy(t *testing.T) {
	modules := All()
	modules[0] = "mutated"
	assert.Equal(t, CompanionRental, All()[0])
	assert.Len(t, modules, 5)
}

func TestValid(t *testing.T) {
	assert.True(t, CompanionRental.Valid())
	assert.False(t, Module("speed-dating").Valid())
	assert.False(t, Module("").Valid())
}
