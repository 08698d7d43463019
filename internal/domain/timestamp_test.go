package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestampLayouts(t *testing.T) {
	want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for _, in := range []string{
		"2024-03-01T10:00:00.000000Z",
		"2024-03-01T12:00:00+02:00",
		"2024-03-01 10:00:00",
		"2024-03-01 12:00:00.000000+02:00",
	} {
		got, err := ParseTimestamp(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), in)
		assert.Equal(t, time.UTC, got.Location(), in)
	}
	frac, err := ParseTimestamp("2024-03-01 10:00:00.5")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01T10:00:00.500000Z", FormatTimestamp(frac))

	_, err = ParseTimestamp("garbage")
	require.Error(t, err)
}

func TestFormatTimestampIsUTC(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*3600)
	ts := time.Date(2024, 1, 1, 21, 30, 0, 0, loc)
	assert.Equal(t, "2024-01-02T00:30:00.000000Z", FormatTimestamp(ts))
}

func TestErrorKinds(t *testing.T) {
	var err error = NotFoundError{Kind: "case", ID: int64(4)}
	require.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "case 4 not found", err.Error())

	err = InvalidTransitionError{CaseID: 1, From: 2, To: 3}
	require.True(t, errors.Is(err, ErrInvalidTransition))
	require.False(t, errors.Is(err, ErrCommentRequired))

	err = CommentRequiredError{CaseID: 1, StateID: 2, TemplateID: 9}
	require.True(t, errors.Is(err, ErrCommentRequired))
	var cre CommentRequiredError
	require.True(t, errors.As(err, &cre))
	assert.Equal(t, int64(9), cre.TemplateID)
}
