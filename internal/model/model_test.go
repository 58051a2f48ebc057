package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateTime(t *testing.T) {
	cases := map[string]time.Time{
		"2026-03-04T09:30:00Z":      time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC),
		"2026-03-04T09:30:00+02:00": time.Date(2026, 3, 4, 7, 30, 0, 0, time.UTC),
		"2026-03-04T09:30:00":       time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC),
		"2026-03-04T09:30":          time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC),
		"2026-03-04":                time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC),
	}
	for in, want := range cases {
		got, err := ParseDateTime(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got.Time), "%s: got %s", in, got.Time)
	}

	zero, err := ParseDateTime("  ")
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	_, err = ParseDateTime("next tuesday")
	assert.Error(t, err)
}

func TestDateTimeJSON(t *testing.T) {
	var f struct {
		At   DateTime `json:"at"`
		Next DateTime `json:"next"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"at":"2026-03-04T09:30:00","next":""}`), &f))
	assert.True(t, f.Next.IsZero())

	out, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `{"at":"2026-03-04T09:30:00Z","next":""}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"at":12}`), &f))
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" Admin ")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, r)

	_, err = ParseRole("dentist")
	assert.ErrorIs(t, err, ErrInvalidRole)

	var s Session
	assert.Error(t, json.Unmarshal([]byte(`{"role":"root"}`), &s))
	assert.False(t, (*Session)(nil).HasRole(RoleAdmin))
}

func TestAppointmentStatus(t *testing.T) {
	var f AppointmentFields
	assert.Error(t, json.Unmarshal([]byte(`{"status":"lost"}`), &f))

	require.NoError(t, json.Unmarshal([]byte(`{"status":""}`), &f))
	f.Normalize()
	assert.Equal(t, AppointmentStatusPending, f.Status)
	assert.NotNil(t, f.Files)
}
