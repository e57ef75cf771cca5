package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateAcceptsBothFormats(t *testing.T) {
	var v struct {
		A Date `json:"a"`
		B Date `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"2025-03-01","b":"2025-03-31T23:59:59-03:00"}`), &v))
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), v.A.Time)
	assert.Equal(t, time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), v.B.Time)

	out, err := json.Marshal(v.A)
	require.NoError(t, err)
	assert.Equal(t, `"2025-03-01T00:00:00Z"`, string(out))
}

func TestDateKeepsCalendarDayOfOffset(t *testing.T) {
	for _, s := range []string{"2025-03-31T23:30:00-05:00", "2025-03-31T00:15:00+09:00", "2025-03-31T12:00:00Z"} {
		d, err := ParseDate(s)
		require.NoError(t, err, s)
		assert.Equal(t, time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), d.Time, s)
	}
}

func TestDateRejectsGarbage(t *testing.T) {
	var d Date
	assert.Error(t, json.Unmarshal([]byte(`"03/01/2025"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`20250301`), &d))
	require.NoError(t, json.Unmarshal([]byte(`null`), &d))
	assert.True(t, d.IsZero())
}
