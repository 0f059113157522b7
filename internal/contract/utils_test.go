package contract

import (
	"testing"

	"github.com/SohamS7S/Smart-factory-ai/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBoolString(t *testing.T) {
	tests := []struct {
		in      string
		want    bool
		wantErr bool
	}{
		{"yes", true, false},
		{"TRUE", true, false},
		{"on", true, false},
		{"1", true, false},
		{"no", false, false},
		{"Off", false, false},
		{"0", false, false},
		{"maybe", false, true},
		{"", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBoolString(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetPlainLabel(t *testing.T) {
	assert.Equal(t, AnomalyValue, GetPlainLabel(true))
	assert.Equal(t, NormalValue, GetPlainLabel(false))
	assert.Contains(t, GetColorLabel(true), AnomalyValue)
	assert.Contains(t, GetColorLabel(false), NormalValue)
}

func TestGetStateLabel(t *testing.T) {
	assert.Equal(t, "AWAITING_HISTORY", GetStateLabel(schema.AwaitingHistory, false))
	assert.Contains(t, GetStateLabel(schema.Monitoring, true), "MONITORING")
}

func TestTruncatePath(t *testing.T) {
	assert.Equal(t, "short.csv", TruncatePath("short.csv", 20))
	assert.Equal(t, "...feed.csv", TruncatePath("data/sensors/live_feed.csv", 11))
	assert.Equal(t, "abcdef", TruncatePath("abcdef", 3))
}

func TestDBFilePathsDiffer(t *testing.T) {
	assert.NotEqual(t, GetCacheDBFilePath(), GetHistoryDBFilePath())
	assert.Contains(t, GetCacheDBFilePath(), ".factory_cache.db")
}
