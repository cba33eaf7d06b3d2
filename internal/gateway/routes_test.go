package gateway

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAllowedConfigPath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"gateway.port", true},
		{"gateway.bind", true},
		{"gateway.customBindHost", true},
		{"gateway.allowedOrigins", true},
		{"logging", true},
		{"logging.level", true},
		{"donation.throttle", true},
		{"donation.maxSpokenNames", true},
		{"index.kind", true},
		{"metrics.enabled", true},

		{"gateway", false},
		{"gateway.auth", false},
		{"gateway.auth.token", false},
		{"gateway.auth.password", false},
		{"gateway.tls.keyPath", false},
		{"gateway.portal", false},
		{"index", false},
		{"index.redis.password", false},
		{"notify.kafka.brokers", false},
		{"store.path", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, isAllowedConfigPath(tt.path))
		})
	}
}

func TestRPCConfigGet(t *testing.T) {
	_, ts := testServer(t)
	conn := connectAs(t, ts, ModeApp)

	resp := call(t, conn, "req-3", "config.get", configGetParams{Key: "gateway.port"})
	require.True(t, *resp.OK)

	var result map[string]any
	require.NoError(t, json.Unmarshal(resp.Payload, &result))
	assert.Equal(t, "gateway.port", result["key"])
	assert.Equal(t, float64(18790), result["value"])
}

func TestRPCConfigSetThenGet(t *testing.T) {
	_, ts := testServer(t)
	conn := connectAs(t, ts, ModeApp)

	resp := call(t, conn, "req-4", "config.set", configSetParams{Key: "donation.throttle", Value: "1m"})
	require.True(t, *resp.OK)

	resp = call(t, conn, "req-5", "config.get", configGetParams{Key: "donation.throttle"})
	require.True(t, *resp.OK)

	var result map[string]any
	require.NoError(t, json.Unmarshal(resp.Payload, &result))
	assert.Equal(t, "1m", result["value"])
}

func TestRPCConfigErrors(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		params   any
		wantCode string
	}{
		{"get secret", "config.get", configGetParams{Key: "gateway.auth.token"}, "forbidden"},
		{"set secret", "config.set", configSetParams{Key: "gateway.auth.token", Value: "hacked"}, "forbidden"},
		{"get tls key", "config.get", configGetParams{Key: "gateway.tls.keyPath"}, "forbidden"},
		{"get empty key", "config.get", configGetParams{}, "invalid_params"},
		{"set empty key", "config.set", configSetParams{Value: "x"}, "invalid_params"},
		{"get blocked segment", "config.get", configGetParams{Key: "logging.__proto__"}, "invalid_params"},
		{"get empty segment", "config.get", configGetParams{Key: "logging..level"}, "invalid_params"},
		{"get missing", "config.get", configGetParams{Key: "logging.nonexistent"}, "not_found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ts := testServer(t)
			conn := connectAs(t, ts, ModeApp)

			resp := call(t, conn, "req", tt.method, tt.params)
			assert.False(t, *resp.OK)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}
