package gateway

import (
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/soyeahso/intentd/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestSafeEqual(t *testing.T) {
	assert.True(t, safeEqual("secret", "secret"))
	assert.True(t, safeEqual("", ""))
	assert.False(t, safeEqual("secret", "wrong"))
	assert.False(t, safeEqual("short", "longer-string"))
	assert.False(t, safeEqual("secret", ""))
	assert.False(t, safeEqual("", "secret"))
}

func TestResolveAuth(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.GatewayAuth
		env      map[string]string
		wantMode string
		wantTok  string
		wantPass string
	}{
		{"token from config", config.GatewayAuth{Mode: "token", Token: "config-token"}, nil, "token", "config-token", ""},
		{"password from config", config.GatewayAuth{Mode: "password", Password: "config-pass"}, nil, "password", "", "config-pass"},
		{"defaults to token", config.GatewayAuth{Token: "t"}, nil, "token", "t", ""},
		{"defaults to password when set", config.GatewayAuth{Password: "p"}, nil, "password", "", "p"},
		{"token from env", config.GatewayAuth{Mode: "token"}, map[string]string{"INTENTD_GATEWAY_TOKEN": "env-token"}, "token", "env-token", ""},
		{"password from env", config.GatewayAuth{Mode: "password"}, map[string]string{"INTENTD_GATEWAY_PASSWORD": "env-pass"}, "password", "", "env-pass"},
		{"config wins over env", config.GatewayAuth{Mode: "token", Token: "config-token"}, map[string]string{"INTENTD_GATEWAY_TOKEN": "env-token"}, "token", "config-token", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("INTENTD_GATEWAY_TOKEN", "")
			t.Setenv("INTENTD_GATEWAY_PASSWORD", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			auth := ResolveAuth(tt.cfg)
			assert.Equal(t, tt.wantMode, auth.Mode)
			assert.Equal(t, tt.wantTok, auth.Token)
			assert.Equal(t, tt.wantPass, auth.Password)
		})
	}
}

func TestAuthorize(t *testing.T) {
	tokenAuth := ResolvedAuth{Mode: "token", Token: "secret"}
	passAuth := ResolvedAuth{Mode: "password", Password: "pass123"}

	tests := []struct {
		name       string
		server     ResolvedAuth
		client     *ConnectAuth
		wantOK     bool
		wantMethod string
		wantReason string
	}{
		{"token ok", tokenAuth, &ConnectAuth{Token: "secret"}, true, "token", ""},
		{"token mismatch", tokenAuth, &ConnectAuth{Token: "wrong"}, false, "", "token_mismatch"},
		{"token missing", tokenAuth, &ConnectAuth{}, false, "", "token required"},
		{"server token unset", ResolvedAuth{Mode: "token"}, &ConnectAuth{Token: "x"}, false, "", "server token not configured"},
		{"password ok", passAuth, &ConnectAuth{Password: "pass123"}, true, "password", ""},
		{"password mismatch", passAuth, &ConnectAuth{Password: "wrong"}, false, "", "password_mismatch"},
		{"password missing", passAuth, &ConnectAuth{}, false, "", "password required"},
		{"server password unset", ResolvedAuth{Mode: "password"}, &ConnectAuth{Password: "x"}, false, "", "server password not configured"},
		{"token sent to password server", passAuth, &ConnectAuth{Token: "pass123"}, false, "", "password required"},
		{"no credentials", tokenAuth, nil, false, "", "no credentials provided"},
		{"unknown mode", ResolvedAuth{Mode: "oauth"}, &ConnectAuth{Token: "x"}, false, "", "unknown auth mode: oauth"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Authorize(tt.server, tt.client)
			assert.Equal(t, tt.wantOK, got.OK)
			assert.Equal(t, tt.wantMethod, got.Method)
			assert.Equal(t, tt.wantReason, got.Reason)
		})
	}
}

func TestAuthRateLimiter(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := newAuthRateLimiter()
	l.now = func() time.Time { return now }

	assert.True(t, l.allow("192.168.1.1:12345"))

	for i := 0; i < authRateMaxFails-1; i++ {
		l.recordFailure("192.168.1.1:12345")
	}
	assert.True(t, l.allow("192.168.1.1:40000"), "one failure short of the limit")

	l.recordFailure("192.168.1.1:12345")
	assert.False(t, l.allow("192.168.1.1:40000"), "port does not matter")
	assert.True(t, l.allow("192.168.1.2:12345"))

	now = now.Add(authRateWindow + time.Second)
	assert.True(t, l.allow("192.168.1.1:12345"), "failures expire")
	assert.Empty(t, l.failures)
}

func TestAuthRateLimiter_AddressWithoutPort(t *testing.T) {
	l := newAuthRateLimiter()
	for i := 0; i < authRateMaxFails; i++ {
		l.recordFailure("192.168.1.1")
	}
	assert.False(t, l.allow("192.168.1.1"))
	assert.False(t, l.allow("192.168.1.1:9"))
}

func TestAuthRateLimiter_BoundedHosts(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := newAuthRateLimiter()
	l.now = func() time.Time { return now }

	for i := 0; i < authRateMaxIPs; i++ {
		l.recordFailure(fmt.Sprintf("10.%d.%d.%d:1", i>>16&0xff, i>>8&0xff, i&0xff))
		now = now.Add(time.Millisecond)
	}
	assert.Len(t, l.failures, authRateMaxIPs)

	l.recordFailure("192.168.1.1:1")
	assert.Len(t, l.failures, authRateMaxIPs)
	assert.Contains(t, l.failures, "192.168.1.1")
	assert.NotContains(t, l.failures, "10.0.0.0", "oldest host evicted")
}

func TestCheckWebSocketOrigin(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"no origin header", nil, "", true},
		{"nothing allowed", nil, "http://evil.com", false},
		{"wildcard", []string{"*"}, "http://anything.com", true},
		{"listed", []string{"http://one.com", "http://two.com"}, "http://two.com", true},
		{"not listed", []string{"http://one.com"}, "http://three.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, checkWebSocketOrigin(tt.allowed)(req))
		})
	}
}
