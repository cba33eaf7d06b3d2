package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/soyeahso/intentd/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withHome points the CLI at an empty intentd home and clears env
// overrides that would change the loaded config.
func withHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("INTENTD_HOME", home)
	for _, k := range []string{"INTENTD_INDEX_KIND", "INTENTD_STORE_PATH", "INTENTD_DONATION_THROTTLE", "INTENTD_KAFKA_BROKERS", "INTENTD_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	return home
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	root := newRootCmd()
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(append([]string{"--log-level", "silent"}, args...))
	err := root.Execute()
	return buf.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	require.NoError(t, err, "intentd %s", strings.Join(args, " "))
	return out
}

func TestVersionCmd(t *testing.T) {
	withHome(t)
	out := mustRun(t, "version")
	assert.True(t, strings.HasPrefix(out, "intentd dev"), out)
}

func TestConfigPathCmd(t *testing.T) {
	home := withHome(t)
	out := mustRun(t, "config", "path")
	assert.Equal(t, filepath.Join(home, "config.yaml")+"\n", out)
}

func TestConfigSetGetUnset(t *testing.T) {
	withHome(t)

	out := mustRun(t, "config", "set", "donation.throttle", "1m")
	assert.Equal(t, "Set donation.throttle = 1m\n", out)

	out = mustRun(t, "config", "get", "donation.throttle")
	assert.Equal(t, "1m\n", out)

	mustRun(t, "config", "set", "gateway.port", "19000")
	out = mustRun(t, "config", "get", "gateway")
	assert.Contains(t, out, "port: 19000")

	mustRun(t, "config", "unset", "donation.throttle")
	_, err := run(t, "config", "get", "donation.throttle")
	assert.Error(t, err)

	_, err = run(t, "config", "unset", "donation.throttle")
	assert.Error(t, err)
}

func TestConfigSetRejectsInvalid(t *testing.T) {
	withHome(t)

	_, err := run(t, "config", "set", "index.kind", "bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index.kind")

	_, err = run(t, "config", "get", "index.kind")
	assert.Error(t, err, "rejected value must not be saved")

	_, err = run(t, "config", "set", "logging.__proto__", "x")
	assert.Error(t, err)
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"true", true},
		{"FALSE", false},
		{"18790", 18790},
		{"-3", -3},
		{"0.5", 0.5},
		{"30s", "30s"},
		{"redis", "redis"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseValue(tt.in))
		})
	}
}

func TestParseParticipants(t *testing.T) {
	got := parseParticipants([]string{"alice", "bob=Bob", " carol = Carol Smith "})
	assert.Equal(t, []domain.Participant{
		{ID: "alice"},
		{ID: "bob", DisplayName: "Bob"},
		{ID: "carol", DisplayName: "Carol Smith"},
	}, got)
}

func TestConversationLifecycle(t *testing.T) {
	withHome(t)

	out := mustRun(t, "account", "put", "alice", "--name", "Alice")
	assert.Equal(t, "Saved account alice\n", out)
	out = mustRun(t, "account", "list")
	assert.Contains(t, out, "alice")

	out = mustRun(t, "conversation", "put", "abc123", "--account", "alice",
		"--participant", "alice", "--participant", "bob=Bob")
	assert.Contains(t, out, "Saved conversation abc123 for alice (2 participants)")

	out = mustRun(t, "conversation", "list", "--account", "alice")
	assert.Contains(t, out, "abc123")
	assert.Contains(t, out, "alice,bob")

	out = mustRun(t, "donate", "--token", "abc123", "--account", "alice", "--dry-run")
	var d domain.Descriptor
	require.NoError(t, json.Unmarshal([]byte(out), &d))
	assert.Equal(t, "alice::abc123", d.GroupID)
	assert.Equal(t, "Bob", d.SpeakableName)
	assert.Equal(t, []domain.Recipient{{ID: "bob", DisplayName: "Bob"}}, d.Recipients)
	assert.False(t, d.Group)

	out = mustRun(t, "donate", "--token", "abc123", "--account", "alice")
	assert.Equal(t, "submitted alice::abc123\n", out)

	out = mustRun(t, "donate", "--token", "missing", "--account", "alice")
	assert.True(t, strings.HasPrefix(out, "not_found"), out)

	out = mustRun(t, "conversation", "delete", "abc123", "--account", "alice")
	assert.Equal(t, "Deleted conversation abc123 for alice\n", out)

	out = mustRun(t, "conv", "list", "--account", "alice")
	assert.NotContains(t, out, "abc123")
}

func TestDonateDryRunNotFound(t *testing.T) {
	withHome(t)
	mustRun(t, "account", "put", "alice")

	_, err := run(t, "donate", "--token", "nope", "--account", "alice", "--dry-run")
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
}

func TestDonateRequiresFlags(t *testing.T) {
	withHome(t)
	_, err := run(t, "donate", "--token", "abc123")
	assert.Error(t, err)
}

func TestDonateHostIndexNeedsGateway(t *testing.T) {
	withHome(t)
	mustRun(t, "config", "set", "index.kind", "host")

	_, err := run(t, "donate", "--token", "abc123", "--account", "alice")
	assert.ErrorIs(t, err, errNeedsGateway)
}

func TestEditsNeedPersistentStore(t *testing.T) {
	withHome(t)
	mustRun(t, "config", "set", "store.kind", "memory")

	_, err := run(t, "account", "put", "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "memory")
}

func TestStatusCmd(t *testing.T) {
	withHome(t)

	out := mustRun(t, "status")
	assert.Contains(t, out, "Config file not found")
	assert.Contains(t, out, "Index:    memory")
	assert.Contains(t, out, "throttle=30s")
	assert.Contains(t, out, "Kafka:    (disabled)")

	mustRun(t, "config", "set", "donation.throttle", "0")
	out = mustRun(t, "status")
	assert.Contains(t, out, "throttle=off")
}
