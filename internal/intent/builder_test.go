package intent

import (
	"encoding/json"
	"testing"

	"github.com/soyeahso/intentd/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func oneToOne() domain.Conversation {
	return domain.Conversation{
		Token:     "abc123",
		AccountID: "alice",
		Kind:      domain.KindOneToOne,
		Participants: []domain.Participant{
			{ID: "alice", DisplayName: "Alice"},
			{ID: "bob", DisplayName: "Bob"},
		},
	}
}

func projectTeam() domain.Conversation {
	return domain.Conversation{
		Token:       "team1",
		AccountID:   "alice",
		DisplayName: "Project Team",
		Kind:        domain.KindGroup,
		Participants: []domain.Participant{
			{ID: "alice", DisplayName: "Alice"},
			{ID: "bob", DisplayName: "Bob"},
			{ID: "carol", DisplayName: "Carol"},
			{ID: "dave", DisplayName: "Dave"},
		},
	}
}

func TestBuild_OneToOne(t *testing.T) {
	d := Build(oneToOne())

	assert.Equal(t, "alice::abc123", d.GroupID)
	assert.Equal(t, "alice", d.AccountID)
	assert.Equal(t, "abc123", d.Token)
	assert.Equal(t, []domain.Recipient{{ID: "bob", DisplayName: "Bob"}}, d.Recipients)
	assert.Equal(t, "Bob", d.SpeakableName)
	assert.Equal(t, domain.Recipient{ID: "alice", DisplayName: "Alice"}, d.Sender)
	assert.False(t, d.Group)
	assert.Empty(t, d.Content)
}

func TestBuild_NamedGroup(t *testing.T) {
	d := Build(projectTeam())

	assert.Equal(t, "alice::team1", d.GroupID)
	assert.Equal(t, "Project Team", d.SpeakableName)
	assert.True(t, d.Group)

	ids := make([]string, 0, len(d.Recipients))
	for _, r := range d.Recipients {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"bob", "carol", "dave"}, ids)
}

func TestBuild_SelfChat(t *testing.T) {
	conv := domain.Conversation{
		Token:        "notes",
		AccountID:    "alice",
		Participants: []domain.Participant{{ID: "alice", DisplayName: "Alice"}},
	}

	d := Build(conv)
	require.NotNil(t, d.Recipients)
	assert.Empty(t, d.Recipients)
	assert.Equal(t, "Alice", d.SpeakableName)
	assert.Equal(t, "alice::notes", d.GroupID)
}

func TestBuild_SelfChatWithoutNames(t *testing.T) {
	conv := domain.Conversation{
		Token:        "notes",
		AccountID:    "alice",
		Participants: []domain.Participant{{ID: "alice"}},
	}
	assert.Equal(t, "", Build(conv).SpeakableName)
}

func TestBuild_UserIDDiffersFromAccount(t *testing.T) {
	conv := domain.Conversation{
		Token:     "abc123",
		AccountID: "alice@cloud.example.com",
		UserID:    "alice",
		Participants: []domain.Participant{
			{ID: "alice", DisplayName: "Alice"},
			{ID: "bob"},
		},
	}

	d := Build(conv)
	assert.Equal(t, "alice@cloud.example.com::abc123", d.GroupID)
	assert.Equal(t, []domain.Recipient{{ID: "bob", DisplayName: "bob"}}, d.Recipients)
	assert.Equal(t, "bob", d.SpeakableName)
	assert.Equal(t, "alice", d.Sender.ID)
}

func TestSpeakableName(t *testing.T) {
	people := func(names ...string) []domain.Participant {
		ps := []domain.Participant{{ID: "me", DisplayName: "Me"}}
		for _, n := range names {
			ps = append(ps, domain.Participant{ID: n, DisplayName: n})
		}
		return ps
	}

	tests := []struct {
		name        string
		displayName string
		max         int
		members     []domain.Participant
		want        string
	}{
		{"display name wins", "Weekend", 3, people("Bob", "Carol"), "Weekend"},
		{"trimmed display name", "  Weekend  ", 3, people("Bob"), "Weekend"},
		{"blank display name", "   ", 3, people("Bob"), "Bob"},
		{"two names", "", 3, people("Bob", "Carol"), "Bob, Carol"},
		{"exactly limit", "", 3, people("Bob", "Carol", "Dave"), "Bob, Carol, Dave"},
		{"over limit", "", 3, people("Bob", "Carol", "Dave", "Erin", "Frank"), "Bob, Carol, Dave and 2 more"},
		{"custom limit", "", 1, people("Bob", "Carol"), "Bob and 1 more"},
		{"zero limit uses default", "", 0, people("Bob", "Carol", "Dave", "Erin"), "Bob, Carol, Dave and 1 more"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Builder{MaxSpokenNames: tt.max}
			d := b.Build(domain.Conversation{
				Token:        "room",
				AccountID:    "me",
				DisplayName:  tt.displayName,
				Kind:         domain.KindGroup,
				Participants: tt.members,
			})
			assert.Equal(t, tt.want, d.SpeakableName)
		})
	}
}

func TestBuild_Deterministic(t *testing.T) {
	conv := projectTeam()

	first, err := json.Marshal(Build(conv))
	require.NoError(t, err)
	second, err := json.Marshal(Build(conv))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestBuild_DoesNotMutateInput(t *testing.T) {
	conv := projectTeam()
	before, err := json.Marshal(conv)
	require.NoError(t, err)

	_ = Build(conv)

	after, err := json.Marshal(conv)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestGroupID_Injective(t *testing.T) {
	pairs := [][2]string{
		{"alice", "abc123"},
		{"alice", "abc124"},
		{"bob", "abc123"},
		{"alice:", "abc"},
		{"alice", "team1"},
		{"al", "ice_team1"},
		{"alice@cloud.example.com", "abc123"},
		{"alice::x", "abc123"},
	}

	seen := make(map[string][2]string)
	for _, p := range pairs {
		id := GroupID(p[0], p[1])
		if prev, dup := seen[id]; dup {
			t.Fatalf("GroupID collision: %v and %v both map to %q", prev, p, id)
		}
		seen[id] = p

		account, token, ok := ParseGroupID(id)
		require.True(t, ok)
		assert.Equal(t, p[0], account)
		assert.Equal(t, p[1], token)
	}
}

func TestGroupID_Repeatable(t *testing.T) {
	assert.Equal(t, GroupID("alice", "abc123"), GroupID("alice", "abc123"))
}

func TestParseGroupID_Invalid(t *testing.T) {
	_, _, ok := ParseGroupID("no-separator")
	assert.False(t, ok)
}

func TestRecipients_PreservesOrder(t *testing.T) {
	conv := domain.Conversation{
		AccountID: "alice",
		Kind:      domain.KindGroup,
		Participants: []domain.Participant{
			{ID: "zed"}, {ID: "alice"}, {ID: "amy"}, {ID: "mike"},
		},
	}

	got := Recipients(conv)
	require.Len(t, got, 3)
	assert.Equal(t, "zed", got[0].ID)
	assert.Equal(t, "amy", got[1].ID)
	assert.Equal(t, "mike", got[2].ID)
}

func TestRecipients_OneToOneHasSingleCounterpart(t *testing.T) {
	extra := []domain.Participant{
		{ID: "alice", DisplayName: "Alice"},
		{ID: "bob", DisplayName: "Bob"},
		{ID: "carol", DisplayName: "Carol"},
	}

	for _, kind := range []domain.ConversationKind{domain.KindOneToOne, "", domain.KindChangelog} {
		t.Run(string(kind), func(t *testing.T) {
			d := Build(domain.Conversation{
				Token:        "abc123",
				AccountID:    "alice",
				Kind:         kind,
				Participants: extra,
			})
			assert.Equal(t, []domain.Recipient{{ID: "bob", DisplayName: "Bob"}}, d.Recipients)
			assert.Equal(t, "Bob", d.SpeakableName)
			assert.False(t, d.Group)
		})
	}

	public := Build(domain.Conversation{
		Token: "lobby", AccountID: "alice", Kind: domain.KindPublic, Participants: extra,
	})
	assert.Len(t, public.Recipients, 2)
}
