package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageboundapp/pagebound-server/internal/domain"
	domainerrors "github.com/pageboundapp/pagebound-server/internal/errors"
	"github.com/pageboundapp/pagebound-server/internal/sse"
)

func duneGroup(t *testing.T, env *testEnv, creator string) domain.DiscussionGroup {
	t.Helper()
	g, err := env.groups.CreateGroup(context.Background(), creator, NewGroup{
		Name:        "Dune Readers",
		BookID:      "book-dune",
		Description: "Spice, sand and politics",
	})
	require.NoError(t, err)
	return g
}

func TestCommunity_DuneScenario(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	env.signIn("u1", "Ada")
	env.signIn("u2", "Ben")
	env.signIn("u3", "Cy")

	g := duneGroup(t, env, "u1")
	assert.Equal(t, []string{"u1"}, g.Members)
	assert.Empty(t, g.Discussions)

	g, err := env.groups.JoinGroup(ctx, g.ID, "u2")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, g.Members)

	d, err := env.groups.CreateDiscussion(ctx, g.ID, "u2", NewDiscussion{
		Title:   "Thoughts on Paul",
		Content: "Is he a hero?",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ben", d.UserName)

	g, err = env.groups.Group(g.ID)
	require.NoError(t, err)
	require.Len(t, g.Discussions, 1)
	assert.Equal(t, d.ID, g.Discussions[0].ID)
	assert.Empty(t, g.Discussions[0].Comments)

	c, err := env.groups.AddComment(ctx, g.ID, d.ID, "u1", "Great opening")
	require.NoError(t, err)
	assert.Equal(t, 0, c.Likes)
	assert.Empty(t, c.Replies)

	liked, err := env.groups.LikeComment(ctx, g.ID, d.ID, c.ID, "u2")
	require.NoError(t, err)
	assert.Equal(t, 1, liked.Likes)

	_, err = env.groups.AddComment(ctx, g.ID, d.ID, "u3", "Let me in")
	require.ErrorIs(t, err, domainerrors.ErrForbidden)

	g, err = env.groups.Group(g.ID)
	require.NoError(t, err)
	comments := g.Discussions[0].Comments
	require.Len(t, comments, 1)
	assert.Equal(t, "Great opening", comments[0].Text)
	assert.Equal(t, 1, comments[0].Likes)
	assert.Empty(t, comments[0].Replies)

	assert.Equal(t, []sse.EventType{
		sse.EventGroupCreated,
		sse.EventMemberJoined,
		sse.EventDiscussionCreated,
		sse.EventCommentAdded,
		sse.EventCommentLiked,
	}, env.events.types())
}

func TestCommunity_StatePersistsAcrossHydrate(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	env.signIn("u1", "Ada")

	g := duneGroup(t, env, "u1")
	d, err := env.groups.CreateDiscussion(ctx, g.ID, "u1", NewDiscussion{Title: "T", Content: "C"})
	require.NoError(t, err)
	c, err := env.groups.AddComment(ctx, g.ID, d.ID, "u1", "first")
	require.NoError(t, err)
	_, err = env.groups.AddReply(ctx, g.ID, d.ID, c.ID, "u1", "reply")
	require.NoError(t, err)
	_, err = env.groups.LikeComment(ctx, g.ID, d.ID, c.ID, "u1")
	require.NoError(t, err)

	snap, err := env.remote.Hydrate(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Groups, 1)

	inMemory, err := env.groups.Group(g.ID)
	require.NoError(t, err)
	stored := snap.Groups[0]
	assert.Equal(t, inMemory.Members, stored.Members)
	require.Len(t, stored.Discussions, 1)
	require.Len(t, stored.Discussions[0].Comments, 1)
	assert.Equal(t, 1, stored.Discussions[0].Comments[0].Likes)
	require.Len(t, stored.Discussions[0].Comments[0].Replies, 1)
}

func TestCommunity_CreateGroupValidation(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	_, err := env.groups.CreateGroup(ctx, "nobody", NewGroup{Name: "x", BookID: "book-dune", Description: "y"})
	require.ErrorIs(t, err, domainerrors.ErrUnauthenticated)

	env.signIn("u1", "Ada")
	tests := []struct {
		name string
		in   NewGroup
	}{
		{"blank name", NewGroup{Name: "  ", BookID: "book-dune", Description: "d"}},
		{"blank description", NewGroup{Name: "n", BookID: "book-dune", Description: ""}},
		{"missing book", NewGroup{Name: "n", Description: "d"}},
		{"unknown book", NewGroup{Name: "n", BookID: "book-nope", Description: "d"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.groups.CreateGroup(ctx, "u1", tt.in)
			require.ErrorIs(t, err, domainerrors.ErrValidation)
		})
	}
	assert.Empty(t, env.groups.Groups())
}

func TestCommunity_MembershipIdempotence(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	env.signIn("u1", "Ada")
	env.signIn("u2", "Ben")
	g := duneGroup(t, env, "u1")

	for range 2 {
		got, err := env.groups.JoinGroup(ctx, g.ID, "u2")
		require.NoError(t, err)
		assert.Equal(t, 2, got.MemberCount())
	}

	got, err := env.groups.LeaveGroup(ctx, g.ID, "u2")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, got.Members)

	got, err = env.groups.LeaveGroup(ctx, g.ID, "u2")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, got.Members)

	_, err = env.groups.LeaveGroup(ctx, g.ID, "u1")
	require.ErrorIs(t, err, domainerrors.ErrForbidden)

	_, err = env.groups.JoinGroup(ctx, "grp-missing", "u2")
	require.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestCommunity_ReplyTreeIntegrity(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	env.signIn("u1", "Ada")
	g := duneGroup(t, env, "u1")

	d, err := env.groups.CreateDiscussion(ctx, g.ID, "u1", NewDiscussion{Title: "T", Content: "C"})
	require.NoError(t, err)
	c1, err := env.groups.AddComment(ctx, g.ID, d.ID, "u1", "one")
	require.NoError(t, err)
	c2, err := env.groups.AddComment(ctx, g.ID, d.ID, "u1", "two")
	require.NoError(t, err)

	r, err := env.groups.AddReply(ctx, g.ID, d.ID, c1.ID, "u1", "nested")
	require.NoError(t, err)

	got, err := env.groups.Group(g.ID)
	require.NoError(t, err)
	disc := got.Discussion(d.ID)
	require.NotNil(t, disc)
	assert.Equal(t, 2, disc.CommentCount())

	first := disc.Comment(c1.ID)
	require.Len(t, first.Replies, 1)
	assert.Equal(t, r.ID, first.Replies[0].ID)
	assert.Empty(t, disc.Comment(c2.ID).Replies)

	liked, err := env.groups.LikeReply(ctx, g.ID, d.ID, c1.ID, r.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, liked.Likes)
	liked, err = env.groups.LikeReply(ctx, g.ID, d.ID, c1.ID, r.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, liked.Likes, "likes increment on every call")
}

func TestCommunity_NotFoundTargets(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	env.signIn("u1", "Ada")
	g := duneGroup(t, env, "u1")
	d, err := env.groups.CreateDiscussion(ctx, g.ID, "u1", NewDiscussion{Title: "T", Content: "C"})
	require.NoError(t, err)

	_, err = env.groups.AddComment(ctx, g.ID, "disc-missing", "u1", "x")
	require.ErrorIs(t, err, domainerrors.ErrNotFound)

	_, err = env.groups.AddReply(ctx, g.ID, d.ID, "cmt-missing", "u1", "x")
	require.ErrorIs(t, err, domainerrors.ErrNotFound)

	_, err = env.groups.LikeComment(ctx, g.ID, d.ID, "cmt-missing", "u1")
	require.ErrorIs(t, err, domainerrors.ErrNotFound)

	_, err = env.groups.CreateDiscussion(ctx, "grp-missing", "u1", NewDiscussion{Title: "T", Content: "C"})
	require.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestCommunity_ValidationBeforeMembership(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	env.signIn("u1", "Ada")
	env.signIn("u2", "Ben")
	g := duneGroup(t, env, "u1")

	_, err := env.groups.CreateDiscussion(ctx, g.ID, "u1", NewDiscussion{Title: "", Content: "C"})
	require.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = env.groups.CreateDiscussion(ctx, g.ID, "u2", NewDiscussion{Title: "T", Content: "C"})
	require.ErrorIs(t, err, domainerrors.ErrForbidden)
}

func TestCommunity_RemoteFailureLeavesStateUntouched(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	env.signIn("u1", "Ada")
	env.signIn("u2", "Ben")
	g := duneGroup(t, env, "u1")
	d, err := env.groups.CreateDiscussion(ctx, g.ID, "u1", NewDiscussion{Title: "T", Content: "C"})
	require.NoError(t, err)
	c, err := env.groups.AddComment(ctx, g.ID, d.ID, "u1", "x")
	require.NoError(t, err)
	before := len(env.events.types())

	env.flaky.failNext("insert", "comments")
	env.flaky.failNext("insert", "group_members")
	env.flaky.failNext("upsert", "comments")

	_, err = env.groups.AddComment(ctx, g.ID, d.ID, "u1", "y")
	require.ErrorIs(t, err, domainerrors.ErrRemoteFailure)

	_, err = env.groups.JoinGroup(ctx, g.ID, "u2")
	require.ErrorIs(t, err, domainerrors.ErrRemoteFailure)

	_, err = env.groups.LikeComment(ctx, g.ID, d.ID, c.ID, "u1")
	require.ErrorIs(t, err, domainerrors.ErrRemoteFailure)

	got, err := env.groups.Group(g.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, got.Members)
	require.Len(t, got.Discussions[0].Comments, 1)
	assert.Equal(t, 0, got.Discussions[0].Comments[0].Likes)
	assert.Len(t, env.events.types(), before, "failed operations emit nothing")
}

func TestCommunity_Queries(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	env.signIn("u1", "Ada")
	env.signIn("u2", "Ben")

	dune := duneGroup(t, env, "u1")
	pp, err := env.groups.CreateGroup(ctx, "u2", NewGroup{Name: "Austen", BookID: "book-pp", Description: "Manners"})
	require.NoError(t, err)

	assert.Len(t, env.groups.Groups(), 2)

	mine := env.groups.GroupsByUser("u1")
	require.Len(t, mine, 1)
	assert.Equal(t, dune.ID, mine[0].ID)

	byBook := env.groups.GroupsByBook("book-pp")
	require.Len(t, byBook, 1)
	assert.Equal(t, pp.ID, byBook[0].ID)

	assert.Empty(t, env.groups.GroupsByBook("book-found"))
	assert.NotNil(t, env.groups.GroupsByUser("nobody"))

	user, err := env.account.CurrentUser("u1")
	require.NoError(t, err)
	assert.Equal(t, []string{dune.ID}, user.Groups)
}
