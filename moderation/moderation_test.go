package moderation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	k, err := ParseKind("post")
	require.NoError(t, err)
	assert.Equal(t, KindPost, k)

	k, err = ParseKind("Comment")
	require.NoError(t, err)
	assert.Equal(t, KindComment, k)

	// a reply is stored in the comments table
	k, err = ParseKind("reply")
	require.NoError(t, err)
	assert.Equal(t, KindComment, k)

	_, err = ParseKind("story")
	assert.ErrorIs(t, err, ErrInvalidKind)

	_, err = ParseKind("")
	assert.ErrorIs(t, err, ErrInvalidKind)
}

func TestParseDecision(t *testing.T) {
	d, err := ParseDecision("approve")
	require.NoError(t, err)
	assert.Equal(t, DecisionApprove, d)

	// email link actions use the quick_ prefix
	d, err = ParseDecision("quick_reject")
	require.NoError(t, err)
	assert.Equal(t, DecisionReject, d)

	_, err = ParseDecision("maybe")
	assert.ErrorIs(t, err, ErrInvalidDecision)
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusApproved, StatusRejected, StatusRemoved} {
		assert.True(t, s.Valid(), "%s should be valid", s)
	}
	assert.False(t, Status("inactive").Valid())
	assert.False(t, Status("").Valid())
}

func TestPubliclyVisible(t *testing.T) {
	assert.True(t, StatusApproved.PubliclyVisible())
	assert.False(t, StatusPending.PubliclyVisible())
	assert.False(t, StatusRejected.PubliclyVisible())
	assert.False(t, StatusRemoved.PubliclyVisible())
}

func TestDecide(t *testing.T) {
	next, err := Decide(StatusPending, DecisionApprove, KindPost)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, next)

	next, err = Decide(StatusPending, DecisionReject, KindComment)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, next)
}

func TestDecideIsIdempotentAndCorrectable(t *testing.T) {
	// deciding an already-decided item overwrites without error
	next, err := Decide(StatusApproved, DecisionApprove, KindPost)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, next)

	// a moderator can flip a mistaken verdict
	next, err = Decide(StatusApproved, DecisionReject, KindPost)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, next)

	next, err = Decide(StatusRejected, DecisionApprove, KindComment)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, next)
}

func TestDecideRemovedIsTerminal(t *testing.T) {
	_, err := Decide(StatusRemoved, DecisionApprove, KindPost)
	assert.ErrorIs(t, err, ErrRemoved)

	_, err = Decide(StatusRemoved, DecisionReject, KindPost)
	assert.ErrorIs(t, err, ErrRemoved)
}

func TestDecideInvalidInputs(t *testing.T) {
	_, err := Decide(Status("draft"), DecisionApprove, KindPost)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = Decide(StatusPending, Decision("publish"), KindPost)
	assert.ErrorIs(t, err, ErrInvalidDecision)
}

func TestEditReset(t *testing.T) {
	for _, from := range []Status{StatusPending, StatusApproved, StatusRejected} {
		next, err := EditReset(from)
		require.NoError(t, err, "edit from %s", from)
		assert.Equal(t, StatusPending, next)
	}

	_, err := EditReset(StatusRemoved)
	assert.ErrorIs(t, err, ErrRemoved)

	_, err = EditReset(Status(""))
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestRemove(t *testing.T) {
	for _, from := range []Status{StatusPending, StatusApproved, StatusRejected} {
		next, err := Remove(from, KindPost)
		require.NoError(t, err, "remove from %s", from)
		assert.Equal(t, StatusRemoved, next)
	}

	// removing twice is a no-op
	next, err := Remove(StatusRemoved, KindPost)
	require.NoError(t, err)
	assert.Equal(t, StatusRemoved, next)

	_, err = Remove(StatusApproved, KindComment)
	assert.ErrorIs(t, err, ErrNotRemovable)
}

func TestCanTransitionTable(t *testing.T) {
	cases := []struct {
		from, to Status
		kind     Kind
		ok       bool
	}{
		{StatusPending, StatusApproved, KindPost, true},
		{StatusPending, StatusRejected, KindPost, true},
		{StatusApproved, StatusPending, KindPost, true}, // author edit
		{StatusRejected, StatusPending, KindComment, true},
		{StatusApproved, StatusRejected, KindPost, true}, // moderator correction
		{StatusPending, StatusRemoved, KindPost, true},
		{StatusApproved, StatusRemoved, KindPost, true},
		{StatusApproved, StatusRemoved, KindComment, false}, // comments are never removed
		{StatusRemoved, StatusPending, KindPost, false},     // terminal
		{StatusRemoved, StatusApproved, KindPost, false},
		{Status("x"), StatusApproved, KindPost, false},
		{StatusPending, Status("x"), KindPost, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.ok, CanTransition(c.from, c.to, c.kind),
			"%s -> %s (%s)", c.from, c.to, c.kind)
	}
}
