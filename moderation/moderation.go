// Package moderation implements the content lifecycle shared by posts,
// comments and replies: submitted content is pending until a moderator
// approves or rejects it, an author edit re-submits it for review, and
// an author may withdraw a post entirely.
//
// The package is pure state logic; persistence and transport live in the
// callers.
package moderation

import (
	"errors"
	"fmt"
	"strings"
)

// Status is the moderation state of a content item.
type Status string

const (
	// StatusPending awaits a moderator decision and is hidden from the public feed.
	StatusPending Status = "pending"
	// StatusApproved is publicly visible.
	StatusApproved Status = "approved"
	// StatusRejected was declined by a moderator; visible only to its author.
	StatusRejected Status = "rejected"
	// StatusRemoved is a terminal, author-initiated withdrawal. Posts only.
	StatusRemoved Status = "removed"
)

// Kind distinguishes the two moderated tables. A reply is a comment with a parent.
type Kind string

const (
	KindPost    Kind = "post"
	KindComment Kind = "comment"
)

// Decision is a moderator verdict on a pending (or previously decided) item.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

var (
	ErrInvalidKind     = errors.New("moderation: invalid item kind")
	ErrInvalidDecision = errors.New("moderation: invalid decision")
	ErrInvalidStatus   = errors.New("moderation: invalid status")
	ErrRemoved         = errors.New("moderation: item was removed by its author")
	ErrNotRemovable    = errors.New("moderation: only posts can be removed")
)

// ParseKind normalizes a wire-level item type ("post", "comment", "reply").
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "post":
		return KindPost, nil
	case "comment", "reply":
		return KindComment, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
}

// ParseDecision normalizes a wire-level decision.
func ParseDecision(s string) (Decision, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "approve", "quick_approve":
		return DecisionApprove, nil
	case "reject", "quick_reject":
		return DecisionReject, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDecision, s)
	}
}

// Valid reports whether s is one of the four known states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusRemoved:
		return true
	}
	return false
}

// PubliclyVisible reports whether content in this state appears in the feed.
func (s Status) PubliclyVisible() bool {
	return s == StatusApproved
}

// Target returns the status a decision resolves to.
func (d Decision) Target() Status {
	if d == DecisionApprove {
		return StatusApproved
	}
	return StatusRejected
}

// CanTransition reports whether moving from one state to another is ever legal,
// regardless of actor. Re-deciding an already-decided item is legal so a
// moderator can correct a mistake; removed is terminal.
func CanTransition(from, to Status, kind Kind) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if from == StatusRemoved {
		return false
	}
	switch to {
	case StatusApproved, StatusRejected:
		// moderator decision, allowed from any live state
		return true
	case StatusPending:
		// author edit re-submits for review
		return true
	case StatusRemoved:
		// author withdrawal, posts only
		return kind == KindPost
	}
	return false
}

// Decide applies a moderator verdict to the current state. It is idempotent:
// deciding an already-decided item overwrites its status without error.
func Decide(current Status, d Decision, kind Kind) (Status, error) {
	if !current.Valid() {
		return current, fmt.Errorf("%w: %q", ErrInvalidStatus, current)
	}
	if d != DecisionApprove && d != DecisionReject {
		return current, fmt.Errorf("%w: %q", ErrInvalidDecision, d)
	}
	if current == StatusRemoved {
		return current, ErrRemoved
	}
	return d.Target(), nil
}

// EditReset returns the status an item takes after its author edits it.
// Any live item goes back to pending; removed content cannot be edited.
func EditReset(current Status) (Status, error) {
	if !current.Valid() {
		return current, fmt.Errorf("%w: %q", ErrInvalidStatus, current)
	}
	if current == StatusRemoved {
		return current, ErrRemoved
	}
	return StatusPending, nil
}

// Remove marks a post withdrawn by its author. Terminal and post-only;
// removing an already-removed post is a no-op.
func Remove(current Status, kind Kind) (Status, error) {
	if !current.Valid() {
		return current, fmt.Errorf("%w: %q", ErrInvalidStatus, current)
	}
	if kind != KindPost {
		return current, ErrNotRemovable
	}
	return StatusRemoved, nil
}
