package controllers

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/demaesdadas/aldeia/models"
)

func mkComment(id uint, parentID *uint, likes, replies int) models.Comment {
	return models.Comment{ID: id, PostID: 1, ParentID: parentID, LikeCount: likes, ReplyCount: replies}
}

func uintPtr(v uint) *uint { return &v }

func TestBuildCommentTreeNestsReplies(t *testing.T) {
	comments := []models.Comment{
		mkComment(1, nil, 0, 2),
		mkComment(2, uintPtr(1), 0, 0),
		mkComment(3, uintPtr(1), 0, 0),
		mkComment(4, nil, 0, 0),
	}

	roots := buildCommentTree(comments, nil)
	require.Len(t, roots, 2)

	var parent *commentNode
	for _, r := range roots {
		if r.ID == 1 {
			parent = r
		}
	}
	require.NotNil(t, parent)
	require.Len(t, parent.Replies, 2)
	assert.Equal(t, uint(2), parent.Replies[0].ID)
	assert.Equal(t, uint(3), parent.Replies[1].ID)
}

func TestBuildCommentTreeOrdersByEngagement(t *testing.T) {
	comments := []models.Comment{
		mkComment(1, nil, 1, 0),
		mkComment(2, nil, 3, 2),
		mkComment(3, nil, 2, 0),
	}

	roots := buildCommentTree(comments, nil)
	require.Len(t, roots, 3)
	assert.Equal(t, uint(2), roots[0].ID)
	assert.Equal(t, uint(3), roots[1].ID)
	assert.Equal(t, uint(1), roots[2].ID)
}

func TestBuildCommentTreeOrphanReplySurfaces(t *testing.T) {
	// the parent is hidden from this viewer, the reply must not vanish
	comments := []models.Comment{
		mkComment(5, uintPtr(99), 0, 0),
	}

	roots := buildCommentTree(comments, nil)
	require.Len(t, roots, 1)
	assert.Equal(t, uint(5), roots[0].ID)
}

func TestBuildCommentTreeLikedFlags(t *testing.T) {
	comments := []models.Comment{mkComment(1, nil, 0, 0), mkComment(2, nil, 0, 0)}

	roots := buildCommentTree(comments, map[uint]bool{2: true})
	byID := map[uint]*commentNode{}
	for _, r := range roots {
		byID[r.ID] = r
	}
	assert.False(t, byID[1].Liked)
	assert.True(t, byID[2].Liked)
}

func TestPreviewText(t *testing.T) {
	assert.Equal(t, "curto", previewText("curto", 80))
	assert.Equal(t, "aparado", previewText("  aparado  ", 80))

	long := previewText("coração coração coração", 10)
	assert.Equal(t, "coração co…", long)
}

func TestParsePagination(t *testing.T) {
	cases := []struct {
		page, size         string
		wantPage, wantSize int
	}{
		{"", "", 1, 10},
		{"3", "25", 3, 25},
		{"0", "0", 1, 10},
		{"-1", "500", 1, 10},
		{"abc", "xyz", 1, 10},
	}
	for _, tc := range cases {
		page, size := parsePagination(tc.page, tc.size)
		assert.Equal(t, tc.wantPage, page, "page from %q", tc.page)
		assert.Equal(t, tc.wantSize, size, "size from %q", tc.size)
	}
}

func TestIsDuplicateKey(t *testing.T) {
	assert.True(t, isDuplicateKey(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}))
	assert.True(t, isDuplicateKey(fmt.Errorf("insert: %w", &mysql.MySQLError{Number: 1062})))
	assert.False(t, isDuplicateKey(&mysql.MySQLError{Number: 1054}))
	assert.False(t, isDuplicateKey(errors.New("connection refused")))
	assert.False(t, isDuplicateKey(nil))
}

func TestSanitizeUsername(t *testing.T) {
	assert.Equal(t, "maria_silva", sanitizeUsername("Maria Silva"))
	assert.Equal(t, "joana", sanitizeUsername("  joana  "))
	assert.Equal(t, "ana_123", sanitizeUsername("ana-123"))
	assert.Equal(t, "", sanitizeUsername("!!!"))
}

func TestFallback(t *testing.T) {
	assert.Equal(t, "a", fallback("a", "b"))
	assert.Equal(t, "b", fallback("", "b"))
	assert.Equal(t, "b", fallback("   ", "b"))
	assert.Equal(t, "", fallback("", ""))
}
