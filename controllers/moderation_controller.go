package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/demaesdadas/aldeia/models"
	"github.com/demaesdadas/aldeia/moderation"
	"github.com/demaesdadas/aldeia/utils"
)

// ModerationController exposes the review queue and the decision endpoints,
// including the one-click links embedded in moderation emails.
type ModerationController struct {
	db *gorm.DB
}

// NewModerationController creates a new ModerationController instance.
func NewModerationController(db *gorm.DB) *ModerationController {
	return &ModerationController{db: db}
}

// pendingComment carries enough of the parent post for the reviewer to judge
// the comment in context.
type pendingComment struct {
	models.Comment
	PostPreview  string `json:"post_preview"`
	PostCategory string `json:"post_category"`
}

// ListPending returns everything awaiting review, oldest first.
func (m *ModerationController) ListPending(ctx *gin.Context) {
	var posts []models.Post
	if err := m.db.Where("status = ?", moderation.StatusPending).
		Order("created_at ASC").Find(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50080, "failed to list pending posts")
		return
	}

	var comments []models.Comment
	if err := m.db.Where("status = ?", moderation.StatusPending).
		Order("created_at ASC").Find(&comments).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50081, "failed to list pending comments")
		return
	}

	enriched := make([]pendingComment, 0, len(comments))
	if len(comments) > 0 {
		postIDs := make([]uint, 0, len(comments))
		for _, c := range comments {
			postIDs = append(postIDs, c.PostID)
		}
		var parents []models.Post
		if err := m.db.Find(&parents, postIDs).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50082, "failed to load parent posts")
			return
		}
		byID := make(map[uint]models.Post, len(parents))
		for _, p := range parents {
			byID[p.ID] = p
		}
		for _, c := range comments {
			pc := pendingComment{Comment: c}
			if parent, ok := byID[c.PostID]; ok {
				pc.PostPreview = previewText(parent.Body, 80)
				pc.PostCategory = parent.Category
			}
			enriched = append(enriched, pc)
		}
	}

	utils.Success(ctx, gin.H{
		"posts":    posts,
		"comments": enriched,
	})
}

// Decide applies a moderator verdict. Re-deciding an already decided item is
// allowed, so mistakes can be corrected.
func (m *ModerationController) Decide(ctx *gin.Context) {
	var req struct {
		ItemType string `json:"item_type" binding:"required"`
		ItemID   uint   `json:"item_id" binding:"required"`
		Decision string `json:"decision" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40080, "invalid request payload")
		return
	}

	kind, err := moderation.ParseKind(req.ItemType)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40081, "item_type must be post or comment")
		return
	}
	decision, err := moderation.ParseDecision(req.Decision)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40082, "decision must be approve or reject")
		return
	}

	status, err := m.applyDecision(kind, req.ItemID, decision)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		utils.Error(ctx, http.StatusNotFound, 40405, "item not found")
		return
	case errors.Is(err, moderation.ErrRemoved):
		utils.Error(ctx, http.StatusConflict, 40904, "a autora removeu este conteúdo")
		return
	case err != nil:
		utils.Error(ctx, http.StatusInternalServerError, 50083, "failed to apply decision")
		return
	}

	utils.Success(ctx, gin.H{
		"item_type": string(kind),
		"item_id":   req.ItemID,
		"status":    status,
	})
}

// DecideViaLink handles the approve/reject URLs sent by email. The token is
// signed, expiring and single-use; the response is a small HTML page because
// the click comes from a mail client, not the app.
func (m *ModerationController) DecideViaLink(ctx *gin.Context) {
	token := ctx.Query("token")
	if token == "" {
		m.linkPage(ctx, http.StatusBadRequest, utils.ModerationErrorPage("Link inválido."))
		return
	}

	claims, err := utils.VerifyModerationToken(token)
	switch {
	case errors.Is(err, utils.ErrModTokenExpired):
		m.linkPage(ctx, http.StatusGone, utils.ModerationErrorPage("Este link expirou. Peça um novo email de moderação."))
		return
	case err != nil:
		m.linkPage(ctx, http.StatusBadRequest, utils.ModerationErrorPage("Link inválido."))
		return
	}

	kind, err := moderation.ParseKind(claims.Kind)
	if err != nil {
		m.linkPage(ctx, http.StatusBadRequest, utils.ModerationErrorPage("Link inválido."))
		return
	}
	decision, err := moderation.ParseDecision(claims.Decision)
	if err != nil {
		m.linkPage(ctx, http.StatusBadRequest, utils.ModerationErrorPage("Link inválido."))
		return
	}

	if !utils.SpendModerationNonce(claims.Nonce, time.Until(claims.Expires)) {
		m.linkPage(ctx, http.StatusGone, utils.ModerationErrorPage("Este link já foi utilizado."))
		return
	}

	_, err = m.applyDecision(kind, claims.ItemID, decision)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		m.linkPage(ctx, http.StatusNotFound, utils.ModerationErrorPage("Conteúdo não encontrado."))
		return
	case errors.Is(err, moderation.ErrRemoved):
		m.linkPage(ctx, http.StatusConflict, utils.ModerationErrorPage("A autora removeu este conteúdo."))
		return
	case err != nil:
		m.linkPage(ctx, http.StatusInternalServerError, utils.ModerationErrorPage("Não foi possível aplicar a decisão."))
		return
	}

	m.linkPage(ctx, http.StatusOK, utils.ModerationDecisionPage(decision == moderation.DecisionApprove))
}

func (m *ModerationController) linkPage(ctx *gin.Context, status int, html string) {
	ctx.Data(status, "text/html; charset=utf-8", []byte(html))
}

// applyDecision loads the item, runs the state machine and persists the
// outcome together with the visibility counters.
func (m *ModerationController) applyDecision(kind moderation.Kind, itemID uint, decision moderation.Decision) (moderation.Status, error) {
	switch kind {
	case moderation.KindPost:
		return m.decidePost(itemID, decision)
	case moderation.KindComment:
		return m.decideComment(itemID, decision)
	default:
		return "", moderation.ErrInvalidKind
	}
}

func (m *ModerationController) decidePost(itemID uint, decision moderation.Decision) (moderation.Status, error) {
	var post models.Post
	if err := m.db.First(&post, itemID).Error; err != nil {
		return "", err
	}

	newStatus, err := moderation.Decide(post.Status, decision, moderation.KindPost)
	if err != nil {
		return post.Status, err
	}
	if newStatus == post.Status {
		return newStatus, nil
	}

	if err := m.db.Model(&post).Update("status", newStatus).Error; err != nil {
		return post.Status, err
	}

	utils.InvalidateByPrefix("cache:feed:")
	utils.InvalidateByPrefix("cache:post:detail:" + strconv.Itoa(int(post.ID)))
	utils.InvalidateByPrefix("cache:stats:")
	return newStatus, nil
}

func (m *ModerationController) decideComment(itemID uint, decision moderation.Decision) (moderation.Status, error) {
	var comment models.Comment
	if err := m.db.First(&comment, itemID).Error; err != nil {
		return "", err
	}

	newStatus, err := moderation.Decide(comment.Status, decision, moderation.KindComment)
	if err != nil {
		return comment.Status, err
	}
	if newStatus == comment.Status {
		return newStatus, nil
	}

	wasVisible := comment.Status.PubliclyVisible()
	nowVisible := newStatus.PubliclyVisible()

	err = m.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&comment).Update("status", newStatus).Error; err != nil {
			return err
		}
		switch {
		case nowVisible && !wasVisible:
			commentVisibilityDelta(tx, &comment, +1)
		case wasVisible && !nowVisible:
			commentVisibilityDelta(tx, &comment, -1)
		}
		return nil
	})
	if err != nil {
		return comment.Status, err
	}

	utils.InvalidateByPrefix("cache:feed:")
	utils.InvalidateByPrefix("cache:post:detail:" + strconv.Itoa(int(comment.PostID)))
	utils.InvalidateByPrefix("cache:stats:")
	return newStatus, nil
}
