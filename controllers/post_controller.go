package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"github.com/demaesdadas/aldeia/config"
	"github.com/demaesdadas/aldeia/middleware"
	"github.com/demaesdadas/aldeia/models"
	"github.com/demaesdadas/aldeia/moderation"
	"github.com/demaesdadas/aldeia/utils"
)

const moderationAlertWindow = 10 * time.Minute

// PostController manages the feed: posts, comments, replies and likes.
type PostController struct {
	db *gorm.DB
}

// NewPostController creates a new PostController instance.
func NewPostController(db *gorm.DB) *PostController {
	return &PostController{db: db}
}

// commentNode is a comment plus its nested replies and the viewer's like flag.
type commentNode struct {
	models.Comment
	Liked   bool           `json:"liked"`
	Replies []*commentNode `json:"replies"`
}

// postView shadows the model's flat comment slice with the nested tree.
type postView struct {
	models.Post
	Liked    bool           `json:"liked"`
	Comments []*commentNode `json:"comments"`
}

// CreatePost accepts a new share. Logged-out visitors and members who check
// "anonymous" post as Anônima. Everything starts pending.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req struct {
		Title     string `json:"title"`
		Body      string `json:"body" binding:"required"`
		Category  string `json:"category"`
		Anonymous bool   `json:"anonymous"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	body := utils.Sanitize(strings.TrimSpace(req.Body))
	if body == "" {
		utils.Error(ctx, http.StatusBadRequest, 40021, "o texto não pode estar vazio")
		return
	}

	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = "Desabafo"
	}
	if !models.ValidCategory(category) {
		utils.Error(ctx, http.StatusBadRequest, 40022, "categoria inválida")
		return
	}

	post := models.Post{
		AuthorName: "Anônima",
		Title:      utils.Sanitize(strings.TrimSpace(req.Title)),
		Body:       body,
		Category:   category,
		Status:     moderation.StatusPending,
	}
	if userID, ok := getUserID(ctx); ok && !req.Anonymous {
		uid := userID
		post.UserID = &uid
		if name := ctx.GetString(middleware.ContextUsernameKey); name != "" {
			post.AuthorName = name
		}
	}

	if err := p.db.Create(&post).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to create post")
		return
	}

	p.alertModerators(moderation.KindPost, post.ID, "Nova partilha", post.AuthorName, post.Body)

	utils.Success(ctx, gin.H{"post": post})
}

// ListFeed returns the approved feed, newest first, with the viewer's like
// flags and each post's nested comment tree.
func (p *PostController) ListFeed(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	category := strings.TrimSpace(ctx.Query("category"))

	viewerID, hasViewer := getUserID(ctx)

	// The anonymous rendition carries no per-viewer flags, so it is safe to cache.
	cacheKey := fmt.Sprintf("cache:feed:cat=%s:page=%d:size=%d", category, page, pageSize)
	if !hasViewer {
		if b, ok := utils.CacheGetBytes(cacheKey); ok {
			ctx.Data(200, "application/json", b)
			return
		}
	}

	query := p.db.Model(&models.Post{}).Where("status = ?", moderation.StatusApproved)
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to count posts")
		return
	}

	var posts []models.Post
	offset := (page - 1) * pageSize
	if err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to list posts")
		return
	}

	views, err := p.assembleViews(posts, viewerID, hasViewer, false)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load comments")
		return
	}

	payload := gin.H{
		"items": views,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	}
	if !hasViewer {
		wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: payload}
		utils.CacheSetJSON(cacheKey, wrapper, 5*time.Minute)
	}
	utils.Success(ctx, payload)
}

// ListMyPosts returns the viewer's own posts in every status, so authors can
// follow their pending and rejected shares.
func (p *PostController) ListMyPosts(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	query := p.db.Model(&models.Post{}).Where("user_id = ?", userID)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to count posts")
		return
	}

	var posts []models.Post
	offset := (page - 1) * pageSize
	if err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to list posts")
		return
	}

	views, err := p.assembleViews(posts, userID, true, false)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load comments")
		return
	}

	utils.Success(ctx, gin.H{
		"items": views,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	})
}

// GetPost returns one post with its comment tree. Pending and rejected posts
// are served only to their author and to moderators.
func (p *PostController) GetPost(ctx *gin.Context) {
	postID := ctx.Param("id")

	viewerID, hasViewer := getUserID(ctx)
	if !hasViewer {
		if b, ok := utils.CacheGetBytes("cache:post:detail:" + postID); ok {
			ctx.Data(200, "application/json", b)
			return
		}
	}

	var post models.Post
	if err := p.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load post")
		return
	}

	if !post.Status.PubliclyVisible() && !p.canSeeHidden(ctx, post.UserID) {
		utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
		return
	}

	views, err := p.assembleViews([]models.Post{post}, viewerID, hasViewer, isModerator(ctx))
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load comments")
		return
	}

	payload := gin.H{"post": views[0]}
	if !hasViewer && post.Status.PubliclyVisible() {
		wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: payload}
		utils.CacheSetJSON("cache:post:detail:"+postID, wrapper, time.Hour)
	}
	utils.Success(ctx, payload)
}

// CreateComment adds a comment to a post, or a reply when parent_id is set.
// The parent must be a comment of the same post.
func (p *PostController) CreateComment(ctx *gin.Context) {
	var req struct {
		Body      string `json:"body" binding:"required"`
		ParentID  *uint  `json:"parent_id"`
		Anonymous bool   `json:"anonymous"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40023, "invalid request payload")
		return
	}

	body := utils.Sanitize(strings.TrimSpace(req.Body))
	if body == "" {
		utils.Error(ctx, http.StatusBadRequest, 40024, "o comentário não pode estar vazio")
		return
	}

	postID := ctx.Param("id")
	var post models.Post
	if err := p.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40402, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load post")
		return
	}
	if !post.Status.PubliclyVisible() && !p.canSeeHidden(ctx, post.UserID) {
		utils.Error(ctx, http.StatusNotFound, 40402, "post not found")
		return
	}

	typeLabel := "Novo comentário"
	if req.ParentID != nil {
		var parent models.Comment
		if err := p.db.First(&parent, *req.ParentID).Error; err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40025, "comentário pai não encontrado")
			return
		}
		if parent.PostID != post.ID {
			utils.Error(ctx, http.StatusBadRequest, 40026, "o comentário pai pertence a outra partilha")
			return
		}
		typeLabel = "Nova resposta"
	}

	comment := models.Comment{
		PostID:     post.ID,
		ParentID:   req.ParentID,
		AuthorName: "Anônima",
		Body:       body,
		Status:     moderation.StatusPending,
	}
	if userID, ok := getUserID(ctx); ok && !req.Anonymous {
		uid := userID
		comment.UserID = &uid
		if name := ctx.GetString(middleware.ContextUsernameKey); name != "" {
			comment.AuthorName = name
		}
	}

	if err := p.db.Create(&comment).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to create comment")
		return
	}

	p.alertModerators(moderation.KindComment, comment.ID, typeLabel, comment.AuthorName, comment.Body)
	p.notifyPostAuthor(post, comment)

	utils.Success(ctx, gin.H{"comment": comment})
}

// ToggleLike flips the viewer's like on a post or comment. The unique index
// on (user, item) keeps concurrent toggles from double-counting.
func (p *PostController) ToggleLike(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40111, "unauthorized")
		return
	}

	var req struct {
		ItemType string `json:"item_type" binding:"required"`
		ItemID   uint   `json:"item_id" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40027, "invalid request payload")
		return
	}

	kind, err := moderation.ParseKind(req.ItemType)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40028, "item_type must be post or comment")
		return
	}

	if !p.likeTargetVisible(kind, req.ItemID) {
		utils.Error(ctx, http.StatusNotFound, 40403, "item not found")
		return
	}

	liked := false
	var existing models.Like
	lookupErr := p.db.Where("user_id = ? AND item_type = ? AND item_id = ?",
		userID, string(kind), req.ItemID).First(&existing).Error
	switch {
	case lookupErr == nil:
		if err := p.db.Delete(&existing).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to remove like")
			return
		}
		p.adjustLikeCount(kind, req.ItemID, -1)
	case errors.Is(lookupErr, gorm.ErrRecordNotFound):
		like := models.Like{UserID: userID, ItemType: string(kind), ItemID: req.ItemID}
		if err := p.db.Create(&like).Error; err != nil {
			if !isDuplicateKey(err) {
				utils.Error(ctx, http.StatusInternalServerError, 50027, "failed to save like")
				return
			}
			// Lost the race against another toggle of the same user: the like
			// is already there, leave the counter alone.
		} else {
			p.adjustLikeCount(kind, req.ItemID, +1)
		}
		liked = true
	default:
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to check like")
		return
	}

	utils.InvalidateByPrefix("cache:feed:")
	if kind == moderation.KindPost {
		utils.InvalidateByPrefix("cache:post:detail:" + strconv.Itoa(int(req.ItemID)))
	}

	utils.Success(ctx, gin.H{
		"liked":      liked,
		"like_count": p.currentLikeCount(kind, req.ItemID),
	})
}

// UpdatePost lets the author rework a post. The pre-edit text is snapshotted
// and the post goes back to pending review.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40112, "unauthorized")
		return
	}

	var req struct {
		Title    string `json:"title"`
		Body     string `json:"body" binding:"required"`
		Category string `json:"category"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40029, "invalid request payload")
		return
	}

	body := utils.Sanitize(strings.TrimSpace(req.Body))
	if body == "" {
		utils.Error(ctx, http.StatusBadRequest, 40021, "o texto não pode estar vazio")
		return
	}

	postID := ctx.Param("id")
	var post models.Post
	if err := p.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load post")
		return
	}
	if post.UserID == nil || *post.UserID != userID {
		utils.Error(ctx, http.StatusForbidden, 40302, "só a autora pode editar a partilha")
		return
	}

	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = post.Category
	}
	if !models.ValidCategory(category) {
		utils.Error(ctx, http.StatusBadRequest, 40022, "categoria inválida")
		return
	}

	newStatus, err := moderation.EditReset(post.Status)
	if err != nil {
		utils.Error(ctx, http.StatusConflict, 40902, "partilhas removidas não podem ser editadas")
		return
	}

	snapshot := models.Revision{
		ItemType: string(moderation.KindPost),
		ItemID:   post.ID,
		Title:    post.Title,
		Body:     post.Body,
		Category: post.Category,
		EditedAt: time.Now(),
	}

	err = p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&snapshot).Error; err != nil {
			return err
		}
		post.Title = utils.Sanitize(strings.TrimSpace(req.Title))
		post.Body = body
		post.Category = category
		post.Status = newStatus
		return tx.Save(&post).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50028, "failed to update post")
		return
	}

	utils.InvalidateByPrefix("cache:feed:")
	utils.InvalidateByPrefix("cache:post:detail:" + postID)
	utils.InvalidateByPrefix("cache:stats:")

	p.alertModerators(moderation.KindPost, post.ID, "Partilha editada", post.AuthorName, post.Body)

	utils.Success(ctx, gin.H{"post": post})
}

// UpdateComment is the comment counterpart of UpdatePost.
func (p *PostController) UpdateComment(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40112, "unauthorized")
		return
	}

	var req struct {
		Body string `json:"body" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40029, "invalid request payload")
		return
	}

	body := utils.Sanitize(strings.TrimSpace(req.Body))
	if body == "" {
		utils.Error(ctx, http.StatusBadRequest, 40024, "o comentário não pode estar vazio")
		return
	}

	commentID := ctx.Param("id")
	var comment models.Comment
	if err := p.db.First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40404, "comment not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50029, "failed to load comment")
		return
	}
	if comment.UserID == nil || *comment.UserID != userID {
		utils.Error(ctx, http.StatusForbidden, 40303, "só a autora pode editar o comentário")
		return
	}

	newStatus, err := moderation.EditReset(comment.Status)
	if err != nil {
		utils.Error(ctx, http.StatusConflict, 40903, "comentários removidos não podem ser editados")
		return
	}
	wasVisible := comment.Status.PubliclyVisible()

	snapshot := models.Revision{
		ItemType: string(moderation.KindComment),
		ItemID:   comment.ID,
		Body:     comment.Body,
		EditedAt: time.Now(),
	}

	err = p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&snapshot).Error; err != nil {
			return err
		}
		comment.Body = body
		comment.Status = newStatus
		if err := tx.Save(&comment).Error; err != nil {
			return err
		}
		if wasVisible {
			// The comment left the public feed until re-approved.
			commentVisibilityDelta(tx, &comment, -1)
		}
		return nil
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to update comment")
		return
	}

	utils.InvalidateByPrefix("cache:feed:")
	utils.InvalidateByPrefix("cache:post:detail:" + strconv.Itoa(int(comment.PostID)))

	p.alertModerators(moderation.KindComment, comment.ID, "Comentário editado", comment.AuthorName, comment.Body)

	utils.Success(ctx, gin.H{"comment": comment})
}

// DeletePost marks a post removed. There is no hard delete; removed is final.
func (p *PostController) DeletePost(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40113, "unauthorized")
		return
	}

	postID := ctx.Param("id")
	var post models.Post
	if err := p.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load post")
		return
	}

	isAuthor := post.UserID != nil && *post.UserID == userID
	if !isAuthor && !isModerator(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40304, "só a autora pode remover a partilha")
		return
	}

	newStatus, err := moderation.Remove(post.Status, moderation.KindPost)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to remove post")
		return
	}
	if newStatus != post.Status {
		if err := p.db.Model(&post).Update("status", newStatus).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to remove post")
			return
		}
	}

	utils.InvalidateByPrefix("cache:feed:")
	utils.InvalidateByPrefix("cache:post:detail:" + postID)
	utils.InvalidateByPrefix("cache:stats:")

	utils.Success(ctx, gin.H{"message": "partilha removida"})
}

// assembleViews loads comments and like flags for a page of posts and builds
// the nested tree each post is rendered with.
func (p *PostController) assembleViews(posts []models.Post, viewerID uint, hasViewer, moderatorView bool) ([]postView, error) {
	views := make([]postView, 0, len(posts))
	if len(posts) == 0 {
		return views, nil
	}

	postIDs := make([]uint, 0, len(posts))
	for _, post := range posts {
		postIDs = append(postIDs, post.ID)
	}

	query := p.db.Where("post_id IN ?", postIDs)
	switch {
	case moderatorView:
		// moderators see everything
	case hasViewer:
		query = query.Where("status = ? OR user_id = ?", moderation.StatusApproved, viewerID)
	default:
		query = query.Where("status = ?", moderation.StatusApproved)
	}

	var comments []models.Comment
	if err := query.Order("created_at ASC").Find(&comments).Error; err != nil {
		return nil, err
	}

	likedPosts, likedComments := p.likedSets(viewerID, hasViewer, postIDs, comments)

	byPost := make(map[uint][]models.Comment, len(posts))
	for _, c := range comments {
		byPost[c.PostID] = append(byPost[c.PostID], c)
	}

	for _, post := range posts {
		views = append(views, postView{
			Post:     post,
			Liked:    likedPosts[post.ID],
			Comments: buildCommentTree(byPost[post.ID], likedComments),
		})
	}
	return views, nil
}

func (p *PostController) likedSets(viewerID uint, hasViewer bool, postIDs []uint, comments []models.Comment) (map[uint]bool, map[uint]bool) {
	likedPosts := map[uint]bool{}
	likedComments := map[uint]bool{}
	if !hasViewer {
		return likedPosts, likedComments
	}

	commentIDs := make([]uint, 0, len(comments))
	for _, c := range comments {
		commentIDs = append(commentIDs, c.ID)
	}

	var likes []models.Like
	q := p.db.Where("user_id = ?", viewerID)
	if len(commentIDs) > 0 {
		q = q.Where("(item_type = ? AND item_id IN ?) OR (item_type = ? AND item_id IN ?)",
			string(moderation.KindPost), postIDs, string(moderation.KindComment), commentIDs)
	} else {
		q = q.Where("item_type = ? AND item_id IN ?", string(moderation.KindPost), postIDs)
	}
	if err := q.Find(&likes).Error; err != nil {
		utils.Sugar.Errorw("load like flags", "viewer", viewerID, "err", err)
		return likedPosts, likedComments
	}

	for _, l := range likes {
		switch l.ItemType {
		case string(moderation.KindPost):
			likedPosts[l.ItemID] = true
		case string(moderation.KindComment):
			likedComments[l.ItemID] = true
		}
	}
	return likedPosts, likedComments
}

// buildCommentTree nests replies under their parents. Top-level comments are
// ordered by engagement (likes plus replies), replies stay chronological.
func buildCommentTree(comments []models.Comment, liked map[uint]bool) []*commentNode {
	nodes := make(map[uint]*commentNode, len(comments))
	for _, c := range comments {
		nodes[c.ID] = &commentNode{Comment: c, Liked: liked[c.ID], Replies: []*commentNode{}}
	}

	roots := make([]*commentNode, 0, len(comments))
	for _, c := range comments {
		node := nodes[c.ID]
		if c.ParentID != nil {
			if parent, ok := nodes[*c.ParentID]; ok {
				parent.Replies = append(parent.Replies, node)
				continue
			}
			// parent hidden from this viewer: surface the reply at top level
		}
		roots = append(roots, node)
	}

	sort.SliceStable(roots, func(i, j int) bool {
		return roots[i].LikeCount+roots[i].ReplyCount > roots[j].LikeCount+roots[j].ReplyCount
	})
	return roots
}

func (p *PostController) likeTargetVisible(kind moderation.Kind, itemID uint) bool {
	switch kind {
	case moderation.KindPost:
		var post models.Post
		if err := p.db.First(&post, itemID).Error; err != nil {
			return false
		}
		return post.Status.PubliclyVisible()
	case moderation.KindComment:
		var comment models.Comment
		if err := p.db.First(&comment, itemID).Error; err != nil {
			return false
		}
		return comment.Status.PubliclyVisible()
	}
	return false
}

// adjustLikeCount moves the denormalized counter. The decrement is guarded so
// the count can never go below zero even if state drifted.
func (p *PostController) adjustLikeCount(kind moderation.Kind, itemID uint, delta int) {
	var model interface{}
	switch kind {
	case moderation.KindPost:
		model = &models.Post{}
	case moderation.KindComment:
		model = &models.Comment{}
	default:
		return
	}

	q := p.db.Model(model).Where("id = ?", itemID)
	if delta < 0 {
		q = q.Where("like_count > 0")
	}
	if err := q.UpdateColumn("like_count", gorm.Expr("like_count + ?", delta)).Error; err != nil {
		utils.Sugar.Errorw("adjust like count", "kind", kind, "item", itemID, "delta", delta, "err", err)
	}
}

func (p *PostController) currentLikeCount(kind moderation.Kind, itemID uint) int {
	var count int
	var err error
	switch kind {
	case moderation.KindPost:
		err = p.db.Model(&models.Post{}).Where("id = ?", itemID).Select("like_count").Scan(&count).Error
	case moderation.KindComment:
		err = p.db.Model(&models.Comment{}).Where("id = ?", itemID).Select("like_count").Scan(&count).Error
	}
	if err != nil {
		utils.Sugar.Errorw("read like count", "kind", kind, "item", itemID, "err", err)
	}
	return count
}

// commentVisibilityDelta keeps the post's comment counter and the parent's
// reply counter in line with how many comments are actually approved.
func commentVisibilityDelta(tx *gorm.DB, c *models.Comment, delta int) {
	q := tx.Model(&models.Post{}).Where("id = ?", c.PostID)
	if delta < 0 {
		q = q.Where("comment_count > 0")
	}
	if err := q.UpdateColumn("comment_count", gorm.Expr("comment_count + ?", delta)).Error; err != nil {
		utils.Sugar.Errorw("adjust comment count", "post", c.PostID, "delta", delta, "err", err)
	}

	if c.ParentID != nil {
		pq := tx.Model(&models.Comment{}).Where("id = ?", *c.ParentID)
		if delta < 0 {
			pq = pq.Where("reply_count > 0")
		}
		if err := pq.UpdateColumn("reply_count", gorm.Expr("reply_count + ?", delta)).Error; err != nil {
			utils.Sugar.Errorw("adjust reply count", "comment", *c.ParentID, "delta", delta, "err", err)
		}
	}
}

// alertModerators emails the review links for a fresh or edited item. The
// debounce keeps rapid re-edits from flooding the moderator inbox; delivery
// is fire-and-forget and never fails the mutation.
func (p *PostController) alertModerators(kind moderation.Kind, itemID uint, typeLabel, author, body string) {
	moderators := config.Get().ModeratorEmails
	if len(moderators) == 0 {
		return
	}
	if !utils.ModerationAlertDebounce(string(kind), itemID, moderationAlertWindow) {
		return
	}

	approveURL, rejectURL := utils.ModerationLinkPair(string(kind), itemID)
	subject, html := utils.ModerationAlertEmail(typeLabel, author, body, approveURL, rejectURL)

	go func() {
		for _, to := range moderators {
			if err := utils.SendMail(to, subject, html); err != nil {
				utils.Sugar.Errorw("moderation alert", "to", to, "kind", kind, "item", itemID, "err", err)
			}
		}
	}()
}

// notifyPostAuthor records an in-app notification and emails the post author
// about a new comment. Anonymous posts have nobody to notify.
func (p *PostController) notifyPostAuthor(post models.Post, comment models.Comment) {
	if post.UserID == nil {
		return
	}
	if comment.UserID != nil && *comment.UserID == *post.UserID {
		return
	}

	commentID := comment.ID
	postID := post.ID
	notification := models.Notification{
		UserID:    *post.UserID,
		Kind:      models.NotificationKindReply,
		ActorName: comment.AuthorName,
		Preview:   previewText(comment.Body, 120),
		PostID:    &postID,
		CommentID: &commentID,
	}
	if err := p.db.Create(&notification).Error; err != nil {
		utils.Sugar.Errorw("create notification", "user", *post.UserID, "err", err)
	}

	var author models.User
	if err := p.db.First(&author, *post.UserID).Error; err != nil || author.Email == "" {
		return
	}

	subject, html := utils.ReplyNotificationEmail(author.Username, comment.AuthorName, comment.Body, post.Body)
	go func() {
		if err := utils.SendMail(author.Email, subject, html); err != nil {
			utils.Sugar.Errorw("reply notification email", "to", author.Email, "err", err)
		}
	}()
}

func (p *PostController) canSeeHidden(ctx *gin.Context, authorID *uint) bool {
	if isModerator(ctx) {
		return true
	}
	if authorID == nil {
		return false
	}
	userID, ok := getUserID(ctx)
	return ok && userID == *authorID
}

func previewText(s string, n int) string {
	rs := []rune(strings.TrimSpace(s))
	if len(rs) <= n {
		return string(rs)
	}
	return string(rs[:n]) + "…"
}

func isDuplicateKey(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func parsePagination(pageStr, sizeStr string) (int, int) {
	page := 1
	pageSize := 10
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 && s <= 100 {
		pageSize = s
	}
	return page, pageSize
}

func getUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		return uint(v), true
	case int64:
		return uint(v), true
	case float64:
		return uint(v), true
	default:
		return 0, false
	}
}

func isModerator(ctx *gin.Context) bool {
	return ctx.GetBool(middleware.ContextIsModeratorKey)
}
