package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/demaesdadas/aldeia/models"
	"github.com/demaesdadas/aldeia/utils"
)

// NotificationController serves the in-app notification bell.
type NotificationController struct {
	db *gorm.DB
}

// NewNotificationController creates a new NotificationController instance.
func NewNotificationController(db *gorm.DB) *NotificationController {
	return &NotificationController{db: db}
}

// List returns the viewer's notifications, newest first.
func (n *NotificationController) List(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40114, "unauthorized")
		return
	}

	limit := 20
	if l, err := strconv.Atoi(ctx.Query("limit")); err == nil && l > 0 && l <= 100 {
		limit = l
	}

	var notifications []models.Notification
	if err := n.db.Where("user_id = ?", userID).
		Order("created_at DESC").Limit(limit).Find(&notifications).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50090, "failed to list notifications")
		return
	}

	utils.Success(ctx, gin.H{"items": notifications})
}

// UnreadCount returns how many notifications the viewer has not read yet.
func (n *NotificationController) UnreadCount(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40114, "unauthorized")
		return
	}

	var count int64
	if err := n.db.Model(&models.Notification{}).
		Where("user_id = ? AND `read` = ?", userID, false).Count(&count).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50091, "failed to count notifications")
		return
	}

	utils.Success(ctx, gin.H{"unread": count})
}

// MarkRead marks one notification read. Only the owner can touch it.
func (n *NotificationController) MarkRead(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40114, "unauthorized")
		return
	}

	var notification models.Notification
	if err := n.db.First(&notification, ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40406, "notification not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50092, "failed to load notification")
		return
	}
	if notification.UserID != userID {
		utils.Error(ctx, http.StatusForbidden, 40305, "not your notification")
		return
	}

	if err := n.db.Model(&notification).Update("read", true).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50093, "failed to update notification")
		return
	}
	utils.Success(ctx, gin.H{"message": "marked read"})
}

// MarkAllRead clears the viewer's unread badge in one shot.
func (n *NotificationController) MarkAllRead(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40114, "unauthorized")
		return
	}

	if err := n.db.Model(&models.Notification{}).
		Where("user_id = ? AND `read` = ?", userID, false).
		Update("read", true).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50094, "failed to update notifications")
		return
	}
	utils.Success(ctx, gin.H{"message": "all read"})
}
