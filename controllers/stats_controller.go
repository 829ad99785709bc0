package controllers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/demaesdadas/aldeia/models"
	"github.com/demaesdadas/aldeia/moderation"
	"github.com/demaesdadas/aldeia/utils"
)

// StatsController serves the public community counters shown on the landing page.
type StatsController struct {
	db *gorm.DB
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{db: db}
}

// GetStats returns aggregate community statistics.
func (s *StatsController) GetStats(ctx *gin.Context) {
	const cacheKey = "cache:stats:community"
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(200, "application/json", b)
		return
	}

	var memberCount int64
	var postCount int64
	var commentCount int64

	// Each counter falls back to 0 instead of failing the whole endpoint.
	if err := s.db.Model(&models.User{}).Count(&memberCount).Error; err != nil {
		memberCount = 0
	}
	if err := s.db.Model(&models.Post{}).
		Where("status = ?", moderation.StatusApproved).Count(&postCount).Error; err != nil {
		postCount = 0
	}
	if err := s.db.Model(&models.Comment{}).
		Where("status = ?", moderation.StatusApproved).Count(&commentCount).Error; err != nil {
		commentCount = 0
	}

	payload := gin.H{
		"member_count":  memberCount,
		"post_count":    postCount,
		"comment_count": commentCount,
	}
	wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: payload}
	utils.CacheSetJSON(cacheKey, wrapper, 5*time.Minute)
	utils.Success(ctx, payload)
}
