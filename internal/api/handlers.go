package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"bersemuka.app/rewards/internal/common"
	"bersemuka.app/rewards/internal/features/badges"
	"bersemuka.app/rewards/internal/features/points"
	"bersemuka.app/rewards/internal/jobs"
)

type ExpiryRunner interface {
	RunNow(ctx context.Context) (*jobs.RunResult, error)
}

type BadgeService interface {
	ListBadges(ctx context.Context) ([]*badges.Badge, error)
	ListUserBadges(ctx context.Context, userID string) ([]*badges.UserBadge, error)
	CheckAndAwardBadges(ctx context.Context, userID string) ([]string, error)
	CheckSpecificBadge(ctx context.Context, userID string, badgeType badges.BadgeType) (bool, error)
}

type PointsService interface {
	GetSummary(ctx context.Context, userID string) (*points.Summary, error)
}

type UserDirectory interface {
	Exists(ctx context.Context, userID string) (bool, error)
}

// Handler обрабатывает HTTP-запросы сервиса наград.
type Handler struct {
	expiry ExpiryRunner
	badges BadgeService
	points PointsService
	users  UserDirectory

	// runCtx живёт, пока живёт сервис. Его отмена прерывает ручной запуск сгорания.
	runCtx context.Context
}

func NewHandler(expiry ExpiryRunner, badgeSvc BadgeService, pointsSvc PointsService, users UserDirectory) *Handler {
	return &Handler{expiry: expiry, badges: badgeSvc, points: pointsSvc, users: users, runCtx: context.Background()}
}

// WithRunContext привязывает ручные запуски к жизни сервиса: при остановке
// запуск обрывается на границе батча с truncated, как и запуск по cron.
func (h *Handler) WithRunContext(ctx context.Context) *Handler {
	h.runCtx = ctx
	return h
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RunPointsExpiry: ручной запуск сгорания. Отключение клиента запуск не прерывает,
// остановка сервиса прерывает.
func (h *Handler) RunPointsExpiry(c *gin.Context) {
	res, err := h.expiry.RunNow(h.runCtx)
	if err != nil {
		respondError(c, err)
		return
	}
	if res.Skipped {
		c.JSON(http.StatusConflict, gin.H{"data": res, "error": "points expiry is already running"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": res})
}

func (h *Handler) CheckBadges(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	awarded, err := h.badges.CheckAndAwardBadges(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"awarded": awarded}})
}

func (h *Handler) CheckBadge(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}
	badgeType := badges.BadgeType(strings.ToUpper(c.Param("type")))

	awarded, err := h.badges.CheckSpecificBadge(c.Request.Context(), userID, badgeType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"badge": badgeType, "awarded": awarded}})
}

func (h *Handler) UserBadges(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	list, err := h.badges.ListUserBadges(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

func (h *Handler) PointsSummary(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	summary, err := h.points.GetSummary(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": summary})
}

func (h *Handler) ListBadges(c *gin.Context) {
	list, err := h.badges.ListBadges(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

// requireUser проверяет, что пользователь из пути существует.
func (h *Handler) requireUser(c *gin.Context) (string, bool) {
	userID := strings.TrimSpace(c.Param("id"))
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user id is required"})
		return "", false
	}

	exists, err := h.users.Exists(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return "", false
	}
	if !exists {
		respondError(c, common.ErrUserNotFound)
		return "", false
	}
	return userID, true
}

// respondError переводит ошибки сервисов в HTTP-статус.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrUserNotFound), errors.Is(err, common.ErrBadgeNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, common.ErrUnknownBadgeType), errors.Is(err, common.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.WithError(err).WithField("path", c.FullPath()).Error("Ошибка обработки запроса")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
