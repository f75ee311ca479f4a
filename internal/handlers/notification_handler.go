package handlers

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ferrohaus/dwelling/backend/internal/models"
	"github.com/ferrohaus/dwelling/backend/internal/realtime"
	"github.com/ferrohaus/dwelling/backend/internal/services"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	service  *services.NotificationService
	hub      *realtime.Hub
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(service *services.NotificationService, hub *realtime.Hub, log zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		hub:     hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin policy is enforced by the CORS middleware.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.PUT("/notifications/:id/read", h.MarkAsRead)
	g.PUT("/notifications/read-all", h.MarkAllAsRead)
	g.POST("/notifications", h.CreateNotification)
	g.POST("/notifications/broadcast", h.SendBroadcastNotification)
	g.GET("/notifications/stream", h.StreamNotifications)
}

type createNotificationRequest struct {
	UserID   string `json:"user_id" validate:"required"`
	Title    string `json:"title" validate:"required"`
	Message  string `json:"message" validate:"required"`
	Type     string `json:"type" validate:"omitempty,oneof=payment maintenance lease system emergency announcement"`
	Priority string `json:"priority" validate:"omitempty,oneof=info success warning error"`
}

type broadcastNotificationRequest struct {
	Title    string `json:"title" validate:"required"`
	Message  string `json:"message" validate:"required"`
	Type     string `json:"type" validate:"omitempty,oneof=payment maintenance lease system emergency announcement"`
	Priority string `json:"priority" validate:"omitempty,oneof=info success warning error"`
}

// GetNotifications returns the caller's paginated feed
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	claims := claimsFromContext(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}

	notifications := h.service.List(c.Request().Context(), claims.UserID)
	total := len(notifications)
	totalPages := int(math.Ceil(float64(total) / float64(limit)))

	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"notifications": notifications[start:end],
		},
		"meta": echo.Map{
			"currentPage":     page,
			"totalPages":      totalPages,
			"totalItems":      total,
			"itemsPerPage":    limit,
			"hasNextPage":     page < totalPages,
			"hasPreviousPage": page > 1,
		},
	})
}

// GetUnreadCount returns the unread notification count
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	claims := claimsFromContext(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	count := h.service.UnreadCount(c.Request().Context(), claims.UserID)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"count": count}})
}

// MarkAsRead marks a notification as read
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	claims := claimsFromContext(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	h.service.MarkRead(c.Request().Context(), c.Param("id"))
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"success": true}})
}

// MarkAllAsRead marks the caller's whole feed as read
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	claims := claimsFromContext(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	h.service.MarkAllRead(c.Request().Context(), claims.UserID)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"success": true}})
}

// CreateNotification creates a notification for a specific user
func (h *NotificationHandler) CreateNotification(c echo.Context) error {
	claims := claimsFromContext(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req createNotificationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	created := h.service.Create(c.Request().Context(), models.Notification{
		UserID:   req.UserID,
		Title:    req.Title,
		Message:  req.Message,
		Type:     req.Type,
		Priority: req.Priority,
	})
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": echo.Map{"notification": created}})
}

// SendBroadcastNotification creates a notification visible to every user.
// Admin only.
func (h *NotificationHandler) SendBroadcastNotification(c echo.Context) error {
	claims := claimsFromContext(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	if claims.Role != models.RoleAdmin {
		return echo.NewHTTPError(http.StatusForbidden, "Broadcasts require the admin role")
	}

	var req broadcastNotificationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	created := h.service.Broadcast(c.Request().Context(), req.Title, req.Message, req.Type, req.Priority)
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": echo.Map{"notification": created}})
}

// StreamNotifications upgrades to a websocket and streams the caller's
// notifications as they are created. No backfill: the client lists the
// feed after connecting to catch anything created while disconnected.
func (h *NotificationHandler) StreamNotifications(c echo.Context) error {
	claims := claimsFromContext(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Websocket upgrade failed")
	}

	client := realtime.NewClient(h.hub, conn, claims.UserID, h.log)
	client.Run()
	return nil
}
