package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ferrohaus/dwelling/backend/internal/models"
	"github.com/ferrohaus/dwelling/backend/internal/services"
)

// MessageHandler handles conversation and direct-message HTTP requests
type MessageHandler struct {
	service *services.MessageService
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(service *services.MessageService) *MessageHandler {
	return &MessageHandler{service: service}
}

// RegisterMessageRoutes registers conversation routes
func (h *MessageHandler) RegisterMessageRoutes(g *echo.Group) {
	g.GET("/conversations", h.GetConversations)
	g.GET("/conversations/unread-count", h.GetUnreadCount)
	g.GET("/conversations/:tenantID/:landlordID/messages", h.GetMessages)
	g.PUT("/conversations/:tenantID/:landlordID/read", h.MarkConversationRead)
	g.POST("/messages", h.SendMessage)
}

type sendMessageRequest struct {
	TenantID    string              `json:"tenant_id" validate:"required"`
	LandlordID  string              `json:"landlord_id" validate:"required"`
	Subject     string              `json:"subject"`
	Body        string              `json:"body"`
	Type        string              `json:"type" validate:"omitempty,oneof=payment maintenance lease system emergency announcement"`
	Attachments []models.Attachment `json:"attachments"`
}

// GetConversations returns the caller's conversation summaries,
// most recently active first
func (h *MessageHandler) GetConversations(c echo.Context) error {
	claims := claimsFromContext(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	conversations := h.service.ListConversations(c.Request().Context(), claims.Role, claims.UserID)
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"conversations": conversations},
	})
}

// GetUnreadCount returns the caller's total unread message count for
// badge display
func (h *MessageHandler) GetUnreadCount(c echo.Context) error {
	claims := claimsFromContext(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	count := h.service.UnreadCountForUser(c.Request().Context(), claims.Role, claims.UserID)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"count": count}})
}

// GetMessages returns one thread in chronological reading order
func (h *MessageHandler) GetMessages(c echo.Context) error {
	claims := claimsFromContext(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	key := models.ConversationKey{
		TenantID:   c.Param("tenantID"),
		LandlordID: c.Param("landlordID"),
	}
	messages := h.service.ListMessages(c.Request().Context(), key)
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"messages": messages},
	})
}

// MarkConversationRead marks every message the caller did not send in
// the thread as read
func (h *MessageHandler) MarkConversationRead(c echo.Context) error {
	claims := claimsFromContext(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	key := models.ConversationKey{
		TenantID:   c.Param("tenantID"),
		LandlordID: c.Param("landlordID"),
	}
	h.service.MarkConversationRead(c.Request().Context(), key, claims.Role)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"success": true}})
}

// SendMessage sends a message in the caller's role. An empty body is a
// validation error, not an absorbed failure.
func (h *MessageHandler) SendMessage(c echo.Context) error {
	claims := claimsFromContext(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	sent, err := h.service.Send(c.Request().Context(), models.Message{
		TenantID:    req.TenantID,
		LandlordID:  req.LandlordID,
		SenderRole:  claims.Role,
		Subject:     req.Subject,
		Body:        req.Body,
		Type:        req.Type,
		Attachments: req.Attachments,
	})
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": echo.Map{"message": sent}})
}
