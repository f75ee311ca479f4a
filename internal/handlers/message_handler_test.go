package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ferrohaus/dwelling/backend/internal/models"
	"github.com/ferrohaus/dwelling/backend/internal/realtime"
	"github.com/ferrohaus/dwelling/backend/internal/repositories"
	"github.com/ferrohaus/dwelling/backend/internal/services"
	"github.com/ferrohaus/dwelling/backend/validators"
)

// newMessageTestEnv wires a handler onto fallback-only services, the same
// shape the app runs in when neither durable store is provisioned.
func newMessageTestEnv() (*echo.Echo, *MessageHandler, *services.MessageService) {
	e := echo.New()
	e.Validator = validators.NewValidator()

	notifier := services.NewNotificationService(
		nil,
		repositories.NewMemoryNotificationRepository(),
		realtime.NewHub(zerolog.Nop()),
		nil,
		zerolog.Nop(),
	)
	svc := services.NewMessageService(nil, repositories.NewMemoryMessageRepository(), notifier, zerolog.Nop())
	return e, NewMessageHandler(svc), svc
}

func postJSON(e *echo.Echo, target, body string, claims *models.JwtCustomClaims) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if claims != nil {
		c.Set("user", claims)
	}
	return c, rec
}

func TestSendMessage_Unauthenticated(t *testing.T) {
	e, h, _ := newMessageTestEnv()
	c, _ := postJSON(e, "/api/v1/messages", `{"tenant_id":"t1","landlord_id":"l1","body":"hi"}`, nil)

	err := h.SendMessage(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestSendMessage_EmptyBodyRejected(t *testing.T) {
	e, h, svc := newMessageTestEnv()
	claims := &models.JwtCustomClaims{UserID: "t1", Role: models.RoleTenant}
	c, _ := postJSON(e, "/api/v1/messages", `{"tenant_id":"t1","landlord_id":"l1","body":""}`, claims)

	err := h.SendMessage(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty body, got %v", err)
	}

	list := svc.ListMessages(c.Request().Context(), models.ConversationKey{TenantID: "t1", LandlordID: "l1"})
	if len(list) != 0 {
		t.Errorf("rejected send appeared in the thread")
	}
}

func TestSendMessage_Success(t *testing.T) {
	e, h, _ := newMessageTestEnv()
	claims := &models.JwtCustomClaims{UserID: "t1", Role: models.RoleTenant}
	c, rec := postJSON(e, "/api/v1/messages", `{"tenant_id":"t1","landlord_id":"l1","subject":"Repairs","body":"Sink is leaking"}`, claims)

	if err := h.SendMessage(c); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Message models.Message `json:"message"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.Data.Message.ID == "" {
		t.Errorf("expected a persisted message in the envelope, got %+v", resp)
	}
	if resp.Data.Message.SenderRole != models.RoleTenant {
		t.Errorf("sender role should come from the caller's claims, got %q", resp.Data.Message.SenderRole)
	}
}

func TestGetConversations(t *testing.T) {
	e, h, svc := newMessageTestEnv()

	if _, err := svc.Send(httptest.NewRequest(http.MethodGet, "/", nil).Context(), models.Message{
		TenantID: "t1", LandlordID: "l1", SenderRole: models.RoleTenant, Body: "hello",
	}); err != nil {
		t.Fatalf("seed send: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user", &models.JwtCustomClaims{UserID: "l1", Role: models.RoleLandlord})

	if err := h.GetConversations(c); err != nil {
		t.Fatalf("GetConversations: %v", err)
	}

	var resp struct {
		Data struct {
			Conversations []models.Conversation `json:"conversations"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Data.Conversations) != 1 || resp.Data.Conversations[0].UnreadCount != 1 {
		t.Errorf("expected one conversation with one unread, got %+v", resp.Data.Conversations)
	}
}

func TestMarkConversationRead(t *testing.T) {
	e, h, svc := newMessageTestEnv()
	ctx := httptest.NewRequest(http.MethodGet, "/", nil).Context()

	if _, err := svc.Send(ctx, models.Message{TenantID: "t1", LandlordID: "l1", SenderRole: models.RoleTenant, Body: "hello"}); err != nil {
		t.Fatalf("seed send: %v", err)
	}

	req := httptest.NewRequest(http.MethodPut, "/api/v1/conversations/t1/l1/read", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("tenantID", "landlordID")
	c.SetParamValues("t1", "l1")
	c.Set("user", &models.JwtCustomClaims{UserID: "l1", Role: models.RoleLandlord})

	if err := h.MarkConversationRead(c); err != nil {
		t.Fatalf("MarkConversationRead: %v", err)
	}
	if got := svc.UnreadCountForUser(ctx, models.RoleLandlord, "l1"); got != 0 {
		t.Errorf("unread after read = %d, want 0", got)
	}
}
