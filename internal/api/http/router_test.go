package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/email-approval/internal/api/http/dto"
	"github.com/spec-kit/email-approval/internal/api/http/handlers"
	"github.com/spec-kit/email-approval/internal/auth"
	"github.com/spec-kit/email-approval/internal/engine"
	"github.com/spec-kit/email-approval/internal/observability"
	apperrors "github.com/spec-kit/email-approval/pkg/util/errorutil"
)

type stubInterceptor struct {
	events []engine.AccountEvent
	err    error
}

func (s *stubInterceptor) Handle(ctx context.Context, event engine.AccountEvent) error {
	s.events = append(s.events, event)
	return s.err
}

type stubResolver struct {
	events []engine.TicketEvent
	err    error
}

func (s *stubResolver) Handle(ctx context.Context, event engine.TicketEvent) error {
	s.events = append(s.events, event)
	return s.err
}

func newTestApp(interceptor *stubInterceptor, resolver *stubResolver) (*fiber.App, string) {
	logger := zap.NewNop()
	app := fiber.New()
	RegisterMiddlewares(app, logger, observability.NewMetrics(), 0)

	tokens := auth.NewTokenManager("test-secret", 30)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("email-approval", "test", nil, nil),
		Events:         handlers.NewEventsHandler(interceptor, resolver, logger),
		AuthMiddleware: auth.NewHostAuthMiddleware(tokens),
	})

	token, _, _ := tokens.GenerateToken("test-host")
	return app, token
}

func postJSON(t *testing.T, app *fiber.App, path, token string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestAccountEventDispatchedToInterceptor(t *testing.T) {
	interceptor := &stubInterceptor{}
	app, token := newTestApp(interceptor, &stubResolver{})

	email := "old@x.com"
	newEmail := "new@x.com"
	resp := postJSON(t, app, "/events/account", token, dto.AccountEventRequest{
		Kind:   "update",
		Depth:  1,
		Fields: []string{"email"},
		Before: &dto.AccountImageDTO{ID: "a1", Email: &email},
		After:  &dto.AccountImageDTO{ID: "a1", Email: &newEmail},
	})
	require.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	require.Len(t, interceptor.events, 1)
	event := interceptor.events[0]
	require.Equal(t, engine.KindUpdate, event.Kind)
	require.Equal(t, 1, event.Depth)
	require.True(t, event.HasField(engine.FieldEmail))
	require.Equal(t, "old@x.com", *event.Before.Email)
	require.Equal(t, "new@x.com", *event.After.Email)
}

func TestTicketEventDispatchedToResolver(t *testing.T) {
	resolver := &stubResolver{}
	app, token := newTestApp(&stubInterceptor{}, resolver)

	status := "CONFIRMED"
	resp := postJSON(t, app, "/events/ticket", token, dto.TicketEventRequest{
		Kind:   "update",
		Depth:  1,
		Fields: []string{"change_status"},
		After: &dto.TicketImageDTO{
			ID:           "t1",
			CustomerID:   "a1",
			Category:     "email_change_request",
			ChangeStatus: &status,
		},
	})
	require.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	require.Len(t, resolver.events, 1)
	require.Equal(t, "t1", resolver.events[0].After.ID)
	require.NotNil(t, resolver.events[0].After.ChangeStatus)
}

func TestEngineErrorMapsToRollbackStatus(t *testing.T) {
	interceptor := &stubInterceptor{err: apperrors.NewMissingData("account before-image is missing the email field", nil)}
	app, token := newTestApp(interceptor, &stubResolver{})

	resp := postJSON(t, app, "/events/account", token, dto.AccountEventRequest{Kind: "update"})
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "MISSING_DATA", errObj["code"])
}

func TestEventsRequireHostToken(t *testing.T) {
	app, _ := newTestApp(&stubInterceptor{}, &stubResolver{})

	resp := postJSON(t, app, "/events/account", "", dto.AccountEventRequest{Kind: "update"})
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
