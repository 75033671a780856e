package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"kidsgpt-be/internal/dto"
	"kidsgpt-be/internal/pkg/logger"
	"kidsgpt-be/internal/pkg/serverutils"
	"kidsgpt-be/internal/repository/memory"
	"kidsgpt-be/internal/service"
	"kidsgpt-be/pkg/chat/completion"
	"kidsgpt-be/pkg/chat/projection"
	"kidsgpt-be/pkg/chat/session"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "controller-secret"

type cannedCompleter struct{ score int }

func (cannedCompleter) Reply(context.Context, completion.Request) completion.Result {
	return completion.Result{Text: "Volcanoes are mountains that can erupt."}
}

func (c cannedCompleter) Score(context.Context, string, string, string) (int, error) {
	return c.score, nil
}

type testApp struct {
	app      *fiber.App
	families service.IFamilyService
	parentId uuid.UUID
	childId  uuid.UUID
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	factory := memory.NewRepositoryFactory(memory.MustNewStore())
	families := service.NewFamilyService(factory, "server-key")
	conversations := service.NewConversationService(factory)
	log := logger.NewNopLogger()

	sessions := service.NewChatSessionService(memory.NewSessionRepository(time.Hour, time.Hour, 4), families, func() *session.Manager {
		return session.NewManager(conversations, cannedCompleter{score: 40}, session.WithKeyResolver(families))
	}, log)

	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware(log))
	api := app.Group("/api")
	NewProfileController(families, secret).RegisterRoutes(api)
	NewChatController(sessions, nil, nil, secret).RegisterRoutes(api)
	NewParentController(families, projection.NewProjector(conversations), secret).RegisterRoutes(api)
	NewNavigationController(families, secret).RegisterRoutes(api)

	ta := &testApp{app: app, families: families, parentId: uuid.New(), childId: uuid.New()}
	ctx := context.Background()
	_, err := families.Register(ctx, ta.parentId, "mum@example.com", &dto.RegisterProfileRequest{Role: "parent", FullName: "Mum"})
	require.NoError(t, err)
	fam, err := families.GetFamily(ctx, ta.parentId)
	require.NoError(t, err)
	age := 9
	_, err = families.Register(ctx, ta.childId, "", &dto.RegisterProfileRequest{Role: "child", FullName: "Sam", FamilyCode: fam.FamilyCode, Age: &age})
	require.NoError(t, err)
	return ta
}

func token(t *testing.T, userId uuid.UUID) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userId.String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

type call struct {
	method  string
	path    string
	user    uuid.UUID
	body    interface{}
	headers map[string]string
}

func (ta *testApp) do(t *testing.T, c call) (int, serverutils.BaseResponse[json.RawMessage]) {
	t.Helper()
	var body io.Reader
	if c.body != nil {
		raw, err := json.Marshal(c.body)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(c.method, c.path, body)
	req.Header.Set("Content-Type", "application/json")
	if c.user != uuid.Nil {
		req.Header.Set("Authorization", "Bearer "+token(t, c.user))
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	res, err := ta.app.Test(req, -1)
	require.NoError(t, err)

	var out serverutils.BaseResponse[json.RawMessage]
	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return res.StatusCode, out
}

func decodeData[T any](t *testing.T, res serverutils.BaseResponse[json.RawMessage]) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(res.Data, &v))
	return v
}

func TestChatController_ConversationFlow(t *testing.T) {
	ta := newTestApp(t)
	tab := map[string]string{HeaderTabID: "tab-1"}

	status, res := ta.do(t, call{method: http.MethodGet, path: "/api/chat/v1/session", user: ta.childId, headers: tab})
	require.Equal(t, http.StatusOK, status)
	state := decodeData[dto.SessionStateResponse](t, res)
	assert.Equal(t, string(session.StateReady), state.State)
	assert.Empty(t, state.Conversations)

	status, res = ta.do(t, call{method: http.MethodPost, path: "/api/chat/v1/conversations", user: ta.childId, headers: tab, body: dto.CreateConversationRequest{}})
	require.Equal(t, http.StatusCreated, status)
	conv := decodeData[dto.ConversationResponse](t, res)
	assert.Equal(t, "New Chat", conv.Title)

	status, res = ta.do(t, call{
		method: http.MethodPost, path: "/api/chat/v1/conversations/" + conv.Id.String() + "/messages",
		user: ta.childId, headers: tab, body: dto.SendMessageRequest{Content: "What is a volcano?"},
	})
	require.Equal(t, http.StatusOK, status)
	sent := decodeData[dto.SendMessageResponse](t, res)
	assert.Equal(t, "What is a volcano?", sent.UserMessage.Content)
	require.NotNil(t, sent.Reply)
	assert.Equal(t, "Volcanoes are mountains that can erupt.", sent.Reply.Content)
	require.NotNil(t, sent.Reply.HomeworkMisuseScore)
	assert.Equal(t, 40, *sent.Reply.HomeworkMisuseScore)
	assert.False(t, sent.Discarded)

	status, res = ta.do(t, call{method: http.MethodGet, path: "/api/chat/v1/session", user: ta.childId, headers: tab})
	require.Equal(t, http.StatusOK, status)
	state = decodeData[dto.SessionStateResponse](t, res)
	require.Len(t, state.Conversations, 1)
	assert.Equal(t, "What is a volcano?", state.Conversations[0].Title)
	assert.Len(t, state.Conversations[0].Messages, 2)
	require.NotNil(t, state.CurrentConversationId)
	assert.Equal(t, conv.Id, *state.CurrentConversationId)

	// The other tab has its own session loaded from the store.
	status, res = ta.do(t, call{method: http.MethodGet, path: "/api/chat/v1/session", user: ta.childId, headers: map[string]string{HeaderTabID: "tab-2"}})
	require.Equal(t, http.StatusOK, status)
	other := decodeData[dto.SessionStateResponse](t, res)
	require.Len(t, other.Conversations, 1)
	assert.Nil(t, other.CurrentConversationId)

	status, _ = ta.do(t, call{method: http.MethodDelete, path: "/api/chat/v1/session", user: ta.childId, headers: tab})
	assert.Equal(t, http.StatusOK, status)
}

func TestChatController_Errors(t *testing.T) {
	ta := newTestApp(t)
	unknown := uuid.New()

	tests := []struct {
		name   string
		call   call
		status int
	}{
		{"missing token", call{method: http.MethodGet, path: "/api/chat/v1/session"}, http.StatusUnauthorized},
		{"unregistered user", call{method: http.MethodGet, path: "/api/chat/v1/session", user: uuid.New()}, http.StatusNotFound},
		{"unknown conversation", call{method: http.MethodPost, path: "/api/chat/v1/conversations/" + unknown.String() + "/messages", user: ta.childId, body: dto.SendMessageRequest{Content: "hi"}}, http.StatusNotFound},
		{"bad id", call{method: http.MethodDelete, path: "/api/chat/v1/conversations/nope", user: ta.childId}, http.StatusBadRequest},
		{"empty message", call{method: http.MethodPost, path: "/api/chat/v1/conversations/" + unknown.String() + "/messages", user: ta.childId, body: dto.SendMessageRequest{}}, http.StatusBadRequest},
		{"unknown folder", call{method: http.MethodPut, path: "/api/chat/v1/folders/" + unknown.String(), user: ta.childId, body: dto.FolderRequest{Name: "School"}}, http.StatusNotFound},
		{"bad conversation type", call{method: http.MethodPost, path: "/api/chat/v1/conversations", user: ta.childId, body: dto.CreateConversationRequest{Type: "diary"}}, http.StatusBadRequest},
		{"tab id with path characters", call{method: http.MethodGet, path: "/api/chat/v1/session", user: ta.childId, headers: map[string]string{HeaderTabID: "../tab"}}, http.StatusBadRequest},
		{"oversized tab id", call{method: http.MethodGet, path: "/api/chat/v1/session", user: ta.childId, headers: map[string]string{HeaderTabID: strings.Repeat("t", 65)}}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, res := ta.do(t, tt.call)
			assert.Equal(t, tt.status, status)
			assert.False(t, res.Success)
		})
	}
}

func TestParentController_Overview(t *testing.T) {
	ta := newTestApp(t)

	// A child's conversation shows up in the parent view.
	status, _ := ta.do(t, call{method: http.MethodPost, path: "/api/chat/v1/conversations", user: ta.childId, body: dto.CreateConversationRequest{}})
	require.Equal(t, http.StatusCreated, status)

	status, _ = ta.do(t, call{method: http.MethodGet, path: "/api/parents/v1/overview", user: ta.childId})
	assert.Equal(t, http.StatusForbidden, status)

	status, res := ta.do(t, call{method: http.MethodGet, path: "/api/parents/v1/overview", user: ta.parentId})
	require.Equal(t, http.StatusOK, status)
	view := decodeData[dto.ParentOverviewResponse](t, res)
	require.Len(t, view.Children, 1)
	assert.Equal(t, ta.childId, view.Children[0].Profile.Id)
	assert.Equal(t, 1, view.Children[0].ConversationCount)
	require.Len(t, view.Conversations, 1)
	assert.Equal(t, "Sam", view.Conversations[0].ChildName)

	status, _ = ta.do(t, call{method: http.MethodPut, path: "/api/profile/v1/pin", user: ta.parentId, body: dto.ParentPinRequest{Pin: "2468"}})
	require.Equal(t, http.StatusOK, status)

	status, _ = ta.do(t, call{method: http.MethodGet, path: "/api/parents/v1/overview", user: ta.parentId})
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = ta.do(t, call{method: http.MethodGet, path: "/api/parents/v1/overview", user: ta.parentId, headers: map[string]string{HeaderParentPin: "1111"}})
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = ta.do(t, call{method: http.MethodGet, path: "/api/parents/v1/overview", user: ta.parentId, headers: map[string]string{HeaderParentPin: "2468"}})
	assert.Equal(t, http.StatusOK, status)
}

func TestParentController_MutationsAreReadOnly(t *testing.T) {
	ta := newTestApp(t)

	status, res := ta.do(t, call{method: http.MethodPost, path: "/api/chat/v1/conversations", user: ta.childId, body: dto.CreateConversationRequest{}})
	require.Equal(t, http.StatusCreated, status)
	conv := decodeData[dto.ConversationResponse](t, res)

	tests := []struct {
		name string
		call call
	}{
		{"delete child conversation", call{method: http.MethodDelete, path: "/api/parents/v1/conversations/" + conv.Id.String()}},
		{"move child conversation", call{method: http.MethodPut, path: "/api/parents/v1/conversations/" + conv.Id.String() + "/move", body: dto.MoveConversationRequest{}}},
		{"create conversation", call{method: http.MethodPost, path: "/api/parents/v1/conversations", body: dto.CreateConversationRequest{}}},
		{"create folder", call{method: http.MethodPost, path: "/api/parents/v1/folders", body: dto.FolderRequest{Name: "Science"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.call.user = ta.parentId
			status, res := ta.do(t, tt.call)
			require.Equal(t, http.StatusOK, status)
			assert.True(t, res.Success)
			assert.Equal(t, msgNoChange, res.Message)
			assert.Empty(t, res.Data)
		})
	}

	// children cannot reach the parent routes at all
	status, _ = ta.do(t, call{method: http.MethodDelete, path: "/api/parents/v1/conversations/" + conv.Id.String(), user: ta.childId})
	assert.Equal(t, http.StatusForbidden, status)

	status, res = ta.do(t, call{method: http.MethodGet, path: "/api/parents/v1/overview", user: ta.parentId})
	require.Equal(t, http.StatusOK, status)
	view := decodeData[dto.ParentOverviewResponse](t, res)
	require.Len(t, view.Conversations, 1)
	assert.Equal(t, conv.Id, view.Conversations[0].Conversation.Id)
	assert.Equal(t, 1, view.Children[0].ConversationCount)
}

func TestProfileController_ChildAgeChangeReachesSession(t *testing.T) {
	ta := newTestApp(t)

	status, _ := ta.do(t, call{method: http.MethodPut, path: "/api/profile/v1/children/" + ta.childId.String() + "/age", user: ta.childId, body: dto.UpdateChildAgeRequest{Age: 12}})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = ta.do(t, call{method: http.MethodPut, path: "/api/profile/v1/children/" + ta.childId.String() + "/age", user: ta.parentId, body: dto.UpdateChildAgeRequest{Age: 12}})
	require.Equal(t, http.StatusOK, status)

	status, res := ta.do(t, call{method: http.MethodGet, path: "/api/profile/v1/me", user: ta.childId})
	require.Equal(t, http.StatusOK, status)
	me := decodeData[dto.ProfileResponse](t, res)
	require.NotNil(t, me.Age)
	assert.Equal(t, 12, *me.Age)

	status, res = ta.do(t, call{method: http.MethodGet, path: "/api/family/v1", user: ta.parentId})
	require.Equal(t, http.StatusOK, status)
	fam := decodeData[dto.FamilyResponse](t, res)
	assert.Len(t, fam.Members, 2)
	assert.False(t, fam.HasAPIKey)
}

func TestNavigationController_Resolve(t *testing.T) {
	ta := newTestApp(t)

	tests := []struct {
		name     string
		user     uuid.UUID
		path     string
		allowed  bool
		redirect string
	}{
		{"anonymous chat", uuid.Nil, "/chat", false, "/auth"},
		{"anonymous auth", uuid.Nil, "/auth", true, ""},
		{"child root", ta.childId, "/", false, "/chat"},
		{"child parents", ta.childId, "/parents", false, "/chat"},
		{"parent root", ta.parentId, "/", false, "/parents"},
		{"parent dashboard", ta.parentId, "/parents", true, ""},
		{"unknown", ta.childId, "/nowhere", false, "/404"},
		{"unregistered", uuid.New(), "/chat", false, "/auth"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, res := ta.do(t, call{method: http.MethodGet, path: "/api/navigation/v1/resolve?path=" + tt.path, user: tt.user})
			require.Equal(t, http.StatusOK, status)
			d := decodeData[dto.ResolveRouteResponse](t, res)
			assert.Equal(t, tt.allowed, d.Allowed)
			assert.Equal(t, tt.redirect, d.Redirect)
		})
	}
}
