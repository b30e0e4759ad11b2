package api_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/impostor/internal/api"
	"github.com/mcoot/impostor/internal/api/apierr"
	"github.com/mcoot/impostor/internal/api/response"
	"github.com/mcoot/impostor/internal/factory"
	"github.com/mcoot/impostor/internal/model"
	"github.com/mcoot/impostor/internal/testutil"
)

// testServer wraps the router around a test application
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T, opts ...factory.TestOption) *testServer {
	t.Helper()

	app := factory.NewTestApp(opts...)
	router := api.NewRouter(api.RouterConfig{
		Logger:     testutil.NopLogger(),
		Controller: app.Controller,
		Hub:        app.Hub,
	})

	return &testServer{handler: router, app: app}
}

func (ts *testServer) request(method, path string, body any) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	switch b := body.(type) {
	case nil:
		reqBody = bytes.NewBuffer(nil)
	case string:
		reqBody = bytes.NewBufferString(b)
	default:
		data, _ := json.Marshal(b)
		reqBody = bytes.NewBuffer(data)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) addPlayers(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		rr := ts.request(http.MethodPost, "/api/v1/session/players", map[string]string{"name": name})
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	}
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func assertError(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	assert.Equal(t, status, rr.Code, rr.Body.String())
	resp := decode[apierr.ErrorResponse](t, rr)
	assert.Equal(t, code, resp.Error.Code)
}

var giraffe = model.RoundData{Category: "Animals", SecretWord: "Giraffe", ImpostorHint: "Tall and spotted"}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	resp := decode[response.HealthResponse](t, rr)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, string(factory.TestSessionID), resp.SessionID)
	assert.Equal(t, "SETUP", resp.Phase)
}

func TestGetSessionInSetup(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/session", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))

	resp := decode[response.Session](t, rr)
	assert.Equal(t, "SETUP", resp.Phase)
	assert.Empty(t, resp.Players)
	assert.Equal(t, factory.TestCategories, resp.Categories.Selected)
	assert.Equal(t, 1, resp.ImpostorCount)
	assert.Nil(t, resp.Reveal)
	assert.Nil(t, resp.Round)
}

func TestAddAndRemovePlayers(t *testing.T) {
	ts := newTestServer(t)
	ts.addPlayers(t, "Ann", "Ben")

	rr := ts.request(http.MethodGet, "/api/v1/session", nil)
	resp := decode[response.Session](t, rr)
	require.Len(t, resp.Players, 2)
	assert.Equal(t, "Ann", resp.Players[0].Name)

	rr = ts.request(http.MethodDelete, "/api/v1/session/players/"+resp.Players[0].ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	resp = decode[response.Session](t, rr)
	require.Len(t, resp.Players, 1)
	assert.Equal(t, "Ben", resp.Players[0].Name)

	// Unknown IDs are ignored
	rr = ts.request(http.MethodDelete, "/api/v1/session/players/nobody", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAddPlayerValidation(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/session/players", map[string]string{"name": "   "})
	assertError(t, rr, http.StatusBadRequest, apierr.CodeValidationFailed)
	assert.Equal(t, "name", decode[apierr.ErrorResponse](t, rr).Error.Field)

	rr = ts.request(http.MethodPost, "/api/v1/session/players", "{not json")
	assertError(t, rr, http.StatusBadRequest, apierr.CodeInvalidRequest)
}

func TestCategorySelection(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/session/categories/Food/toggle", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"Animals", "Movies"}, decode[response.Session](t, rr).Categories.Selected)

	rr = ts.request(http.MethodDelete, "/api/v1/session/categories", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode[response.Session](t, rr).Categories.Selected)

	rr = ts.request(http.MethodPost, "/api/v1/session/categories/all", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, factory.TestCategories, decode[response.Session](t, rr).Categories.Selected)

	rr = ts.request(http.MethodPost, "/api/v1/session/categories/Weather/toggle", nil)
	assertError(t, rr, http.StatusBadRequest, apierr.CodeValidationFailed)
}

func TestUpdateSettings(t *testing.T) {
	ts := newTestServer(t)
	ts.addPlayers(t, "Ann", "Ben", "Cat", "Dan", "Eve")

	rr := ts.request(http.MethodPatch, "/api/v1/session/settings", map[string]any{
		"impostor_count": 2,
		"hide_hint":      true,
	})
	require.Equal(t, http.StatusOK, rr.Code)
	resp := decode[response.Session](t, rr)
	assert.Equal(t, 2, resp.ImpostorCount)
	assert.True(t, resp.Modifiers.HideHint)
	assert.False(t, resp.Modifiers.HideCategory)
	assert.Equal(t, []int{1, 2}, resp.ImpostorOptions)

	rr = ts.request(http.MethodPatch, "/api/v1/session/settings", map[string]any{})
	assertError(t, rr, http.StatusBadRequest, apierr.CodeInvalidRequest)

	rr = ts.request(http.MethodPatch, "/api/v1/session/settings", map[string]any{"impostor_count": 0})
	assertError(t, rr, http.StatusBadRequest, apierr.CodeValidationFailed)
}

func TestStartRoundRequiresThreePlayers(t *testing.T) {
	ts := newTestServer(t)
	ts.addPlayers(t, "Ann", "Ben")

	rr := ts.request(http.MethodPost, "/api/v1/session/round", nil)
	assertError(t, rr, http.StatusBadRequest, apierr.CodeValidationFailed)

	state, err := ts.app.Controller.State(t.Context())
	require.NoError(t, err)
	assert.Equal(t, model.PhaseSetup, state.Phase)
}

func TestStartRoundRequiresCategories(t *testing.T) {
	ts := newTestServer(t)
	ts.addPlayers(t, "Ann", "Ben", "Cat")
	ts.request(http.MethodDelete, "/api/v1/session/categories", nil)

	rr := ts.request(http.MethodPost, "/api/v1/session/round", nil)
	assertError(t, rr, http.StatusBadRequest, apierr.CodeValidationFailed)
	assert.Empty(t, ts.app.MockProvider.Requested)
}

func TestFullRoundHidesSecretsUntilResult(t *testing.T) {
	ts := newTestServer(t)
	ts.addPlayers(t, "Ann", "Ben", "Cat")
	ts.app.MockProvider.QueueData(giraffe)

	// Empty random queue: first player is the impostor, first category is picked
	rr := ts.request(http.MethodPost, "/api/v1/session/round", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	start := decode[response.StartRoundResponse](t, rr)
	assert.False(t, start.UsedFallback)
	assert.Equal(t, "REVEAL", start.Session.Phase)
	assert.NotContains(t, rr.Body.String(), "Giraffe")
	assert.NotContains(t, rr.Body.String(), "is_impostor")

	players := start.Session.Players
	require.Len(t, players, 3)

	for i, p := range players {
		rr = ts.request(http.MethodPost, "/api/v1/session/reveal/"+p.ID, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.NotContains(t, rr.Body.String(), "Giraffe")

		// Closed panel shows only whose turn it is
		rr = ts.request(http.MethodGet, "/api/v1/session/reveal", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		closed := decode[response.RevealResponse](t, rr)
		require.NotNil(t, closed.View)
		assert.Equal(t, p.Name, closed.View.PlayerName)
		assert.Empty(t, closed.View.SecretWord)
		assert.Empty(t, closed.View.Hint)

		rr = ts.request(http.MethodPost, "/api/v1/session/reveal/open", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		view := decode[response.RevealResponse](t, rr).View
		require.NotNil(t, view)
		if i == 0 {
			assert.True(t, view.IsImpostor)
			assert.Empty(t, view.SecretWord)
			assert.Equal(t, "Tall and spotted", view.Hint)
		} else {
			assert.False(t, view.IsImpostor)
			assert.Equal(t, "Giraffe", view.SecretWord)
			assert.Empty(t, view.Hint)
		}

		rr = ts.request(http.MethodPost, "/api/v1/session/reveal/ack", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		ack := decode[response.AcknowledgeResponse](t, rr)
		assert.Equal(t, i == len(players)-1, ack.Advanced)
	}

	rr = ts.request(http.MethodGet, "/api/v1/session", nil)
	assert.Equal(t, "PLAYING", decode[response.Session](t, rr).Phase)
	assert.NotContains(t, rr.Body.String(), "Giraffe")

	rr = ts.request(http.MethodGet, "/api/v1/session/result", nil)
	assertError(t, rr, http.StatusConflict, apierr.CodeInvalidPhase)

	rr = ts.request(http.MethodPost, "/api/v1/session/debate/end", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	final := decode[response.Session](t, rr)
	assert.Equal(t, "RESULT", final.Phase)
	require.NotNil(t, final.Round)
	assert.Equal(t, "Giraffe", final.Round.SecretWord)
	require.NotNil(t, final.Players[0].IsImpostor)
	assert.True(t, *final.Players[0].IsImpostor)

	rr = ts.request(http.MethodGet, "/api/v1/session/result", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	result := decode[response.Result](t, rr)
	assert.Equal(t, "Animals", result.Category)
	require.Len(t, result.Impostors, 1)
	assert.Equal(t, "Ann", result.Impostors[0].Name)

	rr = ts.request(http.MethodPost, "/api/v1/session/reset", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	reset := decode[response.Session](t, rr)
	assert.Equal(t, "SETUP", reset.Phase)
	assert.Empty(t, reset.Players)
	assert.Equal(t, 1, reset.ImpostorCount)
}

func TestHiddenCategoryModifier(t *testing.T) {
	ts := newTestServer(t)
	ts.addPlayers(t, "Ann", "Ben", "Cat")
	ts.request(http.MethodPatch, "/api/v1/session/settings", map[string]any{"hide_category": true})
	ts.app.MockProvider.QueueData(giraffe)

	rr := ts.request(http.MethodPost, "/api/v1/session/round", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	players := decode[response.StartRoundResponse](t, rr).Session.Players

	// First player is the impostor
	ts.request(http.MethodPost, "/api/v1/session/reveal/"+players[0].ID, nil)
	rr = ts.request(http.MethodPost, "/api/v1/session/reveal/open", nil)
	view := decode[response.RevealResponse](t, rr).View
	require.NotNil(t, view)
	assert.True(t, view.IsImpostor)
	assert.Empty(t, view.Category)
	assert.True(t, view.CategoryHidden)
	assert.Equal(t, "Tall and spotted", view.Hint)
}

func TestRevealErrors(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/session/reveal/open", nil)
	assertError(t, rr, http.StatusConflict, apierr.CodeInvalidPhase)

	rr = ts.request(http.MethodGet, "/api/v1/session/reveal", nil)
	assertError(t, rr, http.StatusConflict, apierr.CodeInvalidPhase)

	ts.addPlayers(t, "Ann", "Ben", "Cat")
	rr = ts.request(http.MethodPost, "/api/v1/session/round", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/session/reveal/open", nil)
	assertError(t, rr, http.StatusConflict, apierr.CodeNoPlayerSelected)

	rr = ts.request(http.MethodPost, "/api/v1/session/reveal/nobody", nil)
	assertError(t, rr, http.StatusNotFound, apierr.CodePlayerNotFound)

	rr = ts.request(http.MethodPost, "/api/v1/session/debate/end", nil)
	assertError(t, rr, http.StatusConflict, apierr.CodeInvalidPhase)

	rr = ts.request(http.MethodPost, "/api/v1/session/players", map[string]string{"name": "Dan"})
	assertError(t, rr, http.StatusConflict, apierr.CodeInvalidPhase)
}

func TestStartRoundFallbackContent(t *testing.T) {
	ts := newTestServer(t)
	ts.addPlayers(t, "Ann", "Ben", "Cat")
	ts.app.MockProvider.QueueError(errors.New("upstream unavailable"))

	rr := ts.request(http.MethodPost, "/api/v1/session/round", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	resp := decode[response.StartRoundResponse](t, rr)
	assert.True(t, resp.UsedFallback)
	assert.True(t, resp.Session.UsedFallback)
	assert.NotContains(t, rr.Body.String(), "Coffee Machine")
}

func TestStartRoundStrictContentFailure(t *testing.T) {
	ts := newTestServer(t, factory.WithStrictContent())
	ts.addPlayers(t, "Ann", "Ben", "Cat")
	ts.app.MockProvider.QueueError(errors.New("upstream unavailable"))

	rr := ts.request(http.MethodPost, "/api/v1/session/round", nil)
	assertError(t, rr, http.StatusBadGateway, apierr.CodeContentUnavailable)

	rr = ts.request(http.MethodGet, "/api/v1/session", nil)
	assert.Equal(t, "SETUP", decode[response.Session](t, rr).Phase)
}

func TestMetaEndpoints(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/meta/categories", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, factory.TestCategories, decode[response.CategoriesResponse](t, rr).Categories)

	rr = ts.request(http.MethodGet, "/api/v1/meta/impostor-options?players=7", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	opts := decode[response.ImpostorOptionsResponse](t, rr)
	assert.Equal(t, []int{1, 2, 3}, opts.Options)
	assert.Equal(t, 3, opts.MaxImpostors)

	ts.addPlayers(t, "Ann", "Ben", "Cat")
	rr = ts.request(http.MethodGet, "/api/v1/meta/impostor-options", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	opts = decode[response.ImpostorOptionsResponse](t, rr)
	assert.Equal(t, 3, opts.Players)
	assert.Equal(t, []int{1}, opts.Options)

	rr = ts.request(http.MethodGet, "/api/v1/meta/impostor-options?players=many", nil)
	assertError(t, rr, http.StatusBadRequest, apierr.CodeInvalidRequest)
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/session/round", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
