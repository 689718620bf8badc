package http

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexHorzhij/spravzhnya-tg-orders/internal/common/middleware"
	"github.com/AlexHorzhij/spravzhnya-tg-orders/internal/features/host"
	hostmodels "github.com/AlexHorzhij/spravzhnya-tg-orders/internal/features/host/models"
	ordermodels "github.com/AlexHorzhij/spravzhnya-tg-orders/internal/features/order/models"
	orderservice "github.com/AlexHorzhij/spravzhnya-tg-orders/internal/features/order/service"
	profileservice "github.com/AlexHorzhij/spravzhnya-tg-orders/internal/features/profile/service"
	"github.com/AlexHorzhij/spravzhnya-tg-orders/internal/features/session/models"
	"github.com/AlexHorzhij/spravzhnya-tg-orders/internal/features/session/repository/memory"
	"github.com/AlexHorzhij/spravzhnya-tg-orders/internal/features/session/service"
	"github.com/AlexHorzhij/spravzhnya-tg-orders/internal/testutil"
)

const botToken = "123456:TEST-TOKEN"

type testAPI struct {
	router *gin.Engine
	svc    service.SessionService
}

func newTestAPI(t *testing.T, profileBody string, orderStatus int) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	profile := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(profileBody))
	}))
	t.Cleanup(profile.Close)
	intake := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(orderStatus)
	}))
	t.Cleanup(intake.Close)

	svc := service.NewSessionService(
		host.NewDetector(botToken, time.Hour, false),
		profileservice.NewHydrator(profileservice.NewFetcher(profile.URL, profile.Client())),
		orderservice.NewSubmitter(orderservice.NewSender(intake.URL, intake.Client()), orderservice.Clock{Locale: "uk-UA"}),
		memory.NewStore[*service.Session](time.Hour),
		memory.NewLocker(),
		service.Config{SubmitLockTTL: time.Minute},
	)

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Recovery(), middleware.ErrorHandler())
	NewSessionHandler(svc).RegisterRoutes(r.Group("/api/v1"))
	return &testAPI{router: r, svc: svc}
}

func (a *testAPI) do(t *testing.T, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testAPI) open(t *testing.T, initData string) models.OpenResponse {
	t.Helper()
	headers := map[string]string{}
	if initData != "" {
		headers[middleware.InitDataHeader] = initData
	}
	w := a.do(t, http.MethodPost, "/api/v1/sessions", "", headers)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var res models.OpenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	a.svc.Wait()
	return res
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body middleware.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	return string(body.Error.Code)
}

func TestOpenAndHydrateInTelegram(t *testing.T) {
	api := newTestAPI(t, `[{"company":"Cafe A,Cafe B","order":"2x coffee","comment":"no sugar"}]`, http.StatusOK)

	res := api.open(t, testutil.UserInitData(botToken, 42, "Olena"))
	assert.True(t, res.Session.HostPresent)
	assert.Equal(t, []hostmodels.Command{
		{Type: hostmodels.CommandExpand},
		{Type: hostmodels.CommandHideMainButton},
	}, res.Commands)

	w := api.do(t, http.MethodGet, "/api/v1/sessions/"+res.Session.ID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got models.SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, []string{"Cafe A", "Cafe B"}, got.Session.State.Establishments)
	assert.Equal(t, "2x coffee", got.Session.State.Order)
	assert.True(t, got.Session.State.IsExistingOrderToday)
	assert.False(t, got.Session.State.IsLoading)
}

func TestEditAndSubmitInBrowser(t *testing.T) {
	api := newTestAPI(t, `[]`, http.StatusOK)
	id := api.open(t, "").Session.ID

	w := api.do(t, http.MethodPut, "/api/v1/sessions/"+id+"/establishment", `{"value":"Cafe A"}`, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(t, http.MethodPatch, "/api/v1/sessions/"+id+"/fields", `{"name":"order","value":"2x coffee"}`, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var st models.StateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, "2x coffee", st.State.Order)
	assert.Equal(t, "Cafe A", st.State.Establishment())

	w = api.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/submit", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var out models.SubmitResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, ordermodels.OutcomeSubmitted, out.Outcome)
	assert.Equal(t, []hostmodels.Command{{Type: hostmodels.CommandDialog, Message: orderservice.MsgSubmitted}}, out.Commands)
	assert.Empty(t, out.State.Order)
}

func TestSubmitFailureAnswersOK(t *testing.T) {
	api := newTestAPI(t, `[]`, http.StatusInternalServerError)
	id := api.open(t, "").Session.ID
	api.do(t, http.MethodPatch, "/api/v1/sessions/"+id+"/fields", `{"name":"order","value":"tea"}`, nil)

	w := api.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/submit", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var out models.SubmitResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, ordermodels.OutcomeFailed, out.Outcome)
	assert.Equal(t, "tea", out.State.Order)
}

func TestHandlerErrors(t *testing.T) {
	api := newTestAPI(t, `[]`, http.StatusOK)
	id := api.open(t, "").Session.ID

	w := api.do(t, http.MethodGet, "/api/v1/sessions/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "SESSION_NOT_FOUND", errorCode(t, w))

	w = api.do(t, http.MethodPatch, "/api/v1/sessions/"+id+"/fields", `{"name":"price","value":"1"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "UNKNOWN_FIELD", errorCode(t, w))

	w = api.do(t, http.MethodPatch, "/api/v1/sessions/"+id+"/fields", `{"value":"1"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "BAD_REQUEST", errorCode(t, w))

	w = api.do(t, http.MethodPut, "/api/v1/sessions/"+id+"/establishment", `not json`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEventsStreamsSnapshots(t *testing.T) {
	api := newTestAPI(t, `[]`, http.StatusOK)
	id := api.open(t, "").Session.ID

	srv := httptest.NewServer(api.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/sessions/"+id+"/events", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	reader := bufio.NewReader(resp.Body)
	readState := func() models.StateResponse {
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if data, ok := strings.CutPrefix(strings.TrimSpace(line), "data:"); ok {
				var st models.StateResponse
				require.NoError(t, json.Unmarshal([]byte(data), &st.State))
				return st
			}
		}
	}

	first := readState()
	assert.False(t, first.State.IsLoading)

	_, err = api.svc.UpdateField(context.Background(), id, "order", "borscht")
	require.NoError(t, err)
	assert.Equal(t, "borscht", readState().State.Order)
}
