package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"stylefit/models"
	"stylefit/pipeline"
	"stylefit/services"
	"stylefit/utils"
)

var testSecret = []byte("router-secret")

type stubGateway struct{ result services.PaymentResult }

func (g stubGateway) RequestPay(context.Context, services.PaymentRequest) (services.PaymentResult, error) {
	return g.result, nil
}

type harness struct {
	router http.Handler
	hub    *services.RealtimeHub
}

func newHarness(t *testing.T, gw services.PaymentGateway, opts ...func(*Deps)) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Session{}, &models.PremiumOrder{}))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	hub := services.NewRealtimeHub(nil)
	svc := services.NewSessionService(services.SessionServiceConfig{
		Store:    services.NewSessionStore(db),
		Events:   hub,
		Pipeline: pipeline.Config{Interval: 5 * time.Millisecond, Settle: time.Millisecond},
		Payments: gw,
	})
	t.Cleanup(func() { _ = svc.Shutdown(context.Background()) })

	deps := Deps{Sessions: svc, Hub: hub, Secret: testSecret, TokenTTL: time.Hour}
	for _, opt := range opts {
		opt(&deps)
	}
	return &harness{router: SetupRouter(deps), hub: hub}
}

func (h *harness) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func (h *harness) uploadPhoto(t *testing.T, id, token, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	return h.uploadPhotoBytes(t, id, token, contentType, []byte{0x89, 'P', 'N', 'G'})
}

func (h *harness) uploadPhotoBytes(t *testing.T, id, token, contentType string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="photo"; filename="me.png"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, _ = part.Write(data)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPut, "/sessions/"+id+"/photo", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (h *harness) createSession(t *testing.T) (string, string) {
	t.Helper()
	w := h.do(t, http.MethodPost, "/sessions", "", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	session := body["session"].(map[string]any)
	return session["id"].(string), body["token"].(string)
}

// walkToResults drives a fresh session through the whole wizard.
func (h *harness) walkToResults(t *testing.T) (string, string) {
	t.Helper()
	id, token := h.createSession(t)
	require.Equal(t, http.StatusOK, h.uploadPhoto(t, id, token, "image/png").Code)
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, "/sessions/"+id+"/advance", token, nil).Code)

	w := h.do(t, http.MethodPost, "/sessions/"+id+"/analyze", token, map[string]any{"height": 175, "weight": "70", "style": "business"})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	require.Eventually(t, func() bool {
		return h.do(t, http.MethodGet, "/sessions/"+id+"/results", token, nil).Code == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)
	return id, token
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t, nil)
	assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/healthz", "", nil).Code)

	h.do(t, http.MethodGet, "/healthz", "", nil)
	w := h.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `http_requests_total{method="GET",path="/healthz",status="200"}`)
}

func TestWizardFlow(t *testing.T) {
	h := newHarness(t, nil)
	id, token := h.createSession(t)

	w := h.do(t, http.MethodPost, "/sessions/"+id+"/advance", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["advanced"])

	w = h.uploadPhoto(t, id, token, "application/pdf")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "photo", decode(t, w)["field"])

	require.Equal(t, http.StatusOK, h.uploadPhoto(t, id, token, "image/png").Code)
	w = h.do(t, http.MethodPost, "/sessions/"+id+"/advance", token, nil)
	assert.Equal(t, true, decode(t, w)["advanced"])

	w = h.do(t, http.MethodPost, "/sessions/"+id+"/analyze", token, map[string]any{"height": "50", "weight": "70"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, "height", body["field"])
	assert.Equal(t, "please enter a valid height (100~250cm)", body["error"])

	w = h.do(t, http.MethodGet, "/sessions/"+id+"/results", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = h.do(t, http.MethodPost, "/sessions/"+id+"/back", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decode(t, w)["view"].(map[string]any)
	assert.Equal(t, "step1", view["active_panel"])
}

func TestResultsReportAndRestart(t *testing.T) {
	h := newHarness(t, nil)
	id, token := h.walkToResults(t)

	w := h.do(t, http.MethodGet, "/sessions/"+id+"/results", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["recommendations"], 5)

	w = h.do(t, http.MethodGet, "/sessions/"+id+"/report", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "attachment; filename=style-recommendation.txt", w.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain"))
	assert.Contains(t, w.Body.String(), "- Style preference: business\n")

	w = h.do(t, http.MethodPost, "/sessions/"+id+"/report/email", token, map[string]string{"to": "kim@example.com"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = h.do(t, http.MethodPost, "/sessions/"+id+"/restart", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	session := decode(t, w)["session"].(map[string]any)
	assert.EqualValues(t, 1, session["current_step"])

	w = h.do(t, http.MethodPost, "/sessions/"+id+"/restart", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAuthRequired(t *testing.T) {
	h := newHarness(t, nil)
	id, _ := h.createSession(t)

	assert.Equal(t, http.StatusUnauthorized, h.do(t, http.MethodGet, "/sessions/"+id, "", nil).Code)

	_, otherToken := h.createSession(t)
	assert.Equal(t, http.StatusForbidden, h.do(t, http.MethodGet, "/sessions/"+id, otherToken, nil).Code)

	ghost, err := utils.GenerateSessionToken(testSecret, "ghost", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodGet, "/sessions/ghost", ghost, nil).Code)
}

func TestPremiumDeclineAndSkip(t *testing.T) {
	h := newHarness(t, stubGateway{result: services.PaymentResult{ErrorMsg: "insufficient funds"}})
	id, token := h.walkToResults(t)

	w := h.do(t, http.MethodPost, "/sessions/"+id+"/premium/skip", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = h.do(t, http.MethodPost, "/sessions/"+id+"/premium/checkout", token, nil)
	require.Equal(t, http.StatusPaymentRequired, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["skip_offered"])
	assert.Equal(t, "payment failed: insufficient funds", body["error"])

	w = h.do(t, http.MethodPost, "/sessions/"+id+"/premium/skip", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, true, body["unlocked"])
	assert.Contains(t, body["content"], "Premium unlocked")
}

func TestPremiumUnavailableWithoutGateway(t *testing.T) {
	h := newHarness(t, nil)
	id, token := h.walkToResults(t)
	w := h.do(t, http.MethodPost, "/sessions/"+id+"/premium/checkout", token, map[string]string{"name": "Kim"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestEventsWebsocket(t *testing.T) {
	h := newHarness(t, nil)
	srv := httptest.NewServer(h.router)
	defer srv.Close()

	id, token := h.createSession(t)
	require.Equal(t, http.StatusOK, h.uploadPhoto(t, id, token, "image/png").Code)
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, "/sessions/"+id+"/advance", token, nil).Code)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/sessions/" + id + "/events?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var hello map[string]any
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, "hello", hello["kind"])
	require.Eventually(t, func() bool { return h.hub.Subscribers(id) == 1 }, time.Second, 5*time.Millisecond)

	w := h.do(t, http.MethodPost, "/sessions/"+id+"/analyze", token, map[string]any{"height": 180, "weight": 95})
	require.Equal(t, http.StatusAccepted, w.Code)

	var kinds []string
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var ev map[string]any
		require.NoError(t, conn.ReadJSON(&ev))
		kinds = append(kinds, ev["kind"].(string))
		if ev["kind"] == "results.ready" {
			break
		}
	}
	assert.Equal(t, "loading.stage.active", kinds[0])
	assert.Contains(t, kinds, "loading.completed")
	assert.Contains(t, kinds, "step.changed")
}

func TestUploadPhotoSizeCap(t *testing.T) {
	h := newHarness(t, nil, func(d *Deps) { d.MaxPhotoBytes = 16 })
	id, token := h.createSession(t)

	w := h.uploadPhotoBytes(t, id, token, "image/png", bytes.Repeat([]byte{0xff}, 1024))
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, "photo", body["field"])
	assert.Equal(t, "photo must be at most 16 bytes", body["error"])

	// bodies past the cap are refused before the multipart form is parsed
	w = h.uploadPhotoBytes(t, id, token, "image/png", bytes.Repeat([]byte{0xff}, 128<<10))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "photo", decode(t, w)["field"])

	w = h.uploadPhotoBytes(t, id, token, "image/png", []byte("0123456789abcdef"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "base64", "the stored photo is not echoed back")
	session := decode(t, w)["session"].(map[string]any)
	assert.Equal(t, true, session["photo_uploaded"])
}
