// internal/gateway/relay_test.go
package gateway_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"eduscribe-web/internal/gateway"
	"eduscribe-web/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newGateway(t *testing.T, upstreamBase string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	relay, err := gateway.NewRelay(upstreamBase, gateway.NewUpstreamClient(5*time.Second, true), zap.NewNop())
	require.NoError(t, err)
	h := gateway.NewHandler(relay, nil, zap.NewNop())

	r := gin.New()
	r.Use(middleware.CORSMiddleware())
	r.POST("/api/auth/login", h.Login)
	proxy := r.Group("/api/proxy")
	proxy.GET("/*path", h.Proxy)
	proxy.POST("/*path", h.Proxy)
	proxy.PUT("/*path", h.Proxy)
	proxy.DELETE("/*path", h.Proxy)
	proxy.OPTIONS("/*path", h.Options)
	return r
}

func TestProxy_JSONPassthroughEchoesStatus(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/Session/Get/9", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]interface{}{"status": false, "message": "Session not found", "data": nil})
	}))
	defer upstream.Close()

	r := newGateway(t, upstream.URL)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/proxy/Session/Get/9", nil))

	require.Equal(t, http.StatusNotFound, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, false, body["status"])
	require.Equal(t, "Session not found", body["message"])
}

func TestProxy_QueryStringRelayedVerbatim(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "page=2&size=10", r.URL.RawQuery)
		json.NewEncoder(w).Encode(map[string]interface{}{"status": true})
	}))
	defer upstream.Close()

	r := newGateway(t, upstream.URL)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/proxy/Session/GetAll?page=2&size=10", nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestProxy_MultipartRelay(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", "Lecture 1"))
	fw, err := mw.CreateFormFile("file", "lecture.mp3")
	require.NoError(t, err)
	_, err = fw.Write([]byte("audio-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	inboundCT := mw.FormDataContentType()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/Session/Create", r.URL.Path)
		require.Equal(t, "Bearer abc", r.Header.Get("Authorization"))

		// The boundary is recomputed, never the inbound header verbatim.
		require.NotEqual(t, inboundCT, r.Header.Get("Content-Type"))
		require.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "Lecture 1", r.FormValue("name"))

		f, _, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		content, err := io.ReadAll(f)
		require.NoError(t, err)
		require.Equal(t, "audio-bytes", string(content))

		json.NewEncoder(w).Encode(map[string]interface{}{"status": true, "message": "Created"})
	}))
	defer upstream.Close()

	r := newGateway(t, upstream.URL)
	req := httptest.NewRequest(http.MethodPost, "/api/proxy/Session/Create", &buf)
	req.Header.Set("Content-Type", inboundCT)
	req.Header.Set("Authorization", "Bearer abc")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestProxy_PlainTextWrappedInEnvelope(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("not json"))
	}))
	defer upstream.Close()

	r := newGateway(t, upstream.URL)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/proxy/Summary/Get/1", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, true, body["status"])
	require.Equal(t, "Success", body["message"])
	require.Equal(t, "not json", body["data"])
}

func TestProxy_MislabeledJSONPassesThrough(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(`{"status":true,"message":"ok","data":[1,2]}`))
	}))
	defer upstream.Close()

	r := newGateway(t, upstream.URL)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/proxy/Session/GetAll", nil))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "ok", body["message"])
	require.Equal(t, []interface{}{float64(1), float64(2)}, body["data"])
}

func TestProxy_RawTextBodyRelayed(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.Equal(t, "plain payload", string(raw))
		require.Equal(t, "text/plain", r.Header.Get("Content-Type"))
		json.NewEncoder(w).Encode(map[string]interface{}{"status": true})
	}))
	defer upstream.Close()

	r := newGateway(t, upstream.URL)
	req := httptest.NewRequest(http.MethodPut, "/api/proxy/Session/Note", strings.NewReader("plain payload"))
	req.Header.Set("Content-Type", "text/plain")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestProxy_UnreachableUpstreamIsServerError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	upstream.Close() // unreachable on purpose

	r := newGateway(t, upstream.URL)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/proxy/Session/GetAll", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, false, body["status"])
	require.Contains(t, body["message"], "Server error")
	require.Nil(t, body["data"])
}

func TestProxy_InvalidJSONBodyIsServerError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("broken body must never reach the upstream")
	}))
	defer upstream.Close()

	r := newGateway(t, upstream.URL)
	req := httptest.NewRequest(http.MethodPost, "/api/proxy/Session/Create", strings.NewReader("{broken"))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestProxy_PreflightAnswers200WithCORS(t *testing.T) {
	r := newGateway(t, "http://upstream.invalid")

	req := httptest.NewRequest(http.MethodOptions, "/api/proxy/Session/Create", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestLogin_ForwardsToUpstreamLogin(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/User/Login", r.URL.Path)

		var creds map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		require.Equal(t, "user@example.com", creds["email"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"token": "signed-token"})
	}))
	defer upstream.Close()

	r := newGateway(t, upstream.URL)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"user@example.com","password":"pw"}`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "signed-token", body["token"])
}
