package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azhengyongqin/audiobook-hub/internal/console"
	"github.com/azhengyongqin/audiobook-hub/internal/healthcheck"
	"github.com/azhengyongqin/audiobook-hub/internal/server/dto"
	"github.com/azhengyongqin/audiobook-hub/internal/view"
	"github.com/azhengyongqin/audiobook-hub/sdk"
)

// fakeBackend 模拟转换后端的 HTTP 接口
type fakeBackend struct {
	mu        sync.Mutex
	statusN   int
	lastVoice string
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/voices", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`["alice","bob"]`))
	})
	mux.HandleFunc("POST /api/convert", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.lastVoice = r.FormValue("voice")
		f.mu.Unlock()
		_, _ = w.Write([]byte(`{"task_id":"t-1"}`))
	})
	mux.HandleFunc("GET /api/status/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		n := f.statusN
		f.statusN++
		f.mu.Unlock()
		if n == 0 {
			_, _ = w.Write([]byte(`{"status":"processing","progress":40}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"complete","progress":100,"total_chunks":10,"successful_chunks":8}`))
	})
	mux.HandleFunc("GET /api/download/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "t-1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3-audiobook"))
	})
	mux.HandleFunc("POST /api/preview", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3-preview"))
	})
	return mux
}

func setupRouter(t *testing.T) (http.Handler, *fakeBackend) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	backend := &fakeBackend{}
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)

	client := sdk.NewClient(srv.URL, sdk.WithTimeout(5*time.Second))
	t.Cleanup(client.Close)

	c := console.New(client, console.Options{PollInterval: 10 * time.Millisecond, Logger: zerolog.Nop()})
	t.Cleanup(c.Close)
	c.Init(context.Background())

	return NewRouter(Deps{
		Console:        c,
		HealthChecker:  healthcheck.NewHealthChecker(client, nil),
		UploadMaxBytes: 1 << 20,
	}), backend
}

func do(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func convertRequest(t *testing.T, fileName, voice string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if fileName != "" {
		fw, err := mw.CreateFormFile("pdf_file", fileName)
		require.NoError(t, err)
		_, _ = fw.Write([]byte("%PDF-1.4"))
	}
	if voice != "" {
		require.NoError(t, mw.WriteField("voice", voice))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/convert", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func getView(t *testing.T, h http.Handler) console.Snapshot {
	t.Helper()
	w := do(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/view", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var snap console.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	return snap
}

func TestRouter_Health(t *testing.T) {
	h, _ := setupRouter(t)

	w := do(t, h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"backend":"ok"`)
	assert.Contains(t, w.Body.String(), `"catalog":"ok"`)
}

func TestRouter_Voices(t *testing.T) {
	h, _ := setupRouter(t)

	w := do(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/voices", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.VoicesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"alice", "bob"}, resp.Options)
	assert.True(t, resp.Enabled)
	assert.Equal(t, "alice", resp.Selected)
}

func TestRouter_SelectVoice(t *testing.T) {
	h, _ := setupRouter(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"known voice", `{"voice":"bob"}`, http.StatusOK},
		{"unknown voice", `{"voice":"mallory"}`, http.StatusBadRequest},
		{"invalid name", `{"voice":"../bob"}`, http.StatusBadRequest},
		{"missing voice", `{}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/api/v1/voice", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := do(t, h, req)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}

	assert.Equal(t, "bob", getView(t, h).Voices.Selected)
}

func TestRouter_ConvertValidation(t *testing.T) {
	h, _ := setupRouter(t)

	tests := []struct {
		name       string
		file       string
		voice      string
		wantStatus int
	}{
		{"missing file", "", "alice", http.StatusBadRequest},
		{"not a pdf", "notes.txt", "alice", http.StatusBadRequest},
		{"unknown voice", "book.pdf", "mallory", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, convertRequest(t, tt.file, tt.voice))
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}

	assert.Equal(t, view.StateInitial, getView(t, h).View.State)
}

func TestRouter_ConvertToResult(t *testing.T) {
	h, backend := setupRouter(t)

	w := do(t, h, convertRequest(t, "book.pdf", "bob"))
	require.Equal(t, http.StatusAccepted, w.Code)
	var resp dto.ConvertResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "t-1", resp.TaskID)

	backend.mu.Lock()
	assert.Equal(t, "bob", backend.lastVoice)
	backend.mu.Unlock()

	// 任务进行中，再次提交被拒绝
	w = do(t, h, convertRequest(t, "book.pdf", ""))
	if w.Code != http.StatusAccepted {
		assert.Equal(t, http.StatusConflict, w.Code)
	}

	var snap console.Snapshot
	require.Eventually(t, func() bool {
		snap = getView(t, h)
		return snap.View.State == view.StateSucceededWithWarning
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, view.PrimaryResult, snap.View.Primary)
	assert.Contains(t, snap.View.Warning.Text, "2 out of 10")
	assert.True(t, snap.SubmitEnabled)
	require.NotNil(t, snap.View.Result)
	assert.True(t, strings.HasSuffix(snap.View.Result.URL, "/api/download/t-1"))

	w = do(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/result", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "audio/mpeg", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "audiobook.mp3")
	body, _ := io.ReadAll(w.Body)
	assert.Equal(t, "ID3-audiobook", string(body))
}

func TestRouter_ResultBeforeConversion(t *testing.T) {
	h, _ := setupRouter(t)

	w := do(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/result", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_Preview(t *testing.T) {
	h, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/preview", strings.NewReader(`{"text":"Hello there"}`))
	req.Header.Set("Content-Type", "application/json")
	w := do(t, h, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "audio/mpeg", w.Header().Get("Content-Type"))
	assert.Equal(t, "ID3-preview", w.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/api/v1/preview", strings.NewReader(`{"text":""}`))
	req.Header.Set("Content-Type", "application/json")
	w = do(t, h, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_Metrics(t *testing.T) {
	h, _ := setupRouter(t)

	do(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/voices", nil))
	w := do(t, h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "audiobookhub_http_requests_total")
}
