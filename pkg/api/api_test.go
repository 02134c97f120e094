package api_test

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimburion/tutoradmin/pkg/api"
	"github.com/nimburion/tutoradmin/pkg/app"
	"github.com/nimburion/tutoradmin/pkg/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Data       json.RawMessage `json:"data"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
	RequestID  string          `json:"request_id"`
}

type errorBody struct {
	Error     string         `json:"error"`
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	RequestID string         `json:"request_id"`
	Details   map[string]any `json:"details"`
}

func newTestApp(t *testing.T, mutate ...func(*config.Config)) (*app.App, http.Handler) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Backend.Latency = 0
	cfg.RateLimit.Enabled = false
	for _, m := range mutate {
		m(cfg)
	}
	a, err := app.New(context.Background(), cfg, nil)
	require.NoError(t, err)
	return a, a.Handler(nil)
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, api.BasePath+path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func data[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	env := decode[envelope](t, rec)
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out), string(env.Data))
	return out
}

func TestComplaints_ListSearchAndPaging(t *testing.T) {
	_, h := newTestApp(t)

	rec := do(t, h, http.MethodGet, "/complaints?search=unable", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	env := decode[envelope](t, rec)
	assert.Equal(t, 2, env.Total)
	assert.Equal(t, 1, env.Page)
	assert.Equal(t, 10, env.PageSize)
	assert.Equal(t, 1, env.TotalPages)
	assert.NotEmpty(t, env.RequestID)

	var items []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &items))
	require.Len(t, items, 2)
	assert.Equal(t, "6", items[0].ID, "newest first")
	assert.Equal(t, "2", items[1].ID)

	rec = do(t, h, http.MethodGet, "/complaints?status=pending&page=2&page_size=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	env = decode[envelope](t, rec)
	assert.Equal(t, 3, env.Total)
	assert.Equal(t, 2, env.TotalPages)
	require.NoError(t, json.Unmarshal(env.Data, &items))
	assert.Len(t, items, 1)
}

func TestComplaints_PageBeyondEndIsEmpty(t *testing.T) {
	_, h := newTestApp(t)
	rec := do(t, h, http.MethodGet, "/complaints?page=9", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode[envelope](t, rec)
	assert.Equal(t, 6, env.Total)
	assert.JSONEq(t, "[]", string(env.Data))
}

func TestComplaints_HugePageIsEmpty(t *testing.T) {
	_, h := newTestApp(t)
	for _, target := range []string{
		"/complaints?page=9223372036854775807",
		"/complaints?page=9223372036854775807&page_size=100",
		"/complaints?page=1844674407370955162&page_size=10",
	} {
		rec := do(t, h, http.MethodGet, target, nil)
		require.Equal(t, http.StatusOK, rec.Code, target)
		env := decode[envelope](t, rec)
		assert.Equal(t, 6, env.Total, target)
		assert.Equal(t, 1, env.TotalPages, target)
		assert.JSONEq(t, "[]", string(env.Data), target)
	}
}

func TestList_InvalidArguments(t *testing.T) {
	_, h := newTestApp(t)

	tests := []struct {
		name  string
		path  string
		field string
	}{
		{name: "non numeric page", path: "/complaints?page=abc", field: "page"},
		{name: "negative page size", path: "/users?page_size=-1", field: "page_size"},
		{name: "page size above max", path: "/knowledge-base/files?page_size=1000", field: "page_size"},
		{name: "negative page", path: "/complaints?page=-2", field: "page"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, tt.path, nil)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			body := decode[errorBody](t, rec)
			assert.Equal(t, "validation_error", body.Error)
			assert.Equal(t, "validation.failed", body.Code)
			assert.Equal(t, tt.field, body.Details["field"])
		})
	}
}

func TestComplaints_CreateUpdateDelete(t *testing.T) {
	_, h := newTestApp(t)

	rec := do(t, h, http.MethodPost, "/complaints", map[string]any{
		"complaint":        "Tutor kept repeating the same hint",
		"flagged_message":  "Try again.",
		"student_username": "ali_learner",
		"student_email":    "ali.haris@yopmail.com",
		"parent_email":     "haris@yopmail.com",
		"priority":         "low",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := data[map[string]any](t, rec)
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "pending", created["status"])

	rec = do(t, h, http.MethodPatch, "/complaints/"+id+"/status", map[string]string{"status": "resolved"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "resolved", data[map[string]any](t, rec)["status"])

	rec = do(t, h, http.MethodPatch, "/complaints/"+id+"/status", map[string]string{})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodDelete, "/complaints/"+id, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/complaints/"+id, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decode[errorBody](t, rec)
	assert.Equal(t, "resource.not_found", body.Code)
	assert.Equal(t, "complaint", body.Details["entity"])
}

func TestComplaints_MalformedBody(t *testing.T) {
	_, h := newTestApp(t)
	rec := do(t, h, http.MethodPost, "/complaints", "{not json")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation.malformed_request", decode[errorBody](t, rec).Code)
}

func TestComplaints_Stats(t *testing.T) {
	_, h := newTestApp(t)
	rec := do(t, h, http.MethodGet, "/complaints/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := data[map[string]int](t, rec)
	assert.Equal(t, 6, stats["total"])
	assert.Equal(t, 3, stats["pending"])
	assert.Equal(t, 1, stats["resolved"])
}

func TestUsers_ParentsWithChildrenAndCascadeDelete(t *testing.T) {
	a, h := newTestApp(t)

	rec := do(t, h, http.MethodGet, "/users", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode[envelope](t, rec)
	assert.Equal(t, 4, env.Total, "only parents are listed")

	rec = do(t, h, http.MethodGet, "/users/1/children", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, data[[]map[string]any](t, rec), 2)

	rec = do(t, h, http.MethodDelete, "/users/1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	deleted := data[struct {
		Deleted []string `json:"deleted"`
	}](t, rec)
	assert.Equal(t, "1", deleted.Deleted[0])
	assert.ElementsMatch(t, []string{"1", "5", "6"}, deleted.Deleted)
	assert.Equal(t, 5, a.Users.Store().Len())

	rec = do(t, h, http.MethodGet, "/users/5", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUsers_DuplicateEmailConflict(t *testing.T) {
	_, h := newTestApp(t)
	rec := do(t, h, http.MethodPost, "/users", map[string]any{
		"email":     "haris@yopmail.com",
		"username":  "haris_again",
		"user_type": "parent",
	})
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	body := decode[errorBody](t, rec)
	assert.Equal(t, "conflict", body.Error)
	assert.Equal(t, "resource.conflict", body.Code)
}

func TestPlans_DeleteGuards(t *testing.T) {
	_, h := newTestApp(t)

	rec := do(t, h, http.MethodDelete, "/plans/1", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "is_default", decode[errorBody](t, rec).Details["field"])

	rec = do(t, h, http.MethodDelete, "/plans/2", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "subscriber_count", decode[errorBody](t, rec).Details["field"])

	rec = do(t, h, http.MethodDelete, "/plans/4", nil)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/plans/all", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, data[[]map[string]any](t, rec), 3)
}

func TestFiles_MultipartUploadAndDownload(t *testing.T) {
	_, h := newTestApp(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("file_type", "resource"))
	require.NoError(t, w.WriteField("level", "Primary 4"))
	require.NoError(t, w.WriteField("subject", "Mathematics"))
	require.NoError(t, w.WriteField("description", "Times tables"))
	part, err := w.CreateFormFile("file", "times-tables.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("2 x 2 = 4\n3 x 3 = 9\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, api.BasePath+"/knowledge-base/files", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := data[map[string]any](t, rec)
	assert.Equal(t, "times-tables.txt", created["file_name"])
	assert.EqualValues(t, 1, created["size_kb"])
	id := created["id"].(string)

	rec = do(t, h, http.MethodGet, "/knowledge-base/files/"+id+"/download", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2 x 2 = 4\n3 x 3 = 9\n", rec.Body.String())
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename=times-tables.txt`)
}

func TestFiles_MultipartWithoutFile(t *testing.T) {
	_, h := newTestApp(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("file_name", "notes.pdf"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, api.BasePath+"/knowledge-base/files", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "file", decode[errorBody](t, rec).Details["field"])
}

func TestFiles_FilterBySubject(t *testing.T) {
	_, h := newTestApp(t)
	rec := do(t, h, http.MethodGet, "/knowledge-base/files?subject=Mathematics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode[envelope](t, rec)
	assert.Equal(t, 2, env.Total)

	var files []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &files))
	assert.Equal(t, "3", files[0].ID, "most recently modified first")
}

func TestMaintenanceMode_BlocksMutations(t *testing.T) {
	_, h := newTestApp(t)

	rec := do(t, h, http.MethodPost, "/settings/maintenance/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, data[map[string]any](t, rec)["maintenance_mode"])

	rec = do(t, h, http.MethodDelete, "/complaints/1", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "maintenance.enabled", decode[errorBody](t, rec).Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	rec = do(t, h, http.MethodGet, "/complaints/1", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "reads are still served")

	rec = do(t, h, http.MethodPost, "/settings/maintenance/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code, "settings stay writable")

	rec = do(t, h, http.MethodDelete, "/complaints/1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestLLMConfig_UpdateAndReset(t *testing.T) {
	_, h := newTestApp(t)

	rec := do(t, h, http.MethodGet, "/llm/models", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, data[[]map[string]any](t, rec), 9)

	rec = do(t, h, http.MethodPut, "/llm/config", map[string]any{"temperature": 5})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/llm/config/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestDashboard(t *testing.T) {
	_, h := newTestApp(t)

	rec := do(t, h, http.MethodGet, "/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	overview := data[struct {
		KPI struct {
			TotalUsers        int `json:"total_users"`
			PendingComplaints int `json:"pending_complaints"`
		} `json:"kpi"`
	}](t, rec)
	assert.Equal(t, 8, overview.KPI.TotalUsers)
	assert.Equal(t, 3, overview.KPI.PendingComplaints)

	rec = do(t, h, http.MethodGet, "/dashboard/activity?limit=3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, data[[]map[string]any](t, rec), 3)

	rec = do(t, h, http.MethodGet, "/dashboard/activity?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequestStates(t *testing.T) {
	_, h := newTestApp(t)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/complaints", nil).Code)

	rec := do(t, h, http.MethodGet, "/requests", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	states := data[[]struct {
		Key   string `json:"key"`
		State string `json:"state"`
	}](t, rec)

	found := false
	for _, s := range states {
		if s.Key == "complaint.list" {
			found = true
			assert.Equal(t, "success", s.State)
		}
	}
	assert.True(t, found, "complaint.list should be tracked: %+v", states)
}

func TestRouting_NotFoundAndMethodNotAllowed(t *testing.T) {
	_, h := newTestApp(t)

	rec := do(t, h, http.MethodGet, "/nowhere", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "route.not_found", decode[errorBody](t, rec).Code)

	rec = do(t, h, http.MethodPut, "/complaints/stats", nil)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "route.method_not_allowed", decode[errorBody](t, rec).Code)
}

func TestRequestID_Propagated(t *testing.T) {
	_, h := newTestApp(t)
	req := httptest.NewRequest(http.MethodGet, api.BasePath+"/plans", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "req-123", decode[envelope](t, rec).RequestID)
}

func TestRequestSize_Limit(t *testing.T) {
	_, h := newTestApp(t, func(c *config.Config) { c.HTTP.MaxRequestSize = 64 })

	rec := do(t, h, http.MethodPost, "/complaints", map[string]string{
		"complaint": strings.Repeat("x", 200),
	})
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code, rec.Body.String())
	assert.Equal(t, "request.too_large", decode[errorBody](t, rec).Code)
}

func TestRateLimit(t *testing.T) {
	_, h := newTestApp(t, func(c *config.Config) {
		c.RateLimit.Enabled = true
		c.RateLimit.RequestsPerSecond = 0.001
		c.RateLimit.Burst = 2
	})

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/plans", nil).Code)
	}
	rec := do(t, h, http.MethodGet, "/plans", nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limit.exceeded", decode[errorBody](t, rec).Code)
}

func TestCompression_GzipListResponse(t *testing.T) {
	_, h := newTestApp(t, func(c *config.Config) { c.Compression.MinSize = 1 })

	req := httptest.NewRequest(http.MethodGet, api.BasePath+"/users?page_size=2", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	gz, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	raw, err := io.ReadAll(gz)
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Equal(t, 4, env.Total)
	assert.Equal(t, 2, env.PageSize)
}
