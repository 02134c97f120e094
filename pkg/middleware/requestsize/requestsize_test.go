package requestsize

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/nimburion/tutoradmin/pkg/controller"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(maxBytes int64) *gin.Engine {
	r := gin.New()
	r.Use(Middleware(maxBytes))
	r.POST("/", func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			controller.Error(c, err)
			return
		}
		c.String(http.StatusOK, "%d", len(body))
	})
	return r
}

func TestMiddleware(t *testing.T) {
	tests := []struct {
		name          string
		maxBytes      int64
		body          string
		hideLength    bool
		wantStatus    int
		wantBodyMatch string
	}{
		{name: "within limit", maxBytes: 10, body: "hello", wantStatus: http.StatusOK, wantBodyMatch: "5"},
		{name: "declared length over limit", maxBytes: 4, body: "hello", wantStatus: http.StatusRequestEntityTooLarge, wantBodyMatch: "request.too_large"},
		{name: "undeclared length over limit", maxBytes: 4, body: "hello", hideLength: true, wantStatus: http.StatusRequestEntityTooLarge, wantBodyMatch: "max_size"},
		{name: "disabled", maxBytes: 0, body: "hello", wantStatus: http.StatusOK, wantBodyMatch: "5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			if tt.hideLength {
				req.ContentLength = -1
			}
			rec := httptest.NewRecorder()
			newEngine(tt.maxBytes).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBodyMatch)
		})
	}
}
