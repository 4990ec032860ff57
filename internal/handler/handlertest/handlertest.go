// Package handlertest drives gin handlers in-process for tests.
package handlertest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/hms-api/internal/tenant"
	"github.com/jwalitptl/hms-api/pkg/validator"
)

// Response is the decoded envelope plus the raw data payload.
type Response struct {
	Code    int             `json:"-"`
	Status  string          `json:"status"`
	Message string          `json:"message"`
	RawData json.RawMessage `json:"data"`
}

func (r Response) IsSuccess() bool {
	return r.Status == "success"
}

// Data decodes the payload into a map.
func (r Response) Data(t *testing.T) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	r.Decode(t, &m)
	return m
}

func (r Response) Decode(t *testing.T, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.RawData, v), string(r.RawData))
}

func (r Response) GetString(t *testing.T, key string) string {
	t.Helper()
	s, _ := r.Data(t)[key].(string)
	return s
}

// NewEngine returns a test-mode engine whose /api/v1 group acts as the
// given organization and staff member.
func NewEngine(orgID, staffID uuid.UUID) (*gin.Engine, *gin.RouterGroup) {
	gin.SetMode(gin.TestMode)
	if err := validator.RegisterGin(); err != nil {
		panic(err)
	}
	r := gin.New()
	v1 := r.Group("/api/v1", func(c *gin.Context) {
		ctx := tenant.NewContext(c.Request.Context(), tenant.Scope{OrganizationID: orgID, StaffID: staffID})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})
	return r, v1
}

// Do sends a JSON request to h and decodes the answer.
func Do(t *testing.T, h http.Handler, method, path string, body interface{}) Response {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reqBody).WithContext(context.Background())
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	resp := Response{Code: w.Code}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return resp
}
