package groups

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codezero/photomap/internal/middleware"
)

func init() { gin.SetMode(gin.TestMode) }

func serve(h *Handler, caller uuid.UUID, method, path, body string) *httptest.ResponseRecorder {
	r := gin.New()
	api := r.Group("", func(c *gin.Context) {
		c.Set(middleware.ContextMemberID, caller)
		c.Next()
	})
	api.POST("/groups", h.Create)
	api.GET("/groups/:id", h.Get)
	api.PATCH("/groups/:id", h.Update)
	api.PATCH("/groups/:id/delete", h.Delete)
	api.PATCH("/groups/:id/members/:memberId", h.Member)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandlerCreateAndGet(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc)

	w := serve(h, f.owner.ID, http.MethodPost, "/groups", `{"name":"Hike"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Hike"`)

	w = serve(h, f.other.ID, http.MethodGet, "/groups/"+f.group.ID.String(), "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = serve(h, f.owner.ID, http.MethodGet, "/groups/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandlerMemberRoutes(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc)
	_, err := f.svc.Join(context.Background(), f.group.ID, f.other.ID)
	require.NoError(t, err)
	base := "/groups/" + f.group.ID.String() + "/members/"

	w := serve(h, f.owner.ID, http.MethodPatch, base+"delete", "")
	assert.Equal(t, http.StatusForbidden, w.Code, "owner cannot leave")

	w = serve(h, f.other.ID, http.MethodPatch, base+"delete", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(h, f.owner.ID, http.MethodPatch, base+f.other.ID.String(), "")
	assert.Equal(t, http.StatusNotFound, w.Code, "already left")

	w = serve(h, f.owner.ID, http.MethodPatch, base+"nope", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
