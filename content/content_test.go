package content

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"folio/admin"
	"folio/config"
	"folio/models"
	"folio/store"
)

func setupTestDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}

	db.AutoMigrate(&models.User{}, &models.Project{}, &models.Page{}, &models.Setting{})
	return db
}

func setupTestRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	sessionStore := cookie.NewStore([]byte("secret"))
	router.Use(sessions.Sessions("test-session", sessionStore))

	cfg := &config.Config{
		AdminUsername: "admin",
		AdminPassword: "hunter2",
		SessionSecret: "secret",
	}
	adminModule := admin.NewAdminModule(cfg)
	adminModule.RegisterRoutes(router)

	NewContentModule(store.New(db)).RegisterRoutes(router, adminModule.RequireAuth)
	return router
}

func request(router *gin.Engine, method, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func authCookies(t *testing.T, router *gin.Engine) []*http.Cookie {
	w := request(router, "POST", "/api/admin/login", `{"username":"admin","password":"hunter2"}`, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	return w.Result().Cookies()
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

const validProject = `{"title":"A","description":"d","markdown":"# A","images":["http://x/y.png"]}`

func TestListProjects_EmptyArray(t *testing.T) {
	router := setupTestRouter(setupTestDB())

	w := request(router, "GET", "/api/projects", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
}

func TestCreateProject_RequiresAuth(t *testing.T) {
	router := setupTestRouter(setupTestDB())

	w := request(router, "POST", "/api/projects", validProject, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// no state change
	w = request(router, "GET", "/api/projects", "", nil)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
}

func TestCreateProject_Scenario(t *testing.T) {
	router := setupTestRouter(setupTestDB())

	// unauthenticated create is rejected
	w := request(router, "POST", "/api/projects", validProject, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// same payload with a valid session succeeds
	cookies := authCookies(t, router)
	w = request(router, "POST", "/api/projects", validProject, cookies)
	assert.Equal(t, http.StatusCreated, w.Code)

	created := decode(t, w)
	assert.NotEmpty(t, created["id"])
	assert.Equal(t, "A", created["title"])
	assert.NotEmpty(t, created["createdAt"])

	w = request(router, "GET", "/api/projects", "", nil)
	var projects []map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &projects))
	assert.Len(t, projects, 1)
	assert.Equal(t, created["id"], projects[0]["id"])
}

func TestCreateProject_Validation(t *testing.T) {
	router := setupTestRouter(setupTestDB())
	cookies := authCookies(t, router)

	tests := []struct {
		name string
		body string
	}{
		{"missing title", `{"description":"d","markdown":"m","images":["http://x/y.png"]}`},
		{"missing description", `{"title":"A","markdown":"m","images":["http://x/y.png"]}`},
		{"no images", `{"title":"A","description":"d","markdown":"m","images":[]}`},
		{"blank images only", `{"title":"A","description":"d","markdown":"m","images":["  ", ""]}`},
		{"malformed image url", `{"title":"A","description":"d","markdown":"m","images":["not a url"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := request(router, "POST", "/api/projects", tt.body, cookies)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotEmpty(t, decode(t, w)["errors"])
		})
	}
}

func TestGetProject_NotFound(t *testing.T) {
	router := setupTestRouter(setupTestDB())

	w := request(router, "GET", "/api/projects/missing-id", "", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateProject_Partial(t *testing.T) {
	router := setupTestRouter(setupTestDB())
	cookies := authCookies(t, router)

	w := request(router, "POST", "/api/projects", validProject, cookies)
	id := decode(t, w)["id"].(string)

	w = request(router, "PUT", "/api/projects/"+id, `{"title":"B"}`, cookies)
	assert.Equal(t, http.StatusOK, w.Code)

	updated := decode(t, w)
	assert.Equal(t, "B", updated["title"])
	assert.Equal(t, "d", updated["description"])
	assert.Equal(t, "# A", updated["markdown"])
}

func TestUpdateProject_NotFound(t *testing.T) {
	router := setupTestRouter(setupTestDB())
	cookies := authCookies(t, router)

	w := request(router, "PUT", "/api/projects/missing-id", `{"title":"B"}`, cookies)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteProject(t *testing.T) {
	router := setupTestRouter(setupTestDB())
	cookies := authCookies(t, router)

	w := request(router, "POST", "/api/projects", validProject, cookies)
	id := decode(t, w)["id"].(string)

	w = request(router, "DELETE", "/api/projects/"+id, "", cookies)
	assert.Equal(t, http.StatusOK, w.Code)

	// deleting again reports not found, not an error
	w = request(router, "DELETE", "/api/projects/"+id, "", cookies)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

const validPage = `{"title":"About","slug":"about","content":"# About me"}`

func TestCreatePage_DefaultsPublished(t *testing.T) {
	router := setupTestRouter(setupTestDB())
	cookies := authCookies(t, router)

	w := request(router, "POST", "/api/pages", validPage, cookies)
	assert.Equal(t, http.StatusCreated, w.Code)

	page := decode(t, w)
	assert.Equal(t, true, page["published"])
}

func TestCreatePage_Validation(t *testing.T) {
	router := setupTestRouter(setupTestDB())
	cookies := authCookies(t, router)

	tests := []struct {
		name string
		body string
	}{
		{"missing title", `{"slug":"about","content":"c"}`},
		{"missing slug", `{"title":"About","content":"c"}`},
		{"unsafe slug", `{"title":"About","slug":"About Me!","content":"c"}`},
		{"missing content", `{"title":"About","slug":"about"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := request(router, "POST", "/api/pages", tt.body, cookies)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestCreatePage_DuplicateSlug(t *testing.T) {
	router := setupTestRouter(setupTestDB())
	cookies := authCookies(t, router)

	w := request(router, "POST", "/api/pages", validPage, cookies)
	assert.Equal(t, http.StatusCreated, w.Code)
	original := decode(t, w)

	w = request(router, "POST", "/api/pages", `{"title":"Other","slug":"about","content":"c"}`, cookies)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Slug already in use")

	// the original page survives unchanged
	w = request(router, "GET", "/api/page/about", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, original["id"], decode(t, w)["id"])
}

func TestPageVisibility(t *testing.T) {
	router := setupTestRouter(setupTestDB())
	cookies := authCookies(t, router)

	w := request(router, "POST", "/api/pages", `{"title":"Hidden","slug":"hidden","content":"c","published":false}`, cookies)
	assert.Equal(t, http.StatusCreated, w.Code)
	id := decode(t, w)["id"].(string)

	// visible through the id lookup
	w = request(router, "GET", "/api/pages/"+id, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// invisible through the public slug lookup
	w = request(router, "GET", "/api/page/hidden", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// and listed for the admin panel
	w = request(router, "GET", "/api/pages", "", nil)
	assert.Contains(t, w.Body.String(), `"slug":"hidden"`)
}

func TestUpdatePage_AdvancesUpdatedAt(t *testing.T) {
	router := setupTestRouter(setupTestDB())
	cookies := authCookies(t, router)

	w := request(router, "POST", "/api/pages", validPage, cookies)
	created := decode(t, w)

	time.Sleep(5 * time.Millisecond)
	w = request(router, "PUT", "/api/pages/"+created["id"].(string), `{"content":"updated"}`, cookies)
	assert.Equal(t, http.StatusOK, w.Code)

	updated := decode(t, w)
	assert.Equal(t, "updated", updated["content"])
	assert.Equal(t, created["title"], updated["title"])

	before, _ := time.Parse(time.RFC3339Nano, created["updatedAt"].(string))
	after, _ := time.Parse(time.RFC3339Nano, updated["updatedAt"].(string))
	assert.True(t, after.After(before))
}

func TestMutations_RequireAuth(t *testing.T) {
	router := setupTestRouter(setupTestDB())

	tests := []struct {
		method string
		path   string
		body   string
	}{
		{"POST", "/api/projects", validProject},
		{"PUT", "/api/projects/some-id", `{"title":"B"}`},
		{"DELETE", "/api/projects/some-id", ""},
		{"POST", "/api/pages", validPage},
		{"PUT", "/api/pages/some-id", `{"title":"B"}`},
		{"DELETE", "/api/pages/some-id", ""},
		{"POST", "/api/settings", `{"key":"k","value":"v"}`},
		{"PUT", "/api/resume", `{"resumeUrl":"http://example.com/cv.pdf"}`},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := request(router, tt.method, tt.path, tt.body, nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestSettings_Upsert(t *testing.T) {
	router := setupTestRouter(setupTestDB())
	cookies := authCookies(t, router)

	w := request(router, "POST", "/api/settings", `{"key":"theme","value":"light"}`, cookies)
	assert.Equal(t, http.StatusOK, w.Code)

	w = request(router, "POST", "/api/settings", `{"key":"theme","value":"dark"}`, cookies)
	assert.Equal(t, http.StatusOK, w.Code)

	w = request(router, "GET", "/api/settings", "", nil)
	var settings []map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &settings))
	assert.Len(t, settings, 1)
	assert.Equal(t, "dark", settings[0]["value"])
}

func TestSettings_Validation(t *testing.T) {
	router := setupTestRouter(setupTestDB())
	cookies := authCookies(t, router)

	w := request(router, "POST", "/api/settings", `{"key":"","value":"v"}`, cookies)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = request(router, "POST", "/api/settings", `{"key":"k"}`, cookies)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResume(t *testing.T) {
	router := setupTestRouter(setupTestDB())

	// unset resume reads as null
	w := request(router, "GET", "/api/resume", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"resumeUrl":null`)

	cookies := authCookies(t, router)

	w = request(router, "PUT", "/api/resume", `{"resumeUrl":"not a url"}`, cookies)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = request(router, "PUT", "/api/resume", `{"resumeUrl":"http://example.com/cv.pdf"}`, cookies)
	assert.Equal(t, http.StatusOK, w.Code)

	w = request(router, "GET", "/api/resume", "", nil)
	assert.Contains(t, w.Body.String(), `"resumeUrl":"http://example.com/cv.pdf"`)
}
