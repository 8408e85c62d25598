package admin

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"folio/common"
	"folio/config"
	"folio/content"
	"folio/database"
	"folio/models"
)

const testPassword = "correct horse battery"

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := common.OpenSQLite(filepath.Join(t.TempDir(), "test.db"), logger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func setupTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	passwordCost = bcrypt.MinCost
	gin.SetMode(gin.TestMode)

	db := setupTestDB(t)
	cfg := &config.Config{AdminEmails: []string{"owner@example.com"}}
	adminModule := NewAdminModule(db, content.NewService(db, content.Options{}), cfg)

	router := gin.New()
	store := cookie.NewStore([]byte("secret"))
	router.Use(sessions.Sessions("test-session", store))
	adminModule.RegisterRoutes(router)
	return router, db
}

func createTestUser(t *testing.T, db *gorm.DB, email, role string) *models.User {
	t.Helper()
	hash, err := hashPassword(testPassword)
	require.NoError(t, err)
	user := &models.User{Name: "Test", Email: email, PasswordHash: hash, Role: role}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestPost(t *testing.T, db *gorm.DB, slug string, status content.PostStatus) *models.Post {
	t.Helper()
	post := &models.Post{
		Title:    "Post " + slug,
		Slug:     slug,
		Content:  "Body of the post",
		Category: "engineering",
		Status:   string(status),
	}
	require.NoError(t, db.Create(post).Error)
	return post
}

func doRequest(router *gin.Engine, method, path string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, router *gin.Engine, email string) []*http.Cookie {
	t.Helper()
	w := doRequest(router, "POST", "/api/auth/login", gin.H{"email": email, "password": testPassword}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}
