package site

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"folio/admin"
	"folio/common"
	"folio/config"
	"folio/content"
	"folio/database"
	"folio/email"
	"folio/models"
)

const testPassword = "correct horse battery"

type fakeMailer struct {
	mu       sync.Mutex
	notified []uint
	replies  []string
	err      error
}

func (f *fakeMailer) NotifyContact(msg *models.ContactMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.notified = append(f.notified, msg.ID)
	return nil
}

func (f *fakeMailer) SendContactReply(msg *models.ContactMessage, reply string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.replies = append(f.replies, msg.Email+": "+reply)
	return nil
}

func setupTestRouter(t *testing.T, mailer *fakeMailer) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := common.OpenSQLite(filepath.Join(t.TempDir(), "test.db"), logger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	svc := content.NewService(db, content.Options{})
	router := gin.New()
	router.Use(sessions.Sessions("test-session", cookie.NewStore([]byte("secret"))))
	admin.NewAdminModule(db, svc, &config.Config{}).RegisterRoutes(router)
	var m email.Mailer
	if mailer != nil {
		m = mailer
	}
	NewSiteModule(db, svc, m, "https://folio.example/").RegisterRoutes(router)
	return router, db
}

func createTestUser(t *testing.T, db *gorm.DB, email, role string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.User{Email: email, PasswordHash: string(hash), Role: role}).Error)
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
	return w.Result().Cookies()
}

func TestSitemap_ListsPublishedPosts(t *testing.T) {
	router, db := setupTestRouter(t, nil)
	require.NoError(t, db.Create(&models.Post{Title: "Live", Slug: "live-post", Status: "published"}).Error)
	require.NoError(t, db.Create(&models.Post{Title: "Draft", Slug: "draft-post", Status: "draft"}).Error)

	w := doRequest(router, "GET", "/sitemap.xml", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/xml")
	assert.Contains(t, w.Body.String(), "<loc>https://folio.example/blog/live-post</loc>")
	assert.NotContains(t, w.Body.String(), "draft-post")
}

func TestContact_StoresAndNotifies(t *testing.T) {
	mailer := &fakeMailer{}
	router, db := setupTestRouter(t, mailer)

	w := doRequest(router, "POST", "/api/contact", gin.H{
		"name": "Grace", "email": "grace@example.com", "message": "I would like to hire you.",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var msg models.ContactMessage
	require.NoError(t, db.First(&msg).Error)
	assert.Equal(t, "Grace", msg.Name)
	assert.False(t, msg.IsRead)
	assert.Equal(t, []uint{msg.ID}, mailer.notified)

	w = doRequest(router, "POST", "/api/contact", gin.H{"name": "x", "email": "bad", "message": "short"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestContact_NotificationFailureIsNotFatal(t *testing.T) {
	router, db := setupTestRouter(t, &fakeMailer{err: errors.New("smtp down")})

	w := doRequest(router, "POST", "/api/contact", gin.H{
		"name": "Grace", "email": "grace@example.com", "message": "Are you available next month?",
	}, nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	var count int64
	db.Model(&models.ContactMessage{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestInbox_ReadReplyDelete(t *testing.T) {
	mailer := &fakeMailer{}
	router, db := setupTestRouter(t, mailer)
	createTestUser(t, db, "owner@example.com", "admin")
	createTestUser(t, db, "editor@example.com", "editor")
	msg := models.ContactMessage{Name: "Grace", Email: "grace@example.com", Message: "Hello, is this thing on?"}
	require.NoError(t, db.Create(&msg).Error)
	path := fmt.Sprintf("/api/admin/site/contacts/%d", msg.ID)

	w := doRequest(router, "GET", path, nil, login(t, router, "editor@example.com"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	owner := login(t, router, "owner@example.com")
	w = doRequest(router, "GET", path, nil, owner)
	require.Equal(t, http.StatusOK, w.Code)
	var saved models.ContactMessage
	require.NoError(t, db.First(&saved, msg.ID).Error)
	assert.True(t, saved.IsRead)

	w = doRequest(router, "POST", path+"/reply", gin.H{"message": "Loud and clear"}, owner)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, db.First(&saved, msg.ID).Error)
	assert.True(t, saved.IsReplied)
	assert.NotNil(t, saved.RepliedAt)
	assert.Equal(t, []string{"grace@example.com: Loud and clear"}, mailer.replies)

	w = doRequest(router, "GET", "/api/admin/site/contacts?filter=unreplied", nil, owner)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"messages":[]`)

	w = doRequest(router, "DELETE", path, nil, owner)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = doRequest(router, "DELETE", path, nil, owner)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInbox_ReplyFailureKeepsMessageUnreplied(t *testing.T) {
	router, db := setupTestRouter(t, &fakeMailer{err: errors.New("smtp down")})
	createTestUser(t, db, "owner@example.com", "admin")
	msg := models.ContactMessage{Name: "Grace", Email: "grace@example.com", Message: "Hello, is this thing on?"}
	require.NoError(t, db.Create(&msg).Error)

	w := doRequest(router, "POST", fmt.Sprintf("/api/admin/site/contacts/%d/reply", msg.ID),
		gin.H{"message": "Hi"}, login(t, router, "owner@example.com"))
	assert.Equal(t, http.StatusBadGateway, w.Code)

	var saved models.ContactMessage
	require.NoError(t, db.First(&saved, msg.ID).Error)
	assert.False(t, saved.IsReplied)
}

func TestCertificates(t *testing.T) {
	router, db := setupTestRouter(t, nil)
	createTestUser(t, db, "owner@example.com", "admin")
	owner := login(t, router, "owner@example.com")

	w := doRequest(router, "POST", "/api/admin/site/certificates", gin.H{"title": "CKA"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(router, "POST", "/api/admin/site/certificates",
		gin.H{"title": "CKA", "verification_url": "https://verify.example/123"}, owner)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var cert models.Certificate
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cert))

	w = doRequest(router, "PUT", fmt.Sprintf("/api/admin/site/certificates/%d", cert.ID),
		gin.H{"title": "CKAD"}, owner)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, "POST", "/api/admin/site/certificates", gin.H{"title": "X", "verification_url": "nope"}, owner)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, "GET", "/api/certificates", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"title":"CKAD"`)

	w = doRequest(router, "DELETE", fmt.Sprintf("/api/admin/site/certificates/%d", cert.ID), nil, owner)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
