// Package analytics records post visits and reports them to moderators.
// A visitor is counted at most once per post per throttle window.
package analytics

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"folio/access"
	"folio/admin"
	"folio/common"
	"folio/models"
)

const (
	visitorCookie  = "folio_visitor_id"
	visitThrottle  = 30 * time.Minute
	defaultDays    = 30
	defaultTopPost = 10
)

// PostVisit is one counted visit to a published post.
type PostVisit struct {
	ID        uint        `gorm:"primaryKey"`
	PostID    uint        `gorm:"not null;index"`
	Post      models.Post `gorm:"constraint:OnDelete:CASCADE"`
	VisitorID string      `gorm:"not null;index"`
	IP        string      `gorm:"not null"`
	Language  *string
	Browser   *string
	CreatedAt time.Time `gorm:"index"`
}

type AnalyticsModule struct {
	db  *gorm.DB
	now func() time.Time
}

func NewAnalyticsModule(db *gorm.DB) *AnalyticsModule {
	if db == nil {
		log.Println("Analytics DB is nil, analytics will be disabled")
		return nil
	}

	if err := db.AutoMigrate(&PostVisit{}); err != nil {
		log.Printf("Error migrating post_visits table: %v", err)
		return nil
	}

	log.Println("Analytics module initialized successfully")
	return &AnalyticsModule{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (a *AnalyticsModule) RegisterRoutes(router *gin.Engine) {
	router.GET("/api/admin/analytics", admin.RequireActor(a.db), a.report)
}

// TrackVisit calls count and records the visit, unless this visitor was
// already counted for the post within the throttle window. Errors from
// count are returned; failures to record the visit are only logged.
func (a *AnalyticsModule) TrackVisit(c *gin.Context, postID uint, count func() error) error {
	if a == nil || a.db == nil {
		return count()
	}

	visitorID := a.getOrCreateVisitorID(c)
	db := a.db.WithContext(c.Request.Context())

	var recent int64
	err := db.Model(&PostVisit{}).
		Where("visitor_id = ? AND post_id = ? AND created_at > ?", visitorID, postID, a.now().Add(-visitThrottle)).
		Count(&recent).Error
	if err != nil {
		common.Logf(c, "analytics: lookup failed: %v", err)
	}
	if recent > 0 {
		return nil
	}

	if err := count(); err != nil {
		return err
	}

	visit := PostVisit{
		PostID:    postID,
		VisitorID: visitorID,
		IP:        c.ClientIP(),
		Language:  extractLanguage(c.GetHeader("Accept-Language")),
		Browser:   extractBrowser(c.Request.UserAgent()),
		CreatedAt: a.now(),
	}
	if err := db.Omit("Post").Create(&visit).Error; err != nil {
		common.Logf(c, "analytics: error saving visit: %v", err)
	}
	return nil
}

func (a *AnalyticsModule) getOrCreateVisitorID(c *gin.Context) string {
	if cookie, err := c.Cookie(visitorCookie); err == nil {
		if _, err := uuid.Parse(cookie); err == nil {
			return cookie
		}
	}

	visitorID := uuid.NewString()
	c.SetCookie(
		visitorCookie,
		visitorID,
		60*60*24*365*2,
		"/",
		"",
		false,
		true,
	)
	return visitorID
}

// extractBrowser names the browser family from a User-Agent
func extractBrowser(userAgent string) *string {
	if userAgent == "" {
		return nil
	}

	ua := strings.ToLower(userAgent)
	var browser string

	// more specific tokens first
	switch {
	case strings.Contains(ua, "edg"):
		browser = "Edge"
	case strings.Contains(ua, "opera") || strings.Contains(ua, "opr"):
		browser = "Opera"
	case strings.Contains(ua, "chrome"):
		browser = "Chrome"
	case strings.Contains(ua, "safari"):
		browser = "Safari"
	case strings.Contains(ua, "firefox"):
		browser = "Firefox"
	case strings.Contains(ua, "msie") || strings.Contains(ua, "trident"):
		browser = "Internet Explorer"
	default:
		browser = "Other"
	}

	return &browser
}

// extractLanguage returns the most preferred language of an
// Accept-Language header, e.g. "en-US,en;q=0.9" gives "en-US".
func extractLanguage(acceptLang string) *string {
	if acceptLang == "" {
		return nil
	}
	lang := strings.TrimSpace(strings.Split(strings.Split(acceptLang, ",")[0], ";")[0])
	if lang == "" {
		return nil
	}
	return &lang
}

type DayVisits struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type PostVisits struct {
	PostID    uint   `json:"post_id"`
	PostTitle string `json:"post_title"`
	Count     int64  `json:"count"`
}

// GetVisitsByDay returns one entry per day for the last days, oldest first,
// including days without visits.
func (a *AnalyticsModule) GetVisitsByDay(db *gorm.DB, days int) ([]DayVisits, error) {
	startDate := a.now().AddDate(0, 0, -(days - 1)).Format("2006-01-02")

	var results []DayVisits
	err := db.Model(&PostVisit{}).
		Select("DATE(created_at) as date, COUNT(*) as count").
		Where("DATE(created_at) >= ?", startDate).
		Group("DATE(created_at)").
		Order("date ASC").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(results))
	for _, r := range results {
		counts[r.Date] = r.Count
	}
	dayVisits := make([]DayVisits, days)
	for i := 0; i < days; i++ {
		date := a.now().AddDate(0, 0, -(days - 1 - i)).Format("2006-01-02")
		dayVisits[i] = DayVisits{Date: date, Count: counts[date]}
	}
	return dayVisits, nil
}

// GetTopPosts returns the most visited posts of the last days.
func (a *AnalyticsModule) GetTopPosts(db *gorm.DB, days, limit int) ([]PostVisits, error) {
	startDate := a.now().AddDate(0, 0, -days)

	results := []PostVisits{}
	err := db.Model(&PostVisit{}).
		Select("post_visits.post_id as post_id, posts.title as post_title, COUNT(*) as count").
		Joins("JOIN posts ON posts.id = post_visits.post_id").
		Where("post_visits.created_at >= ?", startDate).
		Group("post_visits.post_id, posts.title").
		Order("count DESC").
		Limit(limit).
		Scan(&results).Error
	return results, err
}

func (a *AnalyticsModule) report(c *gin.Context) {
	if err := admin.ActorFrom(c).Require(access.ManageContent); err != nil {
		common.Fail(c, err)
		return
	}

	days := common.QueryInt(c, "days", defaultDays)
	if days < 1 || days > 365 {
		days = defaultDays
	}

	db := a.db.WithContext(c.Request.Context())
	byDay, err := a.GetVisitsByDay(db, days)
	if err != nil {
		common.Fail(c, common.Storage("visits by day", err))
		return
	}
	top, err := a.GetTopPosts(db, days, defaultTopPost)
	if err != nil {
		common.Fail(c, common.Storage("top posts", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"visits_by_day": byDay, "top_posts": top})
}
