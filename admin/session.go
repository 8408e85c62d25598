package admin

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"folio/access"
	"folio/models"
)

const (
	sessionUserKey = "user_id"
	actorKey       = "actor"
	userKey        = "user"
)

// loadUser returns the user stored in the session, if any. A session that
// points at a deleted user is cleared.
func loadUser(db *gorm.DB, c *gin.Context) *models.User {
	session := sessions.Default(c)
	userID := session.Get(sessionUserKey)
	if userID == nil {
		return nil
	}

	var user models.User
	if err := db.WithContext(c.Request.Context()).First(&user, userID).Error; err != nil {
		session.Clear()
		session.Save()
		return nil
	}
	return &user
}

// RequireActor rejects requests without a logged in user and stores the
// resolved actor for the handlers.
func RequireActor(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := loadUser(db, c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		c.Set(userKey, user)
		c.Set(actorKey, access.Resolve(user))
		c.Next()
	}
}

// OptionalActor resolves the session user when there is one and falls
// back to the anonymous actor otherwise.
func OptionalActor(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := access.Anonymous()
		if user := loadUser(db, c); user != nil {
			c.Set(userKey, user)
			actor = access.Resolve(user)
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

func ActorFrom(c *gin.Context) access.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(access.Actor); ok {
			return actor
		}
	}
	return access.Anonymous()
}

func UserFrom(c *gin.Context) *models.User {
	if v, ok := c.Get(userKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}
