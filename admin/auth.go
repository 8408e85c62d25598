package admin

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"folio/access"
	"folio/common"
	"folio/models"
)

// passwordCost is lowered by tests.
var passwordCost = 14

type registerRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email,max=200"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type profileRequest struct {
	Name  *string `json:"name" binding:"omitempty,min=2,max=100"`
	Email *string `json:"email" binding:"omitempty,email,max=200"`
}

type checkEmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (a *AdminModule) register(c *gin.Context) {
	var req registerRequest
	if err := common.Bind(c, &req); err != nil {
		common.Fail(c, err)
		return
	}

	passwordHash, err := hashPassword(req.Password)
	if err != nil {
		common.Fail(c, common.Storage("hash password", err))
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	role := access.RoleViewer
	if a.cfg.IsAdminEmail(email) {
		role = access.RoleAdmin
	}

	user := models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: passwordHash,
		Role:         string(role),
	}
	if err := a.db.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
		common.Fail(c, common.FromDB(err, "user", "create user"))
		return
	}
	common.Logf(c, "admin: registered user %d with role %s", user.ID, user.Role)

	session := sessions.Default(c)
	session.Set(sessionUserKey, user.ID)
	session.Save()

	c.JSON(http.StatusCreated, gin.H{"user": user})
}

func (a *AdminModule) login(c *gin.Context) {
	var req loginRequest
	if err := common.Bind(c, &req); err != nil {
		common.Fail(c, err)
		return
	}

	var user models.User
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := a.db.WithContext(c.Request.Context()).Where("email = ?", email).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}
	if !checkPasswordHash(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}

	session := sessions.Default(c)
	session.Set(sessionUserKey, user.ID)
	session.Save()

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (a *AdminModule) logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()

	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (a *AdminModule) me(c *gin.Context) {
	user := UserFrom(c)
	actor := ActorFrom(c)
	c.JSON(http.StatusOK, gin.H{
		"user":     user,
		"is_admin": actor.Role == access.RoleAdmin,
		"capabilities": gin.H{
			"view":           actor.Can(access.View),
			"comment":        actor.Can(access.Comment),
			"manage_content": actor.Can(access.ManageContent),
			"manage_users":   actor.Can(access.ManageUsers),
		},
	})
}

// updateProfile edits the caller's own name and email. Roles are never
// touched here; they change only through user management.
func (a *AdminModule) updateProfile(c *gin.Context) {
	var req profileRequest
	if err := common.Bind(c, &req); err != nil {
		common.Fail(c, err)
		return
	}

	user := UserFrom(c)
	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		updates["email"] = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if len(updates) > 0 {
		db := a.db.WithContext(c.Request.Context())
		if err := db.Model(user).Updates(updates).Error; err != nil {
			common.Fail(c, common.FromDB(err, "user", "update profile"))
			return
		}
		if err := db.First(user, user.ID).Error; err != nil {
			common.Fail(c, common.FromDB(err, "user", "load user"))
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (a *AdminModule) checkEmail(c *gin.Context) {
	var req checkEmailRequest
	if err := common.Bind(c, &req); err != nil {
		common.Fail(c, err)
		return
	}

	var count int64
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := a.db.WithContext(c.Request.Context()).Model(&models.User{}).
		Where("email = ?", email).Count(&count).Error; err != nil {
		common.Fail(c, common.Storage("check email", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": count == 0})
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	return string(bytes), err
}

func checkPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
