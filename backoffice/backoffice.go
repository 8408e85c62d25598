// Package backoffice is the user management API. Only actors holding
// MANAGE_USERS get past any of its routes.
package backoffice

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"folio/access"
	"folio/admin"
	"folio/cache"
	"folio/common"
	"folio/content"
	"folio/models"
)

type BackofficeModule struct {
	db    *gorm.DB
	cache *cache.PageCache
}

func NewBackofficeModule(db *gorm.DB, pc *cache.PageCache) *BackofficeModule {
	return &BackofficeModule{db: db, cache: pc}
}

func (b *BackofficeModule) RegisterRoutes(router *gin.Engine) {
	backofficeGroup := router.Group("/api/backoffice")
	backofficeGroup.Use(admin.RequireActor(b.db))
	{
		backofficeGroup.GET("/users", b.listUsers)
		backofficeGroup.PUT("/users/:id", b.updateUser)
		backofficeGroup.DELETE("/users/:id", b.deleteUser)
		backofficeGroup.POST("/cache/clear", b.clearCache)
	}
}

type UserUpdate struct {
	Name  *string `json:"name" binding:"omitempty,max=100"`
	Email *string `json:"email" binding:"omitempty,email,max=200"`
	Role  *string `json:"role"`
}

func (b *BackofficeModule) ListUsers(ctx context.Context, actor access.Actor) ([]models.User, error) {
	if err := actor.Require(access.ManageUsers); err != nil {
		return nil, err
	}
	users := []models.User{}
	if err := b.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, common.Storage("list users", err)
	}
	return users, nil
}

// UpdateUser edits a user's profile and role. Role changes go through the
// self-demotion guard and land in the audit trail.
func (b *BackofficeModule) UpdateUser(ctx context.Context, actor access.Actor, id uint, in UserUpdate) (*models.User, error) {
	var role access.Role
	if in.Role != nil {
		r, err := access.ParseRole(*in.Role)
		if err != nil {
			return nil, err
		}
		if err := access.CheckRoleChange(actor, id, r); err != nil {
			return nil, err
		}
		role = r
	} else if err := actor.Require(access.ManageUsers); err != nil {
		return nil, err
	}

	var user models.User
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, id).Error; err != nil {
			return err
		}

		updates := map[string]any{}
		if in.Name != nil {
			updates["name"] = strings.TrimSpace(*in.Name)
		}
		if in.Email != nil {
			updates["email"] = strings.ToLower(strings.TrimSpace(*in.Email))
		}
		if role != "" && string(role) != user.Role {
			updates["role"] = string(role)
			details := fmt.Sprintf("from=%s to=%s", user.Role, role)
			if err := content.LogModAction(tx, actor, "user.role_change", "user", id, details); err != nil {
				return err
			}
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&user).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&user, id).Error
	})
	if err != nil {
		return nil, common.FromDB(err, "user", "update user")
	}
	return &user, nil
}

func (b *BackofficeModule) DeleteUser(ctx context.Context, actor access.Actor, id uint) error {
	if err := access.CheckUserDelete(actor, id); err != nil {
		return err
	}

	return common.FromDB(b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&user).Error; err != nil {
			return err
		}
		return content.LogModAction(tx, actor, "user.delete", "user", id, "email="+user.Email)
	}), "user", "delete user")
}

func (b *BackofficeModule) listUsers(c *gin.Context) {
	users, err := b.ListUsers(c.Request.Context(), admin.ActorFrom(c))
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (b *BackofficeModule) updateUser(c *gin.Context) {
	id, err := common.ParamID(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}
	var in UserUpdate
	if err := common.Bind(c, &in); err != nil {
		common.Fail(c, err)
		return
	}

	user, err := b.UpdateUser(c.Request.Context(), admin.ActorFrom(c), id, in)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (b *BackofficeModule) deleteUser(c *gin.Context) {
	id, err := common.ParamID(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}

	if err := b.DeleteUser(c.Request.Context(), admin.ActorFrom(c), id); err != nil {
		common.Fail(c, err)
		return
	}
	common.Logf(c, "backoffice: user %d deleted by user %d", id, admin.ActorFrom(c).UserID)
	c.Status(http.StatusNoContent)
}

func (b *BackofficeModule) clearCache(c *gin.Context) {
	if err := admin.ActorFrom(c).Require(access.ManageUsers); err != nil {
		common.Fail(c, err)
		return
	}
	if err := b.cache.Clear(); err != nil {
		common.Fail(c, common.Storage("clear page cache", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cache cleared"})
}
