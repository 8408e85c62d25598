package site

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"folio/common"
	"folio/models"
)

type contactRequest struct {
	Name    string `json:"name" binding:"required,max=100"`
	Email   string `json:"email" binding:"required,email,max=200"`
	Phone   string `json:"phone" binding:"omitempty,max=30"`
	Message string `json:"message" binding:"required,min=10,max=5000"`
}

type replyRequest struct {
	Message string `json:"message" binding:"required,min=2,max=5000"`
}

// submitContact stores the message first; a failed owner notification is
// logged and never fails the request.
func (s *SiteModule) submitContact(c *gin.Context) {
	var req contactRequest
	if err := common.Bind(c, &req); err != nil {
		common.Fail(c, err)
		return
	}

	msg := models.ContactMessage{
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		Phone:     strings.TrimSpace(req.Phone),
		Message:   strings.TrimSpace(req.Message),
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
	if err := s.db.WithContext(c.Request.Context()).Create(&msg).Error; err != nil {
		common.Fail(c, common.Storage("store contact message", err))
		return
	}

	if s.mailer != nil {
		if err := s.mailer.NotifyContact(&msg); err != nil {
			common.Logf(c, "site: contact %d notification failed: %v", msg.ID, err)
		}
	}

	c.JSON(http.StatusCreated, gin.H{"message": "message received", "id": msg.ID})
}

func (s *SiteModule) listContacts(c *gin.Context) {
	db := s.db.WithContext(c.Request.Context()).Model(&models.ContactMessage{})
	switch c.Query("filter") {
	case "unread":
		db = db.Where("is_read = ?", false)
	case "unreplied":
		db = db.Where("is_replied = ?", false)
	}

	messages := []models.ContactMessage{}
	if err := db.Order("created_at DESC, id DESC").Find(&messages).Error; err != nil {
		common.Fail(c, common.Storage("list contact messages", err))
		return
	}

	var unread int64
	if err := s.db.WithContext(c.Request.Context()).Model(&models.ContactMessage{}).
		Where("is_read = ?", false).Count(&unread).Error; err != nil {
		common.Fail(c, common.Storage("count unread messages", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages, "unread": unread})
}

// getContact returns a message and marks it read.
func (s *SiteModule) getContact(c *gin.Context) {
	id, err := common.ParamID(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}

	db := s.db.WithContext(c.Request.Context())
	var msg models.ContactMessage
	if err := db.First(&msg, id).Error; err != nil {
		common.Fail(c, common.FromDB(err, "contact message", "load contact message"))
		return
	}
	if !msg.IsRead {
		if err := db.Model(&msg).Update("is_read", true).Error; err != nil {
			common.Fail(c, common.Storage("mark message read", err))
			return
		}
		msg.IsRead = true
	}
	c.JSON(http.StatusOK, msg)
}

// replyContact mails the reply and records it only once delivery worked.
func (s *SiteModule) replyContact(c *gin.Context) {
	id, err := common.ParamID(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}
	var req replyRequest
	if err := common.Bind(c, &req); err != nil {
		common.Fail(c, err)
		return
	}

	db := s.db.WithContext(c.Request.Context())
	var msg models.ContactMessage
	if err := db.First(&msg, id).Error; err != nil {
		common.Fail(c, common.FromDB(err, "contact message", "load contact message"))
		return
	}

	if s.mailer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "email is not configured"})
		return
	}
	if err := s.mailer.SendContactReply(&msg, req.Message); err != nil {
		common.Logf(c, "site: reply to contact %d failed: %v", msg.ID, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not send the reply"})
		return
	}

	now := time.Now()
	err = db.Model(&msg).Updates(map[string]any{
		"is_read":       true,
		"is_replied":    true,
		"reply_message": req.Message,
		"replied_at":    &now,
	}).Error
	if err != nil {
		common.Fail(c, common.Storage("record reply", err))
		return
	}
	msg.IsRead, msg.IsReplied = true, true
	msg.ReplyMessage, msg.RepliedAt = req.Message, &now
	c.JSON(http.StatusOK, msg)
}

func (s *SiteModule) deleteContact(c *gin.Context) {
	id, err := common.ParamID(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}

	res := s.db.WithContext(c.Request.Context()).Delete(&models.ContactMessage{}, id)
	if res.Error != nil {
		common.Fail(c, common.Storage("delete contact message", res.Error))
		return
	}
	if res.RowsAffected == 0 {
		common.Fail(c, common.NotFound("contact message"))
		return
	}
	c.Status(http.StatusNoContent)
}
