package site

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"folio/common"
	"folio/models"
)

type certificateRequest struct {
	Title           string `json:"title" binding:"required,max=200"`
	Image           string `json:"image" binding:"omitempty,max=500"`
	PDF             string `json:"pdf" binding:"omitempty,max=500"`
	VerificationURL string `json:"verification_url" binding:"omitempty,url"`
}

func (r certificateRequest) apply(cert *models.Certificate) {
	cert.Title = strings.TrimSpace(r.Title)
	cert.Image = r.Image
	cert.PDF = r.PDF
	cert.VerificationURL = r.VerificationURL
}

func (s *SiteModule) listCertificates(c *gin.Context) {
	certificates := []models.Certificate{}
	if err := s.db.WithContext(c.Request.Context()).Order("created_at DESC, id DESC").Find(&certificates).Error; err != nil {
		common.Fail(c, common.Storage("list certificates", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"certificates": certificates})
}

func (s *SiteModule) createCertificate(c *gin.Context) {
	var req certificateRequest
	if err := common.Bind(c, &req); err != nil {
		common.Fail(c, err)
		return
	}

	var cert models.Certificate
	req.apply(&cert)
	if err := s.db.WithContext(c.Request.Context()).Create(&cert).Error; err != nil {
		common.Fail(c, common.FromDB(err, "certificate", "create certificate"))
		return
	}
	c.JSON(http.StatusCreated, cert)
}

func (s *SiteModule) updateCertificate(c *gin.Context) {
	id, err := common.ParamID(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}
	var req certificateRequest
	if err := common.Bind(c, &req); err != nil {
		common.Fail(c, err)
		return
	}

	db := s.db.WithContext(c.Request.Context())
	var cert models.Certificate
	if err := db.First(&cert, id).Error; err != nil {
		common.Fail(c, common.FromDB(err, "certificate", "load certificate"))
		return
	}
	req.apply(&cert)
	if err := db.Save(&cert).Error; err != nil {
		common.Fail(c, common.FromDB(err, "certificate", "update certificate"))
		return
	}
	c.JSON(http.StatusOK, cert)
}

func (s *SiteModule) deleteCertificate(c *gin.Context) {
	id, err := common.ParamID(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}

	res := s.db.WithContext(c.Request.Context()).Delete(&models.Certificate{}, id)
	if res.Error != nil {
		common.Fail(c, common.Storage("delete certificate", res.Error))
		return
	}
	if res.RowsAffected == 0 {
		common.Fail(c, common.NotFound("certificate"))
		return
	}
	c.Status(http.StatusNoContent)
}
