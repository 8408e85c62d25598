// Package site serves the portfolio around the blog: certificates, the
// contact inbox, and the sitemap.
package site

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"folio/access"
	"folio/admin"
	"folio/common"
	"folio/content"
	"folio/email"
)

type SiteModule struct {
	db      *gorm.DB
	content *content.Service
	mailer  email.Mailer
	domain  string
}

func NewSiteModule(db *gorm.DB, svc *content.Service, mailer email.Mailer, domain string) *SiteModule {
	if domain == "" {
		domain = "http://localhost:8080"
	}
	return &SiteModule{
		db:      db,
		content: svc,
		mailer:  mailer,
		domain:  strings.TrimSuffix(domain, "/"),
	}
}

func (s *SiteModule) RegisterRoutes(router *gin.Engine) {
	router.GET("/sitemap.xml", s.sitemap)
	router.GET("/api/certificates", s.listCertificates)
	router.POST("/api/contact", s.submitContact)

	siteAdmin := router.Group("/api/admin/site")
	siteAdmin.Use(admin.RequireActor(s.db), requireCapability(access.ManageUsers))
	{
		siteAdmin.POST("/certificates", s.createCertificate)
		siteAdmin.PUT("/certificates/:id", s.updateCertificate)
		siteAdmin.DELETE("/certificates/:id", s.deleteCertificate)
		siteAdmin.GET("/contacts", s.listContacts)
		siteAdmin.GET("/contacts/:id", s.getContact)
		siteAdmin.POST("/contacts/:id/reply", s.replyContact)
		siteAdmin.DELETE("/contacts/:id", s.deleteContact)
	}
}

func requireCapability(capability access.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := admin.ActorFrom(c).Require(capability); err != nil {
			common.Fail(c, err)
			return
		}
		c.Next()
	}
}

func (s *SiteModule) sitemap(c *gin.Context) {
	posts, err := s.content.AllPublished(c.Request.Context())
	if err != nil {
		common.Fail(c, err)
		return
	}

	var sitemap strings.Builder
	sitemap.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	sitemap.WriteString("\n")
	sitemap.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	sitemap.WriteString("\n")

	sitemap.WriteString("  <url>\n")
	sitemap.WriteString("    <loc>" + s.domain + "/</loc>\n")
	sitemap.WriteString("    <changefreq>weekly</changefreq>\n")
	sitemap.WriteString("    <priority>1.0</priority>\n")
	sitemap.WriteString("  </url>\n")

	sitemap.WriteString("  <url>\n")
	sitemap.WriteString("    <loc>" + s.domain + "/blog</loc>\n")
	sitemap.WriteString("    <changefreq>daily</changefreq>\n")
	sitemap.WriteString("    <priority>0.8</priority>\n")
	sitemap.WriteString("  </url>\n")

	for _, post := range posts {
		sitemap.WriteString("  <url>\n")
		sitemap.WriteString("    <loc>" + s.domain + "/blog/" + post.Slug + "</loc>\n")
		sitemap.WriteString("    <lastmod>" + post.UpdatedAt.Format(time.RFC3339) + "</lastmod>\n")
		sitemap.WriteString("    <changefreq>monthly</changefreq>\n")
		sitemap.WriteString("    <priority>0.6</priority>\n")
		sitemap.WriteString("  </url>\n")
	}

	sitemap.WriteString("</urlset>\n")

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.String(http.StatusOK, sitemap.String())
}
