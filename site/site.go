package site

import (
	"bytes"
	"html/template"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"

	"folio/content"
	"folio/store"
)

// markdown renderer configured with Goldmark and useful extensions
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,     // tables, strikethrough, task lists, autolinks (GFM set)
		extension.Linkify, // linkify raw URLs
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithUnsafe(), // allow raw HTML passthrough in Markdown
	),
)

// SiteModule serves the public rendered pages: the project showcase, the
// static pages and the resume link. It only ever reads.
type SiteModule struct {
	store *store.Store
}

func NewSiteModule(st *store.Store) *SiteModule {
	return &SiteModule{store: st}
}

func (s *SiteModule) RegisterRoutes(router *gin.Engine) {
	router.GET("/", s.home)
	router.GET("/projects/:id", s.project)
	router.GET("/p/:slug", s.page)
	router.GET("/resume", s.resume)
}

func (s *SiteModule) home(c *gin.Context) {
	projects, err := s.store.GetAllProjects()
	if err != nil {
		log.Printf("Error loading projects for home page: %v", err)
		c.HTML(http.StatusInternalServerError, "site_error.html", gin.H{
			"error": "Failed to load projects",
		})
		return
	}

	c.HTML(http.StatusOK, "site_home.html", gin.H{
		"projects": projects,
	})
}

func (s *SiteModule) project(c *gin.Context) {
	project, err := s.store.GetProject(c.Param("id"))
	if err != nil {
		c.HTML(http.StatusNotFound, "site_error.html", gin.H{
			"error": "Project not found",
		})
		return
	}

	c.HTML(http.StatusOK, "site_project.html", gin.H{
		"project":     project,
		"contentHTML": template.HTML(renderMarkdown(project.Markdown)),
	})
}

func (s *SiteModule) page(c *gin.Context) {
	page, err := s.store.GetPageBySlug(c.Param("slug"))
	if err != nil || !page.Published {
		c.HTML(http.StatusNotFound, "site_error.html", gin.H{
			"error": "Page not found",
		})
		return
	}

	c.HTML(http.StatusOK, "site_page.html", gin.H{
		"page":        page,
		"contentHTML": template.HTML(renderMarkdown(page.Content)),
	})
}

func (s *SiteModule) resume(c *gin.Context) {
	setting, err := s.store.GetSetting(content.ResumeSettingKey)
	if err != nil {
		c.HTML(http.StatusNotFound, "site_error.html", gin.H{
			"error": "No resume has been published yet",
		})
		return
	}

	c.Redirect(http.StatusFound, setting.Value)
}

func renderMarkdown(content string) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(content), &buf); err != nil {
		// Fall back to the raw text rather than breaking the page
		return content
	}
	return buf.String()
}
