package content

import (
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"folio/models"
	"folio/store"
)

// ResumeSettingKey is the fixed settings key the resume link lives under.
const ResumeSettingKey = "resumeUrl"

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ContentModule is the JSON CRUD surface for projects, pages and settings.
// Reads are public; every mutation goes through the requireAuth gate handed
// in at registration. Validation happens here, before the store is touched.
type ContentModule struct {
	store *store.Store
}

func NewContentModule(st *store.Store) *ContentModule {
	return &ContentModule{store: st}
}

func (m *ContentModule) RegisterRoutes(router *gin.Engine, requireAuth gin.HandlerFunc) {
	router.GET("/api/projects", m.listProjects)
	router.GET("/api/projects/:id", m.getProject)
	router.POST("/api/projects", requireAuth, m.createProject)
	router.PUT("/api/projects/:id", requireAuth, m.updateProject)
	router.DELETE("/api/projects/:id", requireAuth, m.deleteProject)

	router.GET("/api/pages", m.listPages)
	router.GET("/api/pages/:id", m.getPage)
	router.GET("/api/page/:slug", m.getPublishedPageBySlug)
	router.POST("/api/pages", requireAuth, m.createPage)
	router.PUT("/api/pages/:id", requireAuth, m.updatePage)
	router.DELETE("/api/pages/:id", requireAuth, m.deletePage)

	router.GET("/api/settings", m.listSettings)
	router.POST("/api/settings", requireAuth, m.setSetting)

	router.GET("/api/resume", m.getResume)
	router.PUT("/api/resume", requireAuth, m.updateResume)
}

// Projects

func (m *ContentModule) listProjects(c *gin.Context) {
	projects, err := m.store.GetAllProjects()
	if err != nil {
		log.Printf("Error fetching projects: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch projects"})
		return
	}
	c.JSON(http.StatusOK, projects)
}

func (m *ContentModule) getProject(c *gin.Context) {
	project, err := m.store.GetProject(c.Param("id"))
	if err != nil {
		if store.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Project not found"})
			return
		}
		log.Printf("Error fetching project: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch project"})
		return
	}
	c.JSON(http.StatusOK, project)
}

type createProjectRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Markdown    string   `json:"markdown"`
	Images      []string `json:"images"`
}

func (m *ContentModule) createProject(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid project data", "errors": []string{err.Error()}})
		return
	}

	images := filterBlankImages(req.Images)

	var fieldErrors []string
	if strings.TrimSpace(req.Title) == "" {
		fieldErrors = append(fieldErrors, "title is required")
	}
	if strings.TrimSpace(req.Description) == "" {
		fieldErrors = append(fieldErrors, "description is required")
	}
	fieldErrors = append(fieldErrors, validateImages(images)...)
	if len(fieldErrors) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid project data", "errors": fieldErrors})
		return
	}

	project := models.Project{
		Title:       req.Title,
		Description: req.Description,
		Markdown:    req.Markdown,
		Images:      datatypes.NewJSONSlice(images),
	}
	if err := m.store.CreateProject(&project); err != nil {
		log.Printf("Error creating project: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create project"})
		return
	}

	c.JSON(http.StatusCreated, project)
}

type updateProjectRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Markdown    *string   `json:"markdown"`
	Images      *[]string `json:"images"`
}

func (m *ContentModule) updateProject(c *gin.Context) {
	var req updateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid project data", "errors": []string{err.Error()}})
		return
	}

	var fieldErrors []string
	updates := map[string]interface{}{}

	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			fieldErrors = append(fieldErrors, "title must not be empty")
		} else {
			updates["title"] = *req.Title
		}
	}
	if req.Description != nil {
		if strings.TrimSpace(*req.Description) == "" {
			fieldErrors = append(fieldErrors, "description must not be empty")
		} else {
			updates["description"] = *req.Description
		}
	}
	if req.Markdown != nil {
		updates["markdown"] = *req.Markdown
	}
	if req.Images != nil {
		images := filterBlankImages(*req.Images)
		if errs := validateImages(images); len(errs) > 0 {
			fieldErrors = append(fieldErrors, errs...)
		} else {
			updates["images"] = datatypes.NewJSONSlice(images)
		}
	}

	if len(fieldErrors) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid project data", "errors": fieldErrors})
		return
	}

	project, err := m.store.UpdateProject(c.Param("id"), updates)
	if err != nil {
		if store.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Project not found"})
			return
		}
		log.Printf("Error updating project: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update project"})
		return
	}

	c.JSON(http.StatusOK, project)
}

func (m *ContentModule) deleteProject(c *gin.Context) {
	deleted, err := m.store.DeleteProject(c.Param("id"))
	if err != nil {
		log.Printf("Error deleting project: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to delete project"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"message": "Project not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Project deleted successfully"})
}

// Pages

func (m *ContentModule) listPages(c *gin.Context) {
	pages, err := m.store.GetAllPages()
	if err != nil {
		log.Printf("Error fetching pages: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch pages"})
		return
	}
	c.JSON(http.StatusOK, pages)
}

func (m *ContentModule) getPage(c *gin.Context) {
	page, err := m.store.GetPage(c.Param("id"))
	if err != nil {
		if store.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Page not found"})
			return
		}
		log.Printf("Error fetching page: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch page"})
		return
	}
	c.JSON(http.StatusOK, page)
}

// getPublishedPageBySlug is the public lookup; an unpublished page is
// indistinguishable from a missing one here.
func (m *ContentModule) getPublishedPageBySlug(c *gin.Context) {
	page, err := m.store.GetPageBySlug(c.Param("slug"))
	if err != nil {
		if store.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Page not found"})
			return
		}
		log.Printf("Error fetching page by slug: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch page"})
		return
	}
	if !page.Published {
		c.JSON(http.StatusNotFound, gin.H{"message": "Page not found"})
		return
	}
	c.JSON(http.StatusOK, page)
}

type createPageRequest struct {
	Title     string `json:"title"`
	Slug      string `json:"slug"`
	Content   string `json:"content"`
	Published *bool  `json:"published"`
}

func (m *ContentModule) createPage(c *gin.Context) {
	var req createPageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid page data", "errors": []string{err.Error()}})
		return
	}

	var fieldErrors []string
	if strings.TrimSpace(req.Title) == "" {
		fieldErrors = append(fieldErrors, "title is required")
	}
	if req.Slug == "" {
		fieldErrors = append(fieldErrors, "slug is required")
	} else if !slugPattern.MatchString(req.Slug) {
		fieldErrors = append(fieldErrors, "slug must contain only lowercase letters, digits and hyphens")
	}
	if strings.TrimSpace(req.Content) == "" {
		fieldErrors = append(fieldErrors, "content is required")
	}
	if len(fieldErrors) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid page data", "errors": fieldErrors})
		return
	}

	published := true
	if req.Published != nil {
		published = *req.Published
	}

	page := models.Page{
		Title:     req.Title,
		Slug:      req.Slug,
		Content:   req.Content,
		Published: published,
	}
	if err := m.store.CreatePage(&page); err != nil {
		if store.IsUniqueViolation(err) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Slug already in use"})
			return
		}
		log.Printf("Error creating page: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create page"})
		return
	}

	c.JSON(http.StatusCreated, page)
}

type updatePageRequest struct {
	Title     *string `json:"title"`
	Slug      *string `json:"slug"`
	Content   *string `json:"content"`
	Published *bool   `json:"published"`
}

func (m *ContentModule) updatePage(c *gin.Context) {
	var req updatePageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid page data", "errors": []string{err.Error()}})
		return
	}

	var fieldErrors []string
	updates := map[string]interface{}{}

	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			fieldErrors = append(fieldErrors, "title must not be empty")
		} else {
			updates["title"] = *req.Title
		}
	}
	if req.Slug != nil {
		if !slugPattern.MatchString(*req.Slug) {
			fieldErrors = append(fieldErrors, "slug must contain only lowercase letters, digits and hyphens")
		} else {
			updates["slug"] = *req.Slug
		}
	}
	if req.Content != nil {
		if strings.TrimSpace(*req.Content) == "" {
			fieldErrors = append(fieldErrors, "content must not be empty")
		} else {
			updates["content"] = *req.Content
		}
	}
	if req.Published != nil {
		updates["published"] = *req.Published
	}

	if len(fieldErrors) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid page data", "errors": fieldErrors})
		return
	}

	page, err := m.store.UpdatePage(c.Param("id"), updates)
	if err != nil {
		if store.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Page not found"})
			return
		}
		if store.IsUniqueViolation(err) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Slug already in use"})
			return
		}
		log.Printf("Error updating page: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update page"})
		return
	}

	c.JSON(http.StatusOK, page)
}

func (m *ContentModule) deletePage(c *gin.Context) {
	deleted, err := m.store.DeletePage(c.Param("id"))
	if err != nil {
		log.Printf("Error deleting page: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to delete page"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"message": "Page not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Page deleted successfully"})
}

// Settings

func (m *ContentModule) listSettings(c *gin.Context) {
	settings, err := m.store.GetAllSettings()
	if err != nil {
		log.Printf("Error fetching settings: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch settings"})
		return
	}
	c.JSON(http.StatusOK, settings)
}

type settingRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (m *ContentModule) setSetting(c *gin.Context) {
	var req settingRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Key) == "" || strings.TrimSpace(req.Value) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Key and value are required"})
		return
	}

	setting, err := m.store.SetSetting(req.Key, req.Value)
	if err != nil {
		log.Printf("Error saving setting: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to save setting"})
		return
	}

	c.JSON(http.StatusOK, setting)
}

// Resume

func (m *ContentModule) getResume(c *gin.Context) {
	setting, err := m.store.GetSetting(ResumeSettingKey)
	if err != nil {
		if store.IsNotFound(err) {
			c.JSON(http.StatusOK, gin.H{"resumeUrl": nil})
			return
		}
		log.Printf("Error fetching resume URL: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch resume URL"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"resumeUrl": setting.Value})
}

type resumeRequest struct {
	ResumeURL string `json:"resumeUrl"`
}

func (m *ContentModule) updateResume(c *gin.Context) {
	var req resumeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ResumeURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Resume URL is required"})
		return
	}
	if !isWellFormedURL(req.ResumeURL) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Resume URL must be a valid http or https URL"})
		return
	}

	if _, err := m.store.SetSetting(ResumeSettingKey, req.ResumeURL); err != nil {
		log.Printf("Error updating resume URL: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update resume URL"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Resume URL updated successfully", "resumeUrl": req.ResumeURL})
}

// helpers

func filterBlankImages(images []string) []string {
	out := make([]string, 0, len(images))
	for _, img := range images {
		if img = strings.TrimSpace(img); img != "" {
			out = append(out, img)
		}
	}
	return out
}

// validateImages applies the create-time rule: after blank filtering there
// must be at least one entry, and every entry must be a well-formed URL.
func validateImages(images []string) []string {
	var errs []string
	if len(images) == 0 {
		return []string{"at least one image URL is required"}
	}
	for _, img := range images {
		if !isWellFormedURL(img) {
			errs = append(errs, "image URL is not valid: "+img)
		}
	}
	return errs
}

func isWellFormedURL(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
