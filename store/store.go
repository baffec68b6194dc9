package store

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"folio/models"
)

// Store is the typed persistence layer for projects, pages, settings and
// users. It knows nothing about HTTP or sessions; uniqueness constraints
// (page slug, setting key, username) are enforced by the database indexes,
// not by pre-checks here.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// IsNotFound reports whether err means the requested record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsUniqueViolation reports whether err is a unique-index violation from
// sqlite (duplicate slug, key or username).
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Projects

func (s *Store) GetAllProjects() ([]models.Project, error) {
	projects := make([]models.Project, 0)
	err := s.db.Order("created_at ASC").Find(&projects).Error
	return projects, err
}

func (s *Store) GetProject(id string) (*models.Project, error) {
	var project models.Project
	if err := s.db.Where("id = ?", id).First(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func (s *Store) CreateProject(project *models.Project) error {
	return s.db.Create(project).Error
}

// UpdateProject merges only the supplied columns. Returns
// gorm.ErrRecordNotFound if no project with id exists.
func (s *Store) UpdateProject(id string, updates map[string]interface{}) (*models.Project, error) {
	var project models.Project
	if err := s.db.Where("id = ?", id).First(&project).Error; err != nil {
		return nil, err
	}

	if len(updates) > 0 {
		if err := s.db.Model(&project).Updates(updates).Error; err != nil {
			return nil, err
		}
		if err := s.db.Where("id = ?", id).First(&project).Error; err != nil {
			return nil, err
		}
	}

	return &project, nil
}

func (s *Store) DeleteProject(id string) (bool, error) {
	result := s.db.Where("id = ?", id).Delete(&models.Project{})
	return result.RowsAffected > 0, result.Error
}

// Pages

func (s *Store) GetAllPages() ([]models.Page, error) {
	pages := make([]models.Page, 0)
	err := s.db.Order("created_at ASC").Find(&pages).Error
	return pages, err
}

func (s *Store) GetPage(id string) (*models.Page, error) {
	var page models.Page
	if err := s.db.Where("id = ?", id).First(&page).Error; err != nil {
		return nil, err
	}
	return &page, nil
}

func (s *Store) GetPageBySlug(slug string) (*models.Page, error) {
	var page models.Page
	if err := s.db.Where("slug = ?", slug).First(&page).Error; err != nil {
		return nil, err
	}
	return &page, nil
}

func (s *Store) CreatePage(page *models.Page) error {
	return s.db.Create(page).Error
}

// UpdatePage merges only the supplied columns and always refreshes
// updated_at. Returns gorm.ErrRecordNotFound if no page with id exists.
func (s *Store) UpdatePage(id string, updates map[string]interface{}) (*models.Page, error) {
	var page models.Page
	if err := s.db.Where("id = ?", id).First(&page).Error; err != nil {
		return nil, err
	}

	merged := make(map[string]interface{}, len(updates)+1)
	for k, v := range updates {
		merged[k] = v
	}
	merged["updated_at"] = time.Now()

	if err := s.db.Model(&page).Updates(merged).Error; err != nil {
		return nil, err
	}
	if err := s.db.Where("id = ?", id).First(&page).Error; err != nil {
		return nil, err
	}

	return &page, nil
}

func (s *Store) DeletePage(id string) (bool, error) {
	result := s.db.Where("id = ?", id).Delete(&models.Page{})
	return result.RowsAffected > 0, result.Error
}

// Settings

func (s *Store) GetSetting(key string) (*models.Setting, error) {
	var setting models.Setting
	if err := s.db.Where("key = ?", key).First(&setting).Error; err != nil {
		return nil, err
	}
	return &setting, nil
}

// SetSetting writes value under key, inserting or overwriting in place.
// The upsert happens in a single ON CONFLICT statement so concurrent
// writers to the same key cannot race each other into duplicate rows.
func (s *Store) SetSetting(key, value string) (*models.Setting, error) {
	setting := models.Setting{Key: key, Value: value}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"value": value}),
	}).Create(&setting).Error
	if err != nil {
		return nil, err
	}

	// Reload so the caller sees the row id of a pre-existing key.
	if err := s.db.Where("key = ?", key).First(&setting).Error; err != nil {
		return nil, err
	}
	return &setting, nil
}

func (s *Store) GetAllSettings() ([]models.Setting, error) {
	settings := make([]models.Setting, 0)
	err := s.db.Find(&settings).Error
	return settings, err
}

// Users

func (s *Store) GetUserByUsername(username string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) CreateUser(user *models.User) error {
	return s.db.Create(user).Error
}
