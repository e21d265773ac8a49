package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"alerta_social/model"

	"gorm.io/gorm"
)

// defaultTemplates are seeded on startup and used when the table has no active row.
var defaultTemplates = map[string]string{
	model.NotificationLike:           "{{nome}} curtiu sua postagem",
	model.NotificationComment:        "{{nome}} comentou na sua postagem",
	model.NotificationFriendRequest:  "{{nome}} enviou uma solicitação de amizade",
	model.NotificationFriendAccepted: "{{nome}} aceitou sua solicitação de amizade",
}

type NotificationTemplateService struct {
	db      *gorm.DB
	cache   map[string]string
	cacheMu sync.RWMutex
}

func NewNotificationTemplateService(db *gorm.DB) *NotificationTemplateService {
	return &NotificationTemplateService{
		db:    db,
		cache: make(map[string]string),
	}
}

// InitDefaultTemplates inserts missing default templates and loads the cache.
func (s *NotificationTemplateService) InitDefaultTemplates(ctx context.Context) error {
	for notifType, message := range defaultTemplates {
		var existing model.NotificationTemplate
		err := s.db.WithContext(ctx).Where("tipo = ?", notifType).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			template := model.NotificationTemplate{Type: notifType, Message: message, IsActive: true}
			if err := s.db.WithContext(ctx).Create(&template).Error; err != nil {
				return fmt.Errorf("failed to create default template %s: %w", notifType, err)
			}
		} else if err != nil {
			return fmt.Errorf("failed to check template %s: %w", notifType, err)
		}
	}

	return s.LoadTemplates(ctx)
}

// LoadTemplates reloads active templates from the database into the cache.
func (s *NotificationTemplateService) LoadTemplates(ctx context.Context) error {
	var templates []model.NotificationTemplate
	if err := s.db.WithContext(ctx).Where("ativo = ?", true).Find(&templates).Error; err != nil {
		return fmt.Errorf("failed to load notification templates: %w", err)
	}

	cache := make(map[string]string, len(templates))
	for _, t := range templates {
		cache[t.Type] = t.Message
	}

	s.cacheMu.Lock()
	s.cache = cache
	s.cacheMu.Unlock()
	return nil
}

// UpdateTemplate changes the message of one kind and refreshes the cache entry.
func (s *NotificationTemplateService) UpdateTemplate(ctx context.Context, notifType, message string) error {
	result := s.db.WithContext(ctx).Model(&model.NotificationTemplate{}).
		Where("tipo = ?", notifType).
		Update("mensagem", message)
	if result.Error != nil {
		return fmt.Errorf("failed to update template: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("template %s: %w", notifType, ErrNotFound)
	}

	s.cacheMu.Lock()
	s.cache[notifType] = message
	s.cacheMu.Unlock()
	return nil
}

// Render builds the message for notifType, falling back to the built-in default.
func (s *NotificationTemplateService) Render(notifType string, vars map[string]string) string {
	s.cacheMu.RLock()
	template, ok := s.cache[notifType]
	s.cacheMu.RUnlock()
	if !ok {
		template = defaultTemplates[notifType]
	}
	return RenderTemplate(template, vars)
}

// RenderTemplate replaces {{key}} placeholders.
func RenderTemplate(template string, vars map[string]string) string {
	result := template
	for key, value := range vars {
		result = strings.ReplaceAll(result, "{{"+key+"}}", value)
	}
	return result
}
