package service

import (
	"testing"

	"alerta_social/model"
	"alerta_social/utils/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTemplate(t *testing.T) {
	assert.Equal(t, "ana curtiu sua postagem", RenderTemplate("{{nome}} curtiu sua postagem", map[string]string{"nome": "ana"}))
	assert.Equal(t, "{{outro}} ficou", RenderTemplate("{{outro}} ficou", map[string]string{"nome": "ana"}))
	assert.Equal(t, "sem variáveis", RenderTemplate("sem variáveis", nil))
}

func TestTemplateService_DefaultsWithoutDatabaseRows(t *testing.T) {
	svc := NewNotificationTemplateService(testutil.MustOpenTestDB(t))

	assert.Equal(t, "bia comentou na sua postagem", svc.Render(model.NotificationComment, map[string]string{"nome": "bia"}))
	assert.Empty(t, svc.Render("desconhecido", map[string]string{"nome": "bia"}))
}

func TestTemplateService_InitIsIdempotentAndUpdates(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc := NewNotificationTemplateService(db)

	require.NoError(t, svc.InitDefaultTemplates(t.Context()))
	require.NoError(t, svc.InitDefaultTemplates(t.Context()))

	var count int64
	require.NoError(t, db.Model(&model.NotificationTemplate{}).Count(&count).Error)
	assert.Equal(t, int64(len(defaultTemplates)), count)

	require.NoError(t, svc.UpdateTemplate(t.Context(), model.NotificationLike, "{{nome}} apoiou seu alerta"))
	assert.Equal(t, "ana apoiou seu alerta", svc.Render(model.NotificationLike, map[string]string{"nome": "ana"}))

	// a fresh service reads the stored text
	reloaded := NewNotificationTemplateService(db)
	require.NoError(t, reloaded.LoadTemplates(t.Context()))
	assert.Equal(t, "ana apoiou seu alerta", reloaded.Render(model.NotificationLike, map[string]string{"nome": "ana"}))

	err := svc.UpdateTemplate(t.Context(), "desconhecido", "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTemplateService_InactiveFallsBackToDefault(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc := NewNotificationTemplateService(db)
	require.NoError(t, svc.InitDefaultTemplates(t.Context()))

	require.NoError(t, db.Model(&model.NotificationTemplate{}).
		Where("tipo = ?", model.NotificationLike).
		Updates(map[string]interface{}{"mensagem": "inativo", "ativo": false}).Error)
	require.NoError(t, svc.LoadTemplates(t.Context()))

	assert.Equal(t, "ana curtiu sua postagem", svc.Render(model.NotificationLike, map[string]string{"nome": "ana"}))
}
