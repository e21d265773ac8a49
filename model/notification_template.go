package model

import "time"

// NotificationTemplate holds the message text for one notification kind.
// Placeholders use {{name}} syntax, e.g. "{{nome}} curtiu sua postagem".
type NotificationTemplate struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Type      string    `json:"tipo" gorm:"column:tipo;type:varchar(20);not null;uniqueIndex"`
	Message   string    `json:"mensagem" gorm:"column:mensagem;type:text;not null"`
	IsActive  bool      `json:"ativo" gorm:"column:ativo;default:true"`
	UpdatedAt time.Time `json:"atualizado_em" gorm:"column:atualizado_em;autoUpdateTime"`
}

func (NotificationTemplate) TableName() string {
	return "modelos_notificacao"
}
