package model

import "time"

// Post is a safety notice
type Post struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"usuario_id" gorm:"column:usuario_id;not null;index"`
	Content   string    `json:"conteudo" gorm:"column:conteudo;type:text;not null"`
	Type      string    `json:"tipo" gorm:"column:tipo;type:varchar(30);not null;default:'alerta'"`
	CreatedAt time.Time `json:"criado_em" gorm:"column:criado_em;autoCreateTime"`
}

func (Post) TableName() string {
	return "postagens"
}

// Like is unique per (postagem, usuario)
type Like struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    uint      `json:"postagem_id" gorm:"column:postagem_id;not null;uniqueIndex:idx_curtidas_postagem_usuario"`
	UserID    uint      `json:"usuario_id" gorm:"column:usuario_id;not null;uniqueIndex:idx_curtidas_postagem_usuario"`
	CreatedAt time.Time `json:"criado_em" gorm:"column:criado_em;autoCreateTime"`
}

func (Like) TableName() string {
	return "curtidas"
}

// Comment on a post
type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    uint      `json:"postagem_id" gorm:"column:postagem_id;not null;index"`
	UserID    uint      `json:"usuario_id" gorm:"column:usuario_id;not null;index"`
	Content   string    `json:"conteudo" gorm:"column:conteudo;type:text;not null"`
	CreatedAt time.Time `json:"criado_em" gorm:"column:criado_em;autoCreateTime"`
}

func (Comment) TableName() string {
	return "comentarios"
}
