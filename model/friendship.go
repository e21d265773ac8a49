package model

import "time"

const (
	FriendshipPending  = "pendente"
	FriendshipAccepted = "aceito"
	FriendshipRejected = "recusado"
)

// Friendship is a directed friend request: usuario_id asked amigo_id
type Friendship struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	RequesterID uint      `json:"usuario_id" gorm:"column:usuario_id;not null;index"`
	TargetID    uint      `json:"amigo_id" gorm:"column:amigo_id;not null;index"`
	Status      string    `json:"status" gorm:"type:varchar(20);not null;default:'pendente'"`
	CreatedAt   time.Time `json:"criado_em" gorm:"column:criado_em;autoCreateTime"`
}

func (Friendship) TableName() string {
	return "amigos"
}
