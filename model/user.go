package model

import "time"

// User is an authenticated account
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"nome" gorm:"column:nome;type:varchar(120);not null"`
	Username  string    `json:"username" gorm:"type:varchar(60);index"`
	Email     string    `json:"email" gorm:"type:varchar(200);not null;uniqueIndex"`
	CreatedAt time.Time `json:"criado_em" gorm:"column:criado_em;autoCreateTime"`
}

func (User) TableName() string {
	return "usuarios"
}
