package models

import (
	"strconv"
	"time"
)

type User struct {
	UserID     string    `json:"user_id"`
	TelegramID int64     `json:"telegram_id"`
	Username   string    `json:"username"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Role       string    `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
}

// DisplayName возвращает самое читаемое имя пользователя:
// имя и фамилию, иначе юзернейм, иначе голый Telegram ID.
func (u *User) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name != "" {
		return name
	}
	if u.Username != "" {
		return u.Username
	}
	return "ID: " + strconv.FormatInt(u.TelegramID, 10)
}

// CanManage сообщает, может ли пользователь создавать компании и задачи.
func (u *User) CanManage() bool {
	return u.Role == RoleDirector || u.Role == RoleManager
}

// IsAssignable сообщает, можно ли назначить пользователя исполнителем.
func (u *User) IsAssignable() bool {
	switch u.Role {
	case RoleDirector, RoleManager, RoleMainAdmin, RoleAdmin:
		return true
	}
	return false
}
