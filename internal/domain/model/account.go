package model

import (
	"time"

	"github.com/ivankudzin/automarket/backend/internal/domain/enums"
)

// SystemActor is the sentinel actor id used for automatically opened cases and
// scheduled restores. It never references an accounts row.
const SystemActor int64 = 0

type Account struct {
	ID             int64               `json:"id"`
	Email          string              `json:"email"`
	DisplayName    string              `json:"display_name"`
	Role           enums.Role          `json:"role"`
	Status         enums.AccountStatus `json:"status"`
	TelegramChatID *int64              `json:"telegram_chat_id,omitempty"`
	Version        int64               `json:"version"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

func (a Account) IsActive() bool {
	return a.Status == enums.AccountActive
}

func (a Account) CanSell() bool {
	switch a.Role {
	case enums.RoleSeller, enums.RoleDealer, enums.RoleAdmin:
		return true
	}
	return false
}
