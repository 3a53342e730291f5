package enums

type Role string

const (
	RoleClient Role = "client"
	RoleSeller Role = "seller"
	RoleDealer Role = "dealer"
	RoleAdmin  Role = "admin"
)

type AccountStatus string

const (
	AccountActive    AccountStatus = "active"
	AccountSuspended AccountStatus = "suspended"
	AccountBanned    AccountStatus = "banned"
	AccountPending   AccountStatus = "pending"
)

func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleSeller, RoleDealer, RoleAdmin:
		return true
	}
	return false
}
