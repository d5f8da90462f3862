package model

type UserRole string

const (
	Admin   UserRole = "admin"
	Analyst UserRole = "analyst"
	Viewer  UserRole = "viewer"
)

// User belongs to exactly one tenant (client account).
type User struct {
	BaseModel
	TenantID string   `gorm:"size:64;index;not null" json:"tenantId"`
	Name     string   `gorm:"size:100;not null" json:"name"`
	Email    string   `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Password string   `gorm:"size:100;not null" json:"-"`
	Role     UserRole `gorm:"size:20;default:'analyst'" json:"role"`
	Disabled bool     `gorm:"default:false" json:"disabled"`
}

func (User) TableName() string {
	return "users"
}
