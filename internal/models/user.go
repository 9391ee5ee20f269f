package models

// User owns budgets. Accounts and credentials are managed by the auth service;
// only the identity needed to scope budgets is stored here.
type User struct {
	Base
	Email     string   `gorm:"uniqueIndex;not null" json:"email"`
	Password  string   `gorm:"not null" json:"-"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	IsActive  bool     `gorm:"default:true" json:"is_active"`
	Budgets   []Budget `gorm:"foreignKey:UserID" json:"budgets,omitempty"`
}
