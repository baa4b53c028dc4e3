package user

import (
	"time"
)

// Status is the account status of a user.
type Status string

// Account statuses.
const (
	StatusActive    Status = "ACTIVE"
	StatusInactive  Status = "INACTIVE"
	StatusSuspended Status = "SUSPENDED"
)

// Role is the primary marketplace role of a user.
type Role string

// Marketplace roles.
const (
	RoleBuyer    Role = "BUYER"
	RoleSeller   Role = "SELLER"
	RoleAgent    Role = "AGENT"
	RoleInvestor Role = "INVESTOR"
)

// User represents a marketplace account.
type User struct {
	UserID       int64  `gorm:"primaryKey;autoIncrement"`
	Fullname     string `gorm:"not null;type:text"`
	Email        string `gorm:"uniqueIndex;not null;type:text"`
	Phone        string `gorm:"type:text"`
	Avatar       string `gorm:"type:text"`
	PrimaryRole  Role   `gorm:"not null;type:text;default:BUYER"`
	Status       Status `gorm:"not null;type:text;default:ACTIVE"`
	PasswordHash string `gorm:"not null;type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName returns the table name for the User entity.
func (User) TableName() string {
	return "users"
}

// IsActive reports whether the account may sign in.
func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// Profile returns the public view of the user. The password hash is never part of it.
func (u *User) Profile() Profile {
	return Profile{
		UserID:      u.UserID,
		Fullname:    u.Fullname,
		Email:       u.Email,
		Phone:       u.Phone,
		Avatar:      u.Avatar,
		PrimaryRole: u.PrimaryRole,
		Status:      u.Status,
	}
}

// Profile is the public profile of a user as sent to clients.
type Profile struct {
	UserID      int64  `json:"userId,string"`
	Fullname    string `json:"fullname"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Avatar      string `json:"avatar"`
	PrimaryRole Role   `json:"primaryRole"`
	Status      Status `json:"status"`
}

// TokenPair represents access and refresh tokens.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// Claims represents verified JWT claims. UserID is the token subject.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   Role   `json:"role,omitempty"`
}
