package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           string    `gorm:"primaryKey;size:36"         json:"id"`
	Name         string    `gorm:"not null"                   json:"name"`
	Email        string    `gorm:"unique;not null"            json:"email"`
	PasswordHash string    `gorm:"not null"                   json:"-"`
	PasswordSalt string    `gorm:"not null"                   json:"-"`
	Role         string    `gorm:"not null;default:sales_rep" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

type Customer struct {
	ID         string `gorm:"primaryKey;size:36" json:"id"`
	Name       string `gorm:"not null"           json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Company    string `json:"company"`
	AssignedTo string `gorm:"index;size:36"      json:"assigned_to"`
}

func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

type Deal struct {
	ID         string  `gorm:"primaryKey;size:36" json:"id"`
	Title      string  `gorm:"not null"           json:"title"`
	Amount     float64 `json:"amt"`
	Status     string  `gorm:"default:open"       json:"status"`
	Stage      string  `gorm:"default:open"       json:"stage"`
	CustomerID string  `gorm:"index;size:36"      json:"customer_id"`
	AssignedTo string  `gorm:"index;size:36"      json:"assigned_to"`
}

func (d *Deal) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

type Note struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	CustomerID string    `gorm:"index;not null"     json:"customer_id"`
	Content    string    `gorm:"not null"           json:"content"`
	Type       string    `gorm:"default:general"    json:"type"`
	CreatedAt  time.Time `json:"created_at"`
}

func (n *Note) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

// AuditLog rows are append-only: nothing in the application updates or
// deletes them. UserID is nil for unauthenticated failures.
type AuditLog struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	UserID     *string   `gorm:"index;size:36"      json:"user_id"`
	Action     string    `gorm:"not null;index"     json:"action"`
	Type       string    `gorm:"index"              json:"type"`
	ResourceID string    `gorm:"index;size:36"      json:"resource_id"`
	Details    string    `json:"details"`
	IP         string    `gorm:"size:45"            json:"ip"`
	Agent      string    `gorm:"size:512"           json:"agent"`
	Timestamp  time.Time `gorm:"index"              json:"timestamp"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
