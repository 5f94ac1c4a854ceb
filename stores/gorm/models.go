package gorm

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/rdnc12/authentication"
)

// StringSlice stores a string slice as a JSON column.
type StringSlice []string

func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

func (s *StringSlice) Scan(value any) error {
	if value == nil {
		*s = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}
	return json.Unmarshal(bytes, s)
}

// UserModel is the GORM model for user records. The optional columns are
// pointers so absent values stay NULL and the unique indexes only apply to
// rows that carry them.
type UserModel struct {
	ID           string  `gorm:"primaryKey;size:64"`
	Username     *string `gorm:"uniqueIndex;size:255"`
	PasswordHash *string `gorm:"size:128"`
	GoogleID     *string `gorm:"uniqueIndex;size:255"`
	FacebookID   *string `gorm:"uniqueIndex;size:255"`
	TwitterID    *string `gorm:"uniqueIndex;size:255"`
	Secrets      StringSlice `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (UserModel) TableName() string {
	return "users"
}

func (m *UserModel) toUser() *authentication.User {
	return &authentication.User{
		ID:           m.ID,
		Username:     deref(m.Username),
		PasswordHash: deref(m.PasswordHash),
		GoogleID:     deref(m.GoogleID),
		FacebookID:   deref(m.FacebookID),
		TwitterID:    deref(m.TwitterID),
		Secrets:      m.Secrets,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ptr(s string) *string {
	return &s
}
