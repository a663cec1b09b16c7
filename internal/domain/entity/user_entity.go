package entity

import (
	"time"
)

// User is a registered person.
// CPF keeps whatever punctuation it was registered with; uniqueness is on its digits.
type User struct {
	ID        int64
	Name      string
	Email     string
	CPF       string
	Age       int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserFilter is a search by example. Nil fields impose no constraint,
// string fields match case-insensitive substrings and Age matches exactly.
type UserFilter struct {
	Name  *string
	Email *string
	CPF   *string
	Age   *int
}

// IsEmpty reports whether the filter matches every user.
func (f UserFilter) IsEmpty() bool {
	return f.Name == nil && f.Email == nil && f.CPF == nil && f.Age == nil
}
