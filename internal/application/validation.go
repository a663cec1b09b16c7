package application

import (
	"github.com/oksasatya/go-user-registry/internal/domain/entity"
	"github.com/oksasatya/go-user-registry/pkg/validation"
)

// userRules carries the field constraints every stored user must satisfy.
type userRules struct {
	Name  string `json:"name" binding:"required,notblank,max=100"`
	Email string `json:"email" binding:"required,notblank,email,max=50"`
	CPF   string `json:"cpf" binding:"required,notblank,cpf"`
	Age   int    `json:"age" binding:"min=18,max=150"`
}

// ValidateUser returns a *ValidationError listing every violated constraint, or nil.
func ValidateUser(u *entity.User) error {
	msgs := validation.Struct(userRules{Name: u.Name, Email: u.Email, CPF: u.CPF, Age: u.Age})
	if len(msgs) == 0 {
		return nil
	}
	return &ValidationError{Violations: msgs}
}
