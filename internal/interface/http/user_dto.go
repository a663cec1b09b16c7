package handlers

import (
	"time"

	"github.com/oksasatya/go-user-registry/internal/application"
	"github.com/oksasatya/go-user-registry/internal/domain/entity"
	"github.com/oksasatya/go-user-registry/pkg/search"
)

// userRequest is the body of POST and PUT. Every field is required.
type userRequest struct {
	Name  *string `json:"name" binding:"required,notblank,max=100"`
	Email *string `json:"email" binding:"required,notblank,email,max=50"`
	CPF   *string `json:"cpf" binding:"required,notblank,cpf"`
	Age   *int    `json:"age" binding:"required,min=18,max=150"`
}

func (r userRequest) entity() *entity.User {
	return &entity.User{Name: *r.Name, Email: *r.Email, CPF: *r.CPF, Age: *r.Age}
}

func (r userRequest) input() application.UserInput {
	return application.UserInput{Name: r.Name, Email: r.Email, CPF: r.CPF, Age: r.Age}
}

// patchUserRequest is the body of PATCH. Absent and null fields keep their value;
// the merged record is validated by the service.
type patchUserRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	CPF   *string `json:"cpf"`
	Age   *int    `json:"age"`
}

func (r patchUserRequest) input() application.UserInput {
	return application.UserInput{Name: r.Name, Email: r.Email, CPF: r.CPF, Age: r.Age}
}

type listUsersQuery struct {
	Name  *string `form:"name"`
	Email *string `form:"email"`
	CPF   *string `form:"cpf"`
	Age   *int    `form:"age"`
}

func (q listUsersQuery) filter() entity.UserFilter {
	return entity.UserFilter{Name: q.Name, Email: q.Email, CPF: q.CPF, Age: q.Age}
}

type searchUsersQuery struct {
	Q    string `form:"q" binding:"required,notblank"`
	Size int    `form:"size" binding:"omitempty,min=1,max=50"`
}

type userResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CPF       string    `json:"cpf"`
	Age       int       `json:"age"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toUserResponse(u *entity.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CPF:       u.CPF,
		Age:       u.Age,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func toUserResponses(users []*entity.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}

func fromDocuments(docs []search.Document) []userResponse {
	out := make([]userResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, userResponse(d))
	}
	return out
}
