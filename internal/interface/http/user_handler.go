package handlers

import (
	"context"
	"errors"
	"expvar"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-registry/internal/application"
	"github.com/oksasatya/go-user-registry/internal/domain/entity"
	"github.com/oksasatya/go-user-registry/internal/domain/repository"
	"github.com/oksasatya/go-user-registry/pkg/response"
	"github.com/oksasatya/go-user-registry/pkg/search"
	"github.com/oksasatya/go-user-registry/pkg/validation"
)

var (
	userOps    = expvar.NewMap("user_ops")
	userErrors = expvar.NewMap("user_errors")
)

// UserSearcher is satisfied by *search.UserIndex.
type UserSearcher interface {
	Search(ctx context.Context, q string, size int) ([]search.Document, error)
}

type UserHandler struct {
	Svc    *application.Service
	Search UserSearcher
	Logger *logrus.Logger
}

// NewUserHandler builds the handler. searcher may be nil, in which case search answers 503.
func NewUserHandler(svc *application.Service, searcher UserSearcher, logger *logrus.Logger) *UserHandler {
	validation.Init()
	return &UserHandler{Svc: svc, Search: searcher, Logger: logger}
}

func (h *UserHandler) Create(c *gin.Context) {
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, "create", &application.ValidationError{Violations: validation.ToMessages(err)})
		return
	}
	u, err := h.Svc.Create(c.Request.Context(), req.entity())
	if err != nil {
		h.fail(c, "create", err)
		return
	}
	userOps.Add("create", 1)
	response.JSON(c, http.StatusCreated, toUserResponse(u))
}

func (h *UserHandler) Get(c *gin.Context) {
	u, ok := h.load(c, "get")
	if !ok {
		return
	}
	userOps.Add("get", 1)
	response.JSON(c, http.StatusOK, toUserResponse(u))
}

// Replace handles PUT: the body is validated as on create before the lookup.
func (h *UserHandler) Replace(c *gin.Context) {
	id, ok := h.userID(c)
	if !ok {
		return
	}
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, "replace", &application.ValidationError{Violations: validation.ToMessages(err)})
		return
	}
	existing, ok := h.find(c, "replace", id)
	if !ok {
		return
	}
	u, err := h.Svc.Replace(c.Request.Context(), req.input(), existing)
	if err != nil {
		h.fail(c, "replace", err)
		return
	}
	userOps.Add("replace", 1)
	response.JSON(c, http.StatusOK, toUserResponse(u))
}

func (h *UserHandler) Patch(c *gin.Context) {
	id, ok := h.userID(c)
	if !ok {
		return
	}
	var req patchUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, "patch", &application.ValidationError{Violations: validation.ToMessages(err)})
		return
	}
	existing, ok := h.find(c, "patch", id)
	if !ok {
		return
	}
	u, err := h.Svc.Update(c.Request.Context(), req.input(), existing)
	var verr *application.ValidationError
	if errors.As(err, &verr) {
		// the merged record is reported as one comma-joined message
		userErrors.Add("patch", 1)
		response.Error(c, http.StatusBadRequest, verr.Error())
		return
	}
	if err != nil {
		h.fail(c, "patch", err)
		return
	}
	userOps.Add("patch", 1)
	response.JSON(c, http.StatusOK, toUserResponse(u))
}

func (h *UserHandler) Delete(c *gin.Context) {
	u, ok := h.load(c, "delete")
	if !ok {
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), u); err != nil {
		h.fail(c, "delete", err)
		return
	}
	userOps.Add("delete", 1)
	c.Status(http.StatusNoContent)
}

// List filters by name, email and cpf (case-insensitive substring) and by exact age.
func (h *UserHandler) List(c *gin.Context) {
	var q listUsersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.fail(c, "list", &application.ValidationError{Violations: validation.ToMessages(err)})
		return
	}
	if c.Query("age") == "" {
		q.Age = nil
	}
	users, err := h.Svc.Find(c.Request.Context(), q.filter())
	if err != nil {
		h.fail(c, "list", err)
		return
	}
	userOps.Add("list", 1)
	response.JSON(c, http.StatusOK, toUserResponses(users))
}

func (h *UserHandler) SearchUsers(c *gin.Context) {
	if h.Search == nil {
		response.Error(c, http.StatusServiceUnavailable, "search is not configured")
		return
	}
	var q searchUsersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.fail(c, "search", &application.ValidationError{Violations: validation.ToMessages(err)})
		return
	}
	docs, err := h.Search.Search(c.Request.Context(), q.Q, q.Size)
	if err != nil {
		userErrors.Add("search", 1)
		h.Logger.WithError(err).WithField("q", q.Q).Error("user search failed")
		response.Error(c, http.StatusBadGateway, "search is unavailable")
		return
	}
	userOps.Add("search", 1)
	response.JSON(c, http.StatusOK, fromDocuments(docs))
}

func (h *UserHandler) userID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid user id")
		return 0, false
	}
	return id, true
}

// load parses the id and fetches the user, answering 400/404/500 itself.
func (h *UserHandler) load(c *gin.Context, op string) (*entity.User, bool) {
	id, ok := h.userID(c)
	if !ok {
		return nil, false
	}
	return h.find(c, op, id)
}

func (h *UserHandler) find(c *gin.Context, op string, id int64) (*entity.User, bool) {
	u, found, err := h.Svc.FindByID(c.Request.Context(), id)
	if err != nil {
		h.fail(c, op, err)
		return nil, false
	}
	if !found {
		response.Error(c, http.StatusNotFound, "user not found")
		return nil, false
	}
	return u, true
}

// fail maps service errors to responses. Validation and conflict errors are
// client errors; anything else is logged and hidden behind a 500.
func (h *UserHandler) fail(c *gin.Context, op string, err error) {
	userErrors.Add(op, 1)

	var verr *application.ValidationError
	if errors.As(err, &verr) {
		response.Error(c, http.StatusBadRequest, verr.Violations...)
		return
	}
	var cerr *application.ConflictError
	if errors.As(err, &cerr) {
		response.Error(c, http.StatusBadRequest, cerr.Message)
		return
	}
	if errors.Is(err, repository.ErrNotFound) {
		response.Error(c, http.StatusNotFound, "user not found")
		return
	}
	_ = c.Error(err)
	h.Logger.WithError(err).WithField("op", op).Error("user request failed")
	response.Error(c, http.StatusInternalServerError, "internal server error")
}
