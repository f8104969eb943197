package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/portal-cidadao/api/transport"
	"github.com/fastygo/portal-cidadao/domain"
	"github.com/fastygo/portal-cidadao/pkg/httpcontext"
	profileUC "github.com/fastygo/portal-cidadao/usecase/profile"
)

// ProfileHandler serves the caller's own profile and the admin user management.
type ProfileHandler struct {
	baseHandler
	uc *profileUC.UseCase
}

func NewProfileHandler(uc *profileUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Get profile
// @Tags profile
// @Success 200 {object} transport.Envelope
// @Router /api/profile [get]
func (h *ProfileHandler) GetProfile(ctx *fasthttp.RequestCtx) {
	userID, ok := h.userID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.GetProfile(stdCtx, userID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, user)
}

// @Summary Update profile
// @Tags profile
// @Accept json
// @Produce json
// @Router /api/profile [put]
func (h *ProfileHandler) UpdateProfile(ctx *fasthttp.RequestCtx) {
	userID, ok := h.userID(ctx)
	if !ok {
		return
	}

	var req transport.ProfileUpdateRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.UpdateProfile(stdCtx, userID, profileUC.ProfileUpdate{
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary List users
// @Tags users
// @Router /api/users [get]
func (h *ProfileHandler) ListUsers(ctx *fasthttp.RequestCtx) {
	actorID, ok := h.userID(ctx)
	if !ok {
		return
	}

	q := profileUC.UserQuery{
		Role:         domain.Role(ctx.QueryArgs().Peek("user_type")),
		DepartmentID: queryInt64(ctx, "department_id"),
		Page:         queryInt(ctx, "page", 1),
		PerPage:      queryInt(ctx, "per_page", 0),
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	page, err := h.uc.ListUsers(stdCtx, actorID, q)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, page)
}

// @Summary List staff users
// @Tags admin
// @Router /api/admin/users [get]
func (h *ProfileHandler) ListStaff(ctx *fasthttp.RequestCtx) {
	actorID, ok := h.userID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	users, err := h.uc.ListStaff(stdCtx, actorID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, users)
}

// @Summary Create a staff user
// @Tags admin
// @Router /api/admin/users [post]
func (h *ProfileHandler) CreateStaff(ctx *fasthttp.RequestCtx) {
	actorID, ok := h.userID(ctx)
	if !ok {
		return
	}

	var req transport.StaffRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.CreateStaff(stdCtx, actorID, profileUC.StaffInput{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		Phone:        req.Phone,
		Role:         domain.Role(req.UserType),
		DepartmentID: req.DepartmentID,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, user)
}

// @Summary Get a user
// @Tags users
// @Router /api/users/{id} [get]
func (h *ProfileHandler) GetUser(ctx *fasthttp.RequestCtx) {
	actorID, ok := h.userID(ctx)
	if !ok {
		return
	}
	id, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.GetUser(stdCtx, actorID, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, user)
}

// @Summary Update a user
// @Tags users
// @Router /api/users/{id} [put]
func (h *ProfileHandler) UpdateUser(ctx *fasthttp.RequestCtx) {
	actorID, ok := h.userID(ctx)
	if !ok {
		return
	}
	id, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}

	var req transport.UserUpdateRequest
	if !h.decode(ctx, &req) {
		return
	}
	update := profileUC.UserUpdate{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		DepartmentID: req.DepartmentID,
		IsActive:     req.IsActive,
	}
	if req.UserType != nil {
		role := domain.Role(*req.UserType)
		update.Role = &role
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.UpdateUser(stdCtx, actorID, id, update)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, user)
}

// @Summary Deactivate a user
// @Tags users
// @Router /api/users/{id} [delete]
func (h *ProfileHandler) DeactivateUser(ctx *fasthttp.RequestCtx) {
	actorID, ok := h.userID(ctx)
	if !ok {
		return
	}
	id, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.DeactivateUser(stdCtx, actorID, id); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]string{"message": "user deactivated"})
}
