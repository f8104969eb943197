package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/portal-cidadao/api/transport"
	"github.com/fastygo/portal-cidadao/pkg/httpcontext"
	referenceUC "github.com/fastygo/portal-cidadao/usecase/reference"
)

// ReferenceHandler manages departments and categories.
type ReferenceHandler struct {
	baseHandler
	uc *referenceUC.UseCase
}

func NewReferenceHandler(uc *referenceUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *ReferenceHandler {
	return &ReferenceHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List departments
// @Tags admin
// @Router /api/admin/departments [get]
func (h *ReferenceHandler) ListDepartments(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	departments, err := h.uc.ListDepartments(stdCtx, !ctx.QueryArgs().GetBool("all"))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, departments)
}

// @Summary Create a department
// @Tags admin
// @Router /api/admin/departments [post]
func (h *ReferenceHandler) CreateDepartment(ctx *fasthttp.RequestCtx) {
	actorID, ok := h.userID(ctx)
	if !ok {
		return
	}
	var req transport.DepartmentRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	department, err := h.uc.CreateDepartment(stdCtx, actorID, referenceUC.DepartmentInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, department)
}

// @Summary List active categories
// @Tags admin
// @Router /api/admin/categories [get]
func (h *ReferenceHandler) ListCategories(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	categories, err := h.uc.ListCategories(stdCtx, true)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, categories)
}

// @Summary Create a category
// @Tags admin
// @Router /api/admin/categories [post]
func (h *ReferenceHandler) CreateCategory(ctx *fasthttp.RequestCtx) {
	actorID, ok := h.userID(ctx)
	if !ok {
		return
	}
	var req transport.CategoryRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	category, err := h.uc.CreateCategory(stdCtx, actorID, referenceUC.CategoryInput{
		Name:         req.Name,
		Description:  req.Description,
		Icon:         req.Icon,
		Color:        req.Color,
		DepartmentID: req.DepartmentID,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, category)
}
