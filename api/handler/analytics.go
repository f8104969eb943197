package handler

import (
	"context"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/portal-cidadao/pkg/httpcontext"
	analyticsUC "github.com/fastygo/portal-cidadao/usecase/analytics"
)

// AnalyticsHandler serves the admin dashboard and the public political panel.
type AnalyticsHandler struct {
	baseHandler
	uc *analyticsUC.UseCase
}

func NewAnalyticsHandler(uc *analyticsUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

func (h *AnalyticsHandler) serve(ctx *fasthttp.RequestCtx, fn func(context.Context) (interface{}, error)) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	data, err := fn(stdCtx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, data)
}

// @Summary Dashboard totals
// @Tags admin
// @Router /api/admin/dashboard/stats [get]
func (h *AnalyticsHandler) Stats(ctx *fasthttp.RequestCtx) {
	h.serve(ctx, func(c context.Context) (interface{}, error) { return h.uc.DashboardStats(c) })
}

// @Tags admin
// @Router /api/admin/dashboard/occurrences-by-category [get]
func (h *AnalyticsHandler) ByCategory(ctx *fasthttp.RequestCtx) {
	h.serve(ctx, func(c context.Context) (interface{}, error) { return h.uc.ByCategory(c) })
}

// @Tags admin
// @Router /api/admin/dashboard/occurrences-timeline [get]
func (h *AnalyticsHandler) Timeline(ctx *fasthttp.RequestCtx) {
	days := queryInt(ctx, "days", 0)
	h.serve(ctx, func(c context.Context) (interface{}, error) { return h.uc.Timeline(c, days) })
}

// @Tags admin
// @Router /api/admin/dashboard/performance-by-department [get]
func (h *AnalyticsHandler) ByDepartment(ctx *fasthttp.RequestCtx) {
	h.serve(ctx, func(c context.Context) (interface{}, error) { return h.uc.ByDepartment(c) })
}

// @Tags evaluation
// @Router /api/evaluation/admin/evaluations/stats [get]
func (h *AnalyticsHandler) EvaluationStats(ctx *fasthttp.RequestCtx) {
	h.serve(ctx, func(c context.Context) (interface{}, error) { return h.uc.EvaluationStats(c) })
}

// @Summary Public satisfaction metrics
// @Tags political
// @Router /api/political/dashboard/political-metrics [get]
func (h *AnalyticsHandler) PoliticalMetrics(ctx *fasthttp.RequestCtx) {
	h.serve(ctx, func(c context.Context) (interface{}, error) { return h.uc.PoliticalMetrics(c) })
}

// @Tags political
// @Router /api/political/dashboard/neighborhood-analysis [get]
func (h *AnalyticsHandler) NeighborhoodAnalysis(ctx *fasthttp.RequestCtx) {
	h.serve(ctx, func(c context.Context) (interface{}, error) { return h.uc.NeighborhoodAnalysis(c) })
}

// @Tags political
// @Router /api/political/dashboard/success-stories [get]
func (h *AnalyticsHandler) SuccessStories(ctx *fasthttp.RequestCtx) {
	h.serve(ctx, func(c context.Context) (interface{}, error) { return h.uc.SuccessStories(c) })
}

// @Summary Lifecycle funnel and stage latencies
// @Tags strategic
// @Router /api/strategic/workflow-metrics [get]
func (h *AnalyticsHandler) WorkflowMetrics(ctx *fasthttp.RequestCtx) {
	days := queryInt(ctx, "days", 0)
	h.serve(ctx, func(c context.Context) (interface{}, error) { return h.uc.WorkflowMetrics(c, days) })
}

// @Tags strategic
// @Router /api/strategic/management-evolution [get]
func (h *AnalyticsHandler) ManagementEvolution(ctx *fasthttp.RequestCtx) {
	h.serve(ctx, func(c context.Context) (interface{}, error) { return h.uc.ManagementEvolution(c) })
}

// @Tags strategic
// @Router /api/strategic/political-kpis [get]
func (h *AnalyticsHandler) PoliticalKPIs(ctx *fasthttp.RequestCtx) {
	days := queryInt(ctx, "days", 0)
	h.serve(ctx, func(c context.Context) (interface{}, error) { return h.uc.PoliticalKPIs(c, days) })
}

// @Tags strategic
// @Router /api/strategic/neighborhood-priority [get]
func (h *AnalyticsHandler) NeighborhoodPriority(ctx *fasthttp.RequestCtx) {
	days := queryInt(ctx, "days", 0)
	h.serve(ctx, func(c context.Context) (interface{}, error) { return h.uc.NeighborhoodPriority(c, days) })
}
