package handler

import (
	"context"
	"net/http"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/portal-cidadao/api/transport"
	"github.com/fastygo/portal-cidadao/domain"
	occurrenceUC "github.com/fastygo/portal-cidadao/usecase/occurrence"
)

// @Summary Occurrences waiting for triage
// @Tags triage
// @Router /api/triage/occurrences/pending-triage [get]
func (h *OccurrenceHandler) TriageQueue(ctx *fasthttp.RequestCtx) {
	h.list(ctx, h.queries.TriageQueue)
}

// @Summary Triage an occurrence
// @Tags triage
// @Router /api/triage/occurrences/{id}/assign [post]
func (h *OccurrenceHandler) Triage(ctx *fasthttp.RequestCtx) {
	var req transport.TriageRequest
	h.mutate(ctx, &req, func(stdCtx context.Context, actorID, id int64) (*domain.Occurrence, error) {
		priority, err := domain.ParsePriority(req.Priority)
		if err != nil {
			return nil, err
		}
		return h.manager.Triage(stdCtx, actorID, id, occurrenceUC.TriageInput{
			DepartmentID: req.DepartmentID,
			Priority:     priority,
			AssigneeID:   req.AssignedToID,
		})
	})
}

// @Summary Staff that can receive a department's occurrences
// @Tags triage
// @Router /api/triage/departments/{id}/users [get]
func (h *OccurrenceHandler) AssignableUsers(ctx *fasthttp.RequestCtx) {
	actorID, ok := h.userID(ctx)
	if !ok {
		return
	}
	departmentID, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	users, err := h.queries.AssignableUsers(stdCtx, actorID, departmentID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, users)
}

// @Summary Occurrences of the manager's department
// @Tags triage
// @Router /api/triage/department/my-occurrences [get]
func (h *OccurrenceHandler) DepartmentOccurrences(ctx *fasthttp.RequestCtx) {
	h.list(ctx, h.queries.DepartmentOccurrences)
}

// @Summary Work assigned to the provider
// @Tags execution
// @Router /api/execution/my-assignments [get]
func (h *OccurrenceHandler) MyAssignments(ctx *fasthttp.RequestCtx) {
	h.list(ctx, h.queries.MyAssignments)
}

// @Summary Start execution
// @Tags execution
// @Router /api/execution/occurrence/{id}/start [post]
func (h *OccurrenceHandler) StartExecution(ctx *fasthttp.RequestCtx) {
	h.mutate(ctx, nil, h.manager.StartExecution)
}

// @Summary Complete execution
// @Tags execution
// @Router /api/execution/occurrence/{id}/complete [post]
func (h *OccurrenceHandler) CompleteExecution(ctx *fasthttp.RequestCtx) {
	var req transport.CompleteRequest
	h.mutate(ctx, &req, func(stdCtx context.Context, actorID, id int64) (*domain.Occurrence, error) {
		return h.manager.CompleteExecution(stdCtx, actorID, id, occurrenceUC.CompleteInput{
			ExecutionNotes: req.ExecutionNotes,
			MaterialsUsed:  req.MaterialsUsed,
		})
	})
}

// @Summary Resolved occurrences waiting for the manager
// @Tags validation
// @Router /api/validation/pending-validation [get]
func (h *OccurrenceHandler) PendingValidation(ctx *fasthttp.RequestCtx) {
	h.list(ctx, h.queries.PendingValidation)
}

// @Summary Approve a resolution
// @Tags validation
// @Router /api/validation/occurrence/{id}/approve [post]
func (h *OccurrenceHandler) Approve(ctx *fasthttp.RequestCtx) {
	h.mutate(ctx, nil, h.manager.Approve)
}

// @Summary Send a resolution back to execution
// @Tags validation
// @Router /api/validation/occurrence/{id}/reject [post]
func (h *OccurrenceHandler) Reject(ctx *fasthttp.RequestCtx) {
	var req transport.RejectRequest
	h.mutate(ctx, &req, func(stdCtx context.Context, actorID, id int64) (*domain.Occurrence, error) {
		return h.manager.Reject(stdCtx, actorID, id, req.RejectionReason)
	})
}

// @Summary Structured evaluation
// @Tags evaluation
// @Router /api/evaluation/occurrences/{id}/evaluate [post]
func (h *OccurrenceHandler) Evaluate(ctx *fasthttp.RequestCtx) {
	actorID, ok := h.userID(ctx)
	if !ok {
		return
	}
	id, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}
	var req transport.EvaluationRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	occ, evaluation, err := h.manager.Evaluate(stdCtx, actorID, id, occurrenceUC.EvaluationInput{
		Rating:              req.Rating,
		QualityRating:       req.QualityRating,
		SpeedRating:         req.SpeedRating,
		CommunicationRating: req.CommunicationRating,
		Feedback:            req.Feedback,
		WouldRecommend:      req.WouldRecommend == nil || *req.WouldRecommend,
		NeedsRework:         req.NeedsRework,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	view, err := h.queries.View(stdCtx, occ, false)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, map[string]interface{}{
		"occurrence": view,
		"evaluation": evaluation,
	})
}

// @Summary Finished occurrences without a rating
// @Tags evaluation
// @Router /api/evaluation/admin/evaluations/pending [get]
func (h *OccurrenceHandler) PendingEvaluations(ctx *fasthttp.RequestCtx) {
	h.list(ctx, h.queries.PendingEvaluations)
}

// @Summary Low rated occurrences
// @Tags evaluation
// @Router /api/evaluation/admin/evaluations/low-rated [get]
func (h *OccurrenceHandler) LowRated(ctx *fasthttp.RequestCtx) {
	h.list(ctx, h.queries.LowRated)
}

// @Summary Contested occurrences
// @Tags evaluation
// @Router /api/evaluation/admin/evaluations/contested [get]
func (h *OccurrenceHandler) Contested(ctx *fasthttp.RequestCtx) {
	h.list(ctx, h.queries.Contested)
}
