package handler

import (
	"context"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/portal-cidadao/api/transport"
	"github.com/fastygo/portal-cidadao/domain"
	"github.com/fastygo/portal-cidadao/pkg/httpcontext"
	occurrenceUC "github.com/fastygo/portal-cidadao/usecase/occurrence"
)

// OccurrenceHandler exposes the occurrence lifecycle and its work queues.
type OccurrenceHandler struct {
	baseHandler
	manager  *occurrenceUC.Manager
	queries  *occurrenceUC.Queries
	maxBytes int64
}

func NewOccurrenceHandler(manager *occurrenceUC.Manager, queries *occurrenceUC.Queries, maxUploadBytes int64, adapter *httpcontext.Adapter, logger *zap.Logger) *OccurrenceHandler {
	return &OccurrenceHandler{
		baseHandler: newBaseHandler(adapter, logger),
		manager:     manager,
		queries:     queries,
		maxBytes:    maxUploadBytes,
	}
}

// respondOccurrence answers with the enriched view of occ.
func (h *OccurrenceHandler) respondOccurrence(ctx *fasthttp.RequestCtx, stdCtx context.Context, status int, occ *domain.Occurrence) {
	view, err := h.queries.View(stdCtx, occ, false)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, status, view)
}

// @Summary List occurrences
// @Tags occurrences
// @Router /api/occurrences [get]
func (h *OccurrenceHandler) List(ctx *fasthttp.RequestCtx) {
	q := occurrenceUC.ListQuery{
		CategoryID: queryInt64(ctx, "category_id"),
		CitizenID:  queryInt64(ctx, "citizen_id"),
		Page:       queryInt(ctx, "page", 1),
		PerPage:    queryInt(ctx, "per_page", 0),
	}
	if raw := string(ctx.QueryArgs().Peek("status")); raw != "" {
		status, err := domain.ParseStatus(raw)
		if err != nil {
			h.respondError(ctx, err)
			return
		}
		q.Status = status
	}
	if raw := string(ctx.QueryArgs().Peek("priority")); raw != "" {
		priority, err := domain.ParsePriority(raw)
		if err != nil {
			h.respondError(ctx, err)
			return
		}
		q.Priority = priority
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	page, err := h.queries.List(stdCtx, q)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, page)
}

// @Summary Occurrence detail with timeline
// @Tags occurrences
// @Router /api/occurrences/{id} [get]
func (h *OccurrenceHandler) Get(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	view, err := h.queries.Get(stdCtx, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, view)
}

// @Summary Report an occurrence
// @Tags occurrences
// @Accept json,multipart/form-data
// @Router /api/occurrences [post]
func (h *OccurrenceHandler) Create(ctx *fasthttp.RequestCtx) {
	actorID, ok := h.userID(ctx)
	if !ok {
		return
	}

	req, uploads, err := h.createRequest(ctx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	var priority domain.Priority
	if req.Priority != "" {
		if priority, err = domain.ParsePriority(req.Priority); err != nil {
			h.respondError(ctx, err)
			return
		}
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	occ, err := h.manager.Create(stdCtx, actorID, occurrenceUC.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Address:     req.Address,
		Priority:    priority,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	if len(uploads) > 0 {
		if _, err := h.manager.AddPhotos(stdCtx, actorID, occ.ID, domain.PhotoBefore, uploads); err != nil {
			h.log(stdCtx).Warn("occurrence created without photos", zap.Int64("occurrence_id", occ.ID), zap.Error(err))
		}
	}
	h.respondOccurrence(ctx, stdCtx, http.StatusCreated, occ)
}

// createRequest reads the submission from a JSON body or from multipart
// form fields plus "photos" files.
func (h *OccurrenceHandler) createRequest(ctx *fasthttp.RequestCtx) (transport.CreateOccurrenceRequest, []domain.PhotoUpload, error) {
	var req transport.CreateOccurrenceRequest
	if !isMultipart(ctx) {
		return req, nil, transport.Decode(ctx.PostBody(), &req)
	}

	uploads, err := readUploads(ctx, h.maxBytes, "photos", "photo")
	if err != nil {
		return req, nil, err
	}
	req.Title = formValue(ctx, "title")
	req.Description = formValue(ctx, "description")
	req.Address = formValue(ctx, "address")
	req.Priority = formValue(ctx, "priority")
	var parseErr error
	if req.CategoryID, parseErr = parseFormInt(ctx, "category_id"); parseErr != nil {
		return req, nil, parseErr
	}
	if req.Latitude, parseErr = parseFormFloat(ctx, "latitude"); parseErr != nil {
		return req, nil, parseErr
	}
	if req.Longitude, parseErr = parseFormFloat(ctx, "longitude"); parseErr != nil {
		return req, nil, parseErr
	}
	return req, uploads, transport.Validate(&req)
}

// @Summary Attach before photos
// @Tags occurrences
// @Router /api/occurrences/{id}/photos [post]
func (h *OccurrenceHandler) UploadPhotos(ctx *fasthttp.RequestCtx) {
	h.upload(ctx, domain.PhotoBefore)
}

// @Summary Attach the after photo
// @Tags execution
// @Router /api/execution/occurrence/{id}/upload_after_photo [post]
func (h *OccurrenceHandler) UploadAfterPhoto(ctx *fasthttp.RequestCtx) {
	h.upload(ctx, domain.PhotoAfter)
}

// @Summary Attach evaluation photos
// @Tags evaluation
// @Router /api/evaluation/occurrences/{id}/evaluation-photos [post]
func (h *OccurrenceHandler) UploadEvaluationPhotos(ctx *fasthttp.RequestCtx) {
	h.upload(ctx, domain.PhotoEvaluation)
}

func (h *OccurrenceHandler) upload(ctx *fasthttp.RequestCtx, kind domain.PhotoKind) {
	actorID, ok := h.userID(ctx)
	if !ok {
		return
	}
	id, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}
	uploads, err := readUploads(ctx, h.maxBytes, "photos", "photo")
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	photos, err := h.manager.AddPhotos(stdCtx, actorID, id, kind, uploads)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, photos)
}

// @Summary Force a status
// @Tags occurrences
// @Router /api/occurrences/{id}/status [put]
func (h *OccurrenceHandler) SetStatus(ctx *fasthttp.RequestCtx) {
	var req transport.StatusRequest
	h.mutate(ctx, &req, func(stdCtx context.Context, actorID, id int64) (*domain.Occurrence, error) {
		status, err := domain.ParseStatus(req.Status)
		if err != nil {
			return nil, err
		}
		return h.manager.SetStatus(stdCtx, actorID, id, status, req.Comment)
	})
}

// @Summary Reassign an occurrence
// @Tags occurrences
// @Router /api/occurrences/{id}/assign [put]
func (h *OccurrenceHandler) Reassign(ctx *fasthttp.RequestCtx) {
	var req transport.AssignRequest
	h.mutate(ctx, &req, func(stdCtx context.Context, actorID, id int64) (*domain.Occurrence, error) {
		return h.manager.Reassign(stdCtx, actorID, id, req.AssignedTo)
	})
}

// @Summary Support an occurrence
// @Tags occurrences
// @Router /api/occurrences/{id}/support [post]
func (h *OccurrenceHandler) Support(ctx *fasthttp.RequestCtx) {
	h.mutate(ctx, nil, func(stdCtx context.Context, actorID, id int64) (*domain.Occurrence, error) {
		return h.manager.Support(stdCtx, actorID, id)
	})
}

// @Summary Rate the resolution
// @Tags occurrences
// @Router /api/occurrences/{id}/rating [post]
func (h *OccurrenceHandler) Rate(ctx *fasthttp.RequestCtx) {
	var req transport.RatingRequest
	h.mutate(ctx, &req, func(stdCtx context.Context, actorID, id int64) (*domain.Occurrence, error) {
		return h.manager.Rate(stdCtx, actorID, id, req.Rating, req.Feedback)
	})
}

// @Summary Contest a resolution
// @Tags occurrences
// @Router /api/occurrences/{id}/contest [post]
func (h *OccurrenceHandler) Contest(ctx *fasthttp.RequestCtx) {
	var req transport.ReasonRequest
	h.mutate(ctx, &req, func(stdCtx context.Context, actorID, id int64) (*domain.Occurrence, error) {
		return h.manager.Contest(stdCtx, actorID, id, req.Reason)
	})
}

type mutation func(stdCtx context.Context, actorID, occurrenceID int64) (*domain.Occurrence, error)

// mutate runs one lifecycle operation on the {id} occurrence. A nil req
// means the operation takes no body; otherwise an empty body decodes to the
// zero request.
func (h *OccurrenceHandler) mutate(ctx *fasthttp.RequestCtx, req interface{}, fn mutation) {
	actorID, ok := h.userID(ctx)
	if !ok {
		return
	}
	id, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}
	if req != nil && !h.decodeOptional(ctx, req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	occ, err := fn(stdCtx, actorID, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondOccurrence(ctx, stdCtx, http.StatusOK, occ)
}

// list answers with a work queue.
func (h *OccurrenceHandler) list(ctx *fasthttp.RequestCtx, fn func(stdCtx context.Context, actorID int64) ([]domain.OccurrenceView, error)) {
	actorID, ok := h.userID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	views, err := fn(stdCtx, actorID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	if views == nil {
		views = []domain.OccurrenceView{}
	}
	h.respondSuccess(ctx, http.StatusOK, views)
}
