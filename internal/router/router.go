package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/pprofhandler"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/portal-cidadao/api/handler"
	"github.com/fastygo/portal-cidadao/domain"
	"github.com/fastygo/portal-cidadao/internal/middleware"
	"github.com/fastygo/portal-cidadao/repository"
)

// CreateOccurrenceScope keys the per-user creation counter.
const CreateOccurrenceScope = "occurrence:create"

type Handlers struct {
	Auth         *apiHandler.AuthHandler
	Profile      *apiHandler.ProfileHandler
	Occurrence   *apiHandler.OccurrenceHandler
	Reference    *apiHandler.ReferenceHandler
	Analytics    *apiHandler.AnalyticsHandler
	Notification *apiHandler.NotificationHandler
	Health       *apiHandler.HealthHandler
	Metrics      fasthttp.RequestHandler
}

type Options struct {
	Auth        middleware.Middleware
	RateLimiter repository.RateLimiter
	Observer    middleware.RequestObserver
	UploadsDir  string
	Pprof       bool
	Logger      *zap.Logger
}

type routes struct {
	r    *router.Router
	opts Options
}

func (rt routes) handle(method, path string, h fasthttp.RequestHandler, mws ...middleware.Middleware) {
	mws = append([]middleware.Middleware{middleware.Instrument(path, rt.opts.Observer)}, mws...)
	rt.r.Handle(method, path, middleware.Chain(h, mws...))
}

// New builds the route table. The returned handler recovers panics and
// writes the access log.
func New(h Handlers, opts Options) fasthttp.RequestHandler {
	r := router.New()
	r.RedirectTrailingSlash = false
	rt := routes{r: r, opts: opts}

	authed := opts.Auth
	role := func(roles ...domain.Role) []middleware.Middleware {
		return []middleware.Middleware{authed, middleware.RequireRole(roles...)}
	}
	admin := role(domain.RoleAdmin)
	manager := role(domain.RoleDepartmentManager, domain.RoleAdmin)
	provider := role(domain.RoleServiceProvider, domain.RoleDepartmentManager, domain.RoleAdmin)
	citizen := role(domain.RoleCitizen)

	rt.handle(fasthttp.MethodGet, "/health", h.Health.Check)
	if h.Metrics != nil {
		r.GET("/metrics", h.Metrics)
	}

	// Auth
	rt.handle(fasthttp.MethodPost, "/api/auth/register", h.Auth.Register)
	rt.handle(fasthttp.MethodPost, "/api/auth/login", h.Auth.Login)
	rt.handle(fasthttp.MethodPost, "/api/auth/refresh", h.Auth.Refresh)
	rt.handle(fasthttp.MethodPost, "/api/auth/logout", h.Auth.Logout)

	rt.handle(fasthttp.MethodGet, "/api/profile", h.Profile.GetProfile, authed)
	rt.handle(fasthttp.MethodPut, "/api/profile", h.Profile.UpdateProfile, authed)

	// Occurrences
	occ := h.Occurrence
	rt.handle(fasthttp.MethodGet, "/api/occurrences", occ.List)
	rt.handle(fasthttp.MethodGet, "/api/occurrences/{id}", occ.Get)
	rt.handle(fasthttp.MethodPost, "/api/occurrences", occ.Create,
		authed, middleware.RateLimit(opts.RateLimiter, CreateOccurrenceScope, opts.Logger))
	rt.handle(fasthttp.MethodPost, "/api/occurrences/{id}/photos", occ.UploadPhotos, authed)
	rt.handle(fasthttp.MethodPut, "/api/occurrences/{id}/status", occ.SetStatus, admin...)
	rt.handle(fasthttp.MethodPut, "/api/occurrences/{id}/assign", occ.Reassign, admin...)
	rt.handle(fasthttp.MethodPost, "/api/occurrences/{id}/support", occ.Support, citizen...)
	rt.handle(fasthttp.MethodPost, "/api/occurrences/{id}/rating", occ.Rate, authed)
	rt.handle(fasthttp.MethodPost, "/api/occurrences/{id}/contest", occ.Contest, authed)

	// Triage
	rt.handle(fasthttp.MethodGet, "/api/triage/occurrences/pending-triage", occ.TriageQueue, admin...)
	rt.handle(fasthttp.MethodPost, "/api/triage/occurrences/{id}/assign", occ.Triage, admin...)
	rt.handle(fasthttp.MethodGet, "/api/triage/departments/{id}/users", occ.AssignableUsers, admin...)
	rt.handle(fasthttp.MethodGet, "/api/triage/department/my-occurrences", occ.DepartmentOccurrences, manager...)

	// Execution
	rt.handle(fasthttp.MethodGet, "/api/execution/my-assignments", occ.MyAssignments, provider...)
	rt.handle(fasthttp.MethodPost, "/api/execution/occurrence/{id}/start", occ.StartExecution, provider...)
	rt.handle(fasthttp.MethodPost, "/api/execution/occurrence/{id}/complete", occ.CompleteExecution, provider...)
	rt.handle(fasthttp.MethodPost, "/api/execution/occurrence/{id}/upload_after_photo", occ.UploadAfterPhoto, provider...)

	// Validation
	rt.handle(fasthttp.MethodGet, "/api/validation/pending-validation", occ.PendingValidation, manager...)
	rt.handle(fasthttp.MethodPost, "/api/validation/occurrence/{id}/approve", occ.Approve, manager...)
	rt.handle(fasthttp.MethodPost, "/api/validation/occurrence/{id}/reject", occ.Reject, manager...)

	// Evaluation
	rt.handle(fasthttp.MethodPost, "/api/evaluation/occurrences/{id}/evaluate", occ.Evaluate, authed)
	rt.handle(fasthttp.MethodPost, "/api/evaluation/occurrences/{id}/evaluation-photos", occ.UploadEvaluationPhotos, authed)
	rt.handle(fasthttp.MethodPost, "/api/evaluation/occurrences/{id}/contest", occ.Contest, authed)
	rt.handle(fasthttp.MethodGet, "/api/evaluation/admin/evaluations/pending", occ.PendingEvaluations, admin...)
	rt.handle(fasthttp.MethodGet, "/api/evaluation/admin/evaluations/low-rated", occ.LowRated, admin...)
	rt.handle(fasthttp.MethodGet, "/api/evaluation/admin/evaluations/contested", occ.Contested, admin...)
	rt.handle(fasthttp.MethodGet, "/api/evaluation/admin/evaluations/stats", h.Analytics.EvaluationStats, admin...)

	// Administration
	rt.handle(fasthttp.MethodGet, "/api/admin/departments", h.Reference.ListDepartments, admin...)
	rt.handle(fasthttp.MethodPost, "/api/admin/departments", h.Reference.CreateDepartment, admin...)
	rt.handle(fasthttp.MethodGet, "/api/admin/categories", h.Reference.ListCategories)
	rt.handle(fasthttp.MethodPost, "/api/admin/categories", h.Reference.CreateCategory, admin...)
	rt.handle(fasthttp.MethodGet, "/api/admin/dashboard/stats", h.Analytics.Stats, admin...)
	rt.handle(fasthttp.MethodGet, "/api/admin/dashboard/occurrences-by-category", h.Analytics.ByCategory, admin...)
	rt.handle(fasthttp.MethodGet, "/api/admin/dashboard/occurrences-timeline", h.Analytics.Timeline, admin...)
	rt.handle(fasthttp.MethodGet, "/api/admin/dashboard/performance-by-department", h.Analytics.ByDepartment, admin...)
	rt.handle(fasthttp.MethodGet, "/api/admin/users", h.Profile.ListStaff, admin...)
	rt.handle(fasthttp.MethodPost, "/api/admin/users", h.Profile.CreateStaff, admin...)

	rt.handle(fasthttp.MethodGet, "/api/users", h.Profile.ListUsers, admin...)
	rt.handle(fasthttp.MethodGet, "/api/users/{id}", h.Profile.GetUser, admin...)
	rt.handle(fasthttp.MethodPut, "/api/users/{id}", h.Profile.UpdateUser, admin...)
	rt.handle(fasthttp.MethodDelete, "/api/users/{id}", h.Profile.DeactivateUser, admin...)

	// Political panel
	rt.handle(fasthttp.MethodGet, "/api/political/dashboard/political-metrics", h.Analytics.PoliticalMetrics)
	rt.handle(fasthttp.MethodGet, "/api/political/dashboard/neighborhood-analysis", h.Analytics.NeighborhoodAnalysis)
	rt.handle(fasthttp.MethodGet, "/api/political/dashboard/success-stories", h.Analytics.SuccessStories)
	rt.handle(fasthttp.MethodGet, "/api/strategic/workflow-metrics", h.Analytics.WorkflowMetrics)
	rt.handle(fasthttp.MethodGet, "/api/strategic/management-evolution", h.Analytics.ManagementEvolution)
	rt.handle(fasthttp.MethodGet, "/api/strategic/political-kpis", h.Analytics.PoliticalKPIs)
	rt.handle(fasthttp.MethodGet, "/api/strategic/neighborhood-priority", h.Analytics.NeighborhoodPriority)

	// Notifications
	rt.handle(fasthttp.MethodGet, "/api/notifications", h.Notification.List, authed)
	rt.handle(fasthttp.MethodPatch, "/api/notifications/{id}/read", h.Notification.MarkRead, authed)
	rt.handle(fasthttp.MethodPost, "/api/notifications/mark-all-read", h.Notification.MarkAllRead, authed)

	if opts.Pprof {
		r.GET("/debug/pprof/{profile:*}", pprofhandler.PprofHandler)
	}

	if opts.UploadsDir != "" {
		r.ServeFilesCustom(domain.UploadsPathPrefix+"{filepath:*}", &fasthttp.FS{
			Root:            opts.UploadsDir,
			AcceptByteRange: true,
		})
	}

	return middleware.Chain(r.Handler, middleware.Recover(opts.Logger), middleware.AccessLog(opts.Logger))
}
