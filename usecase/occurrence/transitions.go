package occurrence

import (
	"context"
	"fmt"
	"strings"

	"github.com/fastygo/portal-cidadao/domain"
	"github.com/fastygo/portal-cidadao/repository"
)

// CreateInput is a citizen submission.
type CreateInput struct {
	Title       string
	Description string
	CategoryID  int64
	Latitude    float64
	Longitude   float64
	Address     string
	Priority    domain.Priority
}

// TriageInput assigns department, priority and an optional handler.
type TriageInput struct {
	DepartmentID int64
	Priority     domain.Priority
	AssigneeID   *int64
}

// CompleteInput closes the execution step.
type CompleteInput struct {
	ExecutionNotes string
	MaterialsUsed  string
}

// EvaluationInput is structured citizen feedback.
type EvaluationInput struct {
	Rating              int
	QualityRating       int
	SpeedRating         int
	CommunicationRating int
	Feedback            string
	WouldRecommend      bool
	NeedsRework         bool
}

// Create stores a new OPEN occurrence reported by actorID.
func (m *Manager) Create(ctx context.Context, actorID int64, in CreateInput) (*domain.Occurrence, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Address = strings.TrimSpace(in.Address)
	switch {
	case in.Title == "":
		return nil, domain.Invalidf("title is required")
	case in.Description == "":
		return nil, domain.Invalidf("description is required")
	case in.CategoryID == 0:
		return nil, domain.Invalidf("category_id is required")
	case in.Address == "":
		return nil, domain.Invalidf("address is required")
	case in.Latitude < -90 || in.Latitude > 90:
		return nil, domain.Invalidf("latitude out of range")
	case in.Longitude < -180 || in.Longitude > 180:
		return nil, domain.Invalidf("longitude out of range")
	}
	if in.Priority == "" {
		in.Priority = domain.PriorityMedium
	}

	var occ *domain.Occurrence
	err := m.tx.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		actor, err := loadActor(ctx, store, actorID)
		if err != nil {
			return err
		}
		if err := domain.Authorize(actor.Actor(), domain.CapReport).Err(); err != nil {
			return err
		}
		if _, err := store.Categories().GetByID(ctx, in.CategoryID); err != nil {
			return err
		}

		occ = &domain.Occurrence{
			Title:       in.Title,
			Description: in.Description,
			CategoryID:  in.CategoryID,
			CitizenID:   actor.ID,
			Latitude:    in.Latitude,
			Longitude:   in.Longitude,
			Address:     in.Address,
			Status:      domain.StatusOpen,
			Priority:    in.Priority,
		}
		if err := store.Occurrences().Create(ctx, occ); err != nil {
			return err
		}
		entry := domain.NewTimelineEntry(occ.ID, actor.ID, domain.ActionCreated,
			"Ocorrência criada pelo cidadão", "", domain.StatusOpen)
		return store.Timeline().Append(ctx, entry)
	})
	m.observe(domain.EventCreate, err)
	if err != nil {
		return nil, err
	}

	m.dispatch(ctx, []domain.Notification{{
		Role:         rolePtr(domain.RoleAdmin),
		OccurrenceID: occ.ID,
		Kind:         domain.NotifyOccurrenceCreated,
		Message:      fmt.Sprintf("Nova ocorrência aguardando triagem: %s", occ.Title),
	}})
	return occ, nil
}

// Triage assigns an OPEN occurrence and moves it to IN_PROGRESS.
func (m *Manager) Triage(ctx context.Context, actorID, occurrenceID int64, in TriageInput) (*domain.Occurrence, error) {
	if in.DepartmentID == 0 || in.Priority == "" {
		return nil, domain.Invalidf("department_id and priority are required")
	}
	return m.run(ctx, domain.EventTriage, actorID, occurrenceID, func(ctx context.Context, c *change) (string, string, error) {
		if err := domain.Authorize(c.actor.Actor(), domain.CapTriage).Err(); err != nil {
			return "", "", err
		}
		next, err := domain.NextStatus(c.occ.Status, domain.EventTriage)
		if err != nil {
			return "", "", err
		}
		department, err := c.store.Departments().GetByID(ctx, in.DepartmentID)
		if err != nil {
			return "", "", err
		}
		assigneeName := "Nenhum usuário específico"
		var assignee *domain.User
		if in.AssigneeID != nil {
			if assignee, err = loadAssignee(ctx, c.store, *in.AssigneeID); err != nil {
				return "", "", err
			}
			assigneeName = assignee.Name
		}

		departmentID := department.ID
		approvedBy := c.actor.ID
		now := c.now
		c.occ.DepartmentID = &departmentID
		c.occ.Priority = in.Priority
		c.occ.AssignedTo = nil
		if assignee != nil {
			id := assignee.ID
			c.occ.AssignedTo = &id
		}
		c.occ.ApprovedAt = &now
		c.occ.ApprovedByID = &approvedBy
		c.occ.Status = next

		message := fmt.Sprintf("Ocorrência #%d atribuída: %s", c.occ.ID, c.occ.Title)
		if assignee != nil {
			c.notify(toUser(assignee.ID, domain.NotifyAssigned, message))
		} else {
			c.notify(toRole(domain.RoleServiceProvider, &departmentID, domain.NotifyAssigned, message))
		}

		return domain.ActionTriaged, fmt.Sprintf("Atribuída ao departamento: %s. Prioridade: %s. Atribuída a: %s.",
			department.Name, strings.ToUpper(string(in.Priority)), assigneeName), nil
	})
}

// StartExecution records the start of work. It fails when execution already started.
func (m *Manager) StartExecution(ctx context.Context, actorID, occurrenceID int64) (*domain.Occurrence, error) {
	return m.run(ctx, domain.EventStartExecution, actorID, occurrenceID, func(_ context.Context, c *change) (string, string, error) {
		if err := m.authorizeExecution(c); err != nil {
			return "", "", err
		}
		if _, err := domain.NextStatus(c.occ.Status, domain.EventStartExecution); err != nil {
			return "", "", err
		}
		if c.occ.StartedAt != nil {
			return "", "", domain.ErrAlreadyStarted
		}
		now := c.now
		c.occ.StartedAt = &now
		return domain.ActionExecutionStarted,
			fmt.Sprintf("O Prestador de Serviço %s iniciou a execução.", c.actor.Name), nil
	})
}

// CompleteExecution moves an IN_PROGRESS occurrence to RESOLVED.
func (m *Manager) CompleteExecution(ctx context.Context, actorID, occurrenceID int64, in CompleteInput) (*domain.Occurrence, error) {
	return m.run(ctx, domain.EventCompleteExecution, actorID, occurrenceID, func(_ context.Context, c *change) (string, string, error) {
		if err := m.authorizeExecution(c); err != nil {
			return "", "", err
		}
		next, err := domain.NextStatus(c.occ.Status, domain.EventCompleteExecution)
		if err != nil {
			return "", "", err
		}
		now := c.now
		c.occ.CompletedAt = &now
		c.occ.ResolvedAt = &now
		c.occ.ExecutionNotes = strings.TrimSpace(in.ExecutionNotes)
		c.occ.MaterialsUsed = strings.TrimSpace(in.MaterialsUsed)
		c.occ.Status = next

		c.notify(toRole(domain.RoleDepartmentManager, c.occ.DepartmentID, domain.NotifyAwaitingApproval,
			fmt.Sprintf("Ocorrência #%d aguardando validação: %s", c.occ.ID, c.occ.Title)))

		return domain.ActionExecutionCompleted,
			fmt.Sprintf("O Prestador de Serviço %s concluiu a execução. Aguardando validação.", c.actor.Name), nil
	})
}

// Approve validates a RESOLVED occurrence and closes it.
func (m *Manager) Approve(ctx context.Context, actorID, occurrenceID int64) (*domain.Occurrence, error) {
	return m.run(ctx, domain.EventApprove, actorID, occurrenceID, func(_ context.Context, c *change) (string, string, error) {
		if err := authorizeValidation(c); err != nil {
			return "", "", err
		}
		next, err := domain.NextStatus(c.occ.Status, domain.EventApprove)
		if err != nil {
			return "", "", err
		}
		now := c.now
		validator := c.actor.ID
		c.occ.ValidatedAt = &now
		c.occ.ValidatedByID = &validator
		c.occ.Status = next

		c.notify(toUser(c.occ.CitizenID, domain.NotifyClosed,
			fmt.Sprintf("Sua ocorrência foi resolvida e validada: %s", c.occ.Title)))

		return domain.ActionValidationApproved,
			fmt.Sprintf("O Gestor %s aprovou a execução. Ocorrência fechada.", c.actor.Name), nil
	})
}

// Reject sends a RESOLVED occurrence back to IN_PROGRESS.
func (m *Manager) Reject(ctx context.Context, actorID, occurrenceID int64, reason string) (*domain.Occurrence, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.Invalidf("rejection_reason is required")
	}
	return m.run(ctx, domain.EventReject, actorID, occurrenceID, func(_ context.Context, c *change) (string, string, error) {
		if err := authorizeValidation(c); err != nil {
			return "", "", err
		}
		next, err := domain.NextStatus(c.occ.Status, domain.EventReject)
		if err != nil {
			return "", "", err
		}
		c.occ.RejectionReason = reason
		c.occ.ResolvedAt = nil
		c.occ.CompletedAt = nil
		c.occ.Status = next

		message := fmt.Sprintf("Execução da ocorrência #%d rejeitada: %s", c.occ.ID, reason)
		if c.occ.AssignedTo != nil {
			c.notify(toUser(*c.occ.AssignedTo, domain.NotifyRejected, message))
		} else {
			c.notify(toRole(domain.RoleServiceProvider, c.occ.DepartmentID, domain.NotifyRejected, message))
		}

		return domain.ActionValidationRejected,
			fmt.Sprintf("O Gestor %s rejeitou a execução. Motivo: %s", c.actor.Name, reason), nil
	})
}

// Rate stores the reporter's rating and closes a RESOLVED occurrence. Low
// ratings also flag it for review.
func (m *Manager) Rate(ctx context.Context, actorID, occurrenceID int64, rating int, feedback string) (*domain.Occurrence, error) {
	if !domain.ValidRating(rating) {
		return nil, domain.ErrInvalidRating
	}
	feedback = strings.TrimSpace(feedback)
	return m.run(ctx, domain.EventRate, actorID, occurrenceID, func(_ context.Context, c *change) (string, string, error) {
		if err := domain.Authorize(c.actor.Actor()).Err(); err != nil {
			return "", "", err
		}
		if !c.occ.IsReporter(c.actor.ID) {
			return "", "", domain.ErrNotReporter
		}
		next, err := domain.NextStatus(c.occ.Status, domain.EventRate)
		if err != nil {
			return "", "", err
		}
		c.occ.ApplyRating(rating, feedback, false, c.now)
		c.occ.Status = next
		notifyLowRating(c, false)

		return domain.ActionRated, fmt.Sprintf("Cidadão avaliou com %d estrela(s)", rating), nil
	})
}

// Evaluate stores a structured evaluation, once per occurrence.
func (m *Manager) Evaluate(ctx context.Context, actorID, occurrenceID int64, in EvaluationInput) (*domain.Occurrence, *domain.Evaluation, error) {
	evaluation := &domain.Evaluation{
		OccurrenceID:        occurrenceID,
		Rating:              in.Rating,
		QualityRating:       in.QualityRating,
		SpeedRating:         in.SpeedRating,
		CommunicationRating: in.CommunicationRating,
		Feedback:            strings.TrimSpace(in.Feedback),
		WouldRecommend:      in.WouldRecommend,
		NeedsRework:         in.NeedsRework,
	}
	if err := evaluation.Validate(); err != nil {
		return nil, nil, err
	}

	occ, err := m.run(ctx, domain.EventEvaluate, actorID, occurrenceID, func(ctx context.Context, c *change) (string, string, error) {
		if err := domain.Authorize(c.actor.Actor()).Err(); err != nil {
			return "", "", err
		}
		if !c.occ.IsReporter(c.actor.ID) {
			return "", "", domain.ErrNotReporter
		}
		next, err := domain.NextStatus(c.occ.Status, domain.EventEvaluate)
		if err != nil {
			return "", "", err
		}
		existing, err := c.store.Evaluations().GetByOccurrence(ctx, c.occ.ID)
		if err != nil {
			return "", "", err
		}
		if existing != nil {
			return "", "", domain.ErrAlreadyEvaluated
		}

		evaluation.CitizenID = c.actor.ID
		if err := c.store.Evaluations().Create(ctx, evaluation); err != nil {
			return "", "", err
		}
		c.occ.ApplyRating(evaluation.Rating, evaluation.Feedback, evaluation.NeedsRework, c.now)
		c.occ.Status = next
		notifyLowRating(c, evaluation.NeedsRework)

		return domain.ActionEvaluated, fmt.Sprintf("Cidadão avaliou com %d estrela(s)", evaluation.Rating), nil
	})
	if err != nil {
		return nil, nil, err
	}
	return occ, evaluation, nil
}

// Contest reopens a RESOLVED or CLOSED occurrence on the reporter's request.
func (m *Manager) Contest(ctx context.Context, actorID, occurrenceID int64, reason string) (*domain.Occurrence, error) {
	reason = strings.TrimSpace(reason)
	return m.run(ctx, domain.EventContest, actorID, occurrenceID, func(_ context.Context, c *change) (string, string, error) {
		if err := domain.Authorize(c.actor.Actor()).Err(); err != nil {
			return "", "", err
		}
		if !c.occ.IsReporter(c.actor.ID) {
			return "", "", domain.ErrNotReporter
		}
		next, err := domain.NextStatus(c.occ.Status, domain.EventContest)
		if err != nil {
			return "", "", err
		}
		now := c.now
		c.occ.ContestedAt = &now
		c.occ.ContestReason = reason
		c.occ.NeedsReview = true
		c.occ.ReviewReason = reason
		if reason == "" {
			c.occ.ReviewReason = "Contestação do cidadão"
		}
		c.occ.Status = next

		c.notify(toRole(domain.RoleAdmin, nil, domain.NotifyContested,
			fmt.Sprintf("Ocorrência #%d contestada pelo cidadão: %s", c.occ.ID, c.occ.ReviewReason)))

		shown := reason
		if shown == "" {
			shown = "Sem motivo especificado"
		}
		return domain.ActionContested, "Cidadão contestou a resolução: " + shown, nil
	})
}

// SetStatus is the admin override: any status from any status.
func (m *Manager) SetStatus(ctx context.Context, actorID, occurrenceID int64, status domain.Status, comment string) (*domain.Occurrence, error) {
	if _, err := domain.ParseStatus(string(status)); err != nil {
		return nil, err
	}
	comment = strings.TrimSpace(comment)
	return m.run(ctx, domain.EventSetStatus, actorID, occurrenceID, func(_ context.Context, c *change) (string, string, error) {
		if err := domain.Authorize(c.actor.Actor(), domain.CapOverride).Err(); err != nil {
			return "", "", err
		}
		if status == domain.StatusResolved && c.prev != domain.StatusResolved {
			now := c.now
			c.occ.ResolvedAt = &now
		}
		if c.occ.AssignedTo == nil {
			id := c.actor.ID
			c.occ.AssignedTo = &id
		}
		c.occ.Status = status

		if c.prev != status {
			c.notify(toUser(c.occ.CitizenID, domain.NotifyStatusChanged,
				fmt.Sprintf("Status da sua ocorrência alterado para %s", status)))
		}

		description := comment
		if description == "" {
			description = fmt.Sprintf("Status alterado de %s para %s", c.prev, status)
		}
		return domain.ActionStatusChanged, description, nil
	})
}

// Reassign sets or clears the assignee without touching the status.
func (m *Manager) Reassign(ctx context.Context, actorID, occurrenceID int64, assigneeID *int64) (*domain.Occurrence, error) {
	return m.run(ctx, domain.EventReassign, actorID, occurrenceID, func(ctx context.Context, c *change) (string, string, error) {
		if err := domain.Authorize(c.actor.Actor(), domain.CapOverride).Err(); err != nil {
			return "", "", err
		}
		if assigneeID == nil {
			c.occ.AssignedTo = nil
			return domain.ActionAssigned, "Atribuição removida", nil
		}
		assignee, err := loadAssignee(ctx, c.store, *assigneeID)
		if err != nil {
			return "", "", err
		}
		id := assignee.ID
		c.occ.AssignedTo = &id
		c.notify(toUser(assignee.ID, domain.NotifyAssigned,
			fmt.Sprintf("Ocorrência #%d atribuída: %s", c.occ.ID, c.occ.Title)))
		return domain.ActionAssigned, "Atribuída para " + assignee.Name, nil
	})
}

// Support records a citizen endorsement of someone else's occurrence.
func (m *Manager) Support(ctx context.Context, actorID, occurrenceID int64) (*domain.Occurrence, error) {
	return m.run(ctx, domain.EventSupport, actorID, occurrenceID, func(ctx context.Context, c *change) (string, string, error) {
		if err := domain.Authorize(c.actor.Actor(), domain.CapSupport).Err(); err != nil {
			return "", "", err
		}
		if c.occ.IsReporter(c.actor.ID) {
			return "", "", domain.Forbiddenf("citizens cannot support their own occurrence")
		}
		exists, err := c.store.Supports().Exists(ctx, c.occ.ID, c.actor.ID)
		if err != nil {
			return "", "", err
		}
		if exists {
			return "", "", domain.ErrAlreadySupported
		}
		if err := c.store.Supports().Create(ctx, &domain.Support{OccurrenceID: c.occ.ID, CitizenID: c.actor.ID}); err != nil {
			return "", "", err
		}
		c.readOnly = true
		return domain.ActionSupported, c.actor.Name + " apoiou esta ocorrência", nil
	})
}

func (m *Manager) authorizeExecution(c *change) error {
	if err := domain.Authorize(c.actor.Actor(), domain.CapExecute).Err(); err != nil {
		return err
	}
	if !canExecute(c.actor, c.occ) {
		return domain.Forbiddenf("occurrence is not assigned to you or your department")
	}
	return nil
}

func authorizeValidation(c *change) error {
	if err := domain.Authorize(c.actor.Actor(), domain.CapValidate).Err(); err != nil {
		return err
	}
	if !c.actor.InDepartment(c.occ.DepartmentID) {
		return domain.ErrWrongDepartment
	}
	return nil
}

func loadAssignee(ctx context.Context, store repository.Store, id int64) (*domain.User, error) {
	assignee, err := store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !assignee.IsActive || !assignee.Role.IsStaff() {
		return nil, domain.Invalidf("user %d cannot be assigned occurrences", id)
	}
	return assignee, nil
}

func notifyLowRating(c *change, forced bool) {
	if c.occ.Rating == nil || (*c.occ.Rating > domain.LowRatingThreshold && !forced) {
		return
	}
	c.notify(toRole(domain.RoleAdmin, nil, domain.NotifyLowRating,
		fmt.Sprintf("Ocorrência #%d recebeu avaliação baixa (%d)", c.occ.ID, *c.occ.Rating)))
}

func rolePtr(role domain.Role) *domain.Role {
	return &role
}
