package transport

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=120"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Phone    string `json:"phone" validate:"max=20"`
	Address  string `json:"address" validate:"max=500"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest is used by both refresh and logout.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type ProfileUpdateRequest struct {
	Name    *string `json:"name" validate:"omitempty,min=1,max=100"`
	Phone   *string `json:"phone" validate:"omitempty,max=20"`
	Address *string `json:"address" validate:"omitempty,max=500"`
}

// CreateOccurrenceRequest is accepted as JSON or as multipart form fields.
type CreateOccurrenceRequest struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description string  `json:"description" validate:"required"`
	CategoryID  int64   `json:"category_id" validate:"required,gt=0"`
	Latitude    float64 `json:"latitude" validate:"latitude"`
	Longitude   float64 `json:"longitude" validate:"longitude"`
	Address     string  `json:"address" validate:"required,max=500"`
	Priority    string  `json:"priority" validate:"max=20"`
}

// TriageRequest priority is matched case-insensitively by domain.ParsePriority.
type TriageRequest struct {
	DepartmentID int64  `json:"department_id" validate:"required,gt=0"`
	Priority     string `json:"priority" validate:"required"`
	AssignedToID *int64 `json:"assigned_to_id" validate:"omitempty,gt=0"`
}

type CompleteRequest struct {
	ExecutionNotes string `json:"execution_notes" validate:"max=5000"`
	MaterialsUsed  string `json:"materials_used" validate:"max=5000"`
}

// ReasonRequest carries the mandatory text of a contest.
type ReasonRequest struct {
	Reason string `json:"reason" validate:"required,max=2000"`
}

type RejectRequest struct {
	RejectionReason string `json:"rejection_reason" validate:"required,max=2000"`
}

type RatingRequest struct {
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback" validate:"max=2000"`
}

type EvaluationRequest struct {
	Rating              int    `json:"rating"`
	QualityRating       int    `json:"quality_rating"`
	SpeedRating         int    `json:"speed_rating"`
	CommunicationRating int    `json:"communication_rating"`
	Feedback            string `json:"feedback" validate:"max=2000"`
	WouldRecommend      *bool  `json:"would_recommend"`
	NeedsRework         bool   `json:"needs_rework"`
}

type StatusRequest struct {
	Status  string `json:"status" validate:"required"`
	Comment string `json:"comment" validate:"max=2000"`
}

// AssignRequest reassigns an occurrence; a null assigned_to clears it.
type AssignRequest struct {
	AssignedTo *int64 `json:"assigned_to" validate:"omitempty,gt=0"`
}

type DepartmentRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=1000"`
}

type CategoryRequest struct {
	Name         string `json:"name" validate:"required,max=100"`
	Description  string `json:"description" validate:"max=1000"`
	Icon         string `json:"icon" validate:"max=50"`
	Color        string `json:"color" validate:"omitempty,hexcolor,len=7"`
	DepartmentID int64  `json:"department_id" validate:"required,gt=0"`
}

type StaffRequest struct {
	Name         string `json:"name" validate:"required,max=100"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=6,max=72"`
	Phone        string `json:"phone" validate:"max=20"`
	UserType     string `json:"user_type" validate:"required,oneof=admin department_manager service_provider"`
	DepartmentID *int64 `json:"department_id" validate:"omitempty,gt=0"`
}

// UserUpdateRequest is a partial administrative update; department_id 0 clears it.
type UserUpdateRequest struct {
	Name         *string `json:"name" validate:"omitempty,min=1,max=100"`
	Email        *string `json:"email" validate:"omitempty,email"`
	Phone        *string `json:"phone" validate:"omitempty,max=20"`
	UserType     *string `json:"user_type" validate:"omitempty,oneof=citizen admin department_manager service_provider"`
	DepartmentID *int64  `json:"department_id" validate:"omitempty,gte=0"`
	IsActive     *bool   `json:"is_active"`
}
