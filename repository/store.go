package repository

import "context"

// Store is a storage session: every repository it returns shares the same
// connection or transaction.
type Store interface {
	Occurrences() OccurrenceRepository
	Timeline() TimelineRepository
	Photos() PhotoRepository
	Supports() SupportRepository
	Evaluations() EvaluationRepository
	Users() UserRepository
	Departments() DepartmentRepository
	Categories() CategoryRepository
	Notifications() NotificationRepository
}

// Transactor runs fn inside one transaction. The transaction commits when fn
// returns nil and rolls back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, store Store) error) error
}
