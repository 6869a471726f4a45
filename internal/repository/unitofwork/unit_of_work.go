package unitofwork

import (
	"context"

	"content-editor-be/internal/repository/contract"
)

// RepositoryFactory hands out units of work. Services keep the factory and
// open one unit per operation.
type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
}

// UnitOfWork groups repository calls. Outside Begin/Commit every call runs on
// its own; inside, they share one transaction.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ContentRepository() contract.ContentRepository
}
