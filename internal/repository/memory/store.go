package memory

import (
	"fmt"
	"sync"

	"kidsgpt-be/internal/model"
	"kidsgpt-be/internal/repository/unitofwork"
	"kidsgpt-be/pkg/database"

	"gorm.io/gorm"
)

// Store is the record store for STORE_DRIVER=memory and for tests: the gorm
// repositories running on an in-memory sqlite database.
type Store struct {
	db *gorm.DB

	mu sync.Mutex
	// one-shot write failures keyed by "<table>.<create|update|delete>"
	failures map[string]error
}

func NewStore() (*Store, error) {
	db, err := database.NewSQLiteMemoryDB()
	if err != nil {
		return nil, fmt.Errorf("open memory store: %w", err)
	}
	if err := db.AutoMigrate(model.All()...); err != nil {
		return nil, fmt.Errorf("migrate memory store: %w", err)
	}

	s := &Store{db: db, failures: map[string]error{}}
	if err := s.registerFailureHooks(); err != nil {
		return nil, err
	}
	return s, nil
}

// MustNewStore is NewStore for tests and wiring that cannot recover.
func MustNewStore() *Store {
	s, err := NewStore()
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

func NewRepositoryFactory(store *Store) unitofwork.RepositoryFactory {
	return unitofwork.NewRepositoryFactory(store.db)
}

// FailOn arms a one-shot failure for the named write, e.g. "messages.create".
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

func (s *Store) takeFailure(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failures[op]; ok {
		delete(s.failures, op)
		return err
	}
	return nil
}

func (s *Store) registerFailureHooks() error {
	cb := s.db.Callback()
	if err := cb.Create().Before("gorm:create").Register("memory:fail_create", s.failureHook("create")); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("memory:fail_update", s.failureHook("update")); err != nil {
		return err
	}
	return cb.Delete().Before("gorm:delete").Register("memory:fail_delete", s.failureHook("delete"))
}

func (s *Store) failureHook(verb string) func(*gorm.DB) {
	return func(tx *gorm.DB) {
		if err := s.takeFailure(tx.Statement.Table + "." + verb); err != nil {
			_ = tx.AddError(err)
		}
	}
}
