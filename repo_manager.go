package authgate

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Users() Users
	OneTimeCodes() repository.Repository[*OneTimeCode]
}

func NewOneTimeCodesRepository(db *bun.DB) repository.Repository[*OneTimeCode] {
	handlers := repository.ModelHandlers[*OneTimeCode]{
		NewRecord: func() *OneTimeCode {
			return &OneTimeCode{}
		},
		GetID: func(record *OneTimeCode) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *OneTimeCode, id uuid.UUID) {
			record.ID = id
		},
		GetIdentifier: func() string {
			return "email"
		},
	}
	return repository.NewRepository(db, handlers)
}

type mngr struct {
	db           *bun.DB
	users        Users
	oneTimeCodes repository.Repository[*OneTimeCode]
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:           db,
		users:        NewUsersRepository(db),
		oneTimeCodes: NewOneTimeCodesRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.oneTimeCodes == nil {
		return errors.New("repository oneTimeCodes should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) OneTimeCodes() repository.Repository[*OneTimeCode] {
	return m.oneTimeCodes
}
