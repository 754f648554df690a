package authgate

import (
	"context"
	"database/sql"
	"errors"

	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// Users is the persistent store for provisioned identity records. The
// store enforces email uniqueness; GetOrCreate leans on that constraint
// so concurrent first-logins for one email converge on a single row.
type Users interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)

	Create(ctx context.Context, record *User) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error)

	GetOrCreate(ctx context.Context, record *User) (*User, error)
	GetOrCreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error)

	List(ctx context.Context) ([]*User, error)
}

type users struct {
	db *bun.DB
}

var _ Users = (*users)(nil)

func NewUsersRepository(db *bun.DB) Users {
	return &users{db: db}
}

func (a *users) FindByEmail(ctx context.Context, email string) (*User, error) {
	return a.FindByEmailTx(ctx, a.db, email)
}

func (a *users) FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	record := &User{}

	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"email": email,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) Create(ctx context.Context, record *User) (*User, error) {
	return a.CreateTx(ctx, a.db, record)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error) {
	if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, err
	}
	return record, nil
}

func (a *users) GetOrCreate(ctx context.Context, record *User) (*User, error) {
	return a.GetOrCreateTx(ctx, a.db, record)
}

// GetOrCreateTx returns the user matching the record's email, creating
// it when absent. The insert is guarded by the unique email constraint:
// a concurrent creation loses the insert and the re-read below returns
// the winner's row, so the operation is idempotent under racing callers.
// The re-read also picks up database assigned columns, created_at and
// updated_at, which the in-memory record never carries.
func (a *users) GetOrCreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error) {
	user, err := a.FindByEmailTx(ctx, tx, record.Email)
	if err == nil {
		return user, nil
	}

	if !repository.IsRecordNotFound(err) {
		return nil, err
	}

	if _, err := tx.NewInsert().
		Model(record).
		On("CONFLICT (email) DO NOTHING").
		Exec(ctx); err != nil {
		return nil, err
	}

	return a.FindByEmailTx(ctx, tx, record.Email)
}

func (a *users) List(ctx context.Context) ([]*User, error) {
	records := []*User{}

	err := a.db.NewSelect().
		Model(&records).
		Order("created_at ASC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}
