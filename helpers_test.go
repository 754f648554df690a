package authgate_test

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/pchalerm/authgate"
)

var testSigningKey = []byte("test-signing-key")

var testDBSeq atomic.Int64

// classifiedStatus returns the HTTP status a classified error maps to.
func classifiedStatus(t *testing.T, err error) int {
	t.Helper()

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr), "expected a classified error, got %T: %v", err, err)
	return richErr.Code
}

func classifiedMessage(t *testing.T, err error) string {
	t.Helper()

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr), "expected a classified error, got %T: %v", err, err)
	return richErr.Message
}

func textCode(t *testing.T, err error) string {
	t.Helper()

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr), "expected a classified error, got %T: %v", err, err)
	return richErr.TextCode
}

// signToken mints an HS256 token the way the upstream identity step does:
// subject under "id", optional profile fields, unix second timestamps.
func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSigningKey)
	require.NoError(t, err)
	return token
}

func freshClaims(subjectID, email string) jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"id":    subjectID,
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
}

// newTestDB opens a unique in-memory database with the schema applied.
func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:authgate_test_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	for _, model := range []any{(*authgate.User)(nil), (*authgate.OneTimeCode)(nil)} {
		_, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx)
		require.NoError(t, err)
	}

	return db
}

func countUsers(t *testing.T, db *bun.DB) int {
	t.Helper()

	count, err := db.NewSelect().Model((*authgate.User)(nil)).Count(context.Background())
	require.NoError(t, err)
	return count
}

func strPtr(s string) *string {
	return &s
}
