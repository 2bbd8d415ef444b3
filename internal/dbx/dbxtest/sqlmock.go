// Package dbxtest sets up sqlmock for repository tests.
package dbxtest

import (
	"database/sql"
	"database/sql/driver"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// arrayConverter passes id and slug slices through untouched, the same way
// the pgx stdlib driver hands them to postgres as arrays.
type arrayConverter struct{}

func (arrayConverter) ConvertValue(v any) (driver.Value, error) {
	switch v.(type) {
	case []int64, []string:
		return v, nil
	}
	return driver.DefaultParameterConverter.ConvertValue(v)
}

// NewMock returns a regexp matching sqlmock that accepts array arguments.
// Unmet expectations fail the test on cleanup.
func NewMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(
		sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp),
		sqlmock.ValueConverterOption(arrayConverter{}),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}
