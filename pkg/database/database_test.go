package database

import (
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSchema(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	clients := &Clients{DB: sqlx.NewDb(mockDB, "sqlmock")}

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS profiles")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, clients.CreateSchema())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSchemaWithoutDatabase(t *testing.T) {
	clients := &Clients{}
	assert.NoError(t, clients.CreateSchema())
}

func TestSchemaCoversAllTables(t *testing.T) {
	for _, table := range []string{
		"profiles", "skincare_routines", "hair_check_ins", "haircut_recommendations",
		"outfits", "closet_items", "reminders", "weekly_planner", "analysis_jobs",
	} {
		assert.Contains(t, Schema, "CREATE TABLE IF NOT EXISTS "+table+" (")
	}
	assert.Contains(t, Schema, "increment_profile_stat")
}
