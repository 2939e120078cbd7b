package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitSchema(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS phone_numbers`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	require.NoError(t, InitSchema(context.Background(), mock))

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS phone_numbers`).WillReturnError(errors.New("permission denied"))
	err = InitSchema(context.Background(), mock)
	assert.ErrorContains(t, err, "permission denied")

	assert.NoError(t, mock.ExpectationsWereMet())
}
