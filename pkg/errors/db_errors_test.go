package errors

import (
	"errors"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestClassifyDBError_GORMRecordNotFound(t *testing.T) {
	dbErr := ClassifyDBError(gorm.ErrRecordNotFound)

	assert.NotNil(t, dbErr)
	assert.Equal(t, ErrorTypeNotFound, dbErr.Type)
	assert.Equal(t, "record not found", dbErr.Message)
	assert.True(t, errors.Is(dbErr, gorm.ErrRecordNotFound))
}

func TestClassifyDBError_MySQLDuplicateKey(t *testing.T) {
	mysqlErr := &mysql.MySQLError{
		Number:  1062,
		Message: "Duplicate entry '3d1f00ff' for key 'cache_key'",
	}

	dbErr := ClassifyDBError(mysqlErr)

	assert.NotNil(t, dbErr)
	assert.Equal(t, ErrorTypeDuplicateKey, dbErr.Type)
	assert.Equal(t, uint16(1062), dbErr.MySQLErrCode)
	assert.Contains(t, dbErr.Error(), "MySQL error 1062")
}

func TestClassifyDBError_MySQLCodes(t *testing.T) {
	tests := []struct {
		name     string
		errCode  uint16
		expected DatabaseErrorType
	}{
		{name: "data too long (1406)", errCode: 1406, expected: ErrorTypeDataTooLong},
		{name: "deadlock (1213)", errCode: 1213, expected: ErrorTypeDeadlock},
		{name: "column cannot be null (1048)", errCode: 1048, expected: ErrorTypeInvalidValue},
		{name: "truncated value (1265)", errCode: 1265, expected: ErrorTypeInvalidValue},
		{name: "incorrect value (1366)", errCode: 1366, expected: ErrorTypeInvalidValue},
		{name: "unmapped code (9999)", errCode: 9999, expected: ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dbErr := ClassifyDBError(&mysql.MySQLError{Number: tt.errCode, Message: "x"})
			assert.Equal(t, tt.expected, dbErr.Type)
		})
	}
}

func TestClassifyDBError_ConnectionErrors(t *testing.T) {
	tests := []string{
		"dial tcp 127.0.0.1:3306: connection refused",
		"read tcp: connection reset by peer",
		"write: broken pipe",
		"lookup db.internal: no such host",
		"i/o timeout",
	}

	for _, msg := range tests {
		t.Run(msg, func(t *testing.T) {
			dbErr := ClassifyDBError(errors.New(msg))
			assert.Equal(t, ErrorTypeConnectionError, dbErr.Type)
		})
	}
}

func TestClassifyDBError_Nil(t *testing.T) {
	assert.Nil(t, ClassifyDBError(nil))
}

func TestIsHelpers(t *testing.T) {
	dup := &mysql.MySQLError{Number: 1062, Message: "dup"}
	deadlock := &mysql.MySQLError{Number: 1213, Message: "deadlock"}

	assert.True(t, IsDuplicateKeyError(dup))
	assert.False(t, IsDuplicateKeyError(deadlock))

	assert.True(t, IsDeadlockError(deadlock))
	assert.False(t, IsDeadlockError(dup))

	assert.True(t, IsNotFoundError(gorm.ErrRecordNotFound))
	assert.False(t, IsNotFoundError(dup))
}
