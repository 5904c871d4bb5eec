package repository

import (
	"errors"

	"github.com/lib/pq"
)

// ErrNotFound is returned when the requested row or document does not exist.
var ErrNotFound = errors.New("record not found")

// ErrInvalidReference is returned when a write points at a row that does not exist.
var ErrInvalidReference = errors.New("referenced record does not exist")

const foreignKeyViolation pq.ErrorCode = "23503"

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation
}
