// internal/infrastructure/persistence/redis_storage/errors.go
package redis_storage

// Ошибки хранилища
var (
	ErrRedisNotReady  = StorageError{"Redis не готов"}
	ErrInvalidLimit   = StorageError{"неверный лимит"}
	ErrLevelsNotFound = StorageError{"уровни не найдены"}
)

// StorageError ошибка хранилища
type StorageError struct {
	Message string
}

func (e StorageError) Error() string {
	return e.Message
}
