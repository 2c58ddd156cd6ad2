package atoms

import (
	"context"
	"log/slog"
	"math/rand/v2"
)

// RegisterBuiltins регистрирует мок-реализации встроенных атомов.
//
// Реализации имитируют доменные действия (проверка прав, квоты,
// перенос файлов) и пишут в лог вместо реальных побочных эффектов.
// Определения контрактов этих атомов лежат в atoms/*.json.
func RegisterBuiltins(iv *Invoker, logger *slog.Logger) {
	iv.MustRegister("globalx.permission.query_permissions", queryPermissions(logger))
	iv.MustRegister("globalx.permission.grant_permission", grantPermission(logger))
	iv.MustRegister("globalx.space.query_quota", queryQuota(logger))
	iv.MustRegister("globalx.transfer.file_transfer", fileTransfer(logger))
	iv.MustRegister("common.file.get_file_size", getFileSize(logger))
}

// queryPermissions проверяет, есть ли у пользователя право на перенос файлов.
func queryPermissions(logger *slog.Logger) Func {
	return func(ctx context.Context, inputs map[string]any) (any, error) {
		userID := stringInput(inputs, "user_id")
		hasPermission := rand.IntN(2) == 0

		logger.Info("[mock] queried transfer permission",
			"user_id", userID,
			"has_permission", hasPermission,
		)
		return hasPermission, nil
	}
}

// grantPermission выдаёт пользователю право на перенос файлов.
func grantPermission(logger *slog.Logger) Func {
	return func(ctx context.Context, inputs map[string]any) (any, error) {
		userID := stringInput(inputs, "user_id")

		logger.Info("[mock] granted transfer permission", "user_id", userID)
		return nil, nil
	}
}

// queryQuota возвращает квоту пространства пользователя.
func queryQuota(logger *slog.Logger) Func {
	return func(ctx context.Context, inputs map[string]any) (any, error) {
		userID := stringInput(inputs, "user_id")
		quota := 100 + rand.IntN(901)

		logger.Info("[mock] queried space quota", "user_id", userID, "quota", quota)
		return quota, nil
	}
}

// fileTransfer переносит файл от одного пользователя к другому.
func fileTransfer(logger *slog.Logger) Func {
	return func(ctx context.Context, inputs map[string]any) (any, error) {
		logger.Info("[mock] file transfer",
			"file_path", stringInput(inputs, "file_path"),
			"sender_id", stringInput(inputs, "sender_id"),
			"receiver_id", stringInput(inputs, "receiver_id"),
		)
		return nil, nil
	}
}

// getFileSize возвращает размер файла по пути.
func getFileSize(logger *slog.Logger) Func {
	return func(ctx context.Context, inputs map[string]any) (any, error) {
		filePath := stringInput(inputs, "file_path")
		size := 100 + rand.IntN(901)

		logger.Info("[mock] queried file size", "file_path", filePath, "size", size)
		return size, nil
	}
}

// stringInput извлекает строковый вход, пустая строка при отсутствии.
func stringInput(inputs map[string]any, key string) string {
	if v, ok := inputs[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
