package db

import (
	"database/sql"
	"fmt"
)

// GetOffset возвращает id последнего обработанного апдейта.
// Если курсор ещё не сохранялся — ноль.
func GetOffset() (int, error) {
	var offset int
	err := DB.QueryRow(`SELECT last_update_id FROM offset_state WHERE id = 1`).Scan(&offset)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("чтение курсора апдейтов: %w", err)
	}
	return offset, nil
}

// SetOffset сохраняет курсор. Курсор двигается только вперёд.
func SetOffset(offset int) error {
	_, err := DB.Exec(`
        INSERT INTO offset_state (id, last_update_id) VALUES (1, ?)
        ON CONFLICT(id) DO UPDATE SET last_update_id = excluded.last_update_id
    `, offset)
	if err != nil {
		return fmt.Errorf("сохранение курсора апдейтов: %w", err)
	}
	return nil
}
