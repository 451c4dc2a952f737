package db

import (
	"context"
	"database/sql"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var DB *sql.DB

// InitDB открывает файл SQLite и создаёт схему, если её ещё нет.
func InitDB(dbFile string) {
	var err error
	DB, err = sql.Open("sqlite3", dbFile)
	if err != nil {
		log.Panicf("Ошибка открытия SQLite: %v", err)
	}
	// Настраиваем пул соединений (опционально)
	DB.SetMaxOpenConns(10)
	DB.SetMaxIdleConns(5)

	createTables()
}

func createTables() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 1) Таблица users: записи привязки и последние снимки.
	_, err := DB.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS users (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            token TEXT UNIQUE NOT NULL,
            student_name TEXT NOT NULL,
            group_id TEXT NOT NULL,
            birth_day TEXT NOT NULL,
            cookies TEXT NOT NULL,
            created_at TEXT NOT NULL,
            telegram_user_id INTEGER NOT NULL DEFAULT 0,
            telegram_username TEXT NOT NULL DEFAULT '',
            telegram_first_name TEXT NOT NULL DEFAULT '',
            bound_at TEXT NOT NULL DEFAULT '',
            last_journal_hash TEXT NOT NULL DEFAULT '',
            last_timetable_hash TEXT NOT NULL DEFAULT '',
            journal_snapshot TEXT NOT NULL DEFAULT '',
            timetable_snapshot TEXT NOT NULL DEFAULT ''
        );
    `)
	if err != nil {
		log.Panicf("Ошибка создания таблицы users: %v", err)
	}

	// 2) Таблица offset_state: единственная строка с курсором апдейтов.
	_, err = DB.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS offset_state (
            id INTEGER PRIMARY KEY CHECK (id = 1),
            last_update_id INTEGER NOT NULL
        );
    `)
	if err != nil {
		log.Panicf("Ошибка создания таблицы offset_state: %v", err)
	}
}
