// Package config читает настройки бота из TOML-файла с перекрытием
// из переменных окружения.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config — настройки процесса.
type Config struct {
	BotToken    string `toml:"bot_token"`
	BotUsername string `toml:"bot_username"`
	DBPath      string `toml:"db_path"`

	// Пауза между пользователями в цикле опроса, мс. Ограничена сверху,
	// чтобы пачка заведомо укладывалась между тиками.
	PollDelayMs int `toml:"poll_delay_ms"`

	// Окно после конца пары, в котором срабатывает триггер, минуты.
	WindowMinutes int `toml:"window_minutes"`

	// Интервал тика триггера, секунды.
	TickSeconds int `toml:"tick_seconds"`
}

const maxPollDelayMs = 5000

// Default возвращает настройки по умолчанию.
func Default() *Config {
	return &Config{
		BotUsername:   "kbp_journal_bot",
		DBPath:        "kbp-bot.db",
		PollDelayMs:   1500,
		WindowMinutes: 10,
		TickSeconds:   60,
	}
}

// Load читает файл настроек, если он есть, и применяет переменные
// окружения. Отсутствующий файл — не ошибка, работают умолчания.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("чтение конфига %s: %w", path, err)
			}
		}
	}

	if token := os.Getenv("BOT_TOKEN"); token != "" {
		cfg.BotToken = token
	}
	if dbPath := os.Getenv("KBP_DB_PATH"); dbPath != "" {
		cfg.DBPath = dbPath
	}

	if cfg.PollDelayMs > maxPollDelayMs {
		cfg.PollDelayMs = maxPollDelayMs
	}
	if cfg.PollDelayMs < 0 {
		cfg.PollDelayMs = 0
	}
	if cfg.WindowMinutes <= 0 {
		cfg.WindowMinutes = 10
	}
	if cfg.TickSeconds <= 0 {
		cfg.TickSeconds = 60
	}

	if cfg.BotToken == "" {
		return nil, fmt.Errorf("не задан токен бота (bot_token в конфиге или BOT_TOKEN)")
	}
	return cfg, nil
}
