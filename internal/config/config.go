// Package config загружает конфигурацию бота из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
// Файл .env (если есть) подхватывается в main через godotenv.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Telegram ---
	TelegramBotToken string  `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	AdminIDsRaw      string  `envconfig:"ADMIN_IDS" default:""`
	AdminIDs         []int64 `envconfig:"-"` // заполняется в Load

	// --- Database ---
	// В Docker внутри контейнера "localhost" почти всегда неправильно.
	// Дефолт ставим "postgres" (имя сервиса в docker-compose), а для локалки переопределяй DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"botuser"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"garden_bot"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Application ---
	// development включает строгую проверку вакитов (паника на неизвестном слоте)
	AppEnv      string `envconfig:"APP_ENV" default:"production"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"info"`
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"Europe/Moscow"`

	// --- Bot runtime ---
	// Сколько апдейтов обрабатываем параллельно. Иначе "go на каждый апдейт" = утечка памяти при флуде.
	BotMaxInflight int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`
	// Таймаут long polling (секунды)
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60"`
	// Отвечать ли в группах (по умолчанию только личка)
	BotAllowGroups bool `envconfig:"BOT_ALLOW_GROUPS" default:"false"`
	// Отладочный лог tgbotapi: пишет запросы и ответы Telegram целиком, включая тексты
	BotAPIDebug bool `envconfig:"BOT_API_DEBUG" default:"false"`

	// --- Admin ---
	AdminPasswordHash string `envconfig:"ADMIN_PASSWORD_HASH" default:""`

	// --- Garden ---
	// Одна отметка на вакит в день. Выключать только для тестов.
	GardenDailyGating bool `envconfig:"GARDEN_DAILY_GATING" default:"true"`
	// at_least: урожай при цветах >= порога; exact, старое поведение (ровно порог)
	GardenHarvestMode string `envconfig:"GARDEN_HARVEST_MODE" default:"at_least"`
	// Повторы сохранения при ошибке БД
	GardenSaveRetries int           `envconfig:"GARDEN_SAVE_RETRIES" default:"2"`
	GardenSaveBackoff time.Duration `envconfig:"GARDEN_SAVE_BACKOFF" default:"200ms"`

	// --- Reminders ---
	RemindersEnabled bool   `envconfig:"REMINDERS_ENABLED" default:"true"`
	RemindersCron    string `envconfig:"REMINDERS_CRON" default:"0 20 * * *"`

	// --- Metrics ---
	// Пустая строка: сервер метрик не поднимается
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`

	// --- Rate Limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"10"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// IsDevelopment: режим разработки (строгие проверки, паника на неизвестном ваките).
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.AppEnv, "development")
}

// IsAdmin проверяет, входит ли userID в ADMIN_IDS.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Validate проверяет значения, которые envconfig проверить не может.
func (c *Config) Validate() error {
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT должен быть > 0")
	}
	if c.BotUpdateTimeoutSeconds <= 0 {
		return fmt.Errorf("BOT_UPDATE_TIMEOUT_SECONDS должен быть > 0")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	switch strings.ToLower(c.GardenHarvestMode) {
	case "at_least", "exact":
	default:
		return fmt.Errorf("GARDEN_HARVEST_MODE должен быть at_least или exact, получено %q", c.GardenHarvestMode)
	}
	if c.GardenSaveRetries < 0 {
		return fmt.Errorf("GARDEN_SAVE_RETRIES должен быть >= 0")
	}
	if c.RateLimitRequests <= 0 || c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS и RATE_LIMIT_WINDOW должны быть > 0")
	}
	if len(c.AdminIDs) > 0 && c.AdminPasswordHash == "" {
		return fmt.Errorf("ADMIN_PASSWORD_HASH обязателен, если задан ADMIN_IDS")
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	ids, err := parseInt64CSV(cfg.AdminIDsRaw)
	if err != nil {
		return nil, fmt.Errorf("ADMIN_IDS: %w", err)
	}
	cfg.AdminIDs = ids

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// parseInt64CSV разбирает "1,2, 3" в []int64.
func parseInt64CSV(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("некорректный id %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}
