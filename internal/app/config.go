package app

import "github.com/vladislavdragonenkov/furnicart/internal/domain"

const (
	// StorageDriverMemory хранит записи корзин в памяти процесса.
	StorageDriverMemory = "memory"
	// StorageDriverPostgres хранит записи корзин в таблице cart_records.
	StorageDriverPostgres = "postgres"
)

// Config описывает настройки запуска сервиса корзины.
type Config struct {
	GRPCAddr    string
	MetricsAddr string

	StorageDriver       string
	PostgresDSN         string
	PostgresAutoMigrate bool

	// CartKey, префикс ключей записей; ключ сессии имеет вид "<CartKey>:<session-id>".
	CartKey string

	// KafkaBrokers: список брокеров через запятую; пустой отключает публикацию событий.
	KafkaBrokers     string
	KafkaTopicPrefix string
}

// DefaultConfig возвращает настройки для локального запуска без внешних зависимостей.
func DefaultConfig() Config {
	return Config{
		GRPCAddr:            ":50051",
		MetricsAddr:         ":9090",
		StorageDriver:       StorageDriverMemory,
		PostgresAutoMigrate: true,
		CartKey:             domain.DefaultCartKey,
		KafkaTopicPrefix:    "furnicart",
	}
}
