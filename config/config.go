package config

type AppConfig struct {
	APIPort     string `env:"PORT" envDefault:"11000"`
	APIKey      string `env:"API_KEY,required"`
	// CronSecret guards the HTTP scheduler endpoints. Empty means dev
	// mode: invocation is allowed but logged.
	CronSecret string `env:"CRON_SECRET"`
	FrontendURL string `env:"FRONTEND_URL" envDefault:"https://app.lokario.fr"`
	UploadDir   string `env:"UPLOAD_DIR" envDefault:"/var/lib/lokario/uploads"`

	// EncryptionKey protects integration credentials at rest.
	EncryptionKey string `env:"INTEGRATION_ENCRYPTION_KEY,required"`
}

type DatabaseConfig struct {
	Host            string `env:"POSTGRES_HOST,required"`
	Port            string `env:"POSTGRES_PORT,required"`
	User            string `env:"POSTGRES_USER,required"`
	DBName          string `env:"POSTGRES_DB_NAME,required"`
	Password        string `env:"POSTGRES_PASSWORD,required"`
	MaxConn         int    `env:"POSTGRES_DB_MAX_CONN" envDefault:"50"`
	MaxIdleConn     int    `env:"POSTGRES_DB_MAX_IDLE_CONN" envDefault:"10"`
	ConnMaxLifetime int    `env:"POSTGRES_DB_CONN_MAX_LIFETIME" envDefault:"60"`
	LogLevel        string `env:"POSTGRES_LOG_LEVEL" envDefault:"WARN"`
	SSLMode         string `env:"POSTGRES_SSL_MODE" envDefault:"require"`
}

type OpenAIConfig struct {
	APIKey         string `env:"OPENAI_API_KEY"`
	ClassifyModel  string `env:"OPENAI_CLASSIFY_MODEL" envDefault:"gpt-4o-mini"`
	ReplyModel     string `env:"OPENAI_REPLY_MODEL" envDefault:"gpt-4o"`
	TimeoutSeconds int    `env:"OPENAI_TIMEOUT_SECONDS" envDefault:"60"`
}

type SMSConfig struct {
	APIURL string `env:"SMS_API_URL" envDefault:"https://rest.nexmo.com/sms/json"`
	From   string `env:"SMS_FROM" envDefault:"Lokario"`
}
