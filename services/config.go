package services

import "time"

const (
	AutoSaveModeGoroutine = "goroutine"
	AutoSaveModeQueue     = "queue"

	ImageHostImgbb = "imgbb"
	ImageHostR2    = "r2"
)

// Config is everything the processes read from the environment.
type Config struct {
	Env  string
	Port string

	ReplicateToken      string
	ReplicateBaseURL    string
	ModelDeployment     string
	ImageModel          string
	LiveModelGeneration bool

	ImageHost  string
	ImgbbKey   string
	ImgbbURL   string
	R2Bucket   string
	UploadsDir string

	// Supabase anon key is accepted for parity with the hosted setup; the API talks
	// to Postgres directly through DATABASE_URL.
	SupabaseAnonKey string

	BrokerAddress   string
	AutoSaveMode    string
	AutoSaveProject string
	AutoSaveCron    string

	AppPassword string
	JWTSecret   string
	TokenTTL    time.Duration

	TelegramToken  string
	TelegramChatID int64

	SentryDSN string
}

func LoadConfig() Config {
	return Config{
		Env:  GetEnv("ENV", "local"),
		Port: GetEnv("PORT", "8083"),

		ReplicateToken:      GetEnv("REPLICATE_API_TOKEN", ""),
		ReplicateBaseURL:    GetEnv("REPLICATE_BASE_URL", "https://api.replicate.com"),
		ModelDeployment:     GetEnv("REPLICATE_DEPLOYMENT", "cygnus-holding/hunyuan3d-2"),
		ImageModel:          GetEnv("IMAGE_MODEL", "google/imagen-3"),
		LiveModelGeneration: GetEnvBool("LIVE_MODEL_GENERATION", false),

		ImageHost:  GetEnv("IMAGE_HOST", ImageHostImgbb),
		ImgbbKey:   GetEnv("IMGBB_API_KEY", ""),
		ImgbbURL:   GetEnv("IMGBB_URL", "https://api.imgbb.com/1/upload"),
		R2Bucket:   GetEnv("R2_BUCKET_NAME", ""),
		UploadsDir: GetEnv("R2_UPLOADS_DIR", "uploads"),

		SupabaseAnonKey: GetEnv("SUPABASE_ANON_KEY", ""),

		BrokerAddress:   GetEnv("ASYNC_BROKER_ADDRESS", "localhost:6379"),
		AutoSaveMode:    GetEnv("AUTOSAVE_MODE", AutoSaveModeGoroutine),
		AutoSaveProject: GetEnv("AUTOSAVE_PROJECT", "Auto-saved"),
		AutoSaveCron:    GetEnv("AUTOSAVE_CRON", "*/5 * * * *"),

		AppPassword: GetEnv("APP_PASSWORD", ""),
		JWTSecret:   GetEnv("JWT_SECRET", ""),
		TokenTTL:    time.Duration(GetEnvInt64("TOKEN_TTL_HOURS", 72)) * time.Hour,

		TelegramToken:  GetEnv("TG_TOKEN", ""),
		TelegramChatID: GetEnvInt64("TG_CHAT_ID", 0),

		SentryDSN: GetEnv("SENTRY_DSN", ""),
	}
}
