package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	devOrigins = []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
	prodOrigins = []string{
		"https://academic-management-platform.vercel.app",
	}
)

type (
	Config struct {
		Env              string // DEV (local; default), TEST, QA, PROD
		Build            string
		Debug            bool
		TestMode         bool
		AppName          string
		SecretKey        string
		DefaultFromEmail mail.Address
		FrontendBaseURL  string
		RollbarToken     string
		SendgridApiKey   string
		Server           ServerConfig
		Database         DatabaseConfig
		Redis            RedisConfig
		Uploads          UploadsConfig
		AI               AIConfig
	}

	ServerConfig struct {
		Host                      string
		Address                   string
		DebugHost                 string
		APIPrefix                 string
		AllowedOrigins            []string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		DisableReqLogs            bool
	}

	DatabaseConfig struct {
		Engine        string // postgres | sqlite3 | inmem
		URL           string // takes precedence over the individual parts below
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	RedisConfig struct {
		URL        string // empty: in-process broker
		MaxRetries int
	}

	UploadsConfig struct {
		Dir     string
		MaxSize string // echo body limit, e.g. "10M"
	}

	AIConfig struct {
		APIKey  string // empty: mock generator
		BaseURL string
		Model   string
		Timeout time.Duration
	}
)

func (db DatabaseConfig) Address() string {
	return net.JoinHostPort(db.Host, db.Port)
}

// NewConfig reads the configuration of the current environment (`ENV`).
// Values come from `<ENV>_`-prefixed environment variables, a `config/.env.<env>` file when present,
// and a few unprefixed legacy names (PORT, DATABASE_URL, JWT_SECRET, JWT_EXP, REDIS_CLOUD_URL).
func NewConfig() *Config {
	env := strings.ToUpper(CleanString(os.Getenv("ENV")))
	if env == "" {
		env = "DEV"
	}
	loadDotEnv(env)

	v := viper.New()
	v.SetTypeByDefaultValue(true)
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// defaults
	v.SetDefault("build", "develop")
	v.SetDefault("debug", env == "DEV")
	v.SetDefault("testMode", env == "TEST")
	v.SetDefault("appName", "Academic Management Platform")
	v.SetDefault("secretKey", "g9x$2k!vq7m@w3e#zr8t(1u)yb6n^hp0&c4j*5l+d=fa_os")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":3000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.apiPrefix", "/api/v1")
	v.SetDefault("server.allowedOrigins", "")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 30*time.Minute)
	v.SetDefault("server.jwtRefreshExpirationDelta", 4*time.Hour)
	v.SetDefault("server.disableReqLogs", false)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "academia")
	v.SetDefault("database.user", "academia")
	v.SetDefault("database.password", "academia")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", env == "DEV" || env == "TEST")

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.maxRetries", 3)

	v.SetDefault("uploads.dir", "uploads")
	v.SetDefault("uploads.maxSize", "10M")

	v.SetDefault("ai.apiKey", "")
	v.SetDefault("ai.baseURL", "https://api.openai.com/v1")
	v.SetDefault("ai.model", "gpt-4o-mini")
	v.SetDefault("ai.timeout", 20*time.Second)

	bindLegacyEnv(v, "secretKey", "JWT_SECRET")
	bindLegacyEnv(v, "server.jwtExpirationDelta", "JWT_EXP")
	bindLegacyEnv(v, "database.url", "DATABASE_URL")
	bindLegacyEnv(v, "redis.url", "REDIS_CLOUD_URL")
	bindLegacyEnv(v, "ai.apiKey", "AI_API_KEY")
	bindLegacyEnv(v, "server.allowedOrigins", "ALLOWED_ORIGINS")

	conf := &Config{
		Env:       env,
		Build:     v.GetString("build"),
		Debug:     v.GetBool("debug"),
		TestMode:  v.GetBool("testMode"),
		AppName:   v.GetString("appName"),
		SecretKey: v.GetString("secretKey"),
		DefaultFromEmail: mail.Address{
			Name:    v.GetString("appName"),
			Address: v.GetString("defaultFromEmail"),
		},
		FrontendBaseURL: strings.TrimSuffix(v.GetString("frontendBaseURL"), "/"),
		RollbarToken:    v.GetString("rollbarToken"),
		SendgridApiKey:  v.GetString("sendgridApiKey"),
		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			Address:                   v.GetString("server.address"),
			DebugHost:                 v.GetString("server.debugHost"),
			APIPrefix:                 v.GetString("server.apiPrefix"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
			DisableReqLogs:            v.GetBool("server.disableReqLogs"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			URL:           v.GetString("database.url"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Redis: RedisConfig{
			URL:        v.GetString("redis.url"),
			MaxRetries: v.GetInt("redis.maxRetries"),
		},
		Uploads: UploadsConfig{
			Dir:     v.GetString("uploads.dir"),
			MaxSize: v.GetString("uploads.maxSize"),
		},
		AI: AIConfig{
			APIKey:  v.GetString("ai.apiKey"),
			BaseURL: strings.TrimSuffix(v.GetString("ai.baseURL"), "/"),
			Model:   v.GetString("ai.model"),
			Timeout: v.GetDuration("ai.timeout"),
		},
	}

	// PORT only carries the port number
	if port := CleanString(os.Getenv("PORT")); port != "" {
		conf.Server.Address = ":" + port
	}

	conf.Server.AllowedOrigins = splitList(v.GetString("server.allowedOrigins"))
	if len(conf.Server.AllowedOrigins) == 0 {
		if env == "PROD" {
			conf.Server.AllowedOrigins = prodOrigins
		} else {
			conf.Server.AllowedOrigins = devOrigins
		}
	}

	if conf.Server.JWTExpirationDelta <= 0 {
		log.Fatalf("config: invalid JWT expiration delta %q", v.GetString("server.jwtExpirationDelta"))
	}
	return conf
}

// bindLegacyEnv lets an unprefixed variable name feed `key`.
// AutomaticEnv is looked up first, so `<ENV>_<KEY>` still wins when both are set.
func bindLegacyEnv(v *viper.Viper, key, name string) {
	if err := v.BindEnv(key, name); err != nil {
		log.Fatalf("config.BindEnv(%s): %v", key, err)
	}
}

// loadDotEnv loads config/.env.<env> if it exists (ignored if it does not).
func loadDotEnv(env string) {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatalf("config.os.Getwd(): %v", err)
	}
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
}

func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = CleanString(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
