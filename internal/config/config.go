package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	commoncfg "hms-listview/common/config"

	"github.com/spf13/viper"
)

// Config hms-listview（列表页 BFF）配置
type Config struct {
	HTTP struct {
		Addr               string
		CORSAllowedOrigins []string
	}
	DBEnabled bool
	Database  commoncfg.DatabaseConfig
	Redis     commoncfg.RedisConfig
	MQTT      commoncfg.MQTTConfig
	Log       struct {
		Level  string
		Format string
		File   string
	}
	AdminAPI struct {
		BaseURL string
		Timeout time.Duration
	}
	ListView ListViewConfig
}

// ListViewConfig 列表页引擎相关配置
type ListViewConfig struct {
	KeyPrefix          string        // 偏好/快照 key 前缀
	PreferencesBackend string        // redis | postgres | memory
	OfflineQueueStream string        // 离线变更队列（Redis Stream）
	ProbeInterval      time.Duration // 未启用 MQTT 时用 HTTP 探测上游在线状态
}

// envBindings viper key -> 环境变量名（与其他后端服务保持同名）
var envBindings = map[string]string{
	"http.addr":                     "HTTP_ADDR",
	"http.cors_allowed_origins":     "CORS_ALLOWED_ORIGINS",
	"db.enabled":                    "DB_ENABLED",
	"db.host":                       "DB_HOST",
	"db.port":                       "DB_PORT",
	"db.user":                       "DB_USER",
	"db.password":                   "DB_PASSWORD",
	"db.name":                       "DB_NAME",
	"db.sslmode":                    "DB_SSLMODE",
	"redis.addr":                    "REDIS_ADDR",
	"redis.password":                "REDIS_PASSWORD",
	"redis.db":                      "REDIS_DB",
	"mqtt.enabled":                  "MQTT_ENABLED",
	"mqtt.broker":                   "MQTT_BROKER",
	"mqtt.client_id":                "MQTT_CLIENT_ID",
	"mqtt.username":                 "MQTT_USERNAME",
	"mqtt.password":                 "MQTT_PASSWORD",
	"log.level":                     "LOG_LEVEL",
	"log.format":                    "LOG_FORMAT",
	"log.file":                      "LOG_FILE",
	"admin_api.base_url":            "ADMIN_API_BASE_URL",
	"admin_api.timeout":             "ADMIN_API_TIMEOUT",
	"listview.key_prefix":           "LISTVIEW_KEY_PREFIX",
	"listview.preferences_backend":  "PREFERENCES_BACKEND",
	"listview.offline_queue_stream": "OFFLINE_QUEUE_STREAM",
	"listview.probe_interval":       "CONNECTIVITY_PROBE_INTERVAL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8090")
	v.SetDefault("http.cors_allowed_origins", "http://localhost:8081,http://localhost:19006")

	v.SetDefault("db.enabled", false)
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "postgres")
	v.SetDefault("db.name", "owlrd")
	v.SetDefault("db.sslmode", "disable")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.client_id", "hms-listview")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")

	v.SetDefault("admin_api.base_url", "http://localhost:8080")
	v.SetDefault("admin_api.timeout", "15s")

	v.SetDefault("listview.key_prefix", "hms.listview.")
	v.SetDefault("listview.preferences_backend", "redis")
	v.SetDefault("listview.offline_queue_stream", "hms:listview:offline-queue")
	v.SetDefault("listview.probe_interval", "10s")
}

// Load 读取配置：默认值 < configPath/config.yaml（可选） < 环境变量
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	if configPath != "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(configPath)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := &Config{}
	cfg.HTTP.Addr = v.GetString("http.addr")
	cfg.HTTP.CORSAllowedOrigins = splitList(v.GetString("http.cors_allowed_origins"))

	cfg.DBEnabled = v.GetBool("db.enabled")
	cfg.Database.Host = v.GetString("db.host")
	cfg.Database.Port = v.GetInt("db.port")
	cfg.Database.User = v.GetString("db.user")
	cfg.Database.Password = v.GetString("db.password")
	cfg.Database.Database = v.GetString("db.name")
	cfg.Database.SSLMode = v.GetString("db.sslmode")

	cfg.Redis.Addr = v.GetString("redis.addr")
	cfg.Redis.Password = v.GetString("redis.password")
	cfg.Redis.DB = v.GetInt("redis.db")

	cfg.MQTT.Enabled = v.GetBool("mqtt.enabled")
	cfg.MQTT.Broker = v.GetString("mqtt.broker")
	cfg.MQTT.ClientID = v.GetString("mqtt.client_id")
	cfg.MQTT.Username = v.GetString("mqtt.username")
	cfg.MQTT.Password = v.GetString("mqtt.password")

	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.Format = v.GetString("log.format")
	cfg.Log.File = v.GetString("log.file")

	cfg.AdminAPI.BaseURL = strings.TrimRight(v.GetString("admin_api.base_url"), "/")
	cfg.AdminAPI.Timeout = v.GetDuration("admin_api.timeout")

	cfg.ListView.KeyPrefix = v.GetString("listview.key_prefix")
	cfg.ListView.PreferencesBackend = strings.ToLower(v.GetString("listview.preferences_backend"))
	cfg.ListView.OfflineQueueStream = v.GetString("listview.offline_queue_stream")
	cfg.ListView.ProbeInterval = v.GetDuration("listview.probe_interval")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.ListView.PreferencesBackend {
	case "redis", "memory":
	case "postgres":
		if !c.DBEnabled {
			return fmt.Errorf("preferences backend postgres requires DB_ENABLED=true")
		}
	default:
		return fmt.Errorf("unknown preferences backend %q", c.ListView.PreferencesBackend)
	}
	if c.ListView.ProbeInterval <= 0 {
		c.ListView.ProbeInterval = 10 * time.Second
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
