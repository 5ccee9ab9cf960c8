package config

import (
	"os"
	"sync"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"
	"sigs.k8s.io/yaml"
)

type Config struct {
	ServerAddr string `json:"serverAddr"` // The address the server endpoint binds to.

	Auth struct {
		AccessTokenSecret  string `json:"accessTokenSecret"`
		RefreshTokenSecret string `json:"refreshTokenSecret"`
	} `json:"auth"`

	Postgres struct {
		Host     string `json:"host"`
		Port     string `json:"port"`
		DBName   string `json:"dbname"`
		User     string `json:"user"`
		Password string `json:"password"`
		SSLMode  string `json:"sslmode"`
		TimeZone string `json:"TimeZone"`
	} `json:"postgres"`

	SMTP struct {
		Host     string `json:"host"`
		Port     int    `json:"port"`
		User     string `json:"user"`
		Password string `json:"password"`
		Sender   string `json:"sender"`
	} `json:"smtp"`

	Cron struct {
		// Schedule for the auto-decision job, seeded into the database
		// on first boot. Hourly at minute 5 by default.
		AutoDecisionSpec string `json:"autoDecisionSpec"`
	} `json:"cron"`
}

type TokenConf struct {
	AccessTokenExpiryHour  int
	RefreshTokenExpiryHour int
	AccessTokenSecret      string
	RefreshTokenSecret     string
}

func NewTokenConf() *TokenConf {
	conf := GetConfig()
	return &TokenConf{
		AccessTokenExpiryHour:  1,
		RefreshTokenExpiryHour: 168,
		AccessTokenSecret:      conf.Auth.AccessTokenSecret,
		RefreshTokenSecret:     conf.Auth.RefreshTokenSecret,
	}
}

var (
	once   sync.Once
	config *Config
)

func GetConfig() *Config {
	once.Do(func() {
		config = initConfig()
	})
	return config
}

func IsDebugMode() bool {
	return gin.Mode() == gin.DebugMode
}

// initConfig reads the configuration file. In debug mode the path can be
// overridden with UPMS_DEBUG_CONFIG_PATH; in production the file comes
// from the deployment's config volume.
func initConfig() *Config {
	config := &Config{}
	var configPath string
	if IsDebugMode() {
		if os.Getenv("UPMS_DEBUG_CONFIG_PATH") != "" {
			configPath = os.Getenv("UPMS_DEBUG_CONFIG_PATH")
		} else {
			configPath = "./etc/debug-config.yaml"
		}
	} else {
		configPath = "/etc/config/config.yaml"
	}
	klog.Info("config path: ", configPath)

	if err := readConfig(configPath, config); err != nil {
		klog.Error("init config", err)
		panic(err)
	}
	if config.Cron.AutoDecisionSpec == "" {
		config.Cron.AutoDecisionSpec = "5 * * * *"
	}
	return config
}

func readConfig(filePath string, config *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, config)
}
