package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type MQConfig struct {
	URL string `yaml:"url"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
	// BaseURL is the externally reachable address embedded in the
	// confirm/cancel links, e.g. "https://finance.example.com".
	BaseURL string `yaml:"base_url"`
}

type MailConfig struct {
	IMAPAddr    string `yaml:"imap_addr"`
	SMTPAddr    string `yaml:"smtp_addr"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	Folder      string `yaml:"folder"`
	FromAddress string `yaml:"from_address"`
}

type AgentConfig struct {
	// URL of the inference sidecar exposing POST /infer.
	URL string `yaml:"url"`
	// OCRURL of the text-extraction sidecar exposing POST /extract.
	OCRURL string `yaml:"ocr_url"`
	// TimeoutSeconds caps a single inference round trip.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

type PipelineConfig struct {
	BatchLimit      int `yaml:"batch_limit"`
	IntervalSeconds int `yaml:"interval_seconds"`
}

// CompanyConfig is the letterhead stamped onto generated invoice PDFs.
type CompanyConfig struct {
	Name        string `yaml:"name"`
	Address     string `yaml:"address"`
	Phone       string `yaml:"phone"`
	Email       string `yaml:"email"`
	GSTIN       string `yaml:"gstin"`
	BankName    string `yaml:"bank_name"`
	AccountName string `yaml:"account_name"`
	AccountNo   string `yaml:"account_no"`
	IFSCCode    string `yaml:"ifsc_code"`
}

type Config struct {
	DB       DBConfig       `yaml:"db"`
	Redis    RedisConfig    `yaml:"redis"`
	MQ       MQConfig       `yaml:"mq"`
	Server   ServerConfig   `yaml:"server"`
	Mail     MailConfig     `yaml:"mail"`
	Agent    AgentConfig    `yaml:"agent"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Company  CompanyConfig  `yaml:"company"`
}

func Load() *Config {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}

	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("failed to open %s: %v", path, err)
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		log.Fatalf("failed to decode %s: %v", path, err)
	}

	// 环境变量覆盖（生产环境使用）
	overrideFromEnv(&cfg)

	// Port is a bare number; the listener prepends the colon.
	cfg.Server.Port = strings.TrimPrefix(cfg.Server.Port, ":")

	if cfg.Pipeline.BatchLimit == 0 {
		cfg.Pipeline.BatchLimit = 50
	}
	if cfg.Pipeline.IntervalSeconds == 0 {
		cfg.Pipeline.IntervalSeconds = 300
	}
	if cfg.Agent.TimeoutSeconds == 0 {
		cfg.Agent.TimeoutSeconds = 15
	}
	if cfg.Mail.Folder == "" {
		cfg.Mail.Folder = "INBOX"
	}

	return &cfg
}

func overrideFromEnv(cfg *Config) {
	// DB配置
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.DB.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.DB.Port = p
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.DB.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.DB.Password = password
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.DB.Name = name
	}

	// Redis配置
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}

	// MQ配置
	if url := os.Getenv("MQ_URL"); url != "" {
		cfg.MQ.URL = url
	}

	// Server配置
	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Server.Port = port
	}
	if base := os.Getenv("SERVER_BASE_URL"); base != "" {
		cfg.Server.BaseURL = base
	}

	// Mail配置
	if addr := os.Getenv("IMAP_ADDR"); addr != "" {
		cfg.Mail.IMAPAddr = addr
	}
	if addr := os.Getenv("SMTP_ADDR"); addr != "" {
		cfg.Mail.SMTPAddr = addr
	}
	if user := os.Getenv("MAIL_USERNAME"); user != "" {
		cfg.Mail.Username = user
	}
	if password := os.Getenv("MAIL_PASSWORD"); password != "" {
		cfg.Mail.Password = password
	}

	// Agent配置
	if url := os.Getenv("AGENT_URL"); url != "" {
		cfg.Agent.URL = url
	}
	if url := os.Getenv("OCR_URL"); url != "" {
		cfg.Agent.OCRURL = url
	}
}
