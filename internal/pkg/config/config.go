// Package config 负责加载服务配置：YAML 文件、.env 以及环境变量覆盖。
package config

import (
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"fraudguard/internal/service/fraud/domain"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Service         ServiceConfig         `yaml:"service"`
	Infra           InfraConfig           `yaml:"infra"`
	FraudPrevention FraudPreventionConfig `yaml:"fraud_prevention"`
}

type ServiceConfig struct {
	Name              string        `yaml:"name"`
	Port              int           `yaml:"port"`
	LogLevel          string        `yaml:"log_level"`
	ProcessingTimeout time.Duration `yaml:"processing_timeout"`
}

type InfraConfig struct {
	Jaeger JaegerConfig `yaml:"jaeger"`
	Kafka  KafkaConfig  `yaml:"kafka"`
	MySQL  MySQLConfig  `yaml:"mysql"`
	Redis  RedisConfig  `yaml:"redis"`
	SMTP   SMTPConfig   `yaml:"smtp"`
	Nacos  NacosConfig  `yaml:"nacos"`
}

type JaegerConfig struct {
	Endpoint    string  `yaml:"endpoint"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

type KafkaConfig struct {
	Brokers          []string `yaml:"brokers"`
	OrderPlacedTopic string   `yaml:"order_placed_topic"`
	OrderHeldTopic   string   `yaml:"order_held_topic"`
	ConsumerGroupID  string   `yaml:"consumer_group_id"`
}

type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type RedisConfig struct {
	Addr           string        `yaml:"addr"`
	Password       string        `yaml:"password"`
	DB             int           `yaml:"db"`
	IdempotencyTTL time.Duration `yaml:"idempotency_ttl"`
}

// SMTPConfig.From 是 "general" 发件身份的默认地址，店铺未配置 email_sender 时使用
type SMTPConfig struct {
	Addr     string `yaml:"addr"`
	From     string `yaml:"from"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// NacosConfig 为空的 ServerAddrs 表示不接入 Nacos
type NacosConfig struct {
	ServerAddrs string `yaml:"server_addrs"`
	Namespace   string `yaml:"namespace"`
	Group       string `yaml:"group"`
	DataID      string `yaml:"data_id"`
}

// DefaultSenderAddress 是 "general" 发件身份的默认邮箱
const DefaultSenderAddress = "general@localhost"

// Default 返回所有字段的默认值
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:              "fraud-prevention-service",
			Port:              8086,
			LogLevel:          "info",
			ProcessingTimeout: 10 * time.Second,
		},
		Infra: InfraConfig{
			Jaeger: JaegerConfig{Endpoint: "http://localhost:14268/api/traces", SampleRatio: 1},
			Kafka: KafkaConfig{
				Brokers:          []string{"localhost:9092"},
				OrderPlacedTopic: "order-placed-topic",
				OrderHeldTopic:   "order-held-topic",
				ConsumerGroupID:  "fraud-prevention-group",
			},
			MySQL: MySQLConfig{Host: "localhost", Port: 3306, User: "root", Database: "shop"},
			Redis: RedisConfig{Addr: "localhost:6379", IdempotencyTTL: 24 * time.Hour},
			SMTP:  SMTPConfig{Addr: "localhost:25", From: DefaultSenderAddress},
			Nacos: NacosConfig{Group: "DEFAULT_GROUP", DataID: "fraud-prevention.yaml"},
		},
	}
}

// Parse 在默认值之上解析 YAML 内容
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config yaml")
	}
	if err := cfg.FraudPrevention.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load 依次读取 .env、YAML 文件 (不存在则使用默认值) 和环境变量
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrap(err, "failed to load .env")
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if cfg, err = Parse(data); err != nil {
				return nil, err
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.Service.LogLevel = getEnv("LOG_LEVEL", cfg.Service.LogLevel)
	cfg.Infra.Jaeger.Endpoint = getEnv("JAEGER_ENDPOINT", cfg.Infra.Jaeger.Endpoint)
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		cfg.Infra.Kafka.Brokers = strings.Split(brokers, ",")
	}
	cfg.Infra.MySQL.Host = getEnv("MYSQL_HOST", cfg.Infra.MySQL.Host)
	cfg.Infra.MySQL.User = getEnv("MYSQL_USER", cfg.Infra.MySQL.User)
	cfg.Infra.MySQL.Password = getEnv("MYSQL_PASSWORD", cfg.Infra.MySQL.Password)
	cfg.Infra.MySQL.Database = getEnv("MYSQL_DATABASE", cfg.Infra.MySQL.Database)
	cfg.Infra.Redis.Addr = getEnv("REDIS_ADDR", cfg.Infra.Redis.Addr)
	cfg.Infra.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Infra.Redis.Password)
	cfg.Infra.SMTP.Addr = getEnv("SMTP_ADDR", cfg.Infra.SMTP.Addr)
	cfg.Infra.SMTP.Username = getEnv("SMTP_USERNAME", cfg.Infra.SMTP.Username)
	cfg.Infra.SMTP.Password = getEnv("SMTP_PASSWORD", cfg.Infra.SMTP.Password)
	cfg.Infra.SMTP.From = getEnv("SMTP_FROM", cfg.Infra.SMTP.From)
	cfg.Infra.Nacos.ServerAddrs = getEnv("NACOS_SERVER_ADDRS", cfg.Infra.Nacos.ServerAddrs)
	cfg.Infra.Nacos.Namespace = getEnv("NACOS_NAMESPACE", cfg.Infra.Nacos.Namespace)
	cfg.Infra.Nacos.Group = getEnv("NACOS_GROUP", cfg.Infra.Nacos.Group)

	if v := getEnv("SERVICE_PORT", ""); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "invalid SERVICE_PORT %q", v)
		}
		cfg.Service.Port = port
	}
	if v := getEnv("MYSQL_PORT", ""); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "invalid MYSQL_PORT %q", v)
		}
		cfg.Infra.MySQL.Port = port
	}
	return applyFraudPreventionEnv(&cfg.FraudPrevention)
}

// applyFraudPreventionEnv 用 FRAUD_PREVENTION_* 环境变量覆盖 fraud_prevention 段，远程配置热更新后也会重新执行
func applyFraudPreventionEnv(fp *FraudPreventionConfig) error {
	if v := getEnv("FRAUD_PREVENTION_ACTIVE", ""); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(err, "invalid FRAUD_PREVENTION_ACTIVE %q", v)
		}
		fp.Active = &active
	}
	if v := getEnv("FRAUD_PREVENTION_MAX_DISCOUNT_PERCENT", ""); v != "" {
		threshold, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.Wrapf(err, "invalid FRAUD_PREVENTION_MAX_DISCOUNT_PERCENT %q", v)
		}
		fp.MaxDiscountPercent = &threshold
	}
	if v := getEnv("FRAUD_PREVENTION_EMAIL_RECIPIENTS", ""); v != "" {
		fp.EmailRecipients = splitRecipients(v)
	}
	return nil
}

// ForStore 解析店铺作用域的配置，发件人没有地址时回退到 SMTP 的默认发件地址
func (c *Config) ForStore(storeID string) domain.Settings {
	s := c.FraudPrevention.ForStore(storeID)
	if s.SenderEmail == "" {
		s.SenderEmail = c.Infra.SMTP.From
	}
	return s
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
