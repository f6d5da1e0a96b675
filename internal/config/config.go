package config

import (
	"fmt"
	"time"

	"bloodbank/internal/entity"

	"github.com/caarlos0/env/v10"
	"github.com/sirupsen/logrus"
)

type Config struct {
	HTTPPort        string        `env:"HTTP_PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	DBType     string `env:"DBType" envDefault:"sqlite"`
	DSNURL     string `env:"DSN_URL" envDefault:""`
	DBUser     string `env:"DBUser" envDefault:""`
	DBPassword string `env:"DBPassword" envDefault:""`
	DBAddr     string `env:"DBAddr" envDefault:""`
	DBName     string `env:"DBName" envDefault:"bloodbank"`
	DBPath     string `env:"DBPath" envDefault:"datas/bloodbank.db"`
	DBPort     string `env:"DBPort" envDefault:"3306"`

	// 初始管理员，仅在用户表为空时创建
	AdminEmail    string `env:"ADMIN_EMAIL" envDefault:""`
	AdminPassword string `env:"ADMIN_PASSWORD" envDefault:""`
	AdminName     string `env:"ADMIN_NAME" envDefault:"System Administrator"`
	SignupEnabled bool   `env:"SIGNUP_ENABLED" envDefault:"true"`

	// 库存状态阈值
	InventoryCriticalBelow int `env:"INVENTORY_CRITICAL_BELOW" envDefault:"5"`
	InventoryMinThreshold  int `env:"INVENTORY_MIN_THRESHOLD" envDefault:"10"`
	InventoryMaxCapacity   int `env:"INVENTORY_MAX_CAPACITY" envDefault:"50"`

	StatsCacheTTL  time.Duration `env:"STATS_CACHE_TTL" envDefault:"30s"`
	StatsCacheSize int           `env:"STATS_CACHE_SIZE" envDefault:"16"`

	StorageType     string `env:"STORAGE_TYPE" envDefault:"local"`
	StorageLocalDir string `env:"STORAGE_LOCAL_DIR" envDefault:"datas/backups"`

	// S3 兼容存储配置
	StorageS3Region          string `env:"STORAGE_S3_REGION"`
	StorageS3Bucket          string `env:"STORAGE_S3_BUCKET"`
	StorageS3Prefix          string `env:"STORAGE_S3_PREFIX"`
	StorageS3Endpoint        string `env:"STORAGE_S3_ENDPOINT"`
	StorageS3AccessKeyID     string `env:"STORAGE_S3_ACCESS_KEY_ID"`
	StorageS3SecretAccessKey string `env:"STORAGE_S3_SECRET_ACCESS_KEY"`
	StorageS3SessionToken    string `env:"STORAGE_S3_SESSION_TOKEN"`
	StorageS3ForcePathStyle  bool   `env:"STORAGE_S3_FORCE_PATH_STYLE" envDefault:"false"`

	// 阿里云 OSS 存储配置
	StorageOSSEndpoint        string `env:"STORAGE_OSS_ENDPOINT"`
	StorageOSSBucket          string `env:"STORAGE_OSS_BUCKET"`
	StorageOSSPrefix          string `env:"STORAGE_OSS_PREFIX"`
	StorageOSSAccessKeyID     string `env:"STORAGE_OSS_ACCESS_KEY_ID"`
	StorageOSSAccessKeySecret string `env:"STORAGE_OSS_ACCESS_KEY_SECRET"`

	// 腾讯云 COS 存储配置
	StorageCOSBucketURL string `env:"STORAGE_COS_BUCKET_URL"`
	StorageCOSPrefix    string `env:"STORAGE_COS_PREFIX"`
	StorageCOSSecretID  string `env:"STORAGE_COS_SECRET_ID"`
	StorageCOSSecretKey string `env:"STORAGE_COS_SECRET_KEY"`

	// Cloudflare R2 存储配置
	StorageR2AccountID       string `env:"STORAGE_R2_ACCOUNT_ID"`
	StorageR2Endpoint        string `env:"STORAGE_R2_ENDPOINT"`
	StorageR2Region          string `env:"STORAGE_R2_REGION" envDefault:"auto"`
	StorageR2Bucket          string `env:"STORAGE_R2_BUCKET"`
	StorageR2Prefix          string `env:"STORAGE_R2_PREFIX"`
	StorageR2AccessKeyID     string `env:"STORAGE_R2_ACCESS_KEY_ID"`
	StorageR2SecretAccessKey string `env:"STORAGE_R2_SECRET_ACCESS_KEY"`

	JWTSecret            string `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	JWTIssuer            string `env:"JWT_ISSUER" envDefault:"bloodbank"`
	JWTExpirationMinutes int    `env:"JWT_EXPIRATION_MINUTES" envDefault:"1440"`
}

func ParseConfig() (Config, error) {
	var Conf Config
	err := env.Parse(&Conf)
	if err != nil {
		logrus.WithError(err).Error("env.Parse error")
		return Config{}, err
	}
	if err := Conf.Validate(); err != nil {
		return Config{}, err
	}
	logrus.WithFields(logrus.Fields{
		"db_type":      Conf.DBType,
		"storage_type": Conf.StorageType,
		"http_port":    Conf.HTTPPort,
	}).Debug("config loaded")
	return Conf, nil
}

// Validate checks the settings that would otherwise corrupt derived values.
func (c Config) Validate() error {
	if c.InventoryCriticalBelow < 0 {
		return fmt.Errorf("INVENTORY_CRITICAL_BELOW must not be negative")
	}
	if c.InventoryMinThreshold < c.InventoryCriticalBelow {
		return fmt.Errorf("INVENTORY_MIN_THRESHOLD (%d) must be >= INVENTORY_CRITICAL_BELOW (%d)",
			c.InventoryMinThreshold, c.InventoryCriticalBelow)
	}
	if c.InventoryMaxCapacity <= c.InventoryMinThreshold {
		return fmt.Errorf("INVENTORY_MAX_CAPACITY (%d) must be > INVENTORY_MIN_THRESHOLD (%d)",
			c.InventoryMaxCapacity, c.InventoryMinThreshold)
	}
	if c.StatsCacheTTL > 0 && c.StatsCacheSize <= 0 {
		return fmt.Errorf("STATS_CACHE_SIZE must be positive when STATS_CACHE_TTL is set")
	}
	return nil
}

// Thresholds returns the inventory status thresholds.
func (c Config) Thresholds() entity.InventoryThresholds {
	return entity.InventoryThresholds{
		CriticalBelow: c.InventoryCriticalBelow,
		Minimum:       c.InventoryMinThreshold,
		Capacity:      c.InventoryMaxCapacity,
	}
}
