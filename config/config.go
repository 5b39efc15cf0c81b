package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

const (
	S3DriverAWS   = "s3"
	S3DriverMinio = "minio"
)

type (
	APP struct {
		Name string
		Host string
		Port string
		Env  string
	}
	Auth struct {
		JWTSecret    string
		SessionTTL   time.Duration
		CookieSecure bool
		BcryptCost   int
	}
	DB struct {
		User     string
		Password string
		Name     string
		Host     string
		Port     string
		SSLMode  string
	}
	S3 struct {
		Driver          string
		Endpoint        string
		Region          string
		AccessKeyID     string
		SecretAccessKey string
		BucketUploads   string
		SignedURLTTL    time.Duration
	}
	MQ struct {
		User         string
		Password     string
		Vhost        string
		Host         string
		AmqpPort     string
		Exchange     string
		ExchangeType string
		QueueName    string
		// orphan sweeper removals per second, 0 = unlimited
		SweepRate float64
	}
	Upload struct {
		MaxBytes int64
	}

	Config struct {
		App    APP
		Auth   Auth
		DB     DB
		S3     S3
		MQ     MQ
		Upload Upload

		// malformed env values, reported by Validate
		parseErrs []error
	}
)

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

// envParser reads typed env values. A malformed value keeps the default
// and is recorded for Validate.
type envParser struct {
	errs []error
}

func (p *envParser) fail(key, v string, err error) {
	p.errs = append(p.errs, fmt.Errorf("invalid %s %q: %w", key, v, err))
}

func (p *envParser) getDuration(key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return d
}

func (p *envParser) getInt64(key string, def int64) int64 {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return n
}

func (p *envParser) getFloat(key string, def float64) float64 {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return f
}

func (p *envParser) getBool(key string, def bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return b
}

func Load() Config {
	var p envParser

	app := APP{
		Name: getEnv("SERVICE_NAME", "filedrive"),
		Host: getEnv("SERVICE_HOST", ""),
		Port: getEnv("SERVICE_PORT", "3000"),
		Env:  getEnv("SERVICE_ENV", ""),
	}
	auth := Auth{
		JWTSecret:    getEnv("SERVICE_JWT_SECRET", ""),
		SessionTTL:   p.getDuration("SESSION_TTL", 24*time.Hour),
		CookieSecure: p.getBool("SESSION_COOKIE_SECURE", false),
		BcryptCost:   int(p.getInt64("PASSWORD_BCRYPT_COST", 10)),
	}
	db := DB{
		User:     getEnv("POSTGRES_USER", ""),
		Password: getEnv("POSTGRES_PASSWORD", ""),
		Name:     getEnv("POSTGRES_DB", ""),
		Host:     getEnv("POSTGRES_HOST", ""),
		Port:     getEnv("POSTGRES_PORT", ""),
		SSLMode:  getEnv("POSTGRES_SSLMODE", ""),
	}
	s3 := S3{
		Driver:          getEnv("S3_DRIVER", S3DriverAWS),
		Endpoint:        getEnv("S3_ENDPOINT", ""),
		Region:          getEnv("S3_REGION", "us-east-1"),
		AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		BucketUploads:   getEnv("S3_BUCKET_UPLOADS", ""),
		SignedURLTTL:    p.getDuration("DOWNLOAD_URL_TTL", 60*time.Second),
	}
	mq := MQ{
		User:         getEnv("RABBITMQ_USER", ""),
		Password:     getEnv("RABBITMQ_PASSWORD", ""),
		Vhost:        getEnv("RABBITMQ_VHOST", ""),
		Host:         getEnv("RABBITMQ_HOST", ""),
		AmqpPort:     getEnv("RABBITMQ_AMQP_PORT", ""),
		Exchange:     getEnv("RABBITMQ_EXCHANGE", "filedrive.events"),
		ExchangeType: getEnv("RABBITMQ_EXCHANGE_TYPE", "topic"),
		QueueName:    getEnv("RABBITMQ_QUEUE_NAME", "filedrive.orphans"),
		SweepRate:    p.getFloat("ORPHAN_SWEEP_RATE", 5),
	}
	upload := Upload{
		MaxBytes: p.getInt64("UPLOAD_MAX_BYTES", 10<<20),
	}

	return Config{
		App:    app,
		Auth:   auth,
		DB:     db,
		S3:     s3,
		MQ:     mq,
		Upload: upload,

		parseErrs: p.errs,
	}
}

func (c Config) Validate() error {
	if len(c.parseErrs) > 0 {
		return errors.Join(c.parseErrs...)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("SERVICE_JWT_SECRET is required")
	}
	if c.S3.BucketUploads == "" {
		return fmt.Errorf("S3_BUCKET_UPLOADS is required")
	}
	switch c.S3.Driver {
	case S3DriverAWS, S3DriverMinio:
	default:
		return fmt.Errorf("unknown S3_DRIVER %q", c.S3.Driver)
	}
	if c.S3.Driver == S3DriverMinio && c.S3.Endpoint == "" {
		return fmt.Errorf("S3_ENDPOINT is required for the minio driver")
	}
	if c.S3.SignedURLTTL <= 0 {
		return fmt.Errorf("DOWNLOAD_URL_TTL must be positive")
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be positive")
	}
	return nil
}

func (c Config) DBDSN() (string, error) {
	if c.DB.User == "" || c.DB.Name == "" || c.DB.Host == "" || c.DB.Port == "" {
		return "", fmt.Errorf("incomplete DB config")
	}
	dsn := fmt.Sprintf(
		"postgres://%s@%s:%s/%s",
		url.UserPassword(c.DB.User, c.DB.Password).String(),
		c.DB.Host,
		c.DB.Port,
		c.DB.Name,
	)
	if c.DB.SSLMode != "" {
		dsn += "?sslmode=" + url.QueryEscape(c.DB.SSLMode)
	}
	return dsn, nil
}

// MQEnabled reports whether lifecycle events should go to RabbitMQ.
func (c Config) MQEnabled() bool { return c.MQ.Host != "" }

func (c Config) AMQPDSN() (string, error) {
	if c.MQ.User == "" || c.MQ.Host == "" || c.MQ.AmqpPort == "" {
		return "", fmt.Errorf("invalid MQ config: user, host and amqp port are required")
	}

	return fmt.Sprintf(
		"%s://%s@%s:%s/%s",
		"amqp",
		url.UserPassword(c.MQ.User, c.MQ.Password).String(),
		c.MQ.Host,
		c.MQ.AmqpPort,
		url.PathEscape(c.MQ.Vhost),
	), nil
}
