package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors Config for the YAML overlay. Every field is a pointer
// so absent keys leave the current value untouched; durations are strings
// in time.ParseDuration form.
type fileConfig struct {
	Server struct {
		Port         *int    `yaml:"port"`
		ReadTimeout  *string `yaml:"read_timeout"`
		WriteTimeout *string `yaml:"write_timeout"`
		IdleTimeout  *string `yaml:"idle_timeout"`
	} `yaml:"server"`
	Database struct {
		URL          *string `yaml:"url"`
		MaxOpenConns *int    `yaml:"max_open_conns"`
		MaxIdleConns *int    `yaml:"max_idle_conns"`
	} `yaml:"database"`
	Upstream struct {
		BaseURL        *string `yaml:"base_url"`
		ServiceKey     *string `yaml:"service_key"`
		AttemptTimeout *string `yaml:"attempt_timeout"`
		MaxAttempts    *int    `yaml:"max_attempts"`
		RetryBackoff   *string `yaml:"retry_backoff"`
		MaxBackoff     *string `yaml:"max_backoff"`
	} `yaml:"upstream"`
	RateLimit struct {
		Burst       *int    `yaml:"burst"`
		BurstWindow *string `yaml:"burst_window"`
		PerMinute   *int    `yaml:"per_minute"`
		PerHour     *int    `yaml:"per_hour"`
	} `yaml:"rate_limit"`
	Cache struct {
		FreshFor *string `yaml:"fresh_for"`
		StaleFor *string `yaml:"stale_for"`
		MaxAge   *string `yaml:"max_age"`
	} `yaml:"cache"`
	History struct {
		RetentionDays     *int `yaml:"retention_days"`
		AverageWindowDays *int `yaml:"average_window_days"`
		AverageMaxRecords *int `yaml:"average_max_records"`
	} `yaml:"history"`
	Refresh struct {
		Interval      *string `yaml:"interval"`
		BatchSize     *int    `yaml:"batch_size"`
		BatchDelay    *string `yaml:"batch_delay"`
		PruneInterval *string `yaml:"prune_interval"`
	} `yaml:"refresh"`
	Logging struct {
		Level  *string `yaml:"level"`
		Format *string `yaml:"format"`
	} `yaml:"logging"`
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("invalid yaml: %w", err)
	}

	setInt(&cfg.Server.Port, fc.Server.Port)
	if err := setDuration(&cfg.Server.ReadTimeout, fc.Server.ReadTimeout); err != nil {
		return err
	}
	if err := setDuration(&cfg.Server.WriteTimeout, fc.Server.WriteTimeout); err != nil {
		return err
	}
	if err := setDuration(&cfg.Server.IdleTimeout, fc.Server.IdleTimeout); err != nil {
		return err
	}

	setString(&cfg.Database.URL, fc.Database.URL)
	setInt(&cfg.Database.MaxOpenConns, fc.Database.MaxOpenConns)
	setInt(&cfg.Database.MaxIdleConns, fc.Database.MaxIdleConns)

	setString(&cfg.Upstream.BaseURL, fc.Upstream.BaseURL)
	setString(&cfg.Upstream.ServiceKey, fc.Upstream.ServiceKey)
	if err := setDuration(&cfg.Upstream.AttemptTimeout, fc.Upstream.AttemptTimeout); err != nil {
		return err
	}
	setInt(&cfg.Upstream.MaxAttempts, fc.Upstream.MaxAttempts)
	if err := setDuration(&cfg.Upstream.RetryBackoff, fc.Upstream.RetryBackoff); err != nil {
		return err
	}
	if err := setDuration(&cfg.Upstream.MaxBackoff, fc.Upstream.MaxBackoff); err != nil {
		return err
	}

	setInt(&cfg.RateLimit.Burst, fc.RateLimit.Burst)
	if err := setDuration(&cfg.RateLimit.BurstWindow, fc.RateLimit.BurstWindow); err != nil {
		return err
	}
	setInt(&cfg.RateLimit.PerMinute, fc.RateLimit.PerMinute)
	setInt(&cfg.RateLimit.PerHour, fc.RateLimit.PerHour)

	if err := setDuration(&cfg.Cache.FreshFor, fc.Cache.FreshFor); err != nil {
		return err
	}
	if err := setDuration(&cfg.Cache.StaleFor, fc.Cache.StaleFor); err != nil {
		return err
	}
	if err := setDuration(&cfg.Cache.MaxAge, fc.Cache.MaxAge); err != nil {
		return err
	}

	setInt(&cfg.History.RetentionDays, fc.History.RetentionDays)
	setInt(&cfg.History.AverageWindowDays, fc.History.AverageWindowDays)
	setInt(&cfg.History.AverageMaxRecords, fc.History.AverageMaxRecords)

	if err := setDuration(&cfg.Refresh.Interval, fc.Refresh.Interval); err != nil {
		return err
	}
	setInt(&cfg.Refresh.BatchSize, fc.Refresh.BatchSize)
	if err := setDuration(&cfg.Refresh.BatchDelay, fc.Refresh.BatchDelay); err != nil {
		return err
	}
	if err := setDuration(&cfg.Refresh.PruneInterval, fc.Refresh.PruneInterval); err != nil {
		return err
	}

	setString(&cfg.Logging.Level, fc.Logging.Level)
	setString(&cfg.Logging.Format, fc.Logging.Format)

	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src *string) error {
	if src == nil {
		return nil
	}
	d, err := time.ParseDuration(*src)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", *src, err)
	}
	*dst = d
	return nil
}
