package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeConverter()
	c.normalizeDownload()
	if err := c.normalizeWatch(); err != nil {
		return err
	}
	c.normalizeWorkflow()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		c.Paths.StagingDir = defaultStagingDir
	}
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.FavoritesPath) == "" {
		c.Paths.FavoritesPath = defaultFavoritesPath
	}
	if c.Paths.FavoritesPath, err = expandPath(c.Paths.FavoritesPath); err != nil {
		return fmt.Errorf("paths.favorites_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeConverter() {
	c.Converter.Binary = strings.TrimSpace(c.Converter.Binary)
	if c.Converter.Binary == "" {
		c.Converter.Binary = defaultConverterBinary
	}
	if c.Converter.TimeoutSeconds <= 0 {
		c.Converter.TimeoutSeconds = defaultConverterTimeout
	}
}

func (c *Config) normalizeDownload() {
	if c.Download.TimeoutSeconds <= 0 {
		c.Download.TimeoutSeconds = defaultDownloadTimeout
	}
	c.Download.UserAgent = strings.TrimSpace(c.Download.UserAgent)
	if c.Download.UserAgent == "" {
		c.Download.UserAgent = defaultDownloadUserAgent
	}
}

func (c *Config) normalizeWatch() error {
	if strings.TrimSpace(c.Watch.Dir) != "" {
		expanded, err := expandPath(c.Watch.Dir)
		if err != nil {
			return fmt.Errorf("watch.dir: %w", err)
		}
		c.Watch.Dir = expanded
	}
	if c.Watch.SettleSeconds <= 0 {
		c.Watch.SettleSeconds = defaultWatchSettleSeconds
	}
	return nil
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.QueuePollInterval <= 0 {
		c.Workflow.QueuePollInterval = defaultQueuePollInterval
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		c.Workflow.ErrorRetryInterval = defaultErrorRetryInterval
	}
	if c.Workflow.MinFreeSpaceMiB < 0 {
		c.Workflow.MinFreeSpaceMiB = 0
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
