package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateConverter(); err != nil {
		return err
	}
	if err := c.validateWatch(); err != nil {
		return err
	}
	return c.validateWorkflow()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		return errors.New("paths.staging_dir must be set")
	}
	if c.Paths.StagingDir == c.Paths.OutputDir {
		return errors.New("paths.staging_dir must differ from paths.output_dir")
	}
	return nil
}

func (c *Config) validateConverter() error {
	if strings.TrimSpace(c.Converter.Binary) == "" {
		return errors.New("converter.binary must be set (install marker-pdf to provide marker_single)")
	}
	return nil
}

func (c *Config) validateWatch() error {
	if strings.TrimSpace(c.Watch.Dir) == "" {
		return nil
	}
	if c.Watch.Dir == c.Paths.StagingDir {
		return fmt.Errorf("watch.dir must differ from paths.staging_dir (%s)", c.Paths.StagingDir)
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.QueuePollInterval <= 0 {
		return errors.New("workflow.queue_poll_interval must be positive")
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		return errors.New("workflow.error_retry_interval must be positive")
	}
	return nil
}
