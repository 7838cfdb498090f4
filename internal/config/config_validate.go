// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/MaximeMichaud/oura-dashboard/internal/logging"
	"github.com/MaximeMichaud/oura-dashboard/internal/validation"
)

// ErrMissingToken is returned by ValidateForSync when no access token is set.
var ErrMissingToken = errors.New("OURA_TOKEN is required to sync; create a personal access token at https://cloud.ouraring.com/personal-access-tokens")

// Validate checks struct tags and the cross-field rules.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}

	validators := []func() error{
		c.validateOura,
		c.validateSync,
		c.validateLogging,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

// ValidateForSync checks the settings only a real sync needs.
func (c *Config) ValidateForSync() error {
	if strings.TrimSpace(c.Oura.Token) == "" {
		return ErrMissingToken
	}
	return nil
}

func (c *Config) validateOura() error {
	if err := validateHTTPURL(c.Oura.BaseURL, "OURA_API_BASE_URL"); err != nil {
		return err
	}
	if c.Oura.RetryBaseDelay > c.Oura.RetryMaxDelay {
		return fmt.Errorf("OURA_RETRY_BASE_DELAY (%s) must not exceed OURA_RETRY_MAX_DELAY (%s)",
			c.Oura.RetryBaseDelay, c.Oura.RetryMaxDelay)
	}
	return nil
}

func (c *Config) validateSync() error {
	start, err := c.Sync.HistoryStart()
	if err != nil {
		return err
	}
	if start.After(time.Now()) {
		return fmt.Errorf("HISTORY_START_DATE %s is in the future", c.Sync.HistoryStartDate)
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error; got %q", c.Logging.Level)
	}
	return nil
}

// validateHTTPURL checks for an http(s) URL with a host. Paths are allowed.
func validateHTTPURL(rawURL, fieldName string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %s", fieldName, parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}
	if parsedURL.RawQuery != "" {
		return fmt.Errorf("%s should not contain query parameters, remove: ?%s", fieldName, parsedURL.RawQuery)
	}
	return nil
}
