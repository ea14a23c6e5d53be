// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/relabs-tech/geomag_logger/internal/mag"
	"github.com/relabs-tech/geomag_logger/internal/sensors"
)

// DefaultPath is the configuration file read when none is given.
const DefaultPath = "./gmt.config"

// Mode selects what is logged per minute.
type Mode string

const (
	ModeAxes Mode = "AXES" // one value per axis
	ModeSum  Mode = "SUM"  // accepted, not implemented
)

// Config holds all application configuration values.
type Config struct {
	// Sensor
	Device    string // LSM303 or HMC5883
	Bus       string // periph I²C bus name, e.g. "1"
	Mode      Mode
	Axes      mag.Axis
	Rate      int    // output data rate table index
	Fullscale string // e.g. "1.3G"; empty selects the device default

	// Output
	DataPath string

	// Time
	NTPHost  string // empty uses the system clock
	Timezone string // IANA name; empty uses the local zone

	// Status display on the same bus
	Display bool
}

// Default returns the compiled-in configuration.
func Default() *Config {
	return &Config{
		Device:   sensors.LSM303.Name,
		Bus:      sensors.DefaultBus,
		Mode:     ModeAxes,
		Axes:     mag.AllAxes,
		Rate:     sensors.DefaultRate,
		DataPath: "./data",
	}
}

// Variant returns the sensor variant named by Device.
func (c *Config) Variant() sensors.Variant {
	v, ok := sensors.LookupVariant(c.Device)
	if !ok {
		return sensors.LSM303
	}
	return v
}

// Location returns the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("cannot load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Load reads a KEY=VALUE configuration file on top of the defaults.
//
// Keys are case-insensitive and the first occurrence of a key wins. Bad
// lines, unknown keys and invalid values leave the default in place and
// are reported in the returned notices. A file that is missing or can't
// be read yields the defaults plus a notice; values parsed before a read
// failure are discarded.
func Load(path string) (*Config, []string) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), []string{fmt.Sprintf("config file %s not found, using defaults", path)}
	}
	if err != nil {
		return Default(), []string{fmt.Sprintf("cannot open config file: %v, using defaults", err)}
	}
	defer f.Close()

	cfg := Default()
	notices, err := cfg.parse(f)
	if err != nil {
		return Default(), []string{fmt.Sprintf("cannot read config file %s: %v, using defaults", path, err)}
	}
	notices = append(notices, cfg.validate()...)
	if cfg.Mode == ModeSum {
		notices = append(notices, "MODE=SUM is not implemented, logging per-axis values")
	}
	return cfg, notices
}

func (c *Config) parse(r io.Reader) ([]string, error) {
	var notices []string
	seen := make(map[string]bool)
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			notices = append(notices, fmt.Sprintf("line %d: no '=' in %q, ignored", lineNum, line))
			continue
		}
		key = canonicalKey(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		if seen[key] {
			notices = append(notices, fmt.Sprintf("line %d: %s already set, ignored", lineNum, key))
			continue
		}
		seen[key] = true

		if err := c.setValue(key, value); err != nil {
			notices = append(notices, fmt.Sprintf("line %d: %v", lineNum, err))
		}
	}
	return notices, scanner.Err()
}

func canonicalKey(key string) string {
	key = strings.ToUpper(key)
	if key == "BUS" {
		return "I2C_BUS"
	}
	return key
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	case "DEVICE":
		v, ok := sensors.LookupVariant(value)
		if !ok {
			return fmt.Errorf("unknown DEVICE %q, using %s", value, c.Device)
		}
		c.Device = v.Name
	case "I2C_BUS":
		if value == "" {
			return fmt.Errorf("empty I2C_BUS, using %s", c.Bus)
		}
		c.Bus = value
	case "DATAPATH":
		if value == "" {
			return fmt.Errorf("empty DATAPATH, using %s", c.DataPath)
		}
		c.DataPath = value
	case "MODE":
		switch m := Mode(strings.ToUpper(value)); m {
		case ModeAxes, ModeSum:
			c.Mode = m
		default:
			return fmt.Errorf("MODE must be AXES or SUM, got %q", value)
		}
	case "AXES":
		a := mag.ParseAxes(value)
		if a == 0 {
			return fmt.Errorf("AXES %q names no axis, using %s", value, c.Axes)
		}
		c.Axes = a
	case "RATE":
		val, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid RATE %q: %w", value, err)
		}
		if val < 0 || val >= len(sensors.ODRates) {
			return fmt.Errorf("RATE must be 0-%d, got %d", len(sensors.ODRates)-1, val)
		}
		c.Rate = val
	case "FULLSCALE":
		c.Fullscale = strings.ToUpper(value)
	case "DISPLAY":
		on, err := parseSwitch(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY: %w", err)
		}
		c.Display = on
	case "NTP_HOST":
		c.NTPHost = value
	case "TIMEZONE":
		c.Timezone = value
	default:
		return fmt.Errorf("unknown config key: %q", key)
	}
	return nil
}

func parseSwitch(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "on", "yes", "true", "1":
		return true, nil
	case "off", "no", "false", "0", "":
		return false, nil
	}
	return false, fmt.Errorf("want on or off, got %q", value)
}

// validate checks the settings that depend on each other and falls back
// to defaults where they don't fit the device.
func (c *Config) validate() []string {
	var notices []string
	v := c.Variant()
	if err := v.CheckRate(c.Rate); err != nil {
		notices = append(notices, fmt.Sprintf("%v, using %.2fHz", err, sensors.ODRates[sensors.DefaultRate]))
		c.Rate = sensors.DefaultRate
	}
	if c.Fullscale != "" {
		if _, err := v.Fullscale(c.Fullscale); err != nil {
			notices = append(notices, fmt.Sprintf("%v, using %s", err, v.DefaultFullscale))
			c.Fullscale = ""
		}
	}
	if c.Timezone != "" {
		if _, err := c.Location(); err != nil {
			notices = append(notices, fmt.Sprintf("%v, using local time", err))
			c.Timezone = ""
		}
	}
	return notices
}

// Environment variables that override the file.
const (
	EnvDevice   = "GMT_DEVICE"
	EnvBus      = "GMT_I2C_BUS"
	EnvDataPath = "GMT_DATAPATH"
	EnvNTPHost  = "GMT_NTP_HOST"
)

// ApplyEnv loads the given dotenv files (".env" if none) into the
// environment without overriding variables that are already set, then
// applies the GMT_* overrides to c. Missing dotenv files are not an
// error.
func ApplyEnv(c *Config, envFiles ...string) []string {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	var notices []string
	for _, name := range envFiles {
		if err := godotenv.Load(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			notices = append(notices, fmt.Sprintf("cannot load %s: %v", name, err))
		}
	}
	overrides := []struct {
		env string
		key string
	}{
		{EnvDevice, "DEVICE"},
		{EnvBus, "I2C_BUS"},
		{EnvDataPath, "DATAPATH"},
		{EnvNTPHost, "NTP_HOST"},
	}
	changed := false
	for _, o := range overrides {
		value, ok := os.LookupEnv(o.env)
		if !ok {
			continue
		}
		if err := c.setValue(o.key, strings.TrimSpace(value)); err != nil {
			notices = append(notices, fmt.Sprintf("%s: %v", o.env, err))
			continue
		}
		changed = true
	}
	if changed {
		notices = append(notices, c.validate()...)
	}
	return notices
}

// String renders the effective settings for the startup log.
func (c *Config) String() string {
	scale := c.Fullscale
	if scale == "" {
		scale = c.Variant().DefaultFullscale
	}
	ntpHost := c.NTPHost
	if ntpHost == "" {
		ntpHost = "off"
	}
	return fmt.Sprintf("device=%s bus=%s axes=%s rate=%.2fHz fullscale=%s datapath=%s ntp=%s display=%t",
		c.Device, c.Bus, c.Axes, sensors.ODRates[c.Rate], scale, c.DataPath, ntpHost, c.Display)
}
