package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/servostack/paydesk/pkg/money"
)

// UPIChannel represents a configured UPI receiving account
type UPIChannel struct {
	Name      string `yaml:"name"`
	PayeeVPA  string `yaml:"payee_vpa"`
	PayeeName string `yaml:"payee_name"`
	MinAmount string `yaml:"min_amount"`
	MaxAmount string `yaml:"max_amount"`

	// Parsed amount bounds in paise, populated on load
	MinPaise money.Paise `yaml:"-"`
	MaxPaise money.Paise `yaml:"-"`
}

// ChannelsConfig holds all configured payment channels
type ChannelsConfig struct {
	UPI            []UPIChannel `yaml:"upi_channels"`
	DefaultChannel string       `yaml:"default_channel"`

	// Lookup map for fast access
	byName map[string]*UPIChannel
}

// LoadChannelsConfig loads payment channel configuration from a YAML file
func LoadChannelsConfig(path string) (*ChannelsConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read channels config file: %w", err)
	}

	var config ChannelsConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse channels config: %w", err)
	}

	config.byName = make(map[string]*UPIChannel, len(config.UPI))
	for i := range config.UPI {
		ch := &config.UPI[i]
		config.byName[ch.Name] = ch
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate validates the channels configuration
func (c *ChannelsConfig) Validate() error {
	if len(c.UPI) == 0 {
		return fmt.Errorf("at least one UPI channel must be configured")
	}

	seen := make(map[string]bool)
	for i := range c.UPI {
		ch := &c.UPI[i]
		if ch.Name == "" {
			return fmt.Errorf("channel name is required")
		}
		if seen[ch.Name] {
			return fmt.Errorf("duplicate channel name %q", ch.Name)
		}
		seen[ch.Name] = true

		if !strings.Contains(ch.PayeeVPA, "@") {
			return fmt.Errorf("invalid payee_vpa for channel %s", ch.Name)
		}
		if ch.PayeeName == "" {
			return fmt.Errorf("payee_name is required for channel %s", ch.Name)
		}

		min, err := money.Parse(ch.MinAmount)
		if err != nil {
			return fmt.Errorf("invalid min_amount for channel %s: %w", ch.Name, err)
		}
		max, err := money.Parse(ch.MaxAmount)
		if err != nil {
			return fmt.Errorf("invalid max_amount for channel %s: %w", ch.Name, err)
		}
		if max <= min {
			return fmt.Errorf("max_amount must exceed min_amount for channel %s", ch.Name)
		}
		ch.MinPaise = min
		ch.MaxPaise = max
	}

	if c.DefaultChannel == "" {
		return fmt.Errorf("default_channel is required")
	}
	if _, ok := c.byName[c.DefaultChannel]; !ok {
		return fmt.Errorf("default_channel %q is not a configured channel", c.DefaultChannel)
	}

	return nil
}

// GetChannel returns the channel configuration by name
func (c *ChannelsConfig) GetChannel(name string) (*UPIChannel, bool) {
	ch, ok := c.byName[name]
	return ch, ok
}

// Default returns the default UPI channel
func (c *ChannelsConfig) Default() *UPIChannel {
	return c.byName[c.DefaultChannel]
}
