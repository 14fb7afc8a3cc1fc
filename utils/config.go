package utils

import (
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Config is the daemon configuration loaded from YAML.
type Config struct {
	DeviceID         string
	DeviceType       string
	JournalDir       string
	FileSizeLimit    int64
	JournalSizeLimit int64
	ListenPort       string
	LogLevel         string
}

const (
	DefaultFileSizeLimit    = 1024 * 1024
	DefaultJournalSizeLimit = 100 * 1024 * 1024
	DefaultListenPort       = "5566"
)

// Parse fills the config from YAML data.
func (c *Config) Parse(data []byte) error {
	var aux struct {
		DeviceID         string `yaml:"device_id"`
		DeviceType       string `yaml:"device_type"`
		JournalDir       string `yaml:"journal_dir"`
		FileSizeLimit    string `yaml:"file_size_limit"`
		JournalSizeLimit string `yaml:"journal_size_limit"`
		ListenPort       string `yaml:"listen_port"`
		LogLevel         string `yaml:"log_level"`
	}

	if err := yaml.Unmarshal(data, &aux); err != nil {
		return errors.Wrap(err, "cannot parse config")
	}

	c.DeviceID = aux.DeviceID
	c.DeviceType = aux.DeviceType
	c.JournalDir = aux.JournalDir
	c.ListenPort = aux.ListenPort
	if c.ListenPort == "" {
		c.ListenPort = DefaultListenPort
	}
	c.LogLevel = aux.LogLevel

	c.FileSizeLimit = DefaultFileSizeLimit
	if aux.FileSizeLimit != "" {
		n, err := ParseByteSize(aux.FileSizeLimit)
		if err != nil {
			return errors.Wrap(err, "file_size_limit")
		}
		c.FileSizeLimit = n
	}
	c.JournalSizeLimit = DefaultJournalSizeLimit
	if aux.JournalSizeLimit != "" {
		n, err := ParseByteSize(aux.JournalSizeLimit)
		if err != nil {
			return errors.Wrap(err, "journal_size_limit")
		}
		c.JournalSizeLimit = n
	}
	return nil
}
