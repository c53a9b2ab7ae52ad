package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.Tools.FlacBinary == "" {
		return errors.New("tools.flac_binary must be set")
	}
	if c.Tools.SevenZipBinary == "" {
		return errors.New("tools.sevenzip_binary must be set")
	}
	if c.Encoder.CompressionLevel < 0 || c.Encoder.CompressionLevel > 8 {
		return fmt.Errorf("encoder.compression_level must be between 0 and 8, got %d", c.Encoder.CompressionLevel)
	}
	if c.Archiver.CompressionLevel < 0 || c.Archiver.CompressionLevel > 9 {
		return fmt.Errorf("archiver.compression_level must be between 0 and 9, got %d", c.Archiver.CompressionLevel)
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	return nil
}
