// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ConversionConfig holds settings for a single DOCX-to-PDF conversion.
// It mirrors the keys accepted in ditto.yaml and DITTO_* environment variables.
type ConversionConfig struct {
	// Timeout bounds the lifetime of the external converter process (default 2m).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// GracePeriod is how long to wait for the process pipes to close after the
	// process has been killed (default 5s).
	GracePeriod time.Duration `json:"grace_period" yaml:"grace_period" mapstructure:"grace_period"`

	// BinaryPath overrides PATH lookup of soffice. When set, no fallback is tried.
	BinaryPath string `json:"binary_path,omitempty" yaml:"binary_path,omitempty" mapstructure:"binary_path"`

	// CleanupOnFailure removes the staging directory and any partial output
	// when a conversion fails or is cancelled.
	CleanupOnFailure bool `json:"cleanup_on_failure" yaml:"cleanup_on_failure" mapstructure:"cleanup_on_failure"`

	// IsolateProfile gives each run its own LibreOffice user profile so that
	// concurrent runs do not contend for the profile lock.
	IsolateProfile bool `json:"isolate_profile" yaml:"isolate_profile" mapstructure:"isolate_profile"`

	// VerifyInput opens the input as a DOCX container before spawning soffice.
	VerifyInput bool `json:"verify_input" yaml:"verify_input" mapstructure:"verify_input"`

	// Inspect parses the produced PDF and reports its page count.
	Inspect bool `json:"inspect" yaml:"inspect" mapstructure:"inspect"`
}

// BatchConfig holds settings for converting many documents in one run.
type BatchConfig struct {
	// Jobs is the maximum number of concurrent conversions (default 1).
	Jobs int `json:"jobs" yaml:"jobs" mapstructure:"jobs"`

	// SkipExisting leaves documents alone whose PDF already exists.
	SkipExisting bool `json:"skip_existing" yaml:"skip_existing" mapstructure:"skip_existing"`

	// OutputDir receives the PDFs. Empty means next to each input.
	OutputDir string `json:"output_dir,omitempty" yaml:"output_dir,omitempty" mapstructure:"output_dir"`
}

// JournalConfig holds settings for the conversion history database.
type JournalConfig struct {
	// Path is the SQLite database file. Empty disables the journal.
	Path string `json:"path,omitempty" yaml:"path,omitempty" mapstructure:"path"`
}

// Config groups all ditto settings.
type Config struct {
	Conversion ConversionConfig `json:"conversion" yaml:"conversion" mapstructure:"conversion"`
	Batch      BatchConfig      `json:"batch" yaml:"batch" mapstructure:"batch"`
	Journal    JournalConfig    `json:"journal" yaml:"journal" mapstructure:"journal"`
}
