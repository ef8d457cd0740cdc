// Package config loads and validates audiofeeder's TOML configuration.
//
// Load resolves the config path (flag value, AUDIOFEEDER_CONFIG, or the
// default under ~/.config/audiofeeder), applies defaults for missing keys,
// expands tildes, and validates the result. A missing file is not an error;
// defaults are used and callers can write a starter file with WriteSample.
package config
