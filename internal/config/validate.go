package config

import (
	"strings"

	"audiofeeder/internal/services"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.LibraryDir) == "" {
		return services.Wrap(services.ErrConfiguration, "config", "validate", "paths.library_dir must be set", nil)
	}
	if strings.TrimSpace(c.Paths.RenderDir) == "" {
		return services.Wrap(services.ErrConfiguration, "config", "validate", "paths.render_dir must be set", nil)
	}
	if c.Render.MinTailSeconds >= c.Render.TargetSegmentSeconds {
		return services.Wrap(services.ErrConfiguration, "config", "validate",
			"render.min_tail_seconds must be smaller than render.target_segment_seconds", nil)
	}
	if c.RenderCache.MaxGiB < 0 {
		return services.Wrap(services.ErrConfiguration, "config", "validate", "rendercache.max_gib must not be negative", nil)
	}
	if c.RenderCache.FreeSpaceMin < 0 || c.RenderCache.FreeSpaceMin >= 1 {
		return services.Wrap(services.ErrConfiguration, "config", "validate", "rendercache.free_space_min must be in [0, 1)", nil)
	}
	if c.RenderCache.RetentionDays < 0 {
		return services.Wrap(services.ErrConfiguration, "config", "validate", "rendercache.retention_days must not be negative", nil)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return services.Wrap(services.ErrConfiguration, "config", "validate", "log_format must be console or json", nil)
	}
	return nil
}
