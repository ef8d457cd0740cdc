package config

const (
	defaultLibraryDir           = "~/audiobooks"
	defaultRenderDir            = "~/.local/share/audiofeeder/renders"
	defaultLogDir               = "~/.local/share/audiofeeder/logs"
	defaultAPIBind              = "127.0.0.1:7581"
	defaultLogLevel             = "info"
	defaultLogFormat            = "console"
	defaultTargetSegmentSeconds = 3600
	defaultRenderWorkers        = 2
	defaultCacheMaxGiB          = 50
	defaultFreeSpaceMin         = 0.10
	defaultFFmpegBinary         = "ffmpeg"
	defaultFFprobeBinary        = "ffprobe"
	defaultProbeTimeoutSeconds  = 30
	defaultRenderTimeoutSeconds = 3600
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LibraryDir: defaultLibraryDir,
			RenderDir:  defaultRenderDir,
			LogDir:     defaultLogDir,
			APIBind:    defaultAPIBind,
		},
		Render: Render{
			TargetSegmentSeconds: defaultTargetSegmentSeconds,
			// MinTailSeconds defaults to a quarter of the target; resolved in normalize.
			Workers: defaultRenderWorkers,
		},
		RenderCache: RenderCache{
			MaxGiB:       defaultCacheMaxGiB,
			FreeSpaceMin: defaultFreeSpaceMin,
		},
		FFmpeg: FFmpeg{
			FFmpegBinary:         defaultFFmpegBinary,
			FFprobeBinary:        defaultFFprobeBinary,
			ProbeTimeoutSeconds:  defaultProbeTimeoutSeconds,
			RenderTimeoutSeconds: defaultRenderTimeoutSeconds,
		},
		LogLevel:  defaultLogLevel,
		LogFormat: defaultLogFormat,
	}
}
