package config

const (
	defaultStagingDir         = "~/.local/share/framemill/staging"
	defaultLogDir             = "~/.local/share/framemill/logs"
	defaultOutputRateFPS      = 30.0
	defaultFramesPerChunk     = 32
	defaultInferenceBatchSize = 32
	defaultEncodeWorkers      = 4
	defaultFrameFormat        = "png"
	defaultChunkType          = "preview"
	defaultChunkVersion       = 1
	defaultChunkFormat        = "webm"
	defaultMinFreeGiB         = 5
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
		},
		Pipeline: Pipeline{
			OutputRateFPS:      defaultOutputRateFPS,
			FramesPerChunk:     defaultFramesPerChunk,
			InferenceBatchSize: defaultInferenceBatchSize,
			EncodeWorkers:      defaultEncodeWorkers,
		},
		Extraction: Extraction{
			FrameFormat: defaultFrameFormat,
		},
		Encoding: Encoding{
			ChunkType:    defaultChunkType,
			ChunkVersion: defaultChunkVersion,
			Format:       defaultChunkFormat,
			MinFreeGiB:   defaultMinFreeGiB,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
