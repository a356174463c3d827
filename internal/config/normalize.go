package config

import "strings"

func (c *Config) normalize() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(strings.TrimSpace(c.Paths.StagingDir)); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return err
	}

	c.Extraction.FFmpegBinary = strings.TrimSpace(c.Extraction.FFmpegBinary)
	c.Extraction.Crop = strings.TrimSpace(c.Extraction.Crop)
	c.Extraction.FrameFormat = strings.ToLower(strings.TrimSpace(c.Extraction.FrameFormat))
	if c.Extraction.FrameFormat == "" {
		c.Extraction.FrameFormat = defaultFrameFormat
	}

	c.Predictor.Command = strings.TrimSpace(c.Predictor.Command)

	c.Encoding.FFmpegBinary = strings.TrimSpace(c.Encoding.FFmpegBinary)
	c.Encoding.ChunkType = strings.TrimSpace(c.Encoding.ChunkType)
	if c.Encoding.ChunkType == "" {
		c.Encoding.ChunkType = defaultChunkType
	}
	c.Encoding.Format = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(c.Encoding.Format, ".")))
	if c.Encoding.Format == "" {
		c.Encoding.Format = defaultChunkFormat
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}

	return nil
}
