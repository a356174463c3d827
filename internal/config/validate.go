package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateExtraction(); err != nil {
		return err
	}
	if err := c.validateEncoding(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.OutputRateFPS <= 0 {
		return errors.New("pipeline.output_rate_fps must be positive")
	}
	if c.Pipeline.FramesPerChunk <= 0 {
		return errors.New("pipeline.frames_per_chunk must be positive")
	}
	if c.Pipeline.InferenceBatchSize < 2 {
		return errors.New("pipeline.inference_batch_size must be at least 2")
	}
	// Each consecutive pair contributes a forward and a backward input.
	if c.Pipeline.InferenceBatchSize%2 != 0 {
		return errors.New("pipeline.inference_batch_size must be even")
	}
	if c.Pipeline.EncodeWorkers < 1 {
		return errors.New("pipeline.encode_workers must be at least 1")
	}
	return nil
}

func (c *Config) validateExtraction() error {
	if crop := c.Extraction.Crop; crop != "" {
		parts := strings.Split(crop, ":")
		if len(parts) != 4 {
			return fmt.Errorf("extraction.crop must be \"w:h:x:y\", got %q", crop)
		}
		for _, part := range parts {
			if _, err := strconv.Atoi(part); err != nil {
				return fmt.Errorf("extraction.crop component %q is not an integer", part)
			}
		}
	}
	switch c.Extraction.FrameFormat {
	case "png", "jpg", "jpeg", "bmp":
	default:
		return fmt.Errorf("extraction.frame_format %q is not supported", c.Extraction.FrameFormat)
	}
	return nil
}

func (c *Config) validateEncoding() error {
	if c.Encoding.ChunkVersion < 0 {
		return errors.New("encoding.chunk_version must not be negative")
	}
	if strings.ContainsAny(c.Encoding.ChunkType, "/\\") {
		return fmt.Errorf("encoding.chunk_type %q must not contain path separators", c.Encoding.ChunkType)
	}
	if c.Encoding.MinFreeGiB < 0 {
		return errors.New("encoding.min_free_gib must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
