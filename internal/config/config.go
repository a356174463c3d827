package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StagingDir string `toml:"staging_dir"`
	LogDir     string `toml:"log_dir"`
}

// Pipeline contains the chunk scheduling and inference batching geometry.
type Pipeline struct {
	OutputRateFPS      float64 `toml:"output_rate_fps"`
	FramesPerChunk     int     `toml:"frames_per_chunk"`
	InferenceBatchSize int     `toml:"inference_batch_size"`
	EncodeWorkers      int     `toml:"encode_workers"`
}

// Extraction contains configuration for the ffmpeg frame extractor.
type Extraction struct {
	FFmpegBinary string `toml:"ffmpeg_binary"`
	// Crop is an ffmpeg crop expression "w:h:x:y"; empty disables cropping.
	Crop        string `toml:"crop"`
	FrameFormat string `toml:"frame_format"`
}

// Predictor contains configuration for the pair inference subprocess.
type Predictor struct {
	Command string   `toml:"command"`
	Args    []string `toml:"args"`
}

// Encoding contains configuration for the chunk encoder backend and the
// storage key scheme of its artifacts.
type Encoding struct {
	FFmpegBinary string `toml:"ffmpeg_binary"`
	ChunkType    string `toml:"chunk_type"`
	ChunkVersion int    `toml:"chunk_version"`
	Format       string `toml:"format"`
	MinFreeGiB   int    `toml:"min_free_gib"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for framemill.
//
// Configuration sections by subsystem:
//   - Paths: staging and log directories
//   - Pipeline: output rate, chunk size, batch size, worker count
//   - Extraction: ffmpeg frame extractor settings
//   - Predictor: pair inference subprocess command
//   - Encoding: chunk encoder backend and artifact key scheme
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Pipeline   Pipeline   `toml:"pipeline"`
	Extraction Extraction `toml:"extraction"`
	Predictor  Predictor  `toml:"predictor"`
	Encoding   Encoding   `toml:"encoding"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/framemill/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a file existed at the resolved path.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("framemill.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for pipeline operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// PairsPerBatch derives the number of consecutive frame pairs per inference
// call from the configured image batch size. Each pair contributes both a
// forward and a backward direction, so the batch size is always even.
func (c *Config) PairsPerBatch() int {
	return c.Pipeline.InferenceBatchSize / 2
}

// FrameDurationSeconds returns the display duration of one frame at the
// configured output rate.
func (c *Config) FrameDurationSeconds() float64 {
	if c.Pipeline.OutputRateFPS <= 0 {
		return 0
	}
	return 1 / c.Pipeline.OutputRateFPS
}

// ExtractionFFmpegBinary returns the ffmpeg executable used for frame
// extraction.
func (c *Config) ExtractionFFmpegBinary() string {
	if binary := strings.TrimSpace(c.Extraction.FFmpegBinary); binary != "" {
		return binary
	}
	return "ffmpeg"
}

// EncodingFFmpegBinary returns the ffmpeg executable used for chunk encoding.
func (c *Config) EncodingFFmpegBinary() string {
	if binary := strings.TrimSpace(c.Encoding.FFmpegBinary); binary != "" {
		return binary
	}
	return "ffmpeg"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
