// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"musviz/pkg/bitint"
)

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	Debug      bool             `yaml:"debug"`     // Enable debug mode (verbose logging).
	LogLevel   string           `yaml:"log_level"` // Logging level (e.g., "debug", "info", "warn", "error").
	Audio      AudioConfig      `yaml:"audio"`     // Audio output settings.
	Visualizer VisualizerConfig `yaml:"visualizer"`
	Transport  TransportConfig  `yaml:"transport"` // Data transport settings (WebSocket, UDP).
}

// AudioConfig holds settings related to audio output.
type AudioConfig struct {
	OutputDevice    int     `yaml:"output_device"`     // PortAudio device index for audio output (-1 for default).
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Number of audio frames per output buffer (affects latency).
	Volume          float64 `yaml:"volume"`            // Initial output volume in [0, 1].
}

// VisualizerConfig holds the spectral pipeline settings.
type VisualizerConfig struct {
	FFTSize   int     `yaml:"fft_size"`   // Transform length, power of two.
	Bars      int     `yaml:"bars"`       // Number of spectrum bars.
	FreqMin   float64 `yaml:"freq_min"`   // Lower edge of the lowest bar in Hz.
	BassBars  int     `yaml:"bass_bars"`  // Number of low bars receiving boost.
	BassBoost float64 `yaml:"bass_boost"` // Boost gain at the lowest bar.
	Window    string  `yaml:"window"`     // Window function name (e.g., "Hann", "Hamming").
	FPS       int     `yaml:"fps"`        // Render loop rate in frames per second.
}

// TransportConfig holds settings related to publishing bar frames over the network.
type TransportConfig struct {
	WSEnabled        bool          `yaml:"ws_enabled"`         // Enable the WebSocket bar feed.
	WSPort           string        `yaml:"ws_port"`            // WebSocket server port (e.g., "8080").
	WSSendInterval   time.Duration `yaml:"ws_send_interval"`   // Minimum time between WebSocket broadcasts.
	UDPEnabled       bool          `yaml:"udp_enabled"`        // Enable sending bar frames over UDP.
	UDPTargetAddress string        `yaml:"udp_target_address"` // Target address and port for UDP packets (e.g., "127.0.0.1:9090").
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`  // Interval between UDP packets.
}

// LoadConfig loads configuration from a YAML file specified by path. If path is empty,
// it searches default locations ("config.yaml"). If no file is found, it uses built-in
// defaults. After loading defaults or from file, it applies environment variable
// overrides and validates the final configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := Config{
		Debug:    false,
		LogLevel: "info",
		Audio: AudioConfig{
			OutputDevice:    DefaultDeviceID,
			FramesPerBuffer: DefaultFramesPerBuffer,
			Volume:          DefaultVolume,
		},
		Visualizer: VisualizerConfig{
			FFTSize:   DefaultFFTSize,
			Bars:      DefaultBars,
			FreqMin:   DefaultFreqMin,
			BassBars:  8,
			BassBoost: 3.5,
			Window:    DefaultWindow,
			FPS:       DefaultFPS,
		},
		Transport: TransportConfig{
			WSEnabled:        false,
			WSPort:           "8080",
			WSSendInterval:   33 * time.Millisecond,
			UDPEnabled:       false,
			UDPTargetAddress: "127.0.0.1:9090",
			UDPSendInterval:  33 * time.Millisecond, // Default ~30Hz.
		},
	}

	if path == "" {
		candidates := []string{
			"config.yaml",
		}
		found := false
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				found = true
				break
			}
		}
		if !found {
			cfg.applyEnvOverrides()
			if err := cfg.Validate(); err != nil {
				return nil, fmt.Errorf("invalid default configuration: %w", err)
			}
			return &cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply environment variable overrides AFTER loading from file.
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks field ranges that would otherwise surface as
// confusing failures deep inside the pipeline.
func (c *Config) Validate() error {
	if !bitint.IsPowerOfTwo(c.Visualizer.FFTSize) {
		return fmt.Errorf("visualizer.fft_size must be a power of 2, got %d", c.Visualizer.FFTSize)
	}
	if c.Visualizer.FFTSize < MinFFTSize || c.Visualizer.FFTSize > MaxFFTSize {
		return fmt.Errorf("visualizer.fft_size %d out of range [%d, %d]",
			c.Visualizer.FFTSize, MinFFTSize, MaxFFTSize)
	}
	if c.Visualizer.Bars < 1 || c.Visualizer.Bars > MaxBars {
		return fmt.Errorf("visualizer.bars %d out of range [1, %d]", c.Visualizer.Bars, MaxBars)
	}
	if c.Visualizer.FreqMin <= 0 {
		return fmt.Errorf("visualizer.freq_min must be positive, got %f", c.Visualizer.FreqMin)
	}
	if c.Visualizer.FPS < 1 {
		return fmt.Errorf("visualizer.fps must be positive, got %d", c.Visualizer.FPS)
	}
	if c.Audio.FramesPerBuffer < 1 || c.Audio.FramesPerBuffer > MaxBufferFrames {
		return fmt.Errorf("audio.frames_per_buffer %d out of range [1, %d]",
			c.Audio.FramesPerBuffer, MaxBufferFrames)
	}
	if c.Audio.Volume < 0 || c.Audio.Volume > 1 {
		return fmt.Errorf("audio.volume %f out of range [0, 1]", c.Audio.Volume)
	}
	if c.Transport.UDPEnabled {
		if c.Transport.UDPTargetAddress == "" {
			return fmt.Errorf("transport.udp_target_address must be set when UDP is enabled")
		}
		if c.Transport.UDPSendInterval <= 0 {
			return fmt.Errorf("transport.udp_send_interval must be positive when UDP is enabled")
		}
	}
	return nil
}

// applyEnvOverrides layers ENV_* variables over whatever the file (or
// the defaults) provided. Unparseable values are ignored.
func (cfg *Config) applyEnvOverrides() {
	// ENV_{...}
	// These are general overrides.

	// ENV_DEBUG
	if val, ok := os.LookupEnv("ENV_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Debug = bVal
		}
	}
	// ENV_LOG_LEVEL
	if val, ok := os.LookupEnv("ENV_LOG_LEVEL"); ok {
		cfg.LogLevel = val
	}

	// ENV_WS_{...} and ENV_UDP_{...}
	// These are specific to the transport layer.

	// ENV_WS_ENABLED
	if val, ok := os.LookupEnv("ENV_WS_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Transport.WSEnabled = bVal
		}
	}
	// ENV_WS_PORT
	if val, ok := os.LookupEnv("ENV_WS_PORT"); ok {
		cfg.Transport.WSPort = val
	}
	// ENV_UDP_ENABLED
	if val, ok := os.LookupEnv("ENV_UDP_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Transport.UDPEnabled = bVal
		}
	}
	// ENV_UDP_TARGET_ADDRESS
	if val, ok := os.LookupEnv("ENV_UDP_TARGET_ADDRESS"); ok {
		cfg.Transport.UDPTargetAddress = val
	}
	// ENV_UDP_SEND_INTERVAL
	if val, ok := os.LookupEnv("ENV_UDP_SEND_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			cfg.Transport.UDPSendInterval = dur
		}
	}
}
