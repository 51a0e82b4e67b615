// SPDX-License-Identifier: MIT
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"musviz/internal/config"
	"musviz/pkg/build"
)

// Options carries the command line state: the config file path, flag
// overrides layered over the loaded config, a one-off command and the
// track paths given as positional arguments.
type Options struct {
	ConfigPath string
	Command    string
	Tracks     []string

	Device          int
	FramesPerBuffer int
	Bars            int
	FFTSize         int
	Volume          float64
	Verbose         bool
}

// ParseArgs parses the command line into Options.
func ParseArgs() (*Options, error) {
	buildInfo := build.GetInfo()
	options := &Options{}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name + " [tracks...]",
		Short:         "A music player with a real-time spectrum visualizer",
		Version:       buildInfo.Version,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			options.Tracks = args
			return nil
		},
	}

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	// List command
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = "list"
		},
	}
	rootCmd.AddCommand(listCmd)

	// Configuration file
	rootCmd.PersistentFlags().StringVarP(&options.ConfigPath, "config", "C", "",
		"Path to a YAML config file. Default is ./config.yaml if present.")

	// Audio Device Configuration
	rootCmd.PersistentFlags().IntVarP(&options.Device, "device", "d", config.DefaultDeviceID,
		"Specify output device ID. Use 'list' command to see available devices.")
	rootCmd.PersistentFlags().IntVarP(&options.FramesPerBuffer, "frames-per-buffer", "b", config.DefaultFramesPerBuffer,
		"The number of frames per output buffer (affects latency)")
	rootCmd.PersistentFlags().Float64VarP(&options.Volume, "volume", "V", config.DefaultVolume,
		"Initial output volume in [0, 1]")

	// Visualizer Configuration
	rootCmd.PersistentFlags().IntVarP(&options.Bars, "bars", "n", config.DefaultBars,
		"Number of spectrum bars")
	rootCmd.PersistentFlags().IntVarP(&options.FFTSize, "fft-size", "f", config.DefaultFFTSize,
		"Transform length, must be a power of 2")

	// Debug Configuration
	rootCmd.PersistentFlags().BoolVarP(&options.Verbose, "verbose", "v", config.DefaultVerbosity,
		"Show verbose output")

	// Execute the CLI
	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	return options, nil
}

// Apply layers the parsed flag values over a loaded configuration.
// Only flags the user actually changed from their defaults override
// the file; defaults never clobber explicit config values.
func (o *Options) Apply(cfg *config.Config) {
	if o.Device != config.DefaultDeviceID {
		cfg.Audio.OutputDevice = o.Device
	}
	if o.FramesPerBuffer != config.DefaultFramesPerBuffer {
		cfg.Audio.FramesPerBuffer = o.FramesPerBuffer
	}
	if o.Volume != config.DefaultVolume {
		cfg.Audio.Volume = o.Volume
	}
	if o.Bars != config.DefaultBars {
		cfg.Visualizer.Bars = o.Bars
	}
	if o.FFTSize != config.DefaultFFTSize {
		cfg.Visualizer.FFTSize = o.FFTSize
	}
	if o.Verbose {
		cfg.Debug = true
		cfg.LogLevel = "debug"
	}
}
