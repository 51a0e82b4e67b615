// SPDX-License-Identifier: MIT
package config

// Core configuration constants that define the boundaries and defaults
// for the player and its spectral pipeline.
const (
	// Default values for the player configuration
	DefaultDeviceID        = MinDeviceID // Default to system default device
	DefaultFramesPerBuffer = 1024        // Balanced latency/performance
	DefaultVolume          = 0.5         // Comfortable starting volume
	DefaultFFTSize         = 8192        // Transform length (power of 2)
	DefaultBars            = 64          // Spectrum bars on screen
	DefaultFreqMin         = 20.0        // Lower edge of the lowest bar (Hz)
	DefaultWindow          = "Hann"      // Window function for the transform
	DefaultFPS             = 60          // Render loop rate
	DefaultVerbosity       = false       // Quiet operation

	// Hardware and processing limits
	MinDeviceID     = -1    // -1 represents system default device
	MinFFTSize      = 256   // Smallest useful transform
	MaxFFTSize      = 65536 // Largest supported transform (power of 2)
	MaxBars         = 512   // Upper bound on bar count
	MaxBufferFrames = 8192  // Maximum frames per buffer (power of 2)
)
