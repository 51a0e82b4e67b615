// SPDX-License-Identifier: MIT
package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"musviz/cmd"
	"musviz/internal/config"
	"musviz/internal/dsp"
	applog "musviz/internal/log"
	"musviz/internal/player"
	"musviz/internal/ring"
	"musviz/internal/transport"
	"musviz/internal/transport/udp"
	"musviz/internal/viz"
	"musviz/pkg/build"
)

// main is the entry point for the player. The program flow is divided
// into three distinct phases:
//
// 1. Startup Phase (Cold Path):
//   - Parse command line arguments and load configuration
//   - Initialize PortAudio
//   - Execute one-off commands if requested
//   - Build the capture ring, the spectral pipeline and the transports
//
// 2. Concurrent Phase (Hot Path):
//   - Start playback of the first track
//   - Run the render loop at the configured frame rate
//
// 3. Shutdown Phase (Cold Path):
//   - Handle termination signals
//   - Stop playback and close transports
func main() {
	// ==================== STARTUP PHASE (Cold Path) ====================

	buildInfo := build.GetInfo()

	options, err := cmd.ParseArgs()
	if err != nil {
		applog.Fatalf("%v", err)
	}

	cfg, err := config.LoadConfig(options.ConfigPath)
	if err != nil {
		applog.Fatalf("%v", err)
	}
	options.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		applog.Fatalf("invalid configuration: %v", err)
	}

	if level, ok := applog.ParseLevel(cfg.LogLevel); ok {
		applog.SetLevel(level)
	}
	if cfg.Debug {
		applog.SetLevel(applog.LevelDebug)
	}
	applog.Infof("%s %s (%s)", buildInfo.Name, buildInfo.Version, buildInfo.Commit)

	if err := player.Initialize(); err != nil {
		applog.Fatalf("%v", err)
	}
	defer player.Terminate()

	// Handle one-off commands that don't require the pipeline.
	if options.Command == "list" {
		if err := player.ListDevices(); err != nil {
			applog.Fatalf("%v", err)
		}
		return
	}

	windowFn, err := dsp.ParseWindowFunc(cfg.Visualizer.Window)
	if err != nil {
		applog.Fatalf("%v", err)
	}

	captureRing, err := ring.New(cfg.Visualizer.FFTSize)
	if err != nil {
		applog.Fatalf("%v", err)
	}

	azCfg := dsp.DefaultAnalyzerConfig()
	azCfg.FFTSize = cfg.Visualizer.FFTSize
	azCfg.Bars = cfg.Visualizer.Bars
	azCfg.FreqMin = cfg.Visualizer.FreqMin
	azCfg.BassBars = cfg.Visualizer.BassBars
	azCfg.BassBoost = cfg.Visualizer.BassBoost

	pipeline, err := viz.New(viz.Config{Analyzer: azCfg, Window: windowFn}, captureRing)
	if err != nil {
		applog.Fatalf("%v", err)
	}

	var transports []transport.Transport
	if cfg.Transport.WSEnabled {
		transports = append(transports,
			transport.NewWebSocketTransport(cfg.Transport.WSPort, cfg.Transport.WSSendInterval))
	}
	if cfg.Transport.UDPEnabled {
		sender, err := udp.NewSender(cfg.Transport.UDPTargetAddress)
		if err != nil {
			applog.Fatalf("%v", err)
		}
		publisher, err := udp.NewPublisher(cfg.Transport.UDPSendInterval, sender, cfg.Visualizer.Bars)
		if err != nil {
			applog.Fatalf("%v", err)
		}
		transports = append(transports, publisher)
	}

	p := player.NewPlayer(captureRing, pipeline,
		player.PortAudioOpener(cfg.Audio.OutputDevice), cfg.Audio.FramesPerBuffer)
	p.SetVolume(cfg.Audio.Volume)

	for _, path := range options.Tracks {
		if err := p.AddTrack(path); err != nil {
			applog.Warnf("skipping %s: %v", path, err)
		}
	}
	if p.TrackCount() == 0 {
		applog.Infof("no tracks loaded; pass audio files as arguments")
	}

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	// The first SwitchTrack attaches the playback callback and starts
	// the audio-delivery context.
	p.SwitchTrack(0)

	ticker := time.NewTicker(time.Second / time.Duration(cfg.Visualizer.FPS))
	defer ticker.Stop()

	frame := &transport.BarFrame{}
	last := time.Now()

loop:
	for {
		select {
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now

			pipeline.Update(dt)
			p.Update()

			frame.Bars = pipeline.Bars()
			frame.Smear = pipeline.Smear()
			frame.HasAudio = p.HasAudio()
			frame.Error = ""
			if err := p.Err(); err != nil {
				frame.Error = err.Error()
			}
			for _, t := range transports {
				if err := t.Publish(frame); err != nil {
					applog.Warnf("publish: %v", err)
				}
			}
		case <-done:
			break loop
		}
	}

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	applog.Infof("shutting down")
	p.Close()
	for _, t := range transports {
		if err := t.Close(); err != nil {
			applog.Warnf("closing transport: %v", err)
		}
	}
}
