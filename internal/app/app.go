// ABOUTME: Transcode application orchestration
// ABOUTME: Pumps packets from a source through the transcoder to writers and playback
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Sendspin/sendspin-transcode/internal/config"
	"github.com/Sendspin/sendspin-transcode/pkg/audio"
	"github.com/Sendspin/sendspin-transcode/pkg/audio/source"
	"github.com/Sendspin/sendspin-transcode/pkg/audio/transcode"
)

// Config holds application configuration
type Config struct {
	Profile config.Profile

	// Source yields input packets; its parameters override Profile.Input
	Source source.Source

	// Writer receives transcoded packets, may be nil when only playing
	Writer PacketWriter

	// Player plays transcoded PCM, may be nil
	Player *Player

	Log *logrus.Entry
}

// Stats summarizes a finished run.
type Stats struct {
	PacketsIn     int
	PacketsOut    int
	OutputSamples uint64
	Duration      time.Duration // media duration of the output
	Output        audio.CodecParameters
}

// App runs one transcode from a source to its sinks.
type App struct {
	config Config
	log    *logrus.Entry
	stats  Stats
}

// New creates a new application
func New(cfg Config) *App {
	log := cfg.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &App{config: cfg, log: log}
}

// Run transcodes until the source is exhausted or ctx is cancelled. The
// context is checked between packets; a cancelled run still flushes so the
// output ends cleanly.
func (a *App) Run(ctx context.Context) (Stats, error) {
	if a.config.Source == nil {
		return Stats{}, fmt.Errorf("no audio source")
	}

	input := a.config.Source.CodecParameters()
	output := a.config.Profile.Output.Params()

	tr, err := transcode.New(input, output,
		transcode.WithLogger(a.log),
		transcode.WithResampleQuality(a.config.Profile.Quality()))
	if err != nil {
		return Stats{}, err
	}
	defer tr.Close()

	a.stats.Output = tr.CodecParameters()

	if w := a.config.Writer; w != nil {
		if err := w.WriteHeader(a.stats.Output); err != nil {
			return Stats{}, fmt.Errorf("failed to write header: %w", err)
		}
	}
	if p := a.config.Player; p != nil {
		if err := p.Open(a.stats.Output); err != nil {
			return Stats{}, err
		}
	}

	cancelled := false
	for !cancelled {
		select {
		case <-ctx.Done():
			a.log.WithField("function", "Run").Info("Transcode interrupted")
			cancelled = true
			continue
		default:
		}

		pkt, err := a.config.Source.ReadPacket()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return a.stats, fmt.Errorf("failed to read packet: %w", err)
		}
		a.stats.PacketsIn++

		if err := tr.Push(pkt); err != nil {
			return a.stats, err
		}
		if err := a.drain(tr); err != nil {
			return a.stats, err
		}
	}

	if err := tr.Flush(); err != nil {
		return a.stats, err
	}
	if err := a.drain(tr); err != nil {
		return a.stats, err
	}

	a.stats.OutputSamples = tr.OutputSamples()
	if rate := a.stats.Output.SampleRate; rate > 0 {
		a.stats.Duration = time.Duration(a.stats.OutputSamples) * time.Second / time.Duration(rate)
	}

	a.log.WithFields(logrus.Fields{
		"function":    "Run",
		"packets_in":  a.stats.PacketsIn,
		"packets_out": a.stats.PacketsOut,
		"duration":    a.stats.Duration,
	}).Info("Transcode complete")

	if cancelled {
		return a.stats, ctx.Err()
	}
	return a.stats, nil
}

// drain takes every pending packet and hands it to the sinks.
func (a *App) drain(tr *transcode.Transcoder) error {
	for pkt, ok := tr.Take(); ok; pkt, ok = tr.Take() {
		a.stats.PacketsOut++
		if w := a.config.Writer; w != nil {
			if err := w.WritePacket(pkt); err != nil {
				return fmt.Errorf("failed to write packet: %w", err)
			}
		}
		if p := a.config.Player; p != nil {
			if err := p.Play(pkt); err != nil {
				return err
			}
		}
	}
	return nil
}
