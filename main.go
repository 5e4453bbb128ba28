// ABOUTME: Entry point for the sendspin-transcode CLI
// ABOUTME: Wires cobra commands, logging and the transcode application
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Sendspin/sendspin-transcode/internal/app"
	"github.com/Sendspin/sendspin-transcode/internal/config"
	"github.com/Sendspin/sendspin-transcode/internal/version"
	"github.com/Sendspin/sendspin-transcode/pkg/audio"
	"github.com/Sendspin/sendspin-transcode/pkg/audio/output"
	"github.com/Sendspin/sendspin-transcode/pkg/audio/source"
	"github.com/Sendspin/sendspin-transcode/pkg/audio/transcode"
)

var (
	profilePath string
	logLevel    string
	logFile     string
	quiet       bool

	outputPath string
	framed     bool
	play       bool
	volume     int
	formatFlag formatFlags
)

// formatFlags override profile fields when set on the command line.
type formatFlags struct {
	inRate, inChannels, inBitDepth            int
	codec                                     string
	rate, channels, bitDepth, bitrate, packet int
	quality                                   string
}

var rootCmd = &cobra.Command{
	Use:   "sendspin-transcode",
	Short: "Transcode audio between PCM, Opus and FLAC",
	Long: `Transcode audio between PCM, Opus and FLAC.

Input may be raw PCM (.pcm, .raw or "-" for stdin), MP3, FLAC or the
built-in test tone ("tone"). Output formats are described by a YAML
profile and can be overridden with flags.

Example profile (opus.yaml):
  output:
    codec: opus
    sample_rate: 48000
    channels: 2
    bitrate: 128000
  resample:
    quality: high`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging()
	},
}

var transcodeCmd = &cobra.Command{
	Use:   "transcode <input>",
	Short: "Transcode a file or the test tone",
	Long: `Transcode a file or the test tone.

Raw output writes the codec header followed by packet payloads, which is a
playable file for PCM and FLAC. Framed output (--framed) keeps packet
boundaries and timestamps so any codec can be inspected later.

Examples:
  sendspin-transcode transcode song.flac -c opus.yaml -o song.sstc --framed
  sendspin-transcode transcode tone --codec pcm --rate 44100 --play
  cat audio.raw | sendspin-transcode transcode - --in-rate 44100 -o out.flac --codec flac`,
	Args: cobra.ExactArgs(1),
	RunE: runTranscode,
}

var probeCmd = &cobra.Command{
	Use:   "probe [dump]",
	Short: "Show output codec parameters",
	Long: `Show output codec parameters.

Without arguments, builds the configured transcoder and prints the
parameters its encoder finalizes (including the codec header). With a
framed dump, prints the stream description and packet statistics.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProbe,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&profilePath, "config", "c", "", "YAML transcode profile")
	pf.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.StringVar(&logFile, "log-file", "", "Also write logs to this file")
	pf.BoolVarP(&quiet, "quiet", "q", false, "Do not log to stderr")

	pf.IntVar(&formatFlag.inRate, "in-rate", 0, "Raw input sample rate")
	pf.IntVar(&formatFlag.inChannels, "in-channels", 0, "Raw input channels")
	pf.IntVar(&formatFlag.inBitDepth, "in-bit-depth", 0, "Raw input bit depth (16 or 24)")
	pf.StringVar(&formatFlag.codec, "codec", "", "Output codec (pcm, opus, flac)")
	pf.IntVar(&formatFlag.rate, "rate", 0, "Output sample rate")
	pf.IntVar(&formatFlag.channels, "channels", 0, "Output channels")
	pf.IntVar(&formatFlag.bitDepth, "bit-depth", 0, "Output bit depth (16 or 24)")
	pf.IntVar(&formatFlag.bitrate, "bitrate", 0, "Output bitrate in bits per second (Opus)")
	pf.IntVar(&formatFlag.packet, "packet-ms", 0, "Input packet duration in milliseconds")
	pf.StringVar(&formatFlag.quality, "quality", "", "Resample quality (linear, quick, low, medium, high, very-high)")

	transcodeCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file (default: stdout unless --play)")
	transcodeCmd.Flags().BoolVar(&framed, "framed", false, "Write a length-prefixed packet dump")
	transcodeCmd.Flags().BoolVar(&play, "play", false, "Play the output on the default audio device")
	transcodeCmd.Flags().IntVar(&volume, "volume", 100, "Playback volume (0-100)")

	rootCmd.AddCommand(transcodeCmd)
	rootCmd.AddCommand(probeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func setupLogging() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	var writers []io.Writer
	if !quiet {
		writers = append(writers, os.Stderr)
	}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			return fmt.Errorf("error opening log file: %w", err)
		}
		writers = append(writers, f)
	}
	logrus.SetOutput(io.MultiWriter(writers...))
	return nil
}

// loadProfile reads the profile and applies flag overrides.
func loadProfile() (config.Profile, error) {
	p := config.Default()
	if profilePath != "" {
		var err error
		if p, err = config.Load(profilePath); err != nil {
			return config.Profile{}, err
		}
	}

	f := formatFlag
	setInt(&p.Input.SampleRate, f.inRate)
	setInt(&p.Input.Channels, f.inChannels)
	setInt(&p.Input.BitDepth, f.inBitDepth)
	if f.codec != "" {
		p.Output.Codec = f.codec
	}
	setInt(&p.Output.SampleRate, f.rate)
	setInt(&p.Output.Channels, f.channels)
	setInt(&p.Output.BitDepth, f.bitDepth)
	setInt(&p.Output.Bitrate, f.bitrate)
	setInt(&p.PacketMs, f.packet)
	if f.quality != "" {
		p.Resample.Quality = f.quality
	}

	return p, p.Validate()
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func runTranscode(cmd *cobra.Command, args []string) error {
	profile, err := loadProfile()
	if err != nil {
		return err
	}

	src, err := source.Open(args[0], source.Options{
		PacketMs: profile.PacketMs,
		Raw:      profile.Input.Params(),
	})
	if err != nil {
		return err
	}
	defer src.Close()

	cfg := app.Config{
		Profile: profile,
		Source:  src,
		Log:     logrus.WithField("input", args[0]),
	}

	if outputPath != "" || !play {
		w := io.Writer(os.Stdout)
		if outputPath != "" {
			f, err := os.Create(outputPath)
			if err != nil {
				return fmt.Errorf("failed to create output: %w", err)
			}
			defer f.Close()
			w = f
		}
		if framed {
			cfg.Writer = app.NewFramedWriter(w)
		} else {
			cfg.Writer = app.NewRawWriter(w)
		}
	}

	if play {
		out := output.NewOto()
		out.SetVolume(volume)
		cfg.Player = app.NewPlayer(out)
		defer cfg.Player.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stats, runErr := app.New(cfg).Run(ctx)
	if cfg.Writer != nil {
		if err := cfg.Writer.Flush(); err != nil && runErr == nil {
			runErr = fmt.Errorf("failed to flush output: %w", err)
		}
	}
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}
	if runErr != nil {
		return runErr
	}

	logrus.WithFields(logrus.Fields{
		"codec":       stats.Output.Codec,
		"sample_rate": stats.Output.SampleRate,
		"packets":     stats.PacketsOut,
		"duration":    stats.Duration,
	}).Info("Done")
	return nil
}

func runProbe(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()

	if len(args) == 1 {
		return probeDump(w, args[0])
	}

	profile, err := loadProfile()
	if err != nil {
		return err
	}

	tr, err := transcode.New(profile.Input.Params(), profile.Output.Params(),
		transcode.WithResampleQuality(profile.Quality()))
	if err != nil {
		return err
	}
	defer tr.Close()

	printParams(w, tr.CodecParameters())
	return nil
}

func probeDump(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open dump: %w", err)
	}
	defer f.Close()

	r, err := app.NewFramedReader(f)
	if err != nil {
		return err
	}
	printParams(w, r.CodecParameters())

	var packets, bytes int
	var last int64
	for {
		pkt, err := r.ReadPacket()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		packets++
		bytes += len(pkt.Data)
		last = pkt.PTS
	}
	fmt.Fprintf(w, "packets:      %d\n", packets)
	fmt.Fprintf(w, "payload:      %d bytes\n", bytes)
	fmt.Fprintf(w, "last pts:     %d us\n", last)
	return nil
}

func printParams(w io.Writer, p audio.CodecParameters) {
	fmt.Fprintf(w, "codec:        %s\n", p.Codec)
	fmt.Fprintf(w, "sample rate:  %d Hz\n", p.SampleRate)
	fmt.Fprintf(w, "channels:     %d\n", p.Channels)
	if p.BitDepth > 0 {
		fmt.Fprintf(w, "bit depth:    %d\n", p.BitDepth)
	}
	if p.Bitrate > 0 {
		fmt.Fprintf(w, "bitrate:      %d bps\n", p.Bitrate)
	}
	if len(p.CodecHeader) > 0 {
		fmt.Fprintf(w, "codec header: %d bytes (%x)\n", len(p.CodecHeader), p.CodecHeader)
	}
	if p.Codec == audio.CodecOpus {
		if head, err := audio.ParseOpusHead(p.CodecHeader); err == nil {
			fmt.Fprintf(w, "pre-skip:     %d samples\n", head.PreSkip)
		}
	}
}
