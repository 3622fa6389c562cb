// Package main is the entry point for the rollgen CLI
package main

import (
	"fmt"
	"os"

	"github.com/james-see/rollgen/internal/config"
	"github.com/james-see/rollgen/internal/logger"
	"github.com/james-see/rollgen/pkg/client"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	cfg         *config.Config
	flushSentry = func() {}
)

var (
	backendURL  string
	framingName string
	outputFile  string
	bpm         int
	temperature float64
	outputLen   int
	waitForJob  bool
	silent      bool
	serverPort  string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "rollgen",
	Short: "Compose a piano-roll melody and let a model continue it",
	Long: `rollgen is a piano-roll melody composer. Draw a short melody on a grid,
listen to it, and send it to a generation service that extends it into a
longer MIDI file.

Grid files hold one line per pitch row (G#4 at the top down to A2), one
character per quarter-note column: x/X/#/1 for a note, ./-/0 for silence.

Examples:
  rollgen pitches
  rollgen play melody.grid --bpm 100
  rollgen encode melody.grid -o melody.mid
  rollgen submit melody.grid --temperature 0.8 --length 8 --wait -o generated.mid
  rollgen wait 1700000000
  rollgen inspect generated.mid
  rollgen tui
  rollgen serve --port 8080`,
	Version:           fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) { flushSentry() },
}

var encodeCmd = &cobra.Command{
	Use:   "encode <melody.grid>",
	Short: "Write a grid file as a Standard MIDI File",
	Args:  cobra.ExactArgs(1),
	RunE:  runEncode,
}

var playCmd = &cobra.Command{
	Use:   "play <melody.grid>",
	Short: "Play a grid file through the system speaker",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlay,
}

var submitCmd = &cobra.Command{
	Use:   "submit <melody.grid>",
	Short: "Submit a melody to the generation service",
	Args:  cobra.ExactArgs(1),
	RunE:  runSubmit,
}

var waitCmd = &cobra.Command{
	Use:   "wait <song-id>",
	Short: "Poll a generation job until it finishes",
	Args:  cobra.ExactArgs(1),
	RunE:  runWait,
}

var statusCmd = &cobra.Command{
	Use:   "status <song-id>",
	Short: "Show the current status of a generation job",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

var downloadCmd = &cobra.Command{
	Use:   "download <song-id>",
	Short: "Download a generated melody",
	Args:  cobra.ExactArgs(1),
	RunE:  runDownload,
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.mid>",
	Short: "Summarize a MIDI file",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

var pitchesCmd = &cobra.Command{
	Use:   "pitches",
	Short: "List the pitch of every grid row",
	Args:  cobra.NoArgs,
	RunE:  runPitches,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive piano-roll",
	RunE:  runTUI,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web front-end",
	RunE:  runServe,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&backendURL, "backend", "B", "", "Generation service base URL (default from ROLLGEN_BACKEND_URL)")
	rootCmd.PersistentFlags().StringVar(&framingName, "framing", "", "Request framing: legacy or json (default from ROLLGEN_FRAMING)")

	// encode command
	encodeCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output .mid file path")
	encodeCmd.Flags().IntVar(&bpm, "bpm", 120, "Tempo in beats per minute")

	// play command
	playCmd.Flags().IntVar(&bpm, "bpm", 120, "Tempo in beats per minute")
	playCmd.Flags().BoolVar(&silent, "silent", false, "Log notes instead of sounding them")

	// submit command
	submitCmd.Flags().Float64VarP(&temperature, "temperature", "t", 0.6, "Sampling temperature (0-1)")
	submitCmd.Flags().IntVarP(&outputLen, "length", "l", 4, "Output length in bars")
	submitCmd.Flags().BoolVarP(&waitForJob, "wait", "w", false, "Poll until the job finishes")
	submitCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Download the result here once complete (implies --wait)")

	// wait command
	waitCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Download the result here once complete")

	// download command
	downloadCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output .mid file path (default <song-id>.mid)")

	// serve command
	serveCmd.Flags().StringVarP(&serverPort, "port", "p", "", "Server port (default from PORT)")

	// Add commands
	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(waitCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(pitchesCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
}

// setup loads configuration and applies flag overrides
func setup(cmd *cobra.Command, args []string) error {
	cfg = config.Load()
	if backendURL != "" {
		cfg.BackendURL = backendURL
	}
	if framingName != "" {
		cfg.Framing = framingName
	}
	if serverPort != "" {
		cfg.Port = serverPort
	}

	flush, err := logger.InitSentry(cfg.SentryDSN, cfg.Environment, version)
	if err != nil {
		logger.Warn("Sentry disabled", logger.Fields{"error": err.Error()})
	} else {
		flushSentry = flush
	}
	return nil
}

func newBackend() (*client.Client, error) {
	backend, err := cfg.Backend()
	if err != nil {
		return nil, fmt.Errorf("configure backend: %w", err)
	}
	return backend, nil
}
