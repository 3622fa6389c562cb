package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/gen2brain/beeep"
	"github.com/hako/durafmt"
	"github.com/james-see/rollgen/internal/logger"
	"github.com/james-see/rollgen/pkg/api"
	"github.com/james-see/rollgen/pkg/client"
	"github.com/james-see/rollgen/pkg/grid"
	"github.com/james-see/rollgen/pkg/job"
	"github.com/james-see/rollgen/pkg/melody"
	"github.com/james-see/rollgen/pkg/playback"
	"github.com/james-see/rollgen/pkg/session"
	"github.com/james-see/rollgen/pkg/tui"
	"github.com/spf13/cobra"
)

func getOutputPath(input, defaultExt string) string {
	if outputFile != "" {
		return outputFile
	}
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + defaultExt
}

// signalContext is cancelled on Ctrl-C
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runEncode(cmd *cobra.Command, args []string) error {
	input := args[0]
	output := getOutputPath(input, ".mid")

	g, err := grid.ParseFile(input)
	if err != nil {
		return err
	}

	track := melody.EncodeTrack(g, bpm)
	if track.BPM != bpm {
		fmt.Fprintf(os.Stderr, "Tempo %d is outside %d-%d BPM, using %d\n", bpm, melody.MinBPM, melody.MaxBPM, track.BPM)
	}
	if err := melody.NewWriter().WriteMIDIFile(track, output); err != nil {
		return err
	}

	fmt.Printf("Encoded %s -> %s (%d slots at %d BPM)\n", input, output, len(track.Events), track.BPM)
	return nil
}

func runPlay(cmd *cobra.Command, args []string) error {
	g, err := grid.ParseFile(args[0])
	if err != nil {
		return err
	}

	var sink playback.Sink = playback.NewBeepSink()
	if silent {
		sink = playback.LogSink{}
	}

	ctx, stop := signalContext()
	defer stop()

	events := melody.Encode(g)
	done := make(chan struct{})
	sess := session.New(g, sink,
		playback.WithOnTick(func(col int) {
			fmt.Printf("%2d  %s\n", col, events[col])
		}),
		playback.WithOnDone(func() { close(done) }),
	)
	sess.SetBPM(bpm)

	fmt.Printf("Playing %s at %d BPM (%d columns)\n", args[0], sess.BPM(), g.Columns())
	sess.PlayPause()

	select {
	case <-done:
	case <-ctx.Done():
		sess.BackToStart()
		fmt.Println("Stopped")
	}
	return nil
}

func runSubmit(cmd *cobra.Command, args []string) error {
	g, err := grid.ParseFile(args[0])
	if err != nil {
		return err
	}
	backend, err := newBackend()
	if err != nil {
		return err
	}

	sess := session.New(g, nil)
	sess.SetTemperature(temperature)
	sess.SetOutputLength(outputLen)

	ctx, stop := signalContext()
	defer stop()

	sub, err := sess.Submit(ctx, backend)
	if err != nil {
		if errors.Is(err, client.ErrUnavailable) {
			fmt.Fprintln(os.Stderr, job.ErrorUnavailable.Message())
		}
		return err
	}

	fmt.Printf("%s\nSong id: %s\n", sub.Message, sub.SongID)
	if !waitForJob && outputFile == "" {
		fmt.Printf("Check progress with: rollgen wait %s\n", sub.SongID)
		return nil
	}
	return waitAndFetch(ctx, backend, sub.SongID)
}

func runWait(cmd *cobra.Command, args []string) error {
	backend, err := newBackend()
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()
	return waitAndFetch(ctx, backend, args[0])
}

// waitAndFetch polls the job, reports the destination and optionally
// downloads a completed melody
func waitAndFetch(ctx context.Context, backend *client.Client, songID string) error {
	policy := cfg.PollPolicy()
	poller := job.NewPoller(backend,
		job.WithPolicy(policy),
		job.WithOnAttempt(func(a job.Attempt) {
			status := a.Status
			if a.Err != nil {
				status = "unreachable"
			}
			fmt.Printf("  [%d/%d] %s (%s)\n", a.Number, policy.MaxAttempts, status,
				durafmt.Parse(a.Elapsed).LimitFirstN(1).String())
		}),
	)

	fmt.Printf("Waiting for %s...\n", songID)
	res, err := poller.Run(ctx, songID)
	if err != nil {
		return err
	}

	notify(res)

	switch res.State {
	case job.Complete:
		fmt.Printf("Done: %s\n", backend.DownloadURL(songID))
		if outputFile != "" {
			return download(ctx, backend, songID, outputFile)
		}
		return nil
	default:
		return fmt.Errorf("%s (%s)", res.Destination.ErrorID.Message(), res.Destination.URL())
	}
}

func notify(res job.Result) {
	msg := fmt.Sprintf("Generation %s %s", res.SongID, res.State)
	if err := beeep.Notify("rollgen", msg, ""); err != nil {
		logger.Debug("Desktop notification failed", logger.Fields{"error": err.Error()})
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	backend, err := newBackend()
	if err != nil {
		return err
	}
	status, err := backend.Status(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Println(status)
	return nil
}

func runDownload(cmd *cobra.Command, args []string) error {
	backend, err := newBackend()
	if err != nil {
		return err
	}
	output := outputFile
	if output == "" {
		output = args[0] + ".mid"
	}
	return download(cmd.Context(), backend, args[0], output)
}

func download(ctx context.Context, backend *client.Client, songID, output string) error {
	var buf bytes.Buffer
	n, err := backend.Download(ctx, songID, &buf)
	if err != nil {
		return err
	}
	if f := melody.DetectFormat(buf.Bytes()); f != melody.FormatMIDI {
		return fmt.Errorf("download %s: expected a MIDI file, got %s content", songID, f)
	}
	if err := os.WriteFile(output, buf.Bytes(), 0644); err != nil {
		return err
	}
	fmt.Printf("Saved %s (%s)\n", output, humanize.Bytes(uint64(n)))
	return nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	sum, err := melody.NewWriter().ReadMIDIFile(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("File:       %s\n", args[0])
	fmt.Printf("Tracks:     %d\n", sum.Tracks)
	fmt.Printf("Resolution: %d ticks/quarter\n", sum.Resolution)
	fmt.Printf("Tempo:      %.1f BPM\n", sum.BPM)
	fmt.Printf("Notes:      %d\n", len(sum.Notes))
	fmt.Printf("Length:     %s\n", durafmt.Parse(sum.Duration()).LimitFirstN(2).String())
	fmt.Println()
	for _, ev := range sum.Events() {
		fmt.Printf("%3d  %s\n", ev.Slot, ev)
	}
	return nil
}

func runPitches(cmd *cobra.Command, args []string) error {
	for row, p := range grid.Pitches() {
		fmt.Printf("%2d  %-4s %d\n", row, p.Name, p.Note)
	}
	return nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	backend, err := newBackend()
	if err != nil {
		return err
	}
	return tui.Run(backend,
		tui.WithPollPolicy(cfg.PollPolicy()),
		tui.WithSink(playback.NewBeepSink()),
	)
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Printf("Starting web front-end on port %s...\n", cfg.Port)
	return api.StartServer(cfg)
}
