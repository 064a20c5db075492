package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"shazoom/internal/acquire"
)

// newRecordCmd wires the teacher's portaudio-based recording
// (Prayush09-MusicRecognition/main/recording.go) into a one-shot
// "record then print the resulting WAV path" command. It never loops
// or re-identifies live, respecting the real-time-microphone Non-goal.
func newRecordCmd(logger *slog.Logger) *cobra.Command {
	var duration float64
	var out string
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a fixed-duration clip from the default microphone",
		RunE: func(cmd *cobra.Command, args []string) error {
			src := acquire.MicSource{Duration: duration, OutPath: out}
			descriptors, err := src.Descriptors(context.Background())
			if err != nil {
				return err
			}
			d, ok := <-descriptors
			if !ok || d.Path == "" {
				return fmt.Errorf("recording failed")
			}
			logger.Info("recorded", "path", d.Path)
			return nil
		},
	}
	cmd.Flags().Float64Var(&duration, "duration", 5, "recording duration in seconds")
	cmd.Flags().StringVar(&out, "out", "", "output WAV path (default: a temp file)")
	return cmd
}
