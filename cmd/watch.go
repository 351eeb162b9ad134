package cmd

import (
	"context"
	"encoding/json"
	"time"

	"clipkind/pkg/logger"
	"clipkind/pkg/models"

	"github.com/spf13/cobra"
)

var (
	watchInterval time.Duration
	watchCount    int
)

// WatchEvent is one observed clipboard change.
type WatchEvent struct {
	Sequence   int64                    `json:"sequence" yaml:"sequence"`
	Time       time.Time                `json:"time" yaml:"time"`
	Descriptor models.ContentDescriptor `json:"descriptor" yaml:"descriptor"`
}

type WatchConfig struct {
	Interval time.Duration
	// Count stops the watch after that many events; 0 runs until ctx ends.
	Count    int
	Sequence func(ctx context.Context) (int64, error)
	Classify func(ctx context.Context) (models.ContentDescriptor, error)
	OnChange func(WatchEvent) error
	OnError  func(error)
	now      func() time.Time
}

// RunWatch polls the sequence token and re-classifies when it moves. An
// event is emitted for the first classification and whenever the descriptor
// differs from the last one emitted, so a counter that moves on every call
// does not flood the output.
func RunWatch(ctx context.Context, cfg WatchConfig) error {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	now := cfg.now
	if now == nil {
		now = time.Now
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastSeq int64 = -1
	var lastKey string
	emitted := 0

	for {
		if err := watchTick(ctx, cfg, now, &lastSeq, &lastKey, &emitted); err != nil {
			return err
		}
		if cfg.Count > 0 && emitted >= cfg.Count {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func watchTick(ctx context.Context, cfg WatchConfig, now func() time.Time, lastSeq *int64, lastKey *string, emitted *int) error {
	seq, err := cfg.Sequence(ctx)
	if err != nil {
		if cfg.OnError != nil {
			cfg.OnError(err)
		}
		return nil
	}
	if seq == *lastSeq {
		return nil
	}
	*lastSeq = seq

	d, err := cfg.Classify(ctx)
	if err != nil {
		if cfg.OnError != nil {
			cfg.OnError(err)
		}
		return nil
	}

	raw, err := json.Marshal(d)
	if err != nil {
		return err
	}
	key := string(raw)
	if key == *lastKey {
		return nil
	}
	*lastKey = key

	*emitted++
	return cfg.OnChange(WatchEvent{Sequence: seq, Time: now(), Descriptor: d})
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print the clipboard type whenever it changes",
	Long: `Poll the clipboard change token and print a new classification each time
the clipboard content changes. Press Ctrl+C to stop.`,
	Example: `  # Watch with the default interval
  clipkind watch

  # JSON lines, stop after 5 changes
  clipkind watch --format json --count 5`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		ctx, cancel := GetContext()
		defer cancel()

		output := newOutput(cmd)
		err = RunWatch(ctx, WatchConfig{
			Interval: watchInterval,
			Count:    watchCount,
			Sequence: svc.GetClipboardSequence,
			Classify: svc.GetClipboardType,
			OnChange: func(ev WatchEvent) error {
				if output.IsStructured() {
					return output.WriteEvent(ev)
				}
				line := DescribeType(ev.Descriptor)
				if text, ok := ev.Descriptor.Text(); ok {
					line += "  " + Truncate(oneLine(text), 80)
				} else if ev.Descriptor.PrimaryPath != "" {
					line += "  " + ev.Descriptor.PrimaryPath
				}
				output.Printf("[%s] #%d %s\n", FormatTimestamp(ev.Time), ev.Sequence, line)
				return nil
			},
			OnError: func(err error) {
				logger.Warn().Err(err).Msg("clipboard poll failed")
			},
		})
		if err == context.Canceled {
			return nil
		}
		return err
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 500*time.Millisecond, "Polling interval")
	watchCmd.Flags().IntVar(&watchCount, "count", 0, "Stop after this many changes (0 = until interrupted)")
}
