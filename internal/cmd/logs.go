package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/runger/sdev/internal/config"
)

var (
	logsFollow bool
	logsLines  int
)

var logsCmd = &cobra.Command{
	Use:     "logs",
	Short:   "View the sdev log",
	GroupID: groupSetup,
	Long: `View the sdev log file.

The picker and tmux own the terminal, so sdev logs to a file. Every
invocation is tagged with a run id.

Examples:
  sdev logs              # Show last 50 lines
  sdev logs -f           # Follow log output
  sdev logs --lines=100  # Show last 100 lines`,
	Args: cobra.NoArgs,
	RunE: runLogs,
}

func init() {
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Follow log output")
	logsCmd.Flags().IntVarP(&logsLines, "lines", "n", 50, "Number of lines to show")
	rootCmd.AddCommand(logsCmd)
}

// logFile returns the log path in use.
func logFile() string {
	if cfg != nil && cfg.Log.File != "" {
		return cfg.Log.File
	}
	return config.DefaultPaths().LogFile()
}

func runLogs(cmd *cobra.Command, args []string) error {
	path := logFile()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Printf("No log file found at: %s\n", path)
		return nil
	}

	if logsFollow {
		return followLogs(cmd.Context(), os.Stdout, path)
	}
	return tailLogs(os.Stdout, path, logsLines)
}

// tailLogs writes the last n lines of filename to w.
func tailLogs(w io.Writer, filename string, n int) error {
	if n <= 0 {
		return nil
	}

	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	// Keep a ring of the last n lines.
	ring := make([]string, 0, n)
	next := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if len(ring) < n {
			ring = append(ring, scanner.Text())
			continue
		}
		ring[next] = scanner.Text()
		next = (next + 1) % n
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read log file: %w", err)
	}

	if len(ring) == 0 {
		fmt.Fprintln(w, "Log file is empty.")
		return nil
	}

	for i := range ring {
		fmt.Fprintln(w, ring[(next+i)%len(ring)])
	}
	return nil
}

// followLogs copies lines appended to filename to w until ctx is done.
func followLogs(ctx context.Context, w io.Writer, filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek to end: %w", err)
	}

	fmt.Fprintf(w, "Following %s (Ctrl+C to stop)...\n\n", filename)

	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			fmt.Fprint(w, line)
		}
		if err == nil {
			continue
		}
		if !errors.Is(err, io.EOF) {
			return fmt.Errorf("error reading log: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(100 * time.Millisecond):
		}
	}
}
