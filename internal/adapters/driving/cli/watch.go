package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrisk/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docrisk/internal/logger"
)

// defaultDebounce is how long a file must stay quiet before it is analysed.
const defaultDebounce = 500 * time.Millisecond

var defaultWatchExtensions = []string{".txt", ".md", ".html", ".htm", ".eml", ".docx"}

var (
	watchOpts       analyzeFlags
	watchExtensions []string
	watchDebounce   time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Analyse documents as they appear in a directory",
	Long: `Watches a directory and analyses every document that is created or
modified in it with the same query. Runs are sequential and their
failures are reported without stopping the watcher.

Press Ctrl+C to stop.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	bindAnalyzeFlags(watchCmd, &watchOpts)
	watchCmd.Flags().StringSliceVar(&watchExtensions, "ext", defaultWatchExtensions, "file extensions to analyse")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", defaultDebounce, "quiet period before a changed file is analysed")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	if strings.TrimSpace(watchOpts.query) == "" {
		return errors.New("--query is required")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch %s: not a directory", dir)
	}

	session, err := openSession(cmd, watchOpts.applyTo(cmd))
	if err != nil {
		return err
	}
	defer session.Close()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	out := cmd.OutOrStdout()
	s := styles.DefaultStyles()
	fmt.Fprintf(out, "Watching %s (Ctrl+C to stop)\n", dir)

	w := &dirWatcher{
		extensions: watchExtensions,
		debounce:   watchDebounce,
		handle: func(ctx context.Context, path string) {
			fmt.Fprintf(out, "\n%s %s\n", s.Subtitle.Render("Analysing"), path)
			result, runErr := session.Run(ctx, path, watchOpts.query)
			if result != nil {
				writeResultText(out, s, result)
			}
			if runErr != nil {
				logger.Error("analysis of %s failed: %v", path, runErr)
			}
		},
	}
	w.loop(cmd.Context(), watcher.Events, watcher.Errors)
	return nil
}

// dirWatcher debounces filesystem events and hands settled files to handle.
type dirWatcher struct {
	extensions []string
	debounce   time.Duration
	handle     func(ctx context.Context, path string)
}

// accepts reports whether path names a document worth analysing.
// Hidden files and editor temporaries are skipped.
func (w *dirWatcher) accepts(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~") || strings.HasSuffix(base, "~") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(base))
	return slices.ContainsFunc(w.extensions, func(e string) bool {
		return strings.EqualFold(e, ext) || strings.EqualFold("."+e, ext)
	})
}

// loop runs until ctx is cancelled or the event channel closes.
func (w *dirWatcher) loop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error) {
	debounce := w.debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	pending := make(map[string]struct{})
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !w.accepts(event.Name) {
				continue
			}
			pending[event.Name] = struct{}{}
			timer.Reset(debounce)

		case err, ok := <-errs:
			if !ok {
				return
			}
			logger.Warn("Watcher error: %v", err)

		case <-timer.C:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			clear(pending)
			slices.Sort(paths)
			for _, p := range paths {
				if ctx.Err() != nil {
					return
				}
				w.handle(ctx, p)
			}
		}
	}
}
