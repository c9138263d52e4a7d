package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/phrazzld/montage-api/internal/client"
	"github.com/phrazzld/montage-api/internal/domain"
	"github.com/phrazzld/montage-api/internal/task"
)

// errTasksFailed is returned when at least one watched task ended failed.
var errTasksFailed = errors.New("one or more tasks failed")

func (c *cli) watch(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	defaults := task.DefaultPollerConfig()
	initial := fs.Duration("initial-delay", defaults.InitialDelay, "wait before the first status query")
	interval := fs.Duration("interval", defaults.Interval, "wait between status queries")
	backoff := fs.Duration("backoff", defaults.ErrorBackoff, "wait after a failed status query")
	lifetime := fs.Duration("timeout", defaults.MaxLifetime, "give up on a task after this long")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("%w: watch needs at least one task id", errUsage)
	}

	cfg := task.PollerConfig{
		InitialDelay: *initial,
		Interval:     *interval,
		ErrorBackoff: *backoff,
		MaxLifetime:  *lifetime,
	}
	return c.watchTasks(ctx, fs.Args(), cfg)
}

// watchTasks runs one Poller per id. Pollers are independent: a task that
// cannot be found stops only its own poller.
func (c *cli) watchTasks(ctx context.Context, ids []string, cfg task.PollerConfig) error {
	var (
		mu     sync.Mutex
		failed bool
	)
	printf := func(format string, args ...interface{}) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(c.out, format, args...)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			taskCtx, cancel := context.WithCancelCause(gctx)
			defer cancel(nil)

			poller := task.NewPoller(id, permanentErrorsCancel(c.api.Status, cancel), cfg, c.logger)

			lastProgress := -1
			poller.SetUpdateHandler(func(s task.PollState) {
				if s.LastError != nil || s.Task.Progress == lastProgress {
					return
				}
				lastProgress = s.Task.Progress
				printf("%s\t%s\t%d%%\n", id, s.Task.Status, s.Task.Progress)
			})

			final, err := poller.Run(taskCtx)
			var apiErr *client.APIError
			if err != nil && errors.As(context.Cause(taskCtx), &apiErr) {
				printf("%s\terror\t%v\n", id, apiErr)
				mu.Lock()
				failed = true
				mu.Unlock()
				return nil
			}
			if err != nil {
				return fmt.Errorf("task %s: %w", id, err)
			}

			switch final.Status {
			case domain.TaskStatusCompleted:
				printf("%s\tcompleted\t%s\n", id, final.VideoURL)
			case domain.TaskStatusFailed:
				printf("%s\tfailed\t%s\n", id, final.ErrorMessage)
				mu.Lock()
				failed = true
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if failed {
		return errTasksFailed
	}
	return nil
}

// permanentErrorsCancel wraps status so that answers no retry can fix, such
// as an unknown task or a rejected token, cancel the poller with that error.
func permanentErrorsCancel(status task.StatusFunc, cancel context.CancelCauseFunc) task.StatusFunc {
	return func(ctx context.Context, id string) (*domain.GenerationTask, error) {
		t, err := status(ctx, id)
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && !apiErr.Temporary() && apiErr.StatusCode != http.StatusRequestTimeout {
			cancel(err)
		}
		return t, err
	}
}
