package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/phrazzld/montage-api/internal/client"
)

func (c *cli) submit(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("submit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	style := fs.String("style", "trendy", "video style: trendy, elegant or energetic")
	duration := fs.Int("duration", 5, "video length in seconds: 5 or 10")
	eventID := fs.String("event", "", "event the photos belong to")
	watch := fs.Bool("watch", false, "watch the task until it finishes")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("%w: submit needs at least one photo URL", errUsage)
	}

	resp, err := c.api.Submit(ctx, client.SubmitRequest{
		PhotoURLs: fs.Args(),
		Style:     *style,
		Duration:  *duration,
		EventID:   *eventID,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "%s\t%s\testimated %s\n", resp.TaskID, resp.Status, resp.EstimatedTime)
	if !*watch {
		return nil
	}
	return c.watch(ctx, []string{resp.TaskID}, stderr)
}
