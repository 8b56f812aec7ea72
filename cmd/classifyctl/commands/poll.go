package commands

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/Harsh-BH/edgeclassify/internal/client"
	"github.com/Harsh-BH/edgeclassify/internal/domain"
	"github.com/Harsh-BH/edgeclassify/internal/printer"
	"github.com/Harsh-BH/edgeclassify/internal/usecase"
)

var (
	pollWait     bool
	pollInterval time.Duration
	pollTimeout  time.Duration
)

var pollCmd = &cobra.Command{
	Use:   "poll <correlation-id>",
	Short: "Check whether a job's result is available",
	Long: `Look up the annotated image for a job.

Without --wait a single lookup is made. With --wait the lookup repeats every
--interval (never faster than 2s) until the image appears or --timeout passes.

Examples:
  classifyctl poll 7c9e6679-7425-40de-944b-e07fc1f90ae7
  classifyctl poll 7c9e6679-7425-40de-944b-e07fc1f90ae7 --wait --timeout 10m`,
	Args: cobra.ExactArgs(1),
	RunE: runPoll,
}

func init() {
	pollCmd.Flags().BoolVarP(&pollWait, "wait", "w", false, "Keep polling until the result is ready")
	pollCmd.Flags().DurationVar(&pollInterval, "interval", usecase.MinPollInterval, "Time between lookups when waiting")
	pollCmd.Flags().DurationVar(&pollTimeout, "timeout", 5*time.Minute, "Give up waiting after this long (0 waits forever)")
	rootCmd.AddCommand(pollCmd)
}

func runPoll(cmd *cobra.Command, args []string) error {
	id, err := domain.ParseCorrelationID(args[0])
	if err != nil {
		return printer.Error("invalid correlation ID", args[0]+" is not a UUID")
	}

	c := newClient()
	ctx := cmd.Context()

	var loc *domain.ResultLocator
	if pollWait {
		printer.Step("Waiting for result of %s", id)
		loc, err = c.WaitForResult(ctx, id, pollInterval, pollTimeout, nil)
	} else {
		loc, err = c.Result(ctx, id)
	}
	if err != nil {
		var apiErr *client.APIError
		switch {
		case errors.Is(err, client.ErrWaitTimeout):
			return printer.Error("result not ready", "No result after "+pollTimeout.String(),
				"Run again with a longer --timeout")
		case errors.As(err, &apiErr):
			return printer.Error("lookup failed", apiErr.Message)
		default:
			return printer.Error("cannot reach server", err.Error(),
				"Check --server or CLASSIFY_SERVER")
		}
	}

	if loc.Ready() {
		printer.Success("Result ready")
		printer.Field("uri", loc.URI)
		return nil
	}
	printer.Warning("Result for %s is still pending", id)
	return nil
}
