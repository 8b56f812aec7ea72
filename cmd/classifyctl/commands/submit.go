package commands

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Harsh-BH/edgeclassify/internal/client"
	"github.com/Harsh-BH/edgeclassify/internal/domain"
	"github.com/Harsh-BH/edgeclassify/internal/printer"
)

var (
	submitClass     string
	submitThreshold int
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a classification job",
	Long: `Submit a classification job and print its correlation ID.

The command returns as soon as the device acknowledges delivery. It does
not wait for the result.

Examples:
  # Detect dogs with the server's default threshold
  classifyctl submit --class dog

  # Detect people at 85% confidence
  classifyctl submit --class person --threshold 85`,
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().StringVarP(&submitClass, "class", "c", "", "Object class to detect (required)")
	submitCmd.Flags().IntVarP(&submitThreshold, "threshold", "t", -1, "Minimum confidence percentage, 0-100 (server default if omitted)")
	submitCmd.MarkFlagRequired("class")
	rootCmd.AddCommand(submitCmd)
}

func runSubmit(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("threshold") && (submitThreshold < domain.MinThresholdPercentage || submitThreshold > domain.MaxThresholdPercentage) {
		return printer.Error("invalid threshold", domain.ErrInvalidThreshold.Error())
	}

	resp, err := newClient().Submit(cmd.Context(), submitClass, submitThreshold)
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			return printer.Error("submission refused", apiErr.Message)
		}
		return printer.Error("cannot reach server", err.Error(),
			"Check --server or CLASSIFY_SERVER")
	}

	printSubmit(resp)
	if resp.Outcome.Status != domain.DeliveryAccepted {
		return fmt.Errorf("delivery %s", resp.Outcome.Status)
	}
	return nil
}

func printSubmit(resp *domain.SubmitResponse) {
	switch resp.Outcome.Status {
	case domain.DeliveryAccepted:
		printer.Success("Job %s accepted", resp.CorrelationID)
	default:
		printer.Warning("Job %s not delivered: %s", resp.CorrelationID, resp.Outcome.Status)
	}
	printer.Field("class", resp.ClassName)
	printer.Field("threshold", strconv.Itoa(resp.ThresholdPercentage)+"%")
	printer.Field("channel", resp.Channel)
	if resp.Outcome.Reason != "" {
		printer.Field("reason", resp.Outcome.Reason)
	}
	if resp.Outcome.Status == domain.DeliveryAccepted {
		printer.Field("poll", "classifyctl poll "+resp.CorrelationID.String()+" --wait")
	}
}
