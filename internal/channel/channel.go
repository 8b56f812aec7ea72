// Package channel delivers classification jobs to the executing edge device.
// A deployment uses exactly one Channel, chosen at construction.
package channel

import (
	"context"

	"github.com/Harsh-BH/edgeclassify/internal/domain"
)

const (
	NameQueue  = "queue"
	NameDirect = "direct"
)

// Channel delivers one job. Deliver never returns transport faults as errors;
// they are reported through the DeliveryOutcome.
type Channel interface {
	Deliver(ctx context.Context, job domain.JobRequest) domain.DeliveryOutcome
	Name() string
}
