package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	// RecordDelimiter separates fields in the flat queue record.
	RecordDelimiter = "|"

	// ResultArtifactName is the file the device writes under "<correlationID>/".
	ResultArtifactName = "imageWithDetection.jpg"

	MinThresholdPercentage = 0
	MaxThresholdPercentage = 100
)

// JobRequest describes one classification job. It is immutable once constructed.
type JobRequest struct {
	correlationID       CorrelationID
	className           string
	thresholdPercentage int
}

// NewJobRequest validates the fields and builds a JobRequest.
// The class name is stored trimmed.
func NewJobRequest(id CorrelationID, className string, thresholdPercentage int) (JobRequest, error) {
	if id.IsZero() {
		return JobRequest{}, fmt.Errorf("%w: zero value", ErrInvalidCorrelationID)
	}
	className, err := NormalizeClassName(className)
	if err != nil {
		return JobRequest{}, err
	}
	if thresholdPercentage < MinThresholdPercentage || thresholdPercentage > MaxThresholdPercentage {
		return JobRequest{}, fmt.Errorf("%w: got %d", ErrInvalidThreshold, thresholdPercentage)
	}
	return JobRequest{
		correlationID:       id,
		className:           className,
		thresholdPercentage: thresholdPercentage,
	}, nil
}

// NormalizeClassName trims an untrusted class name and rejects empty names and
// names containing the record delimiter.
func NormalizeClassName(raw string) (string, error) {
	className := strings.TrimSpace(raw)
	if className == "" {
		return "", ErrEmptyClassName
	}
	if strings.Contains(className, RecordDelimiter) {
		return "", fmt.Errorf("%w: class name %q", ErrDelimiterInField, className)
	}
	return className, nil
}

// ParseThresholdPercentage parses an untrusted threshold. Out-of-range values are
// rejected, never clamped.
func ParseThresholdPercentage(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidThreshold, raw)
	}
	if n < MinThresholdPercentage || n > MaxThresholdPercentage {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidThreshold, n)
	}
	return n, nil
}

func (j JobRequest) CorrelationID() CorrelationID { return j.correlationID }
func (j JobRequest) ClassName() string            { return j.className }
func (j JobRequest) ThresholdPercentage() int     { return j.thresholdPercentage }

// ResultArtifactPath is the artifact name the device writes for this job.
func (j JobRequest) ResultArtifactPath() string {
	return ResultArtifactPath(j.correlationID)
}

// ResultArtifactPath returns "<id-lowercase>/imageWithDetection.jpg".
func ResultArtifactPath(id CorrelationID) string {
	return strings.ToLower(id.String()) + "/" + ResultArtifactName
}

// MarshalJSON renders the job for API responses.
func (j JobRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		CorrelationID       CorrelationID `json:"correlation_id"`
		ClassName           string        `json:"class_name"`
		ThresholdPercentage int           `json:"threshold_percentage"`
	}{j.correlationID, j.className, j.thresholdPercentage})
}

// DeliveryStatus is the result of one dispatch attempt.
type DeliveryStatus string

const (
	DeliveryAccepted DeliveryStatus = "ACCEPTED"
	DeliveryRejected DeliveryStatus = "REJECTED"
	DeliveryTimedOut DeliveryStatus = "TIMED_OUT"
)

// DeliveryOutcome is transient and never persisted.
type DeliveryOutcome struct {
	Status DeliveryStatus `json:"status"`
	Reason string         `json:"reason,omitempty"`
}

func Accepted() DeliveryOutcome { return DeliveryOutcome{Status: DeliveryAccepted} }

func Rejected(reason string) DeliveryOutcome {
	return DeliveryOutcome{Status: DeliveryRejected, Reason: reason}
}

func TimedOut(reason string) DeliveryOutcome {
	return DeliveryOutcome{Status: DeliveryTimedOut, Reason: reason}
}

func (o DeliveryOutcome) IsAccepted() bool { return o.Status == DeliveryAccepted }

// ResultStatus is the externally observed state of a job's result: PENDING -> READY.
type ResultStatus string

const (
	ResultPending ResultStatus = "PENDING"
	ResultReady   ResultStatus = "READY"
)

// ResultLocator is produced fresh on every poll. An empty URI means absent.
type ResultLocator struct {
	CorrelationID CorrelationID `json:"correlation_id"`
	Status        ResultStatus  `json:"status"`
	URI           string        `json:"uri,omitempty"`
}

// Ready reports whether the result artifact was found.
func (l *ResultLocator) Ready() bool {
	return l != nil && l.URI != ""
}

// SubmitRequest is an incoming classification request from the API.
// ThresholdPercentage accepts a JSON number or numeric string; empty means default.
type SubmitRequest struct {
	ClassName           string      `json:"class_name" form:"className"`
	ThresholdPercentage json.Number `json:"threshold_percentage,omitempty" form:"thresholdPercentage"`
}

// SubmitResult pairs the constructed job with the outcome of its delivery.
type SubmitResult struct {
	Job     JobRequest
	Outcome DeliveryOutcome
	Channel string
}

// SubmitResponse is returned by the submit endpoint regardless of outcome.
type SubmitResponse struct {
	CorrelationID       CorrelationID   `json:"correlation_id"`
	ClassName           string          `json:"class_name"`
	ThresholdPercentage int             `json:"threshold_percentage"`
	Channel             string          `json:"channel"`
	Outcome             DeliveryOutcome `json:"outcome"`
	ResultURL           string          `json:"result_url"`
}
