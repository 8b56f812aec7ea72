package commands

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Harsh-BH/edgeclassify/internal/domain"
	"github.com/Harsh-BH/edgeclassify/internal/printer"
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	noColor, prevOut, prevErr := color.NoColor, printer.Out, printer.Err
	color.NoColor = true
	out, errBuf := new(bytes.Buffer), new(bytes.Buffer)
	printer.Out, printer.Err = out, errBuf
	t.Cleanup(func() {
		color.NoColor = noColor
		printer.Out, printer.Err = prevOut, prevErr
		pollWait = false
		submitThreshold = -1
		submitCmd.Flags().Lookup("threshold").Changed = false
	})

	rootCmd.SetOut(out)
	rootCmd.SetErr(errBuf)
	rootCmd.SetArgs(args)
	err := Execute()
	return out.String(), errBuf.String(), err
}

func TestRoot_ShowsHelp(t *testing.T) {
	out, _, err := runCLI(t)
	require.NoError(t, err)
	assert.Contains(t, out, "Usage:")
	assert.Contains(t, out, "submit")
	assert.Contains(t, out, "poll")
}

func TestSubmit_Accepted(t *testing.T) {
	id, _ := domain.NewCorrelationID()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "dog", body["class_name"])
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(domain.SubmitResponse{
			CorrelationID:       id,
			ClassName:           "dog",
			ThresholdPercentage: 70,
			Channel:             "queue",
			Outcome:             domain.Accepted(),
		})
	}))
	defer srv.Close()

	out, _, err := runCLI(t, "submit", "--class", "dog", "--server", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Job "+id.String()+" accepted")
	assert.Contains(t, out, "classifyctl poll "+id.String())
}

func TestSubmit_RejectedDeliveryFails(t *testing.T) {
	id, _ := domain.NewCorrelationID()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(domain.SubmitResponse{
			CorrelationID: id,
			ClassName:     "dog",
			Outcome:       domain.Rejected("device unreachable"),
		})
	}))
	defer srv.Close()

	out, _, err := runCLI(t, "submit", "--class", "dog", "--server", srv.URL)
	require.Error(t, err)
	assert.Contains(t, out, "device unreachable")
}

func TestSubmit_InvalidThresholdNeverCallsServer(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	_, errOut, err := runCLI(t, "submit", "--class", "dog", "--threshold", "101", "--server", srv.URL)
	require.Error(t, err)
	assert.Contains(t, errOut, "invalid threshold")
	assert.False(t, called)
}

func TestPoll_SingleLookup(t *testing.T) {
	id, _ := domain.NewCorrelationID()
	uri := "https://store/" + domain.ResultArtifactPath(id)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(domain.ResultLocator{CorrelationID: id, Status: domain.ResultReady, URI: uri})
	}))
	defer srv.Close()

	out, _, err := runCLI(t, "poll", id.String(), "--server", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Result ready")
	assert.Contains(t, out, uri)
}

func TestPoll_Pending(t *testing.T) {
	id, _ := domain.NewCorrelationID()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(domain.ResultLocator{CorrelationID: id, Status: domain.ResultPending})
	}))
	defer srv.Close()

	out, _, err := runCLI(t, "poll", id.String(), "--server", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "still pending")
}

func TestPoll_InvalidID(t *testing.T) {
	_, errOut, err := runCLI(t, "poll", "not-a-uuid")
	require.Error(t, err)
	assert.Contains(t, errOut, "invalid correlation ID")
}
