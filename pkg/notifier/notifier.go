// Package notifier implements the fire-and-forget downstream handoff to
// Service 2 (C8, spec §4.8). Failures are logged only; they must never
// fail the document or block the orchestrator's advance to the next one.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// Notifier POSTs a classification request per completed document.
type Notifier struct {
	enabled  bool
	baseURL  string
	endpoint string
	client   *http.Client
	logger   *log.Logger
}

// New builds a Notifier. When enabled is false, Notify is a no-op that
// always reports success (spec §4.8).
func New(enabled bool, baseURL, endpoint string, timeoutSeconds int, logger *log.Logger) *Notifier {
	return &Notifier{
		enabled:  enabled,
		baseURL:  baseURL,
		endpoint: endpoint,
		client:   &http.Client{Timeout: time.Duration(timeoutSeconds) * time.Second},
		logger:   logger,
	}
}

type classifyRequest struct {
	ExtractionIDs []int64 `json:"extraction_ids"`
}

// Notify POSTs {"extraction_ids": [extractionID]} to Service 2. All
// transport errors, timeouts, and non-2xx responses are logged only; the
// returned error is informational and callers MUST NOT treat it as
// document-level failure (spec §4.8, §7 "DownstreamError").
func (n *Notifier) Notify(ctx context.Context, extractionID int64, docID string) error {
	if !n.enabled {
		return nil
	}

	body, err := json.Marshal(classifyRequest{ExtractionIDs: []int64{extractionID}})
	if err != nil {
		n.logger.Warn("failed to encode downstream notify payload", "doc_id", docID, "error", err)
		return err
	}

	url := n.baseURL + n.endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		n.logger.Warn("failed to build downstream notify request", "doc_id", docID, "error", err)
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Warn("downstream notify transport error", "doc_id", docID, "url", url, "error", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusAccepted {
		return nil
	}

	err = fmt.Errorf("downstream notify returned status %d", resp.StatusCode)
	n.logger.Warn("downstream notify non-2xx response", "doc_id", docID, "status", resp.StatusCode)
	return err
}
