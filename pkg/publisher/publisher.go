// Package publisher ships a core's sample sequence to a line-protocol
// sink in size-bounded batches. Publication is best-effort telemetry:
// failed batches are logged and counted, never retried, and never fail
// the measurement that produced them.
package publisher

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/yairfalse/jitter/pkg/sampler"
)

// BatchThresholdBytes is the body size that triggers a flush mid-run.
// The final batch is always flushed regardless of size.
const BatchThresholdBytes = 768 * 1024

// Stats describes one Publish call.
type Stats struct {
	Records  int
	Batches  int
	Failures int
}

// Publisher serializes samples and posts them to the sink. One
// Publisher is shared by all pipelines; it keeps no cross-call state.
type Publisher struct {
	logger    *zap.Logger
	writeURL  string
	hostname  string
	client    *http.Client
	threshold int
}

// New creates a Publisher for the given sink base URL and dataset.
func New(logger *zap.Logger, sinkURL, database, hostname string) *Publisher {
	return &Publisher{
		logger:    logger,
		writeURL:  fmt.Sprintf("%s/write?db=%s", sinkURL, url.QueryEscape(database)),
		hostname:  hostname,
		client:    &http.Client{Timeout: 30 * time.Second},
		threshold: BatchThresholdBytes,
	}
}

// Publish serializes the samples for one core and flushes them in
// batches. Each flush is an independent request; the final flush always
// happens, so a zero-sample call still issues exactly one request.
func (p *Publisher) Publish(core int, samples []sampler.Sample) Stats {
	stats := Stats{Records: len(samples)}
	var body bytes.Buffer

	for _, s := range samples {
		fmt.Fprintf(&body, "jitter,host=%s,cpu=%d jitter=%d %d\n", p.hostname, core, s.WorstLatency, s.Timestamp)
		if body.Len() >= p.threshold {
			p.flush(core, &body, &stats)
		}
	}
	p.flush(core, &body, &stats)

	p.logger.Info("published samples",
		zap.Int("core", core),
		zap.Int("records", stats.Records),
		zap.Int("batches", stats.Batches),
		zap.Int("failed_batches", stats.Failures),
	)
	return stats
}

func (p *Publisher) flush(core int, body *bytes.Buffer, stats *Stats) {
	size := body.Len()
	stats.Batches++

	err := p.post(body.Bytes())
	body.Reset()
	if err != nil {
		stats.Failures++
		p.logger.Warn("dropped sample batch: sink write failed",
			zap.Int("core", core),
			zap.Int("batch_bytes", size),
			zap.Error(err),
		)
	}
}

func (p *Publisher) post(batch []byte) error {
	resp, err := p.client.Post(p.writeURL, "text/plain; charset=utf-8", bytes.NewReader(batch))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sink returned %s", resp.Status)
	}
	return nil
}
