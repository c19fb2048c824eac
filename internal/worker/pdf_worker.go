package worker

// pdf_worker.go
// Processes invoice rendering jobs from QueuePDF: fetches the factura,
// renders the A4 PDF, stores the path, and optionally enqueues an email job.
// Failed renders are parked for the retry cron with exponential backoff.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"servifrio/internal/infra"
	"servifrio/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// PDFJobPayload is the job envelope sent to QueuePDF.
type PDFJobPayload struct {
	FacturaID    string  `json:"factura_id"`
	ClienteEmail *string `json:"cliente_email,omitempty"`
}

// PDFWorker renders invoice PDFs out-of-band so issuance latency never
// includes rendering time.
type PDFWorker struct {
	facturaRepo    repository.FacturaRepository
	dispatcher     *Dispatcher
	emisor         infra.Emisor
	pdfStoragePath string
}

func NewPDFWorker(
	facturaRepo repository.FacturaRepository,
	dispatcher *Dispatcher,
	emisor infra.Emisor,
	pdfStoragePath string,
) *PDFWorker {
	return &PDFWorker{
		facturaRepo:    facturaRepo,
		dispatcher:     dispatcher,
		emisor:         emisor,
		pdfStoragePath: pdfStoragePath,
	}
}

// Process handles a single rendering job:
//  1. Parse PDFJobPayload from the job envelope
//  2. Fetch the Factura (with items) from DB
//  3. Render the PDF with in-process retries (max 3)
//  4. On success: store pdf_path, clear retry state, maybe enqueue email
//  5. On failure: schedule the retry cron via pdf_next_retry_at
func (w *PDFWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload PDFJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("pdf_worker: invalid payload")
		return
	}

	facturaID, err := uuid.Parse(payload.FacturaID)
	if err != nil {
		log.Error().Str("factura_id", payload.FacturaID).Msg("pdf_worker: invalid factura_id")
		return
	}

	factura, err := w.facturaRepo.FindByID(ctx, facturaID)
	if err != nil {
		log.Error().Err(err).Str("factura_id", payload.FacturaID).Msg("pdf_worker: factura not found")
		return
	}

	var pdfPath string
	renderErr := withRetry(ctx, 3, func(attempt int) error {
		path, err := infra.GenerateFacturaPDF(factura, w.emisor, w.pdfStoragePath)
		if err != nil {
			log.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Str("numero", factura.Numero).
				Msg("pdf_worker: render attempt failed, retrying")
			return err
		}
		pdfPath = path
		return nil
	})

	if renderErr != nil {
		factura.PDFRetryCount++
		errMsg := renderErr.Error()
		factura.PDFLastError = &errMsg
		next := time.Now().Add(computeRetryBackoff(factura.PDFRetryCount))
		factura.PDFNextRetryAt = &next
		if err := w.facturaRepo.Update(ctx, factura); err != nil {
			log.Error().Err(err).Str("numero", factura.Numero).Msg("pdf_worker: failed to persist retry state")
		}
		log.Error().
			Err(renderErr).
			Str("numero", factura.Numero).
			Time("next_retry_at", next).
			Msg("pdf_worker: render failed, scheduled for retry cron")
		return
	}

	factura.PDFPath = &pdfPath
	factura.PDFNextRetryAt = nil
	factura.PDFLastError = nil
	if err := w.facturaRepo.Update(ctx, factura); err != nil {
		log.Error().Err(err).Str("numero", factura.Numero).Msg("pdf_worker: failed to store pdf_path")
		return
	}
	log.Info().Str("pdf", pdfPath).Str("numero", factura.Numero).Msg("pdf_worker: factura rendered")

	if payload.ClienteEmail != nil && *payload.ClienteEmail != "" {
		emailJob := EmailJobPayload{
			ToEmail: *payload.ClienteEmail,
			Subject: fmt.Sprintf("Factura %s — %s", factura.Numero, w.emisor.Nombre),
			Body: fmt.Sprintf(
				"Estimado cliente:\n\nAdjunto encontrará su factura %s por L %s.\n\n%s",
				factura.Numero, factura.TotalAPagar.StringFixed(2), w.emisor.Nombre),
			PDFPath: pdfPath,
		}
		if err := w.dispatcher.EnqueueEmail(ctx, emailJob); err != nil {
			log.Warn().Err(err).Str("email", *payload.ClienteEmail).Msg("pdf_worker: failed to enqueue email")
		} else {
			log.Info().Str("email", *payload.ClienteEmail).Msg("pdf_worker: email job enqueued")
		}
	}
}

// MaxPDFRetries is the cap applied by the retry cron before a factura's
// rendering job lands in the DLQ.
const MaxPDFRetries = 5

// computeRetryBackoff returns the wait before attempt n (1-based):
// 1m, 2m, 4m, 8m … capped at 30m.
func computeRetryBackoff(retryCount int) time.Duration {
	backoff := time.Minute * time.Duration(1<<uint(retryCount-1))
	if backoff > 30*time.Minute {
		backoff = 30 * time.Minute
	}
	return backoff
}

// withRetry calls fn up to maxAttempts times with exponential backoff.
// Backoff schedule: attempt 1 = immediate, 2 = 1s, 3 = 2s.
// Returns nil if any attempt succeeds; last error otherwise.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
