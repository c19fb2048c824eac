package worker

// retry_cron.go
// Background goroutine that periodically re-attempts PDF rendering for
// facturas stuck without a pdf_path and with pdf_next_retry_at in the past.
// A factura that exhausts MaxPDFRetries moves to the DLQ for manual review —
// the fiscal record itself is already committed and unaffected.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"servifrio/internal/infra"
	"servifrio/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	retryTickInterval = 30 * time.Second
	retryBatchSize    = 10
)

// RetryCronConfig holds all dependencies for the retry goroutine.
type RetryCronConfig struct {
	FacturaRepo    repository.FacturaRepository
	Dispatcher     *Dispatcher
	RDB            *redis.Client
	Emisor         infra.Emisor
	PDFStoragePath string
}

// StartRetryCron launches a background goroutine that ticks every 30s,
// queries facturas with a pending render, and re-attempts them.
// It respects the context for graceful shutdown.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				processRetries(ctx, cfg)
			}
		}
	}()
}

func processRetries(ctx context.Context, cfg RetryCronConfig) {
	now := time.Now()
	facturas, err := cfg.FacturaRepo.ListPendingPDFRetries(ctx, now, retryBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("retry_cron: failed to query pending retries")
		return
	}
	if len(facturas) == 0 {
		return
	}

	log.Info().Int("count", len(facturas)).Msg("retry_cron: re-attempting pending renders")

	for i := range facturas {
		factura := &facturas[i]

		pdfPath, renderErr := infra.GenerateFacturaPDF(factura, cfg.Emisor, cfg.PDFStoragePath)
		if renderErr != nil {
			factura.PDFRetryCount++
			errMsg := renderErr.Error()
			factura.PDFLastError = &errMsg

			if factura.PDFRetryCount >= MaxPDFRetries {
				factura.PDFNextRetryAt = nil
				log.Error().
					Str("numero", factura.Numero).
					Int("retries", factura.PDFRetryCount).
					Msg("retry_cron: max retries exceeded, moving to DLQ")

				payload, _ := json.Marshal(PDFJobPayload{FacturaID: factura.ID.String()})
				SendToDLQ(ctx, cfg.RDB, QueuePDF, "pdf", factura.ID.String(), payload,
					fmt.Sprintf("max retries (%d) exceeded: %s", MaxPDFRetries, errMsg),
					factura.PDFRetryCount)
			} else {
				next := time.Now().Add(computeRetryBackoff(factura.PDFRetryCount))
				factura.PDFNextRetryAt = &next
				log.Warn().
					Str("numero", factura.Numero).
					Int("retry_count", factura.PDFRetryCount).
					Time("next_retry_at", next).
					Msg("retry_cron: render failed again, scheduled next attempt")
			}

			_ = cfg.FacturaRepo.Update(ctx, factura)
			continue
		}

		factura.PDFPath = &pdfPath
		factura.PDFNextRetryAt = nil
		factura.PDFLastError = nil
		_ = cfg.FacturaRepo.Update(ctx, factura)

		log.Info().
			Str("numero", factura.Numero).
			Str("pdf", pdfPath).
			Int("total_retries", factura.PDFRetryCount).
			Msg("retry_cron: render recovered after retry")

		if factura.ClienteEmail != nil && *factura.ClienteEmail != "" {
			emailJob := EmailJobPayload{
				ToEmail: *factura.ClienteEmail,
				Subject: fmt.Sprintf("Factura %s — %s", factura.Numero, cfg.Emisor.Nombre),
				Body: fmt.Sprintf(
					"Estimado cliente:\n\nAdjunto encontrará su factura %s por L %s.\n\n%s",
					factura.Numero, factura.TotalAPagar.StringFixed(2), cfg.Emisor.Nombre),
				PDFPath: pdfPath,
			}
			if err := cfg.Dispatcher.EnqueueEmail(ctx, emailJob); err != nil {
				log.Warn().Err(err).Str("numero", factura.Numero).Msg("retry_cron: failed to enqueue email")
			}
		}
	}
}
