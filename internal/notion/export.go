package notion

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
	"github.com/rs/zerolog"

	"github.com/chatledger/chatledger/internal/ledger"
)

// Exporter pushes one month of ledger records into a Notion database.
type Exporter struct {
	store      ledger.Store
	svc        Service
	databaseID string
	log        zerolog.Logger
}

// NewExporter wires an Exporter.
func NewExporter(store ledger.Store, svc Service, databaseID string, log zerolog.Logger) *Exporter {
	return &Exporter{store: store, svc: svc, databaseID: databaseID, log: log}
}

// Result counts what an export run did.
type Result struct {
	Created int
	Skipped int
}

// Export creates a page for every record of the month that is not
// already present. dryRun logs the plan without writing anything.
func (e *Exporter) Export(ctx context.Context, scope, month string, dryRun bool) (Result, error) {
	var res Result

	recs, err := e.store.ListMonth(ctx, scope, month, 0)
	if err != nil {
		return res, fmt.Errorf("Export: list month %s: %w", month, err)
	}

	existing, err := e.existingRecordIDs(ctx)
	if err != nil {
		return res, err
	}

	for _, rec := range recs {
		if existing[rec.ID] {
			res.Skipped++
			continue
		}
		if dryRun {
			e.log.Info().Str("record_id", rec.ID).Msg("dry run: would create page")
			res.Created++
			continue
		}
		if _, err := e.svc.CreatePage(ctx, e.databaseID, recordProperties(rec)); err != nil {
			return res, fmt.Errorf("Export: create page for %s: %w", rec.ID, err)
		}
		res.Created++
	}

	e.log.Info().
		Str("month", month).
		Int("created", res.Created).
		Int("skipped", res.Skipped).
		Bool("dry_run", dryRun).
		Msg("export finished")
	return res, nil
}

// existingRecordIDs walks the whole database, following pagination,
// and collects the ledger ids already exported.
func (e *Exporter) existingRecordIDs(ctx context.Context) (map[string]bool, error) {
	ids := make(map[string]bool)
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{PageSize: 100}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := e.svc.QueryDatabase(ctx, e.databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("existingRecordIDs: %w", err)
		}
		for _, page := range resp.Results {
			if id := pageRecordID(page); id != "" {
				ids[id] = true
			}
		}

		if !resp.HasMore {
			return ids, nil
		}
		cursor = resp.NextCursor
	}
}
