package notion

import (
	"context"
	"testing"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rs/zerolog"

	"github.com/chatledger/chatledger/internal/ledger"
	"github.com/chatledger/chatledger/internal/ledger/inmemory"
	"github.com/chatledger/chatledger/internal/normalize"
)

type mockService struct {
	pages   []notionapi.Page
	created []notionapi.Properties
}

func (m *mockService) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	m.created = append(m.created, properties)
	return &notionapi.Page{}, nil
}

func (m *mockService) QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	return &notionapi.DatabaseQueryResponse{Results: m.pages, HasMore: false}, nil
}

func exportedPage(recordID string) notionapi.Page {
	return notionapi.Page{
		Properties: notionapi.Properties{
			"Record ID": &notionapi.TitleProperty{
				Title: []notionapi.RichText{{PlainText: recordID}},
			},
		},
	}
}

func testStore(t *testing.T) *inmemory.Store {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	return inmemory.New(normalize.NewClock(loc))
}

func TestExportCreatesMissingPages(t *testing.T) {
	store := testStore(t)
	scope := "chat-a"
	ctx := context.Background()

	var recs []*ledger.Record
	for _, tl := range []string{"2025-08-01 10:00", "2025-08-02 11:00"} {
		rec, err := store.Insert(ctx, &ledger.Record{
			OwnerScope: &scope,
			Amount:     10,
			Category:   "dining",
			TimeLocal:  tl,
		})
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
		recs = append(recs, rec)
	}

	// First record already exported.
	svc := &mockService{pages: []notionapi.Page{exportedPage(recs[0].ID)}}
	exp := NewExporter(store, svc, "db", zerolog.Nop())

	res, err := exp.Export(ctx, scope, "2025-08", false)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if res.Created != 1 || res.Skipped != 1 {
		t.Errorf("result = %+v, want 1 created / 1 skipped", res)
	}
	if len(svc.created) != 1 {
		t.Fatalf("created pages = %d, want 1", len(svc.created))
	}

	title := svc.created[0]["Record ID"].(notionapi.TitleProperty)
	if got := title.Title[0].Text.Content; got != recs[1].ID {
		t.Errorf("created page id = %q, want %q", got, recs[1].ID)
	}
}

func TestExportDryRunWritesNothing(t *testing.T) {
	store := testStore(t)
	scope := "chat-a"
	ctx := context.Background()
	if _, err := store.Insert(ctx, &ledger.Record{
		OwnerScope: &scope, Amount: 5, Category: "other", TimeLocal: "2025-08-01 10:00",
	}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	svc := &mockService{}
	exp := NewExporter(store, svc, "db", zerolog.Nop())

	res, err := exp.Export(ctx, scope, "2025-08", true)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if res.Created != 1 {
		t.Errorf("created = %d, want 1 planned", res.Created)
	}
	if len(svc.created) != 0 {
		t.Errorf("dry run created %d real pages", len(svc.created))
	}
}

func TestRecordPropertiesOmitsEmptyPayee(t *testing.T) {
	props := recordProperties(&ledger.Record{
		ID:             "64d2ab4f9d1e6f0001a2b3c4",
		Amount:         18,
		Category:       "dining",
		MonthPartition: "2025-08",
	})
	if _, ok := props["Payee"]; ok {
		t.Error("empty payee must not produce a property")
	}
	if _, ok := props["Time"]; ok {
		t.Error("zero instant must not produce a date property")
	}
}
