package notion

import (
	"github.com/jomei/notionapi"

	"github.com/chatledger/chatledger/internal/ledger"
)

// recordProperties maps one ledger record onto the export database
// schema. The ledger id is the page title, which is what export
// deduplication keys on.
func recordProperties(rec *ledger.Record) notionapi.Properties {
	props := notionapi.Properties{
		"Record ID": notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{Content: rec.ID},
				},
			},
		},
		"Amount": notionapi.NumberProperty{
			Number: rec.Amount,
		},
		"Category": notionapi.SelectProperty{
			Select: notionapi.Option{Name: rec.Category},
		},
		"Month": notionapi.SelectProperty{
			Select: notionapi.Option{Name: rec.MonthPartition},
		},
	}

	if rec.Payee != "" {
		props["Payee"] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{Content: rec.Payee},
				},
			},
		}
	}

	if !rec.InstantUTC.IsZero() {
		d := notionapi.Date(rec.InstantUTC.UTC())
		props["Time"] = notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &d},
		}
	}

	return props
}

// pageRecordID pulls the ledger id back out of an exported page.
func pageRecordID(page notionapi.Page) string {
	prop, ok := page.Properties["Record ID"]
	if !ok {
		return ""
	}
	title, ok := prop.(*notionapi.TitleProperty)
	if !ok || len(title.Title) == 0 {
		return ""
	}
	return title.Title[0].PlainText
}
