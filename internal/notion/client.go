// Package notion exports monthly ledger snapshots to a Notion
// database. Each record becomes one page keyed by its ledger id, so
// repeated exports of the same month are idempotent.
package notion

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
)

// Service is the slice of the Notion API the exporter needs. Tests
// substitute a mock.
type Service interface {
	CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error)
	QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
}

// Client implements Service on the official SDK.
type Client struct {
	client *notionapi.Client
}

// NewClient creates a Client with the given integration token.
func NewClient(token string) *Client {
	return &Client{client: notionapi.NewClient(notionapi.Token(token))}
}

func (c *Client) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	page, err := c.client.Page.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(databaseID),
		},
		Properties: properties,
	})
	if err != nil {
		return nil, fmt.Errorf("CreatePage: %w", err)
	}
	return page, nil
}

func (c *Client) QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	resp, err := c.client.Database.Query(ctx, notionapi.DatabaseID(databaseID), req)
	if err != nil {
		return nil, fmt.Errorf("QueryDatabase: %w", err)
	}
	return resp, nil
}
