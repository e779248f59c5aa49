package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"budgetbook/internal/config"
	"budgetbook/internal/core"
	ports "budgetbook/internal/export"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client appends budget snapshots to a Google Sheets spreadsheet. Each
// snapshot is one row; the sheet is append-only history, never rewritten.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// Ensure interface conformance
var _ ports.SnapshotWriter = (*Client)(nil)

// NewFromConfig creates a Sheets client from the application configuration.
// Returns nil (no error) when the export is not configured, so callers can
// treat the exporter as optional.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.GoogleSpreadsheetID)
	if spreadsheetID == "" {
		return nil, nil
	}

	sheetName := strings.TrimSpace(cfg.GoogleSheetName)
	if sheetName == "" {
		sheetName = "Budget"
	}

	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context, cfg *config.Config) (*gsheet.Service, error) {
	var credentialsJSON []byte
	var err error

	switch {
	case strings.TrimSpace(cfg.GoogleServiceAccountJSON) != "":
		credentialsJSON = []byte(cfg.GoogleServiceAccountJSON)
	case strings.TrimSpace(cfg.GoogleServiceAccountFile) != "":
		credentialsJSON, err = os.ReadFile(cfg.GoogleServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created successfully")
	return service, nil
}

// AppendSnapshot writes one snapshot row:
// timestamp, identity, income, per-category allocated and spent, daily limits.
func (c *Client) AppendSnapshot(ctx context.Context, summary core.BudgetSummary) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	// Find the next empty row by getting the sheet dimensions first
	rng := fmt.Sprintf("%s!A:A", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to get sheet dimensions for %s: %w", c.sheetName, err)
	}
	nextRow := len(resp.Values) + 1

	row := []any{
		time.Now().UTC().Format(time.RFC3339),
		summary.Identity,
		summary.Income.String(),
		summary.NeedsAllocated.String(),
		summary.NeedsSpent.String(),
		summary.WantsAllocated.String(),
		summary.WantsSpent.String(),
		summary.SavingsAllocated.String(),
		summary.SavingsSpent.String(),
		summary.DailyNeedsLimit.StringFixed(2),
		summary.DailyWantsLimit.StringFixed(2),
	}

	dataRange := fmt.Sprintf("%s!A%d:K%d", c.sheetName, nextRow, nextRow)
	vr := &gsheet.ValueRange{Values: [][]any{row}}

	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to update %s in sheet %s: %w", dataRange, c.sheetName, err)
	}

	return dataRange, nil
}
