package google

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"ebudget/internal/log"
	"ebudget/internal/report"
	ports "ebudget/internal/sheets"
)

const DefaultSheetBase = "Report"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Base tab name without year or user; the year is prefixed.
	sheetBase string
	logger    *log.Logger
}

var _ ports.ReportWriter = (*Client)(nil)

type Options struct {
	SpreadsheetID string
	SheetBase     string
	// Inline service account JSON; wins over CredentialsFile.
	CredentialsJSON string
	CredentialsFile string
}

// New creates a Sheets client. Without explicit credentials it falls back
// to GOOGLE_APPLICATION_CREDENTIALS and then to Application Default
// Credentials.
func New(ctx context.Context, opts Options, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentSheets)

	svc, err := newSheetsService(ctx, opts, logger)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{
		svc:           svc,
		spreadsheetID: strings.TrimSpace(opts.SpreadsheetID),
		sheetBase:     cmp.Or(strings.TrimSpace(opts.SheetBase), DefaultSheetBase),
		logger:        logger,
	}, nil
}

func newSheetsService(ctx context.Context, opts Options, logger *log.Logger) (*gsheet.Service, error) {
	clientOpts := []goption.ClientOption{goption.WithScopes(gsheet.SpreadsheetsScope)}

	credsFile := strings.TrimSpace(opts.CredentialsFile)
	if credsFile == "" {
		credsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case strings.TrimSpace(opts.CredentialsJSON) != "":
		logger.InfoContext(ctx, "Using inline service account credentials")
		clientOpts = append(clientOpts, goption.WithCredentialsJSON([]byte(opts.CredentialsJSON)))
	case credsFile != "":
		data, err := os.ReadFile(credsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		logger.InfoContext(ctx, "Using service account credentials file", "path", credsFile)
		clientOpts = append(clientOpts, goption.WithCredentialsJSON(data))
	default:
		logger.InfoContext(ctx, "Using application default credentials")
	}

	service, err := gsheet.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// WriteSeries writes each year of s to its own tab, creating tabs on
// demand and clearing what was there before.
func (c *Client) WriteSeries(ctx context.Context, userID string, s report.Series) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	userID, err := ports.UserSegment(userID)
	if err != nil {
		return err
	}

	existing, err := c.sheetTitles(ctx)
	if err != nil {
		return err
	}
	written := make(map[string]struct{})

	for year, part := range s.ByYear() {
		title := tabName(c.sheetBase, userID, s.Granularity, year)
		if _, ok := existing[title]; !ok {
			if err := c.addSheet(ctx, title); err != nil {
				return err
			}
			existing[title] = 0
		}
		written[title] = struct{}{}

		rng := fmt.Sprintf("'%s'!A:E", title)
		if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
			return fmt.Errorf("clear %s: %w", rng, err)
		}

		vr := &gsheet.ValueRange{Values: values(part)}
		start := fmt.Sprintf("'%s'!A1", title)
		_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, start, vr).
			ValueInputOption("USER_ENTERED").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("update %s: %w", title, err)
		}

		c.logger.InfoContext(ctx, "Report exported",
			log.FieldUserID, userID,
			log.FieldGranularity, string(s.Granularity),
			"sheet", title,
			log.FieldBuckets, part.Len())
	}

	stale := staleTabs(existing, written, c.sheetBase, userID, s.Granularity)
	if len(stale) == 0 {
		return nil
	}
	if err := c.deleteSheets(ctx, stale); err != nil {
		return err
	}
	c.logger.InfoContext(ctx, "Stale report tabs removed",
		log.FieldUserID, userID,
		log.FieldGranularity, string(s.Granularity),
		log.FieldCount, len(stale))
	return nil
}

// sheetTitles maps tab titles to sheet ids.
func (c *Client) sheetTitles(ctx context.Context) (map[string]int64, error) {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties(title,sheetId)").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read spreadsheet %s: %w", c.spreadsheetID, err)
	}
	titles := make(map[string]int64, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			titles[sh.Properties.Title] = sh.Properties.SheetId
		}
	}
	return titles, nil
}

// staleTabs returns the ids of the user's tabs at granularity g that were
// not written this time, ordered by id.
func staleTabs(existing map[string]int64, written map[string]struct{}, base, userID string, g report.Granularity) []int64 {
	var ids []int64
	for title, id := range existing {
		if _, ok := written[title]; ok || !startsWithYear(title) {
			continue
		}
		year, err := strconv.Atoi(title[:4])
		if err != nil || tabName(base, userID, g, year) != title {
			continue
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (c *Client) deleteSheets(ctx context.Context, ids []int64) error {
	reqs := make([]*gsheet.Request, 0, len(ids))
	for _, id := range ids {
		reqs = append(reqs, &gsheet.Request{DeleteSheet: &gsheet.DeleteSheetRequest{SheetId: id}})
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: reqs}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete stale sheets: %w", err)
	}
	return nil
}

func (c *Client) addSheet(ctx context.Context, title string) error {
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{Title: title},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", title, err)
	}
	return nil
}

// values renders the header and one row per bucket. Amounts are sent as
// numbers so the sheet can chart them.
func values(s report.Series) [][]any {
	out := make([][]any, 0, s.Len()+1)
	header := make([]any, len(ports.Header))
	for i, h := range ports.Header {
		header[i] = h
	}
	out = append(out, header)
	for b := range s.All() {
		out = append(out, []any{
			b.Label,
			b.Key,
			b.Income.InexactFloat64(),
			b.Expense.InexactFloat64(),
			b.Net.InexactFloat64(),
		})
	}
	return out
}

// tabName returns "<year> <base> <granularity> <user>" unless base already
// starts with a 4-digit year. Sheets limits titles to 100 characters.
func tabName(base, userID string, g report.Granularity, year int) string {
	base = strings.TrimSpace(base)
	name := fmt.Sprintf("%s %s %s", base, g, userID)
	if !startsWithYear(base) {
		name = fmt.Sprintf("%d %s", year, name)
	}
	if len(name) > 100 {
		name = name[:100]
	}
	return name
}

func startsWithYear(s string) bool {
	if len(s) < 5 || s[4] != ' ' {
		return false
	}
	y, err := strconv.Atoi(s[:4])
	return err == nil && y > 1900 && y < 3000
}
