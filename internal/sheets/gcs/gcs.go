// Package gcs archives exported reports as CSV objects in a Cloud Storage
// bucket, one object per user, granularity and year.
package gcs

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"ebudget/internal/log"
	"ebudget/internal/report"
	ports "ebudget/internal/sheets"
)

const uploadTimeout = 2 * time.Minute

// Object access, swapped in tests.
type (
	objectWriter  func(ctx context.Context, name string) io.WriteCloser
	objectLister  func(ctx context.Context, prefix string) ([]string, error)
	objectRemover func(ctx context.Context, name string) error
)

type Writer struct {
	client *storage.Client
	bucket string
	prefix string
	open   objectWriter
	list   objectLister
	remove objectRemover
	logger *log.Logger
}

var _ ports.ReportWriter = (*Writer)(nil)

// New creates a writer using Application Default Credentials.
func New(ctx context.Context, bucket, prefix string, logger *log.Logger) (*Writer, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, errors.New("missing bucket name")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	w := &Writer{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: logger.WithComponent(log.ComponentArchive),
	}
	bkt := client.Bucket(bucket)
	w.open = func(ctx context.Context, name string) io.WriteCloser {
		ow := bkt.Object(name).NewWriter(ctx)
		ow.ContentType = "text/csv"
		return ow
	}
	w.list = func(ctx context.Context, prefix string) ([]string, error) {
		var names []string
		it := bkt.Objects(ctx, &storage.Query{Prefix: prefix})
		for {
			attrs, err := it.Next()
			if errors.Is(err, iterator.Done) {
				return names, nil
			}
			if err != nil {
				return nil, err
			}
			names = append(names, attrs.Name)
		}
	}
	w.remove = func(ctx context.Context, name string) error {
		err := bkt.Object(name).Delete(ctx)
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil
		}
		return err
	}
	return w, nil
}

// ObjectName returns where the series of one year is stored.
func (w *Writer) ObjectName(userID string, g report.Granularity, year int) string {
	return path.Join(w.dir(userID, g), fmt.Sprintf("%d.csv", year))
}

func (w *Writer) dir(userID string, g report.Granularity) string {
	return path.Join(w.prefix, userID, string(g))
}

// WriteSeries uploads one CSV object per year of s and removes the objects
// of years s no longer has.
func (w *Writer) WriteSeries(ctx context.Context, userID string, s report.Series) error {
	userID, err := ports.UserSegment(userID)
	if err != nil {
		return err
	}
	written := make(map[string]struct{})
	for year, part := range s.ByYear() {
		body, err := encode(part)
		if err != nil {
			return fmt.Errorf("encode %d: %w", year, err)
		}
		name := w.ObjectName(userID, s.Granularity, year)
		if err := w.upload(ctx, name, body); err != nil {
			return err
		}
		written[name] = struct{}{}
		w.logger.InfoContext(ctx, "Report archived",
			log.FieldUserID, userID,
			log.FieldGranularity, string(s.Granularity),
			"object", name,
			log.FieldBuckets, part.Len())
	}
	return w.prune(ctx, w.dir(userID, s.Granularity)+"/", written)
}

// prune deletes the year objects under dir that were not just written.
func (w *Writer) prune(ctx context.Context, dir string, written map[string]struct{}) error {
	names, err := w.list(ctx, dir)
	if err != nil {
		return fmt.Errorf("list %s: %w", dir, err)
	}
	for _, name := range names {
		if _, ok := written[name]; ok || !strings.HasSuffix(name, ".csv") {
			continue
		}
		if err := w.remove(ctx, name); err != nil {
			return fmt.Errorf("remove %s: %w", name, err)
		}
		w.logger.InfoContext(ctx, "Stale report removed", "object", name)
	}
	return nil
}

func (w *Writer) upload(ctx context.Context, name string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	ow := w.open(ctx, name)
	if _, err := io.Copy(ow, bytes.NewReader(body)); err != nil {
		_ = ow.Close()
		return fmt.Errorf("copy report to %s: %w", name, err)
	}
	// Close finalizes the upload.
	if err := ow.Close(); err != nil {
		return fmt.Errorf("finalize upload %s: %w", name, err)
	}
	return nil
}

func encode(s report.Series) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(ports.Header); err != nil {
		return nil, err
	}
	for b := range s.All() {
		if err := cw.Write(ports.Row(b)); err != nil {
			return nil, err
		}
	}
	cw.Flush()
	return buf.Bytes(), cw.Error()
}

func (w *Writer) Close() error {
	if w.client == nil {
		return nil
	}
	return w.client.Close()
}
