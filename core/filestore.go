package core

import (
	"context"
	"io"
	"time"
)

// Upload buckets.
const (
	BucketInvoices = "invoices"
	BucketPayroll  = "payroll"
	BucketBackups  = "backups"
)

// FileStore is any service that can persist and serve uploaded documents.
// Stored paths follow the `{bucket}/{YYYY-MM}/{timestamp}.{ext}` convention.
type FileStore interface {
	Upload(ctx context.Context, bucket, filename string, r io.Reader) (string, error)
	Download(ctx context.Context, path string) (io.ReadCloser, error)
	// SignedURL returns a relative URL with an HMAC token granting access to
	// path until expiry.
	SignedURL(path string, ttl time.Duration) (string, error)
	// VerifyToken checks a token produced by SignedURL.
	VerifyToken(path string, expires int64, token string) error
}
