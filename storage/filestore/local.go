package filestore

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/gyermekkert/admin/core"
)

var ErrInvalidToken = errors.New("invalid or expired download token")

// localStore keeps uploads on the local disk under a single root directory.
// Download URLs are signed with an HMAC of the path and expiry so the files
// endpoint can serve them without auth headers (the frontend opens them in a
// new tab).
type localStore struct {
	root      string
	secretKey []byte
	now       func() time.Time
}

var _ core.FileStore = (*localStore)(nil)

func NewLocalStore(conf *core.Config) (*localStore, error) {
	root := conf.Storage.Root
	if !filepath.IsAbs(root) {
		root = filepath.Join(conf.WorkDir, root)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating storage root")
	}
	return &localStore{
		root:      root,
		secretKey: conf.SecretKey,
		now:       time.Now,
	}, nil
}

func (s *localStore) Upload(ctx context.Context, bucket, filename string, r io.Reader) (string, error) {
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	if ext == "" {
		ext = "bin"
	}
	now := s.now().UTC()
	path := fmt.Sprintf("%s/%s/%d.%s", bucket, now.Format("2006-01"), now.UnixNano(), ext)

	dst := filepath.Join(s.root, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", errors.Wrap(err, "creating upload directory")
	}
	f, err := os.Create(dst)
	if err != nil {
		return "", errors.Wrap(err, "creating upload file")
	}
	defer func() { _ = f.Close() }()
	if _, err = io.Copy(f, r); err != nil {
		return "", errors.Wrap(err, "writing upload file")
	}
	return path, nil
}

func (s *localStore) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	clean := filepath.Clean(filepath.FromSlash(path))
	if strings.HasPrefix(clean, "..") {
		return nil, errors.New("invalid path")
	}
	f, err := os.Open(filepath.Join(s.root, clean))
	if err != nil {
		return nil, errors.Wrap(err, "opening stored file")
	}
	return f, nil
}

func (s *localStore) SignedURL(path string, ttl time.Duration) (string, error) {
	expires := s.now().Add(ttl).Unix()
	q := make(url.Values)
	q.Set("expires", strconv.FormatInt(expires, 10))
	q.Set("token", s.sign(path, expires))
	return fmt.Sprintf("/v1/files/%s?%s", path, q.Encode()), nil
}

func (s *localStore) VerifyToken(path string, expires int64, token string) error {
	if s.now().Unix() > expires {
		return ErrInvalidToken
	}
	want, err := hex.DecodeString(token)
	if err != nil {
		return ErrInvalidToken
	}
	got, _ := hex.DecodeString(s.sign(path, expires))
	if !hmac.Equal(want, got) {
		return ErrInvalidToken
	}
	return nil
}

func (s *localStore) sign(path string, expires int64) string {
	mac := hmac.New(sha256.New, s.secretKey)
	_, _ = fmt.Fprintf(mac, "%s:%d", path, expires)
	return hex.EncodeToString(mac.Sum(nil))
}
