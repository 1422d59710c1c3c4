package blobstore

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Local stores blobs under a root directory. Signed URLs are file:// links
// carrying an HMAC token so expiry and tampering stay checkable in tests.
type Local struct {
	root   string
	secret []byte
}

// NewLocal prepares a filesystem-backed store rooted at dir.
func NewLocal(dir, signSecret string) (*Local, error) {
	if dir == "" {
		return nil, errors.New("local blob directory is required")
	}
	expanded, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve blob directory: %w", err)
	}
	if err := os.MkdirAll(expanded, 0o755); err != nil {
		return nil, fmt.Errorf("create blob directory: %w", err)
	}
	if signSecret == "" {
		signSecret = "intake-local"
	}
	return &Local{root: expanded, secret: []byte(signSecret)}, nil
}

func (l *Local) objectFile(path string) string {
	return filepath.Join(l.root, filepath.FromSlash(path))
}

func (l *Local) Put(ctx context.Context, path string, data []byte, contentType string) error {
	target := l.objectFile(path)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create object directory: %w", err)
	}
	// Write-then-rename keeps readers from observing partial objects.
	tmp := target + ".partial"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write object %q: %w", path, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("finalize object %q: %w", path, err)
	}
	return nil
}

func (l *Local) Move(ctx context.Context, oldPath, newPath string) error {
	src := l.objectFile(oldPath)
	dst := l.objectFile(newPath)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create object directory: %w", err)
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("move object %q to %q: %w", oldPath, newPath, err)
	}
	return nil
}

func (l *Local) Sign(ctx context.Context, path string, ttl time.Duration) (SignedURL, error) {
	if _, err := os.Stat(l.objectFile(path)); err != nil {
		return SignedURL{}, fmt.Errorf("sign object %q: %w", path, err)
	}
	expires := time.Now().UTC().Add(ttl)
	token := l.token(path, expires)
	signed := url.URL{
		Scheme: "file",
		Path:   filepath.ToSlash(l.objectFile(path)),
		RawQuery: url.Values{
			"expires": []string{strconv.FormatInt(expires.Unix(), 10)},
			"token":   []string{token},
		}.Encode(),
	}
	return SignedURL{URL: signed.String(), ExpiresAt: expires}, nil
}

// Verify checks a signed URL issued by this store. It reports false for
// expired links and forged tokens.
func (l *Local) Verify(signedURL string, now time.Time) bool {
	parsed, err := url.Parse(signedURL)
	if err != nil {
		return false
	}
	expiresRaw := parsed.Query().Get("expires")
	token := parsed.Query().Get("token")
	expiresUnix, err := strconv.ParseInt(expiresRaw, 10, 64)
	if err != nil {
		return false
	}
	expires := time.Unix(expiresUnix, 0).UTC()
	if now.After(expires) {
		return false
	}

	rel, err := filepath.Rel(l.root, filepath.FromSlash(parsed.Path))
	if err != nil {
		return false
	}
	expected := l.token(filepath.ToSlash(rel), expires)
	return hmac.Equal([]byte(expected), []byte(token))
}

func (l *Local) token(path string, expires time.Time) string {
	mac := hmac.New(sha256.New, l.secret)
	fmt.Fprintf(mac, "%s\n%d", path, expires.Unix())
	return hex.EncodeToString(mac.Sum(nil))
}

func (l *Local) Delete(ctx context.Context, path string) error {
	err := os.Remove(l.objectFile(path))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete object %q: %w", path, err)
	}
	return nil
}

// Bucket reports the root directory standing in for a bucket.
func (l *Local) Bucket() string {
	return l.root
}

func (l *Local) Close() error {
	return nil
}

// Exists reports whether an object is present, for tests and health checks.
func (l *Local) Exists(path string) bool {
	_, err := os.Stat(l.objectFile(path))
	return err == nil
}

// ReadObject returns stored object bytes, for tests.
func (l *Local) ReadObject(path string) ([]byte, error) {
	return os.ReadFile(l.objectFile(path))
}
