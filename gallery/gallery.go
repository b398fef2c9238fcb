// Package gallery stores composites on disk, registers them in the database
// and optionally mirrors them to S3 for sharing.
package gallery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aouyang1/photobooth/qr"
	"github.com/aouyang1/photobooth/store"
	"github.com/google/uuid"
)

const (
	captureExt     = ".png"
	uploadTimeout  = 2 * time.Minute
	shareURLExpiry = 24 * time.Hour
)

var ErrInvalidName = errors.New("invalid capture name")

// Uploader mirrors composites to remote object storage.
type Uploader interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) error
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type Gallery struct {
	path     string
	db       *store.Database
	uploader Uploader

	wg sync.WaitGroup
}

// NewGallery stores composites under path. uploader may be nil.
func NewGallery(path string, db *store.Database, uploader Uploader) (*Gallery, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("unable to create captures directory, %s, %w", path, err)
	}
	return &Gallery{
		path:     path,
		db:       db,
		uploader: uploader,
	}, nil
}

func (g *Gallery) Dir() string {
	return g.path
}

// FilePath returns where a capture's image lives on disk.
func (g *Gallery) FilePath(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(g.path, name+captureExt), nil
}

func newCaptureName(now time.Time) string {
	return now.Format("20060102-150405") + "-" + uuid.NewString()[:8]
}

// Save writes a PNG composite and registers it. When an uploader is
// configured the file is mirrored in the background.
func (g *Gallery) Save(ctx context.Context, png []byte, template string, shots int) (*store.Capture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := time.Now()
	name := newCaptureName(now)
	path, err := g.FilePath(name)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return nil, fmt.Errorf("unable to write capture, %s, %w", name, err)
	}

	order, err := g.db.GetMaxOrder()
	if err != nil {
		os.Remove(path)
		return nil, err
	}
	c := &store.Capture{
		Name:      name,
		Template:  template,
		ShotCount: shots,
		Order:     order,
		CreatedAt: now.UTC().Truncate(time.Second),
	}
	if err := g.db.InsertCapture(c); err != nil {
		os.Remove(path)
		return nil, err
	}
	slog.Info("saved capture", "name", name, "template", template, "shots", shots, "bytes", len(png))

	if g.uploader != nil {
		g.wg.Add(1)
		go func() {
			defer g.wg.Done()
			g.upload(name, png)
		}()
	}
	return c, nil
}

func (g *Gallery) upload(name string, png []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), uploadTimeout)
	defer cancel()

	key := name + captureExt
	if err := g.uploader.Upload(ctx, key, bytes.NewReader(png), "image/png"); err != nil {
		slog.Warn("error while uploading capture", "name", name, "error", err)
		return
	}
	if err := g.db.SetCaptureRemoteKey(name, key); err != nil {
		slog.Warn("unable to record remote key", "name", name, "error", err)
		return
	}
	slog.Info("uploaded capture", "name", name, "key", key)
}

// Wait blocks until background uploads finish.
func (g *Gallery) Wait() {
	g.wg.Wait()
}

func (g *Gallery) Get(name string) (*store.Capture, error) {
	if _, err := g.FilePath(name); err != nil {
		return nil, err
	}
	return g.db.GetCapture(name)
}

// Read returns the PNG bytes of a registered capture.
func (g *Gallery) Read(name string) ([]byte, error) {
	if _, err := g.Get(name); err != nil {
		return nil, err
	}
	path, _ := g.FilePath(name)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("capture file %s: %w", name, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read capture, %s, %w", name, err)
	}
	return data, nil
}

func (g *Gallery) List(limit, offset int) ([]store.Capture, int, error) {
	captures, err := g.db.GetCaptures(limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := g.db.GetCaptureCount()
	if err != nil {
		return nil, 0, err
	}
	return captures, total, nil
}

// Delete removes a capture from the database, disk and remote storage.
func (g *Gallery) Delete(ctx context.Context, name string) error {
	c, err := g.Get(name)
	if err != nil {
		return err
	}
	if err := g.db.DeleteCapture(name); err != nil {
		return err
	}

	path, _ := g.FilePath(name)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("unable to remove capture file", "name", name, "error", err)
	}

	if c.RemoteKey != "" && g.uploader != nil {
		if err := g.uploader.Delete(ctx, c.RemoteKey); err != nil {
			slog.Warn("unable to remove remote capture", "name", name, "key", c.RemoteKey, "error", err)
		}
	}
	slog.Info("deleted capture", "name", name)
	return nil
}

// ShareURL returns the link guests scan to fetch a capture. Uploaded
// captures get a presigned link, others point at this server.
func (g *Gallery) ShareURL(ctx context.Context, name, publicURL string) (string, error) {
	c, err := g.Get(name)
	if err != nil {
		return "", err
	}
	if c.RemoteKey != "" && g.uploader != nil {
		u, err := g.uploader.PresignGet(ctx, c.RemoteKey, shareURLExpiry)
		if err == nil {
			return u, nil
		}
		slog.Warn("unable to presign capture, using local link", "name", name, "error", err)
	}
	return qr.ShareURL(publicURL, "captures/"+name+"/image?download=1"), nil
}
