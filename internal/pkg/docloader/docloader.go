// Package docloader turns document references into text for prompt context.
package docloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	neturl "net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/presenton/core/internal/pkg/mdtext"
	"github.com/presenton/core/internal/pkg/objectstore"
	"go.uber.org/zap"
)

var (
	ErrUnsupportedType = errors.New("unsupported document type")
	ErrTooLarge        = errors.New("document exceeds size limit")
	ErrNotText         = errors.New("document is not valid UTF-8 text")
	ErrNoObjectStore   = errors.New("s3 document references require storage.s3 configuration")
	ErrOutsideRoot     = errors.New("document path is outside the documents root")
	ErrRemoteDisabled  = errors.New("remote documents are disabled")
	ErrHostNotAllowed  = errors.New("document host is not allowed")
)

var textExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".json":     true,
}

var mimeExtensions = map[string]string{
	"text/plain":       ".txt",
	"text/markdown":    ".md",
	"text/x-markdown":  ".md",
	"text/csv":         ".csv",
	"application/json": ".json",
}

// ObjectOpener reads objects from a bucket. *objectstore.Store satisfies it.
type ObjectOpener interface {
	Open(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

type Options struct {
	MaxBytes    int64
	HTTPTimeout time.Duration
	// Root confines local references. Local references are rejected when empty.
	Root string
	// AllowRemote enables http(s) references. RemoteHosts, when set, limits
	// them (and any redirect) to the listed hostnames.
	AllowRemote bool
	RemoteHosts []string
	Objects     ObjectOpener
	HTTPClient  *http.Client
	Logger      *zap.Logger
}

// Loader reads local files, http(s) URLs and s3:// objects. Remote documents
// are downloaded into the caller's work directory before they are read.
type Loader struct {
	maxBytes    int64
	root        string
	allowRemote bool
	hosts       map[string]bool
	objects     ObjectOpener
	http        *http.Client
	logger      *zap.Logger
}

func New(opts Options) *Loader {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Loader{
		maxBytes:    opts.MaxBytes,
		allowRemote: opts.AllowRemote,
		objects:     opts.Objects,
		logger:      logger,
	}
	if root := strings.TrimSpace(opts.Root); root != "" {
		l.root = filepath.Clean(root)
	}
	if len(opts.RemoteHosts) > 0 {
		l.hosts = make(map[string]bool, len(opts.RemoteHosts))
		for _, h := range opts.RemoteHosts {
			if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
				l.hosts[h] = true
			}
		}
	}

	client := opts.HTTPClient
	if client == nil {
		timeout := opts.HTTPTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	copied := *client
	next := client.CheckRedirect
	copied.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if err := l.checkHost(req.URL); err != nil {
			return err
		}
		if next != nil {
			return next(req, via)
		}
		if len(via) >= 10 {
			return errors.New("stopped after 10 redirects")
		}
		return nil
	}
	l.http = &copied
	return l
}

// Load returns one text per reference, in order.
func (l *Loader) Load(ctx context.Context, refs []string, workDir string) ([]string, error) {
	texts := make([]string, 0, len(refs))
	for i, ref := range refs {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			continue
		}
		text, err := l.loadOne(ctx, i, ref, workDir)
		if err != nil {
			return nil, fmt.Errorf("load document %q: %w", ref, err)
		}
		texts = append(texts, text)
	}
	return texts, nil
}

func (l *Loader) loadOne(ctx context.Context, index int, ref, workDir string) (string, error) {
	localPath, ext, err := l.fetch(ctx, index, ref, workDir)
	if err != nil {
		return "", err
	}
	if !textExtensions[ext] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}

	data, err := l.readCapped(localPath)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", ErrNotText
	}

	l.logger.Debug("document loaded",
		zap.String("ref", ref),
		zap.Int("bytes", len(data)),
	)

	text := string(data)
	if ext == ".md" || ext == ".markdown" {
		text = mdtext.PlainText(text)
	}
	return strings.TrimSpace(text), nil
}

// fetch returns a readable local path and the document's extension.
func (l *Loader) fetch(ctx context.Context, index int, ref, workDir string) (string, string, error) {
	switch {
	case strings.HasPrefix(ref, "s3://"):
		bucket, key, err := objectstore.ParseRef(ref)
		if err != nil {
			return "", "", err
		}
		if l.objects == nil {
			return "", "", ErrNoObjectStore
		}
		body, err := l.objects.Open(ctx, bucket, key)
		if err != nil {
			return "", "", err
		}
		defer body.Close()
		ext := strings.ToLower(path.Ext(key))
		dst, err := l.save(body, workDir, index, path.Base(key))
		return dst, ext, err

	case strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://"):
		return l.download(ctx, index, ref, workDir)

	default:
		p, err := l.resolveLocal(strings.TrimPrefix(ref, "file://"))
		if err != nil {
			return "", "", err
		}
		return p, strings.ToLower(filepath.Ext(p)), nil
	}
}

// resolveLocal maps a local reference into the documents root. Relative
// references are taken from the root; symlinks may not lead out of it.
func (l *Loader) resolveLocal(ref string) (string, error) {
	if l.root == "" {
		return "", ErrOutsideRoot
	}
	root, err := filepath.EvalSymlinks(l.root)
	if err != nil {
		return "", fmt.Errorf("documents root: %w", err)
	}
	target := ref
	if !filepath.IsAbs(target) {
		target = filepath.Join(l.root, target)
	}
	target = filepath.Clean(target)
	if !within(l.root, target) && !within(root, target) {
		return "", ErrOutsideRoot
	}
	resolved, err := filepath.EvalSymlinks(target)
	if err != nil {
		return "", err
	}
	if !within(root, resolved) {
		return "", ErrOutsideRoot
	}
	return resolved, nil
}

func within(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

func (l *Loader) checkHost(u *neturl.URL) error {
	if !l.allowRemote {
		return ErrRemoteDisabled
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q", ErrHostNotAllowed, u.Scheme)
	}
	if l.hosts != nil && !l.hosts[strings.ToLower(u.Hostname())] {
		return fmt.Errorf("%w: %q", ErrHostNotAllowed, u.Hostname())
	}
	return nil
}

func (l *Loader) download(ctx context.Context, index int, ref, workDir string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return "", "", err
	}
	if err := l.checkHost(req.URL); err != nil {
		return "", "", err
	}
	resp, err := l.http.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", "", fmt.Errorf("download failed: status=%d", resp.StatusCode)
	}

	name := "document"
	ext := ""
	if parsed, err := neturl.Parse(ref); err == nil {
		if base := path.Base(parsed.Path); base != "/" && base != "." {
			name = base
		}
		ext = strings.ToLower(path.Ext(parsed.Path))
	}
	if ext == "" {
		if mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err == nil {
			ext = mimeExtensions[mediaType]
		}
	}

	dst, err := l.save(resp.Body, workDir, index, name)
	return dst, ext, err
}

// save copies at most maxBytes+1 bytes into workDir so oversize input is detectable.
func (l *Loader) save(r io.Reader, workDir string, index int, name string) (string, error) {
	if workDir == "" {
		return "", errors.New("remote documents need a work directory")
	}
	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == os.PathSeparator {
			return '_'
		}
		return r
	}, name)
	dst := filepath.Join(workDir, fmt.Sprintf("%02d-%s", index, name))

	f, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if l.maxBytes > 0 {
		r = io.LimitReader(r, l.maxBytes+1)
	}
	if _, err := io.Copy(f, r); err != nil {
		return "", err
	}
	return dst, nil
}

func (l *Loader) readCapped(p string) ([]byte, error) {
	if l.maxBytes > 0 {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if info.Size() > l.maxBytes {
			return nil, fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, info.Size(), l.maxBytes)
		}
	}
	return os.ReadFile(p)
}
