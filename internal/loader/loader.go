// Package loader reads the fixed set of corpus documents at startup.
package loader

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"devcoach/internal/domain"
)

// extractor turns the raw bytes of one document into plain text.
type extractor func(data []byte) (string, error)

var extractors = map[string]extractor{
	".txt":      extractText,
	".text":     extractText,
	".md":       extractMarkdown,
	".markdown": extractMarkdown,
	".pdf":      extractPDF,
}

// Supported reports whether the loader can read a source with this name.
func Supported(name string) bool {
	_, ok := extractors[strings.ToLower(filepath.Ext(name))]
	return ok
}

type Loader struct {
	objects ObjectGetter
}

type Option func(*Loader)

// WithObjectGetter enables s3:// sources.
func WithObjectGetter(g ObjectGetter) Option {
	return func(l *Loader) { l.objects = g }
}

func New(opts ...Option) *Loader {
	l := &Loader{}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads every source in order. A source is a file path, a glob pattern
// or an s3://bucket/key URL. Any failure aborts the whole load.
func (l *Loader) Load(ctx context.Context, sources []string) ([]domain.Document, error) {
	logger := logutil.GetLogger(ctx)
	seen := make(map[string]struct{})
	var documents []domain.Document
	for _, src := range sources {
		names, err := l.expand(src)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			content, err := l.read(ctx, name)
			if err != nil {
				return nil, fmt.Errorf("load %s: %w", name, err)
			}
			documents = append(documents, domain.Document{ID: hashString(name), Path: name, Content: content})
			logger.Debug("document loaded", zap.String("source", name), zap.Int("chars", len([]rune(content))))
		}
	}
	return documents, nil
}

func (l *Loader) expand(src string) ([]string, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, fmt.Errorf("%w: empty document source", domain.ErrInvalidArgument)
	}
	if isS3(src) || !hasMeta(src) {
		if !Supported(src) {
			return nil, fmt.Errorf("%w: unsupported document type %q", domain.ErrInvalidArgument, src)
		}
		return []string{src}, nil
	}
	matches, err := filepath.Glob(src)
	if err != nil {
		return nil, fmt.Errorf("%w: bad pattern %q: %w", domain.ErrInvalidArgument, src, err)
	}
	sort.Strings(matches)
	out := matches[:0]
	for _, m := range matches {
		if Supported(m) {
			out = append(out, m)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("pattern %q matched no supported documents", src)
	}
	return out, nil
}

func (l *Loader) read(ctx context.Context, name string) (string, error) {
	var (
		data []byte
		err  error
	)
	if isS3(name) {
		data, err = l.fetchObject(ctx, name)
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return "", err
	}
	return extractors[strings.ToLower(filepath.Ext(name))](data)
}

func hasMeta(p string) bool {
	return strings.ContainsAny(p, `*?[`)
}

func hashString(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:8])
}
