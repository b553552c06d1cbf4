package scan

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/newthinker/scout/internal/core"
	"github.com/newthinker/scout/internal/storage"
)

// Latest is the pseudo-name that resolves to the newest scan file.
const Latest = "latest"

// Locator finds, loads, and saves scan documents in a store.
type Locator struct {
	store storage.Store
}

// NewLocator creates a Locator over the given scans store.
func NewLocator(store storage.Store) *Locator {
	return &Locator{store: store}
}

// Resolve maps a scan reference to a concrete path. "latest" picks the
// newest scan_*.json by name; timestamped filenames sort
// chronologically, so lexicographic order is enough.
func (l *Locator) Resolve(ctx context.Context, ref string) (string, error) {
	if ref != Latest {
		return ref, nil
	}

	paths, err := l.store.List(ctx, "")
	if err != nil {
		return "", core.WrapError(core.ErrDocumentInvalid,
			fmt.Errorf("listing scans: %w", err))
	}

	var scans []string
	for _, p := range paths {
		name := path.Base(p)
		if strings.HasPrefix(name, "scan_") && strings.HasSuffix(name, ".json") {
			scans = append(scans, p)
		}
	}
	if len(scans) == 0 {
		return "", core.WrapError(core.ErrDocumentInvalid,
			fmt.Errorf("no scan files found"))
	}

	sort.Sort(sort.Reverse(sort.StringSlice(scans)))
	return scans[0], nil
}

// Load reads and parses the scan document at the given path.
func (l *Locator) Load(ctx context.Context, docPath string) (*Document, error) {
	raw, err := l.store.Read(ctx, docPath)
	if err != nil {
		return nil, core.WrapError(core.ErrDocumentInvalid,
			fmt.Errorf("reading %s: %w", docPath, err))
	}
	return Load(raw)
}

// Save writes the document back. The store's atomic write keeps a
// partially-written document from ever replacing a good one.
func (l *Locator) Save(ctx context.Context, docPath string, doc *Document) error {
	raw, err := doc.Marshal()
	if err != nil {
		return core.WrapError(core.ErrDocumentInvalid, err)
	}
	return l.store.Write(ctx, docPath, raw)
}
