package archive

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MetaSHA256 is the blob metadata key holding the source file digest.
const MetaSHA256 = "sha256"

// Archiver copies a definitions file into a Store and, when a ledger is
// attached, records the copy.
type Archiver struct {
	store  Store
	ledger *Ledger
	logger *zap.Logger
	now    func() time.Time
}

// NewArchiver wires an archiver. ledger and logger may be nil.
func NewArchiver(store Store, ledger *Ledger, logger *zap.Logger) *Archiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Archiver{store: store, ledger: ledger, logger: logger, now: time.Now}
}

// Archive stores the file at path under <runID>/<basename>.
func (a *Archiver) Archive(ctx context.Context, path string) (Entry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Entry{}, fmt.Errorf("read %s: %w", path, err)
	}
	digest := sha256Hex(raw)
	runID := uuid.NewString()
	key := runID + "/" + filepath.Base(path)

	info, err := a.store.Put(ctx, key, bytes.NewReader(raw), PutOptions{
		ContentType: "text/csv",
		Metadata:    map[string]string{MetaSHA256: digest, "source": filepath.Base(path)},
	})
	if err != nil {
		return Entry{}, fmt.Errorf("archive %s: %w", path, err)
	}

	entry := Entry{
		ID:         runID,
		Source:     path,
		Key:        info.Key,
		Driver:     a.store.Driver(),
		SHA256:     digest,
		Size:       int64(len(raw)),
		ArchivedAt: a.now().UTC(),
	}
	if a.ledger != nil {
		if err := a.ledger.Record(ctx, entry); err != nil {
			return entry, err
		}
	}
	a.logger.Info("definitions archived",
		zap.String("key", entry.Key),
		zap.String("driver", string(entry.Driver)),
		zap.String("sha256", digest),
		zap.Int64("size", entry.Size),
	)
	return entry, nil
}

// Entries lists archived copies, oldest first. The ledger is authoritative
// when attached; otherwise entries are rebuilt from the store listing.
func (a *Archiver) Entries(ctx context.Context) ([]Entry, error) {
	if a.ledger != nil {
		return a.ledger.List(ctx)
	}
	infos, err := a.store.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list archive: %w", err)
	}
	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		id, _, _ := strings.Cut(info.Key, "/")
		entries = append(entries, Entry{
			ID:         id,
			Source:     info.Metadata["source"],
			Key:        info.Key,
			Driver:     a.store.Driver(),
			SHA256:     info.Metadata[MetaSHA256],
			Size:       info.Size,
			ArchivedAt: info.LastModified.UTC(),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].ArchivedAt.Before(entries[j].ArchivedAt) })
	return entries, nil
}

// Verification compares an archived copy against its recorded digest and
// against a file on disk.
type Verification struct {
	Key      string `json:"key"`
	Recorded string `json:"recorded_sha256"`
	Stored   string `json:"stored_sha256"`
	Source   string `json:"source_sha256"`
}

// Intact reports whether the stored bytes still match the recorded digest.
func (v Verification) Intact() bool { return v.Recorded != "" && v.Recorded == v.Stored }

// MatchesSource reports whether the copy is of the file that was compared.
func (v Verification) MatchesSource() bool { return v.Intact() && v.Recorded == v.Source }

// Verify reads the blob at key, hashes it and compares the result with its
// sha256 metadata and with the file at path.
func (a *Archiver) Verify(ctx context.Context, key, path string) (Verification, error) {
	head, err := a.store.Head(ctx, key)
	if err != nil {
		return Verification{}, err
	}
	v := Verification{Key: key, Recorded: head.Metadata[MetaSHA256]}
	if v.Recorded == "" {
		return v, fmt.Errorf("archived %s has no %s metadata", key, MetaSHA256)
	}

	_, rc, err := a.store.Get(ctx, key)
	if err != nil {
		return v, err
	}
	defer func() { _ = rc.Close() }()
	h := sha256.New()
	if _, err := io.Copy(h, rc); err != nil {
		return v, fmt.Errorf("read archived %s: %w", key, err)
	}
	v.Stored = hex.EncodeToString(h.Sum(nil))

	raw, err := os.ReadFile(path)
	if err != nil {
		return v, fmt.Errorf("read %s: %w", path, err)
	}
	v.Source = sha256Hex(raw)
	return v, nil
}
