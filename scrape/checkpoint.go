package scrape

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/Arifmaulanaazis/BioChem/pkg/errors"
)

// checkpointEntry is the durable record for one identifier.  Only the
// minimum needed to resume is stored: the status, the server-side handle
// for in-flight jobs, and the finished row for completed ones.
type checkpointEntry struct {
	Identifier  string `json:"identifier"`
	Status      Status `json:"status"`
	RemoteJobID string `json:"remote_job_id,omitempty"`
	Row         Row    `json:"row,omitempty"`
}

// Checkpoint is the auto-resume state for one batch.  A batch is identified
// by the digest of its service name and identifier list, so re-running the
// same input finds its checkpoint and a different input starts fresh.
type Checkpoint struct {
	Service   string                     `json:"service"`
	Digest    string                     `json:"digest"`
	CreatedAt time.Time                  `json:"created_at"`
	UpdatedAt time.Time                  `json:"updated_at"`
	Entries   map[string]checkpointEntry `json:"entries"`

	mu   sync.Mutex
	path string
}

// BatchDigest derives the stable identity of a batch from the service name
// and the identifier list.  Order matters: the same identifiers submitted
// in a different order are a different batch, because row order is part of
// the result contract.
func BatchDigest(service string, identifiers []string) string {
	h := sha256.New()
	h.Write([]byte(service))
	for _, id := range identifiers {
		h.Write([]byte{0})
		h.Write([]byte(id))
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func checkpointPath(dir, service, digest string) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.json", service, digest))
}

// LoadCheckpoint returns the checkpoint for a batch, reading an existing
// file when one matches and starting fresh otherwise.  The directory is
// created on demand.
func LoadCheckpoint(dir, service string, identifiers []string) (*Checkpoint, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.CodeIO, "failed to create resume directory").WithDetail(dir)
	}
	digest := BatchDigest(service, identifiers)
	path := checkpointPath(dir, service, digest)

	cp := &Checkpoint{
		Service:   service,
		Digest:    digest,
		CreatedAt: time.Now(),
		Entries:   make(map[string]checkpointEntry),
		path:      path,
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cp, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeIO, "failed to read checkpoint").WithDetail(path)
	}
	if err := json.Unmarshal(data, cp); err != nil {
		// A corrupt checkpoint must not poison the batch; start over.
		cp.Entries = make(map[string]checkpointEntry)
		return cp, nil
	}
	if cp.Entries == nil {
		cp.Entries = make(map[string]checkpointEntry)
	}
	cp.path = path
	return cp, nil
}

// CompletedRow returns the stored result row for an identifier, if the
// checkpoint recorded it as complete.
func (c *Checkpoint) CompletedRow(identifier string) (Row, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.Entries[identifier]
	if !ok || e.Status != StatusComplete {
		return nil, false
	}
	return e.Row, true
}

// RemoteJobID returns the stored server-side handle for an identifier.
func (c *Checkpoint) RemoteJobID(identifier string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Entries[identifier].RemoteJobID
}

// MarkStatus records a non-terminal state transition.
func (c *Checkpoint) MarkStatus(identifier string, status Status, remoteJobID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.Entries[identifier]
	e.Identifier = identifier
	e.Status = status
	if remoteJobID != "" {
		e.RemoteJobID = remoteJobID
	}
	c.Entries[identifier] = e
}

// MarkComplete records the finished row for an identifier.
func (c *Checkpoint) MarkComplete(identifier string, row Row) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Entries[identifier] = checkpointEntry{
		Identifier: identifier,
		Status:     StatusComplete,
		Row:        row,
	}
}

// CompletedCount returns how many identifiers have a stored result.
func (c *Checkpoint) CompletedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.Entries {
		if e.Status == StatusComplete {
			n++
		}
	}
	return n
}

// Save writes the checkpoint atomically (temp file plus rename) so a crash
// mid-write leaves the previous version intact.
func (c *Checkpoint) Save() error {
	c.mu.Lock()
	c.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(c, "", "  ")
	path := c.path
	c.mu.Unlock()
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to encode checkpoint")
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(err, errors.CodeIO, "failed to write checkpoint").WithDetail(tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrap(err, errors.CodeIO, "failed to replace checkpoint").WithDetail(path)
	}
	return nil
}

// Discard removes the checkpoint file, called once a batch fully
// completes.
func (c *Checkpoint) Discard() error {
	c.mu.Lock()
	path := c.path
	c.mu.Unlock()
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, errors.CodeIO, "failed to remove checkpoint").WithDetail(path)
	}
	return nil
}

// ListCheckpoints returns the checkpoint files present in dir, sorted by
// name, for CLI inspection.
func ListCheckpoints(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeIO, "failed to list resume directory").WithDetail(dir)
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}
