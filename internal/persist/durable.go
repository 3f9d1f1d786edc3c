// Package persist implements the two-tier persistence strategy: a
// remote primary with a local durable fallback. Writes always land
// locally; the remote tier is best-effort and its failures are logged,
// never surfaced as failures of the triggering action.
package persist

import (
	"context"
	"fmt"
	"os"
)

// Slot names for the three persisted documents.
const (
	SlotStats    = "stats"
	SlotProgress = "progress"
	SlotSession  = "session"
)

// Remote is the primary tier. Implemented by *remote.Client.
type Remote interface {
	Fetch(ctx context.Context, resource string) ([]byte, error)
	Upsert(ctx context.Context, resource string, data []byte) error
}

// Local is the durable fallback tier. Implemented by *store.SlotRepo.
type Local interface {
	Read(ctx context.Context, name string) ([]byte, error)
	Write(ctx context.Context, name string, data []byte) error
	Delete(ctx context.Context, name string) error
}

// DurableStore coordinates the two tiers. The session cursor is a
// single-device concern and never leaves the local tier; stats and
// progress are mirrored to the remote store when one is configured.
type DurableStore struct {
	remote Remote // nil disables the remote tier
	local  Local
	warnf  func(format string, args ...any)
}

// New creates a DurableStore. remote may be nil for local-only operation.
func New(remote Remote, local Local) *DurableStore {
	return &DurableStore{
		remote: remote,
		local:  local,
		warnf: func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, "warning: "+format+"\n", args...)
		},
	}
}

// SetWarnf overrides the warning sink (used in tests).
func (d *DurableStore) SetWarnf(fn func(format string, args ...any)) {
	d.warnf = fn
}

func (d *DurableStore) remoteBacked(slot string) bool {
	return d.remote != nil && (slot == SlotStats || slot == SlotProgress)
}

// Load reads a slot, preferring the remote tier. A remote miss or
// failure falls through to the local tier; nil data means the slot has
// never been written anywhere.
func (d *DurableStore) Load(ctx context.Context, slot string) ([]byte, error) {
	if d.remoteBacked(slot) {
		data, err := d.remote.Fetch(ctx, slot)
		if err != nil {
			d.warnf("remote read of %s failed, using local copy: %v", slot, err)
		} else if data != nil {
			// Refresh the local mirror so a later offline start
			// resumes from the same state.
			if werr := d.local.Write(ctx, slot, data); werr != nil {
				d.warnf("mirror %s locally: %v", slot, werr)
			}
			return data, nil
		}
	}
	return d.local.Read(ctx, slot)
}

// Save writes a slot to the local tier and mirrors it to the remote
// tier. The local write is the durability guarantee; a remote failure
// is logged and the save still succeeds.
func (d *DurableStore) Save(ctx context.Context, slot string, data []byte) error {
	if err := d.local.Write(ctx, slot, data); err != nil {
		return fmt.Errorf("save %s: %w", slot, err)
	}
	if d.remoteBacked(slot) {
		if err := d.remote.Upsert(ctx, slot, data); err != nil {
			d.warnf("remote write of %s failed, local copy kept: %v", slot, err)
		}
	}
	return nil
}

// Clear deletes all three slots locally and best-effort resets the
// remote mirrors to empty documents.
func (d *DurableStore) Clear(ctx context.Context) error {
	for _, slot := range []string{SlotStats, SlotProgress, SlotSession} {
		if err := d.local.Delete(ctx, slot); err != nil {
			return fmt.Errorf("clear %s: %w", slot, err)
		}
		if d.remoteBacked(slot) {
			if err := d.remote.Upsert(ctx, slot, []byte(`{}`)); err != nil {
				d.warnf("remote reset of %s failed: %v", slot, err)
			}
		}
	}
	return nil
}

// Push uploads the local stats and progress documents to the remote
// tier. Used by the sync command; errors are returned, not swallowed,
// because the user asked for the sync explicitly.
func (d *DurableStore) Push(ctx context.Context) error {
	if d.remote == nil {
		return fmt.Errorf("no remote store configured")
	}
	for _, slot := range []string{SlotStats, SlotProgress} {
		data, err := d.local.Read(ctx, slot)
		if err != nil {
			return err
		}
		if data == nil {
			continue
		}
		if err := d.remote.Upsert(ctx, slot, data); err != nil {
			return err
		}
	}
	return nil
}

// Pull downloads the remote stats and progress documents into the
// local tier, overwriting local copies.
func (d *DurableStore) Pull(ctx context.Context) error {
	if d.remote == nil {
		return fmt.Errorf("no remote store configured")
	}
	for _, slot := range []string{SlotStats, SlotProgress} {
		data, err := d.remote.Fetch(ctx, slot)
		if err != nil {
			return err
		}
		if data == nil {
			continue
		}
		if err := d.local.Write(ctx, slot, data); err != nil {
			return err
		}
	}
	return nil
}
