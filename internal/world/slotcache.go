package world

import (
	"bytes"
	"sync"
	"unicode/utf8"

	"github.com/standardbeagle/notegraphd/internal/compiler"
	"github.com/standardbeagle/notegraphd/internal/fsid"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// slotCell is one lazily-populated, fingerprinted cache cell (§4.1). T is
// either *compiler.Source or []byte — the two independent values a FileSlot
// holds.
type slotCell[T any] struct {
	accessed bool
	hasFP    bool
	fp       fsid.Fingerprint
	hasValue bool
	value    T
	err      *compiler.FileError
}

func (c *slotCell[T]) reset() {
	c.accessed = false
}

// FileSlot is the per-FileID cache entry described in §4.1: created on first
// read, retained for the process lifetime, reset only clears the
// this-build liveness flag.
type FileSlot struct {
	mu     sync.Mutex
	source slotCell[*compiler.Source]
	bytes  slotCell[[]byte]
}

// SlotCache is the process-lifetime cache of parsed sources and raw bytes
// keyed by FileID (C2). It is protected by one mutex guarding slot
// creation; each slot then has its own mutex so concurrent reads of
// different files never contend with each other, matching the "critical
// sections bounded to one cell's read-or-initialize" requirement.
type SlotCache struct {
	mu    sync.Mutex
	slots map[fsid.FileID]*FileSlot
}

// NewSlotCache returns an empty SlotCache.
func NewSlotCache() *SlotCache {
	return &SlotCache{slots: make(map[fsid.FileID]*FileSlot)}
}

func (c *SlotCache) slotFor(id fsid.FileID) *FileSlot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.slots[id]
	if !ok {
		s = &FileSlot{}
		c.slots[id] = s
	}
	return s
}

// Reset clears the accessed flag on both cells of id's slot, if it exists.
// It never discards cached contents or fingerprints (§4.1): this is how the
// coordinator invalidates per-build liveness while preserving fingerprint
// reuse across builds.
func (c *SlotCache) Reset(id fsid.FileID) {
	c.mu.Lock()
	s, ok := c.slots[id]
	c.mu.Unlock()
	if !ok {
		return
	}
	s.mu.Lock()
	s.source.reset()
	s.bytes.reset()
	s.mu.Unlock()
}

// Source returns the parsed source for id, reading raw bytes via readRaw
// only when this build hasn't already accessed it, and decoding them only
// when the content fingerprint has changed. readRaw is expected to return a *compiler.
// FileError on failure so the classification survives into the slot.
func (c *SlotCache) Source(id fsid.FileID, readRaw func() ([]byte, error)) (*compiler.Source, error) {
	slot := c.slotFor(id)
	slot.mu.Lock()
	defer slot.mu.Unlock()

	if slot.source.accessed {
		if slot.source.err != nil {
			return nil, slot.source.err
		}
		return slot.source.value, nil
	}
	slot.source.accessed = true

	raw, err := readRaw()
	if err != nil {
		ferr := asFileError(id, err)
		slot.source.err = ferr
		slot.source.hasValue = false
		return nil, ferr
	}

	fp := fingerprint(raw)
	if slot.source.hasFP && slot.source.fp == fp && slot.source.hasValue {
		slot.source.err = nil
		return slot.source.value, nil
	}

	text, ok := decodeUTF8(raw)
	if !ok {
		ferr := &compiler.FileError{Kind: compiler.FileErrorUTF8, Path: id.String()}
		slot.source.fp = fp
		slot.source.hasFP = true
		slot.source.err = ferr
		slot.source.hasValue = false
		return nil, ferr
	}

	if slot.source.hasValue {
		slot.source.value.Replace(text)
	} else {
		slot.source.value = &compiler.Source{ID: id, Text: text}
		slot.source.hasValue = true
	}
	slot.source.fp = fp
	slot.source.hasFP = true
	slot.source.err = nil

	return slot.source.value, nil
}

// File returns the raw bytes for id with the same accessed/fingerprint
// gating as Source, but without any decoding step.
func (c *SlotCache) File(id fsid.FileID, readRaw func() ([]byte, error)) ([]byte, error) {
	slot := c.slotFor(id)
	slot.mu.Lock()
	defer slot.mu.Unlock()

	if slot.bytes.accessed {
		if slot.bytes.err != nil {
			return nil, slot.bytes.err
		}
		return slot.bytes.value, nil
	}
	slot.bytes.accessed = true

	raw, err := readRaw()
	if err != nil {
		ferr := asFileError(id, err)
		slot.bytes.err = ferr
		slot.bytes.hasValue = false
		return nil, ferr
	}

	fp := fingerprint(raw)
	if slot.bytes.hasFP && slot.bytes.fp == fp && slot.bytes.hasValue {
		slot.bytes.err = nil
		return slot.bytes.value, nil
	}

	slot.bytes.value = raw
	slot.bytes.hasValue = true
	slot.bytes.fp = fp
	slot.bytes.hasFP = true
	slot.bytes.err = nil

	return raw, nil
}

func asFileError(id fsid.FileID, err error) *compiler.FileError {
	if ferr, ok := err.(*compiler.FileError); ok {
		return ferr
	}
	return &compiler.FileError{Kind: compiler.FileErrorNotFound, Path: id.String(), Err: err}
}

// decodeUTF8 strips a leading UTF-8 BOM and validates the remainder is
// well-formed UTF-8 (§4.1 step 4).
func decodeUTF8(raw []byte) (string, bool) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if !utf8.Valid(raw) {
		return "", false
	}
	return string(raw), true
}
