package book

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// collector gathers the records of one shard, spilling them to a temporary
// file when the build runs over its memory budget.
type collector struct {
	shardID  int
	records  [][]byte
	memBytes int64
	spillDir string
	spilled  string
	nSpilled int
}

// recordOverhead approximates the slice header cost of a held record.
const recordOverhead = 24

func (c *collector) add(record []byte) int64 {
	c.records = append(c.records, record)
	n := int64(len(record) + recordOverhead)
	c.memBytes += n
	return n
}

func (c *collector) count() int {
	return len(c.records) + c.nSpilled
}

// spill appends the in-memory records to the shard's temp file as
// length-prefixed frames and frees them.
func (c *collector) spill() error {
	if len(c.records) == 0 {
		return nil
	}
	path := filepath.Join(c.spillDir, fmt.Sprintf("shard_%05d.tmp", c.shardID))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening spill file: %w", err)
	}
	w := bufio.NewWriter(f)
	var hdr [4]byte
	for _, r := range c.records {
		binary.BigEndian.PutUint32(hdr[:], uint32(len(r)))
		if _, err := w.Write(hdr[:]); err != nil {
			f.Close()
			return fmt.Errorf("writing spill file: %w", err)
		}
		if _, err := w.Write(r); err != nil {
			f.Close()
			return fmt.Errorf("writing spill file: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("writing spill file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing spill file: %w", err)
	}

	c.spilled = path
	c.nSpilled += len(c.records)
	c.records = nil
	c.memBytes = 0
	return nil
}

// all returns spilled and in-memory records together.
func (c *collector) all() ([][]byte, error) {
	out := make([][]byte, 0, c.count())
	if c.spilled != "" {
		f, err := os.Open(c.spilled)
		if err != nil {
			return nil, fmt.Errorf("opening spill file: %w", err)
		}
		defer f.Close()

		r := bufio.NewReader(f)
		var hdr [4]byte
		for {
			if _, err := io.ReadFull(r, hdr[:]); err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				return nil, fmt.Errorf("reading spill file: %w", err)
			}
			rec := make([]byte, binary.BigEndian.Uint32(hdr[:]))
			if _, err := io.ReadFull(r, rec); err != nil {
				return nil, fmt.Errorf("reading spill file: %w", err)
			}
			out = append(out, rec)
		}
	}
	return append(out, c.records...), nil
}

// budget tracks memory held across all collectors. It is only used from
// the goroutine distributing records.
type budget struct {
	used       int64
	max        int64
	collectors []*collector
}

// charge records n more bytes and spills the largest collectors until the
// total is back under the limit.
func (b *budget) charge(n int64) error {
	b.used += n
	for b.used > b.max {
		var largest *collector
		for _, c := range b.collectors {
			if len(c.records) > 0 && (largest == nil || c.memBytes > largest.memBytes) {
				largest = c
			}
		}
		if largest == nil {
			return nil
		}
		freed := largest.memBytes
		if err := largest.spill(); err != nil {
			return err
		}
		b.used -= freed
	}
	return nil
}
