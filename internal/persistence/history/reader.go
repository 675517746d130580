package history

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/klauspost/compress/zstd"
)

var tickFileRe = regexp.MustCompile(`^tick_(\d+)\.json\.zst$`)

// Reader loads one client's tick records back from a history directory.
// TickRate is the expected spacing between consecutive record ticks; gaps
// are logged but do not abort the load.
type Reader struct {
	log      *log.Logger
	tickRate int64
}

func NewReader(tickRate int64, logger *log.Logger) *Reader {
	if logger == nil {
		logger = log.Default()
	}
	if tickRate <= 0 {
		tickRate = 50
	}
	return &Reader{log: logger, tickRate: tickRate}
}

// ReadDir returns the directory's tick records in ascending tick order.
// Unreadable records are skipped with a warning; a missing directory is an
// error.
func (r *Reader) ReadDir(dir string) ([]TickRecord, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	type tickFile struct {
		tick int64
		name string
	}
	var files []tickFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := tickFileRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		tick, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}
		files = append(files, tickFile{tick: tick, name: e.Name()})
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%s: no tick records", dir)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].tick < files[j].tick })

	var out []TickRecord
	prev := int64(-1)
	for _, tf := range files {
		if prev >= 0 && tf.tick != prev+r.tickRate {
			r.log.Printf("WARNING: ticks were skipped between %d and %d in %s", prev, tf.tick, dir)
		}
		prev = tf.tick

		rec, err := readRecord(filepath.Join(dir, tf.name))
		if err != nil {
			r.log.Printf("WARNING: skipping %s: %v", tf.name, err)
			continue
		}
		if rec.Tick == 0 {
			rec.Tick = tf.tick
		}
		out = append(out, rec)
	}
	return out, nil
}

func readRecord(path string) (TickRecord, error) {
	var rec TickRecord
	f, err := os.Open(path)
	if err != nil {
		return rec, err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return rec, err
	}
	defer dec.Close()
	if err := json.NewDecoder(dec).Decode(&rec); err != nil {
		return rec, err
	}
	return rec, nil
}
