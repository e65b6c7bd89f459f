package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"

	"github.com/l3aro/go-jsflow/pkg/dce"
)

// ReportsFile is the file name of the report cache inside the cache directory.
const ReportsFile = "reports.msgpack"

// ReportStore caches elimination reports on disk.
type ReportStore struct {
	*LRU[dce.Report]
	path string
}

// OpenReportStore loads the report cache kept in dir. maxSize bounds the
// number of entries; 0 means unlimited.
func OpenReportStore(dir string, maxSize int) (*ReportStore, error) {
	s := &ReportStore{
		LRU:  New[dce.Report](Options{MaxSize: maxSize}),
		path: filepath.Join(dir, ReportsFile),
	}
	if err := s.LoadFile(s.path); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file.
func (s *ReportStore) Path() string { return s.path }

// Flush persists the cache.
func (s *ReportStore) Flush() error {
	return s.SaveFile(s.path)
}

// Key derives a cache key from source content and the options that
// influence the result, so a change to either misses.
func Key(src []byte, options ...interface{}) string {
	h := sha256.New()
	for _, o := range options {
		fmt.Fprintf(h, "%v\x00", o)
	}
	h.Write(src)
	return hex.EncodeToString(h.Sum(nil))
}
