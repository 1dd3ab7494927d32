package recovery

import (
	"os"

	"github.com/edsrzf/mmap-go"

	"github.com/valori-dev/valori/pkg/commit"
	"github.com/valori-dev/valori/pkg/kernel"
	"github.com/valori-dev/valori/pkg/walog"
)

// Load reconstructs a Kernel from dataDir's latest snapshot plus any log
// frames appended since (spec.md §4.11): snapshot + log replay, failing
// closed on any corruption rather than returning a partially-recovered
// kernel. bootstrap is used verbatim only when dataDir has no snapshot
// yet (first run).
func Load(dataDir string, bootstrap kernel.Config) (*kernel.Kernel, error) {
	k, err := loadSnapshot(dataDir, bootstrap)
	if err != nil {
		return nil, err
	}

	if err := replayLog(dataDir, k); err != nil {
		return nil, err
	}

	return k, nil
}

func loadSnapshot(dataDir string, bootstrap kernel.Config) (*kernel.Kernel, error) {
	path := snapshotPath(dataDir)

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return kernel.New(bootstrap)
	}

	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	if info.Size() == 0 {
		return kernel.New(bootstrap)
	}

	// mmap gives zero-copy read access to the snapshot image: DecodeSnapshot
	// only needs to scan it once, sequentially, so there is no benefit to
	// copying it into a heap buffer first.
	region, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer region.Unmap()

	return kernel.DecodeSnapshot(region)
}

func replayLog(dataDir string, k *kernel.Kernel) error {
	path := logPath(dataDir)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return initLog(path, k)
	}

	if err != nil {
		return err
	}

	if len(data) == 0 {
		return nil
	}

	reader, err := walog.OpenBytes(data)
	if err != nil {
		return err
	}

	frames, err := reader.ReadAll()
	if err != nil {
		return err
	}

	for _, frame := range frames {
		cmds, err := commit.DecodeBatch(frame)
		if err != nil {
			return err
		}

		if _, err := k.ApplyBatch(cmds); err != nil {
			return err
		}
	}

	return nil
}

// initLog creates an empty log file with a header matching k, for a
// brand-new data directory.
func initLog(path string, k *kernel.Kernel) error {
	header := walog.Header{Encoding: walog.EncodingCommands, Dim: uint32(k.Config().Dim), ChecksumLen: walog.DefaultChecksumLen}

	w, err := walog.Create(path, header)
	if err != nil {
		return err
	}

	return w.Close()
}
