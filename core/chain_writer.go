package core

// ChainWriter serializes appends to each genesis chain through a fixed pool
// of partitioned writer goroutines. Routing is by hash(genesis) mod
// P so that appends to the same chain are totally ordered while different
// chains progress in parallel.

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

const defaultWriterPoolSize = 20

// ChainWriterConfig configures a ChainWriter.
type ChainWriterConfig struct {
	DBPath      string
	PoolSize    int // default 20
}

func (c ChainWriterConfig) withDefaults() ChainWriterConfig {
	if c.PoolSize <= 0 {
		c.PoolSize = defaultWriterPoolSize
	}
	return c
}

type appendJob struct {
	genesis Address
	tx      *Transaction
	resultC chan error
}

// ChainWriter owns one chain file handle per genesis (opened lazily) and a
// pool of partitioned writer goroutines.
type ChainWriter struct {
	cfg    ChainWriterConfig
	logger *logrus.Logger
	index  *ChainIndex

	mailboxes []chan appendJob
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeC    chan struct{}

	filesMu sync.Mutex
	files   map[string]*os.File // genesis hex -> chain file handle, owned by its partition
}

// NewChainWriter starts the writer pool. Each partition owns its mailbox
// channel and the chain file handles it is responsible for; no other
// goroutine touches those handles, which is what lets appends to one
// genesis stay monotonic without a file lock.
func NewChainWriter(cfg ChainWriterConfig, index *ChainIndex, logger *logrus.Logger) (*ChainWriter, error) {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = logrus.New()
	}
	if err := os.MkdirAll(filepath.Join(cfg.DBPath, "chains"), 0o755); err != nil {
		return nil, fmt.Errorf("chain writer: mkdir chains dir: %w", err)
	}

	cw := &ChainWriter{
		cfg:       cfg,
		logger:    logger,
		index:     index,
		mailboxes: make([]chan appendJob, cfg.PoolSize),
		closeC:    make(chan struct{}),
		files:     make(map[string]*os.File),
	}
	for i := 0; i < cfg.PoolSize; i++ {
		cw.mailboxes[i] = make(chan appendJob, 64)
		cw.wg.Add(1)
		go cw.runPartition(i)
	}
	return cw, nil
}

func (cw *ChainWriter) partitionFor(genesis Address) int {
	sum := sha256.Sum256(genesis)
	h := binary.BigEndian.Uint64(sum[:8])
	return int(h % uint64(len(cw.mailboxes)))
}

func (cw *ChainWriter) chainFilePath(genesis Address) string {
	return filepath.Join(cw.cfg.DBPath, "chains", genesis.Hex())
}

// ChainFilePath exposes the on-disk path of genesis's chain file, used by
// tests and the self-repair collaborator to replay it directly.
func (cw *ChainWriter) ChainFilePath(genesis Address) string {
	return cw.chainFilePath(genesis)
}

func (cw *ChainWriter) fileFor(genesis Address) (*os.File, error) {
	cw.filesMu.Lock()
	defer cw.filesMu.Unlock()
	key := genesis.Hex()
	if f, ok := cw.files[key]; ok {
		return f, nil
	}
	f, err := os.OpenFile(cw.chainFilePath(genesis), os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	cw.files[key] = f
	return f, nil
}

func (cw *ChainWriter) runPartition(id int) {
	defer cw.wg.Done()
	mailbox := cw.mailboxes[id]
	for {
		select {
		case job, ok := <-mailbox:
			if !ok {
				return
			}
			job.resultC <- cw.handleAppend(job.genesis, job.tx)
		case <-cw.closeC:
			return
		}
	}
}

func (cw *ChainWriter) handleAppend(genesis Address, tx *Transaction) error {
	f, err := cw.fileFor(genesis)
	if err != nil {
		return fmt.Errorf("chain writer: open chain file: %w", err)
	}

	encoded := EncodeTransaction(tx)
	record := EncodeChainRecord(encoded)

	n, err := f.Write(record)
	if err != nil {
		return fmt.Errorf("chain writer: append transaction: %w", err)
	}
	_ = n

	if err := cw.index.AddTx(tx.Address, genesis, uint32(len(record))); err != nil {
		return fmt.Errorf("chain writer: index update: %w", err)
	}
	if err := cw.index.RecordType(tx.Type, tx.Address); err != nil {
		return fmt.Errorf("chain writer: type index update: %w", err)
	}
	return nil
}

// Append serializes tx and appends it to genesis's chain file via the
// partition that owns genesis, then updates ChainIndex. It blocks until
// the append (and index update) completes, and returns an error without
// queuing the job if the writer is closed first.
func (cw *ChainWriter) Append(genesis Address, tx *Transaction) error {
	p := cw.partitionFor(genesis)
	job := appendJob{genesis: genesis, tx: tx, resultC: make(chan error, 1)}
	select {
	case cw.mailboxes[p] <- job:
	case <-cw.closeC:
		return fmt.Errorf("chain writer: closed")
	}
	return <-job.resultC
}

// WriteBeaconSummary writes a beacon summary file for summaryAddress using
// an exclusive-create open, so re-writing the same summary address is an
// error. Summaries are written once per summary_time x subset.
func (cw *ChainWriter) WriteBeaconSummary(summaryAddress Address, data []byte) error {
	path := filepath.Join(cw.cfg.DBPath, "beacon_summary", summaryAddress.Hex())
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return ErrSummaryExists
		}
		return fmt.Errorf("chain writer: create beacon summary: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("chain writer: write beacon summary: %w", err)
	}
	return nil
}

// Close stops all writer goroutines and closes every open chain file.
func (cw *ChainWriter) Close() error {
	cw.closeOnce.Do(func() { close(cw.closeC) })
	cw.wg.Wait()

	cw.filesMu.Lock()
	defer cw.filesMu.Unlock()
	var firstErr error
	for _, f := range cw.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
