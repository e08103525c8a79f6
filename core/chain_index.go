package core

// ChainIndex maintains the in-memory lookup tables and on-disk subset,
// chain-addresses, chain-keys, and per-type index files.
// It is the sole writer of those files; ChainWriter calls back into
// it via AddTx once a transaction's bytes are durably appended to its chain
// file.

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

const defaultSubsetCount = 256

// ChainIndexConfig configures a ChainIndex instance.
type ChainIndexConfig struct {
	DBPath      string
	SubsetCount int     // default 256
	BloomFPP    float64 // default 0.001
}

func (c ChainIndexConfig) withDefaults() ChainIndexConfig {
	if c.SubsetCount <= 0 {
		c.SubsetCount = defaultSubsetCount
	}
	if c.BloomFPP <= 0 {
		c.BloomFPP = bloomTargetFPP
	}
	return c
}

// TxIndexEntry is the in-memory record kept per known transaction address.
type TxIndexEntry struct {
	GenesisAddress Address
	Size           uint32
	Offset         uint32
}

// ChainStats aggregates a genesis chain's on-disk footprint.
type ChainStats struct {
	TotalSize uint64
	TxCount   uint64
}

// ChainIndex is safe for concurrent use; writes are serialized per-subset
// (bloom + subset file) and the in-memory maps are protected by a single
// RWMutex, so bloom filter updates are sequenced by subset.
type ChainIndex struct {
	cfg    ChainIndexConfig
	logger *logrus.Logger

	mu         sync.RWMutex
	txIndex    map[string]TxIndexEntry
	chainStats map[string]*ChainStats
	lastIndex  map[string]Address
	typeStats  map[TransactionType]uint64

	keyGenesis   map[string]string       // pubkey bytes -> owning genesis (hex)
	firstPubKey  map[string]PublicKey    // genesis (hex) -> first public key seen

	subsetMu    [defaultSubsetCount]sync.Mutex
	subsetFiles [defaultSubsetCount]*os.File
	bloom       [defaultSubsetCount]*BloomFilter

	filesMu      sync.Mutex
	addressFiles map[string]*os.File
	keyFiles     map[string]*os.File
	typeFiles    map[TransactionType]*os.File
}

// NewChainIndex opens (creating if absent) the on-disk subset index files
// and replays them to rebuild the in-memory tables, following the startup
// recovery procedure.
func NewChainIndex(cfg ChainIndexConfig, logger *logrus.Logger) (*ChainIndex, error) {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = logrus.New()
	}
	if err := os.MkdirAll(cfg.DBPath, 0o755); err != nil {
		return nil, fmt.Errorf("chain index: mkdir db path: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(cfg.DBPath, "chains"), 0o755); err != nil {
		return nil, fmt.Errorf("chain index: mkdir chains dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(cfg.DBPath, "beacon_summary"), 0o755); err != nil {
		return nil, fmt.Errorf("chain index: mkdir beacon_summary dir: %w", err)
	}

	ci := &ChainIndex{
		cfg:          cfg,
		logger:       logger,
		txIndex:      make(map[string]TxIndexEntry),
		chainStats:   make(map[string]*ChainStats),
		lastIndex:    make(map[string]Address),
		typeStats:    make(map[TransactionType]uint64),
		keyGenesis:   make(map[string]string),
		firstPubKey:  make(map[string]PublicKey),
		addressFiles: make(map[string]*os.File),
		keyFiles:     make(map[string]*os.File),
		typeFiles:    make(map[TransactionType]*os.File),
	}

	for subset := 0; subset < cfg.SubsetCount; subset++ {
		ci.bloom[subset] = NewBloomFilter(bloomBits, cfg.BloomFPP)
		path := ci.subsetFilePath(byte(subset))
		f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("chain index: open subset file %d: %w", subset, err)
		}
		ci.subsetFiles[subset] = f
		if err := ci.replaySubsetFile(byte(subset), f); err != nil {
			return nil, err
		}
	}

	for t := range txTypeNames {
		path := ci.typeFilePath(t)
		if _, err := os.Stat(path); err == nil {
			n, err := ci.countTypeFile(path)
			if err != nil {
				return nil, err
			}
			ci.typeStats[t] = n
		}
	}

	return ci, nil
}

func (ci *ChainIndex) subsetFilePath(subset byte) string {
	return filepath.Join(ci.cfg.DBPath, fmt.Sprintf("%02X-summary", subset))
}

func (ci *ChainIndex) addressesFilePath(genesis Address) string {
	return filepath.Join(ci.cfg.DBPath, genesis.Hex()+"-addresses")
}

func (ci *ChainIndex) keysFilePath(genesis Address) string {
	return filepath.Join(ci.cfg.DBPath, genesis.Hex()+"-keys")
}

func (ci *ChainIndex) typeFilePath(t TransactionType) string {
	return filepath.Join(ci.cfg.DBPath, t.String())
}

// replaySubsetFile rebuilds the bloom filter, tx_index, and chain_stats
// entries implied by one subset file. It does not rebuild last_index;
// after a restart GetLastChainAddress answers from the addresses file
// until a new last-address entry is recorded. A truncated trailing record
// ends the scan without error.
func (ci *ChainIndex) replaySubsetFile(subset byte, f *os.File) error {
	data, err := os.ReadFile(f.Name())
	if err != nil {
		return fmt.Errorf("chain index: read subset file: %w", err)
	}
	buf := data
	for len(buf) > 0 {
		rec, rest, err := ReadSubsetIndexRecord(buf)
		if err == io.ErrUnexpectedEOF {
			break // truncated tail, tolerated
		}
		if err != nil {
			return &StorageCorruptionError{File: f.Name(), Offset: int64(len(data) - len(buf)), Err: err}
		}
		ci.applyRecoveredSubsetRecord(subset, rec)
		buf = rest
	}
	return nil
}

func (ci *ChainIndex) applyRecoveredSubsetRecord(subset byte, rec SubsetIndexRecord) {
	ci.mu.Lock()
	defer ci.mu.Unlock()

	ci.bloom[subset].Add(rec.CurrentAddress.Digest())
	ci.txIndex[string(rec.CurrentAddress)] = TxIndexEntry{
		GenesisAddress: rec.GenesisAddress,
		Size:           rec.Size,
		Offset:         rec.Offset,
	}
	gkey := string(rec.GenesisAddress)
	stats, ok := ci.chainStats[gkey]
	if !ok {
		stats = &ChainStats{}
		ci.chainStats[gkey] = stats
	}
	stats.TotalSize += uint64(rec.Size)
	stats.TxCount++
}

func (ci *ChainIndex) countTypeFile(path string) (uint64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("chain index: read type file: %w", err)
	}
	var count uint64
	buf := data
	for len(buf) > 0 {
		_, rest, err := ReadTypeIndexRecord(buf)
		if err != nil {
			break // truncated tail tolerated
		}
		count++
		buf = rest
	}
	return count, nil
}

// AddTx writes a subset-index record durably, updates the bloom filter,
// tx_index, and chain_stats for genesis. It returns only once the
// subset-index write has been handed to the OS; it does not fsync (see
// Sync).
func (ci *ChainIndex) AddTx(addr, genesis Address, size uint32) error {
	subset, err := addr.Subset()
	if err != nil {
		return &UserRequestInvalidError{Reason: "address too short for subset: " + err.Error()}
	}

	ci.mu.Lock()
	gkey := string(genesis)
	stats, ok := ci.chainStats[gkey]
	if !ok {
		stats = &ChainStats{}
		ci.chainStats[gkey] = stats
	}
	offset := uint32(stats.TotalSize)
	ci.mu.Unlock()

	rec := SubsetIndexRecord{CurrentAddress: addr, GenesisAddress: genesis, Size: size, Offset: offset}
	encoded := EncodeSubsetIndexRecord(rec)

	ci.subsetMu[subset].Lock()
	_, werr := ci.subsetFiles[subset].Write(encoded)
	ci.subsetMu[subset].Unlock()
	if werr != nil {
		return fmt.Errorf("chain index: write subset record: %w", werr)
	}

	ci.mu.Lock()
	ci.bloom[subset].Add(addr.Digest())
	ci.txIndex[string(addr)] = TxIndexEntry{GenesisAddress: genesis, Size: size, Offset: offset}
	stats.TotalSize += uint64(size)
	stats.TxCount++
	ci.mu.Unlock()

	return nil
}

// Sync fsyncs every open subset file. Neither AddTx nor ChainWriter calls
// it; it runs only when a caller invokes it.
func (ci *ChainIndex) Sync() error {
	for i := range ci.subsetFiles {
		ci.subsetMu[i].Lock()
		err := ci.subsetFiles[i].Sync()
		ci.subsetMu[i].Unlock()
		if err != nil {
			return err
		}
	}
	return nil
}

// GetTxEntry resolves address's index entry. On an in-memory miss it
// consults the subset's bloom filter and, on a positive, falls back to a
// linear scan of the subset index file.
func (ci *ChainIndex) GetTxEntry(addr Address) (TxIndexEntry, error) {
	ci.mu.RLock()
	entry, ok := ci.txIndex[string(addr)]
	ci.mu.RUnlock()
	if ok {
		return entry, nil
	}

	subset, err := addr.Subset()
	if err != nil {
		return TxIndexEntry{}, &UserRequestInvalidError{Reason: "address too short for subset"}
	}
	ci.mu.RLock()
	maybe := ci.bloom[subset].Test(addr.Digest())
	ci.mu.RUnlock()
	if !maybe {
		return TxIndexEntry{}, ErrNotFound
	}

	data, err := os.ReadFile(ci.subsetFilePath(subset))
	if err != nil {
		return TxIndexEntry{}, fmt.Errorf("chain index: scan subset file: %w", err)
	}
	buf := data
	for len(buf) > 0 {
		rec, rest, err := ReadSubsetIndexRecord(buf)
		if err != nil {
			break
		}
		if rec.CurrentAddress.Equal(addr) {
			return TxIndexEntry{GenesisAddress: rec.GenesisAddress, Size: rec.Size, Offset: rec.Offset}, nil
		}
		buf = rest
	}
	return TxIndexEntry{}, ErrNotFound
}

// TransactionExists is the fast-path existence check: tx_index membership
// OR a bloom-filter positive. A positive here does not guarantee
// GetTxEntry will succeed.
func (ci *ChainIndex) TransactionExists(addr Address) bool {
	ci.mu.RLock()
	defer ci.mu.RUnlock()
	if _, ok := ci.txIndex[string(addr)]; ok {
		return true
	}
	subset, err := addr.Subset()
	if err != nil {
		return false
	}
	return ci.bloom[subset].Test(addr.Digest())
}

// resolveGenesis returns address's genesis: if address is a known
// transaction, its recorded genesis_address; otherwise address is treated
// as the genesis itself.
func (ci *ChainIndex) resolveGenesis(addr Address) Address {
	ci.mu.RLock()
	entry, ok := ci.txIndex[string(addr)]
	ci.mu.RUnlock()
	if ok {
		return entry.GenesisAddress
	}
	return addr
}

// ChainSize returns the number of transactions recorded for address's
// chain.
func (ci *ChainIndex) ChainSize(addr Address) uint64 {
	genesis := ci.resolveGenesis(addr)
	ci.mu.RLock()
	defer ci.mu.RUnlock()
	stats, ok := ci.chainStats[string(genesis)]
	if !ok {
		return 0
	}
	return stats.TxCount
}

func (ci *ChainIndex) getAddressesFile(genesis Address) (*os.File, error) {
	ci.filesMu.Lock()
	defer ci.filesMu.Unlock()
	key := genesis.Hex()
	if f, ok := ci.addressFiles[key]; ok {
		return f, nil
	}
	f, err := os.OpenFile(ci.addressesFilePath(genesis), os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	ci.addressFiles[key] = f
	return f, nil
}

func (ci *ChainIndex) getKeysFile(genesis Address) (*os.File, error) {
	ci.filesMu.Lock()
	defer ci.filesMu.Unlock()
	key := genesis.Hex()
	if f, ok := ci.keyFiles[key]; ok {
		return f, nil
	}
	f, err := os.OpenFile(ci.keysFilePath(genesis), os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	ci.keyFiles[key] = f
	return f, nil
}

func (ci *ChainIndex) getTypeFile(t TransactionType) (*os.File, error) {
	ci.filesMu.Lock()
	defer ci.filesMu.Unlock()
	if f, ok := ci.typeFiles[t]; ok {
		return f, nil
	}
	f, err := os.OpenFile(ci.typeFilePath(t), os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	ci.typeFiles[t] = f
	return f, nil
}

// SetLastChainAddress resolves previous's genesis, appends a
// chain-addresses record, and updates last_index.
func (ci *ChainIndex) SetLastChainAddress(previous, newAddr Address, timestamp uint32) error {
	genesis := ci.resolveGenesis(previous)
	f, err := ci.getAddressesFile(genesis)
	if err != nil {
		return fmt.Errorf("chain index: open addresses file: %w", err)
	}
	rec := EncodeChainAddressRecord(ChainAddressRecord{Timestamp: timestamp, Address: newAddr})
	if _, err := f.Write(rec); err != nil {
		return fmt.Errorf("chain index: append addresses record: %w", err)
	}
	ci.mu.Lock()
	ci.lastIndex[string(genesis)] = newAddr
	ci.mu.Unlock()
	return nil
}

// GetLastChainAddress resolves address's genesis then, with no `until`,
// returns last_index (falling back to a file scan if absent); with
// `until`, scans the addresses file for the entry with the greatest
// timestamp <= until, accepting an exact match immediately.
func (ci *ChainIndex) GetLastChainAddress(addr Address, until *uint32) (Address, error) {
	genesis := ci.resolveGenesis(addr)

	if until == nil {
		ci.mu.RLock()
		last, ok := ci.lastIndex[string(genesis)]
		ci.mu.RUnlock()
		if ok {
			return last, nil
		}
		return ci.scanLastBefore(genesis, addr, nil)
	}
	return ci.scanLastBefore(genesis, addr, until)
}

func (ci *ChainIndex) scanLastBefore(genesis, fallback Address, until *uint32) (Address, error) {
	f, err := ci.getAddressesFile(genesis)
	if err != nil {
		return nil, fmt.Errorf("chain index: open addresses file: %w", err)
	}
	data, err := os.ReadFile(f.Name())
	if err != nil {
		return nil, fmt.Errorf("chain index: read addresses file: %w", err)
	}

	var best Address
	buf := data
	for len(buf) > 0 {
		rec, rest, err := ReadChainAddressRecord(buf)
		if err != nil {
			break
		}
		if until == nil {
			best = rec.Address
		} else if rec.Timestamp == *until {
			return rec.Address, nil
		} else if rec.Timestamp < *until {
			best = rec.Address
		}
		buf = rest
	}
	if best == nil {
		return fallback, nil
	}
	return best, nil
}

// GetFirstChainAddress returns address's genesis address.
func (ci *ChainIndex) GetFirstChainAddress(addr Address) Address {
	return ci.resolveGenesis(addr)
}

// SetPublicKey records a key-rotation event for genesis and tracks the
// owning genesis and first-seen key for get_first_public_key.
func (ci *ChainIndex) SetPublicKey(genesis Address, pk PublicKey, timestamp uint32) error {
	f, err := ci.getKeysFile(genesis)
	if err != nil {
		return fmt.Errorf("chain index: open keys file: %w", err)
	}
	rec := EncodeChainKeyRecord(ChainKeyRecord{Timestamp: timestamp, PublicKey: pk})
	if _, err := f.Write(rec); err != nil {
		return fmt.Errorf("chain index: append keys record: %w", err)
	}

	ci.mu.Lock()
	gkey := genesis.Hex()
	ci.keyGenesis[string(pk)] = gkey
	if _, ok := ci.firstPubKey[gkey]; !ok {
		ci.firstPubKey[gkey] = pk
	}
	ci.mu.Unlock()
	return nil
}

// GetFirstPublicKey returns the earliest public key ever recorded for the
// chain that pk belongs to.
func (ci *ChainIndex) GetFirstPublicKey(pk PublicKey) (PublicKey, error) {
	ci.mu.RLock()
	gkey, ok := ci.keyGenesis[string(pk)]
	if !ok {
		ci.mu.RUnlock()
		return nil, ErrNotFound
	}
	first, ok := ci.firstPubKey[gkey]
	ci.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return first, nil
}

// RecordType appends addr to the per-type index file and increments
// type_stats; called by ChainWriter once a transaction has been appended
// to its chain file.
func (ci *ChainIndex) RecordType(t TransactionType, addr Address) error {
	f, err := ci.getTypeFile(t)
	if err != nil {
		return fmt.Errorf("chain index: open type file: %w", err)
	}
	if _, err := f.Write(addr); err != nil {
		return fmt.Errorf("chain index: append type record: %w", err)
	}
	ci.mu.Lock()
	ci.typeStats[t]++
	ci.mu.Unlock()
	return nil
}

// CountTransactionsByType returns type_stats[t].
func (ci *ChainIndex) CountTransactionsByType(t TransactionType) uint64 {
	ci.mu.RLock()
	defer ci.mu.RUnlock()
	return ci.typeStats[t]
}

// ListAddressesByType returns a lazy finite sequence over every address
// recorded for type t, read directly off its index file rather than
// materializing a slice.
func (ci *ChainIndex) ListAddressesByType(t TransactionType) func(yield func(Address) bool) {
	return func(yield func(Address) bool) {
		data, err := os.ReadFile(ci.typeFilePath(t))
		if err != nil {
			return
		}
		buf := data
		for len(buf) > 0 {
			addr, rest, err := ReadTypeIndexRecord(buf)
			if err != nil {
				return
			}
			if !yield(addr) {
				return
			}
			buf = rest
		}
	}
}

// ListAllAddresses returns a lazy finite sequence over every address ever
// appended to any chain, genesis by genesis.
func (ci *ChainIndex) ListAllAddresses() func(yield func(Address) bool) {
	return func(yield func(Address) bool) {
		entries, err := os.ReadDir(ci.cfg.DBPath)
		if err != nil {
			return
		}
		for _, e := range entries {
			name := e.Name()
			const suffix = "-addresses"
			if e.IsDir() || len(name) <= len(suffix) || name[len(name)-len(suffix):] != suffix {
				continue
			}
			data, err := os.ReadFile(filepath.Join(ci.cfg.DBPath, name))
			if err != nil {
				continue
			}
			buf := data
			for len(buf) > 0 {
				rec, rest, err := ReadChainAddressRecord(buf)
				if err != nil {
					break
				}
				if !yield(rec.Address) {
					return
				}
				buf = rest
			}
		}
	}
}

// Close releases all open file handles.
func (ci *ChainIndex) Close() error {
	var firstErr error
	for _, f := range ci.subsetFiles {
		if f != nil {
			if err := f.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	ci.filesMu.Lock()
	defer ci.filesMu.Unlock()
	for _, f := range ci.addressFiles {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, f := range ci.keyFiles {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, f := range ci.typeFiles {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
