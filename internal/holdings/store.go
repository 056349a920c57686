package holdings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/wonny/etfrating/internal/contracts"
	"github.com/wonny/etfrating/pkg/logger"
)

// DefaultFile is the holdings file name used when none is configured
const DefaultFile = "etf_holdings.json"

var _ contracts.HoldingsStore = (*FileStore)(nil)

// FileStore keeps holdings in a JSON file keyed by instrument code
// ⭐ SSOT: 보유 종목 파일 저장은 여기서만
type FileStore struct {
	path   string
	mu     sync.Mutex
	now    func() time.Time
	logger *logger.Logger
}

// NewFileStore creates a store at path (DefaultFile when empty)
func NewFileStore(path string, log *logger.Logger) *FileStore {
	if path == "" {
		path = DefaultFile
	}
	return &FileStore{
		path:   path,
		now:    time.Now,
		logger: log.WithField("module", "holdings"),
	}
}

// Path returns the backing file path
func (s *FileStore) Path() string {
	return s.path
}

// Load implements contracts.HoldingsStore. A missing file means no holdings.
func (s *FileStore) Load(ctx context.Context) (contracts.Holdings, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load()
}

func (s *FileStore) load() (contracts.Holdings, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return contracts.Holdings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read holdings: %w", err)
	}

	h := contracts.Holdings{}
	if len(strings.TrimSpace(string(data))) == 0 {
		return h, nil
	}
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("decode holdings %s: %w", s.path, err)
	}

	// the map key is authoritative
	for code, p := range h {
		p.Code = code
		h[code] = p
	}
	return h, nil
}

// Save implements contracts.HoldingsStore (write to a temp file, then rename)
func (s *FileStore) Save(ctx context.Context, h contracts.Holdings) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.save(h)
}

func (s *FileStore) save(h contracts.Holdings) error {
	if h == nil {
		h = contracts.Holdings{}
	}

	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return fmt.Errorf("encode holdings: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create holdings dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".holdings-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write holdings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close holdings: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace holdings: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"path":      s.path,
		"positions": len(h),
	}).Debug("Holdings saved")
	return nil
}

// Set adds or replaces one position
func (s *FileStore) Set(ctx context.Context, p contracts.Position) (contracts.Holdings, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.Code = strings.ToUpper(strings.TrimSpace(p.Code))
	if p.Code == "" {
		return nil, fmt.Errorf("position code is required")
	}
	if p.Quantity < 0 {
		return nil, fmt.Errorf("quantity must be >= 0, got %d", p.Quantity)
	}
	if p.AvgPrice < 0 {
		return nil, fmt.Errorf("avg price must be >= 0, got %v", p.AvgPrice)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.load()
	if err != nil {
		return nil, err
	}

	if p.Name == "" {
		p.Name = h[p.Code].Name
	}
	p.UpdatedAt = s.now()
	h[p.Code] = p

	if err := s.save(h); err != nil {
		return nil, err
	}
	return h, nil
}

// Remove deletes a position; removing an unknown code is not an error
func (s *FileStore) Remove(ctx context.Context, code string) (contracts.Holdings, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	code = strings.ToUpper(strings.TrimSpace(code))

	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.load()
	if err != nil {
		return nil, false, err
	}
	if _, ok := h[code]; !ok {
		return h, false, nil
	}

	delete(h, code)
	if err := s.save(h); err != nil {
		return nil, false, err
	}
	return h, true, nil
}
