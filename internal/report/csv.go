package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/wonny/etfrating/internal/contracts"
)

// Output folders and the size of the short list
const (
	CompleteDir = "complete_ratings"
	TopDir      = "top100_ratings"
	TopFileSize = 100
)

// utf8BOM lets spreadsheet tools detect UTF-8 (Chinese names)
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var csvHeader = []string{
	"rank", "code", "name", "current_price", "price_change_pct", "total_score",
	"momentum_score", "volatility", "sharpe", "trend_quality", "atr",
	"mom_1m", "mom_3m", "mom_6m", "bars",
}

// Exporter writes timestamped rating CSV files below a base directory
// ⭐ SSOT: 결과 파일 저장은 여기서만
type Exporter struct {
	baseDir string
	now     func() time.Time
}

// NewExporter creates an exporter rooted at baseDir
func NewExporter(baseDir string) *Exporter {
	if baseDir == "" {
		baseDir = "."
	}
	return &Exporter{baseDir: baseDir, now: time.Now}
}

// ExportPaths are the files written by one Export call
type ExportPaths struct {
	Complete string
	Top      string
}

// Export writes the complete table and the first TopFileSize rows
func (e *Exporter) Export(ranked []contracts.RankedResult) (ExportPaths, error) {
	if len(ranked) == 0 {
		return ExportPaths{}, fmt.Errorf("no ranked results to export")
	}

	stamp := e.now().Format("20060102_1504")
	paths := ExportPaths{
		Complete: filepath.Join(e.baseDir, CompleteDir, fmt.Sprintf("etf_complete_rating_%s.csv", stamp)),
		Top:      filepath.Join(e.baseDir, TopDir, fmt.Sprintf("etf_top100_rating_%s.csv", stamp)),
	}

	if err := writeFile(paths.Complete, ranked); err != nil {
		return ExportPaths{}, err
	}

	top := ranked
	if len(top) > TopFileSize {
		top = top[:TopFileSize]
	}
	if err := writeFile(paths.Top, top); err != nil {
		return ExportPaths{}, err
	}

	return paths, nil
}

func writeFile(path string, ranked []contracts.RankedResult) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file %s: %w", path, err)
	}
	defer file.Close()

	if _, err := file.Write(utf8BOM); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := WriteCSV(file, ranked); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return file.Close()
}

// WriteCSV writes the rating table. Undefined values are written as empty cells.
func WriteCSV(w io.Writer, ranked []contracts.RankedResult) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, r := range ranked {
		res := r.Result
		row := []string{
			strconv.Itoa(r.Rank),
			r.Code(),
			r.Name(),
			formatFloat(res.CurrentPrice),
			formatFloat(res.PriceChangePct),
			formatFloat(r.TotalScore),
			formatValue(res.Factors.Momentum),
			formatValue(res.Raw.Volatility),
			formatValue(res.Raw.Sharpe),
			formatValue(res.Factors.TrendQuality),
			formatValue(res.Raw.ATR),
			formatValue(res.Raw.Mom1M),
			formatValue(res.Raw.Mom3M),
			formatValue(res.Raw.Mom6M),
			strconv.Itoa(res.Bars),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 6, 64)
}

func formatValue(v contracts.Value) string {
	f, ok := v.Get()
	if !ok {
		return ""
	}
	return formatFloat(f)
}
