// Package tabular reads CSV and Excel files into string tables and datasets.
package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"subsetlens/domain/dataset"
	"subsetlens/internal"

	"github.com/xuri/excelize/v2"
)

// DataReader handles reading Excel and CSV files
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	sheet    string
	logger   *internal.Logger
}

// NewDataReader creates a reader for filePath. The file type follows the
// extension; sheet selects the Excel sheet and defaults to the first one.
func NewDataReader(filePath, sheet string, logger *internal.Logger) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &DataReader{filePath: filePath, fileType: fileType, sheet: sheet, logger: logger.With("tabular")}
}

// ReadTable reads the file into a header row and records
func (r *DataReader) ReadTable() (dataset.Table, error) {
	r.logger.Debug("reading %s file %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return dataset.Table{}, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	switch r.fileType {
	case "csv":
		return r.readCSV()
	case "xlsx":
		return r.readExcel()
	default:
		return dataset.Table{}, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
}

func (r *DataReader) readExcel() (dataset.Table, error) {
	start := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return dataset.Table{}, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := r.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return dataset.Table{}, fmt.Errorf("Excel file %s has no sheets", r.filePath)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return dataset.Table{}, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	r.logger.Debug("sheet %s read in %.2fms (%d rows)", sheet, float64(time.Since(start).Nanoseconds())/1e6, len(rows))

	return r.processRows(rows)
}

func (r *DataReader) readCSV() (dataset.Table, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return dataset.Table{}, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	return ReadCSV(file, r.logger)
}

// ReadCSV reads CSV data with a header row from rd
func ReadCSV(rd io.Reader, logger *internal.Logger) (dataset.Table, error) {
	start := time.Now()
	reader := csv.NewReader(rd)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return dataset.Table{}, fmt.Errorf("failed to read CSV: %w", err)
	}
	logger.Debug("CSV read in %.2fms (%d rows)", float64(time.Since(start).Nanoseconds())/1e6, len(rows))

	return (&DataReader{fileType: "csv", logger: logger}).processRows(rows)
}

// processRows trims cells and pads short rows to the header width
func (r *DataReader) processRows(rows [][]string) (dataset.Table, error) {
	if len(rows) < 2 {
		return dataset.Table{}, fmt.Errorf("%s file must have at least a header row and one data row", strings.ToUpper(r.fileType))
	}

	headers := make([]string, len(rows[0]))
	for i, header := range rows[0] {
		headers[i] = strings.TrimSpace(header)
	}

	records := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := make([]string, len(headers))
		for j := range headers {
			if j < len(row) {
				record[j] = strings.TrimSpace(row[j])
			}
		}
		records = append(records, record)
	}

	r.logger.Info("%s table loaded (%d columns, %d rows)", strings.ToUpper(r.fileType), len(headers), len(records))

	return dataset.Table{Headers: headers, Records: records}, nil
}

// WriteCSV writes a table with its header row to w
func WriteCSV(w io.Writer, table dataset.Table) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(table.Headers); err != nil {
		return err
	}
	if err := writer.WriteAll(table.Records); err != nil {
		return err
	}
	return writer.Error()
}
