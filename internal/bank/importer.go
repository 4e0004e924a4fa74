package bank

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/example/drillbot/pkg/models"
	"github.com/xuri/excelize/v2"
)

// ErrSourceUnreadable is returned when a question source cannot be opened or parsed at all
var ErrSourceUnreadable = errors.New("question source unreadable")

// Column positions inside a source record: prompt, answer[, media]
const (
	promptColumn = 0
	answerColumn = 1
	mediaColumn  = 2
)

// LoadResult holds the result of a load operation
type LoadResult struct {
	TotalProcessed int // Records read from the source
	Loaded         int // Unique questions in the resulting set
	Skipped        int // Records with fewer than two populated fields
	Duplicates     int // Records that replaced an earlier record with the same prompt
}

// Load reads a question source into a QuestionSet.
// Sources ending in .xlsx are read from their first sheet, everything else is read as CSV.
// On failure an empty set is returned together with an error wrapping ErrSourceUnreadable.
func Load(path string) (models.QuestionSet, *LoadResult, error) {
	var (
		rows [][]string
		err  error
	)

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".xlsx" || ext == ".xlsm" {
		rows, err = readExcel(path)
	} else {
		rows, err = readCSV(path)
	}
	if err == nil {
		err = checkEncoding(rows)
	}
	if err != nil {
		return models.QuestionSet{}, &LoadResult{}, fmt.Errorf("%w: %s: %v", ErrSourceUnreadable, path, err)
	}

	set, result := buildSet(rows)
	return set, result, nil
}

// readCSV reads every record of a CSV source
func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	return parseCSV(file)
}

// parseCSV reads records from r. No header row is assumed.
func parseCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		if len(rows) == 0 && len(row) > 0 {
			row[0] = strings.TrimPrefix(row[0], "\ufeff")
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// checkEncoding rejects records that are not valid UTF-8
func checkEncoding(rows [][]string) error {
	for i, row := range rows {
		for _, field := range row {
			if !utf8.ValidString(field) {
				return fmt.Errorf("record %d is not valid UTF-8", i+1)
			}
		}
	}
	return nil
}

// readExcel reads the rows of the first sheet of a workbook
func readExcel(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

// buildSet turns raw records into a deduplicated set; the last record for a prompt wins
func buildSet(rows [][]string) (models.QuestionSet, *LoadResult) {
	set := make(models.QuestionSet, len(rows))
	result := &LoadResult{}

	for _, row := range rows {
		result.TotalProcessed++

		question, ok := parseRow(row)
		if !ok {
			result.Skipped++
			continue
		}

		if _, exists := set[question.Prompt]; exists {
			result.Duplicates++
		}
		set[question.Prompt] = question
	}

	result.Loaded = len(set)
	return set, result
}

// parseRow extracts a question from a record. Records without a prompt and an answer are rejected.
func parseRow(row []string) (models.Question, bool) {
	field := func(idx int) string {
		if idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	question := models.Question{
		Prompt: field(promptColumn),
		Answer: field(answerColumn),
		Media:  field(mediaColumn),
	}
	if question.Prompt == "" || question.Answer == "" {
		return models.Question{}, false
	}
	return question, true
}
