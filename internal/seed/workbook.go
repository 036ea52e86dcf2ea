package seed

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Workbook defaults applied to every imported sheet.
const (
	WorkbookCategory   = "Imported"
	WorkbookDifficulty = "MEDIUM"
)

// ReadWorkbook turns every non-empty sheet into a bank named after the sheet.
// The first row is the header: Question, one or more Option columns, Correct
// and an optional Explanation. Correct is an option letter, a 1-based number
// or the option's text.
func ReadWorkbook(r io.Reader) ([]Bank, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var banks []Bank
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
		}
		if len(rows) < 2 {
			continue
		}
		bank, err := readSheet(sheet, rows)
		if err != nil {
			return nil, err
		}
		banks = append(banks, bank)
	}
	return banks, nil
}

type columns struct {
	question    int
	options     []int
	correct     int
	explanation int
}

func readHeader(header []string) (columns, error) {
	cols := columns{question: -1, correct: -1, explanation: -1}
	for i, cell := range header {
		name := strings.ToLower(strings.TrimSpace(cell))
		switch {
		case name == "question":
			cols.question = i
		case strings.HasPrefix(name, "option"):
			cols.options = append(cols.options, i)
		case name == "correct":
			cols.correct = i
		case name == "explanation":
			cols.explanation = i
		}
	}
	if cols.question < 0 || cols.correct < 0 || len(cols.options) < 2 {
		return cols, fmt.Errorf("header needs Question, at least two Option columns and Correct")
	}
	return cols, nil
}

func readSheet(sheet string, rows [][]string) (Bank, error) {
	cols, err := readHeader(rows[0])
	if err != nil {
		return Bank{}, fmt.Errorf("sheet %s: %w", sheet, err)
	}
	bank := Bank{
		Key:        slug(sheet),
		Name:       sheet,
		Category:   WorkbookCategory,
		Difficulty: WorkbookDifficulty,
	}
	for n, row := range rows[1:] {
		text := cell(row, cols.question)
		if text == "" {
			continue
		}
		var options []string
		for _, c := range cols.options {
			if v := cell(row, c); v != "" {
				options = append(options, v)
			}
		}
		correct, err := correctIndex(cell(row, cols.correct), options)
		if err != nil {
			return Bank{}, fmt.Errorf("sheet %s row %d: %w", sheet, n+2, err)
		}
		bank.Questions = append(bank.Questions, Question{
			Text:         text,
			Options:      options,
			CorrectIndex: correct,
			Explanation:  cell(row, cols.explanation),
		})
	}
	return bank, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func correctIndex(raw string, options []string) (int, error) {
	if raw == "" {
		return 0, fmt.Errorf("missing correct answer")
	}
	idx := -1
	if len(raw) == 1 && strings.ContainsAny(strings.ToUpper(raw), "ABCDEFGHIJ") {
		idx = int(strings.ToUpper(raw)[0] - 'A')
	} else if n, err := strconv.Atoi(raw); err == nil {
		idx = n - 1
	} else {
		for i, o := range options {
			if strings.EqualFold(o, raw) {
				idx = i
				break
			}
		}
	}
	if idx < 0 || idx >= len(options) {
		return 0, fmt.Errorf("correct answer %q does not match an option", raw)
	}
	return idx, nil
}

func slug(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}
