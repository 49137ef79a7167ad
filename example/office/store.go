package office

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// wordTable is one table inserted into a document.
type wordTable struct {
	rows  int
	cols  int
	style string
	data  [][]string
}

// document is an in-memory stand-in for a .docx file.
type document struct {
	title      string
	paragraphs []string
	tables     []wordTable
}

// workbook is an in-memory stand-in for a .xlsx file; cells are keyed by
// their A1-style reference per sheet.
type workbook struct {
	sheets map[string]map[string]string
}

// store keeps every document and workbook the provider has created.
type store struct {
	mu        sync.Mutex
	documents map[string]*document
	workbooks map[string]*workbook
}

func newStore() *store {
	return &store{
		documents: map[string]*document{},
		workbooks: map[string]*workbook{},
	}
}

func (s *store) createDocument(filename, title, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := &document{title: title}
	if content != "" {
		doc.paragraphs = append(doc.paragraphs, content)
	}
	s.documents[filename] = doc
}

func (s *store) insertText(filename, text, position string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[filename]
	if !ok {
		return 0, fmt.Errorf("document not found: %s", filename)
	}
	if position == "start" {
		doc.paragraphs = append([]string{text}, doc.paragraphs...)
	} else {
		doc.paragraphs = append(doc.paragraphs, text)
	}
	return len(doc.paragraphs), nil
}

func (s *store) paragraphCount(filename string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[filename]
	if !ok {
		return 0, fmt.Errorf("document not found: %s", filename)
	}
	return len(doc.paragraphs), nil
}

func (s *store) insertTable(filename string, rows, cols int, data [][]string, style string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[filename]
	if !ok {
		return 0, fmt.Errorf("document not found: %s", filename)
	}
	doc.tables = append(doc.tables, wordTable{rows: rows, cols: cols, style: style, data: data})
	return len(doc.tables), nil
}

func (s *store) createWorkbook(filename, sheetName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sheetName == "" {
		sheetName = "Sheet1"
	}
	s.workbooks[filename] = &workbook{sheets: map[string]map[string]string{sheetName: {}}}
}

func (s *store) writeCell(filename, sheetName, cell, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	book, ok := s.workbooks[filename]
	if !ok {
		return fmt.Errorf("workbook not found: %s", filename)
	}
	sheet, ok := book.sheets[sheetName]
	if !ok {
		sheet = map[string]string{}
		book.sheets[sheetName] = sheet
	}
	sheet[strings.ToUpper(cell)] = value
	return nil
}

// readRange resolves an A1-style range like "A1:B2" into row-major cell
// values; empty cells come back as empty strings.
func (s *store) readRange(filename, sheetName, cellRange string) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	book, ok := s.workbooks[filename]
	if !ok {
		return nil, fmt.Errorf("workbook not found: %s", filename)
	}
	sheet, ok := book.sheets[sheetName]
	if !ok {
		return nil, fmt.Errorf("sheet not found: %s", sheetName)
	}
	startCol, startRow, endCol, endRow, err := parseRange(cellRange)
	if err != nil {
		return nil, err
	}
	var values [][]string
	for row := startRow; row <= endRow; row++ {
		var line []string
		for col := startCol; col <= endCol; col++ {
			line = append(line, sheet[cellName(col, row)])
		}
		values = append(values, line)
	}
	return values, nil
}

// parseRange splits "A1:C3" (or a single cell "B2") into column/row bounds.
func parseRange(cellRange string) (startCol, startRow, endCol, endRow int, err error) {
	parts := strings.SplitN(strings.ToUpper(strings.TrimSpace(cellRange)), ":", 2)
	startCol, startRow, err = parseCell(parts[0])
	if err != nil {
		return 0, 0, 0, 0, err
	}
	if len(parts) == 1 {
		return startCol, startRow, startCol, startRow, nil
	}
	endCol, endRow, err = parseCell(parts[1])
	if err != nil {
		return 0, 0, 0, 0, err
	}
	if endCol < startCol || endRow < startRow {
		return 0, 0, 0, 0, fmt.Errorf("invalid cell range: %s", cellRange)
	}
	return startCol, startRow, endCol, endRow, nil
}

func parseCell(cell string) (col, row int, err error) {
	index := 0
	for index < len(cell) && cell[index] >= 'A' && cell[index] <= 'Z' {
		col = col*26 + int(cell[index]-'A') + 1
		index++
	}
	if col == 0 || index == len(cell) {
		return 0, 0, fmt.Errorf("invalid cell reference: %s", cell)
	}
	row, err = strconv.Atoi(cell[index:])
	if err != nil || row <= 0 {
		return 0, 0, fmt.Errorf("invalid cell reference: %s", cell)
	}
	return col, row, nil
}

func cellName(col, row int) string {
	var letters []byte
	for col > 0 {
		col--
		letters = append([]byte{byte('A' + col%26)}, letters...)
		col /= 26
	}
	return string(letters) + strconv.Itoa(row)
}
