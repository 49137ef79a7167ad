package office

import (
	"encoding/json"
	"fmt"

	"github.com/walkingzzzy/office-bridge/schema"
)

type createWordDocumentArgs struct {
	Filename string `json:"filename"`
	Title    string `json:"title,omitempty"`
	Content  string `json:"content,omitempty"`
}

type insertTextArgs struct {
	Filename string `json:"filename"`
	Text     string `json:"text"`
	Position string `json:"position,omitempty"`
}

type formatTextArgs struct {
	Filename       string   `json:"filename"`
	ParagraphIndex int      `json:"paragraph_index"`
	FontName       *string  `json:"font_name,omitempty"`
	FontSize       *int     `json:"font_size,omitempty"`
	Bold           *bool    `json:"bold,omitempty"`
	Italic         *bool    `json:"italic,omitempty"`
	Color          *string  `json:"color,omitempty"`
	Spacing        *float64 `json:"spacing,omitempty"`
}

type insertTableArgs struct {
	Filename string     `json:"filename"`
	Rows     int        `json:"rows"`
	Cols     int        `json:"cols"`
	Data     [][]string `json:"data,omitempty"`
	Style    string     `json:"style,omitempty"`
}

type createWorkbookArgs struct {
	Filename  string `json:"filename"`
	SheetName string `json:"sheet_name,omitempty"`
}

type writeCellArgs struct {
	Filename  string `json:"filename"`
	SheetName string `json:"sheet_name"`
	Cell      string `json:"cell"`
	Value     string `json:"value"`
}

type readRangeArgs struct {
	Filename  string `json:"filename"`
	SheetName string `json:"sheet_name"`
	CellRange string `json:"cell_range"`
}

type serverInfoArgs struct{}

func (s *Server) registerTools() {
	register(s, "create_word_document", "Create a Word document with an optional title and initial content",
		func(args *createWordDocumentArgs) (string, error) {
			s.store.createDocument(args.Filename, args.Title, args.Content)
			return fmt.Sprintf("created document %s", args.Filename), nil
		})
	register(s, "insert_text_to_word", "Insert a paragraph into a Word document at the start or end",
		func(args *insertTextArgs) (string, error) {
			count, err := s.store.insertText(args.Filename, args.Text, args.Position)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("inserted text into %s, %d paragraphs", args.Filename, count), nil
		})
	register(s, "format_word_text", "Apply font formatting to one paragraph of a Word document",
		func(args *formatTextArgs) (string, error) {
			count, err := s.store.paragraphCount(args.Filename)
			if err != nil {
				return "", err
			}
			if args.ParagraphIndex < 0 || args.ParagraphIndex >= count {
				return "", fmt.Errorf("paragraph index %d out of range (document has %d)", args.ParagraphIndex, count)
			}
			return fmt.Sprintf("formatted paragraph %d of %s", args.ParagraphIndex, args.Filename), nil
		})
	register(s, "insert_word_table", "Insert a table into a Word document",
		func(args *insertTableArgs) (string, error) {
			if args.Rows <= 0 || args.Cols <= 0 {
				return "", fmt.Errorf("table dimensions must be positive, got %dx%d", args.Rows, args.Cols)
			}
			count, err := s.store.insertTable(args.Filename, args.Rows, args.Cols, args.Data, args.Style)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("inserted %dx%d table into %s, %d tables total", args.Rows, args.Cols, args.Filename, count), nil
		})
	register(s, "create_excel_workbook", "Create an Excel workbook with an optional initial sheet name",
		func(args *createWorkbookArgs) (string, error) {
			s.store.createWorkbook(args.Filename, args.SheetName)
			return fmt.Sprintf("created workbook %s", args.Filename), nil
		})
	register(s, "write_excel_cell", "Write a value into one cell of an Excel worksheet",
		func(args *writeCellArgs) (string, error) {
			if err := s.store.writeCell(args.Filename, args.SheetName, args.Cell, args.Value); err != nil {
				return "", err
			}
			return fmt.Sprintf("wrote %s!%s", args.SheetName, args.Cell), nil
		})
	register(s, "read_excel_range", "Read a cell range from an Excel worksheet",
		func(args *readRangeArgs) (string, error) {
			values, err := s.store.readRange(args.Filename, args.SheetName, args.CellRange)
			if err != nil {
				return "", err
			}
			data, err := json.Marshal(values)
			if err != nil {
				return "", err
			}
			return string(data), nil
		})
	register(s, "get_server_info", "Report the provider name, version and supported document formats",
		func(args *serverInfoArgs) (string, error) {
			info := map[string]interface{}{
				"name":    Name,
				"version": Version,
				"supported_formats": map[string][]string{
					"word":  {".docx", ".doc"},
					"excel": {".xlsx", ".xls"},
				},
			}
			data, err := json.Marshal(info)
			if err != nil {
				return "", err
			}
			return string(data), nil
		})
}

// register derives the tool's input schema from the argument struct and
// adds a decode-then-handle entry to the catalog.
func register[T any](s *Server, name, description string, handle func(args *T) (string, error)) {
	var inputSchema schema.ToolInputSchema
	if err := schema.Load(&inputSchema, new(T)); err != nil {
		panic(fmt.Sprintf("tool %s: %v", name, err))
	}
	tool := schema.Tool{Name: name, Description: &description, InputSchema: inputSchema}
	s.entries = append(s.entries, toolEntry{
		tool: tool,
		handle: func(raw map[string]interface{}) (string, error) {
			data, err := json.Marshal(raw)
			if err != nil {
				return "", err
			}
			args := new(T)
			if err := json.Unmarshal(data, args); err != nil {
				return "", fmt.Errorf("invalid arguments: %v", err)
			}
			return handle(args)
		},
	})
}
