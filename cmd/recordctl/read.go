package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/transform"

	"github.com/recordport/recordport/internal/export"
	"github.com/recordport/recordport/internal/model"
)

// row is one parsed record. A nil value is an empty cell and goes out as JSON null.
type row map[string]*string

// batch mirrors the import message accepted by the server.
type batch struct {
	AdminName string `json:"adminname"`
	FileName  string `json:"filename"`
	Encoding  string `json:"encoding"`
	Data      []row  `json:"data"`
}

var errEmptyFile = errors.New("file has no header row")

// readRows parses a .csv or .xlsx file into rows keyed by header.
func readRows(path, encoding string) ([]row, error) {
	switch model.FileExtension(path) {
	case "csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return readCSV(f, encoding)
	case "xlsx":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return readXLSX(f)
	default:
		return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
}

func readCSV(r io.Reader, encoding string) ([]row, error) {
	enc, err := export.LookupEncoding(encoding)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(transform.NewReader(r, enc.NewDecoder()))
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return toRows(records)
}

func readXLSX(r io.Reader) ([]row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errEmptyFile
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return toRows(records)
}

func toRows(records [][]string) ([]row, error) {
	if len(records) == 0 {
		return nil, errEmptyFile
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		h = strings.TrimSpace(h)
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		header[i] = h
	}

	rows := make([]row, 0, len(records)-1)
	for _, rec := range records[1:] {
		if isBlank(rec) {
			continue
		}
		r := make(row, len(header))
		for i, col := range header {
			if col == "" {
				continue
			}
			if i < len(rec) && rec[i] != "" {
				v := rec[i]
				r[col] = &v
			} else {
				r[col] = nil
			}
		}
		rows = append(rows, r)
	}
	return rows, nil
}

func isBlank(rec []string) bool {
	return strings.TrimSpace(strings.Join(rec, "")) == ""
}
