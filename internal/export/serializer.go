// Package export serializes stored records into downloadable files.
package export

import (
	"bytes"
	"encoding/base64"
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/recordport/recordport/internal/model"
)

// Serializer errors.
var (
	ErrUnsupportedFormat   = errors.New("unsupported export format")
	ErrUnsupportedEncoding = errors.New("unsupported encoding")
)

// SheetName is the single worksheet of XLSX exports.
const SheetName = "Sheet1"

// File is a serialized export ready to be sent.
type File struct {
	Name        string
	ContentType string
	Body        []byte
}

// writer renders records in one format. enc is the requested encoding name.
type writer func(records []model.StoredRecord, enc string) ([]byte, error)

var writers = map[model.Format]writer{
	model.FormatCSV:  writeCSV,
	model.FormatXLSX: writeXLSX,
	model.FormatJSON: writeJSON,
	model.FormatXML:  writeXML,
}

// Serialize renders records for req and names the result.
// Fields always appear in model.ExportFields order.
func Serialize(records []model.StoredRecord, req model.ExportRequest) (*File, error) {
	w, ok := writers[req.Format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, req.Format)
	}

	body, err := w(records, req.Encoding)
	if err != nil {
		return nil, fmt.Errorf("serialize %s: %w", req.Format, err)
	}

	return &File{
		Name:        req.SuggestedFileName(),
		ContentType: req.Format.ContentType(),
		Body:        body,
	}, nil
}

func writeCSV(records []model.StoredRecord, enc string) ([]byte, error) {
	charset, err := LookupEncoding(enc)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	cw.UseCRLF = true

	if err := cw.Write(model.ExportFields); err != nil {
		return nil, err
	}
	for _, r := range records {
		if err := cw.Write(r.Values()); err != nil {
			return nil, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, err
	}

	return transcode(buf.Bytes(), charset)
}

func writeJSON(records []model.StoredRecord, enc string) ([]byte, error) {
	charset, err := LookupEncoding(enc)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []model.StoredRecord{}
	}

	var buf bytes.Buffer
	je := json.NewEncoder(&buf)
	je.SetEscapeHTML(false)
	if err := je.Encode(records); err != nil {
		return nil, err
	}

	return transcode(bytes.TrimSuffix(buf.Bytes(), []byte("\n")), charset)
}

// xmlUsers is the XML document root.
type xmlUsers struct {
	XMLName xml.Name             `xml:"users"`
	Users   []model.StoredRecord `xml:"user"`
}

func writeXML(records []model.StoredRecord, enc string) ([]byte, error) {
	if IsBase64(enc) {
		doc, err := renderXML(records, "utf-8")
		if err != nil {
			return nil, err
		}
		out := make([]byte, base64.StdEncoding.EncodedLen(len(doc)))
		base64.StdEncoding.Encode(out, doc)
		return out, nil
	}

	charset, err := LookupEncoding(enc)
	if err != nil {
		return nil, err
	}
	name := enc
	if name == "" {
		name = model.DefaultEncoding
	}

	doc, err := renderXML(records, name)
	if err != nil {
		return nil, err
	}
	return transcode(doc, charset)
}

func renderXML(records []model.StoredRecord, declared string) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "<?xml version=\"1.0\" encoding=\"%s\"?>\n", declared)

	xe := xml.NewEncoder(&buf)
	if err := xe.Encode(xmlUsers{Users: records}); err != nil {
		return nil, err
	}
	if err := xe.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeXLSX ignores enc; the container is always UTF-8.
func writeXLSX(records []model.StoredRecord, _ string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	header := make([]any, len(model.ExportFields))
	for i, name := range model.ExportFields {
		header[i] = name
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, err
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := r.Values()
		row := make([]any, len(values))
		for j, v := range values {
			row[j] = v
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
