package printing

import (
	"bytes"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var pdfConf = model.NewDefaultConfiguration()

// PageCount returns the number of pages of a PDF document
func PageCount(pdf []byte) (int, error) {
	return api.PageCount(bytes.NewReader(pdf), pdfConf)
}

// FirstPage returns a new PDF document holding only the first page of the input
func FirstPage(pdf []byte) ([]byte, error) {
	var out bytes.Buffer
	if err := api.Trim(bytes.NewReader(pdf), &out, []string{"1"}, pdfConf); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Merge concatenates the given PDF documents in order into one document
func Merge(pdfs ...[]byte) ([]byte, error) {
	readers := make([]io.ReadSeeker, len(pdfs))
	for i, pdf := range pdfs {
		readers[i] = bytes.NewReader(pdf)
	}

	var out bytes.Buffer
	if err := api.MergeRaw(readers, &out, false, pdfConf); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
