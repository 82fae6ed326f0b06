// export.go
package main

import (
	"bytes"
	"encoding/csv"
)

// CSV download file names for the two flow variants.
const (
	ExportFileName     = "instagram-nao-seguem-volta.csv"
	TestExportFileName = "nao_seguem_de_volta.csv"
)

// Header used for the profile link column. The standard flow exports
// "Username,Link"; the test flow exports "Username,Url".
const (
	ExportHeaderLink = "Link"
	ExportHeaderURL  = "Url"
)

// buildCSV renders the follow-back gap as CSV: one header row, then one
// username,url row per entry, verbatim.
func buildCSV(list []ProfileRef, urlHeader string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"Username", urlHeader}); err != nil {
		return nil, err
	}
	for _, ref := range list {
		if err := w.Write([]string{ref.Username, ref.URL}); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
