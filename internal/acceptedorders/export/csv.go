package export

import (
	"bytes"
	"encoding/csv"
)

func renderCSV(table [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(Header); err != nil {
		return nil, err
	}
	if err := writer.WriteAll(table); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
