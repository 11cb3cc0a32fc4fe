package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/wheelsim/internal/dynamo"
)

type ExportData struct {
	RunMetadata
	Times     []float64   `json:"times"`
	Telemetry [][]float64 `json:"telemetry"`
	Controls  [][]float64 `json:"controls"`
}

func NewExportData(meta RunMetadata, result *dynamo.Result) ExportData {
	data := ExportData{
		RunMetadata: meta,
		Times:       result.Times,
		Telemetry:   make([][]float64, len(result.Telemetry)),
		Controls:    make([][]float64, len(result.Controls)),
	}
	for i, s := range result.Telemetry {
		data.Telemetry[i] = s
	}
	for i, c := range result.Controls {
		data.Controls[i] = c
	}
	return data
}

// WriteJSON writes the run as one indented JSON document.
func WriteJSON(w io.Writer, meta RunMetadata, result *dynamo.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewExportData(meta, result))
}

func ExportJSON(path string, meta RunMetadata, result *dynamo.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, meta, result)
}
