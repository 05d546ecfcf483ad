package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/linefollow/internal/sim"
)

type ExportData struct {
	RunMetadata
	Samples []sim.Sample `json:"samples"`
}

func ExportJSON(w io.Writer, meta RunMetadata, samples []sim.Sample) error {
	if samples == nil {
		samples = []sim.Sample{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{RunMetadata: meta, Samples: samples})
}
