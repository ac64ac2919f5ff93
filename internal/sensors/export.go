package sensors

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

// WriteCSV streams readings as CSV, newest first, matching the history view.
func WriteCSV(w io.Writer, readings []Reading) error {
	cw := csv.NewWriter(w)
	header := []string{"recorded_at", "temperature", "ph", "salinity", "turbidity", "dissolved_oxygen"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range readings {
		row := []string{
			r.RecordedAt.UTC().Format(time.RFC3339),
			formatValue(r.Temperature),
			formatValue(r.PH),
			formatValue(r.Salinity),
			formatValue(r.Turbidity),
			formatValue(r.DissolvedOxygen),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
