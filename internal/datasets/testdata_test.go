package datasets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	summaryJSON = `{
  "source": "yahoo",
  "series": "SPY",
  "points": 5,
  "timeframe_days": 1095,
  "stable_cycle_count": 2,
  "selected_cycle_count": 1,
  "selected_cycles": [
    {"period_days": 30.0, "norm_power": 0.4, "presence_ratio": 0.8, "stability_score": 2.0, "stable": true}
  ]
}`
	seriesCSV   = "date,value\n2024-01-01,100.5\n2024-01-02,101\n2024-01-03,n/a\n\n2024-01-04,99.25\n"
	spectrumCSV = "period_days,norm_power\n400,0.9\n30,0.4\n90,0.2\n"
	cyclesCSV   = "period_days,freq_per_day,power,norm_power,presence_ratio,median_window_power_ratio,stability_score,stable\n" +
		"30.0,0.033,12,0.4,0.8,0.2,2.0,True\n" +
		"90.0,0.011,8,0.2,0.6,0.1,4.0,true\n" +
		"45.0,0.022,3,0.1,0.2,0.05,0.5,False\n"
	wavesCSV = "date,period_days,component_value\n" +
		"2024-01-02,30.0,2.0\n" +
		"2024-01-01,30.0,1.0\n" +
		"2024-01-01,90.0,3.0\n" +
		",30.0,5.0\n" +
		"2024-01-03,abc,1.0\n"
)

// writeRun lays out a pipeline output directory with one series.
func writeRun(t *testing.T, seriesID string, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, seriesID)
	require.NoError(t, os.MkdirAll(dir, 0755))
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0644))
	}
	return root
}

func fullRun() map[string]string {
	return map[string]string{
		"summary.json": summaryJSON,
		"series.csv":   seriesCSV,
		"spectrum.csv": spectrumCSV,
		"cycles.csv":   cyclesCSV,
		"waves.csv":    wavesCSV,
	}
}
