package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// SampleLines returns the canonical mixed sensor log used by the
// integration tests. Under the default configuration it yields:
//
//   - 9 lines, 8 parsed, 1 dropped as malformed
//   - 6 distinct sensors (101, 333, 202, 404, 105, one synthetic serial)
//   - 3 alerts: high temperature (333 at 31.5°C), high humidity
//     (202 at 85%), low battery (404 at 15%)
//   - temperature analyzer: 4 samples, max 31.5°C, CRITICAL status
//   - humidity analyzer: 3 samples, max 85%, Too Humid status
//   - battery analyzer: 5 samples, sensor 404 below the low ratio
func SampleLines() []string {
	return []string{
		"serial:101 temp:2250 type:temp bat:80 batmax:100 state:OK",
		"serial:101 temp:2750 type:temp bat:78 batmax:100 state:OK",
		"serial:333 temp:3150 type:temp bat:60 batmax:100 state:active",
		"serial:202 hum:450 type:humidity state:OK",
		"serial:202 hum:850 type:humidity state:OK",
		"serial:404 batterylevel:15 batmax:100 type:battery state:low_power",
		"manu:Qualcomm serial:105 temp:2400 type:temp bat:90 batmax:100",
		"manufac:NXP hum:720 type:humidity",
		"gibberish with no recognizable fields at all",
	}
}

// QuietLines returns lines that parse cleanly but trip no alert or
// anomaly threshold, for tests asserting the absence of findings.
func QuietLines() []string {
	return []string{
		"serial:110 temp:2200 type:temp bat:95 batmax:100 state:OK",
		"serial:210 hum:500 type:humidity state:OK",
		"serial:310 batterylevel:90 batmax:100 type:battery state:OK",
	}
}

// WriteLines writes lines to name under dir and returns the full path.
func WriteLines(t *testing.T, dir, name string, lines []string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644)
	require.NoError(t, err)
	return path
}
