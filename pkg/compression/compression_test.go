package compression

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/borealis/pkg/errors"
)

// sample is long enough and repetitive enough that every real algorithm
// shrinks it.
var sample = []byte(strings.Repeat("serial:101 temp:2250 type:temp bat:80 batmax:100 state:OK\n", 200))

func TestRoundTripAllAlgorithms(t *testing.T) {
	for _, alg := range Algorithms() {
		t.Run(string(alg), func(t *testing.T) {
			comp, err := NewCompressor(&Config{Algorithm: alg, Level: Default})
			require.NoError(t, err)
			assert.Equal(t, alg, comp.Algorithm())

			compressed, err := comp.Compress(sample)
			require.NoError(t, err)

			if alg != None {
				assert.Less(t, len(compressed), len(sample),
					"algorithm %s should shrink repetitive input", alg)
			}

			decompressed, err := comp.Decompress(compressed)
			require.NoError(t, err)
			assert.Equal(t, sample, decompressed)
		})
	}
}

func TestStreamRoundTrip(t *testing.T) {
	for _, alg := range []Algorithm{Gzip, Snappy, LZ4, Zstd, S2, Deflate} {
		t.Run(string(alg), func(t *testing.T) {
			comp, err := NewCompressor(&Config{Algorithm: alg, Level: Fastest})
			require.NoError(t, err)

			var compressed bytes.Buffer
			require.NoError(t, comp.CompressStream(&compressed, bytes.NewReader(sample)))

			var restored bytes.Buffer
			require.NoError(t, comp.DecompressStream(&restored, &compressed))
			assert.Equal(t, sample, restored.Bytes())
		})
	}
}

func TestNewCompressorDefaults(t *testing.T) {
	comp, err := NewCompressor(nil)
	require.NoError(t, err)
	assert.Equal(t, Gzip, comp.Algorithm())
	assert.Equal(t, Default, comp.Level())
}

func TestNewCompressorUnsupported(t *testing.T) {
	_, err := NewCompressor(&Config{Algorithm: Algorithm("brotli")})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestCompressorPoolConcurrent(t *testing.T) {
	cp := NewCompressorPool(&Config{Algorithm: Zstd, Level: Fastest})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				compressed, err := cp.Compress(sample)
				if err != nil {
					t.Error(err)
					return
				}
				restored, err := cp.Decompress(compressed)
				if err != nil {
					t.Error(err)
					return
				}
				if !bytes.Equal(sample, restored) {
					t.Error("round trip mismatch under concurrency")
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		in      string
		want    Algorithm
		wantErr bool
	}{
		{"", Gzip, false},
		{"gzip", Gzip, false},
		{"GZIP", Gzip, false},
		{"none", None, false},
		{"snappy", Snappy, false},
		{"lz4", LZ4, false},
		{"zstd", Zstd, false},
		{"s2", S2, false},
		{"deflate", Deflate, false},
		{"brotli", None, true},
	}
	for _, tt := range tests {
		got, err := ParseAlgorithm(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestExtension(t *testing.T) {
	assert.Equal(t, ".gz", Gzip.Extension())
	assert.Equal(t, ".zst", Zstd.Extension())
	assert.Equal(t, "", None.Extension())
}

func TestLevelMapping(t *testing.T) {
	for _, level := range []Level{Fastest, Default, Better, Best} {
		comp, err := NewCompressor(&Config{Algorithm: Gzip, Level: level})
		require.NoError(t, err)
		assert.Equal(t, level, comp.Level())

		compressed, err := comp.Compress(sample)
		require.NoError(t, err)

		restored, err := comp.Decompress(compressed)
		require.NoError(t, err)
		assert.Equal(t, sample, restored)
	}
}
