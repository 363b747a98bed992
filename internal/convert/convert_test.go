package convert

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFakeConverter writes a shell script that mimics the converter CLI:
// it parses --convert-to and --outdir and writes document.<format> there.
func writeFakeConverter(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake converter scripts need a POSIX shell")
	}

	path := filepath.Join(t.TempDir(), "fake-soffice")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

func TestNewConverter(t *testing.T) {
	_, err := NewConverter(Options{})
	assert.Error(t, err)

	c, err := NewConverter(Options{BinaryPath: "soffice"})
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestConvertRejectsBadInput(t *testing.T) {
	c, err := NewConverter(Options{BinaryPath: "soffice"})
	require.NoError(t, err)

	_, err = c.Convert(context.Background(), nil, "pdf")
	assert.ErrorContains(t, err, "document is empty")

	_, err = c.Convert(context.Background(), []byte("doc"), "")
	assert.ErrorContains(t, err, "target format is required")
}

func TestConvertSuccess(t *testing.T) {
	bin := writeFakeConverter(t, `
format=""
outdir=""
while [ $# -gt 0 ]; do
  case "$1" in
    --convert-to) format="$2"; shift 2 ;;
    --outdir) outdir="$2"; shift 2 ;;
    *) shift ;;
  esac
done
printf 'converted-output' > "$outdir/document.$format"
`)

	c, err := NewConverter(Options{BinaryPath: bin})
	require.NoError(t, err)

	out, err := c.Convert(context.Background(), []byte("<html>hej</html>"), "pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("converted-output"), out)
}

func TestConvertFailureCarriesStderr(t *testing.T) {
	bin := writeFakeConverter(t, `
echo "source document is corrupt" >&2
exit 3
`)

	c, err := NewConverter(Options{BinaryPath: bin})
	require.NoError(t, err)

	_, err = c.Convert(context.Background(), []byte("doc"), "pdf")
	require.Error(t, err)

	var convErr *ConversionError
	require.ErrorAs(t, err, &convErr)
	assert.Equal(t, "pdf", convErr.Format)
	assert.Contains(t, convErr.Stderr, "source document is corrupt")
}

func TestConvertNoOutputFile(t *testing.T) {
	bin := writeFakeConverter(t, `exit 0`)

	c, err := NewConverter(Options{BinaryPath: bin})
	require.NoError(t, err)

	_, err = c.Convert(context.Background(), []byte("doc"), "pdf")
	var convErr *ConversionError
	require.ErrorAs(t, err, &convErr)
	assert.ErrorContains(t, convErr, "produced no output")
}

func TestConvertEmptyOutputFile(t *testing.T) {
	bin := writeFakeConverter(t, `
outdir=""
while [ $# -gt 0 ]; do
  case "$1" in
    --outdir) outdir="$2"; shift 2 ;;
    *) shift ;;
  esac
done
: > "$outdir/document.pdf"
`)

	c, err := NewConverter(Options{BinaryPath: bin})
	require.NoError(t, err)

	_, err = c.Convert(context.Background(), []byte("doc"), "pdf")
	var convErr *ConversionError
	require.ErrorAs(t, err, &convErr)
	assert.ErrorContains(t, convErr, "empty file")
}
