package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanjeevkumarraob/askyourdoc/internal/search"
)

const sample = `Quarterly Report. Prepared by finance.

Cloud revenue doubled after the migration project finished.

The cafeteria menu changes every Tuesday and Friday.

Security audits are scheduled twice a year for compliance.`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.txt")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		extractJSON, extractType = false, ""
		defaults := search.DefaultConfig()
		askTopK, askContext, askType = defaults.TopK, defaults.ContextWindow, ""
		titleType = ""
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestExtractCmd(t *testing.T) {
	out, err := run(t, "extract", writeSample(t))
	require.NoError(t, err)

	assert.Contains(t, out, "Title: Quarterly Report")
	assert.Contains(t, out, "Pages: 1  Paragraphs: 4")
	assert.Contains(t, out, "[p1 #2")
}

func TestExtractCmd_JSON(t *testing.T) {
	out, err := run(t, "extract", "--json", writeSample(t))
	require.NoError(t, err)

	var got extractionJSON
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "Quarterly Report", got.Title)
	assert.Equal(t, 1, got.TotalPages)
	require.Len(t, got.Paragraphs, 4)
	assert.Equal(t, 4, got.Paragraphs[3].ParagraphIndex)
}

func TestExtractCmd_Errors(t *testing.T) {
	_, err := run(t, "extract")
	assert.ErrorContains(t, err, "accepts 1 arg(s)")

	_, err = run(t, "extract", filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)

	_, err = run(t, "extract", "--type", "image/png", writeSample(t))
	assert.ErrorContains(t, err, "unsupported file type")
}

func TestAskCmd(t *testing.T) {
	out, err := run(t, "ask", "--top-k", "1", writeSample(t), "cloud", "revenue")
	require.NoError(t, err)

	assert.Contains(t, out, "Searched 4 paragraphs.")
	assert.Contains(t, out, "[1] page 1, paragraph 2")
	assert.Contains(t, out, "tfidf")
	assert.Contains(t, out, "  > Cloud revenue doubled")
	assert.Contains(t, out, "    Quarterly Report. Prepared by finance.")
	// The default window reaches the end of this short document.
	assert.Contains(t, out, "    Security audits are scheduled twice a year")
	assert.NotContains(t, out, "[2]")
}

func TestAskCmd_ContextFlag(t *testing.T) {
	out, err := run(t, "ask", "--top-k", "1", "--context", "0", writeSample(t), "cloud", "revenue")
	require.NoError(t, err)

	assert.Contains(t, out, "  > Cloud revenue doubled")
	assert.NotContains(t, out, "    Quarterly Report")
	assert.NotContains(t, out, "    Security audits")
}

func TestAskCmd_NoMatches(t *testing.T) {
	out, err := run(t, "ask", writeSample(t), "zebra patterns in antarctica")
	require.NoError(t, err)
	assert.Contains(t, out, "No relevant paragraphs found.")
}

func TestTitleCmd(t *testing.T) {
	out, err := run(t, "title", writeSample(t))
	require.NoError(t, err)
	assert.Equal(t, "Quarterly Report\n", out)
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["extract"])
	assert.True(t, names["ask"])
	assert.True(t, names["title"])

	flag := askCmd.Flags().Lookup("top-k")
	require.NotNil(t, flag)
	assert.Equal(t, "k", flag.Shorthand)
	assert.Equal(t, "5", flag.DefValue)

	flag = askCmd.Flags().Lookup("context")
	require.NotNil(t, flag)
	assert.Equal(t, "5", flag.DefValue)
}
