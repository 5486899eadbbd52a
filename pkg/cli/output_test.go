package cli

import (
	"bytes"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rendered struct{ name string }

func (r rendered) RenderText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "name=%s\n", r.name)
	return err
}

func TestTextFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&TextFormatter{}).FormatTo(&buf, "test message"))
	assert.Equal(t, "test message\n", buf.String())

	buf.Reset()
	require.NoError(t, (&TextFormatter{}).FormatTo(&buf, rendered{name: "x"}))
	assert.Equal(t, "name=x\n", buf.String())
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).FormatTo(&buf, map[string]int{"a": 1}))
	assert.Equal(t, "{\"a\":1}\n", buf.String())

	buf.Reset()
	require.NoError(t, (&JSONFormatter{Indent: true}).FormatTo(&buf, map[string]int{"a": 1}))
	assert.Equal(t, "{\n  \"a\": 1\n}\n", buf.String())
}

func TestNewFormatter(t *testing.T) {
	assert.IsType(t, &JSONFormatter{}, NewFormatter(FormatJSON))
	assert.IsType(t, &TextFormatter{}, NewFormatter(FormatText))
	assert.IsType(t, &TextFormatter{}, NewFormatter("unknown"))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	f, err = ParseFormat("json")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("csv")
	assert.Error(t, err)
}
