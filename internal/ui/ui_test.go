package ui

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "█████░░░░░  50%", ProgressBar(1, 2, 10))
	assert.Equal(t, "░░░░░   0%", ProgressBar(0, 0, 1))
	assert.Equal(t, "█████ 100%", ProgressBar(9, 9, 5))
}

func TestPanelPadsToWidestLine(t *testing.T) {
	require.NoError(t, SetTheme("classic"))
	SetColorForcing(true, false)
	defer SetColorForcing(false, false)

	var buf bytes.Buffer
	Panel(&buf, []string{"ab", PenFor(&buf).C(fgGreen, "✔ abcd")})
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "┌────────┐", lines[0])
	assert.Equal(t, "│ ab     │", lines[1])
	assert.Equal(t, "└────────┘", lines[3])
	assert.Equal(t, visibleWidth(lines[0]), visibleWidth(lines[2]))
}

func TestColorHelpers(t *testing.T) {
	defer SetColorForcing(false, false)

	SetColorForcing(true, false)
	assert.Equal(t, fgRed+"x"+reset, PenFor(io.Discard).C(fgRed, "x"))
	assert.Equal(t, "x", PenFor(io.Discard).C("", "x"))

	SetColorForcing(false, true)
	assert.Equal(t, "x", PenFor(io.Discard).C(fgRed, "x"))

	var buf bytes.Buffer
	OK(&buf, "saved")
	Fail(&buf, "nope")
	assert.Equal(t, "✔ saved\n✖ nope\n", buf.String())
}

func TestPenFollowsItsWriter(t *testing.T) {
	defer SetColorForcing(false, false)
	SetColorForcing(false, false)

	var buf bytes.Buffer
	assert.Equal(t, "x", PenFor(&buf).C(fgRed, "x"))
	OK(&buf, "saved")
	assert.Equal(t, "✔ saved\n", buf.String())

	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, "x", PenFor(f).C(fgRed, "x"), "a regular file is not a terminal")

	SetColorForcing(true, false)
	buf.Reset()
	Fail(&buf, "nope")
	assert.Equal(t, fgRed+"✖ nope"+reset+"\n", buf.String())
}

func TestSetTheme(t *testing.T) {
	defer func() {
		require.NoError(t, SetTheme("classic"))
		SetColorForcing(false, false)
	}()
	require.NoError(t, SetTheme("Neon"))
	assert.Equal(t, "◼", Current().BoxChecked)
	require.NoError(t, SetTheme("mono"))
	assert.Equal(t, "[x]", Current().BoxChecked)
	assert.Equal(t, "x", PenFor(io.Discard).C(fgRed, "x"), "mono disables color")
	assert.Error(t, SetTheme("pastel"))
}
