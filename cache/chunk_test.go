package cache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPutGetName(t *testing.T) {
	c := NewChunk()

	diverged := c.PutName(100, Name{Hash: 1, Text: "System"}, []byte("System"))
	require.False(t, diverged)

	n, err := c.GetName(100)
	require.NoError(t, err)
	require.Equal(t, "System", n.Text)
	require.Equal(t, uint32(100), n.Offset)
}

func TestGetNameUnresolved(t *testing.T) {
	c := NewChunk()
	_, err := c.GetName(1)
	require.Error(t, err)
}

func TestPutNameRedeclareSameBytesNoDivergence(t *testing.T) {
	c := NewChunk()

	c.PutName(50, Name{Text: "Data"}, []byte("Data"))
	diverged := c.PutName(50, Name{Text: "Data"}, []byte("Data"))
	require.False(t, diverged)
}

func TestPutNameRedeclareDifferentBytesDiverges(t *testing.T) {
	c := NewChunk()

	c.PutName(50, Name{Text: "Data"}, []byte("Data"))
	diverged := c.PutName(50, Name{Text: "Other"}, []byte("Other"))
	require.True(t, diverged)

	// Cached entry still wins — first declaration is retained.
	n, err := c.GetName(50)
	require.NoError(t, err)
	require.Equal(t, "Data", n.Text)
}

func TestPutGetTemplate(t *testing.T) {
	c := NewChunk()

	c.PutTemplate(200, Template{Body: []byte{0x0F, 0x01, 0x00, 0x00, 0x41}, SlotCount: 2})

	tmpl, err := c.GetTemplate(200)
	require.NoError(t, err)
	require.Equal(t, 2, tmpl.SlotCount)
	require.Equal(t, uint32(200), tmpl.Offset)
}

func TestGetTemplateUnresolved(t *testing.T) {
	c := NewChunk()
	_, err := c.GetTemplate(9)
	require.Error(t, err)
}

func TestCacheMonotonicity(t *testing.T) {
	c := NewChunk()

	c.PutName(10, Name{Text: "A"}, []byte("A"))
	first, _ := c.GetName(10)
	firstOffset := first.Offset

	c.PutName(10, Name{Text: "B"}, []byte("B"))
	second, _ := c.GetName(10)

	require.Equal(t, firstOffset, second.Offset)
	require.Equal(t, "A", second.Text)
}
