package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rosterDataset(rows int) Dataset {
	data := Dataset{
		Title:   "Morning Flow",
		Meta:    []string{"2026-11-05 09:00 CST", "Melissa, TX"},
		Headers: []string{"#", "Student", "Enrolled At"},
	}
	for i := 0; i < rows; i++ {
		data.Rows = append(data.Rows, []string{"1", "stu-1", "2026-10-01T12:00:00Z"})
	}
	return data
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(rosterDataset(2))
	require.NoError(t, err)
	assert.Equal(t, "#,Student,Enrolled At\n1,stu-1,2026-10-01T12:00:00Z\n1,stu-1,2026-10-01T12:00:00Z\n", string(out))
}

func TestCSVExporterNeutralizesFormulas(t *testing.T) {
	data := Dataset{Headers: []string{"Student"}, Rows: [][]string{{"=HYPERLINK(\"x\")"}, {"-1"}, {"plain"}}}
	out, err := NewCSVExporter().Render(data)
	require.NoError(t, err)
	assert.Equal(t, "Student\n\"'=HYPERLINK(\"\"x\"\")\"\n'-1\nplain\n", string(out))
}

func TestExporterRejectsRaggedRows(t *testing.T) {
	data := rosterDataset(1)
	data.Rows = append(data.Rows, []string{"only-one"})
	_, err := NewCSVExporter().Render(data)
	require.Error(t, err)
	_, err = NewPDFExporter().Render(Dataset{})
	require.Error(t, err)
}

func TestPDFExporterPaginates(t *testing.T) {
	out, err := NewPDFExporter().Render(rosterDataset(120))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestForFormat(t *testing.T) {
	r, ok := ForFormat("pdf")
	require.True(t, ok)
	assert.Equal(t, "application/pdf", r.ContentType())
	_, ok = ForFormat("xlsx")
	assert.False(t, ok)
}
