package export

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() Table {
	return Table{
		Title:   "Agenda March 2025",
		Columns: []Column{{Header: "Date", Width: 25}, {Header: "Time", Width: 25}, {Header: "Title"}},
		Rows: []Row{
			{Group: "Mon 03 Mar", Cells: []string{"2025-03-03", "08:00 AM", "Algebra"}},
			{Group: "Mon 03 Mar", Cells: []string{"2025-03-03", "01:30 PM", "Essay, draft"}},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleTable())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Date,Time,Title", lines[0])
	assert.Equal(t, `2025-03-03,01:30 PM,"Essay, draft"`, lines[2])
}

func TestCSVExporterRejectsRaggedRows(t *testing.T) {
	table := sampleTable()
	table.Rows = append(table.Rows, Row{Cells: []string{"only one"}})
	_, err := NewCSVExporter().Render(table)
	assert.Error(t, err)

	_, err = NewCSVExporter().Render(Table{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleTable())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "%PDF"))

	empty := sampleTable()
	empty.Rows = nil
	out, err = NewPDFExporter().Render(empty)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestColumnWidthsShareRemainder(t *testing.T) {
	widths := columnWidths([]Column{{Width: 30}, {}, {}})
	assert.Equal(t, []float64{30, 80, 80}, widths)
}

func TestICalExporterRender(t *testing.T) {
	exp := NewICalExporter("")
	exp.now = func() time.Time { return time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC) }

	start := time.Date(2025, time.March, 3, 8, 0, 0, 0, time.UTC)
	out, err := exp.Render("Planner", []Event{
		{
			UID:      "class-1@planner",
			Summary:  "Algebra",
			Location: "Room 4",
			Start:    start,
			End:      start.Add(90 * time.Minute),
			RRule:    "FREQ=WEEKLY;BYDAY=MO,WE;UNTIL=20250331T235959Z",
		},
		{
			UID:     "task-1@planner",
			Summary: "Essay",
			Start:   time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC),
			End:     time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC),
			AllDay:  true,
		},
	})
	require.NoError(t, err)
	body := string(out)
	assert.Contains(t, body, "BEGIN:VCALENDAR")
	assert.Contains(t, body, "UID:class-1@planner")
	assert.Contains(t, body, "SUMMARY:Algebra")
	assert.Contains(t, body, "RRULE:FREQ=WEEKLY;BYDAY=MO,WE;UNTIL=20250331T235959Z")
	assert.Contains(t, body, "DTSTART:20250303T080000Z")
	assert.Contains(t, body, "UID:task-1@planner")
	assert.Equal(t, 2, strings.Count(body, "BEGIN:VEVENT"))
}

func TestICalExporterValidatesEvents(t *testing.T) {
	exp := NewICalExporter("")
	_, err := exp.Render("", []Event{{Summary: "no uid"}})
	assert.Error(t, err)

	now := time.Now()
	_, err = exp.Render("", []Event{{UID: "x", Start: now, End: now.Add(-time.Hour)}})
	assert.Error(t, err)
}
