package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/planner-api/internal/models"
	appErrors "github.com/noah-isme/planner-api/pkg/errors"
	"github.com/noah-isme/planner-api/pkg/export"
	"github.com/noah-isme/planner-api/pkg/recurrence"
	"github.com/noah-isme/planner-api/pkg/timecode"
)

// ExportFormat enumerates agenda export encodings.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
	ExportFormatICS ExportFormat = "ics"
)

// ExportResult is a rendered agenda ready to be streamed.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
}

type agendaBuilder interface {
	Month(ctx context.Context, year int, month time.Month) (*models.Agenda, error)
}

type csvRenderer interface {
	Render(table export.Table) ([]byte, error)
}

type pdfRenderer interface {
	Render(table export.Table) ([]byte, error)
}

type icalRenderer interface {
	Render(name string, events []export.Event) ([]byte, error)
}

// ExportService renders month agendas as CSV, PDF or iCalendar.
type ExportService struct {
	agenda agendaBuilder
	csv    csvRenderer
	pdf    pdfRenderer
	ical   icalRenderer
	loc    *time.Location
	logger *zap.Logger
}

// NewExportService constructs an ExportService. Calendar times are placed in loc.
func NewExportService(agenda agendaBuilder, loc *time.Location, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer, ical icalRenderer) *ExportService {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if ical == nil {
		ical = export.NewICalExporter("")
	}
	return &ExportService{agenda: agenda, csv: csv, pdf: pdf, ical: ical, loc: loc, logger: logger}
}

// ParseExportFormat validates a format query value.
func ParseExportFormat(raw string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(raw))); f {
	case ExportFormatCSV, ExportFormatPDF, ExportFormatICS:
		return f, nil
	case "":
		return ExportFormatCSV, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", raw))
	}
}

// Month renders the agenda of the given month in format.
func (s *ExportService) Month(ctx context.Context, year int, month time.Month, format ExportFormat) (*ExportResult, error) {
	agenda, err := s.agenda.Month(ctx, year, month)
	if err != nil {
		return nil, err
	}
	base := fmt.Sprintf("agenda-%04d-%02d", year, int(month))

	var body []byte
	result := &ExportResult{}
	switch format {
	case ExportFormatCSV:
		body, err = s.csv.Render(agendaTable(agenda))
		result.Filename, result.ContentType = base+".csv", "text/csv"
	case ExportFormatPDF:
		body, err = s.pdf.Render(agendaTable(agenda))
		result.Filename, result.ContentType = base+".pdf", "application/pdf"
	case ExportFormatICS:
		var events []export.Event
		events, err = s.agendaEvents(agenda)
		if err == nil {
			body, err = s.ical.Render(fmt.Sprintf("Planner %s %d", month, year), events)
		}
		result.Filename, result.ContentType = base+".ics", "text/calendar"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		s.logger.Error("agenda export failed", zap.String("format", string(format)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render agenda")
	}
	result.Body = body
	return result, nil
}

func agendaTable(agenda *models.Agenda) export.Table {
	table := export.Table{
		Title: fmt.Sprintf("Agenda %s %d", agenda.Month, agenda.Year),
		Columns: []export.Column{
			{Header: "Date", Width: 24},
			{Header: "Time", Width: 38},
			{Header: "Kind", Width: 20},
			{Header: "Title"},
			{Header: "Location", Width: 35},
		},
	}
	for _, day := range agenda.Days {
		group := day.Date.Format("Monday, 02 January")
		for _, item := range day.Items {
			table.Rows = append(table.Rows, export.Row{
				Group: group,
				Cells: []string{day.Date.Format(dateLayout), itemTimeRange(item), string(item.Kind), item.Title, item.Location},
			})
		}
	}
	for _, item := range agenda.Unscheduled {
		table.Rows = append(table.Rows, export.Row{
			Group: "Unscheduled",
			Cells: []string{"TBA", itemTimeRange(item), string(item.Kind), item.Title, item.Location},
		})
	}
	return table
}

func itemTimeRange(item models.AgendaItem) string {
	switch {
	case item.AllDay || item.Time == "":
		return "all day"
	case item.EndTime != "":
		return item.Time + " - " + item.EndTime
	default:
		return item.Time
	}
}

// agendaEvents converts the agenda into calendar events. Class entries become
// one weekly event per entry starting on its first occurrence in the month
// and repeating until the month ends; TBA classes are left out.
func (s *ExportService) agendaEvents(agenda *models.Agenda) ([]export.Event, error) {
	monthEnd := time.Date(agenda.Year, agenda.Month+1, 1, 0, 0, 0, 0, s.loc).Add(-time.Second)
	seenClass := make(map[string]bool)
	var events []export.Event

	for _, day := range agenda.Days {
		for _, item := range day.Items {
			if item.Kind == models.EntityClassEntry && seenClass[item.EntityID] {
				continue
			}
			ev := export.Event{
				UID:      fmt.Sprintf("%s-%s@planner-api", item.Kind, item.EntityID),
				Summary:  item.Title,
				Location: item.Location,
			}
			if item.Kind != models.EntityClassEntry {
				ev.UID = fmt.Sprintf("%s-%s-%s@planner-api", item.Kind, item.EntityID, day.Date.Format("20060102"))
			}

			if item.AllDay || item.Time == "" {
				ev.AllDay = true
				ev.Start, ev.End = day.Date, day.Date
			} else {
				start, err := s.at(day.Date, item.Time)
				if err != nil {
					return nil, err
				}
				end := start.Add(time.Hour)
				if item.EndTime != "" {
					if end, err = s.at(day.Date, item.EndTime); err != nil {
						return nil, err
					}
				}
				ev.Start, ev.End = start, end
			}

			if item.Kind == models.EntityClassEntry {
				seenClass[item.EntityID] = true
				rule, err := recurrence.ParseRule(item.Weekdays)
				if err != nil {
					return nil, err
				}
				ev.RRule = rule.RRule() + ";UNTIL=" + monthEnd.UTC().Format("20060102T150405Z")
			}
			events = append(events, ev)
		}
	}
	return events, nil
}

func (s *ExportService) at(day time.Time, display string) (time.Time, error) {
	tod, err := timecode.Parse(display)
	if err != nil {
		return time.Time{}, err
	}
	hour, minute := tod.Clock()
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, s.loc), nil
}
