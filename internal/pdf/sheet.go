package pdf

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"dienstplan/internal/models"
	"dienstplan/internal/timesheet"
)

// Колонки таблицы в процентах от рабочей ширины листа, как в печатной форме:
// Datum, Von, Bis, Dauer по 17%, Tätigkeit 32%.
var colWidths = [...]float64{17, 17, 17, 17, 32}

var colHeaders = [...]string{"Datum", "Von", "Bis", "Dauer", "Tätigkeit"}

// Sheet описывает один формируемый отчёт.
type Sheet struct {
	Employer string
	Account  models.Account
	Location models.Location
	Groups   []timesheet.MonthGroup
}

// Render отрисовывает лист учёта рабочего времени: по странице на каждый
// месяц, строки — из BuildRows с учётом настройки места ShowCompleteMonth.
func (s Sheet) Render() ([]byte, error) {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetMargins(18, 18, 18)
	tr := doc.UnicodeTranslatorFromDescriptor("") // cp1252, покрывает умлауты

	usable, _ := doc.GetPageSize()
	left, _, right, _ := doc.GetMargins()
	usable -= left + right

	for _, group := range s.Groups {
		doc.AddPage()

		doc.SetFont("Helvetica", "", 20)
		doc.CellFormat(usable, 12, tr("Vorlage zur Dokumentation der täglichen Arbeitszeit"), "", 1, "C", false, 0, "")
		doc.Ln(4)

		doc.SetFont("Helvetica", "", 11)
		s.headerLine(doc, tr, "Arbeitgeber: ", s.Employer)
		s.headerLine(doc, tr, "Name des Mitarbeiters: ", s.Account.FirstName+" "+s.Account.LastName)

		doc.SetFont("Helvetica", "", 11)
		doc.CellFormat(usable/2, 8, tr(fmt.Sprintf("Personal-Nr.: %05d", s.Account.ID)), "", 0, "L", false, 0, "")
		doc.CellFormat(usable/2, 8, tr("Zeitraum: "+group.Key.Label()), "", 1, "R", false, 0, "")
		doc.Ln(4)

		rows := timesheet.BuildRows(group.Entries, s.Location.ShowCompleteMonth)
		s.table(doc, tr, usable, rows)

		doc.Ln(2)
		doc.SetFont("Helvetica", "B", 13)
		doc.CellFormat(usable, 10, tr("Summe: "+group.TotalLabel()), "T", 1, "L", false, 0, "")

		if len(group.Remarks) > 0 {
			doc.Ln(4)
			doc.SetFont("Helvetica", "B", 11)
			doc.CellFormat(usable, 8, tr("Bemerkungen"), "", 1, "L", false, 0, "")
			doc.SetFont("Helvetica", "", 10)
			for _, e := range group.Remarks {
				label := fmt.Sprintf("%02d.%02d.: %s", e.TimeFrom.Day(), int(e.TimeFrom.Month()), e.Remark)
				doc.MultiCell(usable, 6, tr(label), "", "L", false)
			}
		}
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("формирование PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (s Sheet) headerLine(doc *gofpdf.Fpdf, tr func(string) string, label, value string) {
	doc.SetFont("Helvetica", "", 11)
	doc.CellFormat(doc.GetStringWidth(tr(label))+1, 8, tr(label), "", 0, "L", false, 0, "")
	doc.SetFont("Helvetica", "B", 11)
	doc.SetTextColor(0, 0, 180)
	doc.CellFormat(0, 8, tr(value), "", 1, "L", false, 0, "")
	doc.SetTextColor(0, 0, 0)
}

func (s Sheet) table(doc *gofpdf.Fpdf, tr func(string) string, usable float64, rows []timesheet.Row) {
	doc.SetFont("Helvetica", "B", 11)
	doc.SetFillColor(0, 0, 0)
	doc.SetTextColor(255, 255, 255)
	for i, h := range colHeaders {
		doc.CellFormat(usable*colWidths[i]/100, 9, tr(h), "", 0, "C", true, 0, "")
	}
	doc.Ln(-1)

	doc.SetFont("Helvetica", "", 10)
	for _, row := range rows {
		if row.IsSunday {
			doc.SetTextColor(180, 60, 60)
		} else {
			doc.SetTextColor(0, 0, 0)
		}

		cells := [...]string{row.Date, "", "", "", ""}
		if !row.Empty {
			cells = [...]string{
				row.Date,
				row.Start + " Uhr",
				row.End + " Uhr",
				row.Duration,
				row.TaskTitle,
			}
		}
		for i, cell := range cells {
			doc.CellFormat(usable*colWidths[i]/100, 7, tr(cell), "B", 0, "C", false, 0, "")
		}
		doc.Ln(-1)
	}
	doc.SetTextColor(0, 0, 0)
}
