// Package service holds output renderers that sit between the repositories
// and the HTTP layer.
package service

import (
	"bytes"
	"fmt"

	"github.com/phpdave11/gofpdf"

	"github.com/iliyamo/airport-service/internal/model"
)

const eticketTimeLayout = "2006-01-02 15:04 MST"

// RenderETicket builds a one-page A4 PDF for a ticket: passenger, route,
// times, airplane and the seat.
func RenderETicket(d model.TicketDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("E-ticket %d", d.ID), false)
	pdf.SetCreator("airport-service", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 12, "Electronic ticket", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Ticket #%d  |  Order #%d", d.ID, d.OrderID), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, fmt.Sprintf("%s  ->  %s", d.RouteSource, d.RouteDestination), "B", 1, "L", false, 0, "")
	pdf.Ln(3)

	for _, row := range eticketRows(d) {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(50, 8, row[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 8, row[1], "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func eticketRows(d model.TicketDocument) [][2]string {
	passport := d.PassportNumber
	if passport == "" {
		passport = "-"
	}
	return [][2]string{
		{"Passenger", d.PassengerEmail},
		{"Passport", passport},
		{"Flight", fmt.Sprintf("#%d", d.FlightID)},
		{"Departure", d.DepartureTime.UTC().Format(eticketTimeLayout)},
		{"Arrival", d.ArrivalTime.UTC().Format(eticketTimeLayout)},
		{"Airplane", d.AirplaneName},
		{"Seat", fmt.Sprintf("row %d, seat %d", d.Row, d.Seat)},
	}
}
