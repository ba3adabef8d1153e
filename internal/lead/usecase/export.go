package usecase

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fekuna/catalog-storefront/internal/lead/dto"
	"github.com/fekuna/catalog-storefront/internal/model"
	"github.com/jung-kurt/gofpdf"
)

func (uc *leadUseCase) ExportCatalogueRequests(ctx context.Context, from, to *time.Time, w io.Writer) error {
	requests, _, err := uc.repo.ListCatalogueRequests(ctx, &dto.ListFilters{From: from, To: to})
	if err != nil {
		return err
	}

	pdf := renderRequests(requests, from, to, uc.now())
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render catalogue request report: %w", err)
	}
	return nil
}

func renderRequests(requests []model.CatalogueRequest, from, to *time.Time, generated time.Time) *gofpdf.Fpdf {
	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "Catalogue Requests", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 7, "Date Range: "+describeRange(from, to), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Generated: %s", generated.Format("2006-01-02 15:04 MST")), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Total Requests: %d", len(requests)), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	widths := []float64{32, 45, 60, 35, 45, 60}
	headers := []string{"Date", "Name", "Email", "Phone", "Company", "Product"}
	pdf.SetFont("Arial", "B", 10)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, r := range requests {
		company := ""
		if r.Company != nil {
			company = *r.Company
		}
		cells := []string{
			r.CreatedAt.Format("2006-01-02 15:04"),
			r.Name,
			r.Email,
			r.Phone,
			company,
			r.ProductName,
		}
		for i, v := range cells {
			pdf.CellFormat(widths[i], 7, tr(truncate(v, int(widths[i]/1.9))), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
	return pdf
}

func describeRange(from, to *time.Time) string {
	const layout = "2006-01-02"
	switch {
	case from != nil && to != nil:
		return from.Format(layout) + " to " + to.Format(layout)
	case from != nil:
		return "from " + from.Format(layout)
	case to != nil:
		return "up to " + to.Format(layout)
	}
	return "all time"
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
