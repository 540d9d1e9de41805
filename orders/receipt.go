package orders

import (
	"bytes"
	"context"
	"fmt"

	"blackline/models"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Receipt renders an order the caller may read as a PDF. The QR code carries
// the order id so staff can look it up from a printout.
func (s *Service) Receipt(ctx context.Context, id models.Identity, orderID primitive.ObjectID) ([]byte, error) {
	o, err := s.authorized(ctx, id, orderID)
	if err != nil {
		return nil, err
	}
	v, err := s.view(ctx, o, nil)
	if err != nil {
		return nil, err
	}
	return renderReceipt(v)
}

func renderReceipt(v *models.OrderView) ([]byte, error) {
	pdf, err := buildReceipt(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("receipt pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// buildReceipt lays out the receipt. The core fonts are cp1252, so
// customer-supplied text goes through tr first.
func buildReceipt(v *models.OrderView) (*gofpdf.Fpdf, error) {
	qrPNG, err := qrcode.Encode("order:"+v.ID.Hex(), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("receipt qr: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Order Receipt")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 8, "Order: "+v.ID.Hex())
	pdf.Ln(8)
	pdf.Cell(0, 8, "Date: "+v.CreatedAt.Format("2006-01-02 15:04"))
	pdf.Ln(8)
	pdf.Cell(0, 8, "Status: "+string(v.Status))
	pdf.Ln(8)
	if name := customerName(v); name != "" {
		pdf.Cell(0, 8, "Customer: "+tr(name))
		pdf.Ln(8)
	}
	a := v.ShippingAddress
	pdf.Cell(0, 8, tr(fmt.Sprintf("Ship to: %s, %s %s %s", a.Street, a.City, a.PostalCode, a.Country)))
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(90, 8, "Item", "B", 0, "L", false, 0, "")
	pdf.CellFormat(20, 8, "Qty", "B", 0, "R", false, 0, "")
	pdf.CellFormat(30, 8, "Price", "B", 0, "R", false, 0, "")
	pdf.CellFormat(30, 8, "Subtotal", "B", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 12)
	for _, line := range v.Items {
		name := "(removed product)"
		if line.Product != nil {
			name = line.Product.Name
		}
		if variant := variantLabel(line.Size, line.Color); variant != "" {
			name += " " + variant
		}
		pdf.CellFormat(90, 8, tr(name), "", 0, "L", false, 0, "")
		pdf.CellFormat(20, 8, fmt.Sprint(line.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(30, 8, line.Price.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(30, 8, line.Price.Times(line.Quantity).StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(140, 10, "Total", "T", 0, "R", false, 0, "")
	pdf.CellFormat(30, 10, v.Total.StringFixed(2), "T", 1, "R", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 8, "Payment: "+string(v.PaymentMethod))

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 150, 20, 40, 40, false, imageOpts, 0, "")

	return pdf, pdf.Error()
}

func customerName(v *models.OrderView) string {
	switch {
	case v.User != nil && v.User.Name != "":
		return v.User.Name
	case v.GuestInfo != nil:
		return v.GuestInfo.Name
	}
	return ""
}

func variantLabel(size, color string) string {
	switch {
	case size != "" && color != "":
		return "(" + size + ", " + color + ")"
	case size != "":
		return "(" + size + ")"
	case color != "":
		return "(" + color + ")"
	}
	return ""
}
