package services

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/photovault/backend/internal/config"
	"github.com/photovault/backend/internal/models"
	qrcode "github.com/skip2/go-qrcode"
)

type QRService struct {
	cfg *config.Config
}

func NewQRService(cfg *config.Config) *QRService { return &QRService{cfg: cfg} }

// GenerateShareQRPDF generates a simple A4 PDF with a QR code for the album share link
func (s *QRService) GenerateShareQRPDF(link *models.ShareLink, albumName string) ([]byte, error) {
	shareURL := fmt.Sprintf("%s/share/%s", s.cfg.FrontendURL, link.Code)

	// Create QR PNG in memory
	var qrBuf bytes.Buffer
	png, err := qrcode.Encode(shareURL, qrcode.Medium, 512)
	if err != nil {
		return nil, err
	}
	qrBuf.Write(png)

	// Create PDF
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 10, albumName)
	pdf.Ln(12)
	pdf.SetFont("Arial", "", 12)
	pdf.MultiCell(0, 6, fmt.Sprintf("Shared album\nURL: %s", shareURL), "", "L", false)

	// Register image from reader
	opt := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
	pdf.RegisterImageOptionsReader("qr", opt, bytes.NewReader(qrBuf.Bytes()))

	// Center QR on the page
	x := (210.0 - 100.0) / 2.0 // A4 width 210mm, QR size 100mm
	y := pdf.GetY() + 10
	pdf.ImageOptions("qr", x, y, 100, 100, false, opt, 0, "")

	// Output to buffer
	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
