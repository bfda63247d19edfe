package invoice

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

// A4 in inches for Chrome's print-to-PDF.
const (
	paperWidthA4  = 8.27
	paperHeightA4 = 11.69
)

var filenameUnsafe = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// SanitizeFilename collapses anything unsafe for a filename into
// underscores and trims them from the ends.
func SanitizeFilename(s string) string {
	return strings.Trim(filenameUnsafe.ReplaceAllString(s, "_"), "_")
}

// PDFFileName builds the conventional invoice file name,
// LENGOLF_{supplier}_Inv_{number}.pdf.
func PDFFileName(supplierName, invoiceNumber string) string {
	return fmt.Sprintf("LENGOLF_%s_Inv_%s.pdf", SanitizeFilename(supplierName), SanitizeFilename(invoiceNumber))
}

// GeneratePDF prints the rendered invoice HTML to an A4 PDF at outPath
// using headless Chrome. An existing file at outPath is overwritten, which
// is what regenerating an invoice number should do.
func GeneratePDF(ctx context.Context, html []byte, outPath string) error {
	tmp, err := os.CreateTemp("", "lengolf-invoice-*.html")
	if err != nil {
		return fmt.Errorf("failed to create temp html file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(html); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp html file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp html file: %w", err)
	}

	l := launcher.New().Headless(true)
	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("failed to launch headless chrome: %w", err)
	}
	defer l.Cleanup()

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("failed to connect to chrome: %w", err)
	}
	defer browser.Close()

	absPath, err := filepath.Abs(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to resolve temp html path: %w", err)
	}
	page, err := browser.Page(proto.TargetCreateTarget{URL: "file://" + absPath})
	if err != nil {
		return fmt.Errorf("failed to open invoice page: %w", err)
	}
	defer page.Close()

	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("failed to load invoice page: %w", err)
	}

	pdf, err := page.PDF(&proto.PagePrintToPDF{
		PrintBackground: true,
		PaperWidth:      gson.Num(paperWidthA4),
		PaperHeight:     gson.Num(paperHeightA4),
	})
	if err != nil {
		return fmt.Errorf("failed to print invoice pdf: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fmt.Errorf("failed to create invoices directory: %w", err)
	}
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create pdf file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, pdf); err != nil {
		return fmt.Errorf("failed to write pdf file: %w", err)
	}
	return nil
}
