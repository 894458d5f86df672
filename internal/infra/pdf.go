package infra

// pdf.go — warehouse pick list generation using go-pdf/fpdf.
// One A5 sheet per issue ticket: ticket code, warehouse, flow type, and an
// item table (SKU/name, quantity, a blank picked column for the floor).
// The output file is saved to storagePath/picklist_{code}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hoanggiatri/supply-chain-management-sub002/internal/model"

	"github.com/go-pdf/fpdf"
)

// GeneratePickListPDF renders the pick list for an issue ticket. itemNames
// maps item ids to display names (resolved from master data by the caller;
// missing entries fall back to the raw id). Returns the absolute path to the
// generated file.
func GeneratePickListPDF(ticket *model.IssueTicket, itemNames map[string]string, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("picklist_%s.pdf", ticket.Code)
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 20

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentW, 8, "PICK LIST", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(contentW, 6, ticket.Code, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Warehouse: %s", ticket.WarehouseID), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Flow: %s   Ref: %s", ticket.IssueType, ticket.ReferenceID), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, ticket.CreatedAt.Format("02/01/2006 15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.Line(10, pdf.GetY(), pageW-10, pdf.GetY())
	pdf.Ln(2)

	// ── Item table ───────────────────────────────────────────────────────────
	col1 := contentW * 0.60 // item
	col2 := contentW * 0.20 // qty
	col3 := contentW * 0.20 // picked (blank)

	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(col1, 6, "Item", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 6, "Qty", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 6, "Picked", "B", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	for _, line := range ticket.Lines {
		name := itemNames[line.ItemID.String()]
		if name == "" {
			name = line.ItemID.String()
		}
		if len(name) > 40 {
			name = name[:39] + "…"
		}
		pdf.CellFormat(col1, 6, name, "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 6, fmt.Sprintf("%d", line.Quantity), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 6, "____", "", 1, "C", false, 0, "")
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.CellFormat(contentW, 4, "Picker signature: ______________________", "", 1, "L", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}
