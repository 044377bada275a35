package services

import (
	"bytes"
	"fmt"
	"strings"

	"leadengine/internal/domain/models"
	"leadengine/internal/utils"

	"github.com/phpdave11/gofpdf"
)

func buildValuationPDF(v models.Valuation) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Valuation report", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "VALUATION REPORT")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("No      : VAL-%d", v.ID))
	pdf.Ln(7)
	pdf.Cell(0, 7, "Date    : "+utils.FormatDateTime(v.CreatedAt))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Property")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 11)
	lines := []string{
		fmt.Sprintf("Type          : %s", safe(v.PropertyType, "-")),
		fmt.Sprintf("Locality      : %s", safe(v.Locality, "-")),
		fmt.Sprintf("Neighborhood  : %s", safe(v.Neighborhood, "-")),
		fmt.Sprintf("Covered area  : %.2f m2", v.CoveredArea),
		fmt.Sprintf("Total area    : %s", optionalArea(v.TotalArea)),
		fmt.Sprintf("Bedrooms      : %s", optionalInt(v.Bedrooms)),
		fmt.Sprintf("Bathrooms     : %s", optionalInt(v.Bathrooms)),
		fmt.Sprintf("Condition     : %s", safe(v.Condition, "-")),
		fmt.Sprintf("Extras        : %s", safe(strings.Join(v.Extras, ", "), "-")),
	}
	for _, s := range lines {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Estimate")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, utils.FormatMoney(v.EstimatedValue, v.Currency))
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Range: %s - %s",
		utils.FormatMoney(v.MinimumValue, v.Currency),
		utils.FormatMoney(v.MaximumValue, v.Currency)))
	pdf.Ln(7)
	pdf.Cell(0, 7, "Pricing rule: "+ruleLabel(v.RuleSource))
	pdf.Ln(10)

	if name := strings.TrimSpace(v.Name + " " + v.Surname); name != "" || v.Email != "" {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 7, "Requested by")
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 11)
		pdf.Cell(0, 7, fmt.Sprintf("Name   : %s", safe(name, "-")))
		pdf.Ln(7)
		pdf.Cell(0, 7, fmt.Sprintf("Email  : %s", safe(v.Email, "-")))
		pdf.Ln(7)
		pdf.Cell(0, 7, fmt.Sprintf("Phone  : %s", safe(v.Phone, "-")))
		pdf.Ln(10)
	}

	pdf.SetFont("Helvetica", "I", 9)
	pdf.MultiCell(0, 5, "This is an automated estimate based on surface, condition and amenities. "+
		"It does not replace a professional appraisal by one of our advisors.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("VALUATION_%d_%s.pdf", v.ID, safeFilenamePart(v.PropertyType+"_"+v.Locality))
	return buf.Bytes(), filename, nil
}

func ruleLabel(source string) string {
	if source == "" || source == "default" {
		return "default market values"
	}
	return "#" + source
}

func optionalArea(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f m2", *v)
}

func optionalInt(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}

func safeFilenamePart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "NA"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	s = replacer.Replace(s)
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}
