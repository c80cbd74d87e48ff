package haccp

import (
	"strings"

	"github.com/allerscan/backend/internal/domain"
	"github.com/allerscan/backend/internal/pkg/textnorm"
)

// MapToProductEvidence converts a registry item to the evidence record returned to clients
func MapToProductEvidence(item domain.HACCPItem) domain.ProductEvidence {
	return domain.ProductEvidence{
		ReportNo:    item.ReportNo,
		ProductName: item.ProductName,
		ProductKind: item.ProductKind,
		AllergyRaw:  item.Allergy,
		RawMaterial: item.RawMaterial,
	}
}

// normalizeItem applies NFC and trims every text field; the registry pads values with whitespace and newlines
func normalizeItem(item domain.HACCPItem) domain.HACCPItem {
	return domain.HACCPItem{
		ReportNo:    strings.TrimSpace(item.ReportNo),
		ProductName: textnorm.Normalize(item.ProductName),
		ProductKind: textnorm.Normalize(item.ProductKind),
		Allergy:     textnorm.Normalize(item.Allergy),
		RawMaterial: textnorm.Normalize(item.RawMaterial),
		Nutrient:    textnorm.Normalize(item.Nutrient),
		Manufacture: textnorm.Normalize(item.Manufacture),
		ImageURL:    strings.TrimSpace(item.ImageURL),
	}
}
