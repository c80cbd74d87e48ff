package domain

// HACCPItem is a single certified product returned by the HACCP registry
type HACCPItem struct {
	ReportNo    string `json:"prdlstReportNo" xml:"prdlstReportNo"`
	ProductName string `json:"prdlstNm" xml:"prdlstNm"`
	ProductKind string `json:"prdkind" xml:"prdkind"`
	Allergy     string `json:"allergy" xml:"allergy"`
	RawMaterial string `json:"rawmtrl" xml:"rawmtrl"`
	Nutrient    string `json:"nutrient,omitempty" xml:"nutrient"`
	Manufacture string `json:"manufacture,omitempty" xml:"manufacture"`
	ImageURL    string `json:"imgurl1,omitempty" xml:"imgurl1"`
}

// HACCPSearchResponse is the item list of one registry query
type HACCPSearchResponse struct {
	Items      []HACCPItem `json:"items"`
	TotalCount int         `json:"totalCount"`
}
