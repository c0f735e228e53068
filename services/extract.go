package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/xmlquery"
	"github.com/fenilmodi00/allotment-gateway/models"
)

// ParseHTMLDocument parses a registrar page
func ParseHTMLDocument(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// ExtractHiddenFields returns every named hidden input of the document
func ExtractHiddenFields(doc *goquery.Document) map[string]string {
	fields := make(map[string]string)
	doc.Find(`input[type="hidden"], input[type="HIDDEN"]`).Each(func(_ int, input *goquery.Selection) {
		name, ok := input.Attr("name")
		if !ok || name == "" {
			return
		}
		value, _ := input.Attr("value")
		fields[name] = value
	})
	return fields
}

// ExtractMetaContent reads a <meta name=...> value such as a CSRF token
func ExtractMetaContent(doc *goquery.Document, name string) string {
	content, _ := doc.Find(fmt.Sprintf(`meta[name="%s"]`, name)).First().Attr("content")
	return strings.TrimSpace(content)
}

// ExtractSelectOptions lists the options matched by selector, skipping placeholders
func ExtractSelectOptions(doc *goquery.Document, selector string) []ListingCandidate {
	var candidates []ListingCandidate
	doc.Find(selector).Each(func(_ int, option *goquery.Selection) {
		value, _ := option.Attr("value")
		candidate := ListingCandidate{
			Label: strings.Join(strings.Fields(option.Text()), " "),
			Value: strings.TrimSpace(value),
		}
		if isPlaceholderOption(candidate) {
			return
		}
		candidates = append(candidates, candidate)
	})
	return candidates
}

func isPlaceholderOption(candidate ListingCandidate) bool {
	if candidate.Value == "" || candidate.Label == "" {
		return true
	}
	label := strings.ToLower(candidate.Label)
	return strings.HasPrefix(label, "select") || strings.HasPrefix(label, "--")
}

// ResultTable is a scraped result grid
type ResultTable struct {
	Headers []string
	Rows    [][]string
}

// ExtractResultTable returns the first result grid found by a comma-separated selector list.
// Selectors are tried in order, so "table#gvData, table" prefers the named grid. Tables that
// wrap other tables are page layout and are skipped. A grid needs a header row of at least two
// cells, one of them naming an allotted column. The first row is the header whether it uses th
// or td cells.
func ExtractResultTable(doc *goquery.Document, selector string) (ResultTable, bool) {
	if strings.TrimSpace(selector) == "" {
		selector = "table"
	}
	for _, candidate := range strings.Split(selector, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		if table, ok := findResultTable(doc, candidate); ok {
			return table, true
		}
	}
	return ResultTable{}, false
}

func findResultTable(doc *goquery.Document, selector string) (ResultTable, bool) {
	var result ResultTable
	found := false
	doc.Find(selector).EachWithBreak(func(_ int, tableSelection *goquery.Selection) bool {
		if !tableSelection.Is("table") || tableSelection.Find("table").Length() > 0 {
			return true
		}

		var rows [][]string
		tableSelection.ChildrenFiltered("thead, tbody").ChildrenFiltered("tr").Each(func(_ int, tr *goquery.Selection) {
			var cells []string
			tr.ChildrenFiltered("th, td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, strings.Join(strings.Fields(cell.Text()), " "))
			})
			if len(cells) > 0 {
				rows = append(rows, cells)
			}
		})
		if len(rows) == 0 || len(rows[0]) < 2 {
			return true
		}

		table := ResultTable{Headers: rows[0], Rows: rows[1:]}
		if table.AllottedColumn() < 0 {
			return true
		}
		result = table
		found = true
		return false
	})
	return result, found
}

// ColumnIndex returns the column of the first keyword found in any header, or -1.
// Keywords are tried in priority order.
func (t ResultTable) ColumnIndex(keywords ...string) int {
	for _, keyword := range keywords {
		for i, header := range t.Headers {
			if strings.Contains(strings.ToLower(header), keyword) {
				return i
			}
		}
	}
	return -1
}

// AllottedColumn finds the allotted-shares column, preferring headers that also mention shares
func (t ResultTable) AllottedColumn() int {
	fallback := -1
	for i, header := range t.Headers {
		lower := strings.ToLower(header)
		if !strings.Contains(lower, "allot") {
			continue
		}
		if strings.Contains(lower, "share") || strings.Contains(lower, "qty") || strings.Contains(lower, "quantity") {
			return i
		}
		if fallback < 0 {
			fallback = i
		}
	}
	return fallback
}

// Cell returns a trimmed cell or "" when the row is short
func (t ResultTable) Cell(row []string, column int) string {
	if column < 0 || column >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[column])
}

// ClassifyResultTable applies the scraped-form rule: header only is no record, otherwise any
// positive allotted cell is an allotment.
func ClassifyResultTable(table ResultTable, utility *UtilityService) (models.StatusKind, *models.AllotmentDetail) {
	if len(table.Rows) == 0 {
		return models.StatusNoRecordFound, nil
	}

	allottedColumn := table.AllottedColumn()
	if allottedColumn < 0 {
		return models.StatusUnknown, nil
	}

	status := models.StatusNotAllotted
	totalAllotted := 0
	for _, row := range table.Rows {
		if shares, ok := utility.ParseShareCount(table.Cell(row, allottedColumn)); ok && shares > 0 {
			status = models.StatusAllotted
			totalAllotted += shares
		}
	}

	first := table.Rows[0]
	detail := &models.AllotmentDetail{
		ApplicantName:     table.Cell(first, table.ColumnIndex("applicant", "investor", "name")),
		ApplicationNumber: table.Cell(first, table.ColumnIndex("application", "appl no", "appl. no")),
		DPID:              table.Cell(first, table.ColumnIndex("dp", "client id", "demat")),
		SharesAllotted:    intPtr(totalAllotted),
		Status:            status.Label(),
	}
	if column := table.ColumnIndex("applied"); column >= 0 {
		if applied, ok := utility.ParseShareCount(table.Cell(first, column)); ok {
			detail.SharesApplied = intPtr(applied)
		}
	}
	if column := table.ColumnIndex("refund"); column >= 0 {
		if refund, ok := utility.ExtractNumeric(table.Cell(first, column)); ok {
			detail.RefundAmount = floatPtr(refund)
		}
	}
	return status, detail
}

// DecodeMarkupPayload unwraps an ASP.NET {"d": "..."} envelope and entity-decodes the markup
func DecodeMarkupPayload(body []byte) (string, error) {
	var envelope struct {
		D json.RawMessage `json:"d"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", fmt.Errorf("failed to decode response envelope: %w", err)
	}
	if len(envelope.D) == 0 || string(envelope.D) == "null" {
		return "", nil
	}

	var markup string
	if err := json.Unmarshal(envelope.D, &markup); err != nil {
		// Some endpoints return the rows as a JSON array instead of a string
		return string(envelope.D), nil
	}
	return html.UnescapeString(strings.TrimSpace(markup)), nil
}

// ParseDataSetRows reads the record elements of a NewDataSet document, or a JSON array of objects.
// Field names are returned as the registrar spelled them.
func ParseDataSetRows(markup, recordElement string) ([]map[string]string, error) {
	markup = strings.TrimSpace(markup)
	if markup == "" {
		return nil, nil
	}
	if strings.HasPrefix(markup, "[") {
		return parseJSONRows(markup)
	}

	doc, err := xmlquery.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse dataset markup: %w", err)
	}

	var rows []map[string]string
	for _, record := range xmlquery.Find(doc, "//"+recordElement) {
		row := make(map[string]string)
		for child := record.FirstChild; child != nil; child = child.NextSibling {
			if child.Type != xmlquery.ElementNode {
				continue
			}
			row[child.Data] = strings.TrimSpace(child.InnerText())
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func parseJSONRows(markup string) ([]map[string]string, error) {
	var decoded []map[string]interface{}
	if err := json.Unmarshal([]byte(markup), &decoded); err != nil {
		return nil, fmt.Errorf("failed to parse dataset rows: %w", err)
	}

	utility := NewUtilityService()
	rows := make([]map[string]string, 0, len(decoded))
	for _, item := range decoded {
		row := make(map[string]string, len(item))
		for key, value := range item {
			row[key] = utility.StringValue(value)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// FirstField returns the first non-empty field among names, matched case-insensitively
func FirstField(row map[string]string, names ...string) string {
	for _, name := range names {
		if value, ok := row[name]; ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
		for key, value := range row {
			if strings.EqualFold(key, name) && strings.TrimSpace(value) != "" {
				return strings.TrimSpace(value)
			}
		}
	}
	return ""
}

// ContainsAny reports whether text contains any marker, case-insensitively
func ContainsAny(text string, markers []string) bool {
	lower := strings.ToLower(text)
	for _, marker := range markers {
		if marker != "" && strings.Contains(lower, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}
