// Package parse maps a product page's DOM regions to record fields.
package parse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"cellscraper/config"
	"cellscraper/helpers"
	"cellscraper/internal/record"
	"cellscraper/internal/segment"
	"cellscraper/internal/textutil"
	"cellscraper/pkg/errors"
)

// Titles whose values are comma-separated multi-value lists.
var commaListTitles = map[string]struct{}{
	"Product type":   {},
	"Applications":   {},
	"Classification": {},
}

var mediumRenewalTokenRe = regexp.MustCompile(`(?i)Medium renewal`)

// PageParser extracts one Record from a parsed product page.
type PageParser struct {
	sel     config.Selectors
	baseURL string
	cleaner *textutil.Cleaner

	structured   segment.Strategy
	unstructured segment.Strategy
	chain        *segment.Chain
}

// NewPageParser builds a parser bound to the configured selectors and base
// URL, using the default segmentation chain.
func NewPageParser(cfg *config.Config) *PageParser {
	structured := segment.NewStructuredStrategy()
	unstructured := segment.NewUnstructuredStrategy(segment.NewVerbPredicate())
	return &PageParser{
		sel:          cfg.Selectors,
		baseURL:      cfg.BaseURL,
		cleaner:      textutil.NewCleaner(),
		structured:   structured,
		unstructured: unstructured,
		// Handling procedures only take the structured parse when the
		// frozen-cells header is present; subculturing runs it ungated.
		chain: segment.NewChain(segment.HeaderGated(structured), unstructured),
	}
}

// ParseRecord assembles the full record for one catalog entry. The basic info
// column is the only region whose absence is an error; everything else
// degrades to missing fields.
func (p *PageParser) ParseRecord(doc *goquery.Document, name, catalog string, id int, url string) (record.Record, error) {
	textutil.NormalizeMarkup(doc)

	rec := record.NewRecord(id, name, catalog)
	if err := p.parseBasicInfo(doc, rec); err != nil {
		return nil, err
	}
	p.parseHandlingInfo(doc, rec)
	rec[record.FieldImages] = p.ParseImages(doc)
	rec[record.FieldPrice] = p.ParsePrice(doc)
	rec[record.FieldLink] = url

	return rec, nil
}

func (p *PageParser) parseBasicInfo(doc *goquery.Document, rec record.Record) error {
	section := doc.Find("." + p.sel.BasicInfoCol).First()
	if section.Length() == 0 {
		return errors.NewParsing("basic-info", "basic info column not found", nil)
	}

	titles := section.Find("." + p.sel.InfoTitle)
	datas := section.Find("." + p.sel.InfoData)

	n := titles.Length()
	if datas.Length() < n {
		n = datas.Length()
	}
	for i := 0; i < n; i++ {
		title := strings.TrimSpace(titles.Eq(i).Text())
		data := datas.Eq(i)

		if _, ok := commaListTitles[title]; ok {
			parts := strings.Split(strings.ReplaceAll(data.Text(), "\n", ","), ",")
			rec[title] = p.cleaner.CleanList(parts)
		} else if title == "Tissue" {
			rec[title] = p.cleaner.CleanList(strings.Split(data.Text(), ";"))
		} else {
			rec[title] = p.cleaner.Clean(data.Text())
		}
	}
	return nil
}

func (p *PageParser) parseHandlingInfo(doc *goquery.Document, rec record.Record) {
	doc.Find("." + p.sel.AccordionItem).Each(func(_ int, item *goquery.Selection) {
		switch strings.TrimSpace(item.Text()) {
		case "Characteristics":
			p.parseCharacteristics(item, rec)
		case "Handling information":
			p.parseHandlingDetails(item, rec)
		}
	})
}

func (p *PageParser) parseCharacteristics(item *goquery.Selection, rec record.Record) {
	growth := findNextByClass(item, p.sel.InfoTitle)
	if growth.Length() == 0 || strings.TrimSpace(growth.Text()) != "Growth properties" {
		return
	}
	data := findNextByClass(growth, p.sel.InfoData)
	if data.Length() > 0 {
		rec["Growth properties"] = p.cleaner.Clean(data.Text())
	}
}

func (p *PageParser) parseHandlingDetails(item *goquery.Selection, rec record.Record) {
	infoList := findNextByClass(item, p.sel.InfoList)
	if infoList.Length() == 0 {
		return
	}

	titles := infoList.Find("." + p.sel.InfoTitle)
	datas := infoList.Find("." + p.sel.InfoData)

	n := titles.Length()
	if datas.Length() < n {
		n = datas.Length()
	}
	for i := 0; i < n; i++ {
		title := strings.TrimSpace(titles.Eq(i).Text())
		data := datas.Eq(i)

		switch title {
		case "Unpacking and storage instructions":
			// Numbered-step extraction from list items only
			rec[title] = p.listSteps(data)

		case "Complete medium":
			rec[title] = p.parseMedium(data)

		case "Atmosphere":
			rec[title] = p.cleaner.CleanList(strings.Split(data.Text(), ","))

		case "Handling procedure":
			if proc, ok := p.parseProcedure(data); ok {
				rec[title] = proc
			}

		case "Subculturing procedure":
			p.parseSubculturing(data, rec)

		default:
			rec[title] = p.cleaner.Clean(data.Text())
		}
	}
}

// listSteps extracts ordered-list items as 1-based steps.
func (p *PageParser) listSteps(data *goquery.Selection) map[int]string {
	steps := make(map[int]string)
	data.Find("li").Each(func(i int, li *goquery.Selection) {
		if cleaned := p.cleaner.Clean(li.Text()); cleaned != nil {
			steps[i+1] = *cleaned
		} else {
			steps[i+1] = ""
		}
	})
	return steps
}

// parseProcedure extracts a procedure region: explicit list markup first,
// then the paragraph strategy chain over the remaining text.
func (p *PageParser) parseProcedure(data *goquery.Selection) (record.Procedure, bool) {
	steps := p.listSteps(data)

	// Excise the ordered list so its text is not double-counted below.
	data.Find("ol").Remove()
	text := data.Text()

	desc := text
	if len(steps) == 0 {
		res := p.chain.Parse(text)
		desc = res.Description
		steps = res.Steps
	}

	if strings.TrimSpace(desc) == "" && len(steps) == 0 {
		return record.Procedure{}, false
	}
	proc := record.Procedure{Description: p.cleaner.Clean(desc)}
	if len(steps) > 0 {
		proc.Steps = steps
	}
	return proc, true
}

// parseSubculturing handles the subculturing region, which besides the
// procedure carries "subcultivation ratio" and "medium renewal" key-value
// lines that become dedicated scalar fields.
func (p *PageParser) parseSubculturing(data *goquery.Selection, rec record.Record) {
	steps := p.listSteps(data)
	data.Find("ol").Remove()

	var lines []string
	if len(steps) > 0 {
		lines = strings.Split(data.Text(), "\n")
	} else {
		text := data.Text()
		res, ok := p.structured.Parse(text)
		if !ok {
			res, _ = p.unstructured.Parse(text)
		}
		steps = res.Steps
		lines = strings.Split(res.Description, "\n")
	}

	var description []string
	additional := make(map[string]*string)

	for _, line := range lines {
		if line == "" {
			continue
		}

		if !strings.Contains(line, ": ") || strings.Contains(line, "Note: ") {
			if cleaned := p.cleaner.Clean(line); cleaned != nil && *cleaned != "" {
				description = append(description, *cleaned)
			}
			continue
		}

		parts := strings.Split(line, ": ")
		for i := 0; i < len(parts)-1; i++ {
			lower := strings.ToLower(parts[i])
			if strings.Contains(lower, "subcultivation ratio") {
				// A run-on line carries the next label as a trailing token.
				value := mediumRenewalTokenRe.ReplaceAllString(parts[i+1], "")
				additional["Subcultivation ratio"] = p.cleaner.Clean(value)
			} else if strings.Contains(lower, "medium renewal") {
				additional["Medium renewal"] = p.cleaner.Clean(parts[i+1])
			}
		}
	}

	if len(description) > 0 || len(steps) > 0 {
		proc := record.Procedure{}
		if len(description) > 0 {
			joined := strings.Join(description, " ")
			proc.Description = &joined
		}
		if len(steps) > 0 {
			proc.Steps = steps
		}
		rec["Subculturing procedure"] = proc
	}
	for key, value := range additional {
		rec[key] = value
	}
}

// parseMedium reassembles the complete-medium block: a scalar when there is
// no bullet list, otherwise "prefix: bullet, bullet, ...".
func (p *PageParser) parseMedium(data *goquery.Selection) *string {
	parts := strings.SplitN(data.Text(), ":\n", 2)
	if len(parts) < 2 {
		return p.cleaner.Clean(parts[0])
	}

	var bullets []string
	for _, b := range strings.Split(parts[1], "\n") {
		if b != "" {
			bullets = append(bullets, b)
		}
	}
	return p.cleaner.Clean(parts[0] + ": " + strings.Join(bullets, ", "))
}

// ParseImages collects the gallery's (label, URL) pairs in document order.
// nil, not an empty list, when the page has no gallery.
func (p *PageParser) ParseImages(doc *goquery.Document) []record.Image {
	var images []record.Image
	doc.Find("." + p.sel.ImageGallery).Each(func(_ int, el *goquery.Selection) {
		img := el.Find("img").First()
		if img.Length() == 0 {
			return
		}
		src, ok := img.Attr("src")
		if !ok {
			return
		}
		alt, _ := img.Attr("alt")
		images = append(images, record.Image{alt, p.baseURL + src})
	})
	return images
}

// ParsePrice extracts the current price as a number. Absence of the marker or
// unparseable text yields nil, never an error.
func (p *PageParser) ParsePrice(doc *goquery.Document) *float64 {
	el := doc.Find("span." + p.sel.PriceCurrent).First()
	if el.Length() == 0 {
		return nil
	}

	text := strings.ReplaceAll(strings.TrimSpace(el.Text()), "\u00a0", " ")
	token, err := helpers.GetSplitPart(text, " ", 0)
	if err != nil || len(token) < 2 {
		return nil
	}

	// Drop the currency symbol and thousands separators.
	value := strings.ReplaceAll(token[1:], ",", "")
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	return &parsed
}
