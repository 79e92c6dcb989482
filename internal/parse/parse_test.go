package parse

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cellscraper/config"
	"cellscraper/internal/record"
)

const productPage = `
<html><body>
<div class="pdp-page-two-columns__col-1">
  <div class="product-information__title">Product type</div>
  <div class="product-information__data">Cell line
Continuous</div>
  <div class="product-information__title">Tissue</div>
  <div class="product-information__data">Kidney; Epithelial</div>
  <div class="product-information__title">Organism</div>
  <div class="product-information__data">Homo sapiens</div>
</div>

<span class="generic-accordion__item-title-text">Characteristics</span>
<div class="product-information__title">Growth properties</div>
<div class="product-information__data">Adherent</div>

<span class="generic-accordion__item-title-text">Handling information</span>
<div class="product-information__list">
  <div class="product-information__title">Unpacking and storage instructions</div>
  <div class="product-information__data">
    <ol>
      <li>Check packaging on arrival.</li>
      <li>Store in liquid nitrogen.</li>
    </ol>
  </div>
  <div class="product-information__title">Complete medium</div>
  <div class="product-information__data">EMEM supplemented with:
fetal bovine serum to 10%
L-glutamine to 2 mM</div>
  <div class="product-information__title">Atmosphere</div>
  <div class="product-information__data">Air, 95%; carbon dioxide (CO_2), 5%</div>
  <div class="product-information__title">Handling procedure</div>
  <div class="product-information__data">Volumes are for a 75 cm^2 flask.
    <ol>
      <li>Thaw the vial rapidly.</li>
      <li>Transfer the contents to a centrifuge tube.</li>
    </ol>
  </div>
  <div class="product-information__title">Subculturing procedure</div>
  <div class="product-information__data">Volumes used are for a 75 cm^2 flask.
Subcultivation ratio: 1:2 to 1:4
Medium renewal: 2 to 3 times per week
    <ol>
      <li>Remove and discard culture medium.</li>
      <li>Rinse with PBS solution.</li>
    </ol>
  </div>
</div>

<div class="modal-image-gallery__open-modal">
  <img alt="Micrograph, low density" src="/img/low.jpg"/>
</div>
<div class="modal-image-gallery__open-modal">
  <img alt="Micrograph, high density" src="/img/high.jpg"/>
</div>

<span class="product-pricing__current-price">$1,234.50&nbsp;/ unit</span>
</body></html>`

func newTestParser() *PageParser {
	cfg := config.LoadConfig()
	return NewPageParser(&cfg)
}

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestParseRecordFullPage(t *testing.T) {
	p := newTestParser()
	doc := parseDoc(t, productPage)

	rec, err := p.ParseRecord(doc, "HEK-293", "CRL-1573", 7, "https://www.atcc.org/products/crl-1573")
	require.NoError(t, err)

	assert.Equal(t, 7, rec[record.FieldID])
	assert.Equal(t, "HEK-293", rec[record.FieldName])
	assert.Equal(t, "CRL-1573", rec[record.FieldCatalog])
	assert.Equal(t, "https://www.atcc.org/products/crl-1573", rec[record.FieldLink])
}

func TestParseBasicInfo(t *testing.T) {
	p := newTestParser()
	doc := parseDoc(t, productPage)

	rec := record.NewRecord(1, "HEK-293", "CRL-1573")
	require.NoError(t, p.parseBasicInfo(doc, rec))

	assert.Equal(t, []string{"Cell line", "Continuous"}, rec["Product type"])
	assert.Equal(t, []string{"Kidney", "Epithelial"}, rec["Tissue"])

	organism, ok := rec["Organism"].(*string)
	require.True(t, ok)
	require.NotNil(t, organism)
	assert.Equal(t, "Homo sapiens", *organism)
}

func TestParseBasicInfoMissingColumn(t *testing.T) {
	p := newTestParser()
	doc := parseDoc(t, `<html><body><p>nothing here</p></body></html>`)

	rec := record.NewRecord(1, "HEK-293", "CRL-1573")
	err := p.parseBasicInfo(doc, rec)
	assert.Error(t, err)
}

func TestParseCharacteristics(t *testing.T) {
	p := newTestParser()
	doc := parseDoc(t, productPage)

	rec := record.NewRecord(1, "HEK-293", "CRL-1573")
	p.parseHandlingInfo(doc, rec)

	growth, ok := rec["Growth properties"].(*string)
	require.True(t, ok)
	require.NotNil(t, growth)
	assert.Equal(t, "Adherent", *growth)
}

func TestParseHandlingDetails(t *testing.T) {
	p := newTestParser()
	doc := parseDoc(t, productPage)

	rec := record.NewRecord(1, "HEK-293", "CRL-1573")
	p.parseHandlingInfo(doc, rec)

	unpacking, ok := rec["Unpacking and storage instructions"].(map[int]string)
	require.True(t, ok)
	assert.Equal(t, map[int]string{
		1: "Check packaging on arrival.",
		2: "Store in liquid nitrogen.",
	}, unpacking)

	medium, ok := rec["Complete medium"].(*string)
	require.True(t, ok)
	require.NotNil(t, medium)
	assert.Equal(t, "EMEM supplemented with: fetal bovine serum to 10%, L-glutamine to 2 mM", *medium)

	assert.Equal(t, []string{"Air", "95%; carbon dioxide (CO_2)", "5%"}, rec["Atmosphere"])
}

func TestParseHandlingProcedure(t *testing.T) {
	p := newTestParser()
	doc := parseDoc(t, productPage)

	rec := record.NewRecord(1, "HEK-293", "CRL-1573")
	p.parseHandlingInfo(doc, rec)

	proc, ok := rec["Handling procedure"].(record.Procedure)
	require.True(t, ok)
	require.NotNil(t, proc.Description)
	assert.Equal(t, "Volumes are for a 75 cm^2 flask.", *proc.Description)
	assert.Equal(t, map[int]string{
		1: "Thaw the vial rapidly.",
		2: "Transfer the contents to a centrifuge tube.",
	}, proc.Steps)
}

func TestParseSubculturing(t *testing.T) {
	p := newTestParser()
	doc := parseDoc(t, productPage)

	rec := record.NewRecord(1, "HEK-293", "CRL-1573")
	p.parseHandlingInfo(doc, rec)

	proc, ok := rec["Subculturing procedure"].(record.Procedure)
	require.True(t, ok)
	require.NotNil(t, proc.Description)
	assert.Equal(t, "Volumes used are for a 75 cm^2 flask.", *proc.Description)
	assert.Equal(t, map[int]string{
		1: "Remove and discard culture medium.",
		2: "Rinse with PBS solution.",
	}, proc.Steps)

	ratio, ok := rec["Subcultivation ratio"].(*string)
	require.True(t, ok)
	require.NotNil(t, ratio)
	assert.Equal(t, "1:2 to 1:4", *ratio)

	renewal, ok := rec["Medium renewal"].(*string)
	require.True(t, ok)
	require.NotNil(t, renewal)
	assert.Equal(t, "2 to 3 times per week", *renewal)
}

func TestParseSubculturingRunOnRatioLine(t *testing.T) {
	p := newTestParser()
	doc := parseDoc(t, `
<html><body>
<span class="generic-accordion__item-title-text">Handling information</span>
<div class="product-information__list">
  <div class="product-information__title">Subculturing procedure</div>
  <div class="product-information__data">Subcultivation ratio: 1:4 Medium renewal: twice weekly
    <ol><li>Discard medium.</li></ol>
  </div>
</div>
</body></html>`)

	rec := record.NewRecord(1, "HEK-293", "CRL-1573")
	p.parseHandlingInfo(doc, rec)

	ratio, ok := rec["Subcultivation ratio"].(*string)
	require.True(t, ok)
	require.NotNil(t, ratio)
	assert.Equal(t, "1:4", *ratio)

	renewal, ok := rec["Medium renewal"].(*string)
	require.True(t, ok)
	require.NotNil(t, renewal)
	assert.Equal(t, "twice weekly", *renewal)
}

func TestParseSubculturingHeaderlessMarkers(t *testing.T) {
	p := newTestParser()

	// No list markup and no frozen-cells header: the digit markers alone
	// must drive segmentation, one clean step per marker.
	doc := parseDoc(t, `
<html><body>
<span class="generic-accordion__item-title-text">Handling information</span>
<div class="product-information__list">
  <div class="product-information__title">Subculturing procedure</div>
  <div class="product-information__data">1. Remove and discard culture medium. 2. Rinse with PBS solution. 3. Add trypsin solution.</div>
</div>
</body></html>`)

	rec := record.NewRecord(1, "HEK-293", "CRL-1573")
	p.parseHandlingInfo(doc, rec)

	proc, ok := rec["Subculturing procedure"].(record.Procedure)
	require.True(t, ok)
	assert.Equal(t, map[int]string{
		1: "Remove and discard culture medium.",
		2: "Rinse with PBS solution.",
		3: "Add trypsin solution.",
	}, proc.Steps)
}

func TestParseImages(t *testing.T) {
	p := newTestParser()

	doc := parseDoc(t, productPage)
	images := p.ParseImages(doc)
	assert.Equal(t, []record.Image{
		{"Micrograph, low density", "https://www.atcc.org/img/low.jpg"},
		{"Micrograph, high density", "https://www.atcc.org/img/high.jpg"},
	}, images)

	empty := parseDoc(t, `<html><body><p>no gallery</p></body></html>`)
	assert.Nil(t, p.ParseImages(empty))
}

func TestParsePrice(t *testing.T) {
	p := newTestParser()

	doc := parseDoc(t, productPage)
	price := p.ParsePrice(doc)
	require.NotNil(t, price)
	assert.Equal(t, 1234.50, *price)

	missing := parseDoc(t, `<html><body><p>no price</p></body></html>`)
	assert.Nil(t, p.ParsePrice(missing))

	garbled := parseDoc(t, `<html><body><span class="product-pricing__current-price">Call for quote</span></body></html>`)
	assert.Nil(t, p.ParsePrice(garbled))
}

func TestFindNextByClass(t *testing.T) {
	doc := parseDoc(t, `
<html><body>
<span class="anchor">start</span>
<div><p class="wanted">first</p></div>
<p class="wanted">second</p>
</body></html>`)

	anchor := doc.Find(".anchor")
	next := findNextByClass(anchor, "wanted")
	require.Equal(t, 1, next.Length())
	assert.Equal(t, "first", next.Text())
}
