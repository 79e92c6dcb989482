package record

// Well-known record field names. All other keys come straight from the
// product page's titled sections.
const (
	FieldID      = "ID"
	FieldName    = "Cell Name"
	FieldCatalog = "ATCC Number"
	FieldImages  = "Images"
	FieldPrice   = "Price"
	FieldLink    = "ATCC Link"
)

// Record is one catalog entry's full extracted state. Keys are the display
// field names as rendered by the site; the set of keys varies per product.
type Record map[string]any

// NewRecord seeds a record with the identity fields every entry carries.
func NewRecord(id int, name, catalog string) Record {
	return Record{
		FieldID:      id,
		FieldName:    name,
		FieldCatalog: catalog,
	}
}

// Procedure is a free-text description plus ordered numbered steps. Either
// side may be null when extraction found no structure.
type Procedure struct {
	Description *string        `json:"Description"`
	Steps       map[int]string `json:"Procedure"`
}

// Image is a (label, URL) pair, serialized as a two-element array.
type Image [2]string

// Label returns the image's alt text.
func (im Image) Label() string { return im[0] }

// URL returns the image's absolute source URL.
func (im Image) URL() string { return im[1] }
