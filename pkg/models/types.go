package models

// Category is the single winning content class of a classification.
type Category string

const (
	CategoryText    Category = "text"
	CategoryFile    Category = "file"
	CategoryImage   Category = "image"
	CategoryUnknown Category = "unknown"
)

// Text sub types that do not come from the text kind classifier.
const (
	SubTypeRTF  = "rtf"
	SubTypeHTML = "html"
)

// Priorities reported with each category. Lower wins; the value is for
// diagnostics only.
const (
	PriorityRTF     = 1
	PriorityHTML    = 2
	PriorityFile    = 3
	PriorityImage   = 4
	PriorityText    = 5
	PriorityUnknown = 99
)

// ContentDescriptor is the normalized result of classifying the clipboard.
// The wire key for Category is "type" to stay compatible with existing callers.
type ContentDescriptor struct {
	Category Category `json:"type" yaml:"type"`
	SubType  string   `json:"subType,omitempty" yaml:"subType,omitempty"`
	Priority int      `json:"priority" yaml:"priority"`
	HasData  bool     `json:"hasData" yaml:"hasData"`
	// Content is a string for text and a []string for files.
	Content     any    `json:"content,omitempty" yaml:"content,omitempty"`
	PrimaryPath string `json:"primaryPath,omitempty" yaml:"primaryPath,omitempty"`
	Length      *int   `json:"length,omitempty" yaml:"length,omitempty"`
}

// Unknown is the descriptor for a clipboard with nothing recognizable.
func Unknown() ContentDescriptor {
	return ContentDescriptor{Category: CategoryUnknown, Priority: PriorityUnknown}
}

// Text returns the text payload, if the descriptor carries one.
func (d ContentDescriptor) Text() (string, bool) {
	s, ok := d.Content.(string)
	return s, ok
}

// Paths returns the file list payload, or nil.
func (d ContentDescriptor) Paths() []string {
	p, _ := d.Content.([]string)
	return p
}

// OcrResult is produced once per recognition call and never cached.
type OcrResult struct {
	Text       string  `json:"text" yaml:"text"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// FormatsReport lists every normalized format present on the clipboard, the
// raw backend type names, and the sequence at query time.
type FormatsReport struct {
	Sequence       int64    `json:"sequence" yaml:"sequence"`
	Formats        []string `json:"formats" yaml:"formats"`
	AvailableTypes []string `json:"availableTypes" yaml:"availableTypes"`
	ImageFormat    string   `json:"imageFormat,omitempty" yaml:"imageFormat,omitempty"`
	Backend        string   `json:"backend" yaml:"backend"`
	// Timestamp is milliseconds since the Unix epoch.
	Timestamp int64 `json:"timestamp" yaml:"timestamp"`
}

// OCRAvailability describes whether OCR can run and with which languages.
type OCRAvailability struct {
	Available bool     `json:"available" yaml:"available"`
	Engine    string   `json:"engine,omitempty" yaml:"engine,omitempty"`
	Languages []string `json:"languages,omitempty" yaml:"languages,omitempty"`
}

func Ptr[T any](v T) *T {
	return &v
}
