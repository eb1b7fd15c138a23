package constants

// Method records which strategy produced an invoice. Stored verbatim.
type Method string

const (
	MethodModel       Method = "claude_model"
	MethodSpecialized Method = "specialized_template"
	MethodFallback    Method = "regex_fallback"
)

func (m Method) String() string { return string(m) }

// DefaultCurrency is applied when neither the model nor the text names one.
const DefaultCurrency = "USD"

// DefaultDocumentType is the label used when callers don't pass one.
const DefaultDocumentType = "invoice"
