package dispatch

// Kind classifies a dispatch failure. The HTTP layer maps each kind to a
// status code: validation → 400, everything else → 500.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindResource        // document storage, missing file, malformed items
	KindTransport       // mail relay or SMS provider
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindResource:
		return "resource"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// Client-facing validation messages. The frontend matches on these strings.
const (
	MsgMissingFields = "Missing recipient, method, content, or PDF"
	MsgInvalidJSON   = "Invalid JSON format in content"
	MsgNotObject     = "Content must be a dictionary"
	MsgInvalidEmail  = "Invalid email address"
	MsgInvalidPhone  = "Invalid phone number"
	MsgInvalidMethod = "Invalid method"
	MsgInvalidPDF    = "Invalid PDF document"
)

// Error is the only error type Dispatch returns. Message is safe to show to
// the caller; Err carries the underlying cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

func invalid(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func failed(kind Kind, err error) *Error {
	return &Error{Kind: kind, Message: err.Error(), Err: err}
}
