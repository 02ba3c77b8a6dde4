package submitter

// ValidationError rejects a batch before any conversion or remote call.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

var (
	errNoDocuments = &ValidationError{Reason: "no hay documentos para enviar"}
	errTooMany     = &ValidationError{Reason: "no se pueden enviar más de 50 documentos a la vez"}
	errMixedTypes  = &ValidationError{Reason: "todos los documentos deben ser del mismo tipo"}
	errNoCDC       = &ValidationError{Reason: "los documentos seleccionados no tienen CDC"}
	errNotInError  = &ValidationError{Reason: "el documento no está en estado Error"}
)
