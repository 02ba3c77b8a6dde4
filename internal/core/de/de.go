// Package de models the FacturaSend electronic-document ("DE") payload
// schema and the port to the remote provider.
package de

// DE is one document in the FacturaSend batch-creation schema.
//
// Monto and PrecioUnitario fields are typed any because the provider expects
// integer-valued strings for the zero-decimal currency (PYG) and plain
// numbers otherwise; the converter decides the concrete representation.
type DE struct {
	TipoDocumento   int       `json:"tipoDocumento"`
	Establecimiento int       `json:"establecimiento"`
	Punto           string    `json:"punto"`
	Numero          int       `json:"numero"`
	Descripcion     string    `json:"descripcion,omitempty"`
	Observacion     string    `json:"observacion,omitempty"`
	Fecha           string    `json:"fecha"`
	TipoEmision     int       `json:"tipoEmision"`
	TipoTransaccion int       `json:"tipoTransaccion"`
	TipoImpuesto    int       `json:"tipoImpuesto"`
	Moneda          string    `json:"moneda"`
	Cliente         Cliente   `json:"cliente"`
	Usuario         Usuario   `json:"usuario"`
	Factura         Factura   `json:"factura"`
	Condicion       Condicion `json:"condicion"`
	Items           []Item    `json:"items"`
}

// Cliente is the customer sub-record. RUC is present only for taxpayers;
// DocumentoTipo/DocumentoNumero only for non-taxpayers. The address block
// (Direccion through CiudadDescripcion) is emitted as a unit or not at all.
type Cliente struct {
	Contribuyente     bool   `json:"contribuyente"`
	RUC               string `json:"ruc,omitempty"`
	RazonSocial       string `json:"razonSocial"`
	NombreFantasia    string `json:"nombreFantasia"`
	TipoOperacion     int    `json:"tipoOperacion"`
	Pais              string `json:"pais"`
	PaisDescripcion   string `json:"paisDescripcion"`
	TipoContribuyente int    `json:"tipoContribuyente"`
	DocumentoTipo     int    `json:"documentoTipo,omitempty"`
	DocumentoNumero   string `json:"documentoNumero,omitempty"`
	Telefono          string `json:"telefono"`
	Celular           string `json:"celular"`
	Email             string `json:"email"`
	Codigo            string `json:"codigo"`

	Direccion               string `json:"direccion,omitempty"`
	NumeroCasa              string `json:"numeroCasa,omitempty"`
	Departamento            int    `json:"departamento,omitempty"`
	DepartamentoDescripcion string `json:"departamentoDescripcion,omitempty"`
	Distrito                int    `json:"distrito,omitempty"`
	DistritoDescripcion     string `json:"distritoDescripcion,omitempty"`
	Ciudad                  int    `json:"ciudad,omitempty"`
	CiudadDescripcion       string `json:"ciudadDescripcion,omitempty"`
}

// Usuario is the issuing user sub-record. Optional attributes default to the
// empty string, never null.
type Usuario struct {
	DocumentoTipo   int    `json:"documentoTipo"`
	DocumentoNumero string `json:"documentoNumero"`
	Nombre          string `json:"nombre"`
	Cargo           string `json:"cargo"`
}

// Factura carries invoice-level enumerations.
type Factura struct {
	Presencia int `json:"presencia"`
}

// Condicion is the payment condition: 1 = contado, 2 = crédito.
type Condicion struct {
	Tipo     int       `json:"tipo"`
	Entregas []Entrega `json:"entregas"`
	Credito  *Credito  `json:"credito,omitempty"`
}

// Entrega is one delivery line of the payment condition.
type Entrega struct {
	Tipo              int     `json:"tipo"`
	Monto             any     `json:"monto"`
	Moneda            string  `json:"moneda"`
	MonedaDescripcion string  `json:"monedaDescripcion"`
	Cambio            float64 `json:"cambio"`
}

// Credito describes the credit terms of a crédito condition.
type Credito struct {
	Tipo         int         `json:"tipo"`
	Plazo        string      `json:"plazo"`
	Cuotas       int         `json:"cuotas"`
	MontoEntrega float64     `json:"montoEntrega"`
	InfoCuotas   []InfoCuota `json:"infoCuotas"`
}

// InfoCuota is one installment of the credit schedule.
type InfoCuota struct {
	Moneda      string `json:"moneda"`
	Monto       any    `json:"monto"`
	Vencimiento string `json:"vencimiento,omitempty"`
}

// Item is one document line in provider schema.
type Item struct {
	Codigo         string            `json:"codigo"`
	Descripcion    string            `json:"descripcion"`
	Observacion    string            `json:"observacion,omitempty"`
	NCM            string            `json:"ncm,omitempty"`
	UnidadMedida   int               `json:"unidadMedida"`
	Cantidad       float64           `json:"cantidad"`
	PrecioUnitario any               `json:"precioUnitario"`
	Cambio         float64           `json:"cambio"`
	IvaTipo        int               `json:"ivaTipo"`
	IvaBase        int               `json:"ivaBase"`
	Iva            int               `json:"iva"`
	Extras         map[string]string `json:"extras,omitempty"`
}
