/*
documents.go - Agreement and loan letter rendering

Letters are HTML rendered from templates, written under the document
directory and recorded as Document rows (path + sha256 + format
version). Dates and day counts appear in Spanish literal form, as the
signed paper does.
*/
package api

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/warp/hr-backend/loans"
	"github.com/warp/hr-backend/store"
)

// =============================================================================
// SPANISH LITERALS
// =============================================================================

var spanishMonths = [13]string{"",
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// FechaLiteral renders a date as "5 de marzo de 2025". Accepts both
// time.Time and *time.Time since model date fields are nullable.
func FechaLiteral(v any) string {
	var d time.Time
	switch t := v.(type) {
	case time.Time:
		d = t
	case *time.Time:
		if t == nil {
			return ""
		}
		d = *t
	default:
		return ""
	}
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%d de %s de %d", d.Day(), spanishMonths[d.Month()], d.Year())
}

// NumeroALetras spells out day counts up to the sixties, the range
// agreement letters actually use. Larger numbers fall back to digits.
func NumeroALetras(n int) string {
	unidades := []string{"cero", "uno", "dos", "tres", "cuatro", "cinco", "seis", "siete", "ocho", "nueve"}
	especiales := map[int]string{10: "diez", 11: "once", 12: "doce", 13: "trece", 14: "catorce", 15: "quince",
		16: "dieciséis", 17: "diecisiete", 18: "dieciocho", 19: "diecinueve"}
	decenas := map[int]string{20: "veinte", 30: "treinta", 40: "cuarenta", 50: "cincuenta", 60: "sesenta"}

	switch {
	case n >= 0 && n < 10:
		return unidades[n]
	case n >= 10 && n < 20:
		return especiales[n]
	case n >= 20 && n <= 60 && n%10 == 0:
		return decenas[n]
	case n > 20 && n < 30:
		return "veinte y " + unidades[n-20]
	case n > 30 && n < 40:
		return "treinta y " + unidades[n-30]
	case n > 40 && n < 50:
		return "cuarenta y " + unidades[n-40]
	case n > 50 && n < 60:
		return "cincuenta y " + unidades[n-50]
	}
	return strconv.Itoa(n)
}

// =============================================================================
// RENDERER
// =============================================================================

// DocumentRenderer turns domain rows into persisted letter files. An
// interface so PDF rasterization can slot in without touching handlers.
type DocumentRenderer interface {
	RenderAgreement(a *store.Agreement, emp *store.Employee) (path string, sum string, err error)
	RenderLoan(l *store.Loan) (path string, sum string, err error)
}

type TemplateRenderer struct {
	dir       string
	agreement *template.Template
	loan      *template.Template
}

func NewTemplateRenderer(dir string) *TemplateRenderer {
	funcs := template.FuncMap{
		"fechaLiteral":   FechaLiteral,
		"numeroALetras":  NumeroALetras,
		"nombreMes":      loans.MonthName,
		"montoConFormat": func(s string) string { return "S/ " + s },
	}
	return &TemplateRenderer{
		dir:       dir,
		agreement: template.Must(template.New("agreement").Funcs(funcs).Parse(agreementTemplate)),
		loan:      template.Must(template.New("loan").Funcs(funcs).Parse(loanTemplate)),
	}
}

func (t *TemplateRenderer) write(subdir, name string, buf []byte) (string, string, error) {
	dir := filepath.Join(t.dir, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", err
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return "", "", err
	}
	sum := sha256.Sum256(buf)
	return path, hex.EncodeToString(sum[:]), nil
}

func (t *TemplateRenderer) RenderAgreement(a *store.Agreement, emp *store.Employee) (string, string, error) {
	var buf bytes.Buffer
	data := map[string]any{
		"Agreement": a,
		"Employee":  emp,
		"Today":     time.Now(),
		"DiasLetra": NumeroALetras(a.TotalDays),
	}
	if err := t.agreement.Execute(&buf, data); err != nil {
		return "", "", err
	}
	return t.write("convenios", fmt.Sprintf("convenio_%d.html", a.ID), buf.Bytes())
}

func (t *TemplateRenderer) RenderLoan(l *store.Loan) (string, string, error) {
	var buf bytes.Buffer
	data := map[string]any{
		"Loan":     l,
		"Employee": l.Employee,
		"Today":    time.Now(),
	}
	if err := t.loan.Execute(&buf, data); err != nil {
		return "", "", err
	}
	return t.write("prestamos", fmt.Sprintf("prestamo_%d.html", l.ID), buf.Bytes())
}

// =============================================================================
// DOCUMENT HANDLERS
// =============================================================================

// GetAgreementDocument renders the convenio letter, records it and
// serves the file.
// GET /api/agreements/{id}/document
func (h *Handler) GetAgreementDocument(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid agreement id", err)
		return
	}
	agreement, err := h.Agreements.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get agreement", err)
		return
	}
	if agreement == nil {
		writeError(w, http.StatusNotFound, "Agreement not found", nil)
		return
	}
	emp, err := h.Employees.Get(agreement.EmployeeID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	path, sum, err := h.Renderer.RenderAgreement(agreement, emp)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to render document", err)
		return
	}
	doc := &store.Document{
		AgreementID:   &agreement.ID,
		Path:          path,
		SHA256:        sum,
		FormatVersion: "CONVENIO v02",
		IssuedAt:      time.Now(),
	}
	if err := h.Documents.Create(doc); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to record document", err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeFile(w, r, path)
}

// GetLoanDocument renders the loan sheet, records it and serves the file.
// GET /api/loans/{id}/document
func (h *Handler) GetLoanDocument(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid loan id", err)
		return
	}
	loan, err := h.Loans.GetLoan(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	path, sum, err := h.Renderer.RenderLoan(loan)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to render document", err)
		return
	}
	doc := &store.Document{
		LoanID:        &loan.ID,
		Path:          path,
		SHA256:        sum,
		FormatVersion: loan.FormatVersion,
		IssuedAt:      time.Now(),
	}
	if err := h.Documents.Create(doc); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to record document", err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeFile(w, r, path)
}

// =============================================================================
// TEMPLATES
// =============================================================================

const agreementTemplate = `<!DOCTYPE html>
<html lang="es">
<head><meta charset="utf-8"><title>Convenio de acumulación de vacaciones</title></head>
<body style="font-family: serif; max-width: 720px; margin: 40px auto;">
<h2 style="text-align:center">CONVENIO DE ACUMULACIÓN DE VACACIONES</h2>
<p>Conste por el presente documento el convenio de acumulación de períodos
vacacionales que celebran la empresa y el(la) trabajador(a)
<strong>{{.Employee.Name}}</strong>, identificado(a) con DNI
<strong>{{.Employee.DNI}}</strong>{{if .Employee.Position}}, quien se desempeña como
{{.Employee.Position}}{{end}}.</p>

<p>Ambas partes acuerdan la acumulación de
<strong>{{.Agreement.TotalDays}} ({{.DiasLetra}})</strong> días de descanso vacacional,
conforme al siguiente detalle:</p>
<ul>
  <li>{{.Agreement.Period1Detail}}</li>
  {{if .Agreement.Period2Detail}}<li>{{.Agreement.Period2Detail}}</li>{{end}}
</ul>

{{if .Agreement.Description}}<p>{{.Agreement.Description}}</p>{{end}}

<p>Fecha de solicitud: {{if .Agreement.RequestDate}}{{fechaLiteral .Agreement.RequestDate}}{{end}}</p>
<p>Estado de firma: {{.Agreement.SignatureStatus}}</p>

<p style="margin-top:80px">Lima, {{fechaLiteral .Today}}</p>
<table style="width:100%; margin-top:60px; text-align:center">
<tr>
  <td>_____________________<br>LA EMPRESA</td>
  <td>_____________________<br>EL(LA) TRABAJADOR(A)<br>DNI {{.Employee.DNI}}</td>
</tr>
</table>
</body>
</html>`

const loanTemplate = `<!DOCTYPE html>
<html lang="es">
<head><meta charset="utf-8"><title>Préstamo {{.Loan.ID}}</title></head>
<body style="font-family: serif; max-width: 720px; margin: 40px auto;">
<h2 style="text-align:center">AUTORIZACIÓN DE DESCUENTO POR PRÉSTAMO</h2>
<p style="text-align:right">{{.Loan.FormatVersion}}</p>
<p>Yo, <strong>{{.Employee.Name}}</strong>, identificado(a) con DNI
<strong>{{.Employee.DNI}}</strong>, autorizo el descuento por planilla del préstamo de
tipo <em>{{.Loan.Type}}</em> por el importe total de
<strong>{{montoConFormat (.Loan.TotalAmount.StringFixed 2)}}</strong>,
en {{.Loan.Installments}} cuota(s), según el siguiente cronograma:</p>

<table border="1" cellspacing="0" cellpadding="4" style="width:100%; border-collapse:collapse">
<tr><th>#</th><th>Cuota</th><th>Importe</th><th>Estado</th></tr>
{{range .Loan.Schedule}}
<tr>
  <td>{{.Ordinal}}</td>
  <td>{{.Label}}</td>
  <td style="text-align:right">{{montoConFormat (.Amount.StringFixed 2)}}</td>
  <td>{{.State}}</td>
</tr>
{{end}}
</table>

<p>Fecha de solicitud: {{fechaLiteral .Loan.RequestDate}}<br>
Fecha de firma: {{fechaLiteral .Loan.SigningDate}}</p>

<p style="margin-top:80px">Lima, {{fechaLiteral .Today}}</p>
<p style="text-align:center; margin-top:60px">_____________________<br>
{{.Employee.Name}}<br>DNI {{.Employee.DNI}}</p>
</body>
</html>`
