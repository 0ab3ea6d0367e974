package consent

import (
	"fmt"
	"sort"
	"strings"
	"text/template"
	"time"
)

// TemplateData feeds a consent template.
type TemplateData struct {
	PatientName string
	Treatment   string
	Date        string
	ClinicName  string
}

// defaultTemplates are the built-in consent documents, keyed by name.
var defaultTemplates = map[string]string{
	"tratamiento": `CONSENTIMIENTO INFORMADO - {{.ClinicName}}

Yo, {{.PatientName}}, declaro que he sido informado(a) sobre el
tratamiento "{{.Treatment}}" propuesto, sus alternativas, riesgos y
beneficios, y autorizo su realización.

Fecha: {{.Date}}`,
	"anestesia": `CONSENTIMIENTO PARA ANESTESIA LOCAL - {{.ClinicName}}

Yo, {{.PatientName}}, autorizo la aplicación de anestesia local
necesaria para el tratamiento "{{.Treatment}}", habiendo declarado mis
alergias y condiciones médicas conocidas.

Fecha: {{.Date}}`,
	"cirugia": `CONSENTIMIENTO QUIRÚRGICO - {{.ClinicName}}

Yo, {{.PatientName}}, autorizo el procedimiento quirúrgico
"{{.Treatment}}" y declaro conocer sus riesgos, incluyendo inflamación,
sangrado e infección postoperatoria.

Fecha: {{.Date}}`,
}

// TemplateNames lists the available templates sorted for stable output.
func TemplateNames() []string {
	names := make([]string, 0, len(defaultTemplates))
	for name := range defaultTemplates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render fills the named template with the given data.
func Render(name string, data TemplateData) (string, error) {
	text, ok := defaultTemplates[name]
	if !ok {
		return "", fmt.Errorf("unknown consent template: %s", name)
	}
	if data.Date == "" {
		data.Date = time.Now().Format("2006-01-02")
	}
	if data.ClinicName == "" {
		data.ClinicName = "Clínica Dental"
	}
	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
