package odontogram

import (
	"strings"
	"testing"
)

func strPtr(s string) *string { return &s }

func sampleChart() *Odontogram {
	return &Odontogram{
		Teeth: map[string]ToothState{
			"11": {Status: StatusCaries, Surfaces: map[string]string{"mesial": "caries", "distal": "mancha"}},
			"12": {Status: StatusSano},
			"21": {Status: StatusObturado, Observation: "amalgama antigua", PlannedTreatment: "cambio a resina"},
			"36": {Status: StatusCaries, Nota: "sensibilidad al frío"},
			"48": {Status: StatusAusente},
		},
		ChiefComplaint:      strPtr("dolor en molar inferior"),
		GeneralObservations: strPtr("higiene regular"),
		PlannedTreatments:   []string{"Limpieza profunda", "Resina en 21"},
		Notes:               strPtr("Paciente ansioso."),
	}
}

func TestSummarizeIdempotent(t *testing.T) {
	o := sampleChart()
	first := Summarize(o)
	second := Summarize(o)
	if first != second {
		t.Fatalf("summaries differ:\n%q\n%q", first, second)
	}
}

func TestSummarizeTallyOrder(t *testing.T) {
	s := Summarize(sampleChart())

	// Caries before obturado before sano before ausente.
	positions := []string{"Caries: 2 diente(s)", "Obturado: 1 diente(s)", "Sano: 1 diente(s)", "Ausente: 1 diente(s)"}
	last := -1
	for _, want := range positions {
		idx := strings.Index(s, want)
		if idx < 0 {
			t.Fatalf("summary missing %q:\n%s", want, s)
		}
		if idx < last {
			t.Fatalf("%q out of order:\n%s", want, s)
		}
		last = idx
	}
}

func TestSummarizeHealthyAndAbsentExcludedFromProblems(t *testing.T) {
	s := Summarize(sampleChart())

	problemSection := s[strings.Index(s, "Dientes con problemas:"):]
	problemSection = strings.SplitN(problemSection, "\n\n", 2)[0]

	if strings.Contains(problemSection, "Diente 12") {
		t.Errorf("healthy tooth listed as problem:\n%s", problemSection)
	}
	if strings.Contains(problemSection, "Diente 48") {
		t.Errorf("absent tooth listed as problem:\n%s", problemSection)
	}
	if !strings.Contains(problemSection, "Diente 11: caries (mesial: caries, distal: mancha)") {
		t.Errorf("surface issues not inlined:\n%s", problemSection)
	}
	if !strings.Contains(problemSection, "Diente 21: obturado - Obs: amalgama antigua - Plan: cambio a resina") {
		t.Errorf("observation and plan not rendered:\n%s", problemSection)
	}
}

func TestSummarizeToothNotesFromLegacyFields(t *testing.T) {
	o := &Odontogram{
		Teeth: map[string]ToothState{
			"11": {Status: StatusSano, Nota: "nota primaria"},
			"12": {Status: StatusSano, Notas: "nota secundaria"},
		},
	}
	s := Summarize(o)
	if !strings.Contains(s, "Diente 11: nota primaria") {
		t.Errorf("nota field not rendered:\n%s", s)
	}
	if !strings.Contains(s, "Diente 12: nota secundaria") {
		t.Errorf("notas field not rendered:\n%s", s)
	}
}

func TestSummarizePlannedTreatmentsNumbered(t *testing.T) {
	s := Summarize(sampleChart())
	if !strings.Contains(s, "1. Limpieza profunda") || !strings.Contains(s, "2. Resina en 21") {
		t.Errorf("planned treatments not numbered:\n%s", s)
	}
}

func TestSummarizeEmptySectionsOmitted(t *testing.T) {
	o := &Odontogram{
		Teeth: map[string]ToothState{
			"11": {Status: StatusSano},
		},
	}
	s := Summarize(o)
	for _, header := range []string{"Dientes con problemas:", "Notas por diente:", "Motivo de consulta:", "Tratamientos planificados:"} {
		if strings.Contains(s, header) {
			t.Errorf("empty section %q rendered:\n%s", header, s)
		}
	}
	if strings.Contains(s, "\n\n\n") {
		t.Errorf("extra blank lines:\n%q", s)
	}
}

func TestSummarizeTrimmed(t *testing.T) {
	o := sampleChart()
	o.Notes = strPtr("nota final   \n\n")
	s := Summarize(o)
	if strings.HasSuffix(s, "\n") || strings.HasSuffix(s, " ") {
		t.Errorf("summary not trimmed: %q", s)
	}
	if !strings.HasSuffix(s, "nota final") {
		t.Errorf("trailing note missing: %q", s)
	}
}

func TestSummarizeUnknownStatusSortsLast(t *testing.T) {
	o := &Odontogram{
		Teeth: map[string]ToothState{
			"11": {Status: "desconocido"},
			"12": {Status: StatusAusente},
		},
	}
	s := Summarize(o)
	if strings.Index(s, "Desconocido") < strings.Index(s, "Ausente") {
		t.Errorf("unknown status should sort after known ones:\n%s", s)
	}
}

func TestSummarizeEmptyChart(t *testing.T) {
	if s := Summarize(&Odontogram{}); s != "" {
		t.Errorf("empty chart should yield empty summary, got %q", s)
	}
}
