package patient

import (
	"testing"
	"time"
)

var clsNow = time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func birth(age int) *time.Time {
	b := clsNow.AddDate(-age, 0, -1)
	return &b
}

func TestClassifyAgeBrackets(t *testing.T) {
	cases := []struct {
		age       int
		wantScore int
	}{
		{85, 3},
		{80, 3},
		{79, 2},
		{60, 2},
		{59, 0},
		{30, 0},
		{18, 0},
		{17, 1},
		{5, 1},
	}
	for _, tc := range cases {
		p := &Patient{BirthDate: birth(tc.age), Sex: "masculino"}
		cls := Classify(p, clsNow)
		if cls.Score != tc.wantScore {
			t.Errorf("age %d: score = %d, want %d", tc.age, cls.Score, tc.wantScore)
		}
	}
}

func TestClassifyAgeIsCalendarAware(t *testing.T) {
	// Turns 80 tomorrow: still 79 today.
	b := clsNow.AddDate(-80, 0, 1)
	p := &Patient{BirthDate: &b, Sex: "masculino"}
	cls := Classify(p, clsNow)
	if cls.Score != 2 {
		t.Errorf("score = %d, want 2 for a 79-year-old", cls.Score)
	}
}

func TestClassifyLifeThreateningShortCircuit(t *testing.T) {
	for _, disease := range []string{
		"cáncer de pulmón", "cancer", "tumor cerebral",
		"infarto previo", "problemas del corazón", "paro cardíaco",
	} {
		p := &Patient{BirthDate: birth(30), Sex: "masculino", Diseases: strPtr(disease)}
		cls := Classify(p, clsNow)
		if cls.Tier != SeverityCritical {
			t.Errorf("disease %q: tier = %s, want critical", disease, cls.Tier)
		}
		if cls.Score != 0 {
			t.Errorf("disease %q: short-circuit should bypass scoring, score = %d", disease, cls.Score)
		}
	}
}

func TestClassifyPregnancyOnlyOverride(t *testing.T) {
	p := &Patient{BirthDate: birth(28), Sex: "femenino", Pregnant: true}
	cls := Classify(p, clsNow)
	if cls.Tier != SeverityPregnancy {
		t.Fatalf("tier = %s, want pregnancy", cls.Tier)
	}
}

func TestClassifyPregnancyWithDiseaseIsNumeric(t *testing.T) {
	p := &Patient{
		BirthDate: birth(28),
		Sex:       "femenino",
		Pregnant:  true,
		Diseases:  strPtr("diabetes"),
	}
	cls := Classify(p, clsNow)
	// 3 (pregnancy) + 3 (critical disease) = 6.
	if cls.Tier != SeverityCritical {
		t.Fatalf("tier = %s, want critical", cls.Tier)
	}
}

func TestClassifyPregnancyIgnoredForMales(t *testing.T) {
	p := &Patient{BirthDate: birth(30), Sex: "masculino", Pregnant: true}
	cls := Classify(p, clsNow)
	if cls.Tier != SeverityNone {
		t.Fatalf("tier = %s, want none", cls.Tier)
	}
}

func TestClassifyElderlyWithCriticalDisease(t *testing.T) {
	// Age 85 (+3) with a critical-keyword disease (+3) and one medication.
	p := &Patient{
		BirthDate:   birth(85),
		Sex:         "masculino",
		Diseases:    strPtr("diabetes"),
		Medications: strPtr("metformina"),
	}
	cls := Classify(p, clsNow)
	if cls.Score != 6 {
		t.Errorf("score = %d, want 6", cls.Score)
	}
	if cls.Tier != SeverityCritical {
		t.Errorf("tier = %s, want critical", cls.Tier)
	}
}

func TestClassifyMedicationCounts(t *testing.T) {
	cases := []struct {
		meds      string
		wantScore int
	}{
		{"", 0},
		{"metformina", 0},
		{"metformina, enalapril", 1},
		{"metformina, enalapril, aspirina", 2},
		{"a, b, c, d", 2},
		{"metformina, , ", 0}, // empty entries do not count
	}
	for _, tc := range cases {
		p := &Patient{BirthDate: birth(30), Sex: "masculino", Medications: strPtr(tc.meds)}
		cls := Classify(p, clsNow)
		if cls.Score != tc.wantScore {
			t.Errorf("meds %q: score = %d, want %d", tc.meds, cls.Score, tc.wantScore)
		}
	}
}

func TestClassifySevereAllergy(t *testing.T) {
	p := &Patient{BirthDate: birth(30), Sex: "masculino", Allergies: strPtr("alergia a penicilina")}
	cls := Classify(p, clsNow)
	if cls.Score != 2 {
		t.Errorf("score = %d, want 2", cls.Score)
	}
	if cls.Tier != SeverityMedium {
		t.Errorf("tier = %s, want medium", cls.Tier)
	}
}

func TestClassifyThresholds(t *testing.T) {
	cases := []struct {
		name string
		p    *Patient
		want Severity
	}{
		{"empty fields", &Patient{BirthDate: birth(30), Sex: "masculino"}, SeverityNone},
		{"minor only", &Patient{BirthDate: birth(10), Sex: "masculino"}, SeverityLow},
		{"elderly only", &Patient{BirthDate: birth(65), Sex: "masculino"}, SeverityMedium},
		{"elderly with allergy", &Patient{
			BirthDate: birth(65), Sex: "masculino", Allergies: strPtr("látex"),
		}, SeverityHigh},
		{"very old with disease", &Patient{
			BirthDate: birth(82), Sex: "masculino", Diseases: strPtr("hipertensión"),
		}, SeverityCritical},
	}
	for _, tc := range cases {
		cls := Classify(tc.p, clsNow)
		if cls.Tier != tc.want {
			t.Errorf("%s: tier = %s, want %s", tc.name, cls.Tier, tc.want)
		}
	}
}

func TestClassifyMissingFieldsContributeNothing(t *testing.T) {
	p := &Patient{Sex: "masculino"} // no birth date, no text fields
	cls := Classify(p, clsNow)
	if cls.Tier != SeverityNone || cls.Score != 0 {
		t.Fatalf("tier = %s, score = %d; want none, 0", cls.Tier, cls.Score)
	}
}

func TestCategoryFromIntakeDate(t *testing.T) {
	now := clsNow
	recent := &Patient{IntakeDate: now.AddDate(0, -6, 0)}
	if got := recent.Category(now); got != CategoryActive {
		t.Errorf("recent intake: %s, want active", got)
	}
	old := &Patient{IntakeDate: now.AddDate(-3, 0, 0)}
	if got := old.Category(now); got != CategoryHistorical {
		t.Errorf("old intake: %s, want historical", got)
	}
	verOld := &Patient{IntakeDate: now.AddDate(-6, 0, 0)}
	if got := verOld.Category(now); got != CategoryArchived {
		t.Errorf("very old intake: %s, want archived", got)
	}
	archived := &Patient{IntakeDate: now, Archived: true}
	if got := archived.Category(now); got != CategoryArchived {
		t.Errorf("archived: %s, want archived", got)
	}
}
