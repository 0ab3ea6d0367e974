package odontogram

import (
	"encoding/json"
	"testing"
)

func TestTextValueNilPointer(t *testing.T) {
	if got := textValue(nil); got != "" {
		t.Errorf("textValue(nil) = %q, want empty string", got)
	}
}

func TestTextValueSetPointer(t *testing.T) {
	s := "dolor en molar"
	if got := textValue(&s); got != "dolor en molar" {
		t.Errorf("textValue = %q, want %q", got, s)
	}
}

// A chart posted without the optional text fields leaves the pointers nil
// after binding; the insert must still map them to the columns' empty
// default instead of SQL NULL.
func TestCreateArgsOmittedTextFields(t *testing.T) {
	var o Odontogram
	if err := json.Unmarshal([]byte(`{"version": 1, "teeth": {}}`), &o); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if o.ChiefComplaint != nil || o.GeneralObservations != nil || o.Notes != nil {
		t.Fatal("expected omitted fields to stay nil after binding")
	}

	for name, p := range map[string]*string{
		"chief_complaint":      o.ChiefComplaint,
		"general_observations": o.GeneralObservations,
		"notes":                o.Notes,
	} {
		if got := textValue(p); got != "" {
			t.Errorf("%s insert value = %q, want empty string", name, got)
		}
	}
}
