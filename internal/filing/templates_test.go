package filing

import "testing"

func TestTemplateRegistryOrder(t *testing.T) {
	want := []TemplateID{
		"B_01.01", "B_01.02", "B_01.03",
		"B_02.01", "B_02.02", "B_02.03",
		"B_03.01", "B_03.02", "B_03.03",
		"B_04.01",
		"B_05.01", "B_05.02",
		"B_06.01",
		"B_07.01",
		"B_99.01",
	}
	if TemplateCount() != len(want) {
		t.Fatalf("TemplateCount = %d, want %d", TemplateCount(), len(want))
	}
	for i, tmpl := range Templates {
		if tmpl.ID != want[i] {
			t.Errorf("Templates[%d].ID = %s, want %s", i, tmpl.ID, want[i])
		}
	}
}

func TestTemplateFileName(t *testing.T) {
	tests := []struct {
		id   TemplateID
		want string
	}{
		{TemplateB0101, "b_01.01.csv"},
		{TemplateB0502, "b_05.02.csv"},
		{TemplateB9901, "b_99.01.csv"},
	}
	for _, tt := range tests {
		if got := tt.id.FileName(); got != tt.want {
			t.Errorf("FileName(%s) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestTemplateByID(t *testing.T) {
	tmpl, ok := TemplateByID(TemplateB0601)
	if !ok {
		t.Fatal("TemplateByID(B_06.01) not found")
	}
	if len(tmpl.Columns) == 0 {
		t.Error("template has no columns")
	}
	if tmpl.Columns[0] != "c0010" {
		t.Errorf("first column = %q, want c0010", tmpl.Columns[0])
	}

	if _, ok := TemplateByID("B_42.42"); ok {
		t.Error("unknown template should not resolve")
	}
	if cols := ColumnOrder("B_42.42"); cols != nil {
		t.Errorf("ColumnOrder for unknown template = %v, want nil", cols)
	}
}

func TestTemplateColumnsAreOrderedCodes(t *testing.T) {
	for _, tmpl := range Templates {
		prev := ""
		for _, c := range tmpl.Columns {
			if len(c) != 5 || c[0] != 'c' {
				t.Errorf("%s: malformed column code %q", tmpl.ID, c)
			}
			if c <= prev {
				t.Errorf("%s: column %q not strictly after %q", tmpl.ID, c, prev)
			}
			prev = c
		}
	}
}
