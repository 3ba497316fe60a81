package cpf

import "testing"

// FuzzParse checks that parsing arbitrary text never panics and that
// accepted input round-trips through Format and Normalize.
func FuzzParse(f *testing.F) {
	f.Add("11144477735")
	f.Add("111.444.777-35")
	f.Add("00000000000")
	f.Add("")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		d, err := Parse(input)
		if err != nil {
			if IsValidString(input) {
				t.Errorf("IsValidString accepted unparsable input %q", input)
			}
			return
		}

		back, err := Parse(Normalize(d.Format()))
		if err != nil {
			t.Fatalf("formatted value failed to parse: %v", err)
		}
		if back != d {
			t.Errorf("round trip changed %s into %s", d, back)
		}
		if IsValid(d) != IsValidString(input) {
			t.Errorf("IsValid and IsValidString disagree on %q", input)
		}
	})
}
