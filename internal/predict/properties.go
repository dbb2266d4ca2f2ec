// Package predict exposes molecular property prediction backed by a remote
// inference service, plus the QM9 property catalog and the confidence
// heuristic applied to raw model output.
package predict

// Property describes one predictable quantity.
type Property struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Unit string `json:"unit"`
}

// Catalog lists the 19 QM9 target properties in model output order.
var Catalog = []Property{
	{Code: "A", Name: "Rotational constant A", Unit: "GHz"},
	{Code: "B", Name: "Rotational constant B", Unit: "GHz"},
	{Code: "C", Name: "Rotational constant C", Unit: "GHz"},
	{Code: "mu", Name: "Dipole moment", Unit: "Debye"},
	{Code: "alpha", Name: "Isotropic polarizability", Unit: "Bohr³"},
	{Code: "homo", Name: "HOMO energy", Unit: "eV"},
	{Code: "lumo", Name: "LUMO energy", Unit: "eV"},
	{Code: "gap", Name: "HOMO-LUMO gap", Unit: "eV"},
	{Code: "r2", Name: "Electronic spatial extent", Unit: "Bohr²"},
	{Code: "zpve", Name: "Zero point vibrational energy", Unit: "eV"},
	{Code: "u0", Name: "Internal energy at 0K", Unit: "eV"},
	{Code: "u298", Name: "Internal energy at 298K", Unit: "eV"},
	{Code: "h298", Name: "Enthalpy at 298K", Unit: "eV"},
	{Code: "g298", Name: "Free energy at 298K", Unit: "eV"},
	{Code: "cv", Name: "Heat capacity at 298K", Unit: "cal/mol·K"},
	{Code: "u0_atom", Name: "Atomization energy at 0K", Unit: "eV"},
	{Code: "u298_atom", Name: "Atomization energy at 298K", Unit: "eV"},
	{Code: "h298_atom", Name: "Atomization enthalpy at 298K", Unit: "eV"},
	{Code: "g298_atom", Name: "Atomization free energy at 298K", Unit: "eV"},
}

// Lookup returns the catalog entry for a property code.
func Lookup(code string) (Property, bool) {
	for _, p := range Catalog {
		if p.Code == code {
			return p, true
		}
	}
	return Property{}, false
}
