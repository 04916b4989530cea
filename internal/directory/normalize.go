package directory

import "strings"

// specialtyMappings translates what users ask for into the titles and
// specialties the sheet actually uses. Titles in the data: Enfermera,
// Kinesiólogo, Médico, Nutricionista, TENS. Specialties: Atención
// Domiciliaria, Cardiología, Cuidados Intensivos, Geriatría, Oncología,
// Pediatría, Salud Mental, Traumatología, Urgencias.
var specialtyMappings = map[string][]string{
	"kinesiología":  {"kinesiólogo"},
	"kinesiologia":  {"kinesiólogo"},
	"kinesiologo":   {"kinesiólogo"},
	"kinesiologa":   {"kinesiólogo"},
	"kinesiólogo":   {"kinesiólogo"},
	"kinesióloga":   {"kinesiólogo"},
	"fisioterapia":  {"kinesiólogo"},
	"fisioterapeuta": {"kinesiólogo"},
	"rehabilitacion": {"kinesiólogo"},

	"cardiología": {"cardiología", "médico"},
	"cardiologia": {"cardiología", "médico"},
	"cardiologo":  {"cardiología", "médico"},
	"cardiólogo":  {"cardiología", "médico"},
	"cardióloga":  {"cardiología", "médico"},
	"corazón":     {"cardiología", "médico"},

	"pediatría": {"pediatría", "médico"},
	"pediatria": {"pediatría", "médico"},
	"pediatra":  {"pediatría", "médico"},
	"niños":     {"pediatría", "médico"},
	"niño":      {"pediatría", "médico"},

	"nutrición":    {"nutricionista"},
	"nutricion":    {"nutricionista"},
	"nutricionista": {"nutricionista"},
	"dieta":        {"nutricionista"},
	"alimentacion": {"nutricionista"},

	"enfermería": {"enfermera", "tens"},
	"enfermeria": {"enfermera", "tens"},
	"enfermera":  {"enfermera", "tens"},
	"enfermero":  {"enfermera", "tens"},
	"tens":       {"tens", "enfermera"},

	"medicina general": {"médico"},
	"medico general":   {"médico"},
	"medico":           {"médico"},
	"médico":           {"médico"},
	"doctor":           {"médico"},
	"doctora":          {"médico"},

	"geriatría":    {"geriatría"},
	"geriatria":    {"geriatría"},
	"adulto mayor": {"geriatría"},
	"tercera edad": {"geriatría"},

	"traumatología": {"traumatología"},
	"traumatologia": {"traumatología"},
	"traumatologo":  {"traumatología"},
	"traumatóloga":  {"traumatología"},
	"huesos":        {"traumatología"},
	"fracturas":     {"traumatología"},

	"oncología": {"oncología"},
	"oncologia": {"oncología"},
	"oncologo":  {"oncología"},
	"oncóloga":  {"oncología"},
	"cancer":    {"oncología"},
	"cáncer":    {"oncología"},

	"salud mental": {"salud mental"},
	"psicología":   {"salud mental"},
	"psicologia":   {"salud mental"},
	"psicologo":    {"salud mental"},
	"psicologa":    {"salud mental"},
	"psiquiatra":   {"salud mental"},
	"depresion":    {"salud mental"},
	"ansiedad":     {"salud mental"},

	"urgencias":   {"urgencias"},
	"urgencia":    {"urgencias"},
	"emergencia":  {"urgencias"},
	"emergencias": {"urgencias"},

	"cuidados intensivos": {"cuidados intensivos"},
	"uci":                 {"cuidados intensivos"},
	"intensivos":          {"cuidados intensivos"},

	"atención domiciliaria": {"atención domiciliaria"},
	"atencion domiciliaria": {"atención domiciliaria"},
	"domiciliaria":          {"atención domiciliaria"},
	"domicilio":             {"atención domiciliaria"},
	"casa":                  {"atención domiciliaria"},
}

// SpecialtyTerms generates the search variations for a requested specialty:
// the raw input, pattern-derived forms ("cardiologia" → "cardiologo"), and
// the curated mappings above. Order is preserved, duplicates removed.
func SpecialtyTerms(specialty string) []string {
	s := strings.ToLower(strings.TrimSpace(specialty))

	terms := []string{s}

	if strings.Contains(s, "ía") {
		base := strings.ReplaceAll(s, "ía", "")
		terms = append(terms, base+"ologo", base+"ologa")
	}
	if strings.Contains(s, "logia") {
		base := strings.ReplaceAll(s, "logia", "")
		terms = append(terms, base+"logo", base+"loga", base+"ólogo", base+"óloga")
	}

	if mapped, ok := specialtyMappings[s]; ok {
		terms = append(terms, mapped...)
	}

	return dedupe(terms)
}

// CityTerms generates search variations for a city: with and without leading
// Spanish articles, in both directions ("lagos" also searches "los lagos").
func CityTerms(city string) []string {
	s := strings.ToLower(strings.TrimSpace(city))

	terms := []string{s}
	articles := []string{"los ", "las ", "la ", "el "}

	stripped := false
	for _, art := range articles {
		if strings.HasPrefix(s, art) {
			terms = append(terms, strings.TrimPrefix(s, art))
			stripped = true
			break
		}
	}
	if !stripped {
		for _, art := range articles {
			terms = append(terms, art+s)
		}
	}

	return dedupe(terms)
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
