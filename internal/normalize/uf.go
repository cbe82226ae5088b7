package normalize

import (
	"strings"

	"proposal_sync/platform/sanitize"
)

var ufByName = map[string]string{
	"ACRE":                "AC",
	"ALAGOAS":             "AL",
	"AMAPA":               "AP",
	"AMAZONAS":            "AM",
	"BAHIA":               "BA",
	"CEARA":               "CE",
	"DISTRITO FEDERAL":    "DF",
	"ESPIRITO SANTO":      "ES",
	"GOIAS":               "GO",
	"MARANHAO":            "MA",
	"MATO GROSSO":         "MT",
	"MATO GROSSO DO SUL":  "MS",
	"MINAS GERAIS":        "MG",
	"PARA":                "PA",
	"PARAIBA":             "PB",
	"PARANA":              "PR",
	"PERNAMBUCO":          "PE",
	"PIAUI":               "PI",
	"RIO DE JANEIRO":      "RJ",
	"RIO GRANDE DO NORTE": "RN",
	"RONDONIA":            "RO",
	"RIO GRANDE DO SUL":   "RS",
	"RORAIMA":             "RR",
	"SANTA CATARINA":      "SC",
	"SERGIPE":             "SE",
	"SAO PAULO":           "SP",
	"TOCANTINS":           "TO",
}

var validUF = func() map[string]bool {
	m := make(map[string]bool, len(ufByName))
	for _, code := range ufByName {
		m[code] = true
	}
	return m
}()

// UF resolves a state code or state name to its two-letter code.
func UF(v any) (string, bool) {
	s, ok := Text(v)
	if !ok {
		return "", false
	}
	upper := strings.ToUpper(sanitize.FoldAccents(s))
	if len(upper) == 2 && validUF[upper] {
		return upper, true
	}
	code, ok := ufByName[sanitize.LettersOnly(upper)]
	return code, ok
}
