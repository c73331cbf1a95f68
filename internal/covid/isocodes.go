package covid

import (
	"strings"

	"github.com/i474232898/covid19-stats/internal/common"
)

// ISOTable maps folded country display names to ISO 3166-1 alpha-2 codes.
// It is built once at startup and never modified.
type ISOTable struct {
	codes map[string]string
}

// NewISOTable builds a table from display name → code pairs. Names are folded
// and codes upper-cased.
func NewISOTable(names map[string]string) ISOTable {
	codes := make(map[string]string, len(names))
	for name, code := range names {
		codes[common.FoldKey(name)] = strings.ToUpper(strings.TrimSpace(code))
	}
	return ISOTable{codes: codes}
}

// Lookup returns the code for a display name.
func (t ISOTable) Lookup(name string) (string, bool) {
	code, ok := t.codes[common.FoldKey(name)]
	return code, ok
}

// Len returns the number of names in the table.
func (t ISOTable) Len() int {
	return len(t.codes)
}

// DefaultISOTable covers the Country/Region names used by the JHU CSSE
// global time series. Cruise ships and event entries have no code.
func DefaultISOTable() ISOTable {
	return NewISOTable(upstreamCountryCodes)
}

var upstreamCountryCodes = map[string]string{
	"Afghanistan":                      "AF",
	"Albania":                          "AL",
	"Algeria":                          "DZ",
	"Andorra":                          "AD",
	"Angola":                           "AO",
	"Antarctica":                       "AQ",
	"Antigua and Barbuda":              "AG",
	"Argentina":                        "AR",
	"Armenia":                          "AM",
	"Australia":                        "AU",
	"Austria":                          "AT",
	"Azerbaijan":                       "AZ",
	"Bahamas":                          "BS",
	"Bahrain":                          "BH",
	"Bangladesh":                       "BD",
	"Barbados":                         "BB",
	"Belarus":                          "BY",
	"Belgium":                          "BE",
	"Belize":                           "BZ",
	"Benin":                            "BJ",
	"Bhutan":                           "BT",
	"Bolivia":                          "BO",
	"Bosnia and Herzegovina":           "BA",
	"Botswana":                         "BW",
	"Brazil":                           "BR",
	"Brunei":                           "BN",
	"Bulgaria":                         "BG",
	"Burkina Faso":                     "BF",
	"Burma":                            "MM",
	"Burundi":                          "BI",
	"Cabo Verde":                       "CV",
	"Cambodia":                         "KH",
	"Cameroon":                         "CM",
	"Canada":                           "CA",
	"Central African Republic":         "CF",
	"Chad":                             "TD",
	"Chile":                            "CL",
	"China":                            "CN",
	"Colombia":                         "CO",
	"Comoros":                          "KM",
	"Congo (Brazzaville)":              "CG",
	"Congo (Kinshasa)":                 "CD",
	"Costa Rica":                       "CR",
	"Cote d'Ivoire":                    "CI",
	"Croatia":                          "HR",
	"Cuba":                             "CU",
	"Cyprus":                           "CY",
	"Czechia":                          "CZ",
	"Denmark":                          "DK",
	"Djibouti":                         "DJ",
	"Dominica":                         "DM",
	"Dominican Republic":               "DO",
	"Ecuador":                          "EC",
	"Egypt":                            "EG",
	"El Salvador":                      "SV",
	"Equatorial Guinea":                "GQ",
	"Eritrea":                          "ER",
	"Estonia":                          "EE",
	"Eswatini":                         "SZ",
	"Ethiopia":                         "ET",
	"Fiji":                             "FJ",
	"Finland":                          "FI",
	"France":                           "FR",
	"Gabon":                            "GA",
	"Gambia":                           "GM",
	"Georgia":                          "GE",
	"Germany":                          "DE",
	"Ghana":                            "GH",
	"Greece":                           "GR",
	"Grenada":                          "GD",
	"Guatemala":                        "GT",
	"Guinea":                           "GN",
	"Guinea-Bissau":                    "GW",
	"Guyana":                           "GY",
	"Haiti":                            "HT",
	"Holy See":                         "VA",
	"Honduras":                         "HN",
	"Hungary":                          "HU",
	"Iceland":                          "IS",
	"India":                            "IN",
	"Indonesia":                        "ID",
	"Iran":                             "IR",
	"Iraq":                             "IQ",
	"Ireland":                          "IE",
	"Israel":                           "IL",
	"Italy":                            "IT",
	"Jamaica":                          "JM",
	"Japan":                            "JP",
	"Jordan":                           "JO",
	"Kazakhstan":                       "KZ",
	"Kenya":                            "KE",
	"Kiribati":                         "KI",
	"Korea, North":                     "KP",
	"Korea, South":                     "KR",
	"Kosovo":                           "XK",
	"Kuwait":                           "KW",
	"Kyrgyzstan":                       "KG",
	"Laos":                             "LA",
	"Latvia":                           "LV",
	"Lebanon":                          "LB",
	"Lesotho":                          "LS",
	"Liberia":                          "LR",
	"Libya":                            "LY",
	"Liechtenstein":                    "LI",
	"Lithuania":                        "LT",
	"Luxembourg":                       "LU",
	"Madagascar":                       "MG",
	"Malawi":                           "MW",
	"Malaysia":                         "MY",
	"Maldives":                         "MV",
	"Mali":                             "ML",
	"Malta":                            "MT",
	"Marshall Islands":                 "MH",
	"Mauritania":                       "MR",
	"Mauritius":                        "MU",
	"Mexico":                           "MX",
	"Micronesia":                       "FM",
	"Moldova":                          "MD",
	"Monaco":                           "MC",
	"Mongolia":                         "MN",
	"Montenegro":                       "ME",
	"Morocco":                          "MA",
	"Mozambique":                       "MZ",
	"Namibia":                          "NA",
	"Nauru":                            "NR",
	"Nepal":                            "NP",
	"Netherlands":                      "NL",
	"New Zealand":                      "NZ",
	"Nicaragua":                        "NI",
	"Niger":                            "NE",
	"Nigeria":                          "NG",
	"North Macedonia":                  "MK",
	"Norway":                           "NO",
	"Oman":                             "OM",
	"Pakistan":                         "PK",
	"Palau":                            "PW",
	"Panama":                           "PA",
	"Papua New Guinea":                 "PG",
	"Paraguay":                         "PY",
	"Peru":                             "PE",
	"Philippines":                      "PH",
	"Poland":                           "PL",
	"Portugal":                         "PT",
	"Qatar":                            "QA",
	"Romania":                          "RO",
	"Russia":                           "RU",
	"Rwanda":                           "RW",
	"Saint Kitts and Nevis":            "KN",
	"Saint Lucia":                      "LC",
	"Saint Vincent and the Grenadines": "VC",
	"Samoa":                            "WS",
	"San Marino":                       "SM",
	"Sao Tome and Principe":            "ST",
	"Saudi Arabia":                     "SA",
	"Senegal":                          "SN",
	"Serbia":                           "RS",
	"Seychelles":                       "SC",
	"Sierra Leone":                     "SL",
	"Singapore":                        "SG",
	"Slovakia":                         "SK",
	"Slovenia":                         "SI",
	"Solomon Islands":                  "SB",
	"Somalia":                          "SO",
	"South Africa":                     "ZA",
	"South Sudan":                      "SS",
	"Spain":                            "ES",
	"Sri Lanka":                        "LK",
	"Sudan":                            "SD",
	"Suriname":                         "SR",
	"Sweden":                           "SE",
	"Switzerland":                      "CH",
	"Syria":                            "SY",
	"Taiwan*":                          "TW",
	"Tajikistan":                       "TJ",
	"Tanzania":                         "TZ",
	"Thailand":                         "TH",
	"Timor-Leste":                      "TL",
	"Togo":                             "TG",
	"Tonga":                            "TO",
	"Trinidad and Tobago":              "TT",
	"Tunisia":                          "TN",
	"Turkey":                           "TR",
	"Tuvalu":                           "TV",
	"US":                               "US",
	"Uganda":                           "UG",
	"Ukraine":                          "UA",
	"United Arab Emirates":             "AE",
	"United Kingdom":                   "GB",
	"Uruguay":                          "UY",
	"Uzbekistan":                       "UZ",
	"Vanuatu":                          "VU",
	"Venezuela":                        "VE",
	"Vietnam":                          "VN",
	"West Bank and Gaza":               "PS",
	"Yemen":                            "YE",
	"Zambia":                           "ZM",
	"Zimbabwe":                         "ZW",
}
