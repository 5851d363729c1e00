// 包 countries：ISO 3166-1 alpha-2 国家代码表，代码与显示名互查
package countries

import "strings"

// Names ISO alpha-2 代码 → 英文显示名
var Names = map[string]string{
	"AD": "Andorra",
	"AE": "United Arab Emirates",
	"AF": "Afghanistan",
	"AG": "Antigua and Barbuda",
	"AI": "Anguilla",
	"AL": "Albania",
	"AM": "Armenia",
	"AO": "Angola",
	"AQ": "Antarctica",
	"AR": "Argentina",
	"AS": "American Samoa",
	"AT": "Austria",
	"AU": "Australia",
	"AW": "Aruba",
	"AX": "Aland Islands",
	"AZ": "Azerbaijan",
	"BA": "Bosnia and Herzegovina",
	"BB": "Barbados",
	"BD": "Bangladesh",
	"BE": "Belgium",
	"BF": "Burkina Faso",
	"BG": "Bulgaria",
	"BH": "Bahrain",
	"BI": "Burundi",
	"BJ": "Benin",
	"BL": "Saint Barthelemy",
	"BM": "Bermuda",
	"BN": "Brunei",
	"BO": "Bolivia",
	"BQ": "Bonaire, Sint Eustatius and Saba",
	"BR": "Brazil",
	"BS": "Bahamas",
	"BT": "Bhutan",
	"BV": "Bouvet Island",
	"BW": "Botswana",
	"BY": "Belarus",
	"BZ": "Belize",
	"CA": "Canada",
	"CC": "Cocos (Keeling) Islands",
	"CD": "Congo (Democratic Republic)",
	"CF": "Central African Republic",
	"CG": "Congo",
	"CH": "Switzerland",
	"CI": "Cote d'Ivoire",
	"CK": "Cook Islands",
	"CL": "Chile",
	"CM": "Cameroon",
	"CN": "China",
	"CO": "Colombia",
	"CR": "Costa Rica",
	"CU": "Cuba",
	"CV": "Cabo Verde",
	"CW": "Curacao",
	"CX": "Christmas Island",
	"CY": "Cyprus",
	"CZ": "Czechia",
	"DE": "Germany",
	"DJ": "Djibouti",
	"DK": "Denmark",
	"DM": "Dominica",
	"DO": "Dominican Republic",
	"DZ": "Algeria",
	"EC": "Ecuador",
	"EE": "Estonia",
	"EG": "Egypt",
	"EH": "Western Sahara",
	"ER": "Eritrea",
	"ES": "Spain",
	"ET": "Ethiopia",
	"FI": "Finland",
	"FJ": "Fiji",
	"FK": "Falkland Islands",
	"FM": "Micronesia",
	"FO": "Faroe Islands",
	"FR": "France",
	"GA": "Gabon",
	"GB": "United Kingdom",
	"GD": "Grenada",
	"GE": "Georgia",
	"GF": "French Guiana",
	"GG": "Guernsey",
	"GH": "Ghana",
	"GI": "Gibraltar",
	"GL": "Greenland",
	"GM": "Gambia",
	"GN": "Guinea",
	"GP": "Guadeloupe",
	"GQ": "Equatorial Guinea",
	"GR": "Greece",
	"GS": "South Georgia and the South Sandwich Islands",
	"GT": "Guatemala",
	"GU": "Guam",
	"GW": "Guinea-Bissau",
	"GY": "Guyana",
	"HK": "Hong Kong",
	"HM": "Heard Island and McDonald Islands",
	"HN": "Honduras",
	"HR": "Croatia",
	"HT": "Haiti",
	"HU": "Hungary",
	"ID": "Indonesia",
	"IE": "Ireland",
	"IL": "Israel",
	"IM": "Isle of Man",
	"IN": "India",
	"IO": "British Indian Ocean Territory",
	"IQ": "Iraq",
	"IR": "Iran",
	"IS": "Iceland",
	"IT": "Italy",
	"JE": "Jersey",
	"JM": "Jamaica",
	"JO": "Jordan",
	"JP": "Japan",
	"KE": "Kenya",
	"KG": "Kyrgyzstan",
	"KH": "Cambodia",
	"KI": "Kiribati",
	"KM": "Comoros",
	"KN": "Saint Kitts and Nevis",
	"KP": "North Korea",
	"KR": "South Korea",
	"KW": "Kuwait",
	"KY": "Cayman Islands",
	"KZ": "Kazakhstan",
	"LA": "Laos",
	"LB": "Lebanon",
	"LC": "Saint Lucia",
	"LI": "Liechtenstein",
	"LK": "Sri Lanka",
	"LR": "Liberia",
	"LS": "Lesotho",
	"LT": "Lithuania",
	"LU": "Luxembourg",
	"LV": "Latvia",
	"LY": "Libya",
	"MA": "Morocco",
	"MC": "Monaco",
	"MD": "Moldova",
	"ME": "Montenegro",
	"MF": "Saint Martin (French part)",
	"MG": "Madagascar",
	"MH": "Marshall Islands",
	"MK": "North Macedonia",
	"ML": "Mali",
	"MM": "Myanmar",
	"MN": "Mongolia",
	"MO": "Macao",
	"MP": "Northern Mariana Islands",
	"MQ": "Martinique",
	"MR": "Mauritania",
	"MS": "Montserrat",
	"MT": "Malta",
	"MU": "Mauritius",
	"MV": "Maldives",
	"MW": "Malawi",
	"MX": "Mexico",
	"MY": "Malaysia",
	"MZ": "Mozambique",
	"NA": "Namibia",
	"NC": "New Caledonia",
	"NE": "Niger",
	"NF": "Norfolk Island",
	"NG": "Nigeria",
	"NI": "Nicaragua",
	"NL": "Netherlands",
	"NO": "Norway",
	"NP": "Nepal",
	"NR": "Nauru",
	"NU": "Niue",
	"NZ": "New Zealand",
	"OM": "Oman",
	"PA": "Panama",
	"PE": "Peru",
	"PF": "French Polynesia",
	"PG": "Papua New Guinea",
	"PH": "Philippines",
	"PK": "Pakistan",
	"PL": "Poland",
	"PM": "Saint Pierre and Miquelon",
	"PN": "Pitcairn",
	"PR": "Puerto Rico",
	"PS": "Palestine",
	"PT": "Portugal",
	"PW": "Palau",
	"PY": "Paraguay",
	"QA": "Qatar",
	"RE": "Reunion",
	"RO": "Romania",
	"RS": "Serbia",
	"RU": "Russia",
	"RW": "Rwanda",
	"SA": "Saudi Arabia",
	"SB": "Solomon Islands",
	"SC": "Seychelles",
	"SD": "Sudan",
	"SE": "Sweden",
	"SG": "Singapore",
	"SH": "Saint Helena, Ascension and Tristan da Cunha",
	"SI": "Slovenia",
	"SJ": "Svalbard and Jan Mayen",
	"SK": "Slovakia",
	"SL": "Sierra Leone",
	"SM": "San Marino",
	"SN": "Senegal",
	"SO": "Somalia",
	"SR": "Suriname",
	"SS": "South Sudan",
	"ST": "Sao Tome and Principe",
	"SV": "El Salvador",
	"SX": "Sint Maarten (Dutch part)",
	"SY": "Syria",
	"SZ": "Eswatini",
	"TC": "Turks and Caicos Islands",
	"TD": "Chad",
	"TF": "French Southern Territories",
	"TG": "Togo",
	"TH": "Thailand",
	"TJ": "Tajikistan",
	"TK": "Tokelau",
	"TL": "Timor-Leste",
	"TM": "Turkmenistan",
	"TN": "Tunisia",
	"TO": "Tonga",
	"TR": "Turkey",
	"TT": "Trinidad and Tobago",
	"TV": "Tuvalu",
	"TW": "Taiwan",
	"TZ": "Tanzania",
	"UA": "Ukraine",
	"UG": "Uganda",
	"UM": "United States Minor Outlying Islands",
	"US": "United States",
	"UY": "Uruguay",
	"UZ": "Uzbekistan",
	"VA": "Holy See",
	"VC": "Saint Vincent and the Grenadines",
	"VE": "Venezuela",
	"VG": "Virgin Islands (British)",
	"VI": "Virgin Islands (U.S.)",
	"VN": "Vietnam",
	"VU": "Vanuatu",
	"WF": "Wallis and Futuna",
	"WS": "Samoa",
	"XK": "Kosovo",
	"YE": "Yemen",
	"YT": "Mayotte",
	"ZA": "South Africa",
	"ZM": "Zambia",
	"ZW": "Zimbabwe",
}

// aliases 边界数据集中常见的其他写法（Natural Earth 的 NAME/ADMIN 字段）
var aliases = map[string][]string{
	"US": {"United States of America"},
	"GB": {"United Kingdom of Great Britain and Northern Ireland"},
	"RU": {"Russian Federation"},
	"KR": {"Republic of Korea", "Korea, Republic of"},
	"KP": {"Dem. Rep. Korea", "Democratic People's Republic of Korea"},
	"CD": {"Dem. Rep. Congo", "Democratic Republic of the Congo"},
	"CG": {"Republic of the Congo", "Congo, Rep."},
	"CZ": {"Czech Republic", "Czech Rep."},
	"CI": {"Ivory Coast", "Côte d'Ivoire"},
	"BA": {"Bosnia and Herz."},
	"DO": {"Dominican Rep."},
	"CF": {"Central African Rep."},
	"SS": {"S. Sudan"},
	"MK": {"Macedonia"},
	"SZ": {"Swaziland"},
	"TZ": {"United Republic of Tanzania"},
	"VN": {"Viet Nam"},
	"LA": {"Lao PDR"},
	"SY": {"Syrian Arab Republic"},
	"IR": {"Iran (Islamic Republic of)"},
	"MD": {"Republic of Moldova"},
	"BO": {"Bolivia (Plurinational State of)"},
	"VE": {"Venezuela (Bolivarian Republic of)"},
	"TW": {"Taiwan, Province of China"},
	"BN": {"Brunei Darussalam"},
	"CV": {"Cape Verde"},
	"TL": {"East Timor"},
	"EH": {"W. Sahara"},
	"FK": {"Falkland Is."},
	"SB": {"Solomon Is."},
	"GQ": {"Eq. Guinea"},
	"PS": {"State of Palestine"},
	"HK": {"Hong Kong S.A.R."},
	"MO": {"Macao S.A.R", "Macau"},
}

// zhNames ip2region 数据中的中文国家名
var zhNames = map[string]string{
	"中国": "CN", "美国": "US", "日本": "JP", "韩国": "KR", "英国": "GB", "德国": "DE",
	"法国": "FR", "俄罗斯": "RU", "加拿大": "CA", "澳大利亚": "AU", "新加坡": "SG",
	"荷兰": "NL", "瑞士": "CH", "瑞典": "SE", "意大利": "IT", "西班牙": "ES",
	"巴西": "BR", "印度": "IN", "香港": "HK", "台湾": "TW", "澳门": "MO",
	"波兰": "PL", "乌克兰": "UA", "土耳其": "TR", "墨西哥": "MX", "阿根廷": "AR",
	"南非": "ZA", "爱尔兰": "IE", "芬兰": "FI", "挪威": "NO", "丹麦": "DK",
	"比利时": "BE", "奥地利": "AT", "葡萄牙": "PT", "捷克": "CZ", "罗马尼亚": "RO",
	"以色列": "IL", "阿联酋": "AE", "泰国": "TH", "越南": "VN", "马来西亚": "MY",
	"印度尼西亚": "ID", "菲律宾": "PH", "新西兰": "NZ", "智利": "CL", "哥伦比亚": "CO",
}

var byName map[string]string

func init() {
	byName = make(map[string]string, len(Names)*2)
	for c, n := range Names {
		byName[strings.ToLower(n)] = c
	}
	for c, list := range aliases {
		for _, n := range list {
			byName[strings.ToLower(n)] = c
		}
	}
	for n, c := range zhNames {
		byName[n] = c
	}
}

// Normalize 去空白并转大写
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsValid 是否为已知 alpha-2 代码
func IsValid(code string) bool {
	_, ok := Names[Normalize(code)]
	return ok
}

// Name 代码对应的显示名；未知代码返回空串
func Name(code string) string {
	return Names[Normalize(code)]
}

// AllNames 显示名与别名，用于按名称匹配边界记录
func AllNames(code string) []string {
	c := Normalize(code)
	n, ok := Names[c]
	if !ok {
		return nil
	}
	return append([]string{n}, aliases[c]...)
}

// Code 名称（英文、别名或中文）→ 代码；也接受代码本身
func Code(name string) string {
	s := strings.TrimSpace(name)
	if IsValid(s) {
		return Normalize(s)
	}
	return byName[strings.ToLower(s)]
}
