package demo

// Cities are the demo records.
var Cities = []string{
	"Io", "Rio", "Rome", "Paris", "London", "Toronto",
	"New York City", "Tokyo", "Rio de Janeiro", "Los Angeles", "Berlin", "Istanbul",
	"Singapore", "Shanghai", "Amsterdam", "Hong Kong", "Barcelona", "Copenhagen", "Manchester",
	"Philadelphia", "Wellington", "Kathmandu", "Birmingham", "Melbourne", "Minneapolis",
}

// QueryTable is a group of inputs exercising names of one length.
type QueryTable struct {
	Title   string
	Queries []string
}

// QueryTables cover exact, truncated, misspelled and unrelated inputs for 2 to 8 letter names.
var QueryTables = []QueryTable{
	{"2-letter city names search:", []string{"Io", "I", "Iol", "ab"}},
	{"3-letter city names search:", []string{"Rio", "io", "ri", "rid", "rat", "riot", "zio", "abc"}},
	{"4-letter city names search:", []string{"Rome", "rom", "ro", "r", "rume", "rum", "ramen", "roqw", "rqwe", "gone", "abcd"}},
	{"5-letter city names search:", []string{"Paris", "pari", "par", "pa", "p", "poris", "poriz", "pabcs", "pgone", "abcde"}},
	{"6-letter city names search:", []string{"London", "landon", "lando", "bandon", "bando", "loabc", "logone", "abcdef"}},
	{"7-letter city names search:", []string{"Toronto", "taranta", "tabcnto", "togone", "abcdefg"}},
	{"8-letter city names search:", []string{"Shanghai", "shonghoi", "shonghoy", "abcdefgh"}},
}
