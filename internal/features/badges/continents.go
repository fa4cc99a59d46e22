// continents.go: справочник страна → континент для Global Citizen.
// В user_locations страна хранится как название или ISO-код, поддерживаем оба.
package badges

import "strings"

const (
	ContinentAsia         = "Asia"
	ContinentEurope       = "Europe"
	ContinentAfrica       = "Africa"
	ContinentNorthAmerica = "North America"
	ContinentSouthAmerica = "South America"
	ContinentOceania      = "Oceania"
)

// countries: ISO alpha-2, название, континент.
var countries = []struct {
	code, name, continent string
}{
	// Asia
	{"MY", "Malaysia", ContinentAsia},
	{"SG", "Singapore", ContinentAsia},
	{"ID", "Indonesia", ContinentAsia},
	{"TH", "Thailand", ContinentAsia},
	{"VN", "Vietnam", ContinentAsia},
	{"PH", "Philippines", ContinentAsia},
	{"BN", "Brunei", ContinentAsia},
	{"KH", "Cambodia", ContinentAsia},
	{"MM", "Myanmar", ContinentAsia},
	{"JP", "Japan", ContinentAsia},
	{"KR", "South Korea", ContinentAsia},
	{"CN", "China", ContinentAsia},
	{"HK", "Hong Kong", ContinentAsia},
	{"TW", "Taiwan", ContinentAsia},
	{"IN", "India", ContinentAsia},
	{"PK", "Pakistan", ContinentAsia},
	{"BD", "Bangladesh", ContinentAsia},
	{"LK", "Sri Lanka", ContinentAsia},
	{"AE", "United Arab Emirates", ContinentAsia},
	{"SA", "Saudi Arabia", ContinentAsia},
	{"QA", "Qatar", ContinentAsia},
	{"TR", "Turkey", ContinentAsia},
	{"KZ", "Kazakhstan", ContinentAsia},
	// Europe
	{"GB", "United Kingdom", ContinentEurope},
	{"IE", "Ireland", ContinentEurope},
	{"FR", "France", ContinentEurope},
	{"DE", "Germany", ContinentEurope},
	{"NL", "Netherlands", ContinentEurope},
	{"BE", "Belgium", ContinentEurope},
	{"ES", "Spain", ContinentEurope},
	{"PT", "Portugal", ContinentEurope},
	{"IT", "Italy", ContinentEurope},
	{"CH", "Switzerland", ContinentEurope},
	{"AT", "Austria", ContinentEurope},
	{"SE", "Sweden", ContinentEurope},
	{"NO", "Norway", ContinentEurope},
	{"DK", "Denmark", ContinentEurope},
	{"FI", "Finland", ContinentEurope},
	{"PL", "Poland", ContinentEurope},
	{"CZ", "Czech Republic", ContinentEurope},
	{"GR", "Greece", ContinentEurope},
	{"UA", "Ukraine", ContinentEurope},
	{"RU", "Russia", ContinentEurope},
	// Africa
	{"EG", "Egypt", ContinentAfrica},
	{"MA", "Morocco", ContinentAfrica},
	{"NG", "Nigeria", ContinentAfrica},
	{"KE", "Kenya", ContinentAfrica},
	{"ZA", "South Africa", ContinentAfrica},
	{"GH", "Ghana", ContinentAfrica},
	{"ET", "Ethiopia", ContinentAfrica},
	{"TZ", "Tanzania", ContinentAfrica},
	// North America
	{"US", "United States", ContinentNorthAmerica},
	{"CA", "Canada", ContinentNorthAmerica},
	{"MX", "Mexico", ContinentNorthAmerica},
	{"CU", "Cuba", ContinentNorthAmerica},
	{"CR", "Costa Rica", ContinentNorthAmerica},
	{"PA", "Panama", ContinentNorthAmerica},
	// South America
	{"BR", "Brazil", ContinentSouthAmerica},
	{"AR", "Argentina", ContinentSouthAmerica},
	{"CL", "Chile", ContinentSouthAmerica},
	{"CO", "Colombia", ContinentSouthAmerica},
	{"PE", "Peru", ContinentSouthAmerica},
	{"VE", "Venezuela", ContinentSouthAmerica},
	{"EC", "Ecuador", ContinentSouthAmerica},
	{"UY", "Uruguay", ContinentSouthAmerica},
	// Oceania
	{"AU", "Australia", ContinentOceania},
	{"NZ", "New Zealand", ContinentOceania},
	{"FJ", "Fiji", ContinentOceania},
	{"PG", "Papua New Guinea", ContinentOceania},
}

var continentByCountry = buildContinentIndex()

func buildContinentIndex() map[string]string {
	idx := make(map[string]string, len(countries)*2)
	for _, c := range countries {
		idx[strings.ToLower(c.code)] = c.continent
		idx[strings.ToLower(c.name)] = c.continent
	}
	// Частые варианты написания
	idx["usa"] = ContinentNorthAmerica
	idx["uk"] = ContinentEurope
	idx["uae"] = ContinentAsia
	idx["korea"] = ContinentAsia
	return idx
}

// ContinentOf возвращает континент страны. ok=false: страны нет в справочнике.
func ContinentOf(country string) (string, bool) {
	continent, ok := continentByCountry[strings.ToLower(strings.TrimSpace(country))]
	return continent, ok
}

// DistinctContinents считает разные континенты; неизвестные страны пропускаются.
func DistinctContinents(list []string) int {
	seen := make(map[string]struct{})
	for _, c := range list {
		if continent, ok := ContinentOf(c); ok {
			seen[continent] = struct{}{}
		}
	}
	return len(seen)
}
