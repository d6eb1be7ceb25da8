// buildroute generates route seed documents from the world-cities SQLite
// databases. Two modes:
//
//	-mode=anchors   capitals plus a curated mega-city list, merged with
//	                country timezone data
//	-mode=timezone  every city in countries matching -offset, a candidate
//	                pool for hand-picking filler stops
//
// Output is a nested-dialect route document the tracker imports directly.
package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"
)

// megaCities are culturally significant anchors that are not capitals.
// Format: city name, ISO 3166-1 alpha-2 country code.
var megaCities = [][2]string{
	{"New York City", "US"}, {"Los Angeles", "US"}, {"Chicago", "US"}, {"Houston", "US"},
	{"Toronto", "CA"}, {"Montréal", "CA"},
	{"São Paulo", "BR"}, {"Rio de Janeiro", "BR"}, {"Guayaquil", "EC"},
	{"Istanbul", "TR"}, {"Saint Petersburg", "RU"}, {"Milan", "IT"},
	{"Barcelona", "ES"}, {"Munich", "DE"},
	{"Shanghai", "CN"}, {"Guangzhou", "CN"}, {"Shenzhen", "CN"}, {"Tianjin", "CN"}, {"Chongqing", "CN"},
	{"Mumbai", "IN"}, {"Kolkata", "IN"}, {"Chennai", "IN"}, {"Hyderabad", "IN"},
	{"Karachi", "PK"}, {"Lahore", "PK"},
	{"Osaka", "JP"}, {"Nagoya", "JP"}, {"Yangon", "MM"}, {"Busan", "KR"},
	{"Surabaya", "ID"}, {"Jeddah", "SA"}, {"Mashhad", "IR"}, {"Ho Chi Minh City", "VN"},
	{"Lagos", "NG"}, {"Johannesburg", "ZA"}, {"Dar es Salaam", "TZ"}, {"Douala", "CM"},
	{"Alexandria", "EG"}, {"Casablanca", "MA"},
	{"Sydney", "AU"}, {"Melbourne", "AU"}, {"Perth", "AU"}, {"Auckland", "NZ"},
}

type countryInfo struct {
	name      string
	capital   string
	timezones []timezoneInfo
}

type timezoneInfo struct {
	GMTOffset     int    `json:"gmtOffset"` // seconds
	GMTOffsetName string `json:"gmtOffsetName"`
	ZoneName      string `json:"zoneName"`
}

type city struct {
	name        string
	countryCode string
	lat         float64
	lng         float64
}

// node is the nested-dialect record the tracker's import endpoint accepts.
type node struct {
	ID       string       `json:"id"`
	Location nodeLocation `json:"location"`
}

type nodeLocation struct {
	Name           string  `json:"name"`
	Lat            float64 `json:"lat"`
	Lng            float64 `json:"lng"`
	TimezoneOffset float64 `json:"timezone_offset"`
	Region         string  `json:"region,omitempty"`
}

func main() {
	countriesPath := flag.String("countries", "countries.sqlite3", "Path to countries SQLite database")
	citiesPath := flag.String("cities", "cities.sqlite3", "Path to cities SQLite database")
	mode := flag.String("mode", "anchors", "Generation mode: anchors or timezone")
	offset := flag.String("offset", "", "UTC offset for timezone mode, e.g. +14:00 or UTC+14:00")
	output := flag.String("output", "route_seed.json", "Output file for the route document")
	flag.Parse()

	countriesDB, err := sql.Open("sqlite", *countriesPath)
	if err != nil {
		log.Fatalf("Failed to open countries database: %v", err)
	}
	defer countriesDB.Close()

	citiesDB, err := sql.Open("sqlite", *citiesPath)
	if err != nil {
		log.Fatalf("Failed to open cities database: %v", err)
	}
	defer citiesDB.Close()

	countries, err := loadCountries(countriesDB)
	if err != nil {
		log.Fatalf("Failed to load countries: %v", err)
	}
	log.Printf("Loaded %d countries", len(countries))

	var nodes []node
	switch *mode {
	case "anchors":
		nodes, err = buildAnchors(citiesDB, countries)
	case "timezone":
		if *offset == "" {
			log.Fatal("-offset is required in timezone mode")
		}
		nodes, err = buildTimezonePool(citiesDB, countries, normalizeOffsetName(*offset))
	default:
		log.Fatalf("Unknown mode %q (want anchors or timezone)", *mode)
	}
	if err != nil {
		log.Fatalf("Generation failed: %v", err)
	}

	doc, err := json.MarshalIndent(map[string]any{"nodes": nodes}, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode route document: %v", err)
	}
	if err := os.WriteFile(*output, doc, 0o644); err != nil {
		log.Fatalf("Failed to write %s: %v", *output, err)
	}
	log.Printf("Wrote %d nodes to %s", len(nodes), *output)
}

func loadCountries(db *sql.DB) (map[string]countryInfo, error) {
	rows, err := db.Query(`SELECT iso2, name, capital, timezones FROM countries`)
	if err != nil {
		return nil, fmt.Errorf("query countries: %w", err)
	}
	defer rows.Close()

	countries := make(map[string]countryInfo)
	for rows.Next() {
		var iso2, name string
		var capital, timezonesJSON sql.NullString
		if err := rows.Scan(&iso2, &name, &capital, &timezonesJSON); err != nil {
			return nil, fmt.Errorf("scan country row: %w", err)
		}
		info := countryInfo{name: name, capital: capital.String}
		if timezonesJSON.Valid && timezonesJSON.String != "" {
			if err := json.Unmarshal([]byte(timezonesJSON.String), &info.timezones); err != nil {
				log.Printf("Warning: could not parse timezone JSON for %s", iso2)
			}
		}
		countries[iso2] = info
	}
	return countries, rows.Err()
}

// buildAnchors resolves every capital plus the mega-city list against the
// cities database. Cities that cannot be found are logged and skipped.
func buildAnchors(citiesDB *sql.DB, countries map[string]countryInfo) ([]node, error) {
	type target struct{ name, code string }
	seen := map[target]bool{}
	var targets []target
	for code, info := range countries {
		if info.capital != "" {
			targets = append(targets, target{info.capital, code})
		}
	}
	for _, mc := range megaCities {
		targets = append(targets, target{mc[0], mc[1]})
	}

	var nodes []node
	for _, tg := range targets {
		if seen[tg] {
			continue
		}
		seen[tg] = true

		c, err := findCity(citiesDB, tg.name, tg.code)
		if err != nil {
			return nil, err
		}
		if c == nil {
			log.Printf("Warning: could not find %q, %s in cities database", tg.name, tg.code)
			continue
		}
		nodes = append(nodes, cityNode(*c, countries))
	}
	return nodes, nil
}

// buildTimezonePool lists every city in every country that has a timezone
// matching offsetName.
func buildTimezonePool(citiesDB *sql.DB, countries map[string]countryInfo, offsetName string) ([]node, error) {
	var codes []string
	for code, info := range countries {
		for _, tz := range info.timezones {
			if tz.GMTOffsetName == offsetName {
				codes = append(codes, code)
				break
			}
		}
	}
	if len(codes) == 0 {
		return nil, fmt.Errorf("no countries found for timezone %s", offsetName)
	}
	log.Printf("Found %d countries in %s: %v", len(codes), offsetName, codes)

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(codes)), ",")
	query := fmt.Sprintf(
		`SELECT name, country_code, latitude, longitude FROM cities WHERE country_code IN (%s)`,
		placeholders)
	args := make([]any, len(codes))
	for i, c := range codes {
		args[i] = c
	}

	rows, err := citiesDB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query cities by timezone: %w", err)
	}
	defer rows.Close()

	var nodes []node
	for rows.Next() {
		var c city
		if err := rows.Scan(&c.name, &c.countryCode, &c.lat, &c.lng); err != nil {
			return nil, fmt.Errorf("scan city row: %w", err)
		}
		nodes = append(nodes, cityNode(c, countries))
	}
	return nodes, rows.Err()
}

func findCity(db *sql.DB, name, countryCode string) (*city, error) {
	var c city
	err := db.QueryRow(
		`SELECT name, country_code, latitude, longitude FROM cities WHERE name = ? AND country_code = ?`,
		name, countryCode,
	).Scan(&c.name, &c.countryCode, &c.lat, &c.lng)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query city %q: %w", name, err)
	}
	return &c, nil
}

func cityNode(c city, countries map[string]countryInfo) node {
	loc := nodeLocation{
		Name: c.name,
		Lat:  c.lat,
		Lng:  c.lng,
	}
	if info, ok := countries[c.countryCode]; ok {
		loc.Region = info.name
		if len(info.timezones) > 0 {
			loc.TimezoneOffset = float64(info.timezones[0].GMTOffset) / 3600
		}
	}
	return node{ID: slug(c.name, c.countryCode), Location: loc}
}

func slug(name, countryCode string) string {
	s := strings.ToLower(name + "-" + countryCode)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			return r
		case r == ' ', r == '_':
			return '-'
		default:
			return -1
		}
	}, s)
}

// normalizeOffsetName accepts "+14:00", "14:00", "UTC+14:00" or "-5" and
// returns the gmtOffsetName form the countries database uses.
func normalizeOffsetName(raw string) string {
	s := strings.TrimPrefix(strings.TrimSpace(raw), "UTC")
	if s == "" {
		return "UTC+00:00"
	}
	sign := "+"
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	} else {
		s = strings.TrimPrefix(s, "+")
	}
	hours, minutes := s, "00"
	if i := strings.Index(s, ":"); i >= 0 {
		hours, minutes = s[:i], s[i+1:]
	}
	if h, err := strconv.Atoi(hours); err == nil {
		hours = fmt.Sprintf("%02d", h)
	}
	return fmt.Sprintf("UTC%s%s:%s", sign, hours, minutes)
}
