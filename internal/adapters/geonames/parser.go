// Package geonames reads the GeoNames "cities" extracts
// (https://download.geonames.org/export/dump/) into catalog records.
package geonames

import (
	"archive/zip"
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"trip-planner-service/internal/domain"
)

// fieldCount is the number of tab-separated columns per GeoNames line.
const fieldCount = 19

// Column positions. Column 9 (alternate country codes) and 16 (DEM) are not kept.
const (
	colGeonameID = iota
	colName
	colASCIIName
	colAlternateNames
	colLatitude
	colLongitude
	colFeatureClass
	colFeatureCode
	colCountryCode
	colCC2
	colAdmin1
	colAdmin2
	colAdmin3
	colAdmin4
	colPopulation
	colElevation
	colDEM
	colTimezone
	colModified
)

// maxLineBytes bounds a single line; alternate name lists of large cities exceed bufio's 64KB default.
const maxLineBytes = 1 << 20

// ErrMalformedLine is wrapped by ParseLine for lines that cannot become a record.
var ErrMalformedLine = errors.New("malformed geonames line")

// ParseLine converts one TSV line into a CityRecord.
func ParseLine(line string) (domain.CityRecord, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != fieldCount {
		return domain.CityRecord{}, fmt.Errorf("%w: expected %d fields, got %d", ErrMalformedLine, fieldCount, len(fields))
	}

	id, err := strconv.ParseInt(strings.TrimSpace(fields[colGeonameID]), 10, 64)
	if err != nil {
		return domain.CityRecord{}, fmt.Errorf("%w: geonameid %q: %v", ErrMalformedLine, fields[colGeonameID], err)
	}

	name := strings.TrimSpace(fields[colName])
	if name == "" {
		return domain.CityRecord{}, fmt.Errorf("%w: geonameid %d has no name", ErrMalformedLine, id)
	}

	// Unparseable coordinates are rejected instead of defaulting to (0,0).
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(fields[colLatitude]), 64)
	lon, errLon := strconv.ParseFloat(strings.TrimSpace(fields[colLongitude]), 64)
	if errLat != nil || errLon != nil {
		return domain.CityRecord{}, fmt.Errorf("%w: geonameid %d has invalid coordinates", ErrMalformedLine, id)
	}
	if err := (domain.Coordinates{Lon: lon, Lat: lat}).Validate(); err != nil {
		return domain.CityRecord{}, fmt.Errorf("%w: geonameid %d: %v", ErrMalformedLine, id, err)
	}

	population, err := parseOptionalInt(fields[colPopulation])
	if err != nil {
		return domain.CityRecord{}, fmt.Errorf("%w: geonameid %d population: %v", ErrMalformedLine, id, err)
	}

	elevation, err := parseOptionalInt(fields[colElevation])
	if err != nil {
		return domain.CityRecord{}, fmt.Errorf("%w: geonameid %d elevation: %v", ErrMalformedLine, id, err)
	}

	return domain.CityRecord{
		GeonameID:      id,
		Name:           name,
		ASCIIName:      strings.TrimSpace(fields[colASCIIName]),
		AlternateNames: splitAlternateNames(fields[colAlternateNames]),
		Latitude:       lat,
		Longitude:      lon,
		FeatureClass:   fields[colFeatureClass],
		FeatureCode:    fields[colFeatureCode],
		CountryCode:    fields[colCountryCode],
		Admin1Code:     fields[colAdmin1],
		Admin2Code:     fields[colAdmin2],
		Admin3Code:     fields[colAdmin3],
		Admin4Code:     fields[colAdmin4],
		Population:     population,
		Elevation:      elevation,
		Timezone:       fields[colTimezone],
		ModifiedAt:     fields[colModified],
	}, nil
}

func parseOptionalInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

func splitAlternateNames(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}

	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Reader streams CityRecords from a GeoNames extract, skipping blank and malformed lines.
type Reader struct {
	scanner   *bufio.Scanner
	line      int
	malformed int
	// OnMalformed, if set, is called for every skipped line.
	OnMalformed func(line int, err error)
}

func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &Reader{scanner: scanner}
}

// Next returns the next well-formed record, or io.EOF once the input is exhausted.
func (r *Reader) Next() (domain.CityRecord, error) {
	for r.scanner.Scan() {
		r.line++
		text := strings.TrimRight(r.scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}

		rec, err := ParseLine(text)
		if err != nil {
			r.malformed++
			if r.OnMalformed != nil {
				r.OnMalformed(r.line, err)
			}
			continue
		}
		return rec, nil
	}

	if err := r.scanner.Err(); err != nil {
		return domain.CityRecord{}, fmt.Errorf("read geonames line %d: %w", r.line+1, err)
	}
	return domain.CityRecord{}, io.EOF
}

// Malformed reports how many lines were skipped so far.
func (r *Reader) Malformed() int { return r.malformed }

// Open returns a reader over a plain extract or over the first .txt entry of a zip archive.
func Open(path string) (io.ReadCloser, error) {
	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open geonames file %q: %w", path, err)
		}
		return f, nil
	}

	rz, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open geonames zip %q: %w", path, err)
	}

	for _, f := range rz.File {
		if !strings.EqualFold(filepath.Ext(f.Name), ".txt") {
			continue
		}
		entry, err := f.Open()
		if err != nil {
			_ = rz.Close()
			return nil, fmt.Errorf("open zip entry %q: %w", f.Name, err)
		}
		return &zipEntry{ReadCloser: entry, archive: rz}, nil
	}

	_ = rz.Close()
	return nil, fmt.Errorf("open geonames zip %q: no .txt entry", path)
}

// zipEntry closes both the entry and its archive.
type zipEntry struct {
	io.ReadCloser
	archive *zip.ReadCloser
}

func (z *zipEntry) Close() error {
	return errors.Join(z.ReadCloser.Close(), z.archive.Close())
}
