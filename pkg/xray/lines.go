// Package xray identifies elemental X-ray emission lines such as "Fe_Ka".
package xray

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownLine is returned for identifiers that do not name a known line
var ErrUnknownLine = errors.New("xray: unknown line")

// Line is one emission line of one element
type Line struct {
	Element string
	Family  string

	// Energy is the line energy in keV
	Energy float64

	// Estimated is set when Energy comes from a screened Moseley fit rather
	// than the measured table
	Estimated bool
}

// ID returns the identifier of the line, e.g. "Fe_Ka"
func (l Line) ID() string {
	return l.Element + "_" + l.Family
}

// Database maps elements to their known emission lines
type Database struct {
	lines map[string]map[string]float64

	// periodic enables every family the periodic table allows per element
	periodic bool
}

// NewDatabase builds a database from element -> family -> energy (keV).
// Only the listed lines are known to it.
func NewDatabase(lines map[string]map[string]float64) *Database {
	db := &Database{lines: make(map[string]map[string]float64, len(lines))}
	for el, fam := range lines {
		m := make(map[string]float64, len(fam))
		for f, e := range fam {
			m[f] = e
		}
		db.lines[el] = m
	}
	return db
}

// Default returns the built-in database: every element from H to Am with
// its K, L and M families, using measured energies where tabulated
func Default() *Database {
	return defaultDB
}

// Lookup parses an identifier and returns the line it names
func (db *Database) Lookup(id string) (Line, error) {
	el, fam, ok := strings.Cut(strings.TrimSpace(id), "_")
	if !ok || el == "" || fam == "" {
		return Line{}, fmt.Errorf("%w: %q is not of the form Element_Line", ErrUnknownLine, id)
	}
	if _, known := db.lines[el]; !known && !(db.periodic && atomicNumber[el] > 0) {
		return Line{}, fmt.Errorf("%w: %q has no element %q", ErrUnknownLine, id, el)
	}
	line, ok := db.line(el, fam)
	if !ok {
		return Line{}, fmt.Errorf("%w: element %s has no %s line", ErrUnknownLine, el, fam)
	}
	return line, nil
}

func (db *Database) line(el, fam string) (Line, bool) {
	if e, ok := db.lines[el][fam]; ok {
		return Line{Element: el, Family: fam, Energy: e}, true
	}
	if !db.periodic {
		return Line{}, false
	}
	e, ok := db.estimate(el, fam)
	if !ok {
		return Line{}, false
	}
	return Line{Element: el, Family: fam, Energy: e, Estimated: true}, true
}

// estimate returns the energy of a family the element can emit. Satellite
// families scale the measured or fitted principal line of their shell.
func (db *Database) estimate(el, fam string) (float64, bool) {
	z := atomicNumber[el]
	f, ok := families[fam]
	if !ok || z < f.minZ {
		return 0, false
	}
	if f.base == "" {
		d := float64(z) - f.screening
		return f.rydberg * d * d, true
	}
	if e, ok := db.lines[el][f.base]; ok {
		return e * f.ratio, true
	}
	e, ok := db.estimate(el, f.base)
	return e * f.ratio, ok
}

// Validate resolves every identifier, failing on the first unknown one
func (db *Database) Validate(ids []string) ([]Line, error) {
	out := make([]Line, 0, len(ids))
	for _, id := range ids {
		l, err := db.Lookup(id)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

// Lines returns every line of an element sorted by energy
func (db *Database) Lines(element string) []Line {
	seen := make(map[string]bool)
	var out []Line
	for fam := range db.lines[element] {
		seen[fam] = true
	}
	if db.periodic {
		for fam := range families {
			seen[fam] = true
		}
	}
	for fam := range seen {
		if l, ok := db.line(element, fam); ok {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Energy < out[j].Energy })
	return out
}
