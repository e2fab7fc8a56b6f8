// Package modelspec compiles CUE source-model definitions into scenario
// source definitions. Models are plain CUE structs under a top-level
// "source" field:
//
//	source: "area-1": {
//		group:           1
//		serial_base:     0
//		tectonic_region: "Active Shallow Crust"
//		time_span:       50
//		ruptures: [
//			{mag: 6.5, rate: 0.01, distance_km: 30, sites: [0, 1]},
//			{mag: 5.0, occurrences: {"0/1": 1}, distance_km: 10, sites: [0]},
//		]
//	}
//
// A rupture declares either an annual "rate" (poisson occurrence model over
// the source's time span) or explicit per-cell "occurrences" keyed by
// "sample/ses".
package modelspec

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/hazardlab/sesgen/internal/scenario"
)

// CompileError is a source-model compilation failure with position
// information for diagnostics.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s (line %d)", e.Field, e.Message, e.Pos.Line())
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// CompileFiles compiles every given CUE model file and returns the combined
// source definitions, in file order and declaration order within each file.
func CompileFiles(paths []string) ([]scenario.SourceDef, error) {
	cctx := cuecontext.New()

	var defs []scenario.SourceDef
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read model file: %w", err)
		}
		v := cctx.CompileBytes(data, cue.Filename(path))
		if err := v.Err(); err != nil {
			return nil, formatCUEError(err)
		}

		fileDefs, err := compileValue(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		defs = append(defs, fileDefs...)
	}
	if len(defs) == 0 {
		return nil, &CompileError{Field: "source", Message: "no source definitions found"}
	}
	return defs, nil
}

func compileValue(v cue.Value) ([]scenario.SourceDef, error) {
	sourcesVal := v.LookupPath(cue.ParsePath("source"))
	if !sourcesVal.Exists() {
		return nil, &CompileError{
			Field:   "source",
			Message: "top-level source struct is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := sourcesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var defs []scenario.SourceDef
	for iter.Next() {
		def, err := CompileSource(iter.Selector().Unquoted(), iter.Value())
		if err != nil {
			return nil, err
		}
		defs = append(defs, *def)
	}
	return defs, nil
}

// CompileSource parses a single CUE source struct into a SourceDef.
func CompileSource(id string, v cue.Value) (*scenario.SourceDef, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if id == "" {
		return nil, &CompileError{Field: "source", Message: "source id is empty", Pos: v.Pos()}
	}

	def := &scenario.SourceDef{ID: id, TimeSpanYears: 1}

	if gv := v.LookupPath(cue.ParsePath("group")); gv.Exists() {
		group, err := gv.Int64()
		if err != nil {
			return nil, compileErr("group", gv, err)
		}
		if group < 0 || group > 65535 {
			return nil, &CompileError{
				Field:   "group",
				Message: fmt.Sprintf("group %d does not fit in 16 bits", group),
				Pos:     gv.Pos(),
			}
		}
		def.Group = uint16(group)
	}

	if sv := v.LookupPath(cue.ParsePath("serial_base")); sv.Exists() {
		base, err := sv.Int64()
		if err != nil {
			return nil, compileErr("serial_base", sv, err)
		}
		if base < 0 {
			return nil, &CompileError{Field: "serial_base", Message: "serial_base must be non-negative", Pos: sv.Pos()}
		}
		def.SerialBase = base
	}

	if tv := v.LookupPath(cue.ParsePath("tectonic_region")); tv.Exists() {
		region, err := tv.String()
		if err != nil {
			return nil, compileErr("tectonic_region", tv, err)
		}
		def.TectonicRegion = region
	}

	if tsv := v.LookupPath(cue.ParsePath("time_span")); tsv.Exists() {
		span, err := tsv.Float64()
		if err != nil {
			return nil, compileErr("time_span", tsv, err)
		}
		if span <= 0 {
			return nil, &CompileError{Field: "time_span", Message: "time_span must be positive", Pos: tsv.Pos()}
		}
		def.TimeSpanYears = span
	}

	rupsVal := v.LookupPath(cue.ParsePath("ruptures"))
	if !rupsVal.Exists() {
		return nil, &CompileError{Field: "ruptures", Message: "ruptures list is required", Pos: v.Pos()}
	}
	rupIter, err := rupsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for rupIter.Next() {
		rd, err := compileRupture(rupIter.Value())
		if err != nil {
			return nil, err
		}
		def.Ruptures = append(def.Ruptures, *rd)
	}
	if len(def.Ruptures) == 0 {
		return nil, &CompileError{Field: "ruptures", Message: "at least one rupture is required", Pos: rupsVal.Pos()}
	}

	return def, nil
}

func compileRupture(v cue.Value) (*scenario.RuptureDef, error) {
	rd := &scenario.RuptureDef{}

	magVal := v.LookupPath(cue.ParsePath("mag"))
	if !magVal.Exists() {
		return nil, &CompileError{Field: "mag", Message: "mag is required", Pos: v.Pos()}
	}
	mag, err := magVal.Float64()
	if err != nil {
		return nil, compileErr("mag", magVal, err)
	}
	rd.Mag = mag

	occVal := v.LookupPath(cue.ParsePath("occurrences"))
	rateVal := v.LookupPath(cue.ParsePath("rate"))
	switch {
	case occVal.Exists():
		if rateVal.Exists() {
			return nil, &CompileError{
				Field:   "occurrences",
				Message: "rate and occurrences are mutually exclusive",
				Pos:     occVal.Pos(),
			}
		}
		occ, err := compileOccurrences(occVal)
		if err != nil {
			return nil, err
		}
		rd.Occurrences = occ
	case rateVal.Exists():
		rate, err := rateVal.Float64()
		if err != nil {
			return nil, compileErr("rate", rateVal, err)
		}
		if rate <= 0 {
			return nil, &CompileError{Field: "rate", Message: "rate must be positive", Pos: rateVal.Pos()}
		}
		rd.Rate = rate
	default:
		return nil, &CompileError{
			Field:   "rate",
			Message: "either rate or occurrences is required",
			Pos:     v.Pos(),
		}
	}

	if dv := v.LookupPath(cue.ParsePath("distance_km")); dv.Exists() {
		dist, err := dv.Float64()
		if err != nil {
			return nil, compileErr("distance_km", dv, err)
		}
		if dist < 0 {
			return nil, &CompileError{Field: "distance_km", Message: "distance_km must be non-negative", Pos: dv.Pos()}
		}
		rd.DistanceKm = dist
	}

	sitesVal := v.LookupPath(cue.ParsePath("sites"))
	if !sitesVal.Exists() {
		return nil, &CompileError{Field: "sites", Message: "sites list is required", Pos: v.Pos()}
	}
	siteIter, err := sitesVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for siteIter.Next() {
		sid, err := siteIter.Value().Int64()
		if err != nil {
			return nil, compileErr("sites", siteIter.Value(), err)
		}
		if sid < 0 {
			return nil, &CompileError{Field: "sites", Message: "site indices must be non-negative", Pos: sitesVal.Pos()}
		}
		rd.SIDs = append(rd.SIDs, uint32(sid))
	}
	if len(rd.SIDs) == 0 {
		return nil, &CompileError{Field: "sites", Message: "at least one site index is required", Pos: sitesVal.Pos()}
	}

	return rd, nil
}

// compileOccurrences parses the fixed occurrence map. Keys follow the
// "sample/ses" convention, e.g. "0/1" is logic-tree sample 0, event set 1.
func compileOccurrences(v cue.Value) (map[scenario.Cell]int, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	occ := make(map[scenario.Cell]int)
	for iter.Next() {
		key := iter.Selector().Unquoted()
		c, err := parseCell(key)
		if err != nil {
			return nil, &CompileError{
				Field:   "occurrences",
				Message: err.Error(),
				Pos:     iter.Value().Pos(),
			}
		}
		n, err := iter.Value().Int64()
		if err != nil {
			return nil, compileErr("occurrences", iter.Value(), err)
		}
		if n < 1 {
			return nil, &CompileError{
				Field:   "occurrences",
				Message: fmt.Sprintf("count for cell %q must be positive", key),
				Pos:     iter.Value().Pos(),
			}
		}
		occ[c] = int(n)
	}
	return occ, nil
}

func parseCell(key string) (scenario.Cell, error) {
	parts := strings.Split(key, "/")
	if len(parts) != 2 {
		return scenario.Cell{}, fmt.Errorf("cell key %q is not of the form sample/ses", key)
	}
	sample, err := strconv.Atoi(parts[0])
	if err != nil || sample < 0 {
		return scenario.Cell{}, fmt.Errorf("cell key %q has an invalid sample index", key)
	}
	ses, err := strconv.Atoi(parts[1])
	if err != nil || ses < 1 {
		return scenario.Cell{}, fmt.Errorf("cell key %q has an invalid ses index (1-based)", key)
	}
	return scenario.Cell{Sample: sample, SES: ses}, nil
}

func compileErr(field string, v cue.Value, err error) *CompileError {
	return &CompileError{Field: field, Message: err.Error(), Pos: v.Pos()}
}

func formatCUEError(err error) error {
	return fmt.Errorf("cue: %s", cueerrors.Details(err, nil))
}
