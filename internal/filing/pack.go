package filing

// pack.go assembles the filing package: the deterministic folder name, the
// in-memory file tree, and the compressed archive handed to the regulator.
//
// The archive layout is a fixed external contract. Changing any path, file
// name, or metadata document here requires bumping the taxonomy reference in
// reports/report.json so the ingestion system can tell the layouts apart.

import (
	"archive/zip"
	"bytes"
	"compress/flate"
	"fmt"
	"io"
	"strings"
	"time"
)

// reportPackageJSON declares the package document type (META-INF/reportPackage.json).
const reportPackageJSON = `{
  "documentInfo": {
    "documentType": "https://xbrl.org/2023/report-package"
  }
}
`

// reportJSON declares the CSV report document type and pins the taxonomy
// module this package conforms to (reports/report.json). The extends URL is
// the versioning point for the whole layout.
const reportJSON = `{
  "documentInfo": {
    "documentType": "https://xbrl.org/2021/xbrl-csv",
    "extends": [
      "http://www.eba.europa.eu/eu/fr/xbrl/crr/fws/dora/4.0/mod/dora.json"
    ]
  }
}
`

// moduleCode is the fixed module segment of the canonical folder name.
const moduleCode = "CON_FR_DORA010100_DORA"

// formatVersion identifies the package layout generation in export metadata.
const formatVersion = "dora-4.0"

// PackageFile is one in-archive artifact prior to compression. Path is the
// exact forward-slash archive entry path, including the package folder.
type PackageFile struct {
	Path    string
	Content string
}

// ColumnLookup resolves the ordered column names for a template. The
// registry's ColumnOrder is the production lookup; callers with their own
// column schemas may substitute one.
type ColumnLookup func(TemplateID) []string

// ProgressFunc receives a notification after each template CSV has been
// added to the archive. Percent is computed over the fixed 15-template
// denominator so progress is stable regardless of how many templates carry
// data. The callback runs synchronously and must not block.
type ProgressFunc func(id TemplateID, percent int)

// TimestampToken renders a timestamp as the compact 17-character token used
// in package names: the UTC ISO-8601 form with all separators removed,
// truncated or zero-padded to YYYYMMDDHHmmssSSS.
func TimestampToken(ts time.Time) string {
	iso := ts.UTC().Format("2006-01-02T15:04:05.000Z")
	token := strings.NewReplacer("-", "", "T", "", ":", "", ".", "", "Z", "").Replace(iso)
	if len(token) > 17 {
		return token[:17]
	}
	return token + strings.Repeat("0", 17-len(token))
}

// PackageFolderName computes the canonical package folder name from the
// validated parameters and a build timestamp.
func PackageFolderName(p PackageParameters, ts time.Time) string {
	return fmt.Sprintf("%s.%s_%s_%s", p.LegalID(), moduleCode, p.RefPeriod, TimestampToken(ts))
}

// BuildPackageFiles produces the complete in-memory file tree for a filing
// package: the two metadata documents, parameters.csv, FilingIndicators.csv,
// and one CSV per registry template in registry order. It is pure and
// deterministic; identical inputs (same timestamp included) yield identical
// output. Parameters are rendered as given: validating them first is the
// caller's responsibility, which lets callers preview a package for an
// invalid-but-renderable record while still blocking submission.
func BuildPackageFiles(p PackageParameters, data map[TemplateID][]Row, ts time.Time, columns ColumnLookup) []PackageFile {
	if columns == nil {
		columns = ColumnOrder
	}
	folder := PackageFolderName(p, ts)

	files := make([]PackageFile, 0, len(Templates)+4)
	files = append(files,
		PackageFile{folder + "/META-INF/reportPackage.json", reportPackageJSON},
		PackageFile{folder + "/reports/report.json", reportJSON},
		PackageFile{folder + "/reports/parameters.csv", SerializeParameters(p)},
		PackageFile{folder + "/reports/FilingIndicators.csv", RenderFilingIndicators(DeriveFilingIndicators(data))},
	)
	for _, t := range Templates {
		files = append(files, PackageFile{
			Path:    folder + "/reports/" + t.ID.FileName(),
			Content: RenderCSV(columns(t.ID), data[t.ID], RenderOptions{}),
		})
	}
	return files
}

// BuildPackageZip compresses the package file tree into a single archive
// with maximum-ratio deflate and returns the archive bytes together with the
// canonical file name (folder name + ".zip").
func BuildPackageZip(p PackageParameters, data map[TemplateID][]Row, ts time.Time, columns ColumnLookup) ([]byte, string, error) {
	return BuildPackageZipWithProgress(p, data, ts, columns, nil)
}

// BuildPackageZipWithProgress is BuildPackageZip with a per-template
// progress callback; pass nil to disable notifications.
func BuildPackageZipWithProgress(p PackageParameters, data map[TemplateID][]Row, ts time.Time, columns ColumnLookup, progress ProgressFunc) ([]byte, string, error) {
	files := BuildPackageFiles(p, data, ts, columns)
	folder := PackageFolderName(p, ts)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})

	done := 0
	for _, f := range files {
		w, err := zw.Create(f.Path)
		if err != nil {
			return nil, "", fmt.Errorf("create archive entry %s: %w", f.Path, err)
		}
		if _, err := io.WriteString(w, f.Content); err != nil {
			return nil, "", fmt.Errorf("write archive entry %s: %w", f.Path, err)
		}
		if progress != nil {
			if id, ok := templateForPath(f.Path); ok {
				done++
				progress(id, done*100/len(Templates))
			}
		}
	}
	if err := zw.Close(); err != nil {
		return nil, "", fmt.Errorf("finalize archive: %w", err)
	}
	return buf.Bytes(), folder + ".zip", nil
}

// templateForPath maps an archive entry path back to its template, when the
// entry is one of the 15 per-template CSVs.
func templateForPath(path string) (TemplateID, bool) {
	name := path[strings.LastIndexByte(path, '/')+1:]
	for _, t := range Templates {
		if name == t.ID.FileName() {
			return t.ID, true
		}
	}
	return "", false
}

// TemplateFileInfo reports one exported template in the result metadata.
// RowCount reflects the input dataset length, not the rendered line count.
type TemplateFileInfo struct {
	TemplateID TemplateID `json:"templateId"`
	FileName   string     `json:"fileName"`
	RowCount   int        `json:"rowCount"`
}

// ExportResult is the outcome of a package build: either the archive with
// its per-template metadata, or one or more error messages. Never both.
type ExportResult struct {
	Success       bool               `json:"success"`
	PackageName   string             `json:"packageName,omitempty"`
	Archive       []byte             `json:"-"`
	Templates     []TemplateFileInfo `json:"templates,omitempty"`
	Timestamp     time.Time          `json:"timestamp"`
	Generator     string             `json:"generator,omitempty"`
	FormatVersion string             `json:"formatVersion,omitempty"`
	Errors        []string           `json:"errors,omitempty"`
}

// BuildOptions configures a top-level package build.
type BuildOptions struct {
	// Timestamp fixes the build timestamp; the zero value means wall clock.
	Timestamp time.Time
	// Generator names the producing system in the export metadata.
	Generator string
	// Columns overrides the registry column lookup.
	Columns ColumnLookup
	// Progress, when set, receives per-template notifications.
	Progress ProgressFunc
}

// BuildPackage orchestrates a full export and never panics: any failure in
// file assembly or compression becomes the failure variant of ExportResult.
// It does not validate parameters; callers gate submission on
// ValidateParameters separately.
func BuildPackage(p PackageParameters, data map[TemplateID][]Row, opts BuildOptions) (result ExportResult) {
	ts := opts.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	result = ExportResult{
		Timestamp:     ts,
		Generator:     opts.Generator,
		FormatVersion: formatVersion,
	}

	defer func() {
		if r := recover(); r != nil {
			result = ExportResult{
				Timestamp: ts,
				Errors:    []string{fmt.Sprintf("package build failed: %v", r)},
			}
		}
	}()

	archive, name, err := BuildPackageZipWithProgress(p, data, ts, opts.Columns, opts.Progress)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	result.Success = true
	result.PackageName = name
	result.Archive = archive
	for _, t := range Templates {
		result.Templates = append(result.Templates, TemplateFileInfo{
			TemplateID: t.ID,
			FileName:   t.ID.FileName(),
			RowCount:   len(data[t.ID]),
		})
	}
	return result
}
