/*
Copyright 2025 Misrecon Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package misrecon

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ankitarsangwan-bit/misrecon/config"
	"github.com/ankitarsangwan-bit/misrecon/internal/apierror"
	"github.com/ankitarsangwan-bit/misrecon/model"
	"github.com/sirupsen/logrus"
	"github.com/texttheater/golang-levenshtein/levenshtein"
	"github.com/xuri/excelize/v2"
)

// Supported MIS extract formats.
const (
	mimeCSV  = "text/csv"
	mimeJSON = "application/json"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// headerSynonyms lists, per target field, the source column names MIS teams
// have shipped for it. Matching is done on the canonicalized header, exact
// first and by edit distance second.
var headerSynonyms = map[string][]string{
	model.FieldApplicationID:   {"application_id", "app_id", "application_no", "application_number", "appl_id"},
	model.FieldBlazeOutput:     {"blaze_output", "blaze_decision", "blaze_result", "bre_output"},
	model.FieldLoginStatus:     {"login_status", "login_stage", "login"},
	model.FieldFinalStatus:     {"final_status", "final_decision", "application_status", "status"},
	model.FieldLastUpdatedDate: {"last_updated_date", "last_updated", "updated_date", "last_update_date"},
	model.FieldVKYCStatus:      {"vkyc_status", "video_kyc_status", "v_kyc_status", "vkyc"},
	model.FieldCoreNonCore:     {"core_non_core", "core_noncore", "customer_segment", "core_flag"},
	model.FieldVKYCEligible:    {"vkyc_eligible", "vkyc_eligibility", "video_kyc_eligible"},
	model.FieldRejectionReason: {"rejection_reason", "reject_reason", "decline_reason"},
	model.FieldState:           {"state", "applicant_state", "region"},
	model.FieldProduct:         {"product", "product_type", "card_variant"},
	model.FieldApplicationDate: {"application_date", "app_date", "created_date", "sourcing_date"},
}

// maxHeaderDistance is the largest edit distance at which a canonicalized
// header is still considered the same column as a known synonym.
const maxHeaderDistance = 2

// ingestLimits carries the configured upload bounds. A zero value leaves the
// corresponding bound unenforced.
type ingestLimits struct {
	maxBytes     int64
	maxRowErrors int
}

func newIngestLimits(conf config.IngestionConfig) ingestLimits {
	var limits ingestLimits
	if conf.MaxUploadSizeMB != nil {
		limits.maxBytes = int64(*conf.MaxUploadSizeMB) << 20
	}
	if conf.MaxRowErrors != nil {
		limits.maxRowErrors = *conf.MaxRowErrors
	}
	return limits
}

// exceeded reports whether the collected row errors have passed the abort
// threshold. A file this broken is a wrong extract, not a dirty one.
func (l ingestLimits) exceeded(rowErrors []model.RowError) error {
	if l.maxRowErrors > 0 && len(rowErrors) > l.maxRowErrors {
		return apierror.NewAPIError(apierror.ErrRowValidation,
			fmt.Sprintf("aborting ingestion: more than %d rows failed validation", l.maxRowErrors), nil)
	}
	return nil
}

// UploadMISData ingests one MIS extract: the stream is spooled to a temp
// file, its format detected, every row mapped through the column mapping and
// validated, and valid rows staged under a fresh upload id. A nil mapping is
// auto-derived from the file's header row. Row-level failures are collected,
// not fatal; the batch proceeds with the rows that validated, up to the
// configured row-error threshold.
func (s *Misrecon) UploadMISData(ctx context.Context, reader io.Reader, filename string, mapping model.ColumnMapping) (string, int, []model.RowError, error) {
	cfg, err := config.Fetch()
	if err != nil {
		return "", 0, nil, err
	}
	limits := newIngestLimits(cfg.Ingestion)

	uploadID := model.GenerateUUIDWithSuffix("upload")

	tempFile, err := s.createAndPopulateTempFile(filename, reader, limits.maxBytes)
	if err != nil {
		return "", 0, nil, err
	}
	defer s.cleanupTempFile(tempFile)

	fileType, err := s.detectFileTypeFromTempFile(tempFile, filename)
	if err != nil {
		return "", 0, nil, err
	}

	total, rowErrors, err := s.parseAndStoreData(ctx, uploadID, mapping, tempFile, fileType, limits)
	if err != nil {
		return "", 0, nil, err
	}

	return uploadID, total, rowErrors, nil
}

// SuggestColumnMapping derives a column mapping from a set of source headers
// without ingesting anything. It backs the mapping-suggestion endpoint.
func (s *Misrecon) SuggestColumnMapping(headers []string) model.ColumnMapping {
	return AutoMapColumns(headers)
}

// AutoMapColumns matches source headers against the known synonyms of each
// target field. Exact canonical matches win; otherwise the closest synonym
// within maxHeaderDistance does. Headers nothing matches are left unmapped
// and their columns ignored downstream. Both passes scan targets in
// model.TargetFields order so repeated calls over the same headers always
// suggest the same mapping.
func AutoMapColumns(headers []string) model.ColumnMapping {
	mapping := make(model.ColumnMapping)
	claimed := make(map[string]bool)

	// Exact pass first so a sloppy fuzzy match can never steal a column an
	// exact header is entitled to.
	for _, header := range headers {
		canonical := canonicalizeHeader(header)
		if target := exactMatchTarget(canonical, claimed); target != "" {
			mapping[header] = target
			claimed[target] = true
		}
	}

	for _, header := range headers {
		if _, done := mapping[header]; done {
			continue
		}
		canonical := canonicalizeHeader(header)
		if target := fuzzyMatchTarget(canonical, claimed); target != "" {
			mapping[header] = target
			claimed[target] = true
		}
	}

	return mapping
}

func exactMatchTarget(canonical string, claimed map[string]bool) string {
	for _, target := range model.TargetFields {
		if claimed[target] {
			continue
		}
		for _, synonym := range headerSynonyms[target] {
			if canonical == synonym {
				return target
			}
		}
	}
	return ""
}

// fuzzyMatchTarget returns the unclaimed target with the closest synonym
// within maxHeaderDistance. Only a strictly closer synonym displaces the
// current candidate, so a header equidistant from two targets resolves to
// the earlier one in model.TargetFields on every run.
func fuzzyMatchTarget(canonical string, claimed map[string]bool) string {
	bestTarget := ""
	bestDistance := maxHeaderDistance + 1
	for _, target := range model.TargetFields {
		if claimed[target] {
			continue
		}
		for _, synonym := range headerSynonyms[target] {
			d := levenshtein.DistanceForStrings([]rune(canonical), []rune(synonym), levenshtein.DefaultOptions)
			if d < bestDistance {
				bestDistance = d
				bestTarget = target
			}
		}
	}
	return bestTarget
}

// canonicalizeHeader lowers a source header and collapses every run of
// non-alphanumeric characters to a single underscore, so "Last Updated Date"
// and "last-updated-date" canonicalize identically.
func canonicalizeHeader(header string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(strings.TrimSpace(header)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// resolveMapping returns the mapping to use for a file, auto-deriving one
// from the headers when the caller supplied none, and rejects any mapping
// that leaves a required target field uncovered.
func resolveMapping(mapping model.ColumnMapping, headers []string) (model.ColumnMapping, error) {
	if len(mapping) == 0 {
		mapping = AutoMapColumns(headers)
	}
	if missing := mapping.MissingRequired(); len(missing) > 0 {
		return nil, apierror.NewAPIError(apierror.ErrSchema,
			fmt.Sprintf("column mapping does not cover required fields: %s", strings.Join(missing, ", ")), missing)
	}
	return mapping, nil
}

// validateRow applies row-level validation: an application id must be present
// and a supplied last-updated date must parse under a known layout. Returns
// the rejection reason, or "" when the row is acceptable.
func validateRow(row model.MappedRow) string {
	if strings.TrimSpace(row.ApplicationID()) == "" {
		return "missing application_id"
	}
	if raw := strings.TrimSpace(row.LastUpdatedDate()); raw != "" {
		if _, err := ParseMISDate(raw); err != nil {
			return fmt.Sprintf("unparseable last_updated_date %q", raw)
		}
	}
	return ""
}

// detectFileType resolves the format from the filename extension first and
// falls back to sniffing the content when the extension is unknown.
func detectFileType(data []byte, filename string) (string, error) {
	if mimeType := detectByExtension(filename); mimeType != "" {
		return mimeType, nil
	}
	return detectByContent(data)
}

func detectByExtension(filename string) string {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".csv":
		return mimeCSV
	case ".json":
		return mimeJSON
	case ".xlsx":
		return mimeXLSX
	default:
		return mime.TypeByExtension(ext)
	}
}

func detectByContent(data []byte) (string, error) {
	// XLSX is a zip container; the magic is checked before the generic
	// sniffer, which would report it as application/zip.
	if bytes.HasPrefix(data, []byte("PK\x03\x04")) {
		return mimeXLSX, nil
	}

	mimeType := http.DetectContentType(data)
	switch mimeType {
	case "application/octet-stream", "text/plain", "text/plain; charset=utf-8":
		return analyzeTextContent(data)
	case "text/csv; charset=utf-8":
		return mimeCSV, nil
	default:
		return mimeType, nil
	}
}

func analyzeTextContent(data []byte) (string, error) {
	if looksLikeCSV(data) {
		return mimeCSV, nil
	}
	if json.Valid(bytes.TrimSpace(data)) {
		return mimeJSON, nil
	}
	return "text/plain", nil
}

// looksLikeCSV requires at least two lines with a consistent field count of
// two or more.
func looksLikeCSV(data []byte) bool {
	lines := bytes.Split(data, []byte("\n"))
	if len(lines) < 2 {
		return false
	}

	fields := bytes.Count(lines[0], []byte(",")) + 1
	for _, line := range lines[1:] {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		if bytes.Count(line, []byte(","))+1 != fields {
			return false
		}
	}

	return fields > 1
}

func (s *Misrecon) parseAndStoreData(ctx context.Context, uploadID string, mapping model.ColumnMapping, reader io.Reader, fileType string, limits ingestLimits) (int, []model.RowError, error) {
	switch fileType {
	case mimeCSV, "text/csv; charset=utf-8":
		return s.parseAndStoreCSV(ctx, uploadID, mapping, reader, limits)
	case mimeJSON:
		return s.parseAndStoreJSON(ctx, uploadID, mapping, reader, limits)
	case mimeXLSX, "application/zip":
		return s.parseAndStoreXLSX(ctx, uploadID, mapping, reader, limits)
	default:
		return 0, nil, apierror.NewAPIError(apierror.ErrInvalidInput,
			fmt.Sprintf("unsupported file type: %s", fileType), nil)
	}
}

// parseAndStoreCSV streams a CSV extract row by row: the header row fixes the
// column order, every subsequent row is mapped, validated and staged.
func (s *Misrecon) parseAndStoreCSV(ctx context.Context, uploadID string, mapping model.ColumnMapping, reader io.Reader, limits ingestLimits) (int, []model.RowError, error) {
	csvReader := csv.NewReader(bufio.NewReader(reader))
	csvReader.FieldsPerRecord = -1

	headers, err := csvReader.Read()
	if err != nil {
		return 0, nil, fmt.Errorf("error reading CSV headers: %w", err)
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	mapping, err = resolveMapping(mapping, headers)
	if err != nil {
		return 0, nil, err
	}

	var rowErrors []model.RowError
	total := 0
	rowNum := 1 // header row is row 1

	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			rowErrors = append(rowErrors, model.RowError{Row: rowNum, Reason: fmt.Sprintf("malformed row: %v", err)})
			if err := limits.exceeded(rowErrors); err != nil {
				return 0, nil, err
			}
			continue
		}

		row := mapRecord(headers, record, mapping, rowNum)
		if reason := validateRow(row); reason != "" {
			rowErrors = append(rowErrors, model.RowError{Row: rowNum, Reason: reason})
			if err := limits.exceeded(rowErrors); err != nil {
				return 0, nil, err
			}
			continue
		}

		if err := s.datasource.RecordMISRow(ctx, uploadID, row); err != nil {
			return 0, nil, fmt.Errorf("error staging row %d: %w", rowNum, err)
		}
		total++

		// Check for cancellation every 1000 rows.
		if rowNum%1000 == 0 {
			select {
			case <-ctx.Done():
				return 0, nil, ctx.Err()
			default:
			}
		}
	}

	return total, rowErrors, nil
}

// parseAndStoreJSON ingests a JSON array of objects. Object keys play the
// role of source column headers; numbers and booleans are coerced to the
// string form an analyst would have typed in a spreadsheet cell.
func (s *Misrecon) parseAndStoreJSON(ctx context.Context, uploadID string, mapping model.ColumnMapping, reader io.Reader, limits ingestLimits) (int, []model.RowError, error) {
	decoder := json.NewDecoder(bufio.NewReader(reader))
	decoder.UseNumber()

	var objects []map[string]interface{}
	if err := decoder.Decode(&objects); err != nil {
		return 0, nil, fmt.Errorf("error decoding JSON data: %w", err)
	}

	headerSet := make(map[string]bool)
	var headers []string
	for _, object := range objects {
		for key := range object {
			if !headerSet[key] {
				headerSet[key] = true
				headers = append(headers, key)
			}
		}
	}

	mapping, err := resolveMapping(mapping, headers)
	if err != nil {
		return 0, nil, err
	}

	var rowErrors []model.RowError
	total := 0
	for i, object := range objects {
		rowNum := i + 1
		row := model.MappedRow{RowNumber: rowNum, Fields: make(map[string]string)}
		for key, value := range object {
			target, ok := mapping[key]
			if !ok {
				continue
			}
			row.Fields[target] = cellString(value)
		}

		if reason := validateRow(row); reason != "" {
			rowErrors = append(rowErrors, model.RowError{Row: rowNum, Reason: reason})
			if err := limits.exceeded(rowErrors); err != nil {
				return 0, nil, err
			}
			continue
		}
		if err := s.datasource.RecordMISRow(ctx, uploadID, row); err != nil {
			return 0, nil, fmt.Errorf("error staging row %d: %w", rowNum, err)
		}
		total++
	}

	return total, rowErrors, nil
}

// parseAndStoreXLSX ingests the first sheet of an Excel workbook. The first
// row is the header row, mirroring the CSV layout the same MIS teams export.
func (s *Misrecon) parseAndStoreXLSX(ctx context.Context, uploadID string, mapping model.ColumnMapping, reader io.Reader, limits ingestLimits) (int, []model.RowError, error) {
	workbook, err := excelize.OpenReader(reader)
	if err != nil {
		return 0, nil, fmt.Errorf("error opening workbook: %w", err)
	}
	defer func() {
		if err := workbook.Close(); err != nil {
			logrus.Warnf("error closing workbook: %v", err)
		}
	}()

	sheet := workbook.GetSheetName(0)
	if sheet == "" {
		return 0, nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := workbook.GetRows(sheet)
	if err != nil {
		return 0, nil, fmt.Errorf("error reading sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return 0, nil, fmt.Errorf("sheet %q is empty", sheet)
	}

	headers := rows[0]
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}
	mapping, err = resolveMapping(mapping, headers)
	if err != nil {
		return 0, nil, err
	}

	var rowErrors []model.RowError
	total := 0
	for i, record := range rows[1:] {
		rowNum := i + 2

		row := mapRecord(headers, record, mapping, rowNum)
		if reason := validateRow(row); reason != "" {
			rowErrors = append(rowErrors, model.RowError{Row: rowNum, Reason: reason})
			if err := limits.exceeded(rowErrors); err != nil {
				return 0, nil, err
			}
			continue
		}
		if err := s.datasource.RecordMISRow(ctx, uploadID, row); err != nil {
			return 0, nil, fmt.Errorf("error staging row %d: %w", rowNum, err)
		}
		total++
	}

	return total, rowErrors, nil
}

// mapRecord turns one positional record into a MappedRow by routing each cell
// through the column mapping. Cells past the header width and columns the
// mapping does not cover are dropped.
func mapRecord(headers, record []string, mapping model.ColumnMapping, rowNum int) model.MappedRow {
	row := model.MappedRow{RowNumber: rowNum, Fields: make(map[string]string)}
	for i, header := range headers {
		if i >= len(record) {
			break
		}
		target, ok := mapping[header]
		if !ok {
			continue
		}
		row.Fields[target] = record[i]
	}
	return row
}

// cellString renders a decoded JSON value the way a spreadsheet cell would
// hold it. Nulls become empty strings, numbers keep their source form.
func cellString(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// createAndPopulateTempFile spools the upload to disk, reading at most one
// byte past maxBytes so an oversized stream is rejected without copying the
// rest of it.
func (s *Misrecon) createAndPopulateTempFile(filename string, reader io.Reader, maxBytes int64) (*os.File, error) {
	tempFile, err := s.createTempFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error creating temporary file: %w", err)
	}

	if maxBytes > 0 {
		reader = io.LimitReader(reader, maxBytes+1)
	}
	written, err := io.Copy(tempFile, reader)
	if err != nil {
		s.cleanupTempFile(tempFile)
		return nil, fmt.Errorf("error copying upload data: %w", err)
	}
	if maxBytes > 0 && written > maxBytes {
		s.cleanupTempFile(tempFile)
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput,
			fmt.Sprintf("upload exceeds the %d MB size limit", maxBytes>>20), nil)
	}

	if _, err := tempFile.Seek(0, 0); err != nil {
		s.cleanupTempFile(tempFile)
		return nil, fmt.Errorf("error seeking temporary file: %w", err)
	}

	return tempFile, nil
}

// detectFileTypeFromTempFile sniffs the first 512 bytes and rewinds.
func (s *Misrecon) detectFileTypeFromTempFile(tempFile *os.File, filename string) (string, error) {
	header := make([]byte, 512)
	if _, err := tempFile.Read(header); err != nil && err != io.EOF {
		return "", fmt.Errorf("error reading file header: %w", err)
	}

	fileType, err := detectFileType(header, filename)
	if err != nil {
		return "", fmt.Errorf("error detecting file type: %w", err)
	}

	if _, err := tempFile.Seek(0, 0); err != nil {
		return "", fmt.Errorf("error seeking temporary file: %w", err)
	}

	return fileType, nil
}

func (s *Misrecon) createTempFile(originalFilename string) (*os.File, error) {
	tempDir := filepath.Join(os.TempDir(), "misrecon_uploads")
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, fmt.Errorf("error creating temporary directory: %w", err)
	}

	prefix := fmt.Sprintf("%s_", filepath.Base(originalFilename))
	tempFile, err := os.CreateTemp(tempDir, prefix)
	if err != nil {
		return nil, fmt.Errorf("error creating temporary file: %w", err)
	}

	return tempFile, nil
}

func (s *Misrecon) cleanupTempFile(file *os.File) {
	if file != nil {
		filename := file.Name()
		file.Close()
		if err := os.Remove(filename); err != nil {
			logrus.Warnf("error removing temporary file %s: %v", filename, err)
		}
	}
}
