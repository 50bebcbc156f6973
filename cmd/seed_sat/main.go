// seed_sat genera el script SQL que puebla sat_catalog a partir de los catálogos oficiales del SAT.
//
// Uso: go run ./cmd/seed_sat [catCFDI.xlsx | directorio con CSV]
// Por defecto busca catCFDI.xlsx en el directorio actual. Los CSV (exportaciones en Latin-1)
// se nombran como el catálogo: c_FormaPago.csv, c_ClaveUnidad.csv, ...
// Escribe: db/seeds/sat_catalog.sql
package main

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// catalogs hojas de catCFDI.xlsx que usa la API.
var catalogs = []string{
	"c_ClaveProdServ",
	"c_ClaveUnidad",
	"c_FormaPago",
	"c_UsoCFDI",
	"c_RegimenFiscal",
}

const batchSize = 500

type entry struct {
	catalog     string
	code        string
	description string
	validFrom   *time.Time
	validTo     *time.Time
}

func main() {
	src := "catCFDI.xlsx"
	if len(os.Args) > 1 {
		src = os.Args[1]
	}

	var entries []entry
	var err error
	if info, statErr := os.Stat(src); statErr == nil && info.IsDir() {
		entries, err = readCSVDir(src)
	} else {
		entries, err = readWorkbook(src)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer catálogos: %v\n", err)
		os.Exit(1)
	}

	outPath := filepath.Join(findModuleRoot(), "db", "seeds", "sat_catalog.sql")
	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	writeSQL(w, entries)
	if err := w.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}

	counts := map[string]int{}
	for _, e := range entries {
		counts[e.catalog]++
	}
	for _, c := range catalogs {
		fmt.Printf("%-18s %6d claves\n", c, counts[c])
	}
	fmt.Printf("Generado %s\n", outPath)
}

// readWorkbook lee las hojas de catCFDI.xlsx.
func readWorkbook(path string) ([]entry, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var all []entry
	for _, c := range catalogs {
		if idx, _ := f.GetSheetIndex(c); idx < 0 {
			fmt.Fprintf(os.Stderr, "Hoja %s no encontrada, se omite\n", c)
			continue
		}
		rows, err := f.GetRows(c)
		if err != nil {
			return nil, fmt.Errorf("hoja %s: %w", c, err)
		}
		all = append(all, parseRows(c, rows)...)
	}
	return all, nil
}

// readCSVDir lee <dir>/<catálogo>.csv codificados en ISO-8859-1.
func readCSVDir(dir string) ([]entry, error) {
	var all []entry
	for _, c := range catalogs {
		f, err := os.Open(filepath.Join(dir, c+".csv"))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		rows, err := readLatin1CSV(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s.csv: %w", c, err)
		}
		all = append(all, parseRows(c, rows)...)
	}
	return all, nil
}

func readLatin1CSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(transform.NewReader(r, charmap.ISO8859_1.NewDecoder()))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr.ReadAll()
}

// parseRows extrae las claves de una hoja. Las hojas del SAT traen renglones de título antes del
// encabezado; el encabezado es el renglón cuya primera celda es el nombre del catálogo.
func parseRows(catalog string, rows [][]string) []entry {
	header := -1
	for i, r := range rows {
		if len(r) > 0 && strings.EqualFold(strings.TrimSpace(r[0]), catalog) {
			header = i
			break
		}
	}
	if header < 0 {
		return nil
	}
	fromCol, toCol := -1, -1
	for i, h := range rows[header] {
		h = strings.ToLower(h)
		switch {
		case strings.Contains(h, "inicio de vigencia"):
			fromCol = i
		case strings.Contains(h, "fin de vigencia"):
			toCol = i
		}
	}

	var out []entry
	for _, r := range rows[header+1:] {
		if len(r) < 2 {
			continue
		}
		code := strings.TrimSpace(r[0])
		desc := strings.Join(strings.Fields(r[1]), " ")
		if code == "" || desc == "" {
			continue
		}
		out = append(out, entry{
			catalog:     catalog,
			code:        code,
			description: desc,
			validFrom:   parseDate(cell(r, fromCol)),
			validTo:     parseDate(cell(r, toCol)),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].code < out[j].code })
	return out
}

func cell(r []string, i int) string {
	if i < 0 || i >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[i])
}

var dateLayouts = []string{"2006-01-02", "02/01/2006", "2/1/2006", "01-02-06", "2006-01-02 15:04:05"}

// parseDate acepta fechas de texto o el número de serie de Excel.
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return &t
		}
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		if t, err := excelize.ExcelDateToTime(n, false); err == nil {
			return &t
		}
	}
	return nil
}

// writeSQL escribe INSERTs por lotes con upsert por (catalog, code).
func writeSQL(w io.Writer, entries []entry) {
	fmt.Fprintln(w, "-- Catálogos SAT para CFDI 4.0")
	fmt.Fprintln(w, "-- Generado por cmd/seed_sat")
	fmt.Fprintln(w)
	for start := 0; start < len(entries); start += batchSize {
		end := min(start+batchSize, len(entries))
		fmt.Fprintln(w, "INSERT INTO sat_catalog (catalog, code, description, valid_from, valid_to) VALUES")
		for i, e := range entries[start:end] {
			sep := ","
			if start+i == end-1 {
				sep = ""
			}
			fmt.Fprintf(w, "  ('%s', '%s', '%s', %s, %s)%s\n",
				e.catalog, escapeSQL(e.code), escapeSQL(e.description), sqlDate(e.validFrom), sqlDate(e.validTo), sep)
		}
		fmt.Fprintln(w, "ON CONFLICT (catalog, code) DO UPDATE SET")
		fmt.Fprintln(w, "  description = EXCLUDED.description, valid_from = EXCLUDED.valid_from, valid_to = EXCLUDED.valid_to;")
		fmt.Fprintln(w)
	}
}

func sqlDate(t *time.Time) string {
	if t == nil {
		return "NULL"
	}
	return "'" + t.Format("2006-01-02") + "'"
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
