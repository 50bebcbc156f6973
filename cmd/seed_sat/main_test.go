package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

func TestParseRows_SaltaTitulosYLeeVigencia(t *testing.T) {
	rows := [][]string{
		{"Catálogo de formas de pago."},
		{},
		{"c_FormaPago", "Descripción", "Bancarizado", "Fecha inicio de vigencia", "Fecha fin de vigencia"},
		{"03", "Transferencia  electrónica de fondos", "Sí", "2022-01-01"},
		{"01", "Efectivo", "No", "2022-01-01", "2030-12-31"},
		{"", "sin clave"},
	}

	got := parseRows("c_FormaPago", rows)

	require.Len(t, got, 2)
	assert.Equal(t, "01", got[0].code)
	require.NotNil(t, got[0].validTo)
	assert.Equal(t, "2030-12-31", got[0].validTo.Format("2006-01-02"))
	assert.Equal(t, "Transferencia electrónica de fondos", got[1].description)
	assert.Nil(t, got[1].validTo)
}

func TestParseRows_SinEncabezado(t *testing.T) {
	assert.Nil(t, parseRows("c_UsoCFDI", [][]string{{"otra cosa"}}))
}

func TestParseDate_SerialExcel(t *testing.T) {
	d := parseDate("44562")
	require.NotNil(t, d)
	assert.Equal(t, "2022-01-01", d.Format("2006-01-02"))
	assert.Nil(t, parseDate("no es fecha"))
}

func TestReadLatin1CSV(t *testing.T) {
	raw, err := charmap.ISO8859_1.NewEncoder().String("c_UsoCFDI,Descripción\nG03,Gastos en general\nS01,Sin efectos fiscales\n")
	require.NoError(t, err)

	rows, err := readLatin1CSV(strings.NewReader(raw))
	require.NoError(t, err)

	assert.Equal(t, "Descripción", rows[0][1])
	got := parseRows("c_UsoCFDI", rows)
	require.Len(t, got, 2)
	assert.Equal(t, "G03", got[0].code)
}

func TestReadWorkbook(t *testing.T) {
	f := excelize.NewFile()
	_, err := f.NewSheet("c_ClaveUnidad")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("c_ClaveUnidad", "A1", &[]any{"Catálogo de unidades"}))
	require.NoError(t, f.SetSheetRow("c_ClaveUnidad", "A3", &[]any{"c_ClaveUnidad", "Nombre"}))
	require.NoError(t, f.SetSheetRow("c_ClaveUnidad", "A4", &[]any{"H87", "Pieza"}))
	require.NoError(t, f.SetSheetRow("c_ClaveUnidad", "A5", &[]any{"E48", "Unidad de servicio"}))
	path := filepath.Join(t.TempDir(), "catCFDI.xlsx")
	require.NoError(t, f.SaveAs(path))

	got, err := readWorkbook(path)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "c_ClaveUnidad", got[0].catalog)
	assert.Equal(t, "E48", got[0].code)
}

func TestWriteSQL(t *testing.T) {
	var buf bytes.Buffer
	writeSQL(&buf, []entry{
		{catalog: "c_ClaveProdServ", code: "01010101", description: "No existe en el catálogo"},
		{catalog: "c_ClaveUnidad", code: "H87", description: "Pieza d'uso"},
	})

	sql := buf.String()
	assert.Contains(t, sql, "('c_ClaveProdServ', '01010101', 'No existe en el catálogo', NULL, NULL),\n")
	assert.Contains(t, sql, "('c_ClaveUnidad', 'H87', 'Pieza d''uso', NULL, NULL)\n")
	assert.Equal(t, 1, strings.Count(sql, "ON CONFLICT"))
}
