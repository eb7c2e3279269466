package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func row(number int, cells map[string]string) Row {
	return Row{Number: number, Fields: cells}
}

func TestValidateHeaderReportsAllProblemsAtOnce(t *testing.T) {
	rows := []Row{row(1, map[string]string{
		"companyName": "Acme",
		"bogusColumn": "x",
	})}

	err := ValidateHeader(rows, []string{"companyName", "distributorCode", "anchorId"}, HeaderStrict)
	require.Error(t, err)

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	require.Equal(t, []string{"anchorId", "distributorCode"}, schemaErr.MissingFields)
	require.Equal(t, []string{"bogusColumn"}, schemaErr.ExtraFields)
}

func TestValidateHeaderAllowExtra(t *testing.T) {
	rows := []Row{row(1, map[string]string{
		"invoiceNumber": "INV-1",
		"bankSideNote":  "ignored",
	})}

	err := ValidateHeader(rows, []string{"invoiceNumber"}, HeaderAllowExtra)
	require.NoError(t, err)

	err = ValidateHeader(rows, []string{"invoiceNumber", "utr"}, HeaderAllowExtra)
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	require.Equal(t, []string{"utr"}, schemaErr.MissingFields)
	require.Empty(t, schemaErr.ExtraFields)
}

func TestCheckDuplicateKeysRejectsWholeBatch(t *testing.T) {
	rows := []Row{
		row(1, map[string]string{"distributorCode": "D100"}),
		row(2, map[string]string{"distributorCode": "D200"}),
		row(3, map[string]string{"distributorCode": "D100"}),
		row(4, map[string]string{"distributorCode": "D200"}),
		row(5, map[string]string{"distributorCode": "D300"}),
	}

	err := CheckDuplicateKeys(rows, "distributorCode")
	require.Error(t, err)

	var dupErr *DuplicateKeyError
	require.ErrorAs(t, err, &dupErr)
	require.Equal(t, "distributorCode", dupErr.Field)
	require.Equal(t, []string{"D100", "D200"}, dupErr.Keys)
}

func TestCheckDuplicateKeysIgnoresAbsentKeys(t *testing.T) {
	rows := []Row{
		row(1, map[string]string{"invoiceNumber": "NA"}),
		row(2, map[string]string{"invoiceNumber": ""}),
		row(3, map[string]string{"invoiceNumber": "INV-1"}),
	}
	require.NoError(t, CheckDuplicateKeys(rows, "invoiceNumber"))
}

func TestDropEmptyRows(t *testing.T) {
	rows := []Row{
		row(1, map[string]string{"companyName": "Acme", "city": "Pune"}),
		row(2, map[string]string{"companyName": "  ", "city": ""}),
		row(3, map[string]string{"companyName": "Zed", "city": "Agra"}),
	}
	kept := DropEmptyRows(rows)
	require.Len(t, kept, 2)
	require.Equal(t, 1, kept[0].Number)
	require.Equal(t, 3, kept[1].Number)
}

func TestReadCSV(t *testing.T) {
	src := strings.Join([]string{
		"Company Name,Distributor Code,Sanction Limit",
		"Acme Traders,D100,\"1,00,000\"",
		"Zed Supplies,D200,50000",
	}, "\n")

	rows, err := ReadCSV(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, 1, rows[0].Number)
	require.Equal(t, "Acme Traders", rows[0].Raw("companyName"))
	require.Equal(t, "D100", rows[0].Raw("distributorCode"))
	require.Equal(t, "1,00,000", rows[0].Raw("sanctionLimit"))
}

func TestReadCSVEmpty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	require.Error(t, err)

	_, err = ReadCSV(strings.NewReader("Company Name,Distributor Code\n"))
	require.Error(t, err)
}
