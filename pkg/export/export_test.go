package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSVPadsShortRows(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, Table{
		Headers: []string{"timestamp", "actor", "action", "target"},
		Rows:    [][]string{{"2024-01-01T00:00:00Z", "root@school.test", "CREATE_CLASS"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "timestamp,actor,action,target\n2024-01-01T00:00:00Z,root@school.test,CREATE_CLASS,\n", buf.String())
}

func TestWriteCSVRequiresHeaders(t *testing.T) {
	assert.Error(t, WriteCSV(&bytes.Buffer{}, Table{}))
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	err := WritePDF(&buf, Document{
		Title:  "Fee Voucher",
		Fields: []Field{{Label: "Student", Value: "Ali"}, {Label: "Month", Value: "2024-09"}},
		Table:  &Table{Headers: []string{"Item", "Amount"}, Rows: [][]string{{"Tuition", "1500.00"}}},
		Footer: "Pay before the due date.",
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}
