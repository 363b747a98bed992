package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpostbud/postbud/internal/domain/model"
)

func TestLetterRows(t *testing.T) {
	csvFile := []byte("Modtager,Navn,Tid\n0101011234,Jens Jensen,10:30\n0202022345,Bo Hansen,11:00\n")

	rows, err := LetterRows(csvFile, "")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, model.LetterRow{
		RecipientID: "0101011234",
		Fields:      map[string]string{"Navn": "Jens Jensen", "Tid": "10:30"},
	}, rows[0])
	assert.Equal(t, "0202022345", rows[1].RecipientID)
	assert.Equal(t, "Bo Hansen", rows[1].Fields["Navn"])

	// Recipient column never leaks into the merge fields.
	_, ok := rows[0].Fields["Modtager"]
	assert.False(t, ok)
}

func TestLetterRowsCustomRecipientColumn(t *testing.T) {
	csvFile := []byte("CPR,Navn\n0101011234,Jens\n")

	rows, err := LetterRows(csvFile, "CPR")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "0101011234", rows[0].RecipientID)
	assert.Equal(t, map[string]string{"Navn": "Jens"}, rows[0].Fields)
}

func TestLetterRowsErrors(t *testing.T) {
	tests := []struct {
		name    string
		csvFile string
		wantErr string
	}{
		{
			name:    "recipient column missing",
			csvFile: "Navn,Tid\nJens,10:30\n",
			wantErr: `required column "Modtager" is missing`,
		},
		{
			name:    "empty recipient rejects whole file",
			csvFile: "Modtager,Navn\n0101011234,Jens\n,Bo\n",
			wantErr: `line 3: column "Modtager" is empty`,
		},
		{
			name:    "ragged row",
			csvFile: "Modtager,Navn\n0101011234\n",
			wantErr: "line 2",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LetterRows([]byte(tt.csvFile), "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLetterRowsNoRows(t *testing.T) {
	_, err := LetterRows([]byte(""), "")
	assert.ErrorIs(t, err, ErrNoRows)

	_, err = LetterRows([]byte("Modtager,Navn\n"), "")
	assert.ErrorIs(t, err, ErrNoRows)
}

func TestRegistrants(t *testing.T) {
	file := []byte("0101011234\n\n  0202022345  \n\n")

	got, err := Registrants(file)
	require.NoError(t, err)
	assert.Equal(t, []string{"0101011234", "0202022345"}, got)
}

func TestRegistrantsEmpty(t *testing.T) {
	for _, file := range []string{"", "\n\n\n", "   \n"} {
		_, err := Registrants([]byte(file))
		assert.ErrorIs(t, err, ErrNoRows)
	}
}
