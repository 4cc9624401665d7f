package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSniff(t *testing.T) {
	tests := []struct {
		name string
		text string
		want rune
	}{
		{"comma", "date,description,amount\n2024-03-04,shop,-1.00\n", ','},
		{"semicolon with decimal commas", "data;opis;kwota\n2024-03-04;sklep;-1,50\n", ';'},
		{"tab", "date\tdescription\tamount\n2024-03-04\tshop\t-1\n", '\t'},
		{"pipe", "date|description|amount\n2024-03-04|shop|-1\n", '|'},
		{"quoted commas", "date,description,amount\n2024-03-04,\"a, b; c\",\"-1,50\"\n", ','},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Sniff(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Delimiter)
			assert.True(t, d.Sniffed)
		})
	}
}

func TestSniff_FallsBackToComma(t *testing.T) {
	d, err := Sniff("single column\nvalue\n")
	require.ErrorIs(t, err, ErrUndetectedDialect)
	assert.Equal(t, ',', d.Delimiter)
	assert.False(t, d.Sniffed)
}

func TestSniff_OnlyLeadingSample(t *testing.T) {
	var b strings.Builder
	b.WriteString("data;opis;kwota\n")
	for b.Len() < 2*sniffSampleSize {
		b.WriteString("2024-03-04;sklep;-1,50\n")
	}
	// Garbage past the sample must not affect the result.
	b.WriteString("x,y,z,w,v,u\n")

	d, err := Sniff(b.String())
	require.NoError(t, err)
	assert.Equal(t, ';', d.Delimiter)
}

func TestDialectString(t *testing.T) {
	assert.Equal(t, "semicolon", Dialect{Delimiter: ';'}.String())
	assert.Equal(t, "tab", Dialect{Delimiter: '\t'}.String())
	assert.Equal(t, "comma", DefaultDialect.String())
}
