package export

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/anonto42/three-good-things/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntries() []models.Entry {
	return []models.Entry{
		{
			EntryDate:  "2024-03-02",
			ThingOne:   "tea, then a nap",
			ThingTwo:   `she said "thanks"`,
			ThingThree: "plain text",
			Tags:       []string{"#tea", "#rest"},
		},
		{
			EntryDate:  "2024-03-01",
			ThingOne:   "line one\nline two",
			ThingTwo:   "b",
			ThingThree: "c",
		},
	}
}

func TestCSVEscapesOnlyFieldsThatNeedIt(t *testing.T) {
	out := CSV(sampleEntries())

	require.True(t, strings.HasPrefix(out, "\uFEFF"), "csv must start with a BOM")
	body := strings.TrimPrefix(out, "\uFEFF")
	lines := strings.SplitN(body, "\n", 3)
	require.Len(t, lines, 3)

	assert.Equal(t, "Date,Thing 1,Thing 2,Thing 3,Tags", lines[0])
	assert.Equal(t, `2024-03-02,"tea, then a nap","she said ""thanks""",plain text,"#tea,#rest"`, lines[1])
	assert.Equal(t, "2024-03-01,\"line one\nline two\",b,c,", lines[2])
}

func TestCSVWithNoEntriesIsHeaderOnly(t *testing.T) {
	assert.Equal(t, "\uFEFFDate,Thing 1,Thing 2,Thing 3,Tags", CSV(nil))
}

func TestJSONShape(t *testing.T) {
	data, err := JSON(sampleEntries())
	require.NoError(t, err)

	var decoded []struct {
		Date   string   `json:"date"`
		Things []string `json:"things"`
		Tags   []string `json:"tags"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "2024-03-02", decoded[0].Date)
	assert.Equal(t, []string{"tea, then a nap", `she said "thanks"`, "plain text"}, decoded[0].Things)
	assert.Equal(t, []string{"#tea", "#rest"}, decoded[0].Tags)
	assert.NotNil(t, decoded[1].Tags)
	assert.Empty(t, decoded[1].Tags)
}

func TestRenderNamesFileByDay(t *testing.T) {
	today := time.Date(2024, 3, 5, 22, 0, 0, 0, time.UTC)

	file, err := Render(sampleEntries(), FormatCSV, today)
	require.NoError(t, err)
	assert.Equal(t, "three-good-things-2024-03-05.csv", file.Name)
	assert.Contains(t, file.ContentType, "text/csv")

	file, err = Render(nil, FormatJSON, today)
	require.NoError(t, err)
	assert.Equal(t, "three-good-things-2024-03-05.json", file.Name)
	assert.Equal(t, "[]", string(file.Data))
}

func TestParseFormat(t *testing.T) {
	format, err := ParseFormat(" CSV ")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, format)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}
