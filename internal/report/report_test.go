package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/models"
)

func TestBuild(t *testing.T) {
	rows := []models.ResultRow{
		{Date: "2019-04-26", Time: "13:59:20", Prediction: "Normal"},
		{Date: "", Time: "bad", Prediction: "Password Attack"},
	}

	res, err := Build("Garage Door", rows)
	require.NoError(t, err)

	assert.Equal(t, "Garage Door", res.Device)
	assert.Equal(t, "intrusion_results_garage_door.csv", res.FileName)
	assert.Equal(t, "date,time,Prediction\n2019-04-26,13:59:20,Normal\n,bad,Password Attack\n", string(res.CSV))

	parsed, err := Parse(res.CSV)
	require.NoError(t, err)
	assert.Equal(t, res.Rows, parsed)
}

func TestEncodeQuotesCommas(t *testing.T) {
	rows := []models.ResultRow{{Date: "2019-04-26", Time: "1,2", Prediction: "XSS"}}
	data, err := Encode(rows)
	require.NoError(t, err)

	parsed, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, rows, parsed)
}

func TestEncodeEmpty(t *testing.T) {
	data, err := Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, "date,time,Prediction\n", string(data))

	rows, err := Parse(data)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestParseRejectsForeignHeader(t *testing.T) {
	_, err := Parse([]byte("a,b,c\n1,2,3\n"))
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	counts := Summarize([]models.ResultRow{
		{Prediction: "Normal"}, {Prediction: "DDoS"}, {Prediction: "Normal"},
	})
	assert.Equal(t, map[string]int{"Normal": 2, "DDoS": 1}, counts)
}
