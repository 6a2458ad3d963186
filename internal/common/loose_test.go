package common

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLooseStringDecodesNumbersAndText(t *testing.T) {
	var payload struct {
		A LooseString `json:"a"`
		B LooseString `json:"b"`
		C LooseString `json:"c"`
		D LooseString `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":20,"b":"12,50","c":null,"d":1.005}`), &payload))
	require.Equal(t, "20", payload.A.String())
	require.Equal(t, "12,50", payload.B.String())
	require.Equal(t, "", payload.C.String())
	require.Equal(t, "1.005", payload.D.String())
}

func TestLooseStringRejectsOtherTypes(t *testing.T) {
	var payload struct {
		A LooseString `json:"a"`
	}
	require.Error(t, json.Unmarshal([]byte(`{"a":true}`), &payload))
	require.Error(t, json.Unmarshal([]byte(`{"a":{"x":1}}`), &payload))
}
