package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestParsePrediction(t *testing.T) {
	p, err := structpb.NewValue(map[string]any{
		"embeddings": map[string]any{
			"values":     []any{3.0, 4.0},
			"statistics": map[string]any{"token_count": 4.0},
		},
	})
	require.NoError(t, err)

	vec, err := parsePrediction(p)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0.6, 0.8}, vec, 1e-6)
}

func TestParsePrediction_Malformed(t *testing.T) {
	tests := []struct {
		name string
		in   any
	}{
		{"not a struct", "embedding"},
		{"no embeddings", map[string]any{"values": []any{1.0}}},
		{"empty values", map[string]any{"embeddings": map[string]any{"values": []any{}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := structpb.NewValue(tt.in)
			require.NoError(t, err)
			_, err = parsePrediction(p)
			assert.Error(t, err)
		})
	}
}

func TestPredictParameters(t *testing.T) {
	params, err := predictParameters(0)
	require.NoError(t, err)
	assert.Nil(t, params)

	params, err = predictParameters(384)
	require.NoError(t, err)
	assert.InDelta(t, 384, params.GetStructValue().GetFields()["outputDimensionality"].GetNumberValue(), 0)
}
