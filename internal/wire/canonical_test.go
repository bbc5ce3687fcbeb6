package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortsKeys(t *testing.T) {
	got, err := MarshalCanonical(map[string]any{
		"zeta":  "z",
		"alpha": "a",
		"mid":   "m",
	})
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":"a","mid":"m","zeta":"z"}`, string(got))
}

func TestMarshalCanonical_NoHTMLEscaping(t *testing.T) {
	got, err := MarshalCanonical(map[string]any{"note": "a < b & c > d"})
	require.NoError(t, err)
	assert.Equal(t, `{"note":"a < b & c > d"}`, string(got))
}

func TestMarshalCanonical_NFCNormalizesStrings(t *testing.T) {
	// "é" as e + combining acute vs precomposed.
	decomposed := "Café"
	precomposed := "Café"

	a, err := MarshalCanonical(decomposed)
	require.NoError(t, err)
	b, err := MarshalCanonical(precomposed)
	require.NoError(t, err)

	assert.Equal(t, string(b), string(a), "both forms canonicalize identically")
}

func TestMarshalCanonical_RejectsFloats(t *testing.T) {
	_, err := MarshalCanonical(map[string]any{"amount": 1.5})
	assert.Error(t, err)
}

func TestMarshalCanonical_RejectsNull(t *testing.T) {
	_, err := MarshalCanonical(nil)
	assert.Error(t, err)

	_, err = MarshalCanonical(map[string]any{"x": nil})
	assert.Error(t, err)
}

func TestMarshalCanonical_NestedStructures(t *testing.T) {
	got, err := MarshalCanonical(map[string]any{
		"items": []any{
			map[string]any{"id": "b", "qty": 2},
			map[string]any{"id": "a", "qty": 1},
		},
		"active": true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"active":true,"items":[{"id":"b","qty":2},{"id":"a","qty":1}]}`, string(got))
}

func TestPayloadHash_StableAcrossKeyOrder(t *testing.T) {
	h1, err := PayloadHash("invoice", "inv-1", map[string]any{"amount": "300", "status": "unpaid"})
	require.NoError(t, err)
	h2, err := PayloadHash("invoice", "inv-1", map[string]any{"status": "unpaid", "amount": "300"})
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64, "hex-encoded SHA256")
}

func TestPayloadHash_ScopedByEntity(t *testing.T) {
	payload := map[string]any{"amount": "300"}

	h1, err := PayloadHash("invoice", "inv-1", payload)
	require.NoError(t, err)
	h2, err := PayloadHash("bill", "inv-1", payload)
	require.NoError(t, err)
	h3, err := PayloadHash("invoice", "inv-2", payload)
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2, "same payload, different entity type")
	assert.NotEqual(t, h1, h3, "same payload, different entity id")
}

func TestPayloadHash_ContentChangesHash(t *testing.T) {
	h1, err := PayloadHash("invoice", "inv-1", map[string]any{"amount": "300"})
	require.NoError(t, err)
	h2, err := PayloadHash("invoice", "inv-1", map[string]any{"amount": "300.00"})
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2, "decimal strings compare textually")
}
