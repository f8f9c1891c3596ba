package singbox

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListable_Marshal(t *testing.T) {
	one, err := json.Marshal(Listable[string]{"dns"})
	require.NoError(t, err)
	assert.Equal(t, `"dns"`, string(one))

	many, err := json.Marshal(Listable[uint16]{53, 443})
	require.NoError(t, err)
	assert.Equal(t, `[53,443]`, string(many))

	type holder struct {
		Port Listable[uint16] `json:"port,omitempty"`
	}
	empty, err := json.Marshal(holder{})
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(empty))
}

func TestListable_Unmarshal(t *testing.T) {
	var l Listable[string]
	require.NoError(t, json.Unmarshal([]byte(`"udp"`), &l))
	assert.Equal(t, Listable[string]{"udp"}, l)

	require.NoError(t, json.Unmarshal([]byte(`["tcp","udp"]`), &l))
	assert.Equal(t, Listable[string]{"tcp", "udp"}, l)

	assert.Error(t, json.Unmarshal([]byte(`{}`), &l))
}
