package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopic(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name, prefix, thing, typ, want string
	}{
		{"with prefix", "aquarium", "sensor", "STATUS_CHANGE", "aquarium/sensor/status_change"},
		{"trims slashes", "/tank-1/", "Pump", "CLEANING", "tank-1/pump/cleaning"},
		{"no prefix", "", "water", "ACTION", "water/action"},
		{"empty thing", "aquarium", "", "WARNING", "aquarium/system/warning"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, Topic(tc.prefix, tc.thing, tc.typ))
		})
	}
}

func TestNop(t *testing.T) {
	t.Parallel()

	var p Publisher = Nop{}
	assert.NoError(t, p.Publish("a/b", []byte("{}")))
	p.Close()
}

func TestNewMQTT_EmptyBroker(t *testing.T) {
	t.Parallel()

	_, err := NewMQTT(MQTTConfig{}, nil)
	assert.Error(t, err)
}
