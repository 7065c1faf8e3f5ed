package relay

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidTopic(t *testing.T) {
	tests := []struct {
		topic string
		valid bool
	}{
		{"eruka_lang-en_audall_users", true},
		{"eruka_lang-en_aud-country-US", true},
		{"eruka_lang-en_aud-version-1.2.3", true},
		{"testing-debug", true},
		{"eruka_lang-en_aud-country-??", false},
		{"has space", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidTopic(tt.topic))
		})
	}
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()

	_, err := r.Register("")
	assert.ErrorIs(t, err, ErrEmptyClientID)

	reg, err := r.Register("device-client")
	require.NoError(t, err)
	assert.NotEmpty(t, reg.DeviceToken)
	assert.Equal(t, "device-client", reg.ClientID)
	assert.Empty(t, reg.Topics)

	got, err := r.Get(reg.DeviceToken)
	require.NoError(t, err)
	assert.Equal(t, reg.DeviceToken, got.DeviceToken)

	_, err = r.Get("never-issued")
	assert.ErrorIs(t, err, ErrUnknownRegistration)

	other, err := r.Register("device-client")
	require.NoError(t, err)
	assert.NotEqual(t, reg.DeviceToken, other.DeviceToken)
}

func TestRegistry_SubscribeUnsubscribe(t *testing.T) {
	r := NewRegistry()
	reg, err := r.Register("c1")
	require.NoError(t, err)

	require.NoError(t, r.Subscribe(reg.DeviceToken, "b-topic"))
	require.NoError(t, r.Subscribe(reg.DeviceToken, "a-topic"))
	require.NoError(t, r.Subscribe(reg.DeviceToken, "a-topic"))

	got, err := r.Get(reg.DeviceToken)
	require.NoError(t, err)
	assert.Equal(t, []string{"a-topic", "b-topic"}, got.Topics)
	assert.Equal(t, map[string]int{"a-topic": 1, "b-topic": 1}, r.SubscriberCounts())

	require.NoError(t, r.Unsubscribe(reg.DeviceToken, "a-topic"))
	require.NoError(t, r.Unsubscribe(reg.DeviceToken, "a-topic"))
	assert.Equal(t, map[string]int{"b-topic": 1}, r.SubscriberCounts())

	assert.ErrorIs(t, r.Subscribe(reg.DeviceToken, "bad topic"), ErrInvalidTopic)
	assert.ErrorIs(t, r.Subscribe("never-issued", "a-topic"), ErrUnknownRegistration)
	assert.ErrorIs(t, r.Unsubscribe("never-issued", "a-topic"), ErrUnknownRegistration)
}

func TestRegistry_Delete(t *testing.T) {
	r := NewRegistry()
	reg1, _ := r.Register("c1")
	reg2, _ := r.Register("c2")
	require.NoError(t, r.Subscribe(reg1.DeviceToken, "shared"))
	require.NoError(t, r.Subscribe(reg2.DeviceToken, "shared"))
	require.NoError(t, r.Subscribe(reg1.DeviceToken, "only-one"))

	require.NoError(t, r.Delete(reg1.DeviceToken))
	assert.ErrorIs(t, r.Delete(reg1.DeviceToken), ErrUnknownRegistration)

	assert.Equal(t, map[string]int{"shared": 1}, r.SubscriberCounts())
	registrations, topics := r.Counts()
	assert.Equal(t, 1, registrations)
	assert.Equal(t, 1, topics)
}

func TestRegistry_ConcurrentSubscribe(t *testing.T) {
	r := NewRegistry()
	reg, err := r.Register("c1")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, r.Subscribe(reg.DeviceToken, fmt.Sprintf("topic-%d", i%10)))
		}(i)
	}
	wg.Wait()

	got, err := r.Get(reg.DeviceToken)
	require.NoError(t, err)
	assert.Len(t, got.Topics, 10)
}
