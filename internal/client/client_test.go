package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msfttoler/sports/internal/logging"
	"github.com/msfttoler/sports/pkg/models"
)

type mockHub struct {
	unregistered []*Client
}

func (m *mockHub) Unregister(c *Client) {
	m.unregistered = append(m.unregistered, c)
}

func newTestClient() *Client {
	return NewClient("c1", nil, &mockHub{}, logging.Discard())
}

func TestClientWants(t *testing.T) {
	tests := []struct {
		name     string
		filter   models.SubscriptionFilter
		sport    string
		expected bool
	}{
		{"empty filter matches everything", models.SubscriptionFilter{}, "basketball_nba", true},
		{"sport filter matches", models.SubscriptionFilter{Sports: []string{"basketball_nba"}}, "basketball_nba", true},
		{"sport filter doesn't match", models.SubscriptionFilter{Sports: []string{"americanfootball_nfl"}}, "basketball_nba", false},
		{"sportless messages always pass", models.SubscriptionFilter{Sports: []string{"americanfootball_nfl"}}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient()
			c.SetFilter(tt.filter)
			assert.Equal(t, tt.expected, c.Wants(tt.sport))
		})
	}
}

func TestTrySendFullBuffer(t *testing.T) {
	c := newTestClient()
	for i := 0; i < SendBufferSize; i++ {
		require.True(t, c.TrySend(models.ServerMessage{Type: models.MessageTypeArbitrage}))
	}
	assert.False(t, c.TrySend(models.ServerMessage{Type: models.MessageTypeArbitrage}))
}

func TestHandleClientMessage(t *testing.T) {
	c := newTestClient()

	c.handleClientMessage(models.ClientMessage{
		Type:    models.MessageTypeSubscribe,
		Payload: models.SubscriptionFilter{Sports: []string{"soccer_epl"}},
	})
	assert.Equal(t, []string{"soccer_epl"}, c.Filter().Sports)

	c.handleClientMessage(models.ClientMessage{Type: models.MessageTypeUnsubscribe})
	assert.Empty(t, c.Filter().Sports)

	c.handleClientMessage(models.ClientMessage{Type: models.MessageTypeHeartbeat})
	msg := <-c.Send
	assert.Equal(t, models.MessageTypeHeartbeat, msg.Type)
	stats, ok := msg.Payload.(models.ConnectionStats)
	require.True(t, ok)
	assert.Equal(t, "c1", stats.ClientID)

	c.handleClientMessage(models.ClientMessage{Type: "nope"})
	msg = <-c.Send
	assert.Equal(t, models.MessageTypeError, msg.Type)
}
