package statsd

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledClientIsNoop(t *testing.T) {
	client, err := NewClient(Config{Enabled: false})
	require.NoError(t, err)

	// Nothing to connect to; these must not panic or block.
	client.Count("jobs", 1, nil)
	client.Timing("duration", time.Second, nil)
	client.Gauge("depth", 4.5, nil)
	assert.NoError(t, client.Close())
}

func TestNilClientIsSafe(t *testing.T) {
	var client *Client
	client.Count("jobs", 1, nil)
	client.Timing("duration", time.Second, nil)
	client.Gauge("depth", 1, nil)
	assert.NoError(t, client.Close())
}

func TestEnabledWithoutAddressStaysDisabled(t *testing.T) {
	client, err := NewClient(Config{Enabled: true, Address: "  "})
	require.NoError(t, err)
	client.Count("jobs", 1, nil)
	assert.NoError(t, client.Close())
}

func TestMetricName(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		metric string
		want   string
	}{
		{name: "with prefix", prefix: "postbud", metric: "workitem.transition", want: "postbud.workitem.transition"},
		{name: "no prefix", prefix: "", metric: "workitem.transition", want: "workitem.transition"},
		{name: "trimmed dots", prefix: ".postbud.", metric: ".jobs.", want: "postbud.jobs"},
		{name: "spaces replaced", prefix: "postbud", metric: "queue depth", want: "postbud.queue_depth"},
		{name: "empty metric dropped", prefix: "postbud", metric: "  ", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(Config{Prefix: tt.prefix})
			require.NoError(t, err)
			assert.Equal(t, tt.want, client.metricName(tt.metric))
		})
	}
}

func TestFormatTags(t *testing.T) {
	assert.Empty(t, formatTags(nil))
	assert.Empty(t, formatTags(map[string]string{}))
	assert.Empty(t, formatTags(map[string]string{" ": "dropped"}))

	// Keys render sorted so lines are stable.
	got := formatTags(map[string]string{
		"result": "success",
		"queue":  "letter",
	})
	assert.Equal(t, "|#queue:letter,result:success", got)
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "1.5", formatFloat(1.5))
	assert.Equal(t, "3", formatFloat(3))
	assert.Equal(t, "0.25", formatFloat(0.25))
}

func TestCountOverUDP(t *testing.T) {
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() {
		_ = conn.Close()
	}()

	client, err := NewClient(Config{
		Enabled: true,
		Address: conn.LocalAddr().String(),
		Prefix:  "postbud",
	})
	require.NoError(t, err)
	defer func() {
		_ = client.Close()
	}()

	client.Count("workitem.transition", 1, map[string]string{"queue": "letter", "result": "success"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 512)
	n, _, err := conn.ReadFrom(buf)
	require.NoError(t, err)

	assert.Equal(t, "postbud.workitem.transition:1|c|#queue:letter,result:success", string(buf[:n]))
}
