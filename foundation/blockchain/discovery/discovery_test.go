package discovery_test

import (
	"testing"
	"time"

	"github.com/pocledger/pocledger/foundation/blockchain/discovery"
	"github.com/pocledger/pocledger/foundation/blockchain/peer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Codec(t *testing.T) {
	data, err := discovery.Encode(discovery.Hello)
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"HELLO","args":null}`, string(data))

	data, err = discovery.Encode(discovery.HelloRcv)
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"HELLO_RCV","args":null}`, string(data))

	_, err = discovery.Encode("GOODBYE")
	assert.ErrorIs(t, err, discovery.ErrMalformed)

	kind, err := discovery.Decode([]byte(`{"kind":"HELLO","args":null}`))
	require.NoError(t, err)
	assert.Equal(t, discovery.Hello, kind)

	kind, err = discovery.Decode([]byte(` {"args": null, "kind": "HELLO_RCV"} `))
	require.NoError(t, err)
	assert.Equal(t, discovery.HelloRcv, kind)

	bad := []string{
		``,
		`HELLO`,
		`{"kind":"HELLO"}`,
		`{"kind":"HELLO","args":{}}`,
		`{"kind":"HELLO","args":[1]}`,
		`{"kind":"HELLO","args":null,"extra":1}`,
		`{"kind":"GOODBYE","args":null}`,
		`{"kind":"hello","args":null}`,
		`{"kind":"HELLO","args":null}{"kind":"HELLO","args":null}`,
		`{"kind":"HELLO","args":null`,
	}
	for _, s := range bad {
		_, err := discovery.Decode([]byte(s))
		assert.ErrorIs(t, err, discovery.ErrMalformed, "datagram %q", s)
	}
}

func newService(t *testing.T, broadcast string) (*discovery.Service, *peer.PeerSet) {
	ps := peer.NewPeerSet()

	svc, err := discovery.New(discovery.Config{
		Addr:          "127.0.0.1:0",
		BroadcastAddr: broadcast,
		Peers:         ps,
		EvHandler:     func(v string, args ...any) { t.Logf(v, args...) },
	})
	require.NoError(t, err)

	svc.Run()
	t.Cleanup(svc.Shutdown)

	return svc, ps
}

func Test_Handshake(t *testing.T) {
	b, bPeers := newService(t, "127.0.0.1:1")
	a, aPeers := newService(t, b.LocalAddr())

	require.NoError(t, a.Broadcast())

	// B registers A on HELLO and A registers B on HELLO_RCV.
	require.Eventually(t, func() bool {
		return bPeers.Count() == 1 && aPeers.Count() == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, a.LocalAddr(), bPeers.Copy("")[0].Host)
	assert.Equal(t, b.LocalAddr(), aPeers.Copy("")[0].Host)

	// A repeat is idempotent.
	require.NoError(t, a.Broadcast())
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, bPeers.Count())
	assert.Equal(t, 1, aPeers.Count())
}

func Test_IgnoreSelf(t *testing.T) {
	a, aPeers := newService(t, "127.0.0.1:1")

	require.NoError(t, a.SendHello(a.LocalAddr()))

	assert.Never(t, func() bool {
		return aPeers.Count() > 0
	}, 200*time.Millisecond, 10*time.Millisecond)
}
