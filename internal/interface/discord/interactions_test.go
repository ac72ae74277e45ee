package discord

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/B-Eddie/WOSSIB/internal/interface/discord/presenter"
)

func TestInteraction_Command(t *testing.T) {
	payload := `{
		"type": 2,
		"guild_id": "g1",
		"channel_id": "c1",
		"member": {"user": {"id": "u42"}},
		"data": {
			"name": "start-session",
			"options": [
				{"name": "duration", "value": 90},
				{"name": "mode", "value": "deep"}
			]
		}
	}`

	var in Interaction
	require.NoError(t, json.Unmarshal([]byte(payload), &in))

	cmd, err := in.Command()
	require.NoError(t, err)

	assert.Equal(t, "start-session", cmd.Name)
	assert.Equal(t, "u42", cmd.CallerID)
	assert.Equal(t, "g1", cmd.GuildID)
	assert.Equal(t, "c1", cmd.ChannelID)
	assert.Equal(t, "deep", cmd.Options["mode"])

	duration, err := cmd.Options.Int("duration")
	require.NoError(t, err)
	assert.Equal(t, 90, duration)
}

func TestInteraction_CallerIDFallsBackToUser(t *testing.T) {
	var in Interaction
	require.NoError(t, json.Unmarshal([]byte(`{"type": 2, "user": {"id": "dm-user"}, "data": {"name": "list-subjects"}}`), &in))
	assert.Equal(t, "dm-user", in.CallerID())
}

func TestInteraction_CommandRejectsPing(t *testing.T) {
	in := Interaction{Type: InteractionPing}
	_, err := in.Command()
	assert.Error(t, err)
}

func TestResponseFor(t *testing.T) {
	reply := &presenter.Reply{Content: "hello", Ephemeral: true}
	resp := ResponseFor(reply)

	assert.Equal(t, ResponseChannelMessage, resp.Type)
	require.NotNil(t, resp.Data)
	assert.Equal(t, "hello", resp.Data.Content)
	assert.Equal(t, flagEphemeral, resp.Data.Flags)
}

func TestParsePublicKey(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	parsed, err := ParsePublicKey(hex.EncodeToString(pub))
	require.NoError(t, err)
	assert.Equal(t, pub, parsed)

	_, err = ParsePublicKey("not-hex")
	assert.Error(t, err)

	_, err = ParsePublicKey("abcd")
	assert.Error(t, err)
}

func TestVerifySignature(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	body := []byte(`{"type":1}`)
	ts := "1700000000"
	sig := ed25519.Sign(priv, append([]byte(ts), body...))

	assert.True(t, VerifySignature(pub, ts, body, hex.EncodeToString(sig)))
	assert.False(t, VerifySignature(pub, "1700000001", body, hex.EncodeToString(sig)))
	assert.False(t, VerifySignature(pub, ts, body, "zz"))
	assert.False(t, VerifySignature(pub, ts, []byte("tampered"), hex.EncodeToString(sig)))
}
