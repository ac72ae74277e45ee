package discord

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/B-Eddie/WOSSIB/internal/infrastructure/external/discord"
	"github.com/B-Eddie/WOSSIB/internal/interface/discord/handler"
	"github.com/B-Eddie/WOSSIB/internal/interface/discord/presenter"
)

// Interaction types and response types from the platform's interactions
// model. Commands arrive as signed HTTP posts; the bot answers inline.
const (
	InteractionPing               = 1
	InteractionApplicationCommand = 2

	ResponsePong           = 1
	ResponseChannelMessage = 4

	flagEphemeral = 1 << 6
)

// Interaction is an incoming interactions payload. Only the fields the bot
// reads are modeled.
type Interaction struct {
	Type      int              `json:"type"`
	Data      *InteractionData `json:"data,omitempty"`
	Member    *struct {
		User *struct {
			ID string `json:"id"`
		} `json:"user,omitempty"`
	} `json:"member,omitempty"`
	User *struct {
		ID string `json:"id"`
	} `json:"user,omitempty"`
	GuildID   string `json:"guild_id,omitempty"`
	ChannelID string `json:"channel_id,omitempty"`
}

// InteractionData is the application-command part of an interaction.
type InteractionData struct {
	Name    string              `json:"name"`
	Options []InteractionOption `json:"options,omitempty"`
}

// InteractionOption is one named option. Values arrive as strings, numbers
// or booleans depending on the registered option type.
type InteractionOption struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

// CallerID returns the invoking user's ID, wherever the platform put it
// (member in guilds, bare user in DMs).
func (i *Interaction) CallerID() string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

// Command converts an application-command interaction into the transport-free
// form the router dispatches.
func (i *Interaction) Command() (handler.Command, error) {
	if i.Type != InteractionApplicationCommand || i.Data == nil {
		return handler.Command{}, fmt.Errorf("interaction is not an application command")
	}

	options := make(handler.Options, len(i.Data.Options))
	for _, opt := range i.Data.Options {
		options[opt.Name] = optionValue(opt.Value)
	}

	return handler.Command{
		CallerID:  i.CallerID(),
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
		Name:      i.Data.Name,
		Options:   options,
	}, nil
}

// optionValue flattens a JSON option value to its string form.
func optionValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return strconv.FormatBool(b)
	}
	return string(raw)
}

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSES
// ══════════════════════════════════════════════════════════════════════════════

// InteractionResponse is the inline answer to an interaction.
type InteractionResponse struct {
	Type int           `json:"type"`
	Data *ResponseData `json:"data,omitempty"`
}

// ResponseData carries the message part of a response.
type ResponseData struct {
	Content string          `json:"content,omitempty"`
	Embeds  []discord.Embed `json:"embeds,omitempty"`
	Flags   int             `json:"flags,omitempty"`
}

// Pong answers a ping interaction.
func Pong() InteractionResponse {
	return InteractionResponse{Type: ResponsePong}
}

// ResponseFor converts a reply into an inline interaction response.
func ResponseFor(reply *presenter.Reply) InteractionResponse {
	data := &ResponseData{Content: reply.Content}
	if reply.Embed != nil {
		data.Embeds = []discord.Embed{*reply.Embed}
	}
	if reply.Ephemeral {
		data.Flags = flagEphemeral
	}
	return InteractionResponse{Type: ResponseChannelMessage, Data: data}
}

// ══════════════════════════════════════════════════════════════════════════════
// SIGNATURE VERIFICATION
// ══════════════════════════════════════════════════════════════════════════════

// ParsePublicKey decodes the hex-encoded interactions public key.
func ParsePublicKey(hexKey string) (ed25519.PublicKey, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("public key is not valid hex: %w", err)
	}
	if len(key) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key has wrong length %d", len(key))
	}
	return ed25519.PublicKey(key), nil
}

// VerifySignature checks the interactions request signature: the signed
// message is the timestamp header concatenated with the raw body.
func VerifySignature(key ed25519.PublicKey, timestamp string, body []byte, sigHex string) bool {
	sig, err := hex.DecodeString(sigHex)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}
	msg := make([]byte, 0, len(timestamp)+len(body))
	msg = append(msg, timestamp...)
	msg = append(msg, body...)
	return ed25519.Verify(key, msg, sig)
}
