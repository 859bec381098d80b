package models

// LinkState is the ephemeral payload round-tripped through the Graph
// authorize dialog. It is serialized, signed and handed to the remote end;
// no server-side session holds it. Every field is untrusted until the
// signature verifies.
type LinkState struct {
	UserID     int64  `json:"user_id"`
	PersonaNum int    `json:"persona_num"`
	Nonce      string `json:"nonce"`
	IssuedAt   int64  `json:"issued_at"`
}
