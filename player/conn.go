package player

import (
	"io"

	"github.com/sandertv/gophertunnel/minecraft"
	"github.com/sandertv/gophertunnel/minecraft/protocol/login"
	"github.com/sandertv/gophertunnel/minecraft/protocol/packet"
)

// ServerConn is the connection to the server a Player plays over. It is implemented by *minecraft.Conn.
type ServerConn interface {
	io.Closer
	ReadPacket() (packet.Packet, error)
	WritePacket(pk packet.Packet) error
	GameData() minecraft.GameData
	IdentityData() login.IdentityData
}

var _ ServerConn = (*minecraft.Conn)(nil)
