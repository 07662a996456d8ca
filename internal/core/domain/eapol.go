package domain

import "encoding/binary"

// PacketType is the EAPOL frame type carried in the header's second byte.
type PacketType uint8

// The closed set of recognized EAPOL packet types. Anything else is invalid
// for dispatch but still logged.
const (
	PacketTypeEAP                  PacketType = 0
	PacketTypeStart                PacketType = 1
	PacketTypeLogoff               PacketType = 2
	PacketTypeKey                  PacketType = 3
	PacketTypeEncapsulatedASFAlert PacketType = 4
)

// Valid reports whether t is one of the five recognized packet types.
func (t PacketType) Valid() bool {
	switch t {
	case PacketTypeEAP, PacketTypeStart, PacketTypeLogoff, PacketTypeKey, PacketTypeEncapsulatedASFAlert:
		return true
	}
	return false
}

func (t PacketType) String() string {
	switch t {
	case PacketTypeEAP:
		return "EAPPacket"
	case PacketTypeStart:
		return "Start"
	case PacketTypeLogoff:
		return "Logoff"
	case PacketTypeKey:
		return "Key"
	case PacketTypeEncapsulatedASFAlert:
		return "EncapsulatedASFAlert"
	default:
		return "Unknown"
	}
}

// ProtocolVersion is always emitted as 1 (§6).
const ProtocolVersion uint8 = 0x01

// HeaderLen is the fixed 4-byte EAPOL header: version, type, body_length(BE16).
const HeaderLen = 4

// Header is the 4-byte EAPOL header: protocol version, packet type and the
// big-endian length of the body that follows.
type Header struct {
	Version    uint8
	Type       PacketType
	BodyLength uint16
}

// Encode writes the header to a 4-byte wire representation.
func (h Header) Encode() [HeaderLen]byte {
	var buf [HeaderLen]byte
	buf[0] = h.Version
	buf[1] = uint8(h.Type)
	binary.BigEndian.PutUint16(buf[2:4], h.BodyLength)
	return buf
}

// DecodeHeader parses the first 4 bytes of buf as an EAPOL header. The
// caller must have already validated len(buf) >= HeaderLen.
func DecodeHeader(buf []byte) Header {
	return Header{
		Version:    buf[0],
		Type:       PacketType(buf[1]),
		BodyLength: binary.BigEndian.Uint16(buf[2:4]),
	}
}

// Key descriptor type tags (first byte of a Key body).
const (
	DescriptorRC4       uint8 = 1
	DescriptorIEEE80211 uint8 = 2
)

// RC4DescriptorLen is the fixed-layout size of the IEEE 802.1X-2001 RC4 key
// descriptor, excluding variable-length key material:
// type(1) + length(2) + counter(8) + iv(16) + index(1) + signature(16) = 44.
const RC4DescriptorLen = 1 + 2 + 8 + 16 + 1 + 16

// RC4Descriptor is the legacy WEP/RC4 key descriptor.
type RC4Descriptor struct {
	KeyLength     uint16
	ReplayCounter uint64
	IV            [16]byte
	Unicast       bool
	KeyIndex      uint8
	Signature     [16]byte
	Key           []byte
}

// IEEE80211DescriptorLen is the fixed-layout size of the IEEE 802.11i 4-way
// handshake key descriptor, excluding variable-length key data:
// type(1) + info(2) + length(2) + counter(8) + nonce(32) + iv(16) + rsc(8) +
// reserved(8) + mic(16) + key_data_length(2) = 95.
const IEEE80211DescriptorLen = 1 + 2 + 2 + 8 + 32 + 16 + 8 + 8 + 16 + 2

// Key information bit masks (IEEE 802.11i, big-endian on the wire).
const (
	KeyInfoDescriptorVersionMask uint16 = 0x0007
	KeyInfoKeyType               uint16 = 1 << 3
	KeyInfoKeyIndexMask          uint16 = 0x0030
	KeyInfoInstall               uint16 = 1 << 6
	KeyInfoAck                   uint16 = 1 << 7
	KeyInfoMIC                   uint16 = 1 << 8
	KeyInfoSecure                uint16 = 1 << 9
	KeyInfoError                 uint16 = 1 << 10
	KeyInfoRequest               uint16 = 1 << 11
	KeyInfoEncryptedKeyData      uint16 = 1 << 12
)

// IEEE80211Descriptor is the 4-way handshake key descriptor.
type IEEE80211Descriptor struct {
	KeyInformation uint16
	KeyLength      uint16
	ReplayCounter  uint64
	Nonce          [32]byte
	IV             [16]byte
	RSC            uint64
	Reserved       uint64
	MIC            [16]byte
	KeyDataLength  uint16
	KeyData        []byte
}

// HasMIC reports whether the MIC bit is set.
func (d IEEE80211Descriptor) HasMIC() bool { return d.KeyInformation&KeyInfoMIC != 0 }

// HasAck reports whether the Ack bit is set.
func (d IEEE80211Descriptor) HasAck() bool { return d.KeyInformation&KeyInfoAck != 0 }

// IsPairwise reports whether this is a pairwise (vs. group) key frame.
func (d IEEE80211Descriptor) IsPairwise() bool { return d.KeyInformation&KeyInfoKeyType != 0 }

// IsSecure reports whether the Secure bit is set.
func (d IEEE80211Descriptor) IsSecure() bool { return d.KeyInformation&KeyInfoSecure != 0 }

// DescriptorVersion returns the key descriptor version (bits 0-2).
func (d IEEE80211Descriptor) DescriptorVersion() uint8 {
	return uint8(d.KeyInformation & KeyInfoDescriptorVersionMask)
}

// RxView is a borrowed, zero-copy view into an inbound frame's EAPOL header
// and body, handed to an endpoint's receive callback. It must not be
// retained past the callback's return.
type RxView struct {
	Data []byte
}

// Header decodes the view's EAPOL header.
func (v RxView) Header() Header {
	return DecodeHeader(v.Data)
}

// Body returns the bytes following the 4-byte header, including any
// padding beyond the declared body_length.
func (v RxView) Body() []byte {
	if len(v.Data) <= HeaderLen {
		return nil
	}
	return v.Data[HeaderLen:]
}
