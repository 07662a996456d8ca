package codec

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/lcalzada-xor/eapolsupd/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEtherHeaderValid(t *testing.T) {
	assert.False(t, EtherHeaderValid(make([]byte, 13)))
	assert.True(t, EtherHeaderValid(make([]byte, 14)))
}

func TestEAPOLHeaderValid(t *testing.T) {
	assert.False(t, EAPOLHeaderValid(make([]byte, 3)))
	assert.True(t, EAPOLHeaderValid(make([]byte, 4)))
}

func TestEAPOLBodyValid_StartAcceptsEmptyBody(t *testing.T) {
	hdr := domain.Header{Version: 1, Type: domain.PacketTypeStart, BodyLength: 0}
	assert.NoError(t, EAPOLBodyValid(hdr, nil))
}

func TestEAPOLBodyValid_ExtraPaddingAccepted(t *testing.T) {
	hdr := domain.Header{Version: 1, Type: domain.PacketTypeStart, BodyLength: 0}
	assert.NoError(t, EAPOLBodyValid(hdr, []byte{0, 0, 0}))
}

func TestEAPOLBodyValid_TooShortRejected(t *testing.T) {
	hdr := domain.Header{Version: 1, Type: domain.PacketTypeKey, BodyLength: 100}
	err := EAPOLBodyValid(hdr, make([]byte, 10))
	assert.ErrorIs(t, err, domain.ErrEAPOLBodyTooShort)
}

func TestEAPOLBodyValid_UnknownPacketType(t *testing.T) {
	hdr := domain.Header{Version: 1, Type: domain.PacketType(200), BodyLength: 0}
	err := EAPOLBodyValid(hdr, nil)
	assert.ErrorIs(t, err, domain.ErrUnknownPacketType)
}

func buildIEEE80211Body(keyDataLength int, extra int) []byte {
	body := make([]byte, domain.IEEE80211DescriptorLen+keyDataLength+extra)
	body[0] = domain.DescriptorIEEE80211
	body[93] = byte(keyDataLength >> 8)
	body[94] = byte(keyDataLength)
	return body
}

func TestEAPOLBodyValid_KeyDataLengthExactFits(t *testing.T) {
	body := buildIEEE80211Body(10, 0)
	hdr := domain.Header{Version: 1, Type: domain.PacketTypeKey, BodyLength: uint16(len(body))}
	assert.NoError(t, EAPOLBodyValid(hdr, body))
}

func TestEAPOLBodyValid_KeyDataLengthOneGreaterInvalid(t *testing.T) {
	body := buildIEEE80211Body(10, 0)
	hdr := domain.Header{Version: 1, Type: domain.PacketTypeKey, BodyLength: uint16(len(body) - 1)}
	err := EAPOLBodyValid(hdr, body)
	assert.ErrorIs(t, err, domain.ErrKeyDataOverflow)
}

func TestEAPOLBodyValid_UnknownDescriptor(t *testing.T) {
	body := make([]byte, domain.RC4DescriptorLen)
	body[0] = 9
	hdr := domain.Header{Version: 1, Type: domain.PacketTypeKey, BodyLength: uint16(len(body))}
	err := EAPOLBodyValid(hdr, body)
	assert.ErrorIs(t, err, domain.ErrUnknownDescriptor)
}

func TestEncodeFrame_RoundTripsWithDecodeHeader(t *testing.T) {
	body := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	frame := EncodeFrame(domain.PacketTypeKey, body)
	require.Len(t, frame, domain.HeaderLen+len(body))

	hdr := domain.DecodeHeader(frame)
	assert.Equal(t, domain.ProtocolVersion, hdr.Version)
	assert.Equal(t, domain.PacketTypeKey, hdr.Type)
	assert.EqualValues(t, len(body), hdr.BodyLength)
	assert.Equal(t, body, frame[domain.HeaderLen:])
}

func TestEncodeEthernetFrame_WiredStart(t *testing.T) {
	src, err := domain.ParseEA("aa:bb:cc:dd:ee:ff")
	require.NoError(t, err)

	eapol := EncodeFrame(domain.PacketTypeStart, nil)
	frame := EncodeEthernetFrame(domain.EAPOLMulticast, src, domain.EtherTypeEAPOL, eapol)

	expected := []byte{
		0x01, 0x80, 0xC2, 0x00, 0x00, 0x03, // dst: EAPOL multicast
		0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF, // src
		0x88, 0x8E, // ethertype
		0x01, 0x01, 0x00, 0x00, // version=1 type=Start body_length=0
	}
	assert.Equal(t, expected, frame)
}

func TestDecodeIEEE80211_RoundTripsFlags(t *testing.T) {
	body := buildIEEE80211Body(0, 0)
	binary.BigEndian.PutUint16(body[1:3], domain.KeyInfoKeyType|domain.KeyInfoAck)

	d := DecodeIEEE80211(body)
	assert.True(t, d.IsPairwise())
	assert.True(t, d.HasAck())
	assert.False(t, d.HasMIC())
}

func TestDump_StartFrame(t *testing.T) {
	src, err := domain.ParseEA("aa:bb:cc:dd:ee:ff")
	require.NoError(t, err)

	eapol := EncodeFrame(domain.PacketTypeStart, nil)
	frame := EncodeEthernetFrame(domain.EAPOLMulticast, src, domain.EtherTypeEAPOL, eapol)

	var buf bytes.Buffer
	Dump(&buf, frame)

	out := buf.String()
	assert.Contains(t, out, "src=aa:bb:cc:dd:ee:ff")
	assert.Contains(t, out, "body_length=0")
}

func TestDump_TruncatedFrame(t *testing.T) {
	var buf bytes.Buffer
	Dump(&buf, make([]byte, 4))
	assert.Contains(t, buf.String(), "too short")
}
