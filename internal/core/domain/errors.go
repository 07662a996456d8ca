package domain

import "errors"

// Validation sentinels, surfaced by DefaultValidator and the codec.
var (
	ErrInvalidMAC           = errors.New("invalid MAC address")
	ErrInvalidInterfaceName = errors.New("invalid interface name")
	ErrInvalidSSID          = errors.New("invalid SSID")
)

// Codec sentinels (§4.1).
var (
	ErrFrameTooShort       = errors.New("frame shorter than ethernet header")
	ErrEAPOLHeaderTooShort = errors.New("frame shorter than eapol header")
	ErrEAPOLBodyTooShort   = errors.New("body shorter than declared body_length")
	ErrUnrecognizedEther   = errors.New("unrecognized ethertype")
	ErrUnknownPacketType   = errors.New("eapol packet type outside closed set")
	ErrUnknownDescriptor   = errors.New("key descriptor type outside closed set")
	ErrKeyDataOverflow     = errors.New("key_data_length exceeds remaining body")
)

// Transport sentinels (§4.4, §7).
var (
	ErrUnknownBSSID     = errors.New("unknown BSSID on transmit")
	ErrShortSend        = errors.New("short send on link socket")
	ErrSourceClosed     = errors.New("socket source is closed")
	ErrEndpointExists   = errors.New("endpoint already exists")
	ErrEndpointNotFound = errors.New("endpoint not found")
	ErrMainBSSIDUnknown = errors.New("main endpoint BSSID unknown, scan result discarded")
	ErrConfigEmpty      = errors.New("configuration empty")
)
