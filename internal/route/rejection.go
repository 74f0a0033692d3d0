package route

import "github.com/dbrouter/routingcore/internal/netaddr"

// erConCountError is the classic-protocol error code used when a
// route refuses a connection for resource exhaustion or blacklisting,
// mirroring the upstream server's own ER_CON_COUNT_ERROR behavior so
// client drivers render a familiar message.
var erConCountError uint16 = 1040

// classicRejection builds a minimal ERR packet: header + 0xFF marker +
// two-byte little-endian error code + SQL state marker + state +
// message. Sequence is always 0 -- the rejection is the first and
// only packet the client ever sees on this connection.
func classicRejection(message string) []byte {
	sqlState := "08004" // SQLSTATE: rejected establishing connection
	body := make([]byte, 0, 9+len(sqlState)+len(message))
	body = append(body, 0xFF)
	body = append(body, byte(erConCountError), byte(erConCountError>>8))
	body = append(body, '#')
	body = append(body, sqlState...)
	body = append(body, message...)

	length := len(body)
	pkt := make([]byte, 4+length)
	pkt[0] = byte(length)
	pkt[1] = byte(length >> 8)
	pkt[2] = byte(length >> 16)
	pkt[3] = 0 // seq
	copy(pkt[4:], body)
	return pkt
}

// extendedRejectionType is the Notice message type used to carry a
// fatal error to an extended-protocol client before closing.
const extendedRejectionType = 11

// extendedRejection builds a minimal length-prefixed Notice frame
// carrying message as its payload.
func extendedRejection(message string) []byte {
	payload := []byte(message)
	total := 1 + len(payload) // type byte + payload, per the length field's own convention
	pkt := make([]byte, 4+1+len(payload))
	pkt[0] = byte(total)
	pkt[1] = byte(total >> 8)
	pkt[2] = byte(total >> 16)
	pkt[3] = byte(total >> 24)
	pkt[4] = extendedRejectionType
	copy(pkt[5:], payload)
	return pkt
}

// rejectionBytes renders the protocol-appropriate rejection frame for
// reason, used for both AdmissionRejected causes (blacklist, full).
func rejectionBytes(protocol netaddr.Protocol, reason string) []byte {
	if protocol == netaddr.ProtocolExtended {
		return extendedRejection(reason)
	}
	return classicRejection(reason)
}
