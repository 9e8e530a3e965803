// Package fcs wraps the Ethernet Frame Check Sequence CRC-32 (the same
// IEEE 802.3 polynomial as hash/crc32's default table) with the
// residue check and rewrite helpers the processor needs.
//
// No third-party library in the retrieved pack implements CRC-32; the
// standard library's hash/crc32 already computes the exact Ethernet FCS
// polynomial, so reaching for it directly is the idiomatic choice here.
package fcs

import "hash/crc32"

// GoodResidue is the CRC-32 of any buffer that ends with its own correct
// FCS appended in little-endian order.
const GoodResidue uint32 = 0x2144DF1C

// Checksum computes the IEEE 802.3 CRC-32 over data.
func Checksum(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// Valid reports whether the last 4 bytes of frame form a correct FCS for
// the bytes preceding them.
func Valid(frame []byte) bool {
	if len(frame) < 4 {
		return false
	}
	return Checksum(frame) == GoodResidue
}

// Rewrite recomputes the CRC-32 over frame[:len(frame)-4] and writes it,
// little-endian, into the last 4 bytes of frame. It reports whether the
// bytes actually changed.
func Rewrite(frame []byte) bool {
	if len(frame) < 4 {
		return false
	}
	body := frame[:len(frame)-4]
	tail := frame[len(frame)-4:]
	correct := Checksum(body)

	changed := tail[0] != byte(correct) ||
		tail[1] != byte(correct>>8) ||
		tail[2] != byte(correct>>16) ||
		tail[3] != byte(correct>>24)

	tail[0] = byte(correct)
	tail[1] = byte(correct >> 8)
	tail[2] = byte(correct >> 16)
	tail[3] = byte(correct >> 24)
	return changed
}
