package codec

import "encoding/binary"

// Simplified LZ scheme. The token stream interleaves two forms:
//
//	literal: 0nnnnnnn  followed by n literal bytes (1 <= n <= 127)
//	match:   1lllllll  followed by a 16-bit little-endian offset;
//	         copy l+4 bytes from output position pos-offset
//
// Matches are found by hashing each 4-byte window into a 4096-entry table of
// last-seen positions. The match length field is 7 bits, so extension stops
// at 131 bytes; longer repeats simply emit further match tokens.
const (
	lzHashBits   = 12
	lzHashSize   = 1 << lzHashBits
	lzMinMatch   = 4
	lzMaxMatch   = lzMinMatch + 127
	lzMaxLiteral = 127
	lzMaxOffset  = 1<<16 - 1
)

func lzHash(v uint32) uint32 {
	return (v * 2654435761) >> 20 & (lzHashSize - 1)
}

func compressLZ(src, dst []byte) (int, error) {
	var table [lzHashSize]int32
	for i := range table {
		table[i] = -1
	}

	sp, dp := 0, 0
	for sp < len(src) {
		if sp+lzMinMatch <= len(src) {
			window := binary.LittleEndian.Uint32(src[sp:])
			h := lzHash(window)
			cand := table[h]
			table[h] = int32(sp)
			if cand >= 0 && sp-int(cand) <= lzMaxOffset &&
				binary.LittleEndian.Uint32(src[cand:]) == window {
				length := lzMinMatch
				for sp+length < len(src) && length < lzMaxMatch &&
					src[int(cand)+length] == src[sp+length] {
					length++
				}
				if dp+3 > len(dst) {
					return 0, ErrShortBuffer
				}
				offset := sp - int(cand)
				dst[dp] = 0x80 | byte(length-lzMinMatch)
				dst[dp+1] = byte(offset)
				dst[dp+2] = byte(offset >> 8)
				dp += 3
				sp += length
				continue
			}
		}

		// No match here: accumulate a literal run until the next match
		// candidate or the run cap.
		start := sp
		sp++
		for sp < len(src) && sp-start < lzMaxLiteral {
			if sp+lzMinMatch <= len(src) {
				window := binary.LittleEndian.Uint32(src[sp:])
				h := lzHash(window)
				if cand := table[h]; cand >= 0 && sp-int(cand) <= lzMaxOffset &&
					binary.LittleEndian.Uint32(src[cand:]) == window {
					break
				}
				table[h] = int32(sp)
			}
			sp++
		}
		n := sp - start
		if dp+1+n > len(dst) {
			return 0, ErrShortBuffer
		}
		dst[dp] = byte(n)
		dp++
		dp += copy(dst[dp:], src[start:sp])
	}
	return dp, nil
}

func decompressLZ(src, dst []byte) (int, error) {
	sp, dp := 0, 0
	for sp < len(src) && dp < len(dst) {
		token := src[sp]
		sp++
		if token&0x80 != 0 {
			if sp+2 > len(src) {
				return dp, nil // truncated match token
			}
			length := int(token&0x7F) + lzMinMatch
			offset := int(src[sp]) | int(src[sp+1])<<8
			sp += 2
			if offset == 0 || offset > dp {
				return dp, nil // back-reference outside produced output
			}
			// Byte-by-byte so overlapping runs (offset < length) replicate
			// the bytes being written.
			for i := 0; i < length && dp < len(dst); i++ {
				dst[dp] = dst[dp-offset]
				dp++
			}
		} else {
			n := int(token)
			if n == 0 || sp+n > len(src) {
				return dp, nil // zero-length or truncated literal run
			}
			dp += copy(dst[dp:], src[sp:sp+n])
			sp += n
		}
	}
	return dp, nil
}
