package hpack

import "errors"

// huffmanLengths holds the RFC 7541 Appendix B code length for each of the
// 256 byte values plus the EOS symbol at index 256. The actual bit patterns
// are derived from these lengths by the canonical-Huffman construction in
// buildHuffman below, rather than hand-transcribed, so a single source of
// truth drives both the encoder and the decoder trie.
var huffmanLengths = [257]uint8{
	13, 23, 28, 28, 28, 28, 28, 28, 28, 24, 30, 28, 28, 30, 28, 28,
	28, 28, 28, 28, 28, 28, 30, 28, 28, 28, 28, 28, 28, 28, 28, 28,
	6, 10, 10, 12, 13, 6, 8, 11, 10, 10, 8, 11, 8, 6, 6, 6,
	5, 5, 5, 6, 6, 6, 6, 6, 6, 6, 7, 8, 15, 6, 12, 10,
	13, 6, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7,
	7, 7, 7, 7, 7, 7, 7, 7, 8, 7, 8, 13, 19, 13, 14, 6,
	15, 5, 6, 5, 6, 5, 6, 6, 6, 5, 7, 7, 6, 6, 6, 5,
	6, 7, 6, 5, 5, 6, 7, 7, 7, 7, 7, 15, 11, 14, 13, 28,
	20, 22, 20, 20, 22, 22, 22, 23, 22, 23, 23, 23, 23, 23, 24, 22,
	23, 24, 24, 22, 23, 24, 23, 23, 23, 23, 21, 22, 23, 22, 23, 23,
	24, 22, 21, 20, 22, 22, 23, 23, 21, 26, 26, 20, 19, 22, 23, 22,
	25, 25, 24, 24, 26, 23, 26, 27, 26, 26, 27, 27, 27, 27, 27, 28,
	27, 27, 27, 20, 24, 20, 21, 22, 21, 21, 24, 24, 22, 22, 23, 22,
	26, 27, 24, 24, 22, 22, 26, 23, 26, 27, 26, 26, 27, 26, 26, 26,
	23, 26, 27, 26, 26, 27, 27, 27, 26, 26, 26, 27, 27, 27, 26, 27,
	22, 27, 27, 27, 26, 27, 27, 27, 27, 27, 27, 27, 27, 27, 27, 26,
	30,
}

type huffmanSym struct {
	length uint8
	code   uint32
}

var huffmanSyms [257]huffmanSym

type trieNode struct {
	child [2]int32
	sym   int32 // -1 if not a leaf
}

var trieNodes []trieNode

type decodeCell struct {
	next    int32
	sym     byte
	emit    bool
	eos     bool
	invalid bool
}

var decodeTable [][16]decodeCell
var eosPathNode []bool

func init() {
	buildCanonicalCodes()
	buildTrie()
	buildDecodeTable()
	markEOSPath()
}

// buildCanonicalCodes assigns bit patterns to huffmanLengths using the same
// canonical-Huffman construction RFC 1951 §3.2.2 describes: codes of a given
// length are handed out in increasing symbol-index order, and the first code
// of each length is derived from the count of shorter codes.
func buildCanonicalCodes() {
	const maxLen = 32
	var countPerLen [maxLen + 1]int
	for _, l := range huffmanLengths {
		countPerLen[l]++
	}

	var nextCode [maxLen + 1]uint32
	code := uint32(0)
	for l := 1; l <= maxLen; l++ {
		code = (code + uint32(countPerLen[l-1])) << 1
		nextCode[l] = code
	}

	for sym := 0; sym < 257; sym++ {
		l := huffmanLengths[sym]
		huffmanSyms[sym] = huffmanSym{length: l, code: nextCode[l]}
		nextCode[l]++
	}
}

func buildTrie() {
	trieNodes = make([]trieNode, 1, 512)
	trieNodes[0] = trieNode{child: [2]int32{-1, -1}, sym: -1}

	for sym := 0; sym < 257; sym++ {
		length := int(huffmanSyms[sym].length)
		code := huffmanSyms[sym].code

		node := int32(0)
		for b := length - 1; b >= 0; b-- {
			bit := (code >> uint(b)) & 1
			if trieNodes[node].child[bit] == -1 {
				trieNodes = append(trieNodes, trieNode{child: [2]int32{-1, -1}, sym: -1})
				trieNodes[node].child[bit] = int32(len(trieNodes) - 1)
			}
			node = trieNodes[node].child[bit]
		}
		trieNodes[node].sym = int32(sym)
	}
}

// buildDecodeTable compresses the bit-level trie into the 16-column
// nibble-indexed decode table described in spec.md §4.3: decodeTable[state][nibble]
// tells the decoder what byte (if any) to emit and which state to move to
// after consuming 4 more bits.
func buildDecodeTable() {
	decodeTable = make([][16]decodeCell, len(trieNodes))

	for state := range trieNodes {
		for nib := 0; nib < 16; nib++ {
			node := int32(state)
			var cell decodeCell

			for i := 3; i >= 0; i-- {
				bit := (nib >> uint(i)) & 1
				next := trieNodes[node].child[bit]
				if next == -1 {
					cell = decodeCell{invalid: true}
					node = -1
					break
				}
				node = next

				if trieNodes[node].sym != -1 {
					sym := trieNodes[node].sym
					if sym == 256 {
						cell.eos = true
					} else {
						cell.sym = byte(sym)
						cell.emit = true
					}
					node = 0
				}
			}

			if node == -1 {
				decodeTable[state][nib] = decodeCell{invalid: true}
				continue
			}
			cell.next = node
			decodeTable[state][nib] = cell
		}
	}
}

// markEOSPath records, for every trie node, whether it lies on the
// all-ones path toward the EOS leaf — i.e. whether it is a legal place to
// stop mid-symbol because the remainder of the byte is EOS padding.
func markEOSPath() {
	eosPathNode = make([]bool, len(trieNodes))
	eosPathNode[0] = true

	node := int32(0)
	for {
		next := trieNodes[node].child[1]
		if next == -1 {
			break
		}
		eosPathNode[next] = true
		if trieNodes[next].sym == 256 {
			break
		}
		node = next
	}
}

var (
	errHuffmanInvalidCode = errors.New("hpack: invalid huffman code")
	errHuffmanEOSMidway   = errors.New("hpack: huffman EOS symbol decoded mid-string")
	errHuffmanBadPadding  = errors.New("hpack: huffman padding is not a prefix of EOS")
)

// huffmanEncodedLen returns the number of bytes encoding src would occupy.
func huffmanEncodedLen(src []byte) int {
	bits := 0
	for _, c := range src {
		bits += int(huffmanSyms[c].length)
	}
	return (bits + 7) / 8
}

// huffmanEncode appends the Huffman encoding of src to dst.
func huffmanEncode(dst, src []byte) []byte {
	var bitBuf uint64
	var nBits uint

	for _, c := range src {
		sym := huffmanSyms[c]
		bitBuf = (bitBuf << sym.length) | uint64(sym.code)
		nBits += uint(sym.length)

		for nBits >= 8 {
			nBits -= 8
			dst = append(dst, byte(bitBuf>>nBits))
		}
	}

	if nBits > 0 {
		pad := 8 - nBits
		bitBuf = (bitBuf << pad) | ((1 << pad) - 1)
		dst = append(dst, byte(bitBuf))
	}

	return dst
}

// huffmanDecode appends the decoding of the Huffman-encoded src to dst.
func huffmanDecode(dst, src []byte) ([]byte, error) {
	state := int32(0)

	for _, b := range src {
		hi := decodeTable[state][b>>4]
		if hi.invalid {
			return dst, errHuffmanInvalidCode
		}
		if hi.eos {
			return dst, errHuffmanEOSMidway
		}
		if hi.emit {
			dst = append(dst, hi.sym)
		}
		state = hi.next

		lo := decodeTable[state][b&0x0F]
		if lo.invalid {
			return dst, errHuffmanInvalidCode
		}
		if lo.eos {
			return dst, errHuffmanEOSMidway
		}
		if lo.emit {
			dst = append(dst, lo.sym)
		}
		state = lo.next
	}

	if state != 0 && !eosPathNode[state] {
		return dst, errHuffmanBadPadding
	}

	return dst, nil
}
