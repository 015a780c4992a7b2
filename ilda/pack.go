package ilda

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	xxhash "github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"
)

// PackCompression is the codec applied to the content of a pack.
type PackCompression uint8

const (
	PackCompNone PackCompression = 0
	PackCompZlib PackCompression = 1
	PackCompZstd PackCompression = 2
)

func (c PackCompression) String() string {
	switch c {
	case PackCompNone:
		return "none"
	case PackCompZlib:
		return "zlib"
	case PackCompZstd:
		return "zstd"
	}
	return fmt.Sprintf("PackCompression(%d)", uint8(c))
}

// ParsePackCompression parses "none", "zlib" or "zstd".
func ParsePackCompression(s string) (PackCompression, error) {
	switch s {
	case "none":
		return PackCompNone, nil
	case "zlib":
		return PackCompZlib, nil
	case "zstd":
		return PackCompZstd, nil
	}
	return 0, fmt.Errorf("unknown pack compression %q", s)
}

// PackLayout selects how entries are stored inside the content.
type PackLayout uint8

const (
	// LayoutRaw stores each stream as one blob.
	LayoutRaw PackLayout = 0
	// LayoutSections stores a dictionary of unique sections and each stream
	// as a list of references, so frames repeated across files are kept once.
	LayoutSections PackLayout = 1
)

// ErrPackTooLarge reports a pack whose content or rebuilt entries would
// exceed the unpacked size limit.
var ErrPackTooLarge = errors.New("ilda: pack expands past size limit")

// maxUnpackedSize caps both the decompressed content of a pack and the
// total size of the entries rebuilt from it.
var maxUnpackedSize int64 = 1 << 30

const (
	packMagic   = "ILDAPACK"
	packVersion = 1
)

// PackEntry is one named IDTF stream.
type PackEntry struct {
	Name string
	Data []byte
}

// Pack bundles several IDTF streams.
type Pack struct {
	Entries []PackEntry
}

// Marshal encodes the pack with the given layout and compression.
func (p *Pack) Marshal(layout PackLayout, comp PackCompression) ([]byte, error) {
	var content bytes.Buffer
	put := func(v any) { _ = binary.Write(&content, binary.LittleEndian, v) }
	putName := func(name string) error {
		if len(name) > 0xFFFF {
			return fmt.Errorf("pack entry name too long: %.32s...", name)
		}
		put(uint16(len(name)))
		content.WriteString(name)
		return nil
	}

	put(uint8(layout))
	switch layout {
	case LayoutRaw:
		put(uint32(len(p.Entries)))
		for _, e := range p.Entries {
			if err := putName(e.Name); err != nil {
				return nil, err
			}
			put(uint32(len(e.Data)))
			content.Write(e.Data)
		}
	case LayoutSections:
		dict, seqs := buildSectionIndex(p.Entries)
		put(uint32(len(dict)))
		for _, blk := range dict {
			put(uint32(len(blk)))
			content.Write(blk)
		}
		put(uint32(len(p.Entries)))
		for i, e := range p.Entries {
			if err := putName(e.Name); err != nil {
				return nil, err
			}
			put(uint32(len(e.Data)))
			put(uint32(len(seqs[i])))
			for _, idx := range seqs[i] {
				put(uint32(idx))
			}
		}
	default:
		return nil, fmt.Errorf("unsupported pack layout: %d", layout)
	}

	body, err := compress(content.Bytes(), comp)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(packMagic)+2+len(body))
	out = append(out, packMagic...)
	out = append(out, packVersion, byte(comp))
	return append(out, body...), nil
}

// UnmarshalPack parses a pack and returns it with the compression it used.
func UnmarshalPack(data []byte) (*Pack, PackCompression, error) {
	if len(data) < len(packMagic)+2 || string(data[:len(packMagic)]) != packMagic {
		return nil, 0, fmt.Errorf("not an .ildapack")
	}
	if v := data[len(packMagic)]; v != packVersion {
		return nil, 0, fmt.Errorf("unsupported pack version: %d", v)
	}
	comp := PackCompression(data[len(packMagic)+1])
	content, err := decompress(data[len(packMagic)+2:], comp)
	if err != nil {
		return nil, 0, err
	}

	pr := &packReader{r: bytes.NewReader(content)}
	layout := PackLayout(pr.u8())
	var pack *Pack
	switch layout {
	case LayoutRaw:
		n := pr.count()
		pack = &Pack{Entries: make([]PackEntry, 0, n)}
		for i := uint32(0); i < n && pr.err == nil; i++ {
			name := pr.name()
			blob := pr.blob(pr.u32())
			pack.Entries = append(pack.Entries, PackEntry{Name: name, Data: blob})
		}
	case LayoutSections:
		nBlocks := pr.count()
		blocks := make([][]byte, 0, nBlocks)
		for i := uint32(0); i < nBlocks && pr.err == nil; i++ {
			blocks = append(blocks, pr.blob(pr.u32()))
		}
		n := pr.count()
		pack = &Pack{Entries: make([]PackEntry, 0, n)}
		var total int64
		for i := uint32(0); i < n && pr.err == nil; i++ {
			name := pr.name()
			rawLen := pr.u32()
			seqLen := pr.count()
			if pr.err != nil {
				break
			}
			total += int64(rawLen)
			if total > maxUnpackedSize {
				return nil, 0, fmt.Errorf("pack entry %q: %w (%d bytes)", name, ErrPackTooLarge, maxUnpackedSize)
			}
			var data []byte
			for j := uint32(0); j < seqLen && pr.err == nil; j++ {
				idx := pr.u32()
				if pr.err != nil {
					break
				}
				if int(idx) >= len(blocks) {
					return nil, 0, fmt.Errorf("pack entry %q: invalid block index %d", name, idx)
				}
				data = append(data, blocks[idx]...)
				if uint32(len(data)) > rawLen {
					return nil, 0, fmt.Errorf("pack entry %q: blocks exceed declared length %d", name, rawLen)
				}
			}
			if pr.err == nil && uint32(len(data)) != rawLen {
				return nil, 0, fmt.Errorf("pack entry %q: rebuilt %d bytes, declared %d", name, len(data), rawLen)
			}
			pack.Entries = append(pack.Entries, PackEntry{Name: name, Data: data})
		}
	default:
		return nil, 0, fmt.Errorf("unknown pack layout: %d", layout)
	}
	if pr.err != nil {
		return nil, 0, fmt.Errorf("read pack: %w", pr.err)
	}
	return pack, comp, nil
}

// packReader reads little-endian fields and remembers the first error.
type packReader struct {
	r   *bytes.Reader
	err error
}

func (p *packReader) read(v any) {
	if p.err != nil {
		return
	}
	if err := binary.Read(p.r, binary.LittleEndian, v); err != nil {
		p.err = io.ErrUnexpectedEOF
	}
}

func (p *packReader) u8() uint8 {
	var v uint8
	p.read(&v)
	return v
}

func (p *packReader) u32() uint32 {
	var v uint32
	p.read(&v)
	return v
}

// count reads an element count and rejects counts the remaining content
// could not possibly hold.
func (p *packReader) count() uint32 {
	n := p.u32()
	if p.err == nil && int64(n) > int64(p.r.Len()) {
		p.err = fmt.Errorf("count %d exceeds remaining %d bytes", n, p.r.Len())
		return 0
	}
	return n
}

func (p *packReader) blob(n uint32) []byte {
	if p.err != nil {
		return nil
	}
	if int64(n) > int64(p.r.Len()) {
		p.err = io.ErrUnexpectedEOF
		return nil
	}
	b := make([]byte, n)
	_, _ = io.ReadFull(p.r, b)
	return b
}

func (p *packReader) name() string {
	var n uint16
	p.read(&n)
	return string(p.blob(uint32(n)))
}

// SplitSections cuts an IDTF stream into its sections. Every byte of data
// ends up in exactly one block: each section (header plus records, the end
// marker included) is a block, and whatever cannot be framed, such as
// trailing bytes or a section with an unknown format, is a final block.
func SplitSections(data []byte) [][]byte {
	var blocks [][]byte
	pos := 0
	for pos < len(data) {
		h, err := DecodeHeader(data[pos:])
		if err != nil {
			break
		}
		size := h.PayloadSize()
		if size < 0 {
			break
		}
		end := pos + HeaderSize + size
		if end > len(data) {
			break
		}
		blocks = append(blocks, data[pos:end])
		pos = end
		if h.IsEnd() {
			break
		}
	}
	if pos < len(data) {
		blocks = append(blocks, data[pos:])
	}
	return blocks
}

// buildSectionIndex builds the dictionary of unique sections across all
// entries and, per entry, the sequence of dictionary indices.
func buildSectionIndex(entries []PackEntry) ([][]byte, [][]int) {
	blocks := make([][]byte, 0, 64)
	index := make(map[uint64][]int, 256)
	seqs := make([][]int, len(entries))

	addBlock := func(b []byte) int {
		h := xxhash.Sum64(b)
		for _, idx := range index[h] {
			if bytes.Equal(blocks[idx], b) {
				return idx
			}
		}
		idx := len(blocks)
		blocks = append(blocks, append([]byte(nil), b...))
		index[h] = append(index[h], idx)
		return idx
	}

	for i, e := range entries {
		for _, blk := range SplitSections(e.Data) {
			seqs[i] = append(seqs[i], addBlock(blk))
		}
	}
	return blocks, seqs
}

func compress(b []byte, comp PackCompression) ([]byte, error) {
	switch comp {
	case PackCompNone:
		return b, nil
	case PackCompZlib:
		var buf bytes.Buffer
		zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
		if err != nil {
			return nil, err
		}
		if _, err := zw.Write(b); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case PackCompZstd:
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, err
		}
		defer enc.Close()
		return enc.EncodeAll(b, nil), nil
	}
	return nil, fmt.Errorf("unsupported compression: %d", comp)
}

func decompress(b []byte, comp PackCompression) ([]byte, error) {
	switch comp {
	case PackCompNone:
		if int64(len(b)) > maxUnpackedSize {
			return nil, ErrPackTooLarge
		}
		return b, nil
	case PackCompZlib:
		zr, err := zlib.NewReader(bytes.NewReader(b))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		out, err := io.ReadAll(io.LimitReader(zr, maxUnpackedSize+1))
		if err != nil {
			return nil, err
		}
		if int64(len(out)) > maxUnpackedSize {
			return nil, ErrPackTooLarge
		}
		return out, nil
	case PackCompZstd:
		dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(uint64(maxUnpackedSize)))
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		out, err := dec.DecodeAll(b, nil)
		if errors.Is(err, zstd.ErrDecoderSizeExceeded) {
			return nil, ErrPackTooLarge
		}
		return out, err
	}
	return nil, fmt.Errorf("unsupported compression: %d", comp)
}
