// Package imageinfo decodes and validates the image-info block embedded in a
// firmware image. Validation is strict: any inconsistency fails the whole
// parse and no Info is returned.
package imageinfo

import (
	"errors"
	"fmt"

	"github.com/danmuck/tagtools/internal/layout"
	"github.com/rs/zerolog/log"
)

const (
	// Offset of the block from the start of the image.
	Offset    = 0x140
	Signature = 0x33275401

	BasicLen = 32
	PlusLen  = 300

	RepoMax  = 44
	StampMax = 30
)

var (
	ErrShortImage       = errors.New("imageinfo: image too short for image info")
	ErrBadSignature     = errors.New("imageinfo: bad signature")
	ErrPlusOverrun      = errors.New("imageinfo: plus field runs past the plus area")
	ErrPlusUnterminated = errors.New("imageinfo: plus area has no end tag")
	ErrFieldTooLong     = errors.New("imageinfo: plus field too long")
)

// SizeMismatchError reports an image_length that disagrees with the file.
type SizeMismatchError struct {
	Declared uint32
	Actual   int
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("imageinfo: image_length %d does not match file size %d", e.Declared, e.Actual)
}

// Plus area tags.
const (
	TagEnd   uint8 = 0
	TagDesc  uint8 = 1
	TagRepo0 uint8 = 2
	TagURL0  uint8 = 3
	TagRepo1 uint8 = 4
	TagURL1  uint8 = 5
	TagStamp uint8 = 6
)

var tagNames = map[uint8]string{
	TagEnd:   "end",
	TagDesc:  "desc",
	TagRepo0: "repo0",
	TagURL0:  "url0",
	TagRepo1: "repo1",
	TagURL1:  "url1",
	TagStamp: "stamp",
}

var tagLimits = map[uint8]int{
	TagRepo0: RepoMax,
	TagRepo1: RepoMax,
	TagStamp: StampMax,
}

// Basic is the fixed 32-byte part of the block. Tag Data Stream VERSION
// records embed the same layout.
var Basic = layout.NewStruct("image_info",
	layout.LE.U32("sig").Fmt("%#010x"),
	layout.LE.U32("image_start").Fmt("%#010x"),
	layout.LE.U32("image_length"),
	layout.LE.U32("vector_chk").Fmt("%#010x"),
	layout.LE.U32("image_chk").Fmt("%#010x"),
	layout.LE.U16("ver_build"),
	layout.U8("ver_minor"),
	layout.U8("ver_major"),
	layout.U8("hw_rev"),
	layout.U8("hw_model"),
	layout.Bytes("reserved", 6),
)

// TLV is one plus-area entry.
type TLV struct {
	Tag  uint8
	Data []byte
}

// Name is the symbolic tag name, or "tag_<n>" for tags this package does not
// know.
func (t TLV) Name() string {
	if name, ok := tagNames[t.Tag]; ok {
		return name
	}
	return fmt.Sprintf("tag_%d", t.Tag)
}

// Info is a validated image-info block.
type Info struct {
	Basic *layout.Aggregate
	Plus  []TLV

	Desc  string
	Repo0 string
	URL0  string
	Repo1 string
	URL1  string
	Stamp string
}

// Version returns "major.minor.build".
func (i *Info) Version() string {
	return FormatVersion(i.Basic)
}

// FormatVersion renders the version fields of a decoded Basic aggregate.
func FormatVersion(a *layout.Aggregate) string {
	return fmt.Sprintf("%d.%d.%d", a.Uint("ver_major"), a.Uint("ver_minor"), a.Uint("ver_build"))
}

// Parse validates and decodes the image-info block of image, the complete
// contents of an image file.
func Parse(image []byte) (*Info, error) {
	if len(image) < Offset+BasicLen+PlusLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrShortImage, len(image))
	}
	basic, _, err := Basic.Decode(image[Offset:])
	if err != nil {
		return nil, fmt.Errorf("imageinfo basic: %w", err)
	}
	if sig := basic.Uint("sig"); sig != Signature {
		return nil, fmt.Errorf("%w: %#010x, want %#010x", ErrBadSignature, sig, Signature)
	}
	if declared := uint32(basic.Uint("image_length")); int(declared) != len(image) {
		return nil, &SizeMismatchError{Declared: declared, Actual: len(image)}
	}
	plus, err := parsePlus(image[Offset+BasicLen : Offset+BasicLen+PlusLen])
	if err != nil {
		return nil, err
	}
	info := &Info{Basic: basic, Plus: plus}
	for _, tlv := range plus {
		if limit, ok := tagLimits[tlv.Tag]; ok && len(tlv.Data) > limit {
			return nil, fmt.Errorf("%w: %s is %d bytes, max %d", ErrFieldTooLong, tlv.Name(), len(tlv.Data), limit)
		}
		value := layout.Text(tlv.Name(), len(tlv.Data))
		v, err := value.Decode(tlv.Data)
		if err != nil {
			return nil, err
		}
		switch tlv.Tag {
		case TagDesc:
			info.Desc = v.Text
		case TagRepo0:
			info.Repo0 = v.Text
		case TagURL0:
			info.URL0 = v.Text
		case TagRepo1:
			info.Repo1 = v.Text
		case TagURL1:
			info.URL1 = v.Text
		case TagStamp:
			info.Stamp = v.Text
		default:
			log.Debug().Uint8("tag", tlv.Tag).Int("len", len(tlv.Data)).Msg("imageinfo: unknown plus tag kept raw")
		}
	}
	return info, nil
}

// parsePlus splits the plus area into TLVs up to, not including, the end
// tag.
func parsePlus(area []byte) ([]TLV, error) {
	var out []TLV
	off := 0
	for off < len(area) {
		tag := area[off]
		if tag == TagEnd {
			return out, nil
		}
		if off+2 > len(area) {
			return nil, fmt.Errorf("%w: header at %d", ErrPlusOverrun, off)
		}
		n := int(area[off+1])
		end := off + 2 + n
		if end > len(area) {
			return nil, fmt.Errorf("%w: %s at %d needs %d bytes", ErrPlusOverrun, TLV{Tag: tag}.Name(), off, n)
		}
		data := make([]byte, n)
		copy(data, area[off+2:end])
		out = append(out, TLV{Tag: tag, Data: data})
		off = end
	}
	return nil, ErrPlusUnterminated
}
