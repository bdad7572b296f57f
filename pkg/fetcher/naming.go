package fetcher

import (
	"fmt"
	"strconv"

	"boorudl/pkg/booru"
)

// Namer derives a deterministic output filename for a post at its position
// in a batch. The position index is owned by the batch loop and advances
// once per post processed, whether or not that post succeeds, so sequence
// names always reflect original batch order.
type Namer interface {
	Name(post *booru.Post, index int) string
}

// md5Namer names files after the post's checksum. Used always for post and
// tags mode, and for pool mode on request.
type md5Namer struct{}

// NewMD5Namer returns the checksum-based filename strategy
func NewMD5Namer() Namer {
	return md5Namer{}
}

func (md5Namer) Name(post *booru.Post, _ int) string {
	return fmt.Sprintf("%s.%s", post.MD5, post.FileExt)
}

// seqNamer names files after the zero-padded batch position. The pad width
// is the number of decimal digits in batchSize-1, so a 100-post pool pads
// to two digits (00..99).
type seqNamer struct {
	width int
}

// NewSequenceNamer returns the position-based filename strategy for a batch
// of the given size.
func NewSequenceNamer(batchSize int) Namer {
	width := 1
	if batchSize > 1 {
		width = len(strconv.Itoa(batchSize - 1))
	}
	return seqNamer{width: width}
}

func (n seqNamer) Name(post *booru.Post, index int) string {
	return fmt.Sprintf("%0*d.%s", n.width, index, post.FileExt)
}
