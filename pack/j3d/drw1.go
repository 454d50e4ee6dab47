package j3d

import (
	"github.com/pkg/errors"

	"github.com/mogaika/retro_model_browser/utils"
)

// DrawMatrix references joint or envelope
type DrawMatrix struct {
	Weighted bool
	Index    int
}

type Drw1 struct {
	Matrices []DrawMatrix
}

func parseDrw1(bs *utils.BufStack) (*Drw1, error) {
	count := int(bs.U16(0x08))
	weightedOff := int(bs.U32(0x0C))
	indicesOff := int(bs.U32(0x10))

	d := &Drw1{Matrices: make([]DrawMatrix, count)}
	for i := range d.Matrices {
		d.Matrices[i] = DrawMatrix{
			Weighted: bs.U8(weightedOff+i) != 0,
			Index:    int(bs.U16(indicesOff + i*2)),
		}
	}
	if err := bs.Err(); err != nil {
		return nil, errors.Wrapf(err, "Draw matrices")
	}
	return d, nil
}
