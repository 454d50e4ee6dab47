package j3d

import (
	"github.com/pkg/errors"

	"github.com/mogaika/retro_model_browser/utils"
)

// BTI is standalone texture file, single header at start
type BTI struct {
	Texture *Texture
	Raw     []byte `json:"-"`
}

func NewBTIFromData(name string, b []byte) (*BTI, error) {
	bs := utils.NewBufStack("bti", b).SetName(name)
	t, err := parseBTI(bs, 0, name)
	if err != nil {
		return nil, errors.Wrapf(err, "BTI")
	}
	return &BTI{Texture: t, Raw: b}, nil
}

func (bti *BTI) Marshal(src utils.ResourceSource) (interface{}, error) {
	textures, err := marshalTextures([]*Texture{bti.Texture})
	if err != nil {
		return nil, err
	}
	return &textures[0], nil
}
