package j3d

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/pkg/errors"
)

// ExportObj writes bind pose geometry. Returns png textures referenced by material library.
func (m *Model) ExportObj(w io.Writer, wMatlib io.Writer, matlibName string) (map[string][]byte, error) {
	textures := make(map[string][]byte)
	fmt.Fprintf(w, "mtllib %s\n", matlibName)

	for _, mat := range m.Mat3.Materials {
		clr := mat.MatColors[0]
		fmt.Fprintf(wMatlib, "newmtl %s\nKd %f %f %f\nd %f\n", mat.Name, clr[0], clr[1], clr[2], clr[3])
		for _, ti := range mat.Textures {
			t := m.Texture(ti)
			if t == nil || t.IsFramebufferCopy() {
				continue
			}
			imgName := fmt.Sprintf("%d_%s.png", ti, t.Name)
			if _, ok := textures[imgName]; !ok {
				png, err := EncodePNG(t)
				if err != nil {
					return nil, err
				}
				textures[imgName] = png
			}
			fmt.Fprintf(wMatlib, "map_Kd %s\n", imgName)
			break
		}
		fmt.Fprintln(wMatlib)
	}

	draw := m.DrawMatrices(m.BindPose())
	iV := 1
	for iShape := range m.Shp1.Shapes {
		g, err := m.ShapeGeometry(iShape)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(w, "o shape%d\n", iShape)
		if mat := m.ShapeMaterial(iShape); mat != nil {
			fmt.Fprintf(w, "usemtl %s\n", mat.Name)
		}
		for _, batch := range g.Batches {
			vertices := batch.Transform(draw)
			for _, v := range vertices {
				fmt.Fprintf(w, "v %f %f %f\n", v.Position[0], v.Position[1], v.Position[2])
				fmt.Fprintf(w, "vt %f %f\n", v.Tex[0][0], 1-v.Tex[0][1])
				fmt.Fprintf(w, "vn %f %f %f\n", v.Normal[0], v.Normal[1], v.Normal[2])
			}
			for i := 0; i+2 < len(batch.Indices); i += 3 {
				a, b, c := iV+int(batch.Indices[i]), iV+int(batch.Indices[i+1]), iV+int(batch.Indices[i+2])
				fmt.Fprintf(w, "f %d/%d/%d %d/%d/%d %d/%d/%d\n", a, a, a, b, b, b, c, c, c)
			}
			iV += len(vertices)
		}
	}
	return textures, nil
}

func (m *Model) ExportObjZip(w io.Writer) error {
	var obj, mtl bytes.Buffer
	textures, err := m.ExportObj(&obj, &mtl, m.Name+".mtl")
	if err != nil {
		return err
	}

	files := map[string][]byte{
		m.Name + ".obj": obj.Bytes(),
		m.Name + ".mtl": mtl.Bytes(),
	}
	for name, data := range textures {
		files[name] = data
	}
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	zw := zip.NewWriter(w)
	for _, name := range names {
		fw, err := zw.Create(name)
		if err != nil {
			return errors.Wrapf(err, "Can't create zip for %q", name)
		}
		if _, err := fw.Write(files[name]); err != nil {
			return errors.Wrapf(err, "Can't write zip for %q", name)
		}
	}
	return zw.Close()
}
