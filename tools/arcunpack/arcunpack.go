package main

import (
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"os"
	"path"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/mogaika/retro_model_browser/config"
	"github.com/mogaika/retro_model_browser/pack/rarc"
	"github.com/mogaika/retro_model_browser/pack/yaz0"
	"github.com/mogaika/retro_model_browser/vfs"
)

var motd = `#
# <=======> Archive meta file <=======>
#
# Lines format:
# path | size | yaz0
# size is stored size, yaz0 marks files decompressed on unpack
`

// UnpackDirectory writes every file of d under outDir, meta gets one line per file
func UnpackDirectory(d vfs.Directory, outDir string, decompress bool, meta io.Writer) (int, error) {
	count := 0
	var walk func(d vfs.Directory, prefix string) error
	walk = func(d vfs.Directory, prefix string) error {
		names, err := d.List()
		if err != nil {
			return err
		}
		for _, name := range names {
			e, err := d.GetElement(name)
			if err != nil {
				return err
			}
			p := path.Join(prefix, name)
			if sub, ok := e.(vfs.Directory); ok {
				if err := walk(sub, p); err != nil {
					return err
				}
				continue
			}

			data, err := vfs.ReadFile(e.(vfs.File))
			if err != nil {
				return errors.Wrapf(err, "Reading %q", p)
			}
			stored := len(data)
			packed := decompress && yaz0.IsCompressed(data)
			if packed {
				if data, err = yaz0.Decompress(data); err != nil {
					return errors.Wrapf(err, "Decompressing %q", p)
				}
			}

			out := filepath.Join(outDir, filepath.FromSlash(p))
			if err := os.MkdirAll(filepath.Dir(out), 0776); err != nil {
				return err
			}
			if err := ioutil.WriteFile(out, data, 0666); err != nil {
				return err
			}
			fmt.Fprintf(meta, "%s | %x | %v\n", p, stored, packed)
			count++
		}
		return nil
	}
	return count, walk(d, "")
}

func openArchive(fpath string) (*rarc.Archive, error) {
	data, err := ioutil.ReadFile(fpath)
	if err != nil {
		return nil, err
	}
	if yaz0.IsCompressed(data) {
		if data, err = yaz0.Decompress(data); err != nil {
			return nil, err
		}
	}
	return rarc.NewFromData(filepath.Base(fpath), data)
}

func main() {
	var in, out, encoding string
	var decompress bool
	flag.StringVar(&in, "i", "", "Archive to unpack (RARC, optionally Yaz0 compressed)")
	flag.StringVar(&out, "o", "", "Output directory (default: input path + _unpacked)")
	flag.StringVar(&encoding, "encoding", config.ShiftJIS, "Name table encoding")
	flag.BoolVar(&decompress, "yaz0", true, "Decompress Yaz0 files inside archive")
	flag.Parse()

	if in == "" {
		flag.PrintDefaults()
		return
	}
	if out == "" {
		out = in + "_unpacked"
	}
	if err := config.SetEncoding(encoding); err != nil {
		log.Fatal(err)
	}

	a, err := openArchive(in)
	if err != nil {
		log.Fatal(err)
	}
	if err := os.MkdirAll(out, 0776); err != nil {
		log.Fatal(err)
	}
	meta, err := os.Create(filepath.Join(out, "_arc_meta_.txt"))
	if err != nil {
		log.Fatal(err)
	}
	defer meta.Close()
	fmt.Fprint(meta, motd)

	n, err := UnpackDirectory(a, out, decompress, meta)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("Unpacked %d files to %q", n, out)
}
