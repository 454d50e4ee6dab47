package main

import (
	"flag"
	"log"

	"github.com/mogaika/retro_model_browser/config"
	"github.com/mogaika/retro_model_browser/pack"
	"github.com/mogaika/retro_model_browser/status"
	"github.com/mogaika/retro_model_browser/vfs"
	"github.com/mogaika/retro_model_browser/web"

	_ "github.com/mogaika/retro_model_browser/pack/f3dex"
	_ "github.com/mogaika/retro_model_browser/pack/j3d"
	_ "github.com/mogaika/retro_model_browser/pack/rarc"
	_ "github.com/mogaika/retro_model_browser/pack/stage"
	_ "github.com/mogaika/retro_model_browser/pack/yaz0"
)

func main() {
	var addr, dir, webDir, configPath, game, encoding string
	var watch bool
	flag.StringVar(&addr, "i", "", "Address of server (default from config, :8000)")
	flag.StringVar(&dir, "dir", "", "Path to extracted game files")
	flag.StringVar(&webDir, "web", "", "Path to browser client files")
	flag.StringVar(&configPath, "config", "", "Path to yaml config")
	flag.StringVar(&game, "game", "", "auto, windwaker, sunshine or banjo")
	flag.StringVar(&encoding, "encoding", "", "Name tables encoding: "+config.ShiftJIS+" or charmap name")
	flag.BoolVar(&watch, "watch", true, "Drop decoded files when they change on disk")
	flag.Parse()

	cfg := config.DefaultFile()
	if configPath != "" {
		var err error
		if cfg, err = config.LoadFile(configPath); err != nil {
			log.Fatal(err)
		}
	}
	// flags override config
	for _, o := range []struct {
		flag string
		dst  *string
	}{
		{addr, &cfg.Listen},
		{dir, &cfg.DataDir},
		{webDir, &cfg.WebDir},
		{game, &cfg.Game},
		{encoding, &cfg.Encoding},
	} {
		if o.flag != "" {
			*o.dst = o.flag
		}
	}
	if err := cfg.Apply(); err != nil {
		log.Fatal(err)
	}
	config.SetCurrent(cfg)

	if cfg.DataDir == "" {
		flag.PrintDefaults()
		return
	}

	for ext, target := range cfg.Handlers {
		if err := pack.AliasHandler(ext, target); err != nil {
			log.Fatal(err)
		}
	}

	root := vfs.NewDirectoryDriver(cfg.DataDir)
	s := web.NewServer(pack.NewPack(root), cfg.Actors)

	if watch {
		w, err := vfs.NewWatcher(root)
		if err != nil {
			log.Printf("[main] File watching disabled: %v", err)
		} else {
			defer w.Close()
			w.Subscribe(func(p string) {
				s.Invalidate(p)
				status.Info("%q changed on disk", p)
			})
		}
	}

	log.Printf("[main] Game %v, encoding %s, data %q", config.GetGame(), config.GetEncodingName(), cfg.DataDir)
	if err := s.ListenAndServe(cfg.Listen, cfg.WebDir); err != nil {
		log.Fatal(err)
	}
}
