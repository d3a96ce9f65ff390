// verify_config loads a controller config and checks that it can pair
// verify_config 加载控制端配置并检查其能否配对
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/haierkeys/screen-connect-controller/internal/app"
	"github.com/haierkeys/screen-connect-controller/internal/dao"
	"github.com/haierkeys/screen-connect-controller/internal/domain"
	"github.com/haierkeys/screen-connect-controller/internal/identity"
	"github.com/haierkeys/screen-connect-controller/pkg/util"
)

func main() {
	configPath := flag.String("c", "config/config.yaml", "config file")
	flag.Parse()

	cfg, absPath, err := app.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	fmt.Printf("Loading config from: %s\n", absPath)

	fmt.Println("Controller Configuration Loaded:")
	fmt.Printf("Server URL: %s\n", cfg.Controller.ServerURL)
	fmt.Printf("Display ID: %s\n", cfg.Controller.DisplayID)
	fmt.Printf("Transport: %s\n", cfg.Transport.Type)
	fmt.Printf("Identity Backend: %s\n", cfg.Identity.Backend)

	if err := cfg.ValidateController(); err != nil {
		log.Fatalf("Controller section invalid: %v", err)
	}

	var d *dao.Dao
	backend, err := identity.OpenBackend(cfg.Identity, func() (domain.PreferenceRepository, error) {
		db, err := dao.NewDBEngineWithConfig(cfg.Database, false)
		if err != nil {
			return nil, err
		}
		d = dao.New(db, cfg.Database, nil)
		return dao.NewPreferenceRepository(d), nil
	})
	if err != nil {
		log.Fatalf("Identity backend unavailable: %v", err)
	}
	if d != nil {
		defer d.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Identity.TimeoutDuration())
	defer cancel()

	name, ok, err := backend.Get(ctx, identity.KeyIdentifier)
	switch {
	case err != nil:
		fmt.Printf("Stored identifier: unreadable (%v)\n", err)
	case !ok || name == "":
		fmt.Println("Stored identifier: none")
	case util.IsValidDisplayName(name):
		fmt.Printf("Stored identifier: %q (valid)\n", name)
	default:
		fmt.Printf("Stored identifier: %q (invalid, link will be refused until it is edited)\n", name)
		os.Exit(2)
	}
}
